package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dmitrijs2005/contactbook/internal/client/models"
	"github.com/dmitrijs2005/contactbook/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/contactbook/internal/client/session"
	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// ---- helpers ----

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE metadata (
  key   TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
`)
	require.NoError(t, err)
	return db
}

func getMeta(t *testing.T, db *sql.DB, k string) (string, bool) {
	t.Helper()
	var v string
	err := db.QueryRow(`SELECT value FROM metadata WHERE key=?`, k).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false
	}
	require.NoError(t, err)
	return v, true
}

func newSession(t *testing.T, db *sql.DB) *session.Session {
	t.Helper()
	return session.New(metadata.NewSQLiteRepository(db))
}

// ---- fake client ----

// fakeClient implements client.Client for service unit tests.
type fakeClient struct {
	RegisterRet *models.User
	RegisterErr error

	LoginRet string
	LoginErr error

	MeRet *models.User
	MeErr error

	ListRet []models.Contact
	ListErr error

	GetRet *models.Contact
	GetErr error

	CreateErr   error
	UpdateErr   error
	DeleteErr   error
	FavoriteErr error

	LastRegisterName  string
	LastRegisterEmail string
	LastLoginEmail    string
	LastLoginPassword string
	LastCreate        models.ContactPayload
	LastUpdateID      string
	LastUpdate        models.ContactPayload
	LastDeleteID      string

	LoginCalls  int
	CreateCalls int
	ListCalls   int
}

func (f *fakeClient) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	f.LastRegisterName = name
	f.LastRegisterEmail = email
	if f.RegisterErr != nil {
		return nil, f.RegisterErr
	}
	if f.RegisterRet != nil {
		return f.RegisterRet, nil
	}
	return &models.User{Id: strings.ToLower(email), Name: name, Email: strings.ToLower(email)}, nil
}

func (f *fakeClient) Login(ctx context.Context, email, password string) (string, error) {
	f.LoginCalls++
	f.LastLoginEmail = email
	f.LastLoginPassword = password
	return f.LoginRet, f.LoginErr
}

func (f *fakeClient) CurrentUser(ctx context.Context) (*models.User, error) {
	return f.MeRet, f.MeErr
}

func (f *fakeClient) List(ctx context.Context, filters *models.ListFilters) ([]models.Contact, error) {
	f.ListCalls++
	return append([]models.Contact(nil), f.ListRet...), f.ListErr
}

func (f *fakeClient) Get(ctx context.Context, id string) (*models.Contact, error) {
	return f.GetRet, f.GetErr
}

func (f *fakeClient) Create(ctx context.Context, p models.ContactPayload) (*models.Contact, error) {
	f.CreateCalls++
	f.LastCreate = p
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	return &models.Contact{Id: fmt.Sprintf("srv-%d", f.CreateCalls), Name: p.Name, Phone: p.Phone, Email: p.Email, Notes: p.Notes, Tags: p.Tags}, nil
}

func (f *fakeClient) Update(ctx context.Context, id string, p models.ContactPayload) (*models.Contact, error) {
	f.LastUpdateID = id
	f.LastUpdate = p
	if f.UpdateErr != nil {
		return nil, f.UpdateErr
	}
	return &models.Contact{Id: id, Name: p.Name, Phone: p.Phone, Email: p.Email, Notes: p.Notes, Tags: p.Tags, IsFavorite: p.IsFavorite}, nil
}

func (f *fakeClient) Delete(ctx context.Context, id string) error {
	f.LastDeleteID = id
	return f.DeleteErr
}

func (f *fakeClient) ToggleFavorite(ctx context.Context, id string) (*models.Contact, error) {
	if f.FavoriteErr != nil {
		return nil, f.FavoriteErr
	}
	return &models.Contact{Id: id, Name: "fav", IsFavorite: true}, nil
}

func unauthenticated(op string) error {
	return fmt.Errorf("%s: %w", op, common.ErrUnauthenticated)
}

// ---- TESTS ----

func TestLogin_StoresAndPersistsToken(t *testing.T) {
	db := setupDB(t)
	fc := &fakeClient{LoginRet: "tok-1"}
	sess := newSession(t, db)
	svc := NewAuthService(fc, sess, nil)

	require.False(t, svc.Authorized())
	require.NoError(t, svc.Login(context.Background(), "ann@example.com", "secret1"))
	require.True(t, svc.Authorized())

	v, ok := getMeta(t, db, common.TokenKey)
	require.True(t, ok)
	require.Equal(t, "tok-1", v)
	require.Equal(t, "ann@example.com", fc.LastLoginEmail)
	require.Equal(t, "secret1", fc.LastLoginPassword)
}

func TestLogin_ValidationSkipsClient(t *testing.T) {
	fc := &fakeClient{}
	svc := NewAuthService(fc, newSession(t, setupDB(t)), nil)

	err := svc.Login(context.Background(), " ", "")
	require.ErrorIs(t, err, common.ErrInvalid)
	require.Zero(t, fc.LoginCalls)
}

func TestLogin_ClientError_Wrapped(t *testing.T) {
	fc := &fakeClient{LoginErr: unauthenticated("login")}
	svc := NewAuthService(fc, newSession(t, setupDB(t)), nil)

	err := svc.Login(context.Background(), "a@x", "wrong")
	require.ErrorIs(t, err, common.ErrUnauthenticated)
	require.True(t, strings.HasPrefix(err.Error(), "login error:"))
	require.False(t, svc.Authorized())
}

func TestLogin_PersistFailureStillLogsIn(t *testing.T) {
	db := setupDB(t)
	sess := newSession(t, db)
	require.NoError(t, db.Close())

	svc := NewAuthService(&fakeClient{LoginRet: "tok"}, sess, nil)
	require.NoError(t, svc.Login(context.Background(), "a@x", "secret1"))
	require.True(t, svc.Authorized())
}

func TestLogout_ClearsToken(t *testing.T) {
	db := setupDB(t)
	sess := newSession(t, db)
	svc := NewAuthService(&fakeClient{LoginRet: "tok"}, sess, nil)
	require.NoError(t, svc.Login(context.Background(), "a@x", "secret1"))

	require.NoError(t, svc.Logout(context.Background()))
	require.False(t, svc.Authorized())
	_, ok := getMeta(t, db, common.TokenKey)
	require.False(t, ok)
}

func TestRegister_DelegatesToClient(t *testing.T) {
	fc := &fakeClient{}
	svc := NewAuthService(fc, newSession(t, setupDB(t)), nil)

	u, err := svc.Register(context.Background(), "Ann", "Ann@Example.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, "ann@example.com", u.Email)
	require.Equal(t, "Ann", fc.LastRegisterName)
	require.False(t, svc.Authorized(), "registering does not log in")
}

func TestRegister_ShortPasswordRejectedLocally(t *testing.T) {
	fc := &fakeClient{}
	svc := NewAuthService(fc, newSession(t, setupDB(t)), nil)

	_, err := svc.Register(context.Background(), "Ann", "a@x", "12345")
	require.ErrorIs(t, err, common.ErrInvalid)
	require.Empty(t, fc.LastRegisterEmail)
}

func TestRegister_ErrorFromClient(t *testing.T) {
	fc := &fakeClient{RegisterErr: fmt.Errorf("register: %w", common.ErrConflict)}
	svc := NewAuthService(fc, newSession(t, setupDB(t)), nil)

	_, err := svc.Register(context.Background(), "Ann", "a@x", "secret1")
	require.ErrorIs(t, err, common.ErrConflict)
	require.True(t, strings.HasPrefix(err.Error(), "register error:"))
}

func TestCurrentUser_UnauthenticatedClearsSession(t *testing.T) {
	db := setupDB(t)
	fc := &fakeClient{LoginRet: "tok", MeErr: unauthenticated("me")}
	svc := NewAuthService(fc, newSession(t, db), nil)
	require.NoError(t, svc.Login(context.Background(), "a@x", "secret1"))

	_, err := svc.CurrentUser(context.Background())
	require.ErrorIs(t, err, common.ErrUnauthenticated)
	require.False(t, svc.Authorized())
	_, ok := getMeta(t, db, common.TokenKey)
	require.False(t, ok)
}

func TestCurrentUser_OtherErrorsKeepSession(t *testing.T) {
	fc := &fakeClient{LoginRet: "tok", MeErr: fmt.Errorf("me: %w", common.ErrNetwork)}
	svc := NewAuthService(fc, newSession(t, setupDB(t)), nil)
	require.NoError(t, svc.Login(context.Background(), "a@x", "secret1"))

	_, err := svc.CurrentUser(context.Background())
	require.ErrorIs(t, err, common.ErrNetwork)
	require.True(t, svc.Authorized())
}

func TestExpire(t *testing.T) {
	svc := NewAuthService(&fakeClient{LoginRet: "tok"}, newSession(t, setupDB(t)), nil)
	require.NoError(t, svc.Login(context.Background(), "a@x", "secret1"))

	require.False(t, svc.Expire(context.Background(), nil))
	require.False(t, svc.Expire(context.Background(), errors.New("other")))
	require.True(t, svc.Authorized())

	require.True(t, svc.Expire(context.Background(), unauthenticated("list")))
	require.False(t, svc.Authorized())
}
