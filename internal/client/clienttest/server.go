// Package clienttest provides an in-process fake of the contact record store
// for integration tests. It speaks the same HTTP/JSON API as the real
// authority, issues HS256 JWTs, and can be told to fail upcoming calls.
package clienttest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/contactbook/internal/client/models"
	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/dmitrijs2005/contactbook/internal/timex"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// RecordedRequest is what the fake saw for one call.
type RecordedRequest struct {
	Method        string
	Path          string
	RawQuery      string
	Authorization string
	RequestID     string
}

type user struct {
	models.User
	passwordHash []byte
}

type record struct {
	models.Contact
	seq int64
}

type failure struct {
	status int
	detail string
}

// Server is a fake authority. The zero value is not usable; use NewServer.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	secret   []byte
	users    map[string]*user
	contacts map[string]*record
	seq      int64
	failures map[string][]failure
	requests []RecordedRequest
	now      func() time.Time
}

// NewServer starts a fake authority and stops it when t finishes.
func NewServer(t testing.TB) *Server {
	t.Helper()

	secret, err := common.MakeRandHexString(32)
	if err != nil {
		t.Fatalf("generate secret: %v", err)
	}

	s := &Server{
		secret:   []byte(secret),
		users:    map[string]*user{},
		contacts: map[string]*record{},
		failures: map[string][]failure{},
		now:      func() time.Time { return time.Now().UTC() },
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.With(s.authenticate).Get("/me", s.handleMe)
	})

	r.Route("/api/contacts", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/", s.handleList)
		r.Post("/", s.handleCreate)
		r.Get("/{id}", s.handleGet)
		r.Put("/{id}", s.handleUpdate)
		r.Delete("/{id}", s.handleDelete)
		r.Patch("/{id}/favorite", s.handleToggleFavorite)
	})
	return r
}

// FailNext makes the next call of op answer with status and detail.
// Ops: register, login, me, list, get, create, update, delete, favorite.
func (s *Server) FailNext(op string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = append(s.failures[op], failure{status: status, detail: detail})
}

// ExpireTokens invalidates every token issued so far.
func (s *Server) ExpireTokens() {
	secret, _ := common.MakeRandHexString(32)
	s.mu.Lock()
	s.secret = []byte(secret)
	s.mu.Unlock()
}

// Requests returns a copy of every request seen so far.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// AddUser registers an account directly and returns a valid token for it.
func (s *Server) AddUser(t testing.TB, name, email, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := &user{User: models.User{Id: strings.ToLower(email), Name: name, Email: strings.ToLower(email), CreatedAt: timex.NewTime(s.now())}, passwordHash: hash}
	s.users[u.Id] = u

	token, err := s.issueToken(u.Id)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

// Seed stores a contact for the account with the given email.
func (s *Server) Seed(email string, p models.ContactPayload) models.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(strings.ToLower(email), p).Contact.Clone()
}

// Contact returns the authority's current copy of id.
func (s *Server) Contact(id string) (models.Contact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.contacts[id]
	if !ok {
		return models.Contact{}, false
	}
	return r.Contact.Clone(), true
}

func (s *Server) insert(userID string, p models.ContactPayload) *record {
	s.seq++
	now := s.now()
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	r := &record{
		Contact: models.Contact{
			Id:         uuid.NewString(),
			Name:       p.Name,
			Phone:      p.Phone,
			Email:      p.Email,
			Notes:      p.Notes,
			Tags:       append([]string(nil), tags...),
			IsFavorite: p.IsFavorite,
			UserID:     userID,
			CreatedAt:  timex.NewTime(now),
			UpdatedAt:  timex.NewTime(now),
		},
		seq: s.seq,
	}
	s.contacts[r.Id] = r
	return r
}

type claims struct {
	jwt.RegisteredClaims
}

func (s *Server) issueToken(userID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(30 * time.Minute)),
		},
	})
	return token.SignedString(s.secret)
}

func (s *Server) userFromToken(tokenString string) (*user, bool) {
	c := &claims{}
	token, err := jwt.ParseWithClaims(tokenString, c, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, false
	}
	u, ok := s.users[c.Subject]
	return u, ok
}

func (s *Server) contactsOf(userID string) []*record {
	out := make([]*record, 0)
	for _, r := range s.contacts {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	// newest first, like the real store's createdAt sort
	sort.Slice(out, func(i, j int) bool { return out[i].seq > out[j].seq })
	return out
}

// storedContact is a contact as the authority reads it back from storage:
// timestamps carry no offset. Only create echoes offset-aware values.
type storedContact struct {
	models.Contact
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func stored(c models.Contact) storedContact {
	return storedContact{Contact: c, CreatedAt: timex.FormatNaive(c.CreatedAt.Time), UpdatedAt: timex.FormatNaive(c.UpdatedAt.Time)}
}

type storedUser struct {
	models.User
	CreatedAt string `json:"createdAt"`
}

func storedUserOf(u models.User) storedUser {
	return storedUser{User: u, CreatedAt: timex.FormatNaive(u.CreatedAt.Time)}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail any) {
	writeJSON(w, status, map[string]any{"detail": detail})
}

type fieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func writeValidation(w http.ResponseWriter, errs []fieldError) {
	writeDetail(w, http.StatusUnprocessableEntity, errs)
}
