package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/contactbook/internal/client/filter"
	"github.com/dmitrijs2005/contactbook/internal/client/form"
	"github.com/dmitrijs2005/contactbook/internal/client/models"
	"github.com/dmitrijs2005/contactbook/internal/client/store"
	"golang.org/x/sync/errgroup"
)

// ContactStore is the part of *store.Store the contact service drives.
type ContactStore interface {
	Load(ctx context.Context) error
	Add(ctx context.Context, p models.ContactPayload) (store.Outcome, error)
	Edit(ctx context.Context, id string, p models.ContactPayload) (store.Outcome, error)
	Remove(ctx context.Context, id string) (store.Outcome, error)
	ToggleFavorite(ctx context.Context, id string) (store.Outcome, error)
	Fetch(ctx context.Context, id string) (store.Outcome, error)
	Get(id string) (models.Contact, bool)
	Snapshot() []models.Contact
	Version() uint64
	Loaded() bool
	Reset()
}

// ContactService is what the CLI uses for everything behind the login.
// Raw input goes through the form package here and nowhere else.
type ContactService interface {
	Bootstrap(ctx context.Context) (*models.User, error)
	Reload(ctx context.Context) error
	List(ctx context.Context, crit models.Criteria) ([]models.Contact, error)
	Tags(ctx context.Context) ([]string, error)
	Show(ctx context.Context, id string) (models.Contact, error)
	Add(ctx context.Context, raw models.RawContact) (store.Outcome, error)
	Edit(ctx context.Context, id string, raw models.RawContact) (store.Outcome, error)
	Remove(ctx context.Context, id string) (store.Outcome, error)
	ToggleFavorite(ctx context.Context, id string) (store.Outcome, error)
	Logout(ctx context.Context) error
}

type contactService struct {
	auth  AuthService
	store ContactStore
	memo  *filter.Memo
}

func NewContactService(auth AuthService, st ContactStore, memo *filter.Memo) ContactService {
	if memo == nil {
		memo = filter.NewMemo(st, 0)
	}
	return &contactService{auth: auth, store: st, memo: memo}
}

// checked expires the session on an authentication failure and passes err on.
func (s *contactService) checked(ctx context.Context, err error) error {
	if err != nil {
		s.auth.Expire(ctx, err)
	}
	return err
}

// Bootstrap fetches the current user and the collection concurrently.
func (s *contactService) Bootstrap(ctx context.Context) (*models.User, error) {
	var user *models.User
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.auth.CurrentUser(gctx)
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	g.Go(func() error {
		return s.store.Load(gctx)
	})
	if err := g.Wait(); err != nil {
		return nil, s.checked(ctx, fmt.Errorf("bootstrap error: %w", err))
	}
	return user, nil
}

func (s *contactService) Reload(ctx context.Context) error {
	return s.checked(ctx, s.store.Load(ctx))
}

func (s *contactService) ensureLoaded(ctx context.Context) error {
	if s.store.Loaded() {
		return nil
	}
	return s.Reload(ctx)
}

// List returns the derived view for crit, loading the collection first if
// it has not been loaded yet.
func (s *contactService) List(ctx context.Context, crit models.Criteria) ([]models.Contact, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return s.memo.Project(crit), nil
}

func (s *contactService) Tags(ctx context.Context) ([]string, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return s.memo.Tags(), nil
}

// Show refreshes id from the authority, so the detail view never shows a
// value the list has not also been given.
func (s *contactService) Show(ctx context.Context, id string) (models.Contact, error) {
	out, err := s.store.Fetch(ctx, id)
	if err != nil {
		return models.Contact{}, s.checked(ctx, err)
	}
	if out.State == store.StateSuperseded {
		if c, ok := s.store.Get(id); ok {
			return c, nil
		}
	}
	return out.Contact, nil
}

func (s *contactService) Add(ctx context.Context, raw models.RawContact) (store.Outcome, error) {
	p, err := form.Normalize(raw)
	if err != nil {
		return store.Outcome{State: store.StateFailed, Err: err}, err
	}
	out, err := s.store.Add(ctx, p)
	return out, s.checked(ctx, err)
}

func (s *contactService) Edit(ctx context.Context, id string, raw models.RawContact) (store.Outcome, error) {
	p, err := form.Normalize(raw)
	if err != nil {
		return store.Outcome{State: store.StateFailed, Err: err}, err
	}
	out, err := s.store.Edit(ctx, id, p)
	return out, s.checked(ctx, err)
}

func (s *contactService) Remove(ctx context.Context, id string) (store.Outcome, error) {
	out, err := s.store.Remove(ctx, id)
	return out, s.checked(ctx, err)
}

func (s *contactService) ToggleFavorite(ctx context.Context, id string) (store.Outcome, error) {
	out, err := s.store.ToggleFavorite(ctx, id)
	return out, s.checked(ctx, err)
}

// Logout forgets the token and drops the local collection.
func (s *contactService) Logout(ctx context.Context) error {
	s.store.Reset()
	s.memo.Flush()
	return s.auth.Logout(ctx)
}
