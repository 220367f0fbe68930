package client

import (
	"context"

	"github.com/dmitrijs2005/contactbook/internal/client/models"
)

// Client is the capability set of the remote record store.
// Every method returns the authority's canonical response or an error
// matching one of the common error kinds.
type Client interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	CurrentUser(ctx context.Context) (*models.User, error)

	List(ctx context.Context, filters *models.ListFilters) ([]models.Contact, error)
	Get(ctx context.Context, id string) (*models.Contact, error)
	Create(ctx context.Context, payload models.ContactPayload) (*models.Contact, error)
	Update(ctx context.Context, id string, payload models.ContactPayload) (*models.Contact, error)
	Delete(ctx context.Context, id string) error
	ToggleFavorite(ctx context.Context, id string) (*models.Contact, error)
}

// TokenSource supplies the bearer token attached to protected calls.
// *session.Session satisfies it.
type TokenSource interface {
	Token() (string, bool)
}
