// Package services contains application services for the contactbook client.
// This file defines the authentication service: register, login, logout, and
// the handling of a session the authority no longer accepts.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/contactbook/internal/client/client"
	"github.com/dmitrijs2005/contactbook/internal/client/form"
	"github.com/dmitrijs2005/contactbook/internal/client/models"
	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/dmitrijs2005/contactbook/internal/logging"
)

// Session is the token holder the services act on.
type Session interface {
	Authorize() bool
	SetToken(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Register: create an account; does not log in.
//   - Login: exchange credentials for a token and store it in the session.
//   - Logout: forget the token locally. The authority is not told.
//   - CurrentUser: fetch the account the token belongs to.
//   - Authorized: whether protected commands may run.
//   - Expire: clear the session if err says the token was rejected.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) error
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*models.User, error)
	Authorized() bool
	Expire(ctx context.Context, err error) bool
}

type authService struct {
	client  client.Client
	session Session
	log     logging.Logger
}

// NewAuthService constructs an AuthService bound to the given API client and session.
func NewAuthService(c client.Client, s Session, log logging.Logger) AuthService {
	if log == nil {
		log = logging.Discard()
	}
	return &authService{client: c, session: s, log: log}
}

// Register validates the input locally before calling the authority.
func (a *authService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	if err := form.ValidateRegistration(email, password); err != nil {
		return nil, err
	}
	u, err := a.client.Register(ctx, name, email, password)
	if err != nil {
		return nil, fmt.Errorf("register error: %w", err)
	}
	a.log.Info(ctx, "account registered", "email", u.Email)
	return u, nil
}

func (a *authService) Login(ctx context.Context, email, password string) error {
	if err := form.ValidateCredentials(email, password); err != nil {
		return err
	}
	token, err := a.client.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login error: %w", err)
	}
	if err := a.session.SetToken(ctx, token); err != nil {
		// the in-memory token is set, only persistence failed
		a.log.Warn(ctx, "session token not persisted", "err", err)
	}
	a.log.Info(ctx, "logged in", "email", email)
	return nil
}

func (a *authService) Logout(ctx context.Context) error {
	if err := a.session.Clear(ctx); err != nil {
		return fmt.Errorf("logout error: %w", err)
	}
	return nil
}

func (a *authService) CurrentUser(ctx context.Context) (*models.User, error) {
	u, err := a.client.CurrentUser(ctx)
	if err != nil {
		a.Expire(ctx, err)
		return nil, fmt.Errorf("current user error: %w", err)
	}
	return u, nil
}

func (a *authService) Authorized() bool {
	return a.session.Authorize()
}

// Expire clears the session when err carries ErrUnauthenticated and reports
// whether it did.
func (a *authService) Expire(ctx context.Context, err error) bool {
	if !errors.Is(err, common.ErrUnauthenticated) {
		return false
	}
	if cerr := a.session.Clear(ctx); cerr != nil {
		a.log.Warn(ctx, "failed to clear rejected session", "err", cerr)
	}
	a.log.Info(ctx, "session expired", "err", err)
	return true
}
