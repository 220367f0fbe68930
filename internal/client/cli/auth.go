package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/contactbook/internal/client/models"
	"github.com/dmitrijs2005/contactbook/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for a display name, email and password and creates an
// account. It does not log in.
//
// The password byte slice is wiped before returning. Validation and service
// errors are returned unchanged.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter your name", a.writer())
	if err != nil {
		return err
	}

	email, err := getSimpleText(a.reader, "Enter email", a.writer())
	if err != nil {
		return err
	}

	password, err := getPassword(a.writer())
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.authService.Register(ctx, name, email, string(password))
	if err != nil {
		return err
	}

	a.println(fmt.Sprintf("Account created for %s. Type 'login' to sign in.", user.Email))
	return nil
}

// Login prompts for credentials, stores the token and loads the dashboard.
//
// A login that succeeds while the dashboard fails to load still leaves the
// session in place; the error is returned so the REPL can report it.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.writer())
	if err != nil {
		return err
	}

	password, err := getPassword(a.writer())
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.authService.Login(ctx, email, string(password)); err != nil {
		a.logger().Debug(ctx, "login failed", "email", email, "error", err)
		return err
	}

	a.println("Login successful")
	return a.openDashboard(ctx)
}

// openDashboard fetches the user and the contact list together.
func (a *App) openDashboard(ctx context.Context) error {
	user, err := a.contactService.Bootstrap(ctx)
	if err != nil {
		return err
	}
	a.setUser(user)

	all, err := a.contactService.List(ctx, models.Criteria{})
	if err != nil {
		return err
	}
	a.println(fmt.Sprintf("Welcome, %s! You have %d contact(s).", user.Name, len(all)))
	return nil
}

// Logout drops the token and the cached contacts. The server is not told.
func (a *App) Logout(ctx context.Context) error {
	if err := a.contactService.Logout(ctx); err != nil {
		return err
	}
	a.userName = ""
	a.println("Logged out")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	user, err := a.authService.CurrentUser(ctx)
	if err != nil {
		return err
	}
	a.setUser(user)
	a.println(fmt.Sprintf("%s <%s>", user.Name, user.Email))
	return nil
}

func (a *App) setUser(u *models.User) {
	if u == nil {
		a.userName = ""
		return
	}
	a.userName = u.Email
}
