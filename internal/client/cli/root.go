package cli

import (
	"context"
	"fmt"
)

func (a *App) getStatus() string {
	if a.userName == "" || !a.isLoggedIn() {
		return ""
	}
	return fmt.Sprintf("(%s)", a.userName)
}

// Root greets the user, resumes a restored session if there is one, then
// runs the REPL until the user exits.
func (a *App) Root(ctx context.Context) {

	printlnFn("Welcome to contactbook (type 'help' for commands)")

	if a.isLoggedIn() {
		if err := a.openDashboard(ctx); err != nil {
			report(err)
		}
	}
	if !a.isLoggedIn() {
		printlnFn("Type 'login' to sign in or 'register' to create an account.")
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}
