package cli

import (
	"errors"

	"github.com/dmitrijs2005/contactbook/internal/client/client"
	"github.com/dmitrijs2005/contactbook/internal/client/form"
	"github.com/dmitrijs2005/contactbook/internal/common"
)

func report(err error) {
	printlnFn(describe(err))
}

// describe turns a command error into the line shown to the user. Server
// details are preferred over the wrapped Go error text.
func describe(err error) string {
	var ue *usageError
	if errors.As(err, &ue) {
		return "Usage: " + ue.line
	}
	if errors.Is(err, errNotLoggedIn) {
		return "You are not logged in. Type 'login' or 'register'."
	}

	detail := err.Error()
	var fe *form.FieldError
	var ae *client.APIError
	switch {
	case errors.As(err, &fe):
		detail = fe.Error()
	case errors.As(err, &ae) && ae.Detail != "":
		detail = ae.Detail
	}

	switch common.Kind(err) {
	case common.ErrInvalid:
		return "Invalid input: " + detail
	case common.ErrConflict:
		return "Conflict: " + detail
	case common.ErrNotFound:
		return "Contact not found"
	case common.ErrUnauthenticated:
		return "Not authenticated: " + detail
	case common.ErrNetwork:
		return "Server unreachable: " + detail
	case common.ErrUnknown:
		return "Server error: " + detail
	}
	return "Error: " + detail
}
