// Package common defines the error kinds and shared constants used across the
// contactbook client. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// ErrUnauthenticated means the call carried no token, or the remote
	// authority rejected it as invalid or expired.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalid means the payload failed validation, locally or server-side.
	ErrInvalid = errors.New("invalid")

	// ErrConflict means a unique field (e.g. account email) is already taken.
	ErrConflict = errors.New("conflict")

	// ErrNotFound means the id does not exist or is not owned by this user.
	ErrNotFound = errors.New("not found")

	// ErrNetwork means no response was received from the remote authority.
	ErrNetwork = errors.New("network error")

	// ErrUnknown covers every other non-2xx response.
	ErrUnknown = errors.New("unknown error")
)

// Kind returns the error kind err belongs to, or nil if it is none of them.
func Kind(err error) error {
	for _, k := range []error{ErrUnauthenticated, ErrInvalid, ErrConflict, ErrNotFound, ErrNetwork, ErrUnknown} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
