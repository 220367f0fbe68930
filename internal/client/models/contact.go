// Package models defines client-side data models used by the contactbook CLI.
package models

import "github.com/dmitrijs2005/contactbook/internal/timex"

// Contact is the canonical record returned by the remote authority.
// The client never edits one in place; it replaces it with the next
// value the authority returns.
type Contact struct {
	// Id is assigned by the authority and never changes.
	Id    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`

	// Notes is nil when the contact has no notes.
	Notes *string `json:"notes"`

	// Tags keep the order they were entered in.
	Tags []string `json:"tags"`

	IsFavorite bool `json:"isFavorite"`

	// Authority-owned metadata, carried through verbatim.
	UserID    string    `json:"userId,omitempty"`
	CreatedAt timex.Time `json:"createdAt,omitempty"`
	UpdatedAt timex.Time `json:"updatedAt,omitempty"`
}

// HasTag reports whether tag is one of c's tags (exact match).
func (c Contact) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers cannot alias the store's slices.
func (c Contact) Clone() Contact {
	out := c
	if c.Tags != nil {
		out.Tags = append([]string(nil), c.Tags...)
	}
	if c.Notes != nil {
		n := *c.Notes
		out.Notes = &n
	}
	return out
}

// ContactPayload is the normalized create/update body. It is produced only
// by the form package; raw user input never reaches the gateway.
type ContactPayload struct {
	Name       string   `json:"name"`
	Phone      string   `json:"phone"`
	Email      string   `json:"email"`
	Notes      *string  `json:"notes"`
	Tags       []string `json:"tags"`
	IsFavorite bool     `json:"isFavorite"`
}

// RawContact holds the fields exactly as the user typed them.
// Tags is a single comma-delimited string.
type RawContact struct {
	Name       string
	Phone      string
	Email      string
	Notes      string
	Tags       string
	IsFavorite bool
}
