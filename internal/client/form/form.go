// Package form turns raw contact input into the payload sent to the
// authority. It is the only place where payloads are shaped.
package form

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/contactbook/internal/client/models"
	"github.com/dmitrijs2005/contactbook/internal/common"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// tagSeparator is used when tags are shown back to the user for editing.
const tagSeparator = ", "

// FieldError lists the fields that failed validation. It matches
// common.ErrInvalid with errors.Is.
type FieldError struct {
	Fields []string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", strings.Join(e.Fields, ", "), e.Reason)
}

func (e *FieldError) Unwrap() error { return common.ErrInvalid }

// Normalize validates raw and returns the canonical payload.
func Normalize(raw models.RawContact) (models.ContactPayload, error) {
	p := models.ContactPayload{
		Name:       strings.TrimSpace(raw.Name),
		Phone:      strings.TrimSpace(raw.Phone),
		Email:      strings.TrimSpace(raw.Email),
		Tags:       SplitTags(raw.Tags),
		IsFavorite: raw.IsFavorite,
	}

	var missing []string
	if p.Name == "" {
		missing = append(missing, "name")
	}
	if p.Phone == "" {
		missing = append(missing, "phone")
	}
	if p.Email == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return models.ContactPayload{}, &FieldError{Fields: missing, Reason: "required"}
	}

	if notes := strings.TrimSpace(raw.Notes); notes != "" {
		p.Notes = &notes
	}
	return p, nil
}

// SplitTags splits a comma-delimited string into trimmed, non-empty tags in
// the order given. Duplicates are kept.
func SplitTags(s string) []string {
	tags := make([]string, 0)
	for _, piece := range strings.Split(s, ",") {
		if t := strings.TrimSpace(piece); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// FromPayload renders p back into editable fields.
func FromPayload(p models.ContactPayload) models.RawContact {
	raw := models.RawContact{
		Name:       p.Name,
		Phone:      p.Phone,
		Email:      p.Email,
		Tags:       strings.Join(p.Tags, tagSeparator),
		IsFavorite: p.IsFavorite,
	}
	if p.Notes != nil {
		raw.Notes = *p.Notes
	}
	return raw
}

// FromContact prefills the edit form with c's current values.
func FromContact(c models.Contact) models.RawContact {
	return FromPayload(models.ContactPayload{
		Name:       c.Name,
		Phone:      c.Phone,
		Email:      c.Email,
		Notes:      c.Notes,
		Tags:       c.Tags,
		IsFavorite: c.IsFavorite,
	})
}

// ValidateCredentials checks login input before it is sent.
func ValidateCredentials(email, password string) error {
	var missing []string
	if strings.TrimSpace(email) == "" {
		missing = append(missing, "email")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return &FieldError{Fields: missing, Reason: "required"}
	}
	return nil
}

// ValidateRegistration is ValidateCredentials plus the password length rule.
func ValidateRegistration(email, password string) error {
	if err := ValidateCredentials(email, password); err != nil {
		return err
	}
	if len(password) < MinPasswordLength {
		return &FieldError{Fields: []string{"password"}, Reason: fmt.Sprintf("must be at least %d characters", MinPasswordLength)}
	}
	return nil
}
