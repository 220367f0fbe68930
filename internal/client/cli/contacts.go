package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/contactbook/internal/client/form"
	"github.com/dmitrijs2005/contactbook/internal/client/models"
	"github.com/dmitrijs2005/contactbook/internal/client/store"
	"github.com/dmitrijs2005/contactbook/internal/common"
)

// Prompt seams, swapped in tests like getSimpleText.
var (
	getTextWithDefault      = GetTextWithDefault
	getMultiline            = GetMultiline
	getMultilineWithDefault = GetMultilineWithDefault
	getConfirm              = GetConfirm
	getConfirmDefault       = GetConfirmDefault
)

func (a *App) List(ctx context.Context, crit models.Criteria) error {
	contacts, err := a.contactService.List(ctx, crit)
	if err != nil {
		return err
	}
	if len(contacts) == 0 {
		if crit.IsZero() {
			a.println("No contacts yet. Type 'add' to create one.")
		} else {
			a.println("No contacts match.")
		}
		return nil
	}
	renderList(a.writer(), contacts)
	a.println(fmt.Sprintf("%d contact(s)", len(contacts)))
	return nil
}

func (a *App) Tags(ctx context.Context) error {
	tags, err := a.contactService.Tags(ctx)
	if err != nil {
		return err
	}
	if len(tags) == 0 {
		a.println("No tags yet.")
		return nil
	}
	a.println(strings.Join(tags, ", "))
	return nil
}

// Show fetches the contact again before printing it.
func (a *App) Show(ctx context.Context, id string) error {
	c, err := a.contactService.Show(ctx, id)
	if err != nil {
		return err
	}
	if c.Id == "" {
		return fmt.Errorf("contact %s: %w", id, common.ErrNotFound)
	}
	renderContact(a.writer(), c)
	return nil
}

// Add asks for every field and creates the contact. The contact appears in
// the list only after the server has confirmed it.
func (a *App) Add(ctx context.Context) error {
	raw, err := a.promptContact(models.RawContact{}, false)
	if err != nil {
		return err
	}

	out, err := a.contactService.Add(ctx, raw)
	if err != nil {
		return err
	}
	if a.superseded(out) {
		return nil
	}
	a.println(fmt.Sprintf("Added %s (%s)", out.Contact.Name, out.Contact.Id))
	return nil
}

// Edit prefills the prompts with the current values; Enter keeps a value.
func (a *App) Edit(ctx context.Context, id string) error {
	current, err := a.contactService.Show(ctx, id)
	if err != nil {
		return err
	}
	if current.Id == "" {
		return fmt.Errorf("contact %s: %w", id, common.ErrNotFound)
	}

	raw, err := a.promptContact(form.FromContact(current), true)
	if err != nil {
		return err
	}

	out, err := a.contactService.Edit(ctx, id, raw)
	if err != nil {
		return err
	}
	if a.superseded(out) {
		return nil
	}
	a.println(fmt.Sprintf("Updated %s", out.Contact.Name))
	return nil
}

func (a *App) Delete(ctx context.Context, id string) error {
	label := id
	if c, ok := a.lookup(ctx, id); ok {
		label = fmt.Sprintf("%s (%s)", c.Name, id)
	}

	ok, err := getConfirm(a.reader, fmt.Sprintf("Delete %s?", label), a.writer())
	if err != nil {
		return err
	}
	if !ok {
		a.println("Cancelled")
		return nil
	}

	out, err := a.contactService.Remove(ctx, id)
	if err != nil {
		return err
	}
	if a.superseded(out) {
		return nil
	}
	a.println("Deleted " + label)
	return nil
}

func (a *App) Favorite(ctx context.Context, id string) error {
	out, err := a.contactService.ToggleFavorite(ctx, id)
	if err != nil {
		return err
	}
	if a.superseded(out) {
		return nil
	}
	if out.Contact.IsFavorite {
		a.println(fmt.Sprintf("%s %s is now a favorite", favoriteMark, out.Contact.Name))
	} else {
		a.println(fmt.Sprintf("%s is no longer a favorite", out.Contact.Name))
	}
	return nil
}

func (a *App) Reload(ctx context.Context) error {
	if err := a.contactService.Reload(ctx); err != nil {
		return err
	}
	all, err := a.contactService.List(ctx, models.Criteria{})
	if err != nil {
		return err
	}
	a.println(fmt.Sprintf("Loaded %d contact(s)", len(all)))
	return nil
}

// superseded tells the user when the server confirmed the change but a newer
// response for the same contact had already been applied.
func (a *App) superseded(out store.Outcome) bool {
	if out.State != store.StateSuperseded {
		return false
	}
	a.println("A newer change to this contact was already applied; the list keeps that version.")
	return true
}

// lookup finds id in the loaded list without calling the server.
func (a *App) lookup(ctx context.Context, id string) (models.Contact, bool) {
	all, err := a.contactService.List(ctx, models.Criteria{})
	if err != nil {
		return models.Contact{}, false
	}
	for _, c := range all {
		if c.Id == id {
			return c, true
		}
	}
	return models.Contact{}, false
}

// promptContact asks for each field, starting from current. Enter keeps a
// value and "-" clears it. The favorite question defaults to the current flag.
func (a *App) promptContact(current models.RawContact, editing bool) (models.RawContact, error) {
	raw := current
	w := a.writer()

	fields := []struct {
		prompt string
		dst    *string
	}{
		{"Name", &raw.Name},
		{"Phone", &raw.Phone},
		{"Email", &raw.Email},
		{"Tags (comma separated)", &raw.Tags},
	}
	for _, f := range fields {
		v, err := getTextWithDefault(a.reader, f.prompt, *f.dst, w)
		if err != nil {
			return raw, err
		}
		*f.dst = v
	}

	var (
		notes string
		err   error
	)
	if editing {
		notes, err = getMultilineWithDefault(a.reader, "Notes", raw.Notes, w)
	} else {
		notes, err = getMultiline(a.reader, "Notes (optional)", w)
	}
	if err != nil {
		return raw, err
	}
	raw.Notes = notes

	fav, err := getConfirmDefault(a.reader, "Mark as favorite?", raw.IsFavorite, w)
	if err != nil {
		return raw, err
	}
	raw.IsFavorite = fav
	return raw, nil
}
