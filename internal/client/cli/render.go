package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/contactbook/internal/client/models"
)

const favoriteMark = "★"

const timeLayout = "2006-01-02 15:04"

func renderList(w io.Writer, contacts []models.Contact) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, " \tNAME\tPHONE\tEMAIL\tTAGS\tID")
	for _, c := range contacts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", mark(c), c.Name, c.Phone, c.Email, strings.Join(c.Tags, ", "), c.Id)
	}
	_ = tw.Flush()
}

func renderContact(w io.Writer, c models.Contact) {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	name := c.Name
	if c.IsFavorite {
		name += " " + favoriteMark
	}
	fmt.Fprintf(tw, "Name:\t%s\n", name)
	fmt.Fprintf(tw, "Phone:\t%s\n", c.Phone)
	fmt.Fprintf(tw, "Email:\t%s\n", c.Email)
	if len(c.Tags) > 0 {
		fmt.Fprintf(tw, "Tags:\t%s\n", strings.Join(c.Tags, ", "))
	}
	if c.Notes != nil {
		lines := strings.Split(*c.Notes, "\n")
		fmt.Fprintf(tw, "Notes:\t%s\n", lines[0])
		for _, l := range lines[1:] {
			fmt.Fprintf(tw, "\t%s\n", l)
		}
	}
	if t := formatTime(c.CreatedAt.Time); t != "" {
		fmt.Fprintf(tw, "Created:\t%s\n", t)
	}
	if t := formatTime(c.UpdatedAt.Time); t != "" {
		fmt.Fprintf(tw, "Updated:\t%s\n", t)
	}
	fmt.Fprintf(tw, "ID:\t%s\n", c.Id)
	_ = tw.Flush()
}

func mark(c models.Contact) string {
	if c.IsFavorite {
		return favoriteMark
	}
	return " "
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(timeLayout)
}
