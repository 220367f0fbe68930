package models

import "strconv"

// Criteria drives the derived contact view. The zero value matches everything.
type Criteria struct {
	SearchText   string
	FavoriteOnly bool
	Tag          string
}

// IsZero reports whether c filters nothing out.
func (c Criteria) IsZero() bool {
	return c.SearchText == "" && !c.FavoriteOnly && c.Tag == ""
}

// Key is a stable string that identifies c, used for memoization.
func (c Criteria) Key() string {
	return strconv.Quote(c.SearchText) + "|" + strconv.FormatBool(c.FavoriteOnly) + "|" + strconv.Quote(c.Tag)
}

// ListFilters are optional server-side filters for the list call.
// They are a pass-through convenience; zero fields are not sent.
type ListFilters struct {
	Search   string
	Tag      string
	Favorite *bool
}
