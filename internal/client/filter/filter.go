// Package filter computes the derived contact view from a collection and
// the current criteria. Nothing here touches the network.
package filter

import (
	"strings"

	"github.com/dmitrijs2005/contactbook/internal/client/models"
)

// Match reports whether c passes every predicate in crit.
func Match(c models.Contact, crit models.Criteria) bool {
	if crit.FavoriteOnly && !c.IsFavorite {
		return false
	}
	if crit.Tag != "" && !c.HasTag(crit.Tag) {
		return false
	}
	return matchText(c, crit.SearchText)
}

func matchText(c models.Contact, text string) bool {
	if text == "" {
		return true
	}
	needle := strings.ToLower(text)
	return strings.Contains(strings.ToLower(c.Name), needle) ||
		strings.Contains(strings.ToLower(c.Phone), needle) ||
		strings.Contains(strings.ToLower(c.Email), needle)
}

// Project returns the contacts in collection that match crit, in order.
// The result never aliases collection's backing array.
func Project(collection []models.Contact, crit models.Criteria) []models.Contact {
	out := make([]models.Contact, 0, len(collection))
	for _, c := range collection {
		if Match(c, crit) {
			out = append(out, c)
		}
	}
	return out
}

// DistinctTags returns every tag used in collection, in first-seen order.
func DistinctTags(collection []models.Contact) []string {
	seen := make(map[string]struct{})
	tags := make([]string, 0)
	for _, c := range collection {
		for _, t := range c.Tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			tags = append(tags, t)
		}
	}
	return tags
}
