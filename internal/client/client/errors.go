package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/contactbook/internal/common"
)

// APIError describes a failed gateway call. It matches its Kind (and, for
// transport failures, the underlying error) with errors.Is.
type APIError struct {
	Op     string
	Status int // 0 when no response was received
	Detail string
	Kind   error
	Err    error
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *APIError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// kindForStatus maps a non-2xx status to an error kind. The authority reports
// a duplicate registration as 400 with an "already exists" detail.
func kindForStatus(status int, detail string) error {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return common.ErrUnauthenticated
	case status == http.StatusNotFound:
		return common.ErrNotFound
	case status == http.StatusConflict:
		return common.ErrConflict
	case status == http.StatusBadRequest:
		if strings.Contains(strings.ToLower(detail), "already exists") {
			return common.ErrConflict
		}
		return common.ErrInvalid
	case status == http.StatusUnprocessableEntity:
		return common.ErrInvalid
	}
	return common.ErrUnknown
}

type validationItem struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// parseDetail extracts the "detail" member of an error body. It is either a
// string or a list of validation items; anything else yields "".
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		return s
	}

	var items []validationItem
	if err := json.Unmarshal(envelope.Detail, &items); err != nil {
		return ""
	}
	msgs := make([]string, 0, len(items))
	for _, it := range items {
		if field := lastLoc(it.Loc); field != "" {
			msgs = append(msgs, field+": "+it.Msg)
			continue
		}
		msgs = append(msgs, it.Msg)
	}
	return strings.Join(msgs, "; ")
}

func lastLoc(loc []any) string {
	if len(loc) == 0 {
		return ""
	}
	if s, ok := loc[len(loc)-1].(string); ok {
		return s
	}
	return ""
}
