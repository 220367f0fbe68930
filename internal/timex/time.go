package timex

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// naiveLayout is ISO-8601 without an offset. The fractional part is optional.
const naiveLayout = "2006-01-02T15:04:05.999999999"

// Time is a timestamp as the API writes it. Records read back from the
// authority carry no offset ("2024-05-01T10:20:30.123000"); those are taken
// as UTC. RFC 3339 values keep their offset.
type Time struct {
	time.Time
}

// NewTime wraps t.
func NewTime(t time.Time) Time {
	return Time{Time: t}
}

// ParseTime accepts RFC 3339 or offset-less ISO-8601.
func ParseTime(s string) (Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Time{Time: t}, nil
	}
	t, err := time.ParseInLocation(naiveLayout, s, time.UTC)
	if err != nil {
		return Time{}, fmt.Errorf("invalid timestamp %q", s)
	}
	return Time{Time: t}, nil
}

// FormatNaive writes t in UTC without an offset, the way the authority
// writes stored records.
func FormatNaive(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000")
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}

func (t *Time) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*t = Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*t = Time{}
		return nil
	}
	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
