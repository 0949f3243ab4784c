package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// isoLayout matches the millisecond ISO-8601 form used by stored documents.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp is a UTC instant with millisecond precision. It decodes leniently
// (null, "" and unparseable strings become the zero value) so one bad date
// never invalidates the collection holding it. The zero value encodes as null.
type Timestamp struct {
	time.Time
}

// At converts t into a Timestamp, dropping sub-millisecond precision.
func At(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Millisecond)}
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(isoLayout))
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	t.Time = time.Time{}
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = At(parsed)
			return nil
		}
	}
	return nil
}

// SameDay reports whether t falls on the same calendar day as other in loc.
func (t Timestamp) SameDay(other time.Time, loc *time.Location) bool {
	if t.IsZero() {
		return false
	}
	y1, m1, d1 := t.In(loc).Date()
	y2, m2, d2 := other.In(loc).Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
