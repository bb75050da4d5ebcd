package prismic

import (
	"bytes"
	"fmt"
	"time"
)

// timestampLayout is the layout the API uses for publication dates,
// e.g. "2021-08-15T00:00:00+0000".
const timestampLayout = "2006-01-02T15:04:05-0700"

// Timestamp decodes API publication dates, which use a numeric zone offset
// without a colon and are therefore not RFC 3339.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON accepts the API layout, RFC 3339 and null.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("prismic: timestamp must be a string, got %s", b)
	}
	s := string(b[1 : len(b)-1])
	for _, layout := range []string{timestampLayout, time.RFC3339Nano} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("prismic: unrecognised timestamp %q", s)
}

// MarshalJSON writes the API layout.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(timestampLayout) + `"`), nil
}
