package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Timestamp represents a point in time, such as an unlock time or an
// event filter boundary.
type Timestamp struct {
	t time.Time
}

// NewTimestamp creates a timestamp from a time.Time.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t: t}
}

// Seconds returns the timestamp in seconds.
func (t *Timestamp) Seconds() int64 {
	return t.t.Unix()
}

// IsZero reports whether the timestamp is unset.
func (t *Timestamp) IsZero() bool {
	return t.t.IsZero()
}

// ParseTimestamp parses a string and returns a time.Time object as UTC.
// It accepts 3 kinds of formats:
// - Integers: that will be parsed as seconds
// - Date Only format (e.g. 2006-01-02)
// - RFC3339 (e.g. 2006-01-02T15:04:05Z07:00).
func ParseTimestamp(ts string) (Timestamp, error) {
	if strings.EqualFold(ts, "") {
		return Timestamp{}, nil
	}

	if n, err := strconv.ParseInt(ts, 10, 64); err == nil {
		return Timestamp{t: time.Unix(n, 0).UTC()}, nil
	}

	if t, err := time.Parse(time.DateOnly, ts); err == nil {
		return Timestamp{t.UTC()}, nil
	}

	if t, err := time.Parse(time.RFC3339, ts); err == nil {
		return Timestamp{t.UTC()}, nil
	}

	return Timestamp{}, fmt.Errorf("could not parse %s", ts)
}
