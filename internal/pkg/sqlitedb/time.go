package sqlitedb

import (
	"fmt"
	"time"
)

// SQLite has no native datetime type; timestamps are stored as RFC3339 TEXT.
const timeLayout = "2006-01-02T15:04:05.999999999Z"

func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// ParseTime parses the timestamp strings stored in SQLite.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse time %q: %w", s, err)
	}
	return t, nil
}

// NullableString returns nil for empty strings so SQLite stores NULL instead
// of an empty TEXT.
func NullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
