package store

import "time"

// TimeLayout is the text encoding used for every TEXT timestamp column.
// RFC3339Nano round-trips through SQLite TEXT columns and still sorts
// lexicographically in the same order as chronologically, which lets
// created_at ORDER BY clauses skip a parse step.
const TimeLayout = time.RFC3339Nano

// FormatTime renders t for storage.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime is the inverse of FormatTime.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeLayout, s)
}

// FormatTimePtr renders *t for storage, or nil if t is nil.
func FormatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return FormatTime(*t)
}

// ParseTimePtr parses a nullable TEXT timestamp scanned into a *string.
func ParseTimePtr(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := ParseTime(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
