package repository

import (
	"strings"
	"time"
)

// isUniqueViolation reports a SQLite UNIQUE or PRIMARY KEY conflict. When
// columns are given, at least one "table.column" must appear in the message.
func isUniqueViolation(err error, columns ...string) bool {
	if err == nil || !strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return false
	}
	if len(columns) == 0 {
		return true
	}
	for _, c := range columns {
		if strings.Contains(err.Error(), c) {
			return true
		}
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// utcNow is the single clock for every persisted timestamp.
var utcNow = func() time.Time {
	return time.Now().UTC()
}

// toUTC normalizes scanned timestamps; the driver may return a fixed zone
// with a zero offset instead of time.UTC.
func toUTC(ts ...*time.Time) {
	for _, t := range ts {
		*t = t.UTC()
	}
}
