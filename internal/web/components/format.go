package components

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mergestat/timediff"
)

// FormatRelativeTime formats a time.Time as a relative time string like "3 days ago"
func FormatRelativeTime(t time.Time) string {
	return timediff.TimeDiff(t)
}

// FormatDate formats a publication date like "March 14, 2026".
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("January 2, 2006")
}

// FormatCount formats a count with thousands separators.
func FormatCount(n int64) string {
	return humanize.Comma(n)
}

// Pluralize returns singular for 1 and plural otherwise.
func Pluralize(n int64, singular, plural string) string {
	if n == 1 {
		return humanize.Comma(n) + " " + singular
	}
	return humanize.Comma(n) + " " + plural
}
