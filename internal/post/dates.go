package post

import (
	"fmt"
	"strings"
	"time"
)

const (
	// ISOLayout is the timestamp format used in meta tags, structured data and the sitemap.
	ISOLayout = "2006-01-02T15:04:05.000Z"
	// DisplayLayout is the long date format shown on the homepage.
	DisplayLayout = "January 2, 2006"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	DisplayLayout,
}

// ParseDate parses the date formats accepted in metadata blocks and editor forms.
// Values without a zone are taken as UTC.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}

// FormatISO renders t in UTC with millisecond precision.
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

// FormatDisplay renders t as a long English date.
func FormatDisplay(t time.Time) string {
	return t.UTC().Format(DisplayLayout)
}
