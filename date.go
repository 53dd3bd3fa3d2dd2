package md2docx

import (
	"strings"
	"time"
)

// docDateLayouts are the accepted metadata date layouts, tried in order:
// ISO first, then the two day-first local forms.
var docDateLayouts = []string{"2006-01-02", "02.01.2006", "02/01/2006"}

// displayDateLayout is the dotted day-first form used when showing
// dates to readers.
const displayDateLayout = "02.01.2006"

// parseDocDate parses a metadata date value. Only the first
// whitespace-separated token is considered, so values carrying a time
// suffix or an annotation still parse. Returns false when no layout
// matches; an unparseable date never aborts a conversion.
func parseDocDate(value string) (time.Time, bool) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return time.Time{}, false
	}
	for _, layout := range docDateLayouts {
		if t, err := time.Parse(layout, fields[0]); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// formatDocDate renders a metadata date with the given layout.
// Unparseable values pass through unchanged rather than disappearing.
func formatDocDate(value, layout string) string {
	t, ok := parseDocDate(value)
	if !ok {
		return value
	}
	return t.Format(layout)
}
