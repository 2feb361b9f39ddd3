package price

import (
	"fmt"
	"strings"
	"time"
)

// FormatOptions control report rendering. DayNames are localized weekday
// names indexed from Monday. Location is the display timezone for the
// hourly lines.
type FormatOptions struct {
	DayNames [7]string
	Location *time.Location
}

// Format renders a series as a markdown report: a weekday/date header
// followed by one HH:MM line per point inside a code fence. The weekday
// is taken from the series' own delivery date, so the header stays
// correct even on DST-transition days with 23 or 25 points.
//
// The series is expected to hold a full delivery day; an empty series is
// a caller error and produces a report with no body lines.
func Format(s Series, opts FormatOptions) string {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	var b strings.Builder
	day := s.Day()
	// time.Weekday is Sunday-indexed, day names are Monday-indexed
	b.WriteString(opts.DayNames[(int(day.Weekday())+6)%7])
	b.WriteString(" ")
	b.WriteString(s.Date)
	b.WriteString("\n```\n")
	for _, p := range s.Points {
		fmt.Fprintf(&b, "%s %.2f c/kWh\n", p.Start.In(loc).Format("15:04"), p.Price)
	}
	b.WriteString("```")
	return b.String()
}
