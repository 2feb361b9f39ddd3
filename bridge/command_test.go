package bridge

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantDate string
		wantOk   bool
	}{
		{name: "bare trigger", line: "spot", wantDate: "", wantOk: true},
		{name: "trigger with date", line: "spot 2024-01-16", wantDate: "2024-01-16", wantOk: true},
		{name: "surrounding whitespace", line: "  spot   2024-01-16  ", wantDate: "2024-01-16", wantOk: true},
		{name: "wrong trigger", line: "weather", wantOk: false},
		{name: "empty line", line: "", wantOk: false},
		{name: "malformed date", line: "spot tomorrow", wantOk: false},
		{name: "date without zero padding", line: "spot 2024-1-6", wantOk: false},
		{name: "trailing junk", line: "spot 2024-01-16 please", wantOk: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, ok := parseCommand(tt.line, "spot")
			if ok != tt.wantOk || date != tt.wantDate {
				t.Errorf("parseCommand(%q) = (%q, %v), expected (%q, %v)",
					tt.line, date, ok, tt.wantDate, tt.wantOk)
			}
		})
	}
}
