package transport

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestParseCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input     string
		isCommand bool
		name      string
		id        string
		rest      string
	}{
		{"/create", true, "create", "", ""},
		{"/go", true, "go", "", ""},
		{"/go 2", true, "go", "2", ""},
		{"/remove 3", true, "remove", "3", ""},
		{"/note 1 hybrid schedule possible", true, "note", "1", "hybrid schedule possible"},
		{"/LIST", true, "list", "", ""},
		{"  /advise  ", true, "advise", "", ""},
		{"/ping still there?", true, "ping", "", "still there?"},
		{"which offer should I take?", false, "", "", ""},
		{"// not a command", true, "/", "", "not a command"},
		{"/", false, "", "", ""},
		{"", false, "", "", ""},
	}

	for _, tt := range tests {
		cmd, ok := ParseCommand(tt.input)
		if ok != tt.isCommand {
			t.Errorf("ParseCommand(%q) ok = %v, want %v", tt.input, ok, tt.isCommand)
			continue
		}
		if !ok {
			continue
		}
		if cmd.Name != tt.name || cmd.ID != tt.id || cmd.Rest != tt.rest {
			t.Errorf("ParseCommand(%q) = %+v, want name=%q id=%q rest=%q", tt.input, cmd, tt.name, tt.id, tt.rest)
		}
	}
}

func TestFormatOfferListEmpty(t *testing.T) {
	t.Parallel()

	if got := formatOfferList(nil); got != "No offers are currently available." {
		t.Errorf("Unexpected empty-list text: %q", got)
	}
}

func TestSnippet_KeepsRuneBoundaries(t *testing.T) {
	t.Parallel()

	got := snippet(strings.Repeat("é", 60), 50)
	if !utf8.ValidString(got) {
		t.Errorf("snippet produced invalid UTF-8: %q", got)
	}
	if want := strings.Repeat("é", 50) + "..."; got != want {
		t.Errorf("snippet = %d runes, want 50 + ellipsis", utf8.RuneCountInString(got))
	}
	if short := snippet("héllo", 50); short != "héllo" {
		t.Errorf("Short string changed: %q", short)
	}
}
