package main

import (
	"bytes"
	"testing"

	"tmail/internal/maskedemail"
)

func TestParseFormat(t *testing.T) {
	var buf bytes.Buffer

	got, err := parseFormat("", &buf, formatTable, formatTSV, formatJSON)
	if err != nil || got != formatTSV {
		t.Fatalf("piped default = %q, %v; want tsv", got, err)
	}
	got, err = parseFormat("", &buf, formatTable, formatJSON)
	if err != nil || got != formatTable {
		t.Fatalf("default without tsv = %q, %v; want table", got, err)
	}
	got, err = parseFormat(" JSON ", &buf, formatTable, formatJSON)
	if err != nil || got != formatJSON {
		t.Fatalf("explicit json = %q, %v", got, err)
	}
	if _, err := parseFormat("tsv", &buf, formatTable, formatJSON); err == nil {
		t.Fatal("expected tsv to be rejected when not allowed")
	}
}

func TestShortDate(t *testing.T) {
	cases := map[string]string{
		"":                            "",
		"2024-01-05T08:30:00Z":        "2024-01-05",
		"2024-01-05T08:30:00.5+02:00": "2024-01-05",
		"2024-01-05 08:30:00":         "2024-01-05",
		"2024-01-05-something":        "2024-01-05",
		"soon":                        "soon",
	}
	for input, want := range cases {
		if got := shortDate(input); got != want {
			t.Fatalf("shortDate(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestStateLabel(t *testing.T) {
	cases := map[maskedemail.State]string{
		"":                        "-",
		maskedemail.StateEnabled:  "Enabled",
		maskedemail.StateDisabled: "Disabled",
		"quarantined":             "quarantined",
	}
	for state, want := range cases {
		if got := stateLabel(state); got != want {
			t.Fatalf("stateLabel(%q) = %q, want %q", state, got, want)
		}
	}
}

func TestNormalizeWebsite(t *testing.T) {
	cases := map[string]string{
		"":                       "",
		"  ":                     "",
		"HTTPS://Shop.Example/":  "https://shop.example",
		"https://shop.example//": "https://shop.example",
		"https://shop.example/a": "https://shop.example/a",
	}
	for input, want := range cases {
		if got := normalizeWebsite(input); got != want {
			t.Fatalf("normalizeWebsite(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestWriteTSVFlattensSeparators(t *testing.T) {
	var buf bytes.Buffer
	writeTSV(&buf, [][]string{{"a\tb", "c\nd", ""}})
	if got := buf.String(); got != "a b\tc d\t\n" {
		t.Fatalf("writeTSV = %q", got)
	}
}

func TestRenderTableKeepsHeaderCase(t *testing.T) {
	out := renderTable([]string{"Email", "Last message"}, [][]string{{"a@example.com"}, {"b@example.com", "2024-01-05"}})
	for _, want := range []string{"Email", "Last message", "a@example.com", "2024-01-05"} {
		requireContains(t, out, want)
	}
	requireNotContains(t, out, "EMAIL")
	requireNotContains(t, out, "LAST MESSAGE")

	if got := renderTable(nil, [][]string{{"x"}}); got != "" {
		t.Fatalf("renderTable without headers = %q, want empty", got)
	}
}
