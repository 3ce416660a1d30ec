package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"tmail/internal/journal"
	"tmail/internal/maskedemail"
)

type outputFormat string

const (
	formatTable outputFormat = "table"
	formatTSV   outputFormat = "tsv"
	formatJSON  outputFormat = "json"
	formatYAML  outputFormat = "yaml"
)

// parseFormat validates a --format value against allowed. An empty value
// picks a table on a terminal and TSV otherwise, when TSV is allowed.
func parseFormat(value string, out io.Writer, allowed ...outputFormat) (outputFormat, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		if !isTerminal(out) && slices.Contains(allowed, formatTSV) {
			return formatTSV, nil
		}
		return formatTable, nil
	}
	if format := outputFormat(value); slices.Contains(allowed, format) {
		return format, nil
	}
	names := make([]string, 0, len(allowed))
	for _, format := range allowed {
		names = append(names, string(format))
	}
	return "", fmt.Errorf("unsupported format %q (expected one of: %s)", value, strings.Join(names, ", "))
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeYAML encodes v as YAML to the command's stdout.
func writeYAML(cmd *cobra.Command, v any) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func writeTSV(w io.Writer, rows [][]string) {
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = strings.NewReplacer("\t", " ", "\n", " ").Replace(cell)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
}

// maskedEmailView is the structured output shape of a masked email.
type maskedEmailView struct {
	Email         string          `json:"email" yaml:"email"`
	ID            string          `json:"id,omitempty" yaml:"id,omitempty"`
	State         string          `json:"state,omitempty" yaml:"state,omitempty"`
	ForDomain     string          `json:"forDomain,omitempty" yaml:"for_domain,omitempty"`
	Description   string          `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedAt     string          `json:"createdAt,omitempty" yaml:"created_at,omitempty"`
	LastMessageAt string          `json:"lastMessageAt,omitempty" yaml:"last_message_at,omitempty"`
	History       []journal.Entry `json:"history,omitempty" yaml:"history,omitempty"`
}

func newMaskedEmailView(m maskedemail.MaskedEmail) maskedEmailView {
	return maskedEmailView{
		Email:         m.Email,
		ID:            m.ID,
		State:         string(m.State),
		ForDomain:     m.ForDomain,
		Description:   m.Description,
		CreatedAt:     m.CreatedAt,
		LastMessageAt: m.LastMessageAt,
	}
}

func newMaskedEmailViews(list []maskedemail.MaskedEmail) []maskedEmailView {
	views := make([]maskedEmailView, 0, len(list))
	for _, item := range list {
		views = append(views, newMaskedEmailView(item))
	}
	return views
}

// stateLabel renders a state for humans; unknown states are shown as-is.
func stateLabel(state maskedemail.State) string {
	if state == "" {
		return "-"
	}
	if !state.Known() {
		return string(state)
	}
	return cases.Title(language.English).String(string(state))
}

// shortDate renders an opaque timestamp as YYYY-MM-DD when it parses.
func shortDate(value string) string {
	if value == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.Format("2006-01-02")
		}
	}
	if len(value) >= 10 {
		return value[:10]
	}
	return value
}

func valueOrDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
