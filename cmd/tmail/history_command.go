package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tmail/internal/journal"
	"tmail/internal/logging"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var format string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show masked email changes made from this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			outFormat, err := parseFormat(format, out, formatTable, formatTSV, formatJSON, formatYAML)
			if err != nil {
				return err
			}
			store, err := ctx.openJournal()
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			if store == nil {
				return errors.New("the activity journal is disabled (journal.enabled = false)")
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if entries == nil {
				entries = []journal.Entry{}
			}

			switch outFormat {
			case formatJSON:
				return writeJSON(cmd, entries)
			case formatYAML:
				return writeYAML(cmd, entries)
			case formatTSV:
				writeTSV(out, historyRows(entries, true))
				return nil
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No recorded activity")
				return nil
			}
			fmt.Fprintln(out, renderTable([]string{"When", "Action", "Email", "Domain", "Description"}, historyRows(entries, true)))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries to show (0 for all)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: table, tsv, json, or yaml")
	return cmd
}

func historyRows(entries []journal.Entry, withAddress bool) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		row := []string{entry.RecordedAt.Local().Format(time.DateTime), string(entry.Action)}
		if withAddress {
			row = append(row, entry.Email, entry.ForDomain, entry.Description)
		}
		rows = append(rows, row)
	}
	return rows
}

// historyFor returns journal entries for address. The journal is optional
// here, so failures only produce a debug log.
func (c *commandContext) historyFor(cmd *cobra.Command, address string) []journal.Entry {
	store, err := c.openJournal()
	if err != nil || store == nil {
		if err != nil {
			c.log().Debug("journal unavailable", logging.Error(err))
		}
		return nil
	}
	defer store.Close()

	entries, err := store.ForEmail(cmd.Context(), address)
	if err != nil {
		c.log().Debug("journal lookup failed", logging.Error(err))
		return nil
	}
	return entries
}
