package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"tmail/internal/journal"
	"tmail/internal/maskedemail"
)

func newMaskedCommand(ctx *commandContext) *cobra.Command {
	maskedCmd := &cobra.Command{
		Use:     "masked",
		Aliases: []string{"m"},
		Short:   "Create, list, and retire masked email addresses",
	}

	maskedCmd.AddCommand(newMaskedListCommand(ctx))
	maskedCmd.AddCommand(newMaskedCreateCommand(ctx))
	maskedCmd.AddCommand(newMaskedDeleteCommand(ctx))
	maskedCmd.AddCommand(newMaskedDestroyCommand(ctx))
	maskedCmd.AddCommand(newMaskedShowCommand(ctx))

	return maskedCmd
}

func newMaskedListCommand(ctx *commandContext) *cobra.Command {
	var all bool
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List masked email addresses",
		Long: `List masked email addresses.

Only enabled addresses are shown unless --all is given, which adds disabled
and deleted ones together with a state column.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			outFormat, err := parseFormat(format, out, formatTable, formatTSV, formatJSON, formatYAML)
			if err != nil {
				return err
			}
			svc, accountID, err := ctx.maskedEmailService()
			if err != nil {
				return err
			}
			list, err := svc.List(cmd.Context(), accountID)
			if err != nil {
				return err
			}
			if !all {
				list = maskedemail.Enabled(list)
			}

			switch outFormat {
			case formatJSON:
				return writeJSON(cmd, newMaskedEmailViews(list))
			case formatYAML:
				return writeYAML(cmd, newMaskedEmailViews(list))
			}

			rows := make([][]string, 0, len(list))
			for _, item := range list {
				row := []string{item.Email, shortDate(item.CreatedAt)}
				if all {
					row = append(row, stateLabel(item.State))
				}
				row = append(row, item.ForDomain, item.Description)
				rows = append(rows, row)
			}
			if outFormat == formatTSV {
				writeTSV(out, rows)
				return nil
			}
			if len(rows) == 0 {
				fmt.Fprintln(out, "No masked email addresses")
				return nil
			}
			headers := []string{"Email", "Created"}
			if all {
				headers = append(headers, "State")
			}
			headers = append(headers, "Domain", "Description")
			fmt.Fprintln(out, renderTable(headers, rows))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include disabled and deleted addresses")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: table, tsv, json, or yaml")
	return cmd
}

func newMaskedCreateCommand(ctx *commandContext) *cobra.Command {
	var description string
	var website string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new masked email address",
		Long: `Create a new masked email address and print it.

When no description is given and the command runs in a terminal, it asks for
a description and website. Each successful call mints a new address: if the
command is interrupted after the request was sent, check 'tmail masked list'
before retrying.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, accountID, err := ctx.maskedEmailService()
			if err != nil {
				return err
			}
			if strings.TrimSpace(description) == "" && isInteractive(cmd) {
				if err := promptCreateDetails(&description, &website); err != nil {
					return err
				}
			}

			created, err := svc.Create(cmd.Context(), accountID, maskedemail.CreateOptions{
				Description: strings.TrimSpace(description),
				ForDomain:   normalizeWebsite(website),
			})
			if err != nil {
				return err
			}
			ctx.recordActivity(cmd.Context(), journal.ActionCreated, created)
			fmt.Fprintln(cmd.OutOrStdout(), created.Email)
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "What the address is used for")
	cmd.Flags().StringVarP(&website, "website", "w", "", "Website the address is used with")
	return cmd
}

func newMaskedDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <email>",
		Aliases: []string{"archive", "disable"},
		Short:   "Disable a masked email address",
		Long: `Disable a masked email address so it stops delivering mail.

The address stays in the account and is shown by 'tmail masked list --all'.
Use 'tmail masked destroy' to remove it permanently.`,
		Args: requireAddress("delete"),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, accountID, err := ctx.maskedEmailService()
			if err != nil {
				return err
			}
			archived, err := svc.ArchiveByAddress(cmd.Context(), accountID, strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			ctx.recordActivity(cmd.Context(), journal.ActionArchived, archived)
			fmt.Fprintf(cmd.OutOrStdout(), "Disabled %s\n", archived.Email)
			return nil
		},
	}
}

func newMaskedDestroyCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "destroy <email>",
		Short: "Permanently delete a masked email address",
		Args:  requireAddress("destroy"),
		RunE: func(cmd *cobra.Command, args []string) error {
			address := strings.TrimSpace(args[0])
			if !yes {
				if !isInteractive(cmd) {
					return errors.New("refusing to destroy without confirmation; pass --yes")
				}
				confirmed, err := confirmDestroy(address)
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
					return nil
				}
			}

			svc, accountID, err := ctx.maskedEmailService()
			if err != nil {
				return err
			}
			destroyed, err := svc.DestroyByAddress(cmd.Context(), accountID, address)
			if err != nil {
				return err
			}
			ctx.recordActivity(cmd.Context(), journal.ActionDestroyed, destroyed)
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", destroyed.Email)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newMaskedShowCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <email>",
		Short: "Show details of one masked email address",
		Args:  requireAddress("show"),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			outFormat, err := parseFormat(format, out, formatTable, formatJSON, formatYAML)
			if err != nil {
				return err
			}
			svc, accountID, err := ctx.maskedEmailService()
			if err != nil {
				return err
			}
			found, err := svc.FindByAddress(cmd.Context(), accountID, strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}

			view := newMaskedEmailView(found)
			view.History = ctx.historyFor(cmd, found.Email)

			switch outFormat {
			case formatJSON:
				return writeJSON(cmd, view)
			case formatYAML:
				return writeYAML(cmd, view)
			}

			fmt.Fprintln(out, renderDetails([][2]string{
				{"Email", found.Email},
				{"ID", valueOrDash(found.ID)},
				{"State", stateLabel(found.State)},
				{"Domain", valueOrDash(found.ForDomain)},
				{"Description", valueOrDash(found.Description)},
				{"Created", valueOrDash(found.CreatedAt)},
				{"Last message", valueOrDash(found.LastMessageAt)},
			}))
			if len(view.History) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderTable([]string{"When", "Action"}, historyRows(view.History, false)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: table, json, or yaml")
	return cmd
}

func requireAddress(verb string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
			return fmt.Errorf("an email address is required: tmail masked %s <email>\nRun 'tmail masked list' to see your addresses", verb)
		}
		if len(args) > 1 {
			return fmt.Errorf("expected one email address, got %d", len(args))
		}
		return nil
	}
}

// normalizeWebsite lowercases a website and drops a trailing slash so the
// same site is always stored the same way.
func normalizeWebsite(website string) string {
	website = strings.TrimSpace(website)
	if website == "" {
		return ""
	}
	return strings.TrimRight(cases.Lower(language.Und).String(website), "/")
}
