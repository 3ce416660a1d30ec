package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tmail/internal/config"
	"tmail/internal/maskedemail"
)

func newLoginCommand(ctx *commandContext) *cobra.Command {
	var tokenFlag string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Verify an API token and store it with the masked email account",
		Long: `Verify an API token and store it with the masked email account.

The token is taken from --token, then the FASTMAIL_TOKEN environment variable,
and is otherwise prompted for when running in a terminal. Tokens are created in
Fastmail under Settings, Privacy & Security, Integrations and need the Masked
Email scope.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token := strings.TrimSpace(tokenFlag)
			if token == "" {
				token = strings.TrimSpace(os.Getenv(config.TokenEnvVar))
			}
			if token == "" {
				if !isInteractive(cmd) {
					return fmt.Errorf("no API token: pass --token or set %s", config.TokenEnvVar)
				}
				prompted, err := promptToken()
				if err != nil {
					return err
				}
				token = prompted
			}
			if token == "" {
				return errors.New("no API token provided")
			}

			client, err := ctx.newClient(token)
			if err != nil {
				return err
			}
			session, err := client.DiscoverSession(cmd.Context())
			if err != nil {
				return err
			}
			accountID, err := maskedemail.ResolveAccountID(session)
			if err != nil {
				return err
			}

			path, err := ctx.resolvedConfigPath()
			if err != nil {
				return fmt.Errorf("resolve config path: %w", err)
			}
			if err := config.SaveCredentials(cmd.Context(), path, token, accountID); err != nil {
				return fmt.Errorf("save credentials: %w", err)
			}

			out := cmd.OutOrStdout()
			if session.Username != "" {
				fmt.Fprintf(out, "Logged in as %s (account %s)\n", session.Username, accountID)
			} else {
				fmt.Fprintf(out, "Logged in (account %s)\n", accountID)
			}
			fmt.Fprintf(out, "Credentials saved to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&tokenFlag, "token", "", "Fastmail API token (prefer FASTMAIL_TOKEN to keep it out of shell history)")
	return cmd
}
