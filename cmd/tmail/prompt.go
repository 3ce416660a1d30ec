package main

import (
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// isInteractive reports whether the command reads from a terminal.
func isInteractive(cmd *cobra.Command) bool {
	return isTerminal(cmd.InOrStdin())
}

func isTerminal(stream any) bool {
	file, ok := stream.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func promptToken() (string, error) {
	var token string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Fastmail API token").
				Description("Create one under Settings, Privacy & Security, Integrations. It needs the Masked Email scope.").
				Placeholder("fmu1-...").
				EchoMode(huh.EchoModePassword).
				Value(&token).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("token is required")
					}
					return nil
				}),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(token), nil
}

// promptCreateDetails asks for a description, and for a website when none was
// given on the command line.
func promptCreateDetails(description, website *string) error {
	fields := []huh.Field{
		huh.NewInput().
			Title("Description").
			Placeholder("What is this address for?").
			Value(description),
	}
	if strings.TrimSpace(*website) == "" {
		fields = append(fields, huh.NewInput().
			Title("Website").
			Placeholder("https://example.com").
			Value(website))
	}
	return huh.NewForm(huh.NewGroup(fields...)).Run()
}

func confirmDestroy(address string) (bool, error) {
	var confirmed bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Permanently delete " + address + "?").
				Description("Mail sent to this address will be rejected. This cannot be undone.").
				Affirmative("Delete").
				Negative("Cancel").
				Value(&confirmed),
		),
	).Run()
	return confirmed, err
}
