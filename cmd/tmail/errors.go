package main

import (
	"errors"
	"fmt"
	"strings"

	"tmail/internal/config"
	"tmail/internal/jmap"
)

const (
	exitFailure        = 1
	exitAuthentication = 3
	exitCapability     = 4
	exitTransport      = 5
	exitNotFound       = 6
)

func exitCode(err error) int {
	if errors.Is(err, config.ErrNotLoggedIn) {
		return exitAuthentication
	}
	switch jmap.KindOf(err) {
	case jmap.KindAuthentication:
		return exitAuthentication
	case jmap.KindCapabilityMissing:
		return exitCapability
	case jmap.KindTransport:
		return exitTransport
	case jmap.KindNotFound:
		return exitNotFound
	default:
		return exitFailure
	}
}

// describeError turns a failure into a message that tells the user what to do next.
func describeError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, config.ErrNotLoggedIn) {
		return "Not logged in. Run 'tmail login' with a Fastmail API token that has the Masked Email scope."
	}

	var jerr *jmap.Error
	if !errors.As(err, &jerr) {
		return err.Error()
	}
	switch jerr.Kind {
	case jmap.KindAuthentication:
		msg := fmt.Sprintf("Fastmail rejected the request (HTTP %d).", jerr.StatusCode)
		if body := strings.TrimSpace(jerr.Body); body != "" {
			msg += " Response: " + body
		}
		return msg + "\nThe API token may be invalid or revoked. Run 'tmail login' to store a new one."
	case jmap.KindCapabilityMissing:
		return "This API token does not grant the Masked Email scope.\nCreate a token with Masked Email access in Fastmail settings, then run 'tmail login'."
	case jmap.KindTransport:
		return fmt.Sprintf("Could not reach Fastmail: %v\nCheck your network connection and try again.", jerr.Err)
	case jmap.KindNotFound:
		return fmt.Sprintf("No masked email matches %s.\nRun 'tmail masked list --all' to see every address.", jerr.Identifier)
	default:
		return err.Error()
	}
}
