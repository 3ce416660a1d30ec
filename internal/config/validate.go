package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable. Missing credentials are not
// an error here; commands that need them call RequireCredentials.
func (c *Config) Validate() error {
	if err := c.validateFastmail(); err != nil {
		return err
	}
	if err := c.validateJournal(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateFastmail() error {
	if err := validateEndpoint("fastmail.session_url", c.Fastmail.SessionURL); err != nil {
		return err
	}
	if err := validateEndpoint("fastmail.api_url", c.Fastmail.APIURL); err != nil {
		return err
	}
	if c.Fastmail.TimeoutSeconds <= 0 {
		return errors.New("fastmail.timeout_seconds must be positive")
	}
	return nil
}

func validateEndpoint(field, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return fmt.Errorf("%s must be an http(s) url, got %q", field, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s is missing a host", field)
	}
	return nil
}

func (c *Config) validateJournal() error {
	if c.Journal.Enabled && strings.TrimSpace(c.Journal.Path) == "" {
		return errors.New("journal.path is required when the journal is enabled")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
