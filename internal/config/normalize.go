package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeFastmail()
	if err := c.normalizeJournal(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizeFastmail() {
	c.Fastmail.APIToken = strings.TrimSpace(c.Fastmail.APIToken)
	if c.Fastmail.APIToken == "" {
		if value, ok := os.LookupEnv(TokenEnvVar); ok {
			c.Fastmail.APIToken = strings.TrimSpace(value)
		}
	}
	c.Fastmail.AccountID = strings.TrimSpace(c.Fastmail.AccountID)
	c.Fastmail.SessionURL = strings.TrimSpace(c.Fastmail.SessionURL)
	if c.Fastmail.SessionURL == "" {
		c.Fastmail.SessionURL = defaultSessionURL
	}
	c.Fastmail.APIURL = strings.TrimSpace(c.Fastmail.APIURL)
	if c.Fastmail.APIURL == "" {
		c.Fastmail.APIURL = defaultAPIURL
	}
	if c.Fastmail.TimeoutSeconds == 0 {
		c.Fastmail.TimeoutSeconds = defaultTimeoutSeconds
	}
}

func (c *Config) normalizeJournal() error {
	if strings.TrimSpace(c.Journal.Path) == "" {
		c.Journal.Path = defaultJournalPath
	}
	var err error
	if c.Journal.Path, err = expandPath(strings.TrimSpace(c.Journal.Path)); err != nil {
		return fmt.Errorf("journal.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level

	if dir := strings.TrimSpace(c.Logging.Dir); dir != "" {
		expanded, err := expandPath(dir)
		if err != nil {
			return fmt.Errorf("logging.dir: %w", err)
		}
		c.Logging.Dir = expanded
	}
	return nil
}
