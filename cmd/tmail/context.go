package main

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"tmail/internal/config"
	"tmail/internal/jmap"
	"tmail/internal/journal"
	"tmail/internal/logging"
	"tmail/internal/maskedemail"
)

type commandContext struct {
	configFlag *string
	debugFlag  *bool

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string, debugFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		debugFlag:  debugFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(c.configFlagValue())
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) configFlagValue() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// resolvedConfigPath returns where the config file lives or would be created.
func (c *commandContext) resolvedConfigPath() (string, error) {
	if _, err := c.ensureConfig(); err == nil {
		return c.configPath, nil
	}
	if flag := c.configFlagValue(); flag != "" {
		return config.ExpandPath(flag)
	}
	return config.DefaultConfigPath()
}

func (c *commandContext) log() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg := config.Default()
		if loaded := c.configValue(); loaded != nil {
			cfg = *loaded
		}
		if c.debugFlag != nil && *c.debugFlag {
			cfg.Logging.Level = "debug"
		}
		logger, err := logging.NewFromConfig(&cfg)
		if err != nil {
			// An unwritable log directory should not block the command.
			logger, err = logging.New(logging.Options{Level: cfg.Logging.Level})
			if err != nil {
				logger = logging.NewNop()
			}
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) newClient(token string) (*jmap.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return jmap.New(jmap.Config{
		Token:      token,
		SessionURL: cfg.Fastmail.SessionURL,
		APIURL:     cfg.Fastmail.APIURL,
		HTTPClient: &http.Client{Timeout: cfg.Timeout()},
		Logger:     c.log(),
	})
}

// maskedEmailService returns a service and the account it operates on. It
// fails with config.ErrNotLoggedIn when credentials are missing.
func (c *commandContext) maskedEmailService() (*maskedemail.Service, string, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, "", err
	}
	if err := cfg.RequireCredentials(); err != nil {
		return nil, "", err
	}
	client, err := c.newClient(cfg.Fastmail.APIToken)
	if err != nil {
		return nil, "", err
	}
	return maskedemail.NewService(client, c.log()), cfg.Fastmail.AccountID, nil
}

// openJournal returns nil without error when the journal is disabled.
func (c *commandContext) openJournal() (*journal.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Journal.Enabled {
		return nil, nil
	}
	return journal.Open(cfg.Journal.Path)
}

// recordActivity appends an entry to the journal. Failures are logged and
// never change the outcome of the command.
func (c *commandContext) recordActivity(ctx context.Context, action journal.Action, item maskedemail.MaskedEmail) {
	logger := logging.WithContext(ctx, c.log())
	store, err := c.openJournal()
	if err != nil {
		logging.WarnWithContext(logger, "activity journal unavailable", "journal_open_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check journal.path in the config file"),
			logging.String(logging.FieldImpact, "operation succeeded but was not recorded locally"))
		return
	}
	if store == nil {
		return
	}
	defer store.Close()

	entry := journal.Entry{
		Action:        action,
		MaskedEmailID: item.ID,
		Email:         item.Email,
		ForDomain:     item.ForDomain,
		Description:   item.Description,
	}
	if cfg := c.configValue(); cfg != nil {
		entry.AccountID = cfg.Fastmail.AccountID
	}
	if _, err := store.Record(ctx, entry); err != nil {
		logging.WarnWithContext(logger, "failed to record activity", "journal_write_failed",
			logging.Error(err),
			logging.String("action", string(action)),
			logging.String(logging.FieldImpact, "operation succeeded but was not recorded locally"))
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
