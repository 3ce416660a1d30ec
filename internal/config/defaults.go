package config

const (
	defaultConfigPath     = "~/.config/tmail/config.toml"
	defaultSessionURL     = "https://api.fastmail.com/jmap/session"
	defaultAPIURL         = "https://api.fastmail.com/jmap/api/"
	defaultTimeoutSeconds = 30
	defaultJournalEnabled = true
	defaultJournalPath    = "~/.local/share/tmail/journal.db"
	defaultLogFormat      = "console"
	defaultLogLevel       = "warn"

	// TokenEnvVar supplies the API token when the config file has none.
	TokenEnvVar = "FASTMAIL_TOKEN"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Fastmail: Fastmail{
			SessionURL:     defaultSessionURL,
			APIURL:         defaultAPIURL,
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Journal: Journal{
			Enabled: defaultJournalEnabled,
			Path:    defaultJournalPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
