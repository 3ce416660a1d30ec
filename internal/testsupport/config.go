package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"tmail/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config with its journal under a per-test temp
// directory. Credentials are empty unless an option sets them.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Journal.Path = filepath.Join(base, "journal.db")

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithFakeJMAP points the config at f and stores its credentials.
func WithFakeJMAP(f *FakeJMAP) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Fastmail.SessionURL = f.SessionURL()
		b.cfg.Fastmail.APIURL = f.APIURL()
		b.cfg.Fastmail.APIToken = FakeToken
		b.cfg.Fastmail.AccountID = FakeAccountID
	}
}

// WithoutCredentials clears the token and account ID.
func WithoutCredentials() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Fastmail.APIToken = ""
		b.cfg.Fastmail.AccountID = ""
	}
}

// WithJournalDisabled turns the activity journal off.
func WithJournalDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Journal.Enabled = false
	}
}

// WriteConfig encodes cfg as TOML into a temp file and returns its path.
func WriteConfig(t testing.TB, cfg *config.Config) string {
	t.Helper()

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
