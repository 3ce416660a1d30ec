package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"tmail/internal/config"
	"tmail/internal/testsupport"
)

type cliTestEnv struct {
	fake       *testsupport.FakeJMAP
	cfg        *config.Config
	configPath string
}

// setupCLITestEnv writes a config pointing at a fresh fake endpoint. HOME is
// moved into a temp dir so nothing touches the real user config.
func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	t.Setenv("HOME", filepath.Join(t.TempDir(), "home"))
	t.Setenv(config.TokenEnvVar, "")

	fake := testsupport.NewFakeJMAP(t)
	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithFakeJMAP(fake)}, opts...)...)
	return &cliTestEnv{
		fake:       fake,
		cfg:        cfg,
		configPath: testsupport.WriteConfig(t, cfg),
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireNotContains(t *testing.T, output, substr string) {
	t.Helper()
	if strings.Contains(output, substr) {
		t.Fatalf("expected %q not to contain %q", output, substr)
	}
}

func seedDefaults(fake *testsupport.FakeJMAP) {
	fake.Seed(
		map[string]any{
			"id":          "m1",
			"email":       "shop.a1@fastmail.example",
			"state":       "enabled",
			"forDomain":   "https://shop.example",
			"description": "Shop",
			"createdAt":   "2024-01-05T08:30:00Z",
		},
		map[string]any{
			"id":        "m2",
			"email":     "old.b2@fastmail.example",
			"state":     "disabled",
			"createdAt": "2023-06-01T12:00:00Z",
		},
		map[string]any{
			"id":    "m3",
			"email": "gone.c3@fastmail.example",
			"state": "deleted",
		},
	)
}
