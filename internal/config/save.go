package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/pelletier/go-toml/v2"
)

const (
	lockRetryDelay = 50 * time.Millisecond
	lockWait       = 5 * time.Second
)

// SaveCredentials stores the token and account ID in the config file at path,
// keeping any other settings already present. The file is written with
// owner-only permissions while holding an exclusive lock on <path>.lock.
func SaveCredentials(ctx context.Context, path, token, accountID string) error {
	if path == "" {
		var err error
		if path, err = DefaultConfigPath(); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	lockCtx, cancel := context.WithTimeout(ctx, lockWait)
	defer cancel()

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquire config lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("acquire config lock: %s is held by another process", lock.Path())
	}
	defer func() { _ = lock.Unlock() }()

	doc := map[string]any{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse existing config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return fmt.Errorf("read existing config: %w", err)
	}

	section, _ := doc["fastmail"].(map[string]any)
	if section == nil {
		section = map[string]any{}
	}
	section["api_token"] = token
	section["account_id"] = accountID
	doc["fastmail"] = section

	encoded, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, encoded, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
