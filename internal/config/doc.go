// Package config loads, normalizes, and validates tmail configuration data.
//
// It supplies defaults, expands user paths (including tilde shortcuts),
// reads TOML files, and honours the FASTMAIL_TOKEN environment fallback.
// SaveCredentials persists the token and account ID written by login under
// a file lock so concurrent invocations cannot interleave writes.
package config
