// Package journal keeps a local SQLite record of masked email lifecycle
// operations performed by this CLI.
//
// The journal is advisory: it is never consulted to decide whether a remote
// operation should run, and it never stores credentials.
package journal
