// Package main hosts the tmail CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once per invocation, builds
// a jmap client from the stored credentials, and hands each subcommand a
// masked email service. Failures are mapped to user-facing messages and exit
// codes in errors.go; rendering helpers for tables, TSV, JSON, and YAML live
// next to the commands that use them.
package main
