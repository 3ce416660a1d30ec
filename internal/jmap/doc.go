// Package jmap implements the protocol plumbing tmail needs: session
// discovery, batched method calls with call-ID correlation, and the closed
// error taxonomy every other package reports through.
//
// The package knows nothing about masked emails. Callers describe method
// calls as name plus argument builder, and interpret the raw result payloads
// themselves. Every failure crossing the package boundary is a *Error whose
// Kind distinguishes network problems, rejected credentials, missing
// capabilities, malformed bodies and method-level rejections.
package jmap
