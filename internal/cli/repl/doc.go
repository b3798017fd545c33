// Package repl provides the interactive shell for authsession.
//
// Every line runs as a CLI command inside one process, so the in-memory
// session (and its single-flight refresh) lives across commands:
//
//   - repl.go: read loop, builtins and dispatch
//   - split.go: quote-aware line splitting
//   - completer.go: prefix matching over command names
//   - history.go: command history persistence
package repl
