// Package output renders command results for the authsession CLI.
//
//   - formatter.go: Formatter interface and factory
//   - table.go: key/value and column tables
//   - json.go, yaml.go: machine-readable output
//   - spinner.go: progress animation on interactive terminals
//
// All formatters honour json struct tags, so a value prints with the same
// field names in every format.
package output
