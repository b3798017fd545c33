// Package command defines the authsession CLI using urfave/cli/v2.
//
//   - root.go: App, global flags, lifecycle
//   - runtime.go: wiring of config, store, session and pipeline
//   - auth.go: login, register, logout, refresh, status, whoami
//   - request.go: authorized requests to business endpoints
//   - config.go: config show and init
//   - version.go: build information
//
// Every command loads the configuration once, restores the persisted
// session and prints its result with the selected output format.
package command
