// Package config provides the authsession CLI configuration.
//
//   - spec.go: CLIConfig struct (~/.authsession/config.yaml)
//   - loader.go: layered loading via confloader, validation and saving
package config
