// Package confloader loads layered configuration with koanf.
//
// Priority (highest to lowest):
//
//  1. Command-line flags (LoadFlags)
//  2. Environment variables, AUTHSESSION_ prefixed, "__" between levels
//  3. YAML configuration file
//  4. Defaults already present in the target struct
package confloader
