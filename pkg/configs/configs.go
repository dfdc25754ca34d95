// Package configs provides the embedded default files of the perms binary.
// Run `go generate ./pkg/configs` to update them from the root directory.
package configs

//go:generate cp ../../config.yml config.yml
//go:generate cp ../../rules.yml rules.yml

import _ "embed"

// DefaultConfigBytes is the default configuration with all options.
//
//go:embed config.yml
var DefaultConfigBytes []byte

// RulesBytes is an example rules file for the built-in rule engine.
//
//go:embed rules.yml
var RulesBytes []byte
