// Package configs holds configuration templates embedded into the binary.
//
// The template is written by `catalog config init` and documents every
// option with its default. Edit catalog.example.yaml and rebuild to change
// it.
package configs

import _ "embed"

// ExampleConfig is the annotated project configuration template.
//
//go:embed catalog.example.yaml
var ExampleConfig string
