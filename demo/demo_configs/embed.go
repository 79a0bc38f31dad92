package demo_configs

import (
	"embed"
)

// FS provides the embedded demo cases (flat directory of YAML case files).
//
//go:embed *.yaml
var FS embed.FS
