package assets

import "embed"

// Templates holds the starter files shipped with the init command.
//
//go:embed templates
var Templates embed.FS
