// Package migrations embeds the service's goose SQL migrations so the binary
// migrates itself at startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
