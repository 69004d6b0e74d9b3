// Package appfs exposes the app's static files (DB migrations, data assets
// and email templates) embedded into the binary.
package appfs

import "embed"

//go:embed all:assets migrations
var FS embed.FS
