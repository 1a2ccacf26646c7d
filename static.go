// Package railwear embeds the browser front end served by cmd/railwear.
package railwear

import "embed"

// StaticFiles holds the contents of ./static.
//
//go:embed static/*
var StaticFiles embed.FS
