// Package web holds the console's HTML templates.
package web

import "embed"

// Templates: base.html defines the layout, every page defines "content".
//
//go:embed templates/*.html
var Templates embed.FS
