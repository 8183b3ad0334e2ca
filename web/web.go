// Package web holds the static check-in page.
package web

import _ "embed"

//go:embed index.html
var IndexHTML []byte
