// Package web carries the embedded demo client assets.
package web

import _ "embed"

//go:embed index.html
var IndexHTML []byte

//go:embed widget.js
var WidgetJS []byte
