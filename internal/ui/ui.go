// Package ui embeds the phone page that forwards sensor readings to
// the engine and renders the live tour state.
package ui

import "embed"

//go:embed static
var StaticFS embed.FS
