package widget

import "embed"

// assets contains the panel's client-side script.
//
//go:embed assets/*
var assets embed.FS

// templates contains the HTML page template.
//
//go:embed templates/*
var templates embed.FS
