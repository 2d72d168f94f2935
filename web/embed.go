// Package web embeds the page templates and static assets served by the
// shipments server.
package web

import "embed"

// TemplatesFS holds the entry and summary pages plus their fragments.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

//go:embed static/*
var StaticFS embed.FS
