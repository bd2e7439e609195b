package layoutkit

import "embed"

// EmbeddedAssets contains the stylesheets and script the base layout links:
// css/base.css, css/wide.css and js/site.js.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
