package spacetraveling

import "embed"

// EmbeddedAssets contains static assets shipped with the generator:
// post.css
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
