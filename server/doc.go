// Package server exposes the retrieval workflow over HTTP: a health probe, a
// stop-monitoring trigger mirroring the CLI operation, and the produced
// artifact. The stop referential is hot-reloaded when its file changes.
package server
