// Package handlers implements Content Handlers (spec.md C8): URL
// scheme/host dispatch, content-type inference, and the markup/dynamic/text
// processing pipeline that bridges Loader (C7) to the markup parser and
// Sandbox (C9).
package handlers

import (
	"errors"
	"path"
	"strings"
)

// ContentKind classifies a fetched resource by file extension (spec.md §4.8).
type ContentKind string

const (
	KindMarkup  ContentKind = "markup"  // .rwml
	KindDynamic ContentKind = "dynamic" // .lua
	KindHTML    ContentKind = "html"    // .html, .htm — markup-like
	KindText    ContentKind = "text"    // anything else
)

// KnownIndexExtensions lists extensions tried, in order, when a local
// filesystem fetch resolves to a directory (spec.md §4.8).
var KnownIndexExtensions = []string{".rwml", ".lua", ".html", ".htm", ".txt"}

// ErrPageNotFound is returned when the requested resource does not exist.
var ErrPageNotFound = errors.New("handlers: Page not found")

// InferContentType classifies a resource by its path's extension.
func InferContentType(p string) ContentKind {
	switch strings.ToLower(path.Ext(p)) {
	case ".rwml":
		return KindMarkup
	case ".lua":
		return KindDynamic
	case ".html", ".htm":
		return KindHTML
	default:
		return KindText
	}
}
