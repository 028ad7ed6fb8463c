// Package markdown renders pull-request descriptions for the expanded row.
package markdown

import (
	"strings"

	"gitlab.com/golang-commonmark/markdown"
)

var renderer = markdown.New(
	markdown.HTML(false),
	markdown.Breaks(true),
	markdown.Linkify(true),
	markdown.Typographer(false),
)

// Render converts a description to HTML. Single newlines become <br> and raw
// HTML in the source is escaped.
func Render(src string) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	return renderer.RenderToString([]byte(src))
}
