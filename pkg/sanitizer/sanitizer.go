// Package sanitizer strips markup from free-text fields before they are stored or indexed.
package sanitizer

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// PlainText removes every tag, unescapes entities and collapses whitespace.
func PlainText(content string) string {
	// Block-level closers become spaces so adjacent paragraphs do not merge.
	content = strings.ReplaceAll(content, "</p>", " ")
	content = strings.ReplaceAll(content, "<br>", " ")
	content = strings.ReplaceAll(content, "</div>", " ")

	cleanText := html.UnescapeString(strict.Sanitize(content))
	return strings.Join(strings.Fields(cleanText), " ")
}

// OptionalPlainText applies PlainText to a nullable field. Blank results become nil.
func OptionalPlainText(content *string) *string {
	if content == nil {
		return nil
	}
	clean := PlainText(*content)
	if clean == "" {
		return nil
	}
	return &clean
}
