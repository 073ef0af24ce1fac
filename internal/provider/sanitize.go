package provider

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var stripPolicy = bluemonday.StrictPolicy()

// cleanText removes markup from a news snippet and collapses whitespace.
func cleanText(in string) string {
	if strings.TrimSpace(in) == "" {
		return ""
	}
	out := html.UnescapeString(stripPolicy.Sanitize(in))
	return strings.Join(strings.Fields(out), " ")
}
