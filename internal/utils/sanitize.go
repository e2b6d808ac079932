// internal/utils/sanitize.go
package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	textPolicy        = bluemonday.StrictPolicy()
	descriptionPolicy = newDescriptionPolicy()
)

func newDescriptionPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").OnElements("p", "span", "ul", "li")
	policy.RequireNoFollowOnLinks(true)
	return policy
}

// SanitizeText strips all markup and returns trimmed plain text.
func SanitizeText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

// SanitizeRichText keeps basic formatting for product descriptions.
func SanitizeRichText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(descriptionPolicy.Sanitize(s))
}
