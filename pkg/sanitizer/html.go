// Package sanitizer cleans admin-authored HTML before it is stored or sent.
package sanitizer

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy *bluemonday.Policy
	emailPolicy  *bluemonday.Policy
	initOnce     sync.Once
)

func initPolicies() {
	initOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()

		emailPolicy = bluemonday.UGCPolicy()
		emailPolicy.AllowElements("h1", "h2", "h3", "h4", "hr", "span", "div")
		emailPolicy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("a", "p", "span", "div")
		emailPolicy.AllowStyles(
			"display", "padding", "border-radius", "background-color",
			"color", "text-decoration", "font-weight", "text-align",
		).OnElements("a", "p", "span", "div")
		emailPolicy.AllowURLSchemes("http", "https", "mailto")
		emailPolicy.RequireNoFollowOnLinks(false)
		emailPolicy.AddTargetBlankToFullyQualifiedLinks(true)
	})
}

// EmailHTML keeps the formatting email bodies need: headings, paragraphs,
// lists, links and the inline styles of call-to-action buttons. Scripts,
// event handlers and non-http(s)/mailto URLs are removed.
func EmailHTML(s string) string {
	initPolicies()
	return emailPolicy.Sanitize(s)
}

// PlainText strips every tag and collapses whitespace. It produces the text
// alternative of admin content.
func PlainText(s string) string {
	initPolicies()
	return strings.Join(strings.Fields(html.UnescapeString(strictPolicy.Sanitize(s))), " ")
}
