package templates

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/Meeting-BaaS/emails/pkg/mailer"
	"github.com/Meeting-BaaS/emails/pkg/sanitizer"
)

var md = goldmark.New(
	goldmark.WithExtensions(
		extension.Linkify,
		mailer.NewButtonExtension(),
	),
)

// Markdown converts admin-authored markdown to sanitized email HTML.
// Buttons are written as [!button|Label](https://...).
func Markdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("%w: markdown: %v", ErrRender, err)
	}
	return sanitizer.EmailHTML(buf.String()), nil
}
