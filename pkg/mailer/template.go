package mailer

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Frontmatter is the YAML header an email template may start with:
//
//	---
//	subject: "Recording Failed: Insufficient Token Balance"
//	preheader: Top up to resume recordings
//	---
//	<p>...</p>
type Frontmatter struct {
	Subject   string `yaml:"subject"`
	Preheader string `yaml:"preheader"`
}

var fmDelimiter = []byte("---")

// SplitFrontmatter separates an optional frontmatter block from the template
// body. Content without a leading delimiter is returned unchanged.
func SplitFrontmatter(content []byte) (Frontmatter, []byte, error) {
	var fm Frontmatter

	if !bytes.HasPrefix(content, fmDelimiter) {
		return fm, content, nil
	}

	rest := bytes.TrimLeft(content[len(fmDelimiter):], "\r\n")
	if len(rest) == 0 {
		return fm, nil, fmt.Errorf("%w: no content after opening delimiter", ErrInvalidFrontmatter)
	}

	head, body, found := bytes.Cut(rest, fmDelimiter)
	if !found {
		return fm, nil, fmt.Errorf("%w: closing delimiter not found", ErrInvalidFrontmatter)
	}
	body = bytes.TrimPrefix(body, []byte("\r"))
	body = bytes.TrimPrefix(body, []byte("\n"))

	if len(bytes.TrimSpace(head)) > 0 {
		if err := yaml.Unmarshal(head, &fm); err != nil {
			return fm, nil, fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
		}
	}

	return fm, body, nil
}
