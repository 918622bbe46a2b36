package mailer

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// ButtonNode is a call-to-action link written as [!button|Label](URL).
type ButtonNode struct {
	ast.BaseInline
	URL   []byte
	Label []byte
}

// KindButton is the node kind for ButtonNode.
var KindButton = ast.NewNodeKind("Button")

func (n *ButtonNode) Kind() ast.NodeKind {
	return KindButton
}

func (n *ButtonNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"URL":   string(n.URL),
		"Label": string(n.Label),
	}, nil)
}

var buttonPrefix = []byte("[!button|")

type buttonParser struct{}

// NewButtonParser creates the inline parser for button syntax.
func NewButtonParser() parser.InlineParser {
	return buttonParser{}
}

func (buttonParser) Trigger() []byte {
	return []byte{'['}
}

func (buttonParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, _ := block.PeekLine()
	if !bytes.HasPrefix(line, buttonPrefix) {
		return nil
	}

	rest := line[len(buttonPrefix):]
	labelEnd := bytes.IndexByte(rest, ']')
	if labelEnd == -1 || labelEnd+1 >= len(rest) || rest[labelEnd+1] != '(' {
		return nil
	}

	target := rest[labelEnd+2:]
	urlEnd := bytes.IndexByte(target, ')')
	if urlEnd == -1 {
		return nil
	}

	block.Advance(len(buttonPrefix) + labelEnd + 2 + urlEnd + 1)

	return &ButtonNode{
		Label: rest[:labelEnd],
		URL:   bytes.TrimSpace(target[:urlEnd]),
	}
}

// ButtonStyle sets the inline colours of rendered buttons. Email clients
// ignore stylesheets, so buttons carry their styles inline.
type ButtonStyle struct {
	Background string
	Color      string
}

// DefaultButtonStyle matches the call-to-action button of the email layout.
var DefaultButtonStyle = ButtonStyle{Background: "#6837f7", Color: "#ffffff"}

type buttonRenderer struct {
	style ButtonStyle
}

// NewButtonRenderer creates the node renderer for ButtonNode.
func NewButtonRenderer(style ButtonStyle) renderer.NodeRenderer {
	return &buttonRenderer{style: style}
}

func (r *buttonRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindButton, r.renderButton)
}

// renderButton writes an anchor styled as a button. Only http, https and
// mailto targets become links; anything else renders as the bare label.
func (r *buttonRenderer) renderButton(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	n := node.(*ButtonNode)
	if !safeButtonURL(n.URL) {
		_, _ = w.Write(util.EscapeHTML(n.Label))
		return ast.WalkContinue, nil
	}

	_, _ = fmt.Fprintf(w,
		`<a href="%s" class="btn" style="display:inline-block;padding:12px 24px;border-radius:6px;background-color:%s;color:%s;text-decoration:none;font-weight:600;">`,
		util.EscapeHTML(n.URL), r.style.Background, r.style.Color,
	)
	_, _ = w.Write(util.EscapeHTML(n.Label))
	_, _ = w.WriteString(`</a>`)

	return ast.WalkContinue, nil
}

func safeButtonURL(u []byte) bool {
	lower := bytes.ToLower(u)
	return bytes.HasPrefix(lower, []byte("https://")) ||
		bytes.HasPrefix(lower, []byte("http://")) ||
		bytes.HasPrefix(lower, []byte("mailto:"))
}

type buttonExtension struct {
	style ButtonStyle
}

func (e buttonExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(NewButtonParser(), 50),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(NewButtonRenderer(e.style), 50),
	))
}

// NewButtonExtension creates the goldmark extension for button links.
// A zero style falls back to DefaultButtonStyle.
func NewButtonExtension(style ...ButtonStyle) goldmark.Extender {
	s := DefaultButtonStyle
	if len(style) > 0 && style[0] != (ButtonStyle{}) {
		s = style[0]
	}
	return buttonExtension{style: s}
}
