package mailer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
)

func convertMarkdown(t *testing.T, src string, style ...ButtonStyle) string {
	t.Helper()

	md := goldmark.New(goldmark.WithExtensions(NewButtonExtension(style...)))
	var buf bytes.Buffer
	require.NoError(t, md.Convert([]byte(src), &buf))
	return buf.String()
}

func TestButtonExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		src         string
		contains    []string
		notContains []string
	}{
		{
			name:     "renders styled anchor",
			src:      `[!button|View changelog](https://docs.meetingbaas.com/changelog)`,
			contains: []string{`href="https://docs.meetingbaas.com/changelog"`, `class="btn"`, `background-color:#6837f7`, `>View changelog</a>`},
		},
		{
			name:     "surrounded by markdown",
			src:      "# Product Updates\n\nRead more:\n\n[!button|Open dashboard](https://app.meetingbaas.com)\n\nThanks!",
			contains: []string{"<h1>Product Updates</h1>", `href="https://app.meetingbaas.com"`, "Thanks!"},
		},
		{
			name:     "multiple buttons",
			src:      "[!button|Accept](https://example.com/a)\n[!button|Decline](https://example.com/d)",
			contains: []string{`>Accept</a>`, `>Decline</a>`},
		},
		{
			name:        "escapes label",
			src:         `[!button|<script>x</script>](https://example.com)`,
			contains:    []string{"&lt;script&gt;"},
			notContains: []string{"<script>"},
		},
		{
			name:        "script urls render the label only",
			src:         `[!button|Click](javascript:alert(1))`,
			contains:    []string{"Click"},
			notContains: []string{"javascript:", `class="btn"`},
		},
		{
			name:     "mailto is allowed",
			src:      `[!button|Contact support](mailto:support@meetingbaas.com)`,
			contains: []string{`href="mailto:support@meetingbaas.com"`},
		},
		{
			name:     "query string ampersands are escaped",
			src:      `[!button|Verify](https://example.com/verify?token=abc&user=1)`,
			contains: []string{"token=abc&amp;user=1"},
		},
		{
			name:        "regular links are untouched",
			src:         `[Docs](https://example.com)`,
			contains:    []string{`<a href="https://example.com">Docs</a>`},
			notContains: []string{`class="btn"`},
		},
		{name: "missing url", src: `[!button|Click Me]`, notContains: []string{`class="btn"`}},
		{name: "missing closing bracket", src: `[!button|Click Me(https://example.com)`, notContains: []string{`class="btn"`}},
		{name: "missing closing paren", src: `[!button|Click Me](https://example.com`, notContains: []string{`class="btn"`}},
		{name: "wrong prefix", src: `[button|Click Me](https://example.com)`, notContains: []string{`class="btn"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out := convertMarkdown(t, tt.src)
			for _, s := range tt.contains {
				require.Contains(t, out, s)
			}
			for _, s := range tt.notContains {
				require.NotContains(t, out, s)
			}
		})
	}
}

func TestButtonExtension_CustomStyle(t *testing.T) {
	t.Parallel()

	out := convertMarkdown(t, `[!button|Go](https://example.com)`, ButtonStyle{Background: "#000000", Color: "#eeeeee"})
	require.Contains(t, out, "background-color:#000000")
	require.Contains(t, out, "color:#eeeeee")
}

func TestButtonNode(t *testing.T) {
	t.Parallel()

	node := &ButtonNode{URL: []byte("https://example.com"), Label: []byte("Test")}
	require.Equal(t, KindButton, node.Kind())
	require.NotPanics(t, func() { node.Dump([]byte("source"), 0) })
	require.Equal(t, []byte{'['}, NewButtonParser().Trigger())
}
