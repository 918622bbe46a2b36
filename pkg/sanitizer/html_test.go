package sanitizer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Meeting-BaaS/emails/pkg/sanitizer"
)

func TestEmailHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		in          string
		contains    []string
		notContains []string
	}{
		{
			name:     "keeps formatting",
			in:       `<h2>New</h2><p>Read <strong>this</strong></p><ul><li>one</li></ul>`,
			contains: []string{"<h2>New</h2>", "<strong>this</strong>", "<li>one</li>"},
		},
		{
			name:     "keeps button styles",
			in:       `<a href="https://meetingbaas.com" class="btn" style="background-color:#6837f7;color:#ffffff">Go</a>`,
			contains: []string{`class="btn"`, "background-color: #6837f7", `href="https://meetingbaas.com"`},
		},
		{
			name:        "drops scripts",
			in:          `<p>hi</p><script>alert(1)</script>`,
			contains:    []string{"<p>hi</p>"},
			notContains: []string{"script", "alert"},
		},
		{
			name:        "drops event handlers",
			in:          `<p onclick="steal()">x</p>`,
			notContains: []string{"onclick", "steal"},
		},
		{
			name:        "drops javascript urls",
			in:          `<a href="javascript:alert(1)">x</a>`,
			notContains: []string{"javascript"},
		},
		{
			name:        "drops unknown styles",
			in:          `<p style="position:fixed;color:red">x</p>`,
			contains:    []string{"color: red"},
			notContains: []string{"position"},
		},
		{
			name:     "keeps mailto",
			in:       `<a href="mailto:support@meetingbaas.com">mail</a>`,
			contains: []string{`href="mailto:support@meetingbaas.com"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out := sanitizer.EmailHTML(tt.in)
			for _, s := range tt.contains {
				require.Contains(t, out, s)
			}
			for _, s := range tt.notContains {
				require.NotContains(t, out, s)
			}
		})
	}
}

func TestPlainText(t *testing.T) {
	t.Parallel()

	require.Equal(t, "New features are here & more", sanitizer.PlainText("<h1>New features</h1>\n<p>are   here &amp; more</p>"))
	require.Equal(t, "", sanitizer.PlainText("<script>alert(1)</script>"))
	require.Equal(t, "plain", sanitizer.PlainText("plain"))
}
