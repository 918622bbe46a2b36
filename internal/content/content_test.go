package content_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Meeting-BaaS/emails/internal/catalog"
	"github.com/Meeting-BaaS/emails/internal/content"
)

func TestDraft_Prepare(t *testing.T) {
	t.Parallel()

	t.Run("html is sanitized", func(t *testing.T) {
		t.Parallel()

		html, text, err := content.Draft{
			EmailType:   catalog.ProductUpdates,
			Content:     `<p onclick="x()">New <b>dashboard</b></p><script>alert(1)</script>`,
			ContentText: "New dashboard",
		}.Prepare()
		require.NoError(t, err)
		assert.Equal(t, "<p>New <b>dashboard</b></p>", html)
		assert.Equal(t, "New dashboard", text)
	})

	t.Run("markdown is rendered", func(t *testing.T) {
		t.Parallel()

		html, text, err := content.Draft{
			EmailType: catalog.APIChanges,
			Content:   "**v2** is live",
			Format:    content.FormatMarkdown,
		}.Prepare()
		require.NoError(t, err)
		assert.Contains(t, html, "<strong>v2</strong>")
		assert.Equal(t, "v2 is live", text)
	})

	t.Run("content that sanitizes to nothing is rejected", func(t *testing.T) {
		t.Parallel()

		_, _, err := content.Draft{Content: "<script>alert(1)</script>"}.Prepare()
		require.ErrorIs(t, err, content.ErrEmpty)
	})
}

func TestInOrder(t *testing.T) {
	t.Parallel()

	found := []content.Content{{ID: 3, Content: "c"}, {ID: 1, Content: "a"}, {ID: 2, Content: "b"}}

	ordered, err := content.InOrder(found, []int64{2, 3, 1})
	require.NoError(t, err)
	require.Len(t, ordered, 3)
	assert.Equal(t, "b", ordered[0].Content)
	assert.Equal(t, "c", ordered[1].Content)
	assert.Equal(t, "a", ordered[2].Content)

	_, err = content.InOrder(found, []int64{1, 9})
	require.ErrorIs(t, err, content.ErrNotFound)
}
