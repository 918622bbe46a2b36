package mailer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecipient(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Ada Lovelace <ada@example.com>", Recipient("Ada Lovelace", "ada@example.com"))
	require.Equal(t, "ada@example.com", Recipient("", "ada@example.com"))
}

func TestEmail_Validate(t *testing.T) {
	t.Parallel()

	valid := func() *Email {
		return &Email{To: []string{"a@example.com"}, Subject: "Hi", HTML: "<p>x</p>"}
	}

	require.NoError(t, valid().Validate())

	var nilEmail *Email
	require.ErrorIs(t, nilEmail.Validate(), ErrNoRecipient)

	e := valid()
	e.To = nil
	require.ErrorIs(t, e.Validate(), ErrNoRecipient)

	e = valid()
	e.Subject = ""
	require.ErrorIs(t, e.Validate(), ErrNoSubject)

	e = valid()
	e.HTML = ""
	require.ErrorIs(t, e.Validate(), ErrNoContent)

	e.Text = "plain"
	require.NoError(t, e.Validate())
}
