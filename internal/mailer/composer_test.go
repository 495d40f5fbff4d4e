package mailer

import (
	"testing"

	"listkeeper/internal/model"

	"github.com/stretchr/testify/require"
)

func TestComposeEmbedsConfirmationLink(t *testing.T) {
	c := NewComposer("https://lists.example.com/")
	sub := &model.Subscriber{ID: 7, Email: "person@example.com", MailingListID: 3}
	list := &model.MailingList{ID: 3, Name: "weekly digest"}

	subject, body, err := c.Compose(sub, list, "tok-abc")
	require.NoError(t, err)
	require.Contains(t, subject, "weekly digest")
	require.Contains(t, body, "weekly digest")
	// Trailing slash on the base URL must not double up.
	require.Contains(t, body, "https://lists.example.com/confirm?token=tok-abc")
}

func TestComposeEscapesToken(t *testing.T) {
	c := NewComposer("https://lists.example.com")
	sub := &model.Subscriber{ID: 7, Email: "person@example.com"}
	list := &model.MailingList{ID: 3, Name: "digest"}

	_, body, err := c.Compose(sub, list, "a+b/c=")
	require.NoError(t, err)
	require.Contains(t, body, "token=a%2Bb%2Fc%3D")
}
