package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForProvider(t *testing.T) {
	t.Run("gmail", func(t *testing.T) {
		s, err := ForProvider("gmail", "")
		require.NoError(t, err)
		assert.Equal(t, "gmail", s.Name())
		assert.Contains(t, s.MailboxURL(), "mail.google.com")
		assert.Contains(t, s.SentFolderURL(), "#sent")
	})

	t.Run("outlook", func(t *testing.T) {
		s, err := ForProvider("outlook", "")
		require.NoError(t, err)
		assert.Equal(t, "outlook", s.Name())
		assert.Contains(t, s.SentFolderURL(), "sentitems")
	})

	t.Run("generic requires mailbox url", func(t *testing.T) {
		_, err := ForProvider("generic", "")
		assert.Error(t, err)

		s, err := ForProvider("generic", "https://mail.corp.example.com")
		require.NoError(t, err)
		assert.Equal(t, "https://mail.corp.example.com", s.MailboxURL())
		assert.Equal(t, s.MailboxURL(), s.SentFolderURL())
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := ForProvider("fastmail", "")
		assert.Error(t, err)
	})
}

func TestStrategiesProvideCompleteSelectorSets(t *testing.T) {
	for _, tag := range []string{"gmail", "outlook"} {
		t.Run(tag, func(t *testing.T) {
			s, err := ForProvider(tag, "")
			require.NoError(t, err)
			assert.NotEmpty(t, s.RecipientSelectors())
			assert.NotEmpty(t, s.ChipSelectors())
			assert.NotEmpty(t, s.SubjectSelectors())
			assert.NotEmpty(t, s.BodySelectors())
			assert.NotEmpty(t, s.SendSelectors())
			assert.NotEmpty(t, s.ToastMarkers())
			assert.NotEmpty(t, s.SentFolderURL())
		})
	}
}

func TestConfirmStateString(t *testing.T) {
	assert.Equal(t, "composed", stateComposed.String())
	assert.Equal(t, "send_requested", stateSendRequested.String())
	assert.Equal(t, "confirmed_sent", stateConfirmedSent.String())
	assert.Equal(t, "unconfirmed", stateUnconfirmed.String())
}
