package archive

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviddao/sheetmail/internal/db"
	"github.com/daviddao/sheetmail/internal/mailer"
)

func compose(t *testing.T) *mailer.Message {
	t.Helper()
	m, err := mailer.Composer{FromName: "Events", FromAddress: "speakers@example.com"}.
		Compose("ada@example.com", "Ada", "Speaker Follow-Up – Expo", "<p>Hi</p>")
	require.NoError(t, err)
	m.Row = 4
	m.Followup = 2
	return m
}

func TestSQLiteArchive(t *testing.T) {
	ctx := context.Background()
	store, err := db.Open(filepath.Join(t.TempDir(), "sent.db"))
	require.NoError(t, err)
	defer store.Close()

	m := compose(t)
	require.NoError(t, (&SQLite{Store: store}).Archive(ctx, m))

	sent, err := store.RecentSent(ctx, "ada@example.com", 0)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, 4, sent[0].Row)
	assert.Equal(t, 2, sent[0].Followup)
	assert.Equal(t, m.Subject, sent[0].Subject)

	full, err := store.GetSent(ctx, sent[0].ID)
	require.NoError(t, err)
	assert.Equal(t, m.Raw(), full.Raw)
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop{}.Archive(context.Background(), compose(t)))
}

func TestIMAPDialFailure(t *testing.T) {
	a := &IMAP{Addr: "127.0.0.1:1", Username: "u", Password: "p", Mailbox: "INBOX.Sent", Timeout: time.Second}
	err := a.Archive(context.Background(), compose(t))
	assert.ErrorContains(t, err, "imap dial")
}
