// Package archive keeps a copy of every follow-up that was sent, either in
// a remote IMAP sent folder or in the local SQLite archive.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"github.com/daviddao/sheetmail/internal/db"
	"github.com/daviddao/sheetmail/internal/mailer"
	"github.com/daviddao/sheetmail/internal/types"
)

// Nop discards archive requests.
type Nop struct{}

// Archive does nothing.
func (Nop) Archive(context.Context, *mailer.Message) error { return nil }

// IMAP appends the raw message to a mailbox over implicit TLS, one
// connection per message.
type IMAP struct {
	Addr     string
	Username string
	Password string
	Mailbox  string
	Timeout  time.Duration
}

// Archive logs in, appends m to the mailbox flagged as seen, and logs out.
func (a *IMAP) Archive(ctx context.Context, m *mailer.Message) error {
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	c, err := client.DialWithDialerTLS(&net.Dialer{Timeout: timeout}, a.Addr, nil)
	if err != nil {
		return fmt.Errorf("imap dial %s: %w", a.Addr, err)
	}
	c.Timeout = timeout
	defer c.Logout()

	if err := c.Login(a.Username, a.Password); err != nil {
		return fmt.Errorf("imap login %s: %w", a.Username, err)
	}
	if err := c.Append(a.Mailbox, []string{imap.SeenFlag}, time.Now(), bytes.NewBuffer(m.Raw())); err != nil {
		return fmt.Errorf("imap append to %s: %w", a.Mailbox, err)
	}
	return nil
}

// SQLite stores archived messages in the local sent database.
type SQLite struct {
	Store *db.DB
}

// Archive inserts m into the sent_messages table.
func (a *SQLite) Archive(ctx context.Context, m *mailer.Message) error {
	return a.Store.InsertSent(ctx, &types.SentMessage{
		Row:       m.Row,
		Recipient: m.To,
		Subject:   m.Subject,
		Followup:  m.Followup,
		Raw:       m.Raw(),
	})
}
