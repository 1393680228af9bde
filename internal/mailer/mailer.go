// Package mailer composes follow-up emails and delivers them over SMTP or
// the Gmail API.
package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
	gm "google.golang.org/api/gmail/v1"
)

// Message is a fully composed follow-up email.
type Message struct {
	Row      int
	Followup int
	To       string
	ToName   string
	Subject  string
	HTML     string

	msg *mail.Msg
	raw []byte
}

// Raw returns the RFC 5322 encoding of the message.
func (m *Message) Raw() []byte {
	return m.raw
}

// Composer stamps the sender identity on outgoing messages.
type Composer struct {
	FromName    string
	FromAddress string
}

// Compose builds a single-part HTML message.
func (c Composer) Compose(to, toName, subject, htmlBody string) (*Message, error) {
	if to == "" {
		return nil, errors.New("compose: empty recipient")
	}

	m := mail.NewMsg()
	if err := m.FromFormat(c.FromName, c.FromAddress); err != nil {
		return nil, fmt.Errorf("compose: from %q: %w", c.FromAddress, err)
	}
	var err error
	if toName != "" {
		err = m.AddToFormat(toName, to)
	} else {
		err = m.To(to)
	}
	if err != nil {
		return nil, fmt.Errorf("compose: to %q: %w", to, err)
	}
	m.Subject(subject)
	m.SetDate()
	m.SetMessageID()
	m.SetBodyString(mail.TypeTextHTML, htmlBody)

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("compose: encode: %w", err)
	}

	return &Message{
		To:      to,
		ToName:  toName,
		Subject: subject,
		HTML:    htmlBody,
		msg:     m,
		raw:     buf.Bytes(),
	}, nil
}

// SMTP delivers messages through an authenticated submission server.
type SMTP struct {
	client *mail.Client
}

// NewSMTP configures an SMTP client. Port 465 uses implicit TLS; any other
// port requires STARTTLS.
func NewSMTP(host string, port int, username, password string, timeout time.Duration) (*SMTP, error) {
	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(username),
		mail.WithPassword(password),
	}
	if port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}
	if timeout > 0 {
		opts = append(opts, mail.WithTimeout(timeout))
	}

	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client %s:%d: %w", host, port, err)
	}
	return &SMTP{client: client}, nil
}

// Send dials, authenticates, and delivers m.
func (s *SMTP) Send(ctx context.Context, m *Message) error {
	if m.msg == nil {
		return errors.New("smtp: message was not composed")
	}
	if err := s.client.DialAndSendWithContext(ctx, m.msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", m.To, err)
	}
	return nil
}

// Gmail delivers messages with users.messages.send. Gmail files the message
// in the account's Sent label itself.
type Gmail struct {
	svc *gm.Service
}

// NewGmail wraps an authenticated Gmail service.
func NewGmail(svc *gm.Service) *Gmail {
	return &Gmail{svc: svc}
}

// Send uploads the raw message.
func (g *Gmail) Send(ctx context.Context, m *Message) error {
	_, err := g.svc.Users.Messages.Send("me", &gm.Message{
		Raw: base64.URLEncoding.EncodeToString(m.Raw()),
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gmail send to %s: %w", m.To, err)
	}
	return nil
}
