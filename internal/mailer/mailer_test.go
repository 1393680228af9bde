package mailer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gm "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/daviddao/sheetmail/internal/types"
)

func TestTemplatesRender(t *testing.T) {
	tpl := NewTemplates(
		"Speaker Follow-Up – {show}",
		[]string{"<p>Hi at {show}</p>", "<p>Dear {name},</p>"},
		"<p>{sender}</p>",
		map[string]string{"sender": "Events & Co"},
	)
	require.Equal(t, 2, tpl.Count())

	c := types.Contact{Name: "Ada <Lovelace>", Show: "London & Paris"}

	subject, body, err := tpl.Render(0, c)
	require.NoError(t, err)
	assert.Equal(t, "Speaker Follow-Up – London & Paris", subject)
	assert.Equal(t, "<p>Hi at London &amp; Paris</p><p>Events &amp; Co</p>", body)

	_, body, err = tpl.Render(1, c)
	require.NoError(t, err)
	assert.Contains(t, body, "Dear Ada &lt;Lovelace&gt;,")

	_, _, err = tpl.Render(2, c)
	assert.ErrorContains(t, err, "out of range")
	_, _, err = tpl.Render(-1, c)
	assert.Error(t, err)
}

func TestTemplatesRenderVars(t *testing.T) {
	vars := map[string]string{
		"sender":           "Events Team",
		"registration_url": "https://example.com/register?a=1&b=2",
		"show":             "ignored",
	}
	tpl := NewTemplates("{show} {registration_url}", []string{`<a href="{registration_url}">{show}</a>`}, "<p>{sender} {meeting_url}</p>", vars)
	vars["sender"] = "changed"

	subject, body, err := tpl.Render(0, types.Contact{Show: "Expo"})
	require.NoError(t, err)
	assert.Equal(t, "Expo https://example.com/register?a=1&b=2", subject)
	assert.Equal(t, `<a href="https://example.com/register?a=1&amp;b=2">Expo</a><p>Events Team {meeting_url}</p>`, body,
		"contact fields win and unknown placeholders stay as written")
}

func TestCompose(t *testing.T) {
	comp := Composer{FromName: "Events Team", FromAddress: "speakers@example.com"}

	m, err := comp.Compose("ada@example.com", "Ada", "Speaker Follow-Up", "<p>Hello</p>")
	require.NoError(t, err)

	raw := string(m.Raw())
	assert.Contains(t, raw, "speakers@example.com")
	assert.Contains(t, raw, "ada@example.com")
	assert.Contains(t, raw, "Subject: Speaker Follow-Up")
	assert.Contains(t, raw, "text/html")
	assert.Contains(t, raw, "Message-ID:")
	assert.Equal(t, "ada@example.com", m.To)

	_, err = comp.Compose("", "", "s", "b")
	assert.Error(t, err)

	_, err = comp.Compose("not an address", "", "s", "b")
	assert.Error(t, err)
}

func TestNewSMTP(t *testing.T) {
	s, err := NewSMTP("mail.example.com", 587, "speakers@example.com", "secret", 10*time.Second)
	require.NoError(t, err)
	assert.NotNil(t, s)

	err = s.Send(context.Background(), &Message{To: "x@example.com"})
	assert.ErrorContains(t, err, "not composed")
}

func TestGmailSend(t *testing.T) {
	var gotPath string
	var gotRaw []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var body struct {
			Raw string `json:"raw"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotRaw, _ = base64.URLEncoding.DecodeString(body.Raw)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "msg-1", "labelIds": ["SENT"]}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	svc, err := gm.NewService(ctx, option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	m, err := Composer{FromAddress: "speakers@example.com"}.Compose("ada@example.com", "", "Hi", "<p>Hi</p>")
	require.NoError(t, err)

	require.NoError(t, NewGmail(svc).Send(ctx, m))
	assert.Equal(t, "/gmail/v1/users/me/messages/send", gotPath)
	assert.Equal(t, m.Raw(), gotRaw)
}

func TestGmailSendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"code": 403, "message": "quota"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	ctx := context.Background()
	svc, err := gm.NewService(ctx, option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	m, err := Composer{FromAddress: "speakers@example.com"}.Compose("ada@example.com", "", "Hi", "<p>Hi</p>")
	require.NoError(t, err)

	err = NewGmail(svc).Send(ctx, m)
	assert.ErrorContains(t, err, "gmail send to ada@example.com")
}
