package display

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/daviddao/sheetmail/internal/types"
)

func TestTimeAgo(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "never", TimeAgo(time.Time{}, now))
	assert.Equal(t, "just now", TimeAgo(now.Add(-10*time.Second), now))
	assert.Equal(t, "5m ago", TimeAgo(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3h ago", TimeAgo(now.Add(-3*time.Hour), now))
	assert.Equal(t, "2d ago", TimeAgo(now.Add(-50*time.Hour), now))
	assert.Equal(t, "Oct 1", TimeAgo(time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC), now))
	assert.Equal(t, "Oct 20 09:00", TimeAgo(time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC), now))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "Speaker...", Truncate("Speaker Follow-Up", 10))
	assert.Equal(t, "Spe", Truncate("Speaker", 3))
	assert.Equal(t, "Zür...", Truncate("Zürich Expo", 6))
}

func TestStatusLabel(t *testing.T) {
	assert.Contains(t, StatusLabel(types.StatusNew), "new")
	assert.Contains(t, StatusLabel(types.SentStatus(2)), "Email Sent -2")
	assert.Contains(t, StatusLabel(types.StatusOfferRejected), "Offer Rejected")
}

func TestSwatch(t *testing.T) {
	assert.Contains(t, Swatch(types.Color{}), "·")
	assert.NotEmpty(t, Swatch(types.MustHex("#00ffff")))
}

func TestPassSummary(t *testing.T) {
	var buf bytes.Buffer
	PassSummary(&buf, &types.PassResult{Rows: 5, Sent: 2, Marked: 1, Skipped: 2, Duration: 1500 * time.Millisecond})
	assert.Contains(t, buf.String(), "5 rows: 2 sent, 1 marked, 2 skipped")
	assert.NotContains(t, buf.String(), "failed")

	buf.Reset()
	PassSummary(&buf, &types.PassResult{Rows: 1, Failed: 1, DryRun: true})
	assert.Contains(t, buf.String(), "dry run")
	assert.Contains(t, buf.String(), "1 failed")
}
