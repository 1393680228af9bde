package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Stage is the coarse lifecycle position of a contact.
type Stage int

// Stage constants.
const (
	StageNew Stage = iota
	StageSent
	StageAllDone
	StageActionRequired
	StageOfferRejected
)

func (s Stage) String() string {
	switch s {
	case StageSent:
		return "sent"
	case StageAllDone:
		return "all-done"
	case StageActionRequired:
		return "action-required"
	case StageOfferRejected:
		return "offer-rejected"
	default:
		return "new"
	}
}

// MarshalText renders the stage by name in JSON output.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Status labels as written to the sheet.
const (
	LabelSentPrefix     = "Email Sent -"
	LabelAllDone        = "All Followups Done"
	LabelActionRequired = "Action Required"
	LabelOfferRejected  = "Offer Rejected"
)

// Status is the system-owned state of a contact. Sent counts follow-ups
// already delivered and is only meaningful for StageSent.
type Status struct {
	Stage Stage `json:"stage"`
	Sent  int   `json:"sent,omitempty"`
}

// Convenience constructors.
var (
	StatusNew            = Status{Stage: StageNew}
	StatusAllDone        = Status{Stage: StageAllDone}
	StatusActionRequired = Status{Stage: StageActionRequired}
	StatusOfferRejected  = Status{Stage: StageOfferRejected}
)

// SentStatus returns the status after n follow-ups.
func SentStatus(n int) Status {
	if n <= 0 {
		return StatusNew
	}
	return Status{Stage: StageSent, Sent: n}
}

// ParseStatus reads a Status cell. Matching is case-insensitive and
// tolerates spaces around the counter ("email sent - 2"). Unknown text,
// including a malformed counter, is treated as a fresh contact.
func ParseStatus(raw string) Status {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "":
		return StatusNew
	case strings.ToLower(LabelAllDone):
		return StatusAllDone
	case strings.ToLower(LabelActionRequired):
		return StatusActionRequired
	case strings.ToLower(LabelOfferRejected):
		return StatusOfferRejected
	}

	rest, ok := strings.CutPrefix(s, "email sent")
	if !ok {
		return StatusNew
	}
	rest, ok = strings.CutPrefix(strings.TrimSpace(rest), "-")
	if !ok {
		return StatusNew
	}
	n, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return StatusNew
	}
	return SentStatus(n)
}

// String renders the status exactly as it is stored in the sheet.
func (s Status) String() string {
	switch s.Stage {
	case StageSent:
		return fmt.Sprintf("%s%d", LabelSentPrefix, s.Sent)
	case StageAllDone:
		return LabelAllDone
	case StageActionRequired:
		return LabelActionRequired
	case StageOfferRejected:
		return LabelOfferRejected
	default:
		return ""
	}
}

// FollowupIndex is the 0-based index of the next follow-up template.
func (s Status) FollowupIndex() int {
	if s.Stage == StageSent {
		return s.Sent
	}
	return 0
}

// Terminal reports whether no further automated email may be sent.
func (s Status) Terminal() bool {
	switch s.Stage {
	case StageAllDone, StageActionRequired, StageOfferRejected:
		return true
	}
	return false
}

// AfterFollowup returns the status once follow-up index (0-based) of total
// has been delivered.
func AfterFollowup(index, total int) Status {
	if index >= total-1 {
		return StatusAllDone
	}
	return SentStatus(index + 1)
}
