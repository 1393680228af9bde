package reconcile

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/daviddao/sheetmail/internal/types"
)

// Action is what a pass does to a row.
type Action int

// Actions.
const (
	ActionNone Action = iota
	ActionMarkActionRequired
	ActionMarkOfferRejected
	ActionSendFollowup
)

func (a Action) String() string {
	switch a {
	case ActionMarkActionRequired:
		return "mark-action-required"
	case ActionMarkOfferRejected:
		return "mark-offer-rejected"
	case ActionSendFollowup:
		return "send-followup"
	default:
		return "none"
	}
}

// MarshalJSON renders the action by name.
func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// Decision is the outcome of evaluating the rules for one row.
type Decision struct {
	Action Action `json:"action"`
	Reason string `json:"reason,omitempty"`

	// Followup is the 0-based template index to send.
	Followup int `json:"followup,omitempty"`

	// Next is the status written once the action succeeds.
	Next types.Status `json:"next"`

	// Color is the background to paint, nil to leave it alone.
	Color *types.Color `json:"color,omitempty"`
}

// Decide applies the first matching rule to c. It performs no I/O.
func (r *Reconciler) Decide(c types.Contact, now time.Time) Decision {
	switch {
	case c.Response == types.ResponseActionRequired && c.Status.Stage != types.StageActionRequired:
		return Decision{
			Action: ActionMarkActionRequired,
			Reason: "response is action required",
			Next:   types.StatusActionRequired,
			Color:  recolor(c.Color, r.rules.ActionColor),
		}
	case c.Response == types.ResponseOfferRejected && c.Status.Stage != types.StageOfferRejected:
		return Decision{
			Action: ActionMarkOfferRejected,
			Reason: "response is offer rejected",
			Next:   types.StatusOfferRejected,
			Color:  recolor(c.Color, r.rules.RejectedColor),
		}
	case c.Response != types.ResponseInterested:
		return none(c, "response is not interested")
	case c.Email == "":
		return none(c, "no email address")
	case c.Status.Terminal():
		return none(c, "status is terminal")
	case c.Status == types.SentStatus(1) && c.Color.Matches(r.rules.HaltColor):
		return none(c, "paused by halt color")
	}

	total := r.templates.Count()
	index := c.Status.FollowupIndex()
	if index >= total {
		return none(c, "all follow-ups sent")
	}
	if !c.LastFollowup.IsZero() {
		if elapsed := now.Sub(c.LastFollowup); elapsed < r.rules.Debounce {
			return none(c, fmt.Sprintf("debounce: next follow-up in %s", (r.rules.Debounce - elapsed).Round(time.Minute)))
		}
	}

	d := Decision{
		Action:   ActionSendFollowup,
		Reason:   fmt.Sprintf("follow-up %d of %d due", index+1, total),
		Followup: index,
		Next:     types.AfterFollowup(index, total),
	}
	switch index {
	case 0:
		d.Color = colorPtr(r.rules.ActiveColor)
	case total - 1:
		d.Color = colorPtr(r.rules.FinalColor)
	}
	return d
}

func none(c types.Contact, reason string) Decision {
	return Decision{Action: ActionNone, Reason: reason, Next: c.Status}
}

// recolor returns want unless the row already shows it.
func recolor(have, want types.Color) *types.Color {
	if have.Matches(want) {
		return nil
	}
	return colorPtr(want)
}

func colorPtr(c types.Color) *types.Color {
	return &c
}
