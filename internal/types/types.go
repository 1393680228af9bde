// Package types defines core data structures for sheetmail.
package types

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Response is the externally supplied classification of a contact's reply.
type Response string

// Response constants.
const (
	ResponseInterested     Response = "interested"
	ResponseActionRequired Response = "action required"
	ResponseOfferRejected  Response = "offer rejected"
	ResponseOther          Response = ""
)

// ParseResponse normalizes a raw Email-Response cell.
// Anything that is not one of the known labels maps to ResponseOther.
func ParseResponse(raw string) Response {
	s := strings.Join(strings.Fields(cases.Fold().String(raw)), " ")
	switch Response(s) {
	case ResponseInterested, ResponseActionRequired, ResponseOfferRejected:
		return Response(s)
	default:
		return ResponseOther
	}
}

// Contact is one tracked row of the sheet.
type Contact struct {
	Row             int       `json:"row"` // 1-based sheet row
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Show            string    `json:"show"`
	Response        Response  `json:"response"`
	Status          Status    `json:"status"`
	RawStatus       string    `json:"raw_status,omitempty"`
	LastFollowup    time.Time `json:"last_followup,omitempty"`
	RawLastFollowup string    `json:"raw_last_followup,omitempty"`
	Color           Color     `json:"color"`
}

// RowUpdate is the set of system-owned cells to write for one row.
// Nil fields are left untouched.
type RowUpdate struct {
	Row       int
	Status    *Status
	Timestamp *time.Time
	Color     *Color
}

// Empty reports whether the update would write nothing.
func (u RowUpdate) Empty() bool {
	return u.Status == nil && u.Timestamp == nil && u.Color == nil
}

// SentMessage is an archived copy of a follow-up email.
type SentMessage struct {
	ID        string `json:"id"`
	Row       int    `json:"row"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Followup  int    `json:"followup"`
	Raw       []byte `json:"-"`
	SentAt    string `json:"sent_at"`
}

// PassResult summarizes one reconciliation pass.
type PassResult struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Rows      int           `json:"rows"`
	Sent      int           `json:"sent"`
	Marked    int           `json:"marked"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	DryRun    bool          `json:"dry_run,omitempty"`
}
