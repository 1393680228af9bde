// Package reconcile decides, row by row, what the lead tracker needs next
// and carries it out: mark a terminal response, send the next follow-up,
// or leave the row alone.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/daviddao/sheetmail/internal/config"
	"github.com/daviddao/sheetmail/internal/mailer"
	"github.com/daviddao/sheetmail/internal/types"
)

// Tracker is the spreadsheet the reconciler works against.
type Tracker interface {
	Load(ctx context.Context) ([]types.Contact, error)
	UpdateRow(ctx context.Context, u types.RowUpdate) error
}

// Sender delivers a composed follow-up.
type Sender interface {
	Send(ctx context.Context, m *mailer.Message) error
}

// Archiver keeps a copy of a delivered follow-up.
type Archiver interface {
	Archive(ctx context.Context, m *mailer.Message) error
}

// Rules are the colors and timing the state machine applies.
type Rules struct {
	Debounce time.Duration

	ActionColor   types.Color
	RejectedColor types.Color
	ActiveColor   types.Color
	FinalColor    types.Color
	HaltColor     types.Color
}

// RulesFromConfig extracts the rule set from cfg.
func RulesFromConfig(cfg config.Config) Rules {
	return Rules{
		Debounce:      cfg.Debounce,
		ActionColor:   cfg.Colors.Action,
		RejectedColor: cfg.Colors.Rejected,
		ActiveColor:   cfg.Colors.Active,
		FinalColor:    cfg.Colors.Final,
		HaltColor:     cfg.Colors.Halt,
	}
}

// Reconciler runs passes over a tracker. A Reconciler is used by one
// goroutine at a time.
type Reconciler struct {
	tracker   Tracker
	sender    Sender
	archiver  Archiver
	templates *mailer.Templates
	composer  mailer.Composer
	rules     Rules
	log       zerolog.Logger
	now       func() time.Time
	dryRun    bool
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// WithArchiver stores a copy of every delivered follow-up.
func WithArchiver(a Archiver) Option {
	return func(r *Reconciler) {
		if a != nil {
			r.archiver = a
		}
	}
}

// WithDryRun makes Pass decide and render without sending or writing.
func WithDryRun(dryRun bool) Option {
	return func(r *Reconciler) { r.dryRun = dryRun }
}

// WithLogger sets the logger for per-row events.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Reconciler) { r.log = log }
}

// New builds a reconciler from the immutable configuration. sender may be
// nil when only Plan or dry-run passes are used.
func New(cfg config.Config, tracker Tracker, sender Sender, opts ...Option) *Reconciler {
	senderName := cfg.Mail.FromName
	if senderName == "" {
		senderName = cfg.Mail.FromAddress
	}
	vars := map[string]string{
		"sender":           senderName,
		"registration_url": cfg.Templates.RegistrationURL,
		"meeting_url":      cfg.Templates.MeetingURL,
	}
	r := &Reconciler{
		tracker:   tracker,
		sender:    sender,
		archiver:  nopArchiver{},
		templates: mailer.NewTemplates(cfg.Templates.Subject, cfg.Templates.Followups, cfg.Templates.Signature, vars),
		composer:  mailer.Composer{FromName: cfg.Mail.FromName, FromAddress: cfg.Mail.FromAddress},
		rules:     RulesFromConfig(cfg),
		log:       zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Planned pairs a row with the decision a pass would take for it.
type Planned struct {
	Contact  types.Contact `json:"contact"`
	Decision Decision      `json:"decision"`
}

// Plan loads the tracker and decides every row without side effects.
func (r *Reconciler) Plan(ctx context.Context) ([]Planned, error) {
	contacts, err := r.tracker.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tracker: %w", err)
	}
	now := r.now()
	plan := make([]Planned, 0, len(contacts))
	for _, c := range contacts {
		plan = append(plan, Planned{Contact: c, Decision: r.Decide(c, now)})
	}
	return plan, nil
}

// Pass runs one full sweep over the tracker in sheet order. Row failures
// are logged and counted; only a failed load or a cancelled context ends
// the pass early.
func (r *Reconciler) Pass(ctx context.Context) (*types.PassResult, error) {
	if r.sender == nil && !r.dryRun {
		return nil, errors.New("pass: no mail sender configured")
	}

	res := &types.PassResult{StartedAt: r.now(), DryRun: r.dryRun}
	defer func() { res.Duration = r.now().Sub(res.StartedAt) }()

	contacts, err := r.tracker.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tracker: %w", err)
	}
	res.Rows = len(contacts)

	for _, c := range contacts {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		d := r.Decide(c, r.now())
		log := r.log.With().
			Int("row", c.Row).
			Str("email", c.Email).
			Str("action", d.Action.String()).
			Logger()

		if d.Action == ActionNone {
			res.Skipped++
			log.Debug().Str("reason", d.Reason).Msg("no action")
			continue
		}

		if err := r.apply(ctx, c, d, log); err != nil {
			res.Failed++
			log.Error().Err(err).Msg("row failed, will retry next pass")
			continue
		}

		switch d.Action {
		case ActionSendFollowup:
			res.Sent++
		default:
			res.Marked++
		}
	}
	return res, nil
}

// apply executes a decision. A panic is reported as the row's error.
func (r *Reconciler) apply(ctx context.Context, c types.Contact, d Decision, log zerolog.Logger) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	switch d.Action {
	case ActionMarkActionRequired, ActionMarkOfferRejected:
		return r.mark(ctx, c, d, log)
	case ActionSendFollowup:
		return r.followup(ctx, c, d, log)
	}
	return nil
}

// mark paints the row before writing the terminal status. Once the status
// is written the row no longer matches a mark rule, so a color that failed
// afterwards would never be retried.
func (r *Reconciler) mark(ctx context.Context, c types.Contact, d Decision, log zerolog.Logger) error {
	next := d.Next
	if r.dryRun {
		log.Info().Str("status", next.String()).Bool("recolor", d.Color != nil).Msg("dry run: would mark")
		return nil
	}
	if d.Color != nil {
		if err := r.tracker.UpdateRow(ctx, types.RowUpdate{Row: c.Row, Color: d.Color}); err != nil {
			return fmt.Errorf("color %s: %w", next, err)
		}
	}
	if err := r.tracker.UpdateRow(ctx, types.RowUpdate{Row: c.Row, Status: &next}); err != nil {
		return fmt.Errorf("mark %s: %w", next, err)
	}
	log.Info().Str("from", c.Status.String()).Str("status", next.String()).Msg("marked")
	return nil
}

func (r *Reconciler) followup(ctx context.Context, c types.Contact, d Decision, log zerolog.Logger) error {
	subject, body, err := r.templates.Render(d.Followup, c)
	if err != nil {
		return err
	}
	msg, err := r.composer.Compose(c.Email, c.Name, subject, body)
	if err != nil {
		return err
	}
	msg.Row = c.Row
	msg.Followup = d.Followup

	if r.dryRun {
		log.Info().Int("followup", d.Followup+1).Str("subject", subject).Msg("dry run: would send")
		return nil
	}

	// Nothing is written unless the send succeeds.
	if err := r.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send follow-up %d: %w", d.Followup+1, err)
	}
	log.Info().Int("followup", d.Followup+1).Str("subject", subject).Msg("follow-up sent")

	if err := r.archiver.Archive(ctx, msg); err != nil {
		log.Warn().Err(err).Msg("archive copy failed")
	}

	now := r.now()
	next := d.Next
	u := types.RowUpdate{Row: c.Row, Status: &next, Timestamp: &now, Color: d.Color}
	if err := r.tracker.UpdateRow(ctx, u); err != nil {
		return fmt.Errorf("follow-up %d delivered but row not updated: %w", d.Followup+1, err)
	}
	return nil
}

type nopArchiver struct{}

func (nopArchiver) Archive(context.Context, *mailer.Message) error { return nil }
