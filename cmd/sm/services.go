package main

import (
	"context"
	"fmt"
	"time"

	"github.com/daviddao/sheetmail/internal/archive"
	"github.com/daviddao/sheetmail/internal/auth"
	"github.com/daviddao/sheetmail/internal/config"
	"github.com/daviddao/sheetmail/internal/db"
	"github.com/daviddao/sheetmail/internal/mailer"
	"github.com/daviddao/sheetmail/internal/reconcile"
	"github.com/daviddao/sheetmail/internal/sheets"
)

// newReconciler wires the tracker, sender and archiver named in cfg. The
// returned func releases anything that was opened. A dry run never builds a
// sender or archiver, and its tracker never writes to the sheet.
func newReconciler(ctx context.Context, dryRun bool) (*reconcile.Reconciler, func(), error) {
	tracker, err := openTracker(ctx, dryRun)
	if err != nil {
		return nil, nil, err
	}

	opts := []reconcile.Option{
		reconcile.WithLogger(logger),
		reconcile.WithDryRun(dryRun),
	}
	if dryRun {
		return reconcile.New(cfg, tracker, nil, opts...), func() {}, nil
	}

	sender, err := openSender(ctx)
	if err != nil {
		return nil, nil, err
	}
	arch, closeArchive, err := openArchiver()
	if err != nil {
		return nil, nil, err
	}
	opts = append(opts, reconcile.WithArchiver(arch))
	return reconcile.New(cfg, tracker, sender, opts...), closeArchive, nil
}

// openTracker opens the configured tab. A read-only tracker maps missing
// tracking columns in memory instead of adding them to the sheet.
func openTracker(ctx context.Context, readOnly bool) (*sheets.Tracker, error) {
	svc, err := auth.LoadSheetsService(ctx, cfg.ServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("sheets auth: %w", err)
	}
	return sheets.New(svc, sheets.Options{
		SpreadsheetID:   cfg.SpreadsheetID,
		Tab:             cfg.SheetTab,
		Columns:         cfg.Columns,
		TimestampLayout: cfg.TimestampLayout,
		Location:        time.Local,
		ReadOnly:        readOnly,
	}), nil
}

func openSender(ctx context.Context) (reconcile.Sender, error) {
	switch cfg.Mail.Transport {
	case config.TransportGmail:
		svc, err := auth.LoadGmailService(ctx, cfg.Mail.GmailCredentials)
		if err != nil {
			return nil, fmt.Errorf("gmail auth: %w", err)
		}
		return mailer.NewGmail(svc), nil
	default:
		s, err := mailer.NewSMTP(cfg.Mail.SMTPHost, cfg.Mail.SMTPPort, cfg.Mail.SMTPUsername, cfg.Mail.SMTPPassword, cfg.Mail.SMTPTimeout)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

func openArchiver() (reconcile.Archiver, func(), error) {
	switch cfg.Archive.Backend {
	case config.ArchiveIMAP:
		return &archive.IMAP{
			Addr:     cfg.Archive.IMAPAddr,
			Username: cfg.Archive.IMAPUsername,
			Password: cfg.Archive.IMAPPassword,
			Mailbox:  cfg.Archive.IMAPMailbox,
			Timeout:  cfg.Mail.SMTPTimeout,
		}, func() {}, nil
	case config.ArchiveSQLite:
		store, err := db.Open(cfg.Archive.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return &archive.SQLite{Store: store}, func() { store.Close() }, nil
	default:
		return archive.Nop{}, func() {}, nil
	}
}
