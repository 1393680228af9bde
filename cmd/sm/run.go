package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/daviddao/sheetmail/internal/display"
	"github.com/daviddao/sheetmail/internal/schedule"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Reconcile the sheet every interval until interrupted",
	RunE:  runLoop,
}

func runLoop(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec, release, err := newReconciler(ctx, false)
	if err != nil {
		return err
	}
	defer release()

	logger.Info().
		Str("spreadsheet", cfg.SpreadsheetID).
		Str("tab", cfg.SheetTab).
		Str("transport", cfg.Mail.Transport).
		Str("archive", cfg.Archive.Backend).
		Dur("interval", cfg.Interval).
		Msg("starting")

	s := &schedule.Scheduler{
		Interval: cfg.Interval,
		Pass:     rec.Pass,
		Log:      logger,
	}
	if err := s.Run(ctx); err != nil {
		return err
	}
	if !quietFlag {
		fmt.Println()
		display.SuccessMsg("Stopped.")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(runCmd)
}
