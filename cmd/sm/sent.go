package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/daviddao/sheetmail/internal/db"
	"github.com/daviddao/sheetmail/internal/display"
)

var (
	sentLimit int
	sentTo    string
)

var sentCmd = &cobra.Command{
	Use:   "sent",
	Short: "List follow-ups recorded in the local SQLite archive",
	Long: `List follow-ups recorded by the sqlite archive backend, newest first.
The archive is an audit copy only; the sheet remains the source of truth.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := db.Open(cfg.Archive.SQLitePath)
		if err != nil {
			return err
		}
		defer store.Close()

		msgs, err := store.RecentSent(cmd.Context(), sentTo, sentLimit)
		if err != nil {
			return err
		}

		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(msgs)
		}

		if len(msgs) == 0 {
			display.SubHeader("No archived follow-ups.")
			return nil
		}

		total, err := store.SentCount(cmd.Context())
		if err != nil {
			return err
		}
		display.Header(fmt.Sprintf("Sent follow-ups (%d of %d)", len(msgs), total))
		fmt.Println()
		now := time.Now()
		for _, m := range msgs {
			when := m.SentAt
			if ts, err := time.Parse(time.RFC3339, m.SentAt); err == nil {
				when = display.TimeAgo(ts, now)
			}
			fmt.Printf("  %s  row %-4d #%d  %-28s %s  %s\n",
				display.Dim.Render(m.ID),
				m.Row,
				m.Followup+1,
				display.Truncate(m.Recipient, 28),
				display.Truncate(m.Subject, 40),
				display.Muted.Render(when),
			)
		}
		return nil
	},
}

var sentShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the raw RFC 5322 message of an archived follow-up",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := db.Open(cfg.Archive.SQLitePath)
		if err != nil {
			return err
		}
		defer store.Close()

		m, err := store.GetSent(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(m.Raw)
		return err
	},
}

func init() {
	sentCmd.Flags().IntVarP(&sentLimit, "limit", "n", 20, "Maximum messages to list (0 = all)")
	sentCmd.Flags().StringVar(&sentTo, "to", "", "Only messages to this recipient")
	sentCmd.AddCommand(sentShowCmd)
	rootCmd.AddCommand(sentCmd)
}
