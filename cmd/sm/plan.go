package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/daviddao/sheetmail/internal/display"
	"github.com/daviddao/sheetmail/internal/reconcile"
)

var planAll bool

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what the next pass would do for each row",
	RunE: func(cmd *cobra.Command, args []string) error {
		tracker, err := openTracker(cmd.Context(), true)
		if err != nil {
			return err
		}
		rec := reconcile.New(cfg, tracker, nil, reconcile.WithLogger(logger))

		plan, err := rec.Plan(cmd.Context())
		if err != nil {
			return err
		}

		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(plan)
		}

		display.Header(fmt.Sprintf("%s: %d rows", cfg.SheetTab, len(plan)))
		fmt.Println()

		now := time.Now()
		shown := 0
		for _, p := range plan {
			if !planAll && p.Decision.Action == reconcile.ActionNone {
				continue
			}
			shown++
			c := p.Contact
			action := p.Decision.Action.String()
			if p.Decision.Action == reconcile.ActionSendFollowup {
				action = fmt.Sprintf("send #%d", p.Decision.Followup+1)
			}
			fmt.Printf("  %4d %s %s %-28s %s %s\n",
				c.Row,
				display.Swatch(c.Color),
				display.StatusLabel(c.Status),
				display.Truncate(c.Email, 28),
				display.Bold.Render(fmt.Sprintf("%-20s", action)),
				display.Dim.Render(p.Decision.Reason+" · last "+display.TimeAgo(c.LastFollowup, now)),
			)
		}

		if shown == 0 {
			display.SubHeader("  Nothing to do.")
		}
		return nil
	},
}

func init() {
	planCmd.Flags().BoolVarP(&planAll, "all", "a", false, "Include rows that need no action")
	rootCmd.AddCommand(planCmd)
}
