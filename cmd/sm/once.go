package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daviddao/sheetmail/internal/display"
)

var onceDryRun bool

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single reconciliation pass",
	Long: `Run one pass over the tracker and exit. With --dry-run, follow-ups are
rendered and decisions logged, but nothing is sent or written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, release, err := newReconciler(cmd.Context(), onceDryRun)
		if err != nil {
			return err
		}
		defer release()

		res, err := rec.Pass(cmd.Context())
		if err != nil {
			return err
		}

		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
		} else if !quietFlag {
			display.PassSummary(cmd.OutOrStdout(), res)
			if onceDryRun {
				display.WarnMsg("Dry run: nothing was sent or written.")
			}
		}

		if res.Failed > 0 {
			if !jsonOutput {
				display.ErrorMsg("%d rows failed; see the log for details.", res.Failed)
			}
			return fmt.Errorf("%d of %d rows failed", res.Failed, res.Rows)
		}
		return nil
	},
}

func init() {
	onceCmd.Flags().BoolVar(&onceDryRun, "dry-run", false, "Decide and render without sending or writing")
	rootCmd.AddCommand(onceCmd)
}
