package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/daviddao/sheetmail/internal/config"
	"github.com/daviddao/sheetmail/internal/logging"
)

// Version is set via ldflags at build time.
var Version = "dev"

var (
	cfgFile    string
	jsonOutput bool
	quietFlag  bool
	logLevel   string

	cfg    config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sm",
	Short: "sm - follow-up automation for a Google Sheets lead tracker",
	Long: `Sheetmail reads a lead tracker sheet, sends the next follow-up email to
interested contacts, and marks rows whose response needs a human.

Run without a subcommand it reconciles the sheet every interval until
interrupted.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch cmd.Name() {
		case "help", "version":
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}

		logCfg := cfg.Log
		if logLevel != "" {
			logCfg.Level = logLevel
		} else if quietFlag {
			logCfg.Level = "warn"
		}
		logger = logging.New(logCfg)

		if cmd.Name() == "sent" || (cmd.Parent() != nil && cmd.Parent().Name() == "sent") {
			return nil
		}
		return cfg.Validate()
	},
	RunE: runLoop,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sm version %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ./sheetmail.yaml or ~/sheetmail.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Only log warnings and errors")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
