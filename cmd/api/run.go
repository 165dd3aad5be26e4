package main

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Run one payment reminder sweep across all tenants and exit",
	Example: `  billing remind
  billing remind --date 2026-03-31`,
	RunE: runRemind,
}

var syncCmd = &cobra.Command{
	Use:   "sync-subscriptions",
	Short: "Refresh every open subscription from the payment gateway and exit",
	RunE:  runSync,
}

func init() {
	rootCmd.AddCommand(remindCmd, syncCmd)
	remindCmd.Flags().String("date", "", "Evaluate reminders as of this day (YYYY-MM-DD, default: now)")
}

func runRemind(cmd *cobra.Command, _ []string) error {
	at := time.Now()
	if raw, _ := cmd.Flags().GetString("date"); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return errors.Wrap(err, "invalid --date")
		}
		// end of the given day so that day's due dates count as reached
		at = d.Add(24*time.Hour - time.Second)
	}

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	return a.sweepAt(cmd.Context(), at)
}

func runSync(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	report, err := a.subscriptions.SyncAll(cmd.Context())
	if err != nil {
		return err
	}
	if report.Failed > 0 {
		return errors.Newf("%d subscriptions failed to sync", report.Failed)
	}
	return nil
}
