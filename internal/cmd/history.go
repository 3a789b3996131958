package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [check id]",
	Short: "List recorded checks, or show one check in detail",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Number of checks to list")
	historyCmd.Flags().Int("offset", 0, "Number of checks to skip")
	historyCmd.Flags().StringP("output", "o", outputTable, "Output format: json or table")
}

func runHistory(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	if err := validateOutput(output); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	closer, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	a, err := newApp(cmd.Context(), cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireStore(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid check id %q", args[0])
		}
		rec, err := a.store.GetCheck(cmd.Context(), id)
		if err != nil {
			return err
		}
		if output == outputJSON {
			return writeJSON(out, rec)
		}
		writeRecord(out, rec)
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")
	checks, err := a.store.ListChecks(cmd.Context(), limit, offset)
	if err != nil {
		return err
	}
	if output == outputJSON {
		return writeJSON(out, checks)
	}
	return writeHistory(out, checks)
}
