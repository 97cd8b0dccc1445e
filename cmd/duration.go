package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/hrms-time-calc/internal/timecalc"
)

var durationCmd = &cobra.Command{
	Use:   "duration <clock-in> <clock-out>",
	Short: "Print the minutes between two 12-hour clock strings",
	Example: `  htc duration "9:00 AM" "5:30 PM"
  htc duration "11:00 PM" "1:00 AM"`,
	Args: cobra.ExactArgs(2),
	RunE: runDuration,
}

func runDuration(cmd *cobra.Command, args []string) error {
	minutes := timecalc.Duration(args[0], args[1])
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%d minutes)\n", timecalc.FormatMinutes(minutes), minutes)
	return nil
}
