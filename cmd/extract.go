package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/hrms-time-calc/internal/model"
	"github.com/Tiliavir/hrms-time-calc/internal/session"
	"github.com/Tiliavir/hrms-time-calc/internal/timecalc"
)

var extractFormat string

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Read clock-in/clock-out pairs from an HRMS screenshot",
	Args:  cobra.NoArgs,
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&calcImage, "image", "", "HRMS screenshot to extract entries from")
	extractCmd.Flags().StringVar(&extractFormat, "format", formatTable, "Output format: table, json, csv")
	_ = extractCmd.MarkFlagRequired("image")
}

type extractOutput struct {
	Entries            []model.TimeEntry `json:"entries"`
	Analysis           string            `json:"analysis,omitempty"`
	IsCurrentlyWorking bool              `json:"isCurrentlyWorking"`
	LastClockIn        string            `json:"lastClockIn,omitempty"`
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}

	start := time.Now()
	sess := session.New(logger)
	if err := extractInto(cmd.Context(), sess, cfg, logger, os.Stderr); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Done in %s\n", timecalc.FormatDuration(int64(time.Since(start).Seconds())))

	entries := sess.Extracted()
	switch extractFormat {
	case formatJSON:
		return printJSON(os.Stdout, extractOutput{
			Entries:            entries,
			Analysis:           sess.Analysis(),
			IsCurrentlyWorking: sess.IsCurrentlyWorking(),
			LastClockIn:        sess.LastClockIn(),
		})
	case formatCSV:
		printCSV(os.Stdout, entries)
	case formatTable:
		printEntries(os.Stdout, entries)
		if sess.IsCurrentlyWorking() {
			fmt.Printf("Currently working since %s\n", sess.LastClockIn())
		}
	default:
		return fmt.Errorf("unknown format %q (want table, json or csv)", extractFormat)
	}
	return nil
}
