package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/hrms-time-calc/internal/config"
	"github.com/Tiliavir/hrms-time-calc/internal/notify"
	"github.com/Tiliavir/hrms-time-calc/internal/session"
)

var (
	calcEntries     []string
	calcImage       string
	calcWorking     bool
	calcLastClockIn string
	calcFormat      string
	calcWatch       time.Duration
)

var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Calculate time worked today against the 8-hour target",
	Long: `Calculate merges manual entries (--entry) with the ones read from an HRMS
screenshot (--image) and reports the total, the status and, while a session
is still open, when you reach 8 hours.

  htc calc --entry "9:00 AM-12:00 PM" --entry "1:00 PM-5:00 PM"
  htc calc --image portal.png --working --last-clock-in "4:00 PM" --watch 1m`,
	Args: cobra.NoArgs,
	RunE: runCalc,
}

func init() {
	calcCmd.Flags().StringArrayVar(&calcEntries, "entry", nil, `Manual entry "<clock-in>-<clock-out>" (repeatable)`)
	calcCmd.Flags().StringVar(&calcImage, "image", "", "HRMS screenshot to extract entries from")
	calcCmd.Flags().BoolVar(&calcWorking, "working", false, "A session is still open")
	calcCmd.Flags().StringVar(&calcLastClockIn, "last-clock-in", "", `Start of the open session, e.g. "4:00 PM" (implies --working)`)
	calcCmd.Flags().StringVar(&calcFormat, "format", formatTable, "Output format: table, json, csv")
	calcCmd.Flags().DurationVar(&calcWatch, "watch", 0, "Recalculate at this interval until interrupted, e.g. 1m")
}

func runCalc(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess := session.New(logger)
	for _, raw := range calcEntries {
		in, out, err := parseEntryFlag(raw)
		if err != nil {
			return err
		}
		if _, err := sess.AddManual(in, out); err != nil {
			return err
		}
	}

	if calcImage != "" {
		if err := extractInto(ctx, sess, cfg, logger, os.Stderr); err != nil {
			return err
		}
	}

	if calcWorking || calcLastClockIn != "" {
		last := calcLastClockIn
		if last == "" {
			last = sess.LastClockIn()
		}
		sess.SetWorking(true, last)
	}

	return watchReports(ctx, sess, notify.New(cfg.Notifications), logger, os.Stdout)
}

// extractInto compresses calcImage, runs it through the configured extractor
// and stores the result on sess.
func extractInto(ctx context.Context, sess *session.Session, cfg config.Config, logger *slog.Logger, status io.Writer) error {
	jpeg, stats, err := prepareImageFile(calcImage, cfg.Image)
	if err != nil {
		return err
	}
	if err := sess.LoadImage(jpeg, stats); err != nil {
		return err
	}
	fmt.Fprintln(status, compressionLine(stats))

	ex, err := newExtractor(ctx, cfg.AI, logger)
	if err != nil {
		return err
	}
	fmt.Fprintln(status, "Analyzing screenshot…")
	if err := sess.Extract(ctx, ex); err != nil {
		return err
	}
	if a := sess.Analysis(); a != "" {
		fmt.Fprintln(status, a)
	}
	return nil
}

// watchReports prints a report, and with --watch keeps recalculating until
// ctx is cancelled. The completion notification fires at most once per
// entry set.
func watchReports(ctx context.Context, sess *session.Session, notifier notify.Notifier, logger *slog.Logger, w io.Writer) error {
	for {
		report := sess.Calculate(time.Now())
		if err := printReport(w, report, calcFormat); err != nil {
			return err
		}
		if report.Celebrate {
			if calcFormat == formatTable {
				fmt.Fprintln(w, "🎉 Congratulations! You're ready to go home!")
			}
			if err := notifier.NotifyTargetCompleted(ctx, report.Summary, report.Status); err != nil {
				logger.Warn("notification failed", "error", err)
			}
		}

		if calcWatch <= 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(calcWatch):
		}
		if calcFormat == formatTable {
			fmt.Fprintln(w)
		}
	}
}
