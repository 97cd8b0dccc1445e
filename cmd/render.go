package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Tiliavir/hrms-time-calc/internal/model"
	"github.com/Tiliavir/hrms-time-calc/internal/session"
	"github.com/Tiliavir/hrms-time-calc/internal/status"
	"github.com/Tiliavir/hrms-time-calc/internal/timecalc"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatCSV   = "csv"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func shouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

var titleCaser = cases.Title(language.English)

// statusLabel turns a status into "Pending (1h 0m remaining)" or
// "Completed (+0h 30m overtime)".
func statusLabel(r model.StatusResult, colorize bool) string {
	label := titleCaser.String(string(r.Status))
	switch r.Status {
	case model.StatusCompleted:
		if r.OvertimeMinutes > 0 {
			label += fmt.Sprintf(" (+%s overtime)", timecalc.FormatMinutes(r.OvertimeMinutes))
		}
		if colorize {
			label = text.FgGreen.Sprint(label)
		}
	default:
		label += fmt.Sprintf(" (%s remaining)", timecalc.FormatMinutes(r.RemainingMinutes))
		if colorize {
			label = text.FgYellow.Sprint(label)
		}
	}
	return label
}

func entryRows(entries []model.TimeEntry) [][]string {
	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			e.ClockIn,
			e.ClockOut,
			timecalc.FormatMinutes(e.DurationMinutes),
			string(e.Origin),
		})
	}
	return rows
}

func printEntries(w io.Writer, entries []model.TimeEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No entries found.")
		return
	}
	fmt.Fprintln(w, renderTable(
		[]string{"#", "Clock in", "Clock out", "Duration", "Source"},
		entryRows(entries),
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
	))
}

// printReport writes a report in the requested format.
func printReport(w io.Writer, report session.Report, format string) error {
	switch format {
	case formatJSON:
		return printJSON(w, report)
	case formatCSV:
		printCSV(w, report.Summary.Entries)
		return nil
	case formatTable:
	default:
		return fmt.Errorf("unknown format %q (want table, json or csv)", format)
	}

	colorize := shouldColorize(w)
	fmt.Fprintln(w, report.Summary.Date)
	printEntries(w, report.Summary.Entries)
	fmt.Fprintf(w, "Total worked: %s\n", timecalc.FormatMinutes(report.Summary.TotalWorkedMinutes))
	fmt.Fprintf(w, "Target:       %s\n", timecalc.FormatMinutes(status.TargetMinutes))
	fmt.Fprintf(w, "Status:       %s\n", statusLabel(report.Status, colorize))
	switch {
	case report.ExitTime != "":
		fmt.Fprintf(w, "Exit time:    %s\n", report.ExitTime)
	case report.Status.Status == model.StatusCompleted:
		fmt.Fprintf(w, "Exit time:    %s\n", status.LeaveNow)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func printCSV(w io.Writer, entries []model.TimeEntry) {
	fmt.Fprintln(w, "clock_in,clock_out,duration_minutes,source")
	for _, e := range entries {
		fmt.Fprintf(w, "%s,%s,%d,%s\n",
			csvEscape(e.ClockIn),
			csvEscape(e.ClockOut),
			e.DurationMinutes,
			csvEscape(string(e.Origin)),
		)
	}
}

// csvEscape wraps a field in quotes if it contains a comma, quote, or newline.
func csvEscape(s string) string {
	needsQuote := false
	for _, c := range s {
		if c == ',' || c == '"' || c == '\n' || c == '\r' {
			needsQuote = true
			break
		}
	}
	if !needsQuote {
		return s
	}
	// Escape internal double quotes by doubling them.
	escaped := ""
	for _, c := range s {
		if c == '"' {
			escaped += "\""
		}
		escaped += string(c)
	}
	return `"` + escaped + `"`
}
