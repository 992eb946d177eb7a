// Package cli provides output helpers for the shinsa command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/hyperjump/shinsa/internal/models"
	"github.com/hyperjump/shinsa/pkg/utils"
	"github.com/schollz/progressbar/v3"
)

// OutputFormat is the format for report output.
type OutputFormat string

const (
	// OutputText is a human-readable table (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const explanationWidth = 80

var (
	compliantColor    = color.New(color.FgGreen, color.Bold)
	nonCompliantColor = color.New(color.FgRed, color.Bold)
	errorColor        = color.New(color.FgYellow, color.Bold)
	dimColor          = color.New(color.Faint)
)

// WriteReport writes a report to w in the given format.
func WriteReport(w io.Writer, rep *models.Report, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, rep)
	default:
		writeReportText(w, rep)
		return nil
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeReportText(w io.Writer, rep *models.Report) {
	fmt.Fprintf(w, "\nReport %s (%s judge)\n\n", rep.ID, rep.Mode)
	for _, v := range rep.Verdicts {
		receipt := "-"
		if v.ReceiptID != nil {
			receipt = *v.ReceiptID
		}
		fmt.Fprintf(w, "%-12s %-12s %s\n", v.RecordID, receipt, ComplianceLabel(v.Compliance))
		fmt.Fprintf(w, "    %s\n", utils.Truncate(v.Explanation, explanationWidth))
		for _, warn := range v.Warnings {
			fmt.Fprintf(w, "    %s\n", dimColor.Sprint("warning: "+warn))
		}
	}
	fmt.Fprintln(w)
	for _, warn := range rep.Warnings {
		fmt.Fprintf(w, "%s\n", dimColor.Sprint("warning: "+warn))
	}
	fmt.Fprintln(w, SummaryLine(rep.Summary))
}

// ComplianceLabel returns the coloured label for a compliance outcome.
func ComplianceLabel(c models.Compliance) string {
	switch c {
	case models.Compliant:
		return compliantColor.Sprint(string(c))
	case models.NonCompliant:
		return nonCompliantColor.Sprint(string(c))
	default:
		return errorColor.Sprint(string(c))
	}
}

// SummaryLine renders the counts of a summary on one line.
func SummaryLine(s models.Summary) string {
	return fmt.Sprintf("%d records: %s compliant, %s non-compliant, %s error",
		s.Total,
		compliantColor.Sprint(s.Compliant),
		nonCompliantColor.Sprint(s.NonCompliant),
		errorColor.Sprint(s.Error))
}

// WriteReportList writes stored report summaries to w in the given format.
func WriteReportList(w io.Writer, reports []*models.ReportInfo, total int64, format OutputFormat) error {
	if format == OutputJSON {
		if reports == nil {
			reports = []*models.ReportInfo{}
		}
		return writeJSON(w, map[string]interface{}{"reports": reports, "total": total})
	}
	if len(reports) == 0 {
		fmt.Fprintln(w, "No reports.")
		return nil
	}
	fmt.Fprintf(w, "%-36s  %-20s  %-10s  %s\n", "ID", "CREATED", "MODE", "SUMMARY")
	fmt.Fprintln(w, strings.Repeat("─", 100))
	for _, r := range reports {
		fmt.Fprintf(w, "%-36s  %-20s  %-10s  %s\n",
			r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Mode, SummaryLine(r.Summary))
	}
	fmt.Fprintf(w, "\nShowing %d of %d reports\n", len(reports), total)
	return nil
}

// NewProgress returns a progress callback that advances a bar of total steps
// written to w, and a finish function that completes the bar.
func NewProgress(w io.Writer, total int, description string) (step func(), finish func()) {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(0),
		progressbar.OptionClearOnFinish(),
	)
	return func() { _ = bar.Add(1) }, func() { _ = bar.Finish() }
}
