package plugin

import (
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
)

// renderSummary prints the CTRF summary and the failed tests as tables.
func renderSummary(w io.Writer, report *Report) {
	summary := report.Results.Summary

	table := newTable(w)
	table.SetHeader([]string{"Tool", "Tests", "Passed", "Failed", "Skipped", "Pending", "Other"})
	table.Append([]string{
		report.Results.Tool.Name,
		strconv.Itoa(summary.Tests),
		strconv.Itoa(summary.Passed),
		strconv.Itoa(summary.Failed),
		strconv.Itoa(summary.Skipped),
		strconv.Itoa(summary.Pending),
		strconv.Itoa(summary.Other),
	})
	table.Render()

	var failed [][]string
	for _, test := range report.Results.Tests {
		if test.Status == StatusFailed {
			failed = append(failed, []string{test.Name, strconv.Itoa(test.Duration) + " ms", firstLine(test.Message)})
		}
	}
	if len(failed) == 0 {
		return
	}

	io.WriteString(w, "\n") //nolint:errcheck
	table = newTable(w)
	table.SetHeader([]string{"Failed Test", "Duration", "Message"})
	table.AppendBulk(failed)
	table.Render()
}

// logSuiteSummary logs the suite totals the way the plugin has always done.
func logSuiteSummary(suiteName string, report *Report) {
	summary := report.Results.Summary
	logrus.Infof("\n===============================================")
	logrus.Infof("\nSuite: %s", suiteName)
	logrus.Infof("\nTotal Tests: %d | Passed: %d | Failures: %d | Skips: %d | Other: %d",
		summary.Tests, summary.Passed, summary.Failed, summary.Skipped, summary.Other)
	logrus.Infof("\n===============================================")
}

func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}
