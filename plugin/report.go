package plugin

import (
	"github.com/samber/lo"
)

// DefaultToolName is reported when the caller names no tool.
const DefaultToolName = "TestNG"

// convertTest maps a TestNG test case onto a CTRF test. Failure details are
// only carried for failed tests.
func convertTest(tc TestCase) Test {
	test := Test{
		Name:     tc.Name,
		Status:   mapStatus(tc.Status),
		Duration: tc.Duration,
	}
	if test.Status == StatusFailed {
		test.Message = tc.Message
		test.Trace = tc.Trace
	}
	return test
}

// createReport assembles the CTRF document. The summary is taken from the
// declared results, not recounted from the test cases.
func createReport(cases []TestCase, results Results, toolName string, env map[string]string) *Report {
	if toolName == "" {
		toolName = DefaultToolName
	}
	return &Report{
		Results: ReportResults{
			Tool: Tool{Name: toolName},
			Summary: Summary{
				Tests:   results.Total,
				Passed:  results.Passed,
				Failed:  results.Failed,
				Skipped: results.Skipped,
				Pending: 0,
				Other:   results.Ignored,
				Start:   results.Start,
				Stop:    results.Stop,
			},
			Tests: lo.Map(cases, func(tc TestCase, _ int) Test {
				return convertTest(tc)
			}),
			Environment: lo.Assign(map[string]string{}, env),
		},
	}
}
