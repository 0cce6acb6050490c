package plugin

// TestCase is a single reportable TestNG test method, as read from the
// results document.
type TestCase struct {
	Name     string // "<test name>: <method name>"
	Status   string // lower-cased TestNG status (pass/fail/skip/...)
	Duration int    // duration-ms attribute
	Start    int64  // epoch ms
	Stop     int64  // epoch ms
	Message  string
	Trace    string
}

// Results holds the counts and timestamps declared by the TestNG document.
// Total is the declared count and is not reconciled with the number of
// TestCase records.
type Results struct {
	Total          int
	Passed         int
	Failed         int
	Skipped        int
	Ignored        int
	Start          int64
	Stop           int64
	SuiteName      string
	ConfigFailures int
}

// Report is a Common Test Report Format (CTRF) document.
type Report struct {
	Results ReportResults `json:"results"`
}

// ReportResults is the body of a CTRF document.
type ReportResults struct {
	Tool        Tool              `json:"tool"`
	Summary     Summary           `json:"summary"`
	Tests       []Test            `json:"tests"`
	Environment map[string]string `json:"environment"`
}

// Tool describes the test framework that produced the results.
type Tool struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// Summary aggregates test counts and the run's time window.
type Summary struct {
	Tests   int   `json:"tests"`
	Passed  int   `json:"passed"`
	Failed  int   `json:"failed"`
	Skipped int   `json:"skipped"`
	Pending int   `json:"pending"`
	Other   int   `json:"other"`
	Start   int64 `json:"start"`
	Stop    int64 `json:"stop"`
}

// Test is a single CTRF test entry.
type Test struct {
	Name     string `json:"name"`
	Status   Status `json:"status"`
	Duration int    `json:"duration"`
	Message  string `json:"message,omitempty"`
	Trace    string `json:"trace,omitempty"`
}
