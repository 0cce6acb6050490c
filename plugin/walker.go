package plugin

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	unknownSuite  = "Unknown Suite"
	unknownTest   = "Unknown Test"
	unknownMethod = "Unknown Method"
	unknownStatus = "other"

	beforeSuiteMethod = "beforeSuite"
)

// StructureError reports a TestNG document whose structure cannot be
// converted at all.
type StructureError struct {
	Reason string
}

func (e *StructureError) Error() string {
	return "Invalid TestNG report format: " + e.Reason
}

type stepKind int

const (
	stepOK stepKind = iota
	stepSkip
	stepFatal
)

// step is the outcome of reading one node of the document. A skip with an
// empty reason is silent.
type step[T any] struct {
	kind   stepKind
	value  T
	reason string
}

func proceed[T any](v T) step[T] { return step[T]{kind: stepOK, value: v} }

func skipStep[T any](reason string) step[T] { return step[T]{kind: stepSkip, reason: reason} }

func fatalStep[T any](reason string) step[T] { return step[T]{kind: stepFatal, reason: reason} }

// walkReport validates the document layout and flattens
// testng-results/suite/test/class/test-method into test cases. Only the first
// suite is read.
func walkReport(doc *Element) ([]TestCase, Results, error) {
	root := stepRoot(doc)
	if root.kind == stepFatal {
		logrus.Errorf("Invalid XML structure: %s", root.reason)
		return nil, Results{}, &StructureError{Reason: root.reason}
	}
	suite := stepSuite(root.value)
	if suite.kind == stepFatal {
		logrus.Errorf("Invalid XML structure: %s", suite.reason)
		return nil, Results{}, &StructureError{Reason: suite.reason}
	}

	results := readResults(root.value, suite.value)
	logrus.WithFields(logrus.Fields{
		"Total":   results.Total,
		"Passed":  results.Passed,
		"Failed":  results.Failed,
		"Skipped": results.Skipped,
		"Ignored": results.Ignored,
	}).Infof("Parsed test results for suite %s", results.SuiteName)

	var cases []TestCase
	for ti, test := range suite.value.All("test") {
		classes := stepClasses(test, ti)
		if classes.kind != stepOK {
			logrus.Warn(classes.reason)
			continue
		}
		for ci, class := range classes.value {
			methods := stepMethods(class, ti, ci)
			if methods.kind != stepOK {
				logrus.Warn(methods.reason)
				continue
			}
			for _, method := range methods.value {
				if tc := stepMethod(test, method); tc.kind == stepOK {
					cases = append(cases, tc.value)
				}
			}
		}
	}

	logrus.Infof("Successfully parsed %d test cases", len(cases))
	return cases, results, nil
}

func stepRoot(doc *Element) step[*Element] {
	root := doc.Child("testng-results")
	if root == nil {
		return fatalStep[*Element]("missing testng-results")
	}
	return proceed(root)
}

func stepSuite(root *Element) step[*Element] {
	suite := root.Child("suite")
	if suite == nil {
		return fatalStep[*Element]("missing suite")
	}
	if len(suite.All("test")) == 0 {
		return fatalStep[*Element]("missing or invalid test array")
	}
	return proceed(suite)
}

func stepClasses(test *Element, ti int) step[[]*Element] {
	classes := test.All("class")
	if len(classes) == 0 {
		return skipStep[[]*Element](fmt.Sprintf("Invalid test structure at index %d (%s): missing or invalid class array",
			ti, stringAttr(test, "name", "unnamed test")))
	}
	return proceed(classes)
}

func stepMethods(class *Element, ti, ci int) step[[]*Element] {
	methods := class.All("test-method")
	if len(methods) == 0 {
		return skipStep[[]*Element](fmt.Sprintf("Invalid class structure at test %d, class %d (%s): missing or invalid test-method array",
			ti, ci, stringAttr(class, "name", "unnamed class")))
	}
	return proceed(methods)
}

// stepMethod reads a single test-method. Configuration methods and methods
// without attributes are skipped silently.
func stepMethod(test, method *Element) step[TestCase] {
	if !method.HasAttrs() || isConfig(method) {
		return skipStep[TestCase]("")
	}
	name := stringAttr(method, "name", unknownMethod)
	duration := intAttr(method, "duration-ms", 0)
	if duration < 0 {
		logrus.WithField("Method", name).Warnf("Negative duration-ms %d, reporting 0", duration)
		duration = 0
	}

	tc := TestCase{
		Name:     stringAttr(test, "name", unknownTest) + ": " + name,
		Status:   strings.ToLower(stringAttr(method, "status", unknownStatus)),
		Duration: duration,
		Start:    parseDate(stringAttr(method, "started-at", "")),
		Stop:     parseDate(stringAttr(method, "finished-at", "")),
	}
	// Only the first exception is read; TestNG writes one per method.
	if exception := method.Child("exception"); exception != nil {
		if msg := exception.Child("message"); msg != nil {
			tc.Message = strings.TrimSpace(msg.Text)
		}
		if trace := exception.Child("full-stacktrace"); trace != nil {
			tc.Trace = strings.TrimSpace(trace.Text)
		}
	}
	return proceed(tc)
}

func isConfig(method *Element) bool {
	return method.Attrs["is_config"] == "true" || method.Attrs["is-config"] == "true"
}

// readResults collects the declared counts from the testng-results element
// and the time window from the suite, preferring the start of a beforeSuite
// method when one exists.
func readResults(root, suite *Element) Results {
	startedAt := stringAttr(suite, "started-at", "")
	finishedAt := stringAttr(suite, "finished-at", "")
	if startedAt == "" || finishedAt == "" {
		logrus.WithFields(logrus.Fields{
			"StartedAt":  valueOrMissing(startedAt),
			"FinishedAt": valueOrMissing(finishedAt),
		}).Warn("Missing timestamp attributes in suite")
	}
	if method := findMethod(suite, beforeSuiteMethod); method != nil {
		if v := stringAttr(method, "started-at", ""); v != "" {
			logrus.Infof("Using beforeSuite method start time: %s", v)
			startedAt = v
		}
	}

	return Results{
		Total:          intAttr(root, "total", 0),
		Passed:         intAttr(root, "passed", 0),
		Failed:         intAttr(root, "failed", 0),
		Skipped:        intAttr(root, "skipped", 0),
		Ignored:        intAttr(root, "ignored", 0),
		Start:          parseDate(startedAt),
		Stop:           parseDate(finishedAt),
		SuiteName:      stringAttr(suite, "name", unknownSuite),
		ConfigFailures: countConfigFailures(suite),
	}
}

// findMethod returns the first test-method with the given name anywhere in
// the suite, configuration methods included.
func findMethod(suite *Element, name string) *Element {
	for _, test := range suite.All("test") {
		for _, class := range test.All("class") {
			for _, method := range class.All("test-method") {
				if method.HasAttrs() && method.Attrs["name"] == name {
					return method
				}
			}
		}
	}
	return nil
}

func countConfigFailures(suite *Element) int {
	count := 0
	for _, test := range suite.All("test") {
		for _, class := range test.All("class") {
			for _, method := range class.All("test-method") {
				if isConfig(method) && strings.EqualFold(method.Attrs["status"], "fail") {
					count++
				}
			}
		}
	}
	return count
}

func valueOrMissing(v string) string {
	if v == "" {
		return "MISSING"
	}
	return v
}
