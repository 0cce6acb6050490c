package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func init() {
	stdout = io.Discard
}

func TestLocateFiles(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		expected []string
		err      string
	}{
		{
			name:    "ValidPatternWithFiles",
			pattern: "../testdata/testng-*.xml",
			expected: []string{
				filepath.FromSlash("../testdata/testng-before-suite.xml"),
				filepath.FromSlash("../testdata/testng-report.xml"),
			},
		},
		{
			name:     "PlainPath",
			pattern:  "../testdata/testng-report.xml",
			expected: []string{filepath.FromSlash("../testdata/testng-report.xml")},
		},
		{
			name:    "NoFilesMatchPattern",
			pattern: "../testdata/*.log",
			err:     "no files found matching the report filename pattern",
		},
		{
			name:    "InvalidPattern",
			pattern: "[invalidpattern",
			err:     "failed to search for files",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := locateFiles(tc.pattern)

			if diff := cmp.Diff(tc.expected, result); diff != "" {
				t.Errorf("locateFiles() mismatch (-want +got):\n%s", diff)
			}

			if tc.err != "" {
				if err == nil || !strings.Contains(err.Error(), tc.err) {
					t.Errorf("locateFiles() expected error %v, got %v", tc.err, err)
				}
			} else if err != nil {
				t.Errorf("locateFiles() unexpected error: %v", err)
			}
		})
	}
}

// TestValidateInputs tests the ValidateInputs function with various cases
func TestValidateInputs(t *testing.T) {
	tests := []struct {
		name      string
		args      Args
		expectErr bool
		errMsg    string
	}{
		{
			name:      "ValidInputs",
			args:      Args{ReportFilenamePattern: "testdata/*.xml", FailedFails: 1, ThresholdMode: ThresholdModeAbsolute},
			expectErr: false,
		},
		{
			name:      "MissingReportFilenamePattern",
			args:      Args{FailedFails: 1, ThresholdMode: ThresholdModeAbsolute},
			expectErr: true,
			errMsg:    "missing required parameter",
		},
		{
			name:      "NegativeThreshold",
			args:      Args{ReportFilenamePattern: "testdata/*.xml", UnstableSkips: -1, ThresholdMode: ThresholdModeAbsolute},
			expectErr: true,
			errMsg:    "threshold values must be non-negative",
		},
		{
			name:      "InvalidThresholdMode",
			args:      Args{ReportFilenamePattern: "testdata/*.xml", ThresholdMode: 3},
			expectErr: true,
			errMsg:    "invalid ThresholdMode",
		},
		{
			name:      "S3KeyWithoutBucket",
			args:      Args{ReportFilenamePattern: "testdata/*.xml", ThresholdMode: ThresholdModePercentage, S3Key: "x.json"},
			expectErr: true,
			errMsg:    "PLUGIN_S3_BUCKET is empty",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateInputs(tc.args)

			if tc.expectErr {
				if err == nil || !strings.Contains(err.Error(), tc.errMsg) {
					t.Errorf("ValidateInputs() expected error %q but got %v", tc.errMsg, err)
				}
			} else if err != nil {
				t.Errorf("ValidateInputs() unexpected error: %v", err)
			}
		})
	}
}

// TestReadDocument tests the readDocument function with various cases
func TestReadDocument(t *testing.T) {
	tests := []struct {
		name     string
		filePath string
		errMsg   string
	}{
		{name: "ValidTestNGReport", filePath: "../testdata/testng-report.xml"},
		{name: "NonExistentFile", filePath: "../testdata/nonexistent.xml", errMsg: "failed to read file"},
		{name: "InvalidXMLFile", filePath: "../testdata/invalid.xml", errMsg: "failed to parse TestNG XML"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := readDocument(tc.filePath)

			if tc.errMsg != "" {
				if err == nil || !strings.Contains(err.Error(), tc.errMsg) {
					t.Errorf("readDocument() expected error %q but got %v", tc.errMsg, err)
				}
				if doc != nil {
					t.Errorf("readDocument() returned a document on failure")
				}
				return
			}
			if err != nil {
				t.Fatalf("readDocument() unexpected error: %v", err)
			}
			if doc.Child("testng-results") == nil {
				t.Errorf("readDocument() did not expose the testng-results element")
			}
		})
	}
}

func TestConvert(t *testing.T) {
	output := filepath.Join(t.TempDir(), "nested", "dir", "ctrf.json")

	report, err := Convert("../testdata/testng-report.xml", output, "", []string{"appName=shop", "bad"})
	if err != nil {
		t.Fatalf("Convert() unexpected error: %v", err)
	}

	start := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC).UnixMilli()
	expectedSummary := Summary{Tests: 3, Passed: 2, Failed: 1, Skipped: 0, Pending: 0, Other: 0, Start: start, Stop: start + 1000}
	if diff := cmp.Diff(expectedSummary, report.Results.Summary); diff != "" {
		t.Errorf("Convert() summary mismatch (-want +got):\n%s", diff)
	}

	tests := report.Results.Tests
	if len(tests) != 3 {
		t.Fatalf("Convert() produced %d tests, want 3", len(tests))
	}
	names := []string{tests[0].Name, tests[1].Name, tests[2].Name}
	if diff := cmp.Diff([]string{"Login: validLogin", "Login: invalidLogin", "Login: logout"}, names); diff != "" {
		t.Errorf("Convert() test order mismatch (-want +got):\n%s", diff)
	}
	for _, i := range []int{0, 2} {
		if tests[i].Status != StatusPassed || tests[i].Message != "" || tests[i].Trace != "" {
			t.Errorf("Convert() passed test %d = %+v, want passed without message or trace", i, tests[i])
		}
	}
	failed := tests[1]
	if failed.Status != StatusFailed || failed.Message != "expected [true] but found [false]" {
		t.Errorf("Convert() failed test = %+v", failed)
	}
	if !strings.HasPrefix(failed.Trace, "java.lang.AssertionError: expected [true] but found [false]") {
		t.Errorf("Convert() failed test trace = %q", failed.Trace)
	}
	if diff := cmp.Diff(map[string]string{"appName": "shop"}, report.Results.Environment); diff != "" {
		t.Errorf("Convert() environment mismatch (-want +got):\n%s", diff)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("Convert() did not write the report: %v", err)
	}
	var written Report
	if err := json.Unmarshal(data, &written); err != nil {
		t.Fatalf("written report is not valid JSON: %v", err)
	}
	if diff := cmp.Diff(*report, written); diff != "" {
		t.Errorf("written report differs from returned report (-want +got):\n%s", diff)
	}
	if !strings.Contains(string(data), "\n  \"results\": {\n    \"tool\": {") {
		t.Errorf("written report is not indented with two spaces:\n%s", data)
	}
}

func TestConvertBeforeSuite(t *testing.T) {
	output := filepath.Join(t.TempDir(), "ctrf.json")

	report, err := Convert("../testdata/testng-before-suite.xml", output, "TestNG 7", nil)
	if err != nil {
		t.Fatalf("Convert() unexpected error: %v", err)
	}

	expectedSummary := Summary{
		Tests:   4,
		Passed:  1,
		Failed:  0,
		Skipped: 1,
		Pending: 0,
		Other:   1,
		Start:   time.Date(2024, 1, 15, 10, 29, 0, 0, time.UTC).UnixMilli(),
		Stop:    time.Date(2024, 1, 15, 10, 35, 0, 0, time.UTC).UnixMilli(),
	}
	if diff := cmp.Diff(expectedSummary, report.Results.Summary); diff != "" {
		t.Errorf("Convert() summary mismatch (-want +got):\n%s", diff)
	}

	expectedTests := []Test{
		{Name: "Checkout: payByCard", Status: StatusPassed, Duration: 20},
		{Name: "Checkout: payByVoucher", Status: StatusSkipped, Duration: 0},
		{Name: "Checkout: payLater", Status: StatusOther, Duration: 1},
	}
	if diff := cmp.Diff(expectedTests, report.Results.Tests); diff != "" {
		t.Errorf("Convert() tests mismatch (-want +got):\n%s", diff)
	}
	if report.Results.Tool.Name != "TestNG 7" {
		t.Errorf("Convert() tool = %q, want %q", report.Results.Tool.Name, "TestNG 7")
	}
	if len(report.Results.Environment) != 0 {
		t.Errorf("Convert() environment = %v, want empty", report.Results.Environment)
	}
}

func TestConvertFailuresWriteNothing(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		structure bool
		errMsg    string
	}{
		{name: "MissingRoot", input: "../testdata/invalid-root.xml", structure: true, errMsg: "Invalid TestNG report format: missing testng-results"},
		{name: "MissingSuite", input: "../testdata/invalid-suite.xml", structure: true, errMsg: "Invalid TestNG report format: missing suite"},
		{name: "SyntaxError", input: "../testdata/invalid.xml", errMsg: "failed to parse TestNG XML"},
		{name: "MissingFile", input: "../testdata/nonexistent.xml", errMsg: "failed to read file"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			output := filepath.Join(t.TempDir(), "ctrf", "ctrf-report.json")

			report, err := Convert(tc.input, output, "", nil)
			if err == nil || !strings.Contains(err.Error(), tc.errMsg) {
				t.Fatalf("Convert() expected error %q but got %v", tc.errMsg, err)
			}
			if report != nil {
				t.Errorf("Convert() returned a report on failure")
			}
			var structErr *StructureError
			if got := errors.As(err, &structErr); got != tc.structure {
				t.Errorf("Convert() StructureError = %v, want %v", got, tc.structure)
			}
			if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
				t.Errorf("Convert() wrote output despite failing: %v", statErr)
			}
			if _, statErr := os.Stat(filepath.Dir(output)); !os.IsNotExist(statErr) {
				t.Errorf("Convert() created the output directory despite failing")
			}
		})
	}
}

func TestConvertDefaultOutputPath(t *testing.T) {
	input, err := filepath.Abs("../testdata/testng-report.xml")
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd) //nolint:errcheck

	if _, err := Convert(input, "", "", nil); err != nil {
		t.Fatalf("Convert() unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "ctrf", "ctrf-report.json")); err != nil {
		t.Errorf("Convert() did not write to the default output path: %v", err)
	}
}

func TestConvertDocument(t *testing.T) {
	doc := mustParse(t, `<testng-results total="1" passed="1"><suite name="s"><test name="t"><class name="c"><test-method status="PASS" name="m" duration-ms="2"/></class></test></suite></testng-results>`)

	report, err := ConvertDocument(doc, "", []string{"KEY=a=b"})
	if err != nil {
		t.Fatalf("ConvertDocument() unexpected error: %v", err)
	}
	if diff := cmp.Diff([]Test{{Name: "t: m", Status: StatusPassed, Duration: 2}}, report.Results.Tests); diff != "" {
		t.Errorf("ConvertDocument() tests mismatch (-want +got):\n%s", diff)
	}
	if report.Results.Environment["KEY"] != "a=b" {
		t.Errorf("ConvertDocument() environment = %v", report.Results.Environment)
	}

	if _, err := ConvertDocument(&Element{Children: map[string][]*Element{}}, "", nil); err == nil {
		t.Error("ConvertDocument() expected an error for an empty document")
	}
}

func TestConvertDocumentKeepsMalformedFailures(t *testing.T) {
	doc := mustParse(t, `
<testng-results total="2" failed="2">
  <suite name="s">
    <test name="t">
      <class name="c">
        <test-method status="FAIL" name="twoExceptions" duration-ms="3">
          <exception><message>first</message><full-stacktrace>trace</full-stacktrace></exception>
          <exception><message>second</message></exception>
        </test-method>
        <test-method status="FAIL" name="negative" duration-ms="-1"/>
      </class>
    </test>
  </suite>
</testng-results>`)

	report, err := ConvertDocument(doc, "", nil)
	if err != nil {
		t.Fatalf("ConvertDocument() unexpected error: %v", err)
	}
	expected := []Test{
		{Name: "t: twoExceptions", Status: StatusFailed, Duration: 3, Message: "first", Trace: "trace"},
		{Name: "t: negative", Status: StatusFailed},
	}
	if diff := cmp.Diff(expected, report.Results.Tests); diff != "" {
		t.Errorf("ConvertDocument() tests mismatch (-want +got):\n%s", diff)
	}
	if report.Results.Summary.Failed != len(report.Results.Tests) {
		t.Errorf("ConvertDocument() failed = %d, tests = %d", report.Results.Summary.Failed, len(report.Results.Tests))
	}
}

type fakePublisher struct {
	key  string
	data []byte
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, key string, data []byte) error {
	f.key = key
	f.data = data
	return f.err
}

func TestExec(t *testing.T) {
	tests := []struct {
		name    string
		args    Args
		publish *fakePublisher
		errMsg  string
	}{
		{
			name: "Converts",
			args: Args{ReportFilenamePattern: "../testdata/testng-report.xml", ThresholdMode: ThresholdModeAbsolute},
		},
		{
			name: "ConvertsFirstOfSeveral",
			args: Args{ReportFilenamePattern: "../testdata/testng-*.xml", ThresholdMode: ThresholdModeAbsolute},
		},
		{
			name: "NoFilesAllowed",
			args: Args{ReportFilenamePattern: "../testdata/*.log", ThresholdMode: ThresholdModeAbsolute},
		},
		{
			name:   "NoFilesFails",
			args:   Args{ReportFilenamePattern: "../testdata/*.log", PluginFailIfNoResults: true, ThresholdMode: ThresholdModeAbsolute},
			errMsg: "no TestNG XML report files found",
		},
		{
			name:   "StructureErrorPropagates",
			args:   Args{ReportFilenamePattern: "../testdata/invalid-root.xml", ThresholdMode: ThresholdModeAbsolute},
			errMsg: "Invalid TestNG report format: missing testng-results",
		},
		{
			name:   "ThresholdExceeded",
			args:   Args{ReportFilenamePattern: "../testdata/testng-report.xml", FailedFails: 0, FailedSkips: 0, ThresholdMode: ThresholdModePercentage, UnstableFails: 10, JobStatus: "FAILED"},
			errMsg: "failure rate (33.33%) exceeded the threshold (10.00%)",
		},
		{
			name:    "Publishes",
			args:    Args{ReportFilenamePattern: "../testdata/testng-report.xml", ThresholdMode: ThresholdModeAbsolute, S3Bucket: "reports", S3Key: "ci/report.json"},
			publish: &fakePublisher{},
		},
		{
			name:    "PublishFails",
			args:    Args{ReportFilenamePattern: "../testdata/testng-report.xml", ThresholdMode: ThresholdModeAbsolute, S3Bucket: "reports"},
			publish: &fakePublisher{err: errors.New("upload refused")},
			errMsg:  "upload refused",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.args.OutputPath = filepath.Join(t.TempDir(), "ctrf-report.json")
			if tc.publish != nil {
				orig := newPublisher
				newPublisher = func(context.Context, Args) (publisher, error) { return tc.publish, nil }
				defer func() { newPublisher = orig }()
			}

			err := Exec(context.Background(), tc.args)

			if tc.errMsg != "" {
				if err == nil || !strings.Contains(err.Error(), tc.errMsg) {
					t.Errorf("Exec() expected error %q but got %v", tc.errMsg, err)
				}
			} else if err != nil {
				t.Errorf("Exec() unexpected error: %v", err)
			}

			if tc.publish != nil {
				data, _ := os.ReadFile(tc.args.OutputPath)
				if diff := cmp.Diff(string(data), string(tc.publish.data)); diff != "" {
					t.Errorf("published data differs from the written report (-want +got):\n%s", diff)
				}
				want := tc.args.S3Key
				if want == "" {
					want = "ctrf-report.json"
				}
				if tc.publish.key != want {
					t.Errorf("published key = %q, want %q", tc.publish.key, want)
				}
			}
		})
	}
}

func TestConvertLargeFile(t *testing.T) {
	logrus.SetLevel(logrus.ErrorLevel)
	defer logrus.SetLevel(logrus.InfoLevel)

	const numTestMethods = 10000
	var b strings.Builder
	fmt.Fprintf(&b, `<testng-results total="%d" passed="%d">
  <suite name="LargeSuite" started-at="2024-01-15T10:30:00Z" finished-at="2024-01-15T10:40:00Z">
    <test name="LargeTest">
      <class name="com.example.Test">
`, numTestMethods, numTestMethods)
	for i := 0; i < numTestMethods; i++ {
		fmt.Fprintf(&b, `        <test-method status="PASS" name="test-%d" duration-ms="10"/>
`, i)
	}
	b.WriteString(`      </class>
    </test>
  </suite>
</testng-results>
`)

	dir := t.TempDir()
	input := filepath.Join(dir, "large_testng.xml")
	if err := os.WriteFile(input, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("Failed to write input file: %v", err)
	}

	report, err := Convert(input, filepath.Join(dir, "out.json"), "", nil)
	if err != nil {
		t.Fatalf("Convert() failed for large file: %v", err)
	}
	if len(report.Results.Tests) != numTestMethods {
		t.Errorf("Convert() produced %d tests, want %d", len(report.Results.Tests), numTestMethods)
	}
	if report.Results.Tests[numTestMethods-1].Name != fmt.Sprintf("LargeTest: test-%d", numTestMethods-1) {
		t.Errorf("Convert() last test = %q", report.Results.Tests[numTestMethods-1].Name)
	}
}
