package plugin

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Args represents the plugin's configurable arguments.
type Args struct {
	ReportFilenamePattern     string          `envconfig:"PLUGIN_REPORT_FILENAME_PATTERN"`
	OutputPath                string          `envconfig:"PLUGIN_OUTPUT"`
	ToolName                  string          `envconfig:"PLUGIN_TOOL"`
	Environment               EnvironmentList `envconfig:"PLUGIN_ENV"`
	FailedFails               int             `envconfig:"PLUGIN_FAILED_FAILS"`
	FailedSkips               int             `envconfig:"PLUGIN_FAILED_SKIPS"`
	FailureOnFailedTestConfig bool            `envconfig:"PLUGIN_FAILURE_ON_FAILED_TEST_CONFIG"`
	UnstableFails             int             `envconfig:"PLUGIN_UNSTABLE_FAILS"`
	UnstableSkips             int             `envconfig:"PLUGIN_UNSTABLE_SKIPS"`
	JobStatus                 string          `envconfig:"PLUGIN_JOB_STATUS"`
	ThresholdMode             int             `envconfig:"PLUGIN_THRESHOLD_MODE" default:"1"`
	PluginFailIfNoResults     bool            `envconfig:"PLUGIN_FAIL_IF_NO_RESULTS"`
	S3Bucket                  string          `envconfig:"PLUGIN_S3_BUCKET"`
	S3Key                     string          `envconfig:"PLUGIN_S3_KEY"`
	S3Region                  string          `envconfig:"PLUGIN_S3_REGION"`
	Level                     string          `envconfig:"PLUGIN_LOG_LEVEL"`
}

// publisher uploads an encoded report.
type publisher interface {
	Publish(ctx context.Context, key string, data []byte) error
}

var errNoReportFiles = errors.New("no files found matching the report filename pattern")

// Hooks used by Exec, replaced in tests.
var (
	stdout       io.Writer = os.Stdout
	newPublisher           = func(ctx context.Context, args Args) (publisher, error) { return newS3Publisher(ctx, args) }
)

// ValidateInputs ensures the user inputs meet the plugin requirements.
func ValidateInputs(args Args) error {
	if args.ReportFilenamePattern == "" {
		return errors.New("missing required parameter: ReportFilenamePattern. Please specify the path of the TestNG results file")
	}
	if args.FailedFails < 0 || args.FailedSkips < 0 || args.UnstableFails < 0 || args.UnstableSkips < 0 {
		return errors.New("threshold values must be non-negative. Check the configured values for failed and skipped tests")
	}
	if args.ThresholdMode != ThresholdModeAbsolute && args.ThresholdMode != ThresholdModePercentage {
		return errors.New("invalid ThresholdMode value. It must be 1 (absolute) or 2 (percentage). Check the configuration")
	}
	if args.S3Key != "" && args.S3Bucket == "" {
		return errors.New("PLUGIN_S3_KEY is set but PLUGIN_S3_BUCKET is empty")
	}
	return nil
}

// Exec converts the TestNG results file matched by the report pattern into a
// CTRF report, then publishes it and checks thresholds when configured.
func Exec(ctx context.Context, args Args) error {
	files, err := locateFiles(args.ReportFilenamePattern)
	switch {
	case errors.Is(err, errNoReportFiles):
		if args.PluginFailIfNoResults {
			return errors.New("no TestNG XML report files found. Check the report file pattern")
		}
		logrus.Warn("No TestNG XML report files found, continuing execution as PluginFailIfNoResults is false")
		return nil
	case err != nil:
		logrus.WithError(err).Error("Error locating files")
		return errors.Wrap(err, "failed to locate files")
	}
	if len(files) > 1 {
		logrus.WithField("Files", files[1:]).Warnf("Pattern matched %d files, converting only %s", len(files), files[0])
	}

	conv, err := convertFile(files[0], args.OutputPath, args.ToolName, args.Environment)
	if err != nil {
		logrus.WithField("File", files[0]).WithError(err).Error("Error converting file")
		return err
	}
	logrus.Info("Conversion completed successfully.")

	logSuiteSummary(conv.results.SuiteName, conv.report)
	renderSummary(stdout, conv.report)

	if args.S3Bucket != "" {
		pub, err := newPublisher(ctx, args)
		if err != nil {
			return err
		}
		if err := pub.Publish(ctx, objectKey(args.S3Key, conv.path), conv.data); err != nil {
			return err
		}
	}

	if err := validateThresholds(conv.report.Results.Summary, conv.results.ConfigFailures, args); err != nil {
		summary := conv.report.Results.Summary
		logrus.WithFields(logrus.Fields{
			"Tests":   summary.Tests,
			"Failed":  summary.Failed,
			"Skipped": summary.Skipped,
		}).Error(err.Error())
		return err
	}
	return nil
}

// Convert reads the TestNG results file at input and writes the CTRF report
// to output, or DefaultOutputPath when output is empty. toolName defaults to
// DefaultToolName and env holds "key=value" environment properties. Nothing
// is written unless the whole report could be built.
func Convert(input, output, toolName string, env []string) (*Report, error) {
	conv, err := convertFile(input, output, toolName, env)
	if err != nil {
		return nil, err
	}
	return conv.report, nil
}

// ConvertDocument builds the CTRF report for an already parsed document.
func ConvertDocument(doc *Element, toolName string, env []string) (*Report, error) {
	report, _, err := buildReport(doc, toolName, env)
	return report, err
}

func buildReport(doc *Element, toolName string, env []string) (*Report, Results, error) {
	cases, results, err := walkReport(doc)
	if err != nil {
		return nil, Results{}, err
	}
	return createReport(cases, results, toolName, parseEnvironment(env)), results, nil
}

type conversion struct {
	report  *Report
	results Results
	data    []byte
	path    string
}

func convertFile(input, output, toolName string, env []string) (*conversion, error) {
	doc, err := readDocument(input)
	if err != nil {
		return nil, err
	}
	report, results, err := buildReport(doc, toolName, env)
	if err != nil {
		return nil, err
	}

	data, err := marshalReport(report)
	if err != nil {
		return nil, err
	}
	path, err := writeReport(output, data)
	if err != nil {
		return nil, err
	}
	return &conversion{report: report, results: results, data: data, path: path}, nil
}

// readDocument reads and parses a TestNG XML file.
func readDocument(filename string) (*Element, error) {
	logrus.Infof("Reading TestNG report file: %s", filename)

	f, err := os.Open(filename)
	if err != nil {
		logrus.WithError(err).WithField("File", filename).Error("Failed to read file")
		return nil, errors.Wrap(err, "failed to read file")
	}
	defer f.Close()

	doc, err := ParseXML(f)
	if err != nil {
		logrus.WithError(err).WithField("File", filename).Error("Failed to parse XML")
		return nil, errors.Wrap(err, "failed to parse TestNG XML")
	}
	return doc, nil
}

// locateFiles identifies files matching the given pattern. A plain path is
// its own match.
func locateFiles(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		logrus.WithError(err).WithField("Pattern", pattern).Error("Error occurred while searching for files")
		return nil, errors.Wrap(err, "failed to search for files")
	}
	if len(matches) == 0 {
		return nil, errNoReportFiles
	}
	sort.Strings(matches)
	return matches, nil
}
