package plugin

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Threshold modes.
const (
	ThresholdModeAbsolute   = 1
	ThresholdModePercentage = 2
)

// validateThresholds checks the converted summary against the configured
// build-failure thresholds. A threshold of 0 is not enforced.
func validateThresholds(summary Summary, configFailures int, args Args) error {
	if args.FailureOnFailedTestConfig && configFailures > 0 {
		return fmt.Errorf("build marked as failed: %d configuration method(s) failed and FailureOnFailedTestConfig is true", configFailures)
	}

	jobFailed := strings.ToUpper(args.JobStatus) == "FAILED"

	switch args.ThresholdMode {
	case ThresholdModeAbsolute:
		if err := validateAbsoluteThresholds(summary, args.FailedFails, args.FailedSkips); err != nil {
			return errors.New("absolute threshold validation failed: " + err.Error())
		}
		if jobFailed {
			if err := validateAbsoluteThresholds(summary, args.UnstableFails, args.UnstableSkips); err != nil {
				return errors.New("unstable absolute threshold validation failed: " + err.Error())
			}
		}
	case ThresholdModePercentage:
		if err := validatePercentageThresholds(summary, args.FailedFails, args.FailedSkips); err != nil {
			return errors.New("percentage threshold validation failed: " + err.Error())
		}
		if jobFailed {
			if err := validatePercentageThresholds(summary, args.UnstableFails, args.UnstableSkips); err != nil {
				return errors.New("unstable percentage threshold validation failed: " + err.Error())
			}
		}
	default:
		return fmt.Errorf("invalid ThresholdMode: %d, expected 1 (absolute) or 2 (percentage)", args.ThresholdMode)
	}
	return nil
}

// validateAbsoluteThresholds checks failed and skipped counts against fixed limits.
func validateAbsoluteThresholds(summary Summary, maxFails, maxSkips int) error {
	if maxFails > 0 && summary.Failed > maxFails {
		return fmt.Errorf("number of failed tests (%d) exceeded the threshold (%d)", summary.Failed, maxFails)
	}
	if maxSkips > 0 && summary.Skipped > maxSkips {
		return fmt.Errorf("number of skipped tests (%d) exceeded the threshold (%d)", summary.Skipped, maxSkips)
	}
	return nil
}

// validatePercentageThresholds checks failed and skipped rates against
// percentage limits.
func validatePercentageThresholds(summary Summary, maxFails, maxSkips int) error {
	if summary.Tests == 0 {
		return nil
	}

	failureRate := float64(summary.Failed) / float64(summary.Tests) * 100
	skipRate := float64(summary.Skipped) / float64(summary.Tests) * 100

	if maxFails > 0 && failureRate > float64(maxFails) {
		return fmt.Errorf("failure rate (%.2f%%) exceeded the threshold (%.2f%%)", failureRate, float64(maxFails))
	}
	if maxSkips > 0 && skipRate > float64(maxSkips) {
		return fmt.Errorf("skip rate (%.2f%%) exceeded the threshold (%.2f%%)", skipRate, float64(maxSkips))
	}
	return nil
}
