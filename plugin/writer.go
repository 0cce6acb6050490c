package plugin

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultOutputPath is where the CTRF report is written when no output path
// is configured.
var DefaultOutputPath = filepath.Join("ctrf", "ctrf-report.json")

// marshalReport renders the report as indented JSON with a trailing newline.
func marshalReport(report *Report) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode CTRF report")
	}
	return append(data, '\n'), nil
}

// writeReport writes data to path, creating the parent directory first. The
// absolute path written to is returned.
func writeReport(path string, data []byte) (string, error) {
	if path == "" {
		path = DefaultOutputPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve output path %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create output directory")
	}

	logrus.Infof("Writing CTRF report to: %s", abs)
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return "", errors.Wrap(err, "failed to write CTRF report")
	}
	return abs, nil
}
