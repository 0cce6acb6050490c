package plugin

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// parseEnvironment turns "key=value" entries into a map. Everything after the
// first '=' is the value, so values may themselves contain '='. Entries with
// an empty key or value are dropped.
func parseEnvironment(props []string) map[string]string {
	env := make(map[string]string, len(props))
	for _, prop := range props {
		key, value, _ := strings.Cut(prop, "=")
		if key == "" || value == "" {
			logrus.WithField("Property", prop).Warn("Skipping invalid environment property")
			continue
		}
		env[key] = value
	}
	return env
}

// EnvironmentList holds "key=value" entries read from PLUGIN_ENV. A value with
// newlines is split one entry per line. Otherwise it is split on commas, and a
// segment without '=' belongs to the entry before it, so "tags=a,b" stays a
// single entry.
type EnvironmentList []string

// Decode implements envconfig.Decoder.
func (l *EnvironmentList) Decode(value string) error {
	var entries []string
	if strings.Contains(value, "\n") {
		for _, line := range strings.Split(value, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				entries = append(entries, line)
			}
		}
		*l = entries
		return nil
	}
	for _, segment := range strings.Split(value, ",") {
		if !strings.Contains(segment, "=") && len(entries) > 0 {
			entries[len(entries)-1] += "," + segment
			continue
		}
		if segment = strings.TrimSpace(segment); segment != "" {
			entries = append(entries, segment)
		}
	}
	*l = entries
	return nil
}
