package plugin

// Status is a CTRF test state.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
	StatusPending Status = "pending"
	StatusOther   Status = "other"
)

// mapStatus maps a lower-cased TestNG status onto a CTRF state. TestNG has
// no pending state, so StatusPending is never returned.
func mapStatus(raw string) Status {
	switch raw {
	case "pass":
		return StatusPassed
	case "fail":
		return StatusFailed
	case "skip":
		return StatusSkipped
	default:
		return StatusOther
	}
}
