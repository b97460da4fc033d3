package diagnostics

import "time"

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

type Diagnostic struct {
	Severity Severity       `json:"severity"`
	Code     string         `json:"code"`
	Summary  string         `json:"summary"`
	Detail   string         `json:"detail,omitempty"`
	Time     time.Time      `json:"time"`
	Evidence map[string]any `json:"evidence,omitempty"`
}

// ModeChange records a transition of the dispatch loop.
func ModeChange(from, to string) Diagnostic {
	return Diagnostic{
		Severity: Info,
		Code:     "MODE.CHANGE",
		Summary:  "Mode " + from + " -> " + to,
		Time:     time.Now(),
		Evidence: map[string]any{"from": from, "to": to},
	}
}

// PushFailed records a frame the driver could not latch.
func PushFailed(err error) Diagnostic {
	return Diagnostic{
		Severity: Warn,
		Code:     "DRIVER.PUSH",
		Summary:  "Frame push failed",
		Detail:   err.Error(),
		Time:     time.Now(),
	}
}
