package core

import (
	"fmt"
	"strings"
	"time"
)

// DefaultDismissDelay is how long a clean import result stays on screen.
const DefaultDismissDelay = 3 * time.Second

// Level is the severity of an operator notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Outcome is the operator-facing reading of a BulkResult.
type Outcome struct {
	Accepted         int             `json:"accepted"`
	Message          string          `json:"message"`
	Level            Level           `json:"level"`
	SkippedExisting  []string        `json:"skipped_existing"`
	SkippedMalicious []MaliciousSkip `json:"skipped_malicious"`
	MaliciousCount   int             `json:"malicious_count"`

	// AutoDismiss is false whenever the service rejected anything as
	// malicious; the operator must close that result by hand.
	AutoDismiss  bool       `json:"auto_dismiss"`
	DismissAfter DurationMS `json:"dismiss_after_ms"`
}

// Reconcile turns a BulkResult into a status message and a dismissal decision.
// dismissAfter is only meaningful when AutoDismiss is true; zero selects
// DefaultDismissDelay.
func Reconcile(result BulkResult, dismissAfter time.Duration) Outcome {
	if dismissAfter <= 0 {
		dismissAfter = DefaultDismissDelay
	}

	accepted := result.AcceptedCount()
	malicious := result.SkippedMalicious.Len()

	var b strings.Builder
	fmt.Fprintf(&b, "Added %d %s.", accepted, plural(accepted, "domain", "domains"))
	b.WriteString(" Classification and malicious screening run when monitoring starts.")

	if len(result.SkippedExisting) > 0 {
		fmt.Fprintf(&b, "\nSkipped %d already monitored: %s.",
			len(result.SkippedExisting), strings.Join(result.SkippedExisting, ", "))
	}

	if malicious > 0 {
		fmt.Fprintf(&b, "\nRejected %d as malicious", malicious)
		if names := describeMalicious(result.SkippedMalicious.Entries); names != "" {
			b.WriteString(": ")
			b.WriteString(names)
		}
		b.WriteString(".")
	}

	out := Outcome{
		Accepted:         accepted,
		Message:          b.String(),
		SkippedExisting:  append([]string{}, result.SkippedExisting...),
		SkippedMalicious: append([]MaliciousSkip{}, result.SkippedMalicious.Entries...),
		MaliciousCount:   malicious,
		AutoDismiss:      malicious == 0,
	}

	switch {
	case malicious > 0:
		out.Level = LevelWarning
	case len(result.SkippedExisting) > 0:
		out.Level = LevelInfo
	default:
		out.Level = LevelSuccess
	}

	if out.AutoDismiss {
		out.DismissAfter = DurationMS(dismissAfter)
	}

	return out
}

func describeMalicious(entries []MaliciousSkip) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Reason != "" {
			parts = append(parts, fmt.Sprintf("%s (%s)", e.Domain, e.Reason))
		} else {
			parts = append(parts, e.Domain)
		}
	}
	return strings.Join(parts, ", ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
