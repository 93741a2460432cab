// Package media defines shared types for the vidlink application.
package media

import (
	"fmt"
	"time"
)

// Outcome tags how a resolver stage ended.
type Outcome int

const (
	// OK means the stage ran to completion. Finding nothing is still OK.
	OK Outcome = iota
	// Degraded means a non-fatal failure was swallowed and logged.
	Degraded
	// Failed means the stage could not do its work at all.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case Degraded:
		return "degraded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the externally visible record of one extraction.
type Result struct {
	MasterLink *string `json:"masterLink"`
	PlyrLink   *string `json:"plyrLink"`
	Date       string  `json:"date"`
	Time       string  `json:"time"`
	Duration   string  `json:"duration"`
}

// Empty reports whether neither a master link nor a player link was found.
func (r Result) Empty() bool {
	return r.MasterLink == nil && r.PlyrLink == nil
}

// NewResult builds a Result stamped with the local date and time of now.
// Empty link strings are encoded as null.
func NewResult(masterLink, plyrLink string, elapsed time.Duration, now time.Time) Result {
	return Result{
		MasterLink: optional(masterLink),
		PlyrLink:   optional(plyrLink),
		Date:       now.Format("1/2/2006"),
		Time:       now.Format("3:04:05 PM"),
		Duration:   FormatDuration(elapsed),
	}
}

// FormatDuration renders elapsed wall-clock time as "1.23 seconds".
func FormatDuration(d time.Duration) string {
	return fmt.Sprintf("%.2f seconds", d.Seconds())
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
