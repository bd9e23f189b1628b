package aggregation

import (
	"fmt"
	"strings"
)

// Source identifies which event platform produced an upload. Each source has
// its own required column set and aggregation rule.
type Source string

const (
	SourceGrowthflow Source = "growthflow"
	SourceWebinarjam Source = "webinarjam"
)

// Growthflow column names (exact, case-sensitive)
const (
	GrowthflowColName  = "First Name"
	GrowthflowColEmail = "Email"
	GrowthflowColPhone = "Phone"
	GrowthflowColDays  = "Attendance_Day"
)

// WebinarJam column names (exact, case-sensitive)
const (
	WebinarjamColName     = "First name"
	WebinarjamColEmail    = "Email"
	WebinarjamColPhone    = "Phone number"
	WebinarjamColAttended = "Attended live"
)

// ParseSource resolves a user-supplied source type string.
func ParseSource(s string) (Source, error) {
	switch Source(strings.ToLower(strings.TrimSpace(s))) {
	case SourceGrowthflow:
		return SourceGrowthflow, nil
	case SourceWebinarjam:
		return SourceWebinarjam, nil
	default:
		return "", fmt.Errorf("unknown source type: %q", s)
	}
}

// DisplayName returns the platform name used in user-facing messages.
func (s Source) DisplayName() string {
	switch s {
	case SourceGrowthflow:
		return "Growthflow"
	case SourceWebinarjam:
		return "WebinarJam"
	default:
		return string(s)
	}
}

// RequiredColumns returns the column set an upload must carry for this source.
func (s Source) RequiredColumns() []string {
	switch s {
	case SourceGrowthflow:
		return []string{GrowthflowColName, GrowthflowColEmail, GrowthflowColPhone, GrowthflowColDays}
	case SourceWebinarjam:
		return []string{WebinarjamColName, WebinarjamColEmail, WebinarjamColPhone, WebinarjamColAttended}
	default:
		return nil
	}
}

// RawRecord is one row of an uploaded table, keyed by column name. Values are
// kept as raw strings exactly as read; records are never mutated after creation.
type RawRecord map[string]string

// SummaryRecord is one row of the attendance summary output: one unique
// contact with a canonical display name and a count of sessions attended.
type SummaryRecord struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Attendance int    `json:"attendance"`
}
