package aggregation

import (
	"context"
	"log/slog"
	"strings"
)

// WebinarjamAggregator produces attendance summaries from WebinarJam exports.
// Rows arrive one per registrant with a yes/no attendance flag; duplicate rows
// for the same (name, email, phone) triple have their flags summed.
type WebinarjamAggregator struct {
	logger *slog.Logger
}

// NewWebinarjamAggregator creates a new WebinarJam aggregator.
func NewWebinarjamAggregator(logger *slog.Logger) *WebinarjamAggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebinarjamAggregator{
		logger: logger.With(slog.String("component", "webinarjam_aggregator")),
	}
}

// webinarjamKey groups rows. Unlike Growthflow this includes the name, so two
// rows sharing an email but spelled differently stay separate output rows.
type webinarjamKey struct {
	name  string
	email string
	phone string
}

// Aggregate collapses raw rows into one SummaryRecord per unique
// (name, email, phone) triple, summing per-row attendance flags. Output rows
// appear in first-appearance order of each triple.
func (a *WebinarjamAggregator) Aggregate(ctx context.Context, records []RawRecord) ([]SummaryRecord, error) {
	a.logger.InfoContext(ctx, "aggregating webinarjam records",
		slog.Int("record_count", len(records)))

	totals := make(map[webinarjamKey]int)
	var order []webinarjamKey

	for _, record := range records {
		key := webinarjamKey{
			name:  record[WebinarjamColName],
			email: record[WebinarjamColEmail],
			phone: strings.TrimSpace(record[WebinarjamColPhone]),
		}

		if _, ok := totals[key]; !ok {
			order = append(order, key)
		}
		totals[key] += attendanceFlag(record[WebinarjamColAttended])
	}

	summaries := make([]SummaryRecord, 0, len(order))
	for _, key := range order {
		summaries = append(summaries, SummaryRecord{
			Name:       key.name,
			Email:      key.email,
			Phone:      key.phone,
			Attendance: totals[key],
		})
	}

	a.logger.InfoContext(ctx, "webinarjam aggregation complete",
		slog.Int("record_count", len(records)),
		slog.Int("summary_count", len(summaries)))

	return summaries, nil
}

// attendanceFlag maps an "Attended live" cell to 1 for "yes" (case-insensitive,
// trimmed) and 0 for anything else. Unrecognized values count as
// non-attendance rather than raising an error.
func attendanceFlag(cell string) int {
	if strings.EqualFold(strings.TrimSpace(cell), "yes") {
		return 1
	}
	return 0
}
