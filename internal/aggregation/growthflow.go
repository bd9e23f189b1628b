package aggregation

import (
	"context"
	"log/slog"
	"strings"
)

// GrowthflowAggregator produces attendance summaries from Growthflow exports.
// Rows are keyed loosely by email; each row carries a comma-separated list of
// attended days, and the same registrant may appear on any number of rows.
type GrowthflowAggregator struct {
	logger *slog.Logger
}

// NewGrowthflowAggregator creates a new Growthflow aggregator.
func NewGrowthflowAggregator(logger *slog.Logger) *GrowthflowAggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &GrowthflowAggregator{
		logger: logger.With(slog.String("component", "growthflow_aggregator")),
	}
}

// growthflowGroup accumulates state for one email across its raw rows.
type growthflowGroup struct {
	names []string
	phone string
	days  map[string]struct{}
}

// Aggregate collapses raw rows into one SummaryRecord per unique email.
// Attendance is the number of distinct day tokens seen across all of the
// email's rows; the name is the most frequent spelling (first seen on ties);
// the phone is taken from the email's first row. Output rows appear in
// first-appearance order of each email.
func (a *GrowthflowAggregator) Aggregate(ctx context.Context, records []RawRecord) ([]SummaryRecord, error) {
	a.logger.InfoContext(ctx, "aggregating growthflow records",
		slog.Int("record_count", len(records)))

	groups := make(map[string]*growthflowGroup)
	var order []string

	for _, record := range records {
		email := record[GrowthflowColEmail]

		group, ok := groups[email]
		if !ok {
			group = &growthflowGroup{
				phone: record[GrowthflowColPhone],
				days:  make(map[string]struct{}),
			}
			groups[email] = group
			order = append(order, email)
		}

		group.names = append(group.names, record[GrowthflowColName])
		for _, day := range parseDayTokens(record[GrowthflowColDays]) {
			group.days[day] = struct{}{}
		}
	}

	summaries := make([]SummaryRecord, 0, len(order))
	for _, email := range order {
		group := groups[email]
		summaries = append(summaries, SummaryRecord{
			Name:       mostFrequentName(group.names),
			Email:      email,
			Phone:      group.phone,
			Attendance: len(group.days),
		})
	}

	a.logger.InfoContext(ctx, "growthflow aggregation complete",
		slog.Int("record_count", len(records)),
		slog.Int("summary_count", len(summaries)))

	return summaries, nil
}

// parseDayTokens splits a comma-separated day-list cell into distinct trimmed
// tokens. An empty cell yields no tokens, not a single empty token.
func parseDayTokens(cell string) []string {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var tokens []string
	for _, part := range strings.Split(cell, ",") {
		token := strings.TrimSpace(part)
		if token == "" {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		tokens = append(tokens, token)
	}
	return tokens
}
