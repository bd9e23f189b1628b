package aggregation

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func growthflowRow(name, email, phone, days string) RawRecord {
	return RawRecord{
		GrowthflowColName:  name,
		GrowthflowColEmail: email,
		GrowthflowColPhone: phone,
		GrowthflowColDays:  days,
	}
}

func TestGrowthflowAggregator_Aggregate(t *testing.T) {
	ctx := context.Background()
	agg := NewGrowthflowAggregator(slog.Default())

	tests := []struct {
		name    string
		records []RawRecord
		want    []SummaryRecord
	}{
		{
			name:    "empty input",
			records: nil,
			want:    []SummaryRecord{},
		},
		{
			name: "single row single day",
			records: []RawRecord{
				growthflowRow("Alice", "alice@example.com", "0770111", "Mon"),
			},
			want: []SummaryRecord{
				{Name: "Alice", Email: "alice@example.com", Phone: "0770111", Attendance: 1},
			},
		},
		{
			name: "duplicate day tokens within one cell count once",
			records: []RawRecord{
				growthflowRow("Alice", "alice@example.com", "0770111", "Mon,Tue,Mon"),
			},
			want: []SummaryRecord{
				{Name: "Alice", Email: "alice@example.com", Phone: "0770111", Attendance: 2},
			},
		},
		{
			name: "distinct days unioned across repeated rows",
			records: []RawRecord{
				growthflowRow("A", "e1@example.com", "p1", "Mon"),
				growthflowRow("A", "e1@example.com", "p1", "Mon,Tue"),
				growthflowRow("B", "e1@example.com", "p1", ""),
			},
			want: []SummaryRecord{
				{Name: "A", Email: "e1@example.com", Phone: "p1", Attendance: 2},
			},
		},
		{
			name: "empty day list yields zero attendance",
			records: []RawRecord{
				growthflowRow("Alice", "alice@example.com", "0770111", ""),
			},
			want: []SummaryRecord{
				{Name: "Alice", Email: "alice@example.com", Phone: "0770111", Attendance: 0},
			},
		},
		{
			name: "phone is first seen, not overwritten",
			records: []RawRecord{
				growthflowRow("Alice", "alice@example.com", "0770111", "Mon"),
				growthflowRow("Alice", "alice@example.com", "0999999", "Tue"),
			},
			want: []SummaryRecord{
				{Name: "Alice", Email: "alice@example.com", Phone: "0770111", Attendance: 2},
			},
		},
		{
			name: "most frequent name wins",
			records: []RawRecord{
				growthflowRow("Alise", "alice@example.com", "p", "Mon"),
				growthflowRow("Alice", "alice@example.com", "p", "Tue"),
				growthflowRow("Alice", "alice@example.com", "p", "Wed"),
			},
			want: []SummaryRecord{
				{Name: "Alice", Email: "alice@example.com", Phone: "p", Attendance: 3},
			},
		},
		{
			name: "name tie broken by input order",
			records: []RawRecord{
				growthflowRow("Bea", "bea@example.com", "p", "Mon"),
				growthflowRow("Béa", "bea@example.com", "p", "Tue"),
			},
			want: []SummaryRecord{
				{Name: "Bea", Email: "bea@example.com", Phone: "p", Attendance: 2},
			},
		},
		{
			name: "output preserves first-appearance order of emails",
			records: []RawRecord{
				growthflowRow("Carol", "carol@example.com", "p3", "Mon"),
				growthflowRow("Alice", "alice@example.com", "p1", "Mon"),
				growthflowRow("Carol", "carol@example.com", "p3", "Tue"),
			},
			want: []SummaryRecord{
				{Name: "Carol", Email: "carol@example.com", Phone: "p3", Attendance: 2},
				{Name: "Alice", Email: "alice@example.com", Phone: "p1", Attendance: 1},
			},
		},
		{
			name: "day tokens are trimmed",
			records: []RawRecord{
				growthflowRow("Dan", "dan@example.com", "p", "Mon , Tue,  Mon"),
			},
			want: []SummaryRecord{
				{Name: "Dan", Email: "dan@example.com", Phone: "p", Attendance: 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := agg.Aggregate(ctx, tt.records)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGrowthflowAggregator_Idempotent(t *testing.T) {
	ctx := context.Background()
	agg := NewGrowthflowAggregator(nil)

	records := []RawRecord{
		growthflowRow("A", "e1@example.com", "p1", "Mon,Tue"),
		growthflowRow("B", "e2@example.com", "p2", "Mon"),
		growthflowRow("A", "e1@example.com", "p1", "Wed"),
	}

	first, err := agg.Aggregate(ctx, records)
	require.NoError(t, err)
	second, err := agg.Aggregate(ctx, records)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGrowthflowAggregator_DoesNotMutateInput(t *testing.T) {
	ctx := context.Background()
	agg := NewGrowthflowAggregator(nil)

	record := growthflowRow("A", "e1@example.com", "p1", "Mon,Tue,Mon")
	_, err := agg.Aggregate(ctx, []RawRecord{record})
	require.NoError(t, err)

	assert.Equal(t, "Mon,Tue,Mon", record[GrowthflowColDays])
}

func TestParseDayTokens(t *testing.T) {
	tests := []struct {
		name string
		cell string
		want []string
	}{
		{"empty cell", "", nil},
		{"whitespace only", "   ", nil},
		{"single token", "Mon", []string{"Mon"}},
		{"duplicates removed", "Mon,Tue,Mon", []string{"Mon", "Tue"}},
		{"tokens trimmed", " Mon , Tue ", []string{"Mon", "Tue"}},
		{"stray commas ignored", "Mon,,Tue,", []string{"Mon", "Tue"}},
		{"date-like tokens", "2024-01-01,2024-01-02", []string{"2024-01-01", "2024-01-02"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseDayTokens(tt.cell))
		})
	}
}
