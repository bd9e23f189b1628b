package http

import (
	"context"
	"io"

	"attendsum/internal/aggregation"
	"attendsum/internal/services"
	"attendsum/internal/tabular"
)

// SummaryServiceInterface defines what the summary handler needs from the
// service layer. Kept small so handler tests can substitute a mock.
type SummaryServiceInterface interface {
	Process(ctx context.Context, r io.Reader, filename string, source aggregation.Source) (*services.Result, error)
	Encode(w io.Writer, format tabular.Format, summaries []aggregation.SummaryRecord) error
}
