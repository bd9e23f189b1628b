package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"attendsum/internal/aggregation"
	"attendsum/internal/errors"
	"attendsum/internal/exporter"
	"attendsum/internal/metrics"
	"attendsum/internal/tabular"
)

// Result is one processed upload: the summary rows plus enough metadata for
// the caller to offer a download.
type Result struct {
	Source        aggregation.Source
	Summaries     []aggregation.SummaryRecord
	InputRows     int
	UploadFormat  tabular.Format
	DownloadName  string
	DownloadMime  string
	SuggestedForm tabular.Format
}

// SummaryService runs the full pipeline for one uploaded file: read into raw
// records, validate the header for the selected source, aggregate, and
// prepare download metadata. It holds no per-request state.
type SummaryService struct {
	reader        *tabular.Reader
	writer        *exporter.Writer
	growthflow    *aggregation.GrowthflowAggregator
	webinarjam    *aggregation.WebinarjamAggregator
	metrics       *metrics.Metrics
	logger        *slog.Logger
	defaultFormat tabular.Format
}

// NewSummaryService creates a new summary service. metrics may be nil (the
// CLI runs without a registry).
func NewSummaryService(m *metrics.Metrics, logger *slog.Logger) *SummaryService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "summary_service"))

	return &SummaryService{
		reader:     tabular.NewReader(logger),
		writer:     exporter.NewWriter(logger),
		growthflow: aggregation.NewGrowthflowAggregator(logger),
		webinarjam: aggregation.NewWebinarjamAggregator(logger),
		metrics:    m,
		logger:     logger,
	}
}

// SetDefaultFormat pins the suggested download format for every source,
// overriding the per-source rule. An empty format restores that rule.
func (s *SummaryService) SetDefaultFormat(format tabular.Format) {
	s.defaultFormat = format
}

// Process reads one upload and aggregates it for the given source.
func (s *SummaryService) Process(ctx context.Context, r io.Reader, filename string, source aggregation.Source) (*Result, error) {
	start := time.Now()

	result, err := s.process(ctx, r, filename, source)
	s.observe(source, result, err, time.Since(start))
	if err != nil {
		s.logger.ErrorContext(ctx, "upload processing failed",
			slog.String("source", string(source)),
			slog.String("filename", filename),
			slog.String("error", err.Error()))
		return nil, err
	}

	s.logger.InfoContext(ctx, "upload processed",
		slog.String("source", string(source)),
		slog.String("filename", filename),
		slog.Int("input_rows", result.InputRows),
		slog.Int("summary_rows", len(result.Summaries)),
		slog.Duration("elapsed", time.Since(start)))

	return result, nil
}

func (s *SummaryService) process(ctx context.Context, r io.Reader, filename string, source aggregation.Source) (*Result, error) {
	uploadFormat, err := tabular.DetectFormat(filename)
	if err != nil {
		return nil, err
	}

	table, err := s.reader.Read(r, filename)
	if err != nil {
		return nil, err
	}

	if err := aggregation.ValidateHeader(source, table.Header); err != nil {
		return nil, err
	}

	var summaries []aggregation.SummaryRecord
	switch source {
	case aggregation.SourceGrowthflow:
		summaries, err = s.growthflow.Aggregate(ctx, table.Records)
	case aggregation.SourceWebinarjam:
		summaries, err = s.webinarjam.Aggregate(ctx, table.Records)
	default:
		return nil, errors.NewAppValidationError("unknown source type: " + string(source))
	}
	if err != nil {
		return nil, err
	}

	suggested := s.suggestedFormat(source, uploadFormat)

	return &Result{
		Source:        source,
		Summaries:     summaries,
		InputRows:     len(table.Records),
		UploadFormat:  uploadFormat,
		SuggestedForm: suggested,
		DownloadName:  exporter.DownloadFilename(source, suggested),
		DownloadMime:  exporter.MimeType(suggested),
	}, nil
}

// Encode serializes result summaries to w in the given format.
func (s *SummaryService) Encode(w io.Writer, format tabular.Format, summaries []aggregation.SummaryRecord) error {
	return s.writer.Write(w, format, summaries)
}

// suggestedFormat picks the download format offered by default: a configured
// default wins, otherwise Growthflow summaries go out as a workbook and
// WebinarJam mirrors the upload.
func (s *SummaryService) suggestedFormat(source aggregation.Source, upload tabular.Format) tabular.Format {
	if s.defaultFormat != "" {
		return s.defaultFormat
	}
	if source == aggregation.SourceGrowthflow {
		return tabular.FormatXLSX
	}
	return upload
}

// observe records pipeline metrics when a registry is attached.
func (s *SummaryService) observe(source aggregation.Source, result *Result, err error, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}

	status := "success"
	rowsIn, rowsOut := 0, 0
	switch {
	case err == nil:
		rowsIn, rowsOut = result.InputRows, len(result.Summaries)
	default:
		status = errorStatus(err)
	}

	s.metrics.ObserveUpload(string(source), status, rowsIn, rowsOut, elapsed)
}

func errorStatus(err error) string {
	switch {
	case errors.IsSchemaError(err):
		return "schema_error"
	case errors.IsFormatError(err):
		return "format_error"
	default:
		return "error"
	}
}
