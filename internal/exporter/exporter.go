package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"attendsum/internal/aggregation"
	"attendsum/internal/errors"
	"attendsum/internal/tabular"
)

// Output table column names, shared by both sources.
var SummaryHeader = []string{"First Name", "Email", "Phone", "Attendance"}

// Download mime types per output format.
const (
	MimeCSV  = "text/csv"
	MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// MimeType returns the download content type for an output format.
func MimeType(format tabular.Format) string {
	if format == tabular.FormatXLSX {
		return MimeXLSX
	}
	return MimeCSV
}

// DownloadFilename returns the suggested attachment name for a summary
// download, e.g. "growthflow_summary.xlsx".
func DownloadFilename(source aggregation.Source, format tabular.Format) string {
	return fmt.Sprintf("%s_summary.%s", string(source), string(format))
}

// Writer serializes summary records into downloadable tables.
type Writer struct {
	logger *slog.Logger
}

// NewWriter creates a new summary writer.
func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		logger: logger.With(slog.String("component", "exporter")),
	}
}

// Write encodes summaries to w in the given format.
func (ew *Writer) Write(w io.Writer, format tabular.Format, summaries []aggregation.SummaryRecord) error {
	switch format {
	case tabular.FormatCSV:
		return ew.writeCSV(w, summaries)
	case tabular.FormatXLSX:
		return ew.writeXLSX(w, summaries)
	default:
		return errors.NewAppValidationError(fmt.Sprintf("unsupported output format: %q", format))
	}
}

// WriteFile encodes summaries to a file on disk, detecting the format from
// the file name and creating parent directories as needed.
func (ew *Writer) WriteFile(path string, summaries []aggregation.SummaryRecord) error {
	format, err := tabular.DetectFormat(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewStorageError("failed to create output directory", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.NewStorageError("failed to create output file", err)
	}
	defer file.Close()

	if err := ew.Write(file, format, summaries); err != nil {
		return err
	}

	ew.logger.Info("summary file written",
		slog.String("path", path),
		slog.String("format", string(format)),
		slog.Int("summary_count", len(summaries)))

	return nil
}

// writeCSV writes delimited text with a UTF-8 BOM so Excel opens it cleanly.
func (ew *Writer) writeCSV(w io.Writer, summaries []aggregation.SummaryRecord) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return errors.NewStorageError("failed to write BOM", err)
	}

	writer := csv.NewWriter(w)

	if err := writer.Write(SummaryHeader); err != nil {
		return errors.NewStorageError("failed to write CSV header row", err)
	}

	for _, summary := range summaries {
		row := []string{
			summary.Name,
			summary.Email,
			summary.Phone,
			fmt.Sprintf("%d", summary.Attendance),
		}
		if err := writer.Write(row); err != nil {
			return errors.NewStorageError("failed to write CSV data row", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// writeXLSX writes a single-sheet workbook. Attendance is written as a number;
// names, emails and phones stay strings so leading zeros survive.
func (ew *Writer) writeXLSX(w io.Writer, summaries []aggregation.SummaryRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	header := make([]interface{}, len(SummaryHeader))
	for i, col := range SummaryHeader {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.NewStorageError("failed to write workbook header row", err)
	}

	for i, summary := range summaries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.NewStorageError("failed to compute workbook cell", err)
		}
		row := []interface{}{summary.Name, summary.Email, summary.Phone, summary.Attendance}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.NewStorageError("failed to write workbook data row", err)
		}
	}

	if err := f.Write(w); err != nil {
		return errors.NewStorageError("failed to write workbook", err)
	}
	return nil
}
