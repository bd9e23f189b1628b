package tabular

import (
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"attendsum/internal/aggregation"
	"attendsum/internal/errors"
)

// Format identifies a supported tabular file encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat resolves a filename's extension to a supported format.
// Unsupported extensions are a FormatError: the user picked a file we cannot
// read, which is the same failure class as an unreadable file.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", errors.NewFormatError("unsupported file format, expected .csv or .xlsx", nil)
	}
}

// Table is an uploaded file read into memory: the header row plus one
// RawRecord per data row, in original file order. Every cell is kept as a raw
// string so phone numbers are never coerced to numeric values.
type Table struct {
	Header  []string
	Records []aggregation.RawRecord
}

// Reader loads uploaded files into Tables.
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a new tabular reader.
func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		logger: logger.With(slog.String("component", "tabular_reader")),
	}
}

// ReadFile opens and reads a file from disk, detecting the format from the
// file name.
func (rd *Reader) ReadFile(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewStorageError("failed to open input file", err).
			WithContext("path", path)
	}
	defer file.Close()

	return rd.Read(file, filepath.Base(path))
}

// Read parses tabular data from r, detecting the format from filename. A file
// that cannot be parsed at all yields a FormatError.
func (rd *Reader) Read(r io.Reader, filename string) (*Table, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	switch format {
	case FormatCSV:
		rows, err = readCSV(r)
	case FormatXLSX:
		rows, err = readXLSX(r)
	}
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, errors.NewFormatError("file contains no tabular data", nil)
	}

	table := buildTable(rows)

	rd.logger.Info("tabular file read",
		slog.String("filename", filename),
		slog.String("format", string(format)),
		slog.Int("columns", len(table.Header)),
		slog.Int("rows", len(table.Records)))

	return table, nil
}

// readCSV parses delimited text. Rows may be ragged; short rows are padded
// against the header when records are built. A UTF-8 BOM on the first cell is
// stripped so Excel-exported files validate cleanly.
func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.NewFormatError("failed to parse CSV data", err)
	}

	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\uFEFF")
	}

	return rows, nil
}

// readXLSX parses a spreadsheet workbook. The first sheet is used; every cell
// comes back as the string excelize renders, never a numeric type.
func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.NewFormatError("failed to open workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.NewFormatError("workbook contains no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.NewFormatError("failed to read workbook rows", err)
	}

	return rows, nil
}

// buildTable turns raw rows into a header plus ordered RawRecords. Cells
// beyond the header width are dropped; missing cells read as empty strings.
func buildTable(rows [][]string) *Table {
	header := make([]string, len(rows[0]))
	for i, col := range rows[0] {
		header[i] = strings.TrimSpace(col)
	}

	records := make([]aggregation.RawRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(aggregation.RawRecord, len(header))
		for i, col := range header {
			if i < len(row) {
				record[col] = row[i]
			} else {
				record[col] = ""
			}
		}
		records = append(records, record)
	}

	return &Table{Header: header, Records: records}
}
