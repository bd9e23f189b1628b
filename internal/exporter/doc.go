// Package exporter serializes attendance summaries into the downloadable
// output formats: delimited text (CSV with UTF-8 BOM for Excel compatibility)
// and spreadsheet workbooks (XLSX). It also owns the output header, mime
// types, and suggested download filenames.
package exporter
