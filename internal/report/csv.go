package report

import (
	"encoding/csv"
	"io"
)

// CSVContentType is the MIME type of the CSV export.
const CSVContentType = "text/csv; charset=utf-8"

// CSVSink writes rows as CSV with the column keys as header.
type CSVSink struct {
	w *csv.Writer
}

// NewCSVSink wraps w.
func NewCSVSink(w io.Writer) *CSVSink {
	return &CSVSink{w: csv.NewWriter(w)}
}

// WriteHeader writes the column keys as the first record.
func (s *CSVSink) WriteHeader(cols []Column) error {
	keys := make([]string, len(cols))
	for i, c := range cols {
		keys[i] = c.Key
	}
	return s.w.Write(keys)
}

// WriteRow writes one record.
func (s *CSVSink) WriteRow(values []string) error {
	return s.w.Write(values)
}

// Close flushes buffered records and reports any write error.
func (s *CSVSink) Close() error {
	s.w.Flush()
	return s.w.Error()
}
