package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet that holds the report.
const SheetName = "Combined Report"

// XLSXContentType is the MIME type of the workbook.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// XLSXSink streams rows into a single-sheet workbook and writes it to w on Close.
type XLSXSink struct {
	w    io.Writer
	file *excelize.File
	sw   *excelize.StreamWriter
	row  int
}

// NewXLSXSink prepares a workbook with the report sheet.
func NewXLSXSink(w io.Writer) (*XLSXSink, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("report: rename sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("report: stream writer: %w", err)
	}
	return &XLSXSink{w: w, file: f, sw: sw}, nil
}

// WriteHeader sets column widths and writes the title row.
func (s *XLSXSink) WriteHeader(cols []Column) error {
	for i, c := range cols {
		if err := s.sw.SetColWidth(i+1, i+1, c.Width); err != nil {
			return fmt.Errorf("report: column width: %w", err)
		}
	}
	titles := make([]string, len(cols))
	for i, c := range cols {
		titles[i] = c.Title
	}
	return s.WriteRow(titles)
}

// WriteRow appends one row.
func (s *XLSXSink) WriteRow(values []string) error {
	s.row++
	cell, err := excelize.CoordinatesToCellName(1, s.row)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := s.sw.SetRow(cell, row); err != nil {
		return fmt.Errorf("report: write row %d: %w", s.row, err)
	}
	return nil
}

// Close flushes the sheet and writes the workbook.
func (s *XLSXSink) Close() error {
	defer s.file.Close()
	if err := s.sw.Flush(); err != nil {
		return fmt.Errorf("report: flush: %w", err)
	}
	if _, err := s.file.WriteTo(s.w); err != nil {
		return fmt.Errorf("report: write workbook: %w", err)
	}
	return nil
}
