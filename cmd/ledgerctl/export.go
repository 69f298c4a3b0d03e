package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"staffledger/internal/attendance"
	"staffledger/internal/report"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		filter attendance.ReportFilter
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the combined attendance report to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if format != "xlsx" && format != "csv" {
				return fmt.Errorf("unsupported format %q", format)
			}
			if out == "" {
				out = report.FileName(filter, format)
			}
			return a.withRepo(cmd.Context(), func(repo *attendance.Repository) error {
				loc := a.cfg.Location()
				svc := attendance.NewReportService(repo, repo, repo, nil, loc)
				rows, err := svc.Generate(cmd.Context(), filter)
				if err != nil {
					return err
				}
				return writeReport(out, format, rows, loc, cmd)
			})
		},
	}
	cmd.Flags().StringVar(&filter.StaffID, "staff", "", "only this staff id")
	cmd.Flags().IntVar(&filter.Month, "month", 0, "month 1-12")
	cmd.Flags().IntVar(&filter.Year, "year", 0, "year, e.g. 2024")
	cmd.Flags().StringVar(&format, "format", "xlsx", "xlsx or csv")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	return cmd
}

func writeReport(path, format string, rows []attendance.ReportRow, loc *time.Location, cmd *cobra.Command) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer f.Close()

	var sink report.Sink
	if format == "csv" {
		sink = report.NewCSVSink(f)
	} else {
		if sink, err = report.NewXLSXSink(f); err != nil {
			return err
		}
	}
	if err := report.Write(sink, rows, loc); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", len(rows), path)
	return f.Close()
}
