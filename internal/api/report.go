package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"staffledger/internal/attendance"
	"staffledger/internal/auth"
	"staffledger/internal/report"
)

type workTimeView struct {
	Date        string `json:"date"`
	ClockIn     string `json:"clock_in,omitempty"`
	ClockOut    string `json:"clock_out,omitempty"`
	TotalHours  string `json:"total_hours"`
	Punctuality string `json:"punctuality,omitempty"`
	InProgress  bool   `json:"in_progress"`
}

func (h *Handler) workTime(c *gin.Context) {
	staffID, err := authorize(c, c.Param("staffId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	summaries, err := h.Reports.WorkTime(c.Request.Context(), staffID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	views := make([]workTimeView, 0, len(summaries))
	for _, s := range summaries {
		v := workTimeView{Date: s.Date, Punctuality: string(s.Punctuality), InProgress: s.InProgress}
		if s.ClockIn != nil {
			v.ClockIn = s.ClockIn.In(h.Location).Format(attendance.TimeLayout)
		}
		if s.ClockOut != nil {
			v.ClockOut = s.ClockOut.In(h.Location).Format(attendance.TimeLayout)
		}
		switch {
		case s.Duration != nil:
			v.TotalHours = attendance.FormatDuration(*s.Duration)
		case s.InProgress:
			v.TotalHours = report.InProgress
		}
		views = append(views, v)
	}
	c.JSON(http.StatusOK, gin.H{"staff_id": staffID, "days": views})
}

func (h *Handler) board(c *gin.Context) {
	if h.Board == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "presence board not configured", "code": "unavailable"})
		return
	}
	day := c.Query("date")
	if day == "" {
		day = attendance.DayOf(h.Now(), h.Location)
	} else if _, _, err := attendance.DayBounds(day, h.Location); err != nil {
		h.writeError(c, err)
		return
	}
	entries, err := h.Board.Get(c.Request.Context(), day)
	if err != nil {
		h.Log.Warn("board read failed", "day", day, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "presence board unavailable", "code": "unavailable"})
		return
	}
	if claims, _ := auth.FromContext(c); !claims.IsAdmin() {
		own := entries[:0]
		for _, e := range entries {
			if e.StaffID == claims.StaffID {
				own = append(own, e)
			}
		}
		entries = own
	}
	c.JSON(http.StatusOK, gin.H{"date": day, "entries": entries})
}

func (h *Handler) exportReport(c *gin.Context) {
	filter := attendance.ReportFilter{StaffID: strings.TrimSpace(c.Query("staffId"))}
	var err error
	if filter.Month, err = intQuery(c, "month"); err != nil {
		h.writeError(c, err)
		return
	}
	if filter.Year, err = intQuery(c, "year"); err != nil {
		h.writeError(c, err)
		return
	}
	format := strings.ToLower(c.DefaultQuery("format", "xlsx"))
	if format != "xlsx" && format != "csv" {
		badRequest(c, fmt.Sprintf("unsupported format %q", format))
		return
	}

	rows, err := h.Reports.Generate(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.Metrics.ReportRows.Observe(float64(len(rows)))

	var (
		buf         bytes.Buffer
		sink        report.Sink
		contentType string
	)
	switch format {
	case "csv":
		sink, contentType = report.NewCSVSink(&buf), report.CSVContentType
	default:
		xs, err := report.NewXLSXSink(&buf)
		if err != nil {
			h.writeError(c, &attendance.StorageError{Op: "open workbook", Err: err})
			return
		}
		sink, contentType = xs, report.XLSXContentType
	}
	if err := report.Write(sink, rows, h.Location); err != nil {
		h.writeError(c, &attendance.StorageError{Op: "write report", Err: err})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.FileName(filter, format)))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func intQuery(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, attendance.ErrInvalidFilter
	}
	return n, nil
}
