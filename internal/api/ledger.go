package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"staffledger/internal/attendance"
	"staffledger/internal/auth"
	"staffledger/internal/metrics"
	"staffledger/internal/queue"
)

type declarationRequest struct {
	StaffID   string   `json:"staff_id" binding:"required"`
	Status    string   `json:"status" binding:"required"`
	Date      string   `json:"date"`
	Time      string   `json:"time"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	DeviceID  string   `json:"device_id"`
}

type sessionRequest struct {
	StaffID   string   `json:"staff_id" binding:"required"`
	Kind      string   `json:"kind" binding:"required"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	DeviceID  string   `json:"device_id"`
}

// authorize resolves the staff id a request may act on. An empty requested id
// means the caller's own.
func authorize(c *gin.Context, requested string) (string, error) {
	claims, _ := auth.FromContext(c)
	requested = strings.TrimSpace(requested)
	if requested == "" && !claims.IsAdmin() {
		requested = claims.StaffID
	}
	if requested != "" && !claims.CanActFor(requested) {
		return "", errForbidden
	}
	return requested, nil
}

func (h *Handler) listStaff(c *gin.Context) {
	staffID, err := authorize(c, c.Query("staff_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	staff, err := h.Staff.ListStaff(c.Request.Context(), attendance.StaffFilter{ID: staffID})
	if err != nil {
		h.writeError(c, &attendance.StorageError{Op: "list staff", Err: err})
		return
	}
	if staff == nil {
		staff = []attendance.Staff{}
	}
	c.JSON(http.StatusOK, gin.H{"staff": staff})
}

func (h *Handler) submitDeclaration(c *gin.Context) {
	var req declarationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	staffID, err := authorize(c, req.StaffID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	ctx := c.Request.Context()
	status := attendance.Status(req.Status)
	if status.RequiresLocation() {
		if err := h.checkLocation(ctx, staffID, req.DeviceID, req.Latitude, req.Longitude); err != nil {
			h.Metrics.LedgerWrites.WithLabelValues("declaration", attendance.Code(err)).Inc()
			h.writeError(c, err)
			return
		}
	}

	d, err := h.Declarations.Submit(ctx, attendance.SubmitInput{
		StaffID: staffID,
		Status:  status,
		Date:    req.Date,
		Time:    req.Time,
	})
	h.Metrics.LedgerWrites.WithLabelValues("declaration", metrics.Outcome(attendance.Code(err))).Inc()
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.publish(ctx, queue.Notification{
		Type:    queue.TypeDeclaration,
		StaffID: d.StaffID,
		Day:     d.Date,
		Status:  string(d.Status),
		At:      d.CreatedAt,
	})
	c.JSON(http.StatusCreated, d)
}

func (h *Handler) listDeclarations(c *gin.Context) {
	staffID, err := authorize(c, c.Query("staff_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	decls, err := h.Declarations.Query(c.Request.Context(), attendance.DeclarationFilter{
		StaffID: staffID,
		From:    c.Query("from"),
		To:      c.Query("to"),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	if decls == nil {
		decls = []attendance.Declaration{}
	}
	c.JSON(http.StatusOK, gin.H{"declarations": decls})
}

func (h *Handler) recordSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	staffID, err := authorize(c, req.StaffID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	ctx := c.Request.Context()
	kind := attendance.Kind(req.Kind)
	if !kind.Valid() {
		h.writeError(c, attendance.ErrInvalidKind)
		return
	}
	if h.SessionRequiresLocation {
		if err := h.checkLocation(ctx, staffID, req.DeviceID, req.Latitude, req.Longitude); err != nil {
			h.Metrics.LedgerWrites.WithLabelValues("session", attendance.Code(err)).Inc()
			h.writeError(c, err)
			return
		}
	}

	e, err := h.Sessions.RecordEvent(ctx, staffID, kind, h.Now())
	h.Metrics.LedgerWrites.WithLabelValues("session", metrics.Outcome(attendance.Code(err))).Inc()
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.publish(ctx, queue.Notification{
		Type:    queue.TypeSession,
		StaffID: e.StaffID,
		Day:     e.Day,
		Kind:    string(e.Kind),
		At:      e.Timestamp,
	})
	c.JSON(http.StatusCreated, e)
}

func (h *Handler) listSessions(c *gin.Context) {
	staffID, err := authorize(c, c.Param("staffId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	events, err := h.Sessions.ListForStaff(c.Request.Context(), staffID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if events == nil {
		events = []attendance.SessionEvent{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": events})
}
