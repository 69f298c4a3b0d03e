// Package api exposes the ledger over HTTP with gin.
package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"staffledger/internal/attendance"
	"staffledger/internal/auth"
	"staffledger/internal/board"
	"staffledger/internal/geofence"
	"staffledger/internal/metrics"
	"staffledger/internal/queue"
)

// LocationVerifier gates ledger writes on location.
type LocationVerifier interface {
	Verify(ctx context.Context, req geofence.LocateRequest) (geofence.Point, error)
}

// BoardReader serves the daily presence board.
type BoardReader interface {
	Get(ctx context.Context, day string) ([]board.Entry, error)
}

// Deps are the collaborators of the handler. Queue and Board are optional.
type Deps struct {
	Staff        attendance.StaffStore
	Declarations *attendance.DeclarationLedger
	Sessions     *attendance.SessionLedger
	Reports      *attendance.ReportService
	Guard        LocationVerifier
	Queue        queue.Queue
	Board        BoardReader
	Metrics      *metrics.Collectors
	Log          *slog.Logger

	// SessionRequiresLocation runs the geofence before clock events too.
	SessionRequiresLocation bool
	Location                *time.Location
	Now                     func() time.Time
	// PublishTimeout bounds each notification publish. Defaults to DefaultPublishTimeout.
	PublishTimeout time.Duration
}

// DefaultPublishTimeout bounds queue publishes after a committed write.
const DefaultPublishTimeout = 2 * time.Second

// Handler serves the /v1 routes.
type Handler struct {
	Deps
}

// New fills in defaults for the optional dependencies.
func New(d Deps) *Handler {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New(nil)
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.PublishTimeout <= 0 {
		d.PublishTimeout = DefaultPublishTimeout
	}
	if d.Guard == nil {
		d.Guard = geofence.NewGuard(nil, geofence.Fence{}, 0)
	}
	return &Handler{Deps: d}
}

// Register mounts the routes on g, which must already authenticate requests.
func (h *Handler) Register(g *gin.RouterGroup) {
	g.GET("/staff", h.listStaff)
	g.POST("/declarations", h.submitDeclaration)
	g.GET("/declarations", h.listDeclarations)
	g.POST("/sessions", h.recordSession)
	g.GET("/sessions/:staffId", h.listSessions)
	g.GET("/worktime/:staffId", h.workTime)
	g.GET("/board", h.board)
	g.GET("/reports/export", auth.RequireAdmin(), h.exportReport)
}

func (h *Handler) publish(ctx context.Context, n queue.Notification) {
	if h.Queue == nil {
		return
	}
	// The write is already committed; a lost notification only delays the board.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.PublishTimeout)
	defer cancel()
	if err := h.Queue.Publish(ctx, n); err != nil {
		h.Metrics.QueuePublishFailures.Inc()
		h.Log.Warn("queue publish failed", "type", n.Type, "staff_id", n.StaffID, "error", err)
	}
}

// checkLocation runs the guard and records the result.
func (h *Handler) checkLocation(ctx context.Context, staffID, deviceID string, lat, lon *float64) error {
	req := geofence.LocateRequest{StaffID: staffID, DeviceID: deviceID}
	if lat != nil && lon != nil {
		req.Reported = &geofence.Point{Latitude: *lat, Longitude: *lon}
	}
	if _, err := h.Guard.Verify(ctx, req); err != nil {
		h.Metrics.LocationChecks.WithLabelValues("denied").Inc()
		return err
	}
	h.Metrics.LocationChecks.WithLabelValues("allowed").Inc()
	return nil
}
