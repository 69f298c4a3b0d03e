package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"staffledger/internal/attendance"
)

var errForbidden = errors.New("not allowed to act for this staff member")

// statusFor maps an error code to its HTTP status.
func statusFor(code string) int {
	switch code {
	case "invalid_argument":
		return http.StatusBadRequest
	case "location_denied":
		return http.StatusForbidden
	case "not_found":
		return http.StatusNotFound
	case "duplicate_submission", "sequence_violation":
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(c *gin.Context, err error) {
	if errors.Is(err, errForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "code": "forbidden"})
		return
	}
	code := attendance.Code(err)
	status := statusFor(code)
	body := gin.H{"error": err.Error(), "code": code}
	if reason, ok := attendance.Reason(err); ok {
		body["reason"] = string(reason)
	}
	if status == http.StatusInternalServerError {
		h.Log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		body["error"] = "storage failure"
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": "invalid_argument"})
}
