// Package handler serves the audit log HTTP API.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"fintrack_backend/internal/feature/audit/domain/entity"
	"fintrack_backend/internal/feature/audit/transport/http/dto"
	"fintrack_backend/internal/feature/audit/usecase"
	"fintrack_backend/internal/platform/http/response"
	"fintrack_backend/internal/shared/apperror"
)

// AuditReader defines the audit log queries.
type AuditReader interface {
	ByUser(ctx context.Context, userID uint) ([]entity.AuditLog, error)
	ByEntity(ctx context.Context, entityType string, entityID uint) ([]entity.AuditLog, error)
	ByAction(ctx context.Context, action string) ([]entity.AuditLog, error)
	ByTimeRange(ctx context.Context, start, end time.Time) ([]entity.AuditLog, error)
	Recent(ctx context.Context, n int) ([]entity.AuditLog, error)
}

// AuditHandler serves /api/audit-logs. Routes are ADMIN-only at the router.
type AuditHandler struct {
	audit AuditReader
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(audit AuditReader) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// SourceAddress attaches the client address to the request context for audit entries.
func SourceAddress() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(usecase.WithSourceAddress(c.Request.Context(), c.ClientIP()))
		c.Next()
	}
}

// Recent handles GET /api/audit-logs?limit=n.
func (h *AuditHandler) Recent(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, apperror.BadRequest("limit must be an integer"))
			return
		}
		limit = n
	}
	h.reply(c)(h.audit.Recent(c.Request.Context(), limit))
}

// ByUser handles GET /api/audit-logs/user/:id.
func (h *AuditHandler) ByUser(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	h.reply(c)(h.audit.ByUser(c.Request.Context(), id))
}

// ByEntity handles GET /api/audit-logs/entity/:type/:id.
func (h *AuditHandler) ByEntity(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	h.reply(c)(h.audit.ByEntity(c.Request.Context(), c.Param("type"), id))
}

// ByAction handles GET /api/audit-logs/action/:action.
func (h *AuditHandler) ByAction(c *gin.Context) {
	h.reply(c)(h.audit.ByAction(c.Request.Context(), c.Param("action")))
}

// ByTimeRange handles GET /api/audit-logs/range?start&end (RFC 3339).
func (h *AuditHandler) ByTimeRange(c *gin.Context) {
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		response.Error(c, apperror.BadRequest("start must be an RFC 3339 timestamp"))
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		response.Error(c, apperror.BadRequest("end must be an RFC 3339 timestamp"))
		return
	}
	h.reply(c)(h.audit.ByTimeRange(c.Request.Context(), start, end))
}

func (h *AuditHandler) reply(c *gin.Context) func([]entity.AuditLog, error) {
	return func(logs []entity.AuditLog, err error) {
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusOK, "Audit logs retrieved successfully", dto.FromAuditLogs(logs))
	}
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		response.Error(c, apperror.BadRequest("invalid %s %q", name, c.Param(name)))
		return 0, false
	}
	return uint(v), true
}
