// Package dto defines the audit log projection.
package dto

import (
	"time"

	"fintrack_backend/internal/feature/audit/domain/entity"
)

// AuditLogRes is the external projection of an audit entry.
type AuditLogRes struct {
	ID         uint      `json:"id"`
	UserID     *uint     `json:"userId"`
	Action     string    `json:"action"`
	EntityType string    `json:"entityType"`
	EntityID   uint      `json:"entityId"`
	Details    string    `json:"details"`
	IPAddress  string    `json:"ipAddress"`
	CreatedAt  time.Time `json:"createdAt"`
}

// FromAuditLogs builds projections, never returning nil.
func FromAuditLogs(logs []entity.AuditLog) []AuditLogRes {
	out := make([]AuditLogRes, 0, len(logs))
	for _, l := range logs {
		out = append(out, AuditLogRes{
			ID:         l.ID,
			UserID:     l.UserID,
			Action:     l.Action,
			EntityType: l.EntityType,
			EntityID:   l.EntityID,
			Details:    l.Details,
			IPAddress:  l.IPAddress,
			CreatedAt:  l.CreatedAt,
		})
	}
	return out
}
