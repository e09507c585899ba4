// Package usecase implements recording and querying of audit entries.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack_backend/internal/feature/audit/domain/entity"
	"fintrack_backend/internal/shared/apperror"
)

const (
	// DefaultRecentLimit is used when Recent is called with a non-positive n.
	DefaultRecentLimit = 100
	// MaxRecentLimit caps Recent.
	MaxRecentLimit = 100
)

// ErrActorNotFound is returned by ActorLookup when the actor does not exist.
// Record tolerates it and stores the entry without an actor.
var ErrActorNotFound = errors.New("audit actor not found")

// AuditRepository persists and queries audit entries. Every list is newest first.
type AuditRepository interface {
	Create(ctx context.Context, log *entity.AuditLog) error
	ListByUser(ctx context.Context, userID uint) ([]entity.AuditLog, error)
	ListByEntity(ctx context.Context, entityType string, entityID uint) ([]entity.AuditLog, error)
	ListByAction(ctx context.Context, action string) ([]entity.AuditLog, error)
	ListByTimeRange(ctx context.Context, start, end time.Time) ([]entity.AuditLog, error)
	ListRecent(ctx context.Context, limit int) ([]entity.AuditLog, error)
}

// ActorLookup reports whether a user id exists.
// It returns ErrActorNotFound when it does not.
type ActorLookup interface {
	ActorExists(ctx context.Context, userID uint) error
}

type sourceAddressKey struct{}

// WithSourceAddress attaches the client address recorded with audit entries.
func WithSourceAddress(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, sourceAddressKey{}, addr)
}

// SourceAddress returns the address attached by WithSourceAddress, or "".
func SourceAddress(ctx context.Context) string {
	addr, _ := ctx.Value(sourceAddressKey{}).(string)
	return addr
}

// AuditUsecase records and reads audit entries.
type AuditUsecase struct {
	repo   AuditRepository
	actors ActorLookup
	now    func() time.Time
}

// NewAuditUsecase creates an AuditUsecase.
func NewAuditUsecase(repo AuditRepository, actors ActorLookup) *AuditUsecase {
	return &AuditUsecase{
		repo:   repo,
		actors: actors,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Record appends one entry. It joins the caller's storage transaction when ctx carries one,
// so a failure here aborts the surrounding mutation.
func (u *AuditUsecase) Record(ctx context.Context, actorID *uint, action, entityType string, entityID uint, details string) error {
	var userID *uint
	if actorID != nil {
		switch err := u.actors.ActorExists(ctx, *actorID); {
		case err == nil:
			id := *actorID
			userID = &id
		case errors.Is(err, ErrActorNotFound):
		default:
			return fmt.Errorf("failed to resolve audit actor: %w", err)
		}
	}

	log := &entity.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		IPAddress:  SourceAddress(ctx),
		CreatedAt:  u.now(),
	}
	if err := u.repo.Create(ctx, log); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}

// ByUser returns entries recorded for userID.
func (u *AuditUsecase) ByUser(ctx context.Context, userID uint) ([]entity.AuditLog, error) {
	return u.repo.ListByUser(ctx, userID)
}

// ByEntity returns entries about one entity.
func (u *AuditUsecase) ByEntity(ctx context.Context, entityType string, entityID uint) ([]entity.AuditLog, error) {
	if entityType == "" {
		return nil, apperror.BadRequest("entity type is required")
	}
	return u.repo.ListByEntity(ctx, entityType, entityID)
}

// ByAction returns entries with the given action name.
func (u *AuditUsecase) ByAction(ctx context.Context, action string) ([]entity.AuditLog, error) {
	if action == "" {
		return nil, apperror.BadRequest("action is required")
	}
	return u.repo.ListByAction(ctx, action)
}

// ByTimeRange returns entries created in [start, end].
func (u *AuditUsecase) ByTimeRange(ctx context.Context, start, end time.Time) ([]entity.AuditLog, error) {
	if end.Before(start) {
		return nil, apperror.BadRequest("end must not be before start")
	}
	return u.repo.ListByTimeRange(ctx, start.UTC(), end.UTC())
}

// Recent returns at most n entries, newest first. n is clamped to [1, MaxRecentLimit]
// and a non-positive n means DefaultRecentLimit.
func (u *AuditUsecase) Recent(ctx context.Context, n int) ([]entity.AuditLog, error) {
	switch {
	case n <= 0:
		n = DefaultRecentLimit
	case n > MaxRecentLimit:
		n = MaxRecentLimit
	}
	return u.repo.ListRecent(ctx, n)
}
