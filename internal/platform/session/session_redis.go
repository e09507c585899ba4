// Package session provides a Redis-backed store for refresh sessions.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"fintrack_backend/internal/feature/user/domain/entity"
	"fintrack_backend/internal/feature/user/usecase"
)

// DefaultPrefix is the key namespace used by cmd/server.
const DefaultPrefix = "fintrack:session"

// record is the JSON document stored per session.
type record struct {
	ID        string     `json:"id"`
	UserID    uint       `json:"userId"`
	UserAgent string     `json:"userAgent,omitempty"`
	IPAddress string     `json:"ipAddress,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt time.Time  `json:"expiresAt"`
	RevokedAt *time.Time `json:"revokedAt,omitempty"`
}

func recordFromEntity(s *entity.Session) record {
	return record{
		ID:        s.ID,
		UserID:    s.UserID,
		UserAgent: s.UserAgent,
		IPAddress: s.IPAddress,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
		RevokedAt: s.RevokedAt,
	}
}

func (r record) toEntity() *entity.Session {
	return &entity.Session{
		ID:        r.ID,
		UserID:    r.UserID,
		UserAgent: r.UserAgent,
		IPAddress: r.IPAddress,
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
		RevokedAt: r.RevokedAt,
	}
}

// SessionRedis implements usecase.SessionRepository using Redis.
// Each session is a JSON string expiring with the session; a per-user set indexes them.
type SessionRedis struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

var _ usecase.SessionRepository = (*SessionRedis)(nil)

// NewSessionRedis creates a new SessionRedis instance.
func NewSessionRedis(client redis.UniversalClient, prefix string) *SessionRedis {
	return &SessionRedis{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

func (r *SessionRedis) sessionKey(id string) string {
	return fmt.Sprintf("%s:%s", r.prefix, id)
}

func (r *SessionRedis) userSessionsKey(userID uint) string {
	return fmt.Sprintf("%s:user:%d", r.prefix, userID)
}

// Create stores session with a TTL matching its expiry.
func (r *SessionRedis) Create(ctx context.Context, session *entity.Session) error {
	ttl := session.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return errors.New("session already expired")
	}
	data, err := json.Marshal(recordFromEntity(session))
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	userKey := r.userSessionsKey(session.UserID)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.sessionKey(session.ID), data, ttl)
		pipe.SAdd(ctx, userKey, session.ID)
		// sessions share one lifetime, so the newest member bounds the index
		pipe.Expire(ctx, userKey, ttl)
		return nil
	})
	return err
}

// FindByID returns usecase.ErrSessionNotFound when the session is unknown or has expired.
func (r *SessionRedis) FindByID(ctx context.Context, id string) (*entity.Session, error) {
	rec, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec.toEntity(), nil
}

func (r *SessionRedis) get(ctx context.Context, id string) (record, error) {
	data, err := r.client.Get(ctx, r.sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return record{}, usecase.ErrSessionNotFound
		}
		return record{}, err
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return record{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return rec, nil
}

// Revoke marks the session revoked, keeping its remaining TTL.
// Revoking an already revoked session keeps the first revocation time.
func (r *SessionRedis) Revoke(ctx context.Context, id string) error {
	rec, err := r.get(ctx, id)
	if err != nil {
		return err
	}
	if rec.RevokedAt != nil {
		return nil
	}
	now := r.now()
	rec.RevokedAt = &now

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.sessionKey(id), data, redis.KeepTTL)
		pipe.SRem(ctx, r.userSessionsKey(rec.UserID), id)
		return nil
	})
	return err
}

// RevokeAllByUserID revokes every indexed session of the user.
func (r *SessionRedis) RevokeAllByUserID(ctx context.Context, userID uint) error {
	ids, err := r.client.SMembers(ctx, r.userSessionsKey(userID)).Result()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := r.Revoke(ctx, id); err != nil && !errors.Is(err, usecase.ErrSessionNotFound) {
			return err
		}
	}
	return nil
}

// CountByUserID returns the number of valid sessions of the user.
func (r *SessionRedis) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	sessions, err := r.active(ctx, userID)
	if err != nil {
		return 0, err
	}
	return int64(len(sessions)), nil
}

// DeleteOldestByUserID deletes the valid session with the earliest CreatedAt.
func (r *SessionRedis) DeleteOldestByUserID(ctx context.Context, userID uint) error {
	sessions, err := r.active(ctx, userID)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		return nil
	}

	oldest := sessions[0]
	for _, s := range sessions[1:] {
		if s.CreatedAt.Before(oldest.CreatedAt) {
			oldest = s
		}
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.sessionKey(oldest.ID))
		pipe.SRem(ctx, r.userSessionsKey(userID), oldest.ID)
		return nil
	})
	return err
}

// DeleteExpired is a no-op: Redis expires sessions through their TTL.
func (r *SessionRedis) DeleteExpired(context.Context) (int64, error) {
	return 0, nil
}

// active loads the user's valid sessions and prunes index entries whose session expired.
func (r *SessionRedis) active(ctx context.Context, userID uint) ([]record, error) {
	userKey := r.userSessionsKey(userID)
	ids, err := r.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return nil, err
	}

	now := r.now()
	sessions := make([]record, 0, len(ids))
	for _, id := range ids {
		rec, err := r.get(ctx, id)
		if errors.Is(err, usecase.ErrSessionNotFound) {
			if err := r.client.SRem(ctx, userKey, id).Err(); err != nil {
				zap.L().Warn("failed to prune session index", zap.Uint("user_id", userID), zap.Error(err))
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		if rec.toEntity().IsValidAt(now) {
			sessions = append(sessions, rec)
		}
	}
	return sessions, nil
}
