package usecase

import (
	"context"
	"time"

	"fintrack_backend/internal/feature/user/domain/entity"
)

// mockUserRepository is a mock implementation of UserRepository.
type mockUserRepository struct {
	CreateFunc        func(user *entity.User) error
	FindByEmailFunc   func(email string) (*entity.User, error)
	FindByIDFunc      func(id uint) (*entity.User, error)
	ExistsByEmailFunc func(email string) (bool, error)
	ListFunc          func(filter UserFilter) ([]entity.User, error)
	UpdateFunc        func(user *entity.User) error
	DeleteFunc        func(id uint) error
}

func (m *mockUserRepository) Create(_ context.Context, user *entity.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(user)
	}
	user.ID = 100
	return nil
}

func (m *mockUserRepository) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(email)
	}
	return nil, ErrUserNotFound
}

func (m *mockUserRepository) FindByID(_ context.Context, id uint) (*entity.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(id)
	}
	return nil, ErrUserNotFound
}

func (m *mockUserRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	if m.ExistsByEmailFunc != nil {
		return m.ExistsByEmailFunc(email)
	}
	return false, nil
}

func (m *mockUserRepository) List(_ context.Context, filter UserFilter) ([]entity.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(filter)
	}
	return nil, nil
}

func (m *mockUserRepository) Update(_ context.Context, user *entity.User) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(user)
	}
	return nil
}

func (m *mockUserRepository) Delete(_ context.Context, id uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(id)
	}
	return nil
}

type mockRefCounter struct {
	count int64
	err   error
}

func (m *mockRefCounter) CountReferencesToUser(context.Context, uint) (int64, error) {
	return m.count, m.err
}

type auditCall struct {
	ActorID    *uint
	Action     string
	EntityType string
	EntityID   uint
	Details    string
}

// mockAudit records every call and returns err.
type mockAudit struct {
	calls []auditCall
	err   error
}

func (m *mockAudit) Record(_ context.Context, actorID *uint, action, entityType string, entityID uint, details string) error {
	m.calls = append(m.calls, auditCall{actorID, action, entityType, entityID, details})
	return m.err
}

// passthroughTx runs fn directly.
type passthroughTx struct{ calls int }

func (p *passthroughTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	p.calls++
	return fn(ctx)
}

// mockSessionRepository is a mock implementation of SessionRepository.
type mockSessionRepository struct {
	CreateFunc               func(session *entity.Session) error
	FindByIDFunc             func(id string) (*entity.Session, error)
	RevokeFunc               func(id string) error
	RevokeAllByUserIDFunc    func(userID uint) error
	CountByUserIDFunc        func(userID uint) (int64, error)
	DeleteOldestByUserIDFunc func(userID uint) error
}

func (m *mockSessionRepository) Create(_ context.Context, session *entity.Session) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(session)
	}
	return nil
}

func (m *mockSessionRepository) FindByID(_ context.Context, id string) (*entity.Session, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(id)
	}
	return nil, ErrSessionNotFound
}

func (m *mockSessionRepository) Revoke(_ context.Context, id string) error {
	if m.RevokeFunc != nil {
		return m.RevokeFunc(id)
	}
	return nil
}

func (m *mockSessionRepository) RevokeAllByUserID(_ context.Context, userID uint) error {
	if m.RevokeAllByUserIDFunc != nil {
		return m.RevokeAllByUserIDFunc(userID)
	}
	return nil
}

func (m *mockSessionRepository) CountByUserID(_ context.Context, userID uint) (int64, error) {
	if m.CountByUserIDFunc != nil {
		return m.CountByUserIDFunc(userID)
	}
	return 0, nil
}

func (m *mockSessionRepository) DeleteOldestByUserID(_ context.Context, userID uint) error {
	if m.DeleteOldestByUserIDFunc != nil {
		return m.DeleteOldestByUserIDFunc(userID)
	}
	return nil
}

// mockJWTGenerator is a mock implementation of JWTGenerator.
type mockJWTGenerator struct {
	GenerateTokenFunc func(userID uint, email, role string) (string, error)
}

func (m *mockJWTGenerator) GenerateToken(userID uint, email, role string) (string, error) {
	if m.GenerateTokenFunc != nil {
		return m.GenerateTokenFunc(userID, email, role)
	}
	return "mock-jwt-token", nil
}

func (m *mockJWTGenerator) Expiration() time.Duration { return time.Hour }
