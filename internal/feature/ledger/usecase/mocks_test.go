package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"fintrack_backend/internal/feature/ledger/domain/entity"
	userentity "fintrack_backend/internal/feature/user/domain/entity"
)

// memRepo is an in-memory TransactionRepository with overridable hooks.
type memRepo struct {
	rows   map[uint]entity.Transaction
	nextID uint

	UpdateFunc        func(tx *entity.Transaction) error
	ListFunc          func(filter TransactionFilter) ([]entity.Transaction, error)
	SumByTypeFunc     func(from, to time.Time, statuses []entity.Status) (map[entity.Type]decimal.Decimal, error)
	CountByStatusFunc func(from, to time.Time) (map[entity.Status]int64, error)
}

func newMemRepo(seed ...entity.Transaction) *memRepo {
	r := &memRepo{rows: map[uint]entity.Transaction{}, nextID: 1}
	for _, t := range seed {
		r.rows[t.ID] = t
		if t.ID >= r.nextID {
			r.nextID = t.ID + 1
		}
	}
	return r
}

func (r *memRepo) Create(_ context.Context, t *entity.Transaction) error {
	t.ID = r.nextID
	r.nextID++
	r.rows[t.ID] = *t
	return nil
}

func (r *memRepo) FindByID(_ context.Context, id uint) (*entity.Transaction, error) {
	t, ok := r.rows[id]
	if !ok {
		return nil, ErrTransactionNotFound
	}
	return &t, nil
}

func (r *memRepo) Update(_ context.Context, t *entity.Transaction) error {
	if r.UpdateFunc != nil {
		return r.UpdateFunc(t)
	}
	stored, ok := r.rows[t.ID]
	if !ok || stored.Version != t.Version {
		return ErrConcurrentModification
	}
	t.Version++
	r.rows[t.ID] = *t
	return nil
}

func (r *memRepo) Delete(_ context.Context, id uint) error {
	if _, ok := r.rows[id]; !ok {
		return ErrTransactionNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *memRepo) List(_ context.Context, filter TransactionFilter) ([]entity.Transaction, error) {
	if r.ListFunc != nil {
		return r.ListFunc(filter)
	}
	return []entity.Transaction{}, nil
}

func (r *memRepo) SumByType(_ context.Context, from, to time.Time, statuses []entity.Status) (map[entity.Type]decimal.Decimal, error) {
	if r.SumByTypeFunc != nil {
		return r.SumByTypeFunc(from, to, statuses)
	}
	return map[entity.Type]decimal.Decimal{}, nil
}

func (r *memRepo) CountByStatus(_ context.Context, from, to time.Time) (map[entity.Status]int64, error) {
	if r.CountByStatusFunc != nil {
		return r.CountByStatusFunc(from, to)
	}
	return map[entity.Status]int64{}, nil
}

// mockActors resolves ids from a fixed directory.
type mockActors map[uint]*userentity.User

func (m mockActors) ResolveActor(_ context.Context, id uint) (*userentity.User, error) {
	u, ok := m[id]
	if !ok || !u.IsActive {
		return nil, errActorUnavailable
	}
	return u, nil
}

type auditCall struct {
	ActorID  uint
	Action   string
	Entity   string
	EntityID uint
	Details  string
}

type mockAudit struct {
	calls []auditCall
	err   error
}

func (m *mockAudit) Record(_ context.Context, actorID *uint, action, entityType string, entityID uint, details string) error {
	var id uint
	if actorID != nil {
		id = *actorID
	}
	m.calls = append(m.calls, auditCall{id, action, entityType, entityID, details})
	return m.err
}

type passthroughTx struct{ calls int }

func (p *passthroughTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	p.calls++
	return fn(ctx)
}
