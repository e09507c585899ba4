package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack_backend/internal/feature/ledger/domain/entity"
	"fintrack_backend/internal/feature/ledger/usecase"
	userentity "fintrack_backend/internal/feature/user/domain/entity"
	"fintrack_backend/internal/platform/http/response"
	jwtmw "fintrack_backend/internal/platform/jwt"
	"fintrack_backend/internal/shared/apperror"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// mockLedger is a mock implementation of LedgerUsecase. Unset hooks panic.
type mockLedger struct {
	CreateFunc         func(actorID uint, in usecase.CreateTransactionInput) (*entity.Transaction, error)
	UpdateFunc         func(actorID, id uint, in usecase.UpdateTransactionInput) (*entity.Transaction, error)
	DeleteFunc         func(actorID, id uint) error
	TransitionFunc     func(action string, actorID, id uint) (*entity.Transaction, error)
	GetByIDFunc        func(id uint) (*entity.Transaction, error)
	ListFunc           func(query string, arg any) ([]entity.Transaction, error)
	SummarizeFunc      func(actorID uint, start, end time.Time) (*usecase.Summary, error)
	ListSuspiciousFunc func(actorID uint, threshold decimal.Decimal, start, end time.Time) ([]entity.Transaction, error)
}

func (m *mockLedger) Create(_ context.Context, actorID uint, in usecase.CreateTransactionInput) (*entity.Transaction, error) {
	return m.CreateFunc(actorID, in)
}

func (m *mockLedger) Update(_ context.Context, actorID, id uint, in usecase.UpdateTransactionInput) (*entity.Transaction, error) {
	return m.UpdateFunc(actorID, id, in)
}

func (m *mockLedger) Delete(_ context.Context, actorID, id uint) error {
	return m.DeleteFunc(actorID, id)
}

func (m *mockLedger) Validate(_ context.Context, actorID, id uint) (*entity.Transaction, error) {
	return m.TransitionFunc("validate", actorID, id)
}

func (m *mockLedger) Finalize(_ context.Context, actorID, id uint) (*entity.Transaction, error) {
	return m.TransitionFunc("finalize", actorID, id)
}

func (m *mockLedger) Reject(_ context.Context, actorID, id uint) (*entity.Transaction, error) {
	return m.TransitionFunc("reject", actorID, id)
}

func (m *mockLedger) GetByID(_ context.Context, id uint) (*entity.Transaction, error) {
	return m.GetByIDFunc(id)
}

func (m *mockLedger) ListAll(context.Context) ([]entity.Transaction, error) {
	return m.ListFunc("all", nil)
}

func (m *mockLedger) ListByStatus(_ context.Context, status entity.Status) ([]entity.Transaction, error) {
	return m.ListFunc("status", status)
}

func (m *mockLedger) ListByType(_ context.Context, t entity.Type) ([]entity.Transaction, error) {
	return m.ListFunc("type", t)
}

func (m *mockLedger) ListByCategory(_ context.Context, category entity.Category) ([]entity.Transaction, error) {
	return m.ListFunc("category", category)
}

func (m *mockLedger) ListByDateRange(_ context.Context, start, end time.Time) ([]entity.Transaction, error) {
	return m.ListFunc("range", [2]time.Time{start, end})
}

func (m *mockLedger) ListMine(_ context.Context, actorID uint) ([]entity.Transaction, error) {
	return m.ListFunc("mine", actorID)
}

func (m *mockLedger) Summarize(_ context.Context, actorID uint, start, end time.Time) (*usecase.Summary, error) {
	return m.SummarizeFunc(actorID, start, end)
}

func (m *mockLedger) ListSuspicious(_ context.Context, actorID uint, threshold decimal.Decimal, start, end time.Time) ([]entity.Transaction, error) {
	return m.ListSuspiciousFunc(actorID, threshold, start, end)
}

func router(uc LedgerUsecase, actorID uint) *gin.Engine {
	h := NewTransactionHandler(uc)
	r := gin.New()
	g := r.Group("/api/transactions", func(c *gin.Context) {
		if actorID != 0 {
			c.Set(jwtmw.ContextUserID, actorID)
		}
		c.Next()
	})
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/my-transactions", h.ListMine)
	g.GET("/status/:status", h.ListByStatus)
	g.GET("/type/:type", h.ListByType)
	g.GET("/category/:category", h.ListByCategory)
	g.GET("/date-range", h.ListByDateRange)
	g.GET("/summary", h.Summary)
	g.GET("/suspicious", h.Suspicious)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.PATCH("/:id/validate", h.Validate)
	g.PATCH("/:id/finalize", h.Finalize)
	g.PATCH("/:id/reject", h.Reject)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, response.Envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env response.Envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func sample(status entity.Status) *entity.Transaction {
	validator := uint(2)
	return &entity.Transaction{
		ID:              7,
		Amount:          decimal.RequireFromString("100.5"),
		Type:            entity.TypeExpense,
		Category:        entity.CategoryOffice,
		Status:          status,
		Description:     "paper",
		TransactionDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		CreatedByID:     3,
		CreatedBy:       &userentity.User{ID: 3, Email: "c@example.com", Role: userentity.RoleComptable, Password: "secret-hash"},
		ValidatedByID:   &validator,
		Version:         2,
	}
}

func TestTransactionHandler_Create(t *testing.T) {
	t.Parallel()

	t.Run("success returns 201 with the projection", func(t *testing.T) {
		t.Parallel()

		uc := &mockLedger{CreateFunc: func(actorID uint, in usecase.CreateTransactionInput) (*entity.Transaction, error) {
			assert.Equal(t, uint(3), actorID)
			assert.True(t, decimal.RequireFromString("100.50").Equal(in.Amount))
			assert.Equal(t, entity.TypeExpense, in.Type)
			assert.Equal(t, entity.CategoryOffice, in.Category)
			assert.Equal(t, "2026-03-01", in.TransactionDate.Format("2006-01-02"))
			return sample(entity.StatusPending), nil
		}}

		w, env := do(t, router(uc, 3), http.MethodPost, "/api/transactions",
			`{"amount":100.50,"transactionType":"EXPENSE","category":"OFFICE","description":"paper","transactionDate":"2026-03-01"}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.True(t, env.Success)
		assert.Contains(t, w.Body.String(), `"amount":100.50`)
		assert.NotContains(t, w.Body.String(), "secret-hash")

		data := env.Data.(map[string]any)
		assert.Equal(t, "PENDING", data["status"])
		assert.Equal(t, "2026-03-01", data["transactionDate"])
		assert.Equal(t, "c@example.com", data["createdBy"].(map[string]any)["email"])
		assert.Nil(t, data["finalizedBy"])
	})

	t.Run("request errors are 400", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name string
			body string
			msg  string
		}{
			{"missing amount", `{"transactionType":"EXPENSE","category":"OFFICE","transactionDate":"2026-03-01"}`, "invalid request: amount failed on 'required'"},
			{"malformed json", `{"amount":`, "invalid request body"},
			{"unknown type", `{"amount":1,"transactionType":"GIFT","category":"OFFICE","transactionDate":"2026-03-01"}`, `unknown transaction type "GIFT"`},
			{"unknown category", `{"amount":1,"transactionType":"INCOME","category":"FOOD","transactionDate":"2026-03-01"}`, `unknown category "FOOD"`},
			{"bad date", `{"amount":1,"transactionType":"INCOME","category":"SALES","transactionDate":"01/03/2026"}`, `invalid date "01/03/2026", expected YYYY-MM-DD`},
		}
		for _, tt := range tests {
			w, env := do(t, router(&mockLedger{}, 3), http.MethodPost, "/api/transactions", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, tt.name)
			assert.Equal(t, "BAD_REQUEST", env.Error.Kind, tt.name)
			assert.Equal(t, tt.msg, env.Error.Message, tt.name)
		}
	})

	t.Run("missing actor is 401", func(t *testing.T) {
		t.Parallel()

		w, env := do(t, router(&mockLedger{}, 0), http.MethodPost, "/api/transactions", `{}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, response.KindUnauthenticated, env.Error.Kind)
	})
}

func TestTransactionHandler_Update(t *testing.T) {
	t.Parallel()

	t.Run("only present fields are forwarded", func(t *testing.T) {
		t.Parallel()

		uc := &mockLedger{UpdateFunc: func(actorID, id uint, in usecase.UpdateTransactionInput) (*entity.Transaction, error) {
			assert.Equal(t, uint(7), id)
			amount, ok := in.Amount.Get()
			assert.True(t, ok)
			assert.True(t, decimal.NewFromInt(250).Equal(amount))
			assert.False(t, in.Type.IsSet())
			assert.False(t, in.Description.IsSet(), "null means absent")
			category, _ := in.Category.Get()
			assert.Equal(t, entity.CategoryTravel, category)
			return sample(entity.StatusPending), nil
		}}

		w, _ := do(t, router(uc, 3), http.MethodPut, "/api/transactions/7", `{"amount":"250","category":"TRAVEL","description":null}`)
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("finalized maps to 400", func(t *testing.T) {
		t.Parallel()

		uc := &mockLedger{UpdateFunc: func(uint, uint, usecase.UpdateTransactionInput) (*entity.Transaction, error) {
			return nil, apperror.BadRequest("transaction #7 is finalized and cannot be modified")
		}}
		w, env := do(t, router(uc, 3), http.MethodPut, "/api/transactions/7", `{"description":"x"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "transaction #7 is finalized and cannot be modified", env.Error.Message)
	})

	t.Run("version conflict maps to 409", func(t *testing.T) {
		t.Parallel()

		uc := &mockLedger{UpdateFunc: func(uint, uint, usecase.UpdateTransactionInput) (*entity.Transaction, error) {
			return nil, usecase.ErrConcurrentModification
		}}
		w, env := do(t, router(uc, 3), http.MethodPut, "/api/transactions/7", `{"description":"x"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "CONFLICT", env.Error.Kind)
	})

	t.Run("invalid id", func(t *testing.T) {
		t.Parallel()

		w, _ := do(t, router(&mockLedger{}, 3), http.MethodPut, "/api/transactions/abc", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTransactionHandler_Transitions(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		path   string
		action string
		msg    string
	}{
		{"/api/transactions/7/validate", "validate", "Transaction validated successfully"},
		{"/api/transactions/7/finalize", "finalize", "Transaction finalized successfully"},
		{"/api/transactions/7/reject", "reject", "Transaction rejected successfully"},
	} {
		var called string
		uc := &mockLedger{TransitionFunc: func(action string, actorID, id uint) (*entity.Transaction, error) {
			called = action
			assert.Equal(t, uint(2), actorID)
			assert.Equal(t, uint(7), id)
			return sample(entity.StatusValidated), nil
		}}
		w, env := do(t, router(uc, 2), http.MethodPatch, tt.path, "")
		assert.Equal(t, http.StatusOK, w.Code, tt.path)
		assert.Equal(t, tt.action, called)
		assert.Equal(t, tt.msg, env.Message)
	}

	uc := &mockLedger{TransitionFunc: func(string, uint, uint) (*entity.Transaction, error) {
		return nil, apperror.Unauthorized("only ADMIN can finalize transactions")
	}}
	w, env := do(t, router(uc, 3), http.MethodPatch, "/api/transactions/7/finalize", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Kind)
}

func TestTransactionHandler_Delete(t *testing.T) {
	t.Parallel()

	uc := &mockLedger{DeleteFunc: func(actorID, id uint) error {
		if id == 404 {
			return usecase.ErrTransactionNotFound
		}
		return nil
	}}

	w, env := do(t, router(uc, 1), http.MethodDelete, "/api/transactions/7", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Transaction deleted successfully", env.Message)

	w, env = do(t, router(uc, 1), http.MethodDelete, "/api/transactions/404", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "transaction not found", env.Error.Message)
}

func TestTransactionHandler_Lists(t *testing.T) {
	t.Parallel()

	var seen []string
	var args []any
	uc := &mockLedger{
		ListFunc: func(query string, arg any) ([]entity.Transaction, error) {
			seen = append(seen, query)
			args = append(args, arg)
			return []entity.Transaction{*sample(entity.StatusPending)}, nil
		},
		GetByIDFunc: func(id uint) (*entity.Transaction, error) { return sample(entity.StatusPending), nil },
	}
	r := router(uc, 3)

	for _, path := range []string{
		"/api/transactions",
		"/api/transactions/my-transactions",
		"/api/transactions/status/VALIDATED",
		"/api/transactions/type/INCOME",
		"/api/transactions/category/RENT",
		"/api/transactions/date-range?startDate=2026-01-01&endDate=2026-01-31",
	} {
		w, env := do(t, r, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.Len(t, env.Data, 1, path)
	}
	assert.Equal(t, []string{"all", "mine", "status", "type", "category", "range"}, seen)
	assert.Equal(t, uint(3), args[1])
	assert.Equal(t, entity.StatusValidated, args[2])
	assert.Equal(t, entity.TypeIncome, args[3])
	assert.Equal(t, entity.CategoryRent, args[4])

	w, env := do(t, r, http.MethodGet, "/api/transactions/7", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(7), env.Data.(map[string]any)["id"])

	for _, path := range []string{
		"/api/transactions/status/DONE",
		"/api/transactions/type/GIFT",
		"/api/transactions/category/FOOD",
		"/api/transactions/date-range?startDate=2026-01-01",
	} {
		w, _ := do(t, r, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestTransactionHandler_Reports(t *testing.T) {
	t.Parallel()

	uc := &mockLedger{
		SummarizeFunc: func(actorID uint, start, end time.Time) (*usecase.Summary, error) {
			assert.Equal(t, uint(2), actorID)
			return &usecase.Summary{
				StartDate:     start,
				EndDate:       end,
				TotalIncome:   decimal.RequireFromString("1000"),
				TotalExpense:  decimal.RequireFromString("250.5"),
				NetBalance:    decimal.RequireFromString("749.5"),
				CountByStatus: map[entity.Status]int64{entity.StatusPending: 2},
			}, nil
		},
		ListSuspiciousFunc: func(_ uint, threshold decimal.Decimal, _, _ time.Time) ([]entity.Transaction, error) {
			assert.True(t, decimal.NewFromInt(5000).Equal(threshold))
			return []entity.Transaction{}, nil
		},
	}
	r := router(uc, 2)

	w, _ := do(t, r, http.MethodGet, "/api/transactions/summary?startDate=2026-01-01&endDate=2026-01-31", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"totalIncome":1000.00`)
	assert.Contains(t, body, `"netBalance":749.50`)
	assert.Contains(t, body, `"startDate":"2026-01-01"`)
	assert.Contains(t, body, `"PENDING":2`)

	w, env := do(t, r, http.MethodGet, "/api/transactions/suspicious?threshold=5000&startDate=2026-01-01&endDate=2026-01-31", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, env.Data)

	w, env = do(t, r, http.MethodGet, "/api/transactions/suspicious?threshold=lots&startDate=2026-01-01&endDate=2026-01-31", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "threshold must be a decimal number", env.Error.Message)
}
