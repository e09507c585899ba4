// Package handler serves the ledger HTTP API.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fintrack_backend/internal/feature/ledger/domain/entity"
	"fintrack_backend/internal/feature/ledger/transport/http/dto"
	"fintrack_backend/internal/feature/ledger/usecase"
	"fintrack_backend/internal/platform/http/response"
	jwtmw "fintrack_backend/internal/platform/jwt"
	"fintrack_backend/internal/shared/apperror"
)

// LedgerUsecase defines the transaction ledger operations.
type LedgerUsecase interface {
	Create(ctx context.Context, actorID uint, in usecase.CreateTransactionInput) (*entity.Transaction, error)
	Update(ctx context.Context, actorID, id uint, in usecase.UpdateTransactionInput) (*entity.Transaction, error)
	Delete(ctx context.Context, actorID, id uint) error
	Validate(ctx context.Context, actorID, id uint) (*entity.Transaction, error)
	Finalize(ctx context.Context, actorID, id uint) (*entity.Transaction, error)
	Reject(ctx context.Context, actorID, id uint) (*entity.Transaction, error)

	GetByID(ctx context.Context, id uint) (*entity.Transaction, error)
	ListAll(ctx context.Context) ([]entity.Transaction, error)
	ListByStatus(ctx context.Context, status entity.Status) ([]entity.Transaction, error)
	ListByType(ctx context.Context, t entity.Type) ([]entity.Transaction, error)
	ListByCategory(ctx context.Context, category entity.Category) ([]entity.Transaction, error)
	ListByDateRange(ctx context.Context, start, end time.Time) ([]entity.Transaction, error)
	ListMine(ctx context.Context, actorID uint) ([]entity.Transaction, error)
	Summarize(ctx context.Context, actorID uint, start, end time.Time) (*usecase.Summary, error)
	ListSuspicious(ctx context.Context, actorID uint, threshold decimal.Decimal, start, end time.Time) ([]entity.Transaction, error)
}

// TransactionHandler serves requests under /api/transactions.
type TransactionHandler struct {
	ledger LedgerUsecase
}

// NewTransactionHandler creates a TransactionHandler.
func NewTransactionHandler(ledger LedgerUsecase) *TransactionHandler {
	return &TransactionHandler{ledger: ledger}
}

// Create handles POST /api/transactions.
func (h *TransactionHandler) Create(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	var req dto.CreateTransactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		zap.L().Warn("create transaction validation failed", zap.Error(err), zap.String("remote_addr", c.ClientIP()))
		response.BindError(c, err)
		return
	}
	in, err := req.ToInput()
	if err != nil {
		response.Error(c, err)
		return
	}
	tx, err := h.ledger.Create(c.Request.Context(), actorID, in)
	if err != nil {
		response.Error(c, err)
		return
	}
	zap.L().Info("transaction created", zap.Uint("transaction_id", tx.ID), zap.Uint("user_id", actorID))
	response.OK(c, http.StatusCreated, "Transaction created successfully", dto.FromTransaction(tx))
}

// Get handles GET /api/transactions/:id.
func (h *TransactionHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	tx, err := h.ledger.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "Transaction retrieved successfully", dto.FromTransaction(tx))
}

// List handles GET /api/transactions.
func (h *TransactionHandler) List(c *gin.Context) {
	h.respondList(c)(h.ledger.ListAll(c.Request.Context()))
}

// ListMine handles GET /api/transactions/my-transactions.
func (h *TransactionHandler) ListMine(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	h.respondList(c)(h.ledger.ListMine(c.Request.Context(), actorID))
}

// ListByStatus handles GET /api/transactions/status/:status.
func (h *TransactionHandler) ListByStatus(c *gin.Context) {
	status, err := dto.ParseStatus(c.Param("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respondList(c)(h.ledger.ListByStatus(c.Request.Context(), status))
}

// ListByType handles GET /api/transactions/type/:type.
func (h *TransactionHandler) ListByType(c *gin.Context) {
	t, err := dto.ParseType(c.Param("type"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respondList(c)(h.ledger.ListByType(c.Request.Context(), t))
}

// ListByCategory handles GET /api/transactions/category/:category.
func (h *TransactionHandler) ListByCategory(c *gin.Context) {
	category, err := dto.ParseCategory(c.Param("category"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respondList(c)(h.ledger.ListByCategory(c.Request.Context(), category))
}

// ListByDateRange handles GET /api/transactions/date-range?startDate=&endDate=.
func (h *TransactionHandler) ListByDateRange(c *gin.Context) {
	start, end, ok := dateQuery(c)
	if !ok {
		return
	}
	h.respondList(c)(h.ledger.ListByDateRange(c.Request.Context(), start, end))
}

// Summary handles GET /api/transactions/summary?startDate=&endDate=.
func (h *TransactionHandler) Summary(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	start, end, ok := dateQuery(c)
	if !ok {
		return
	}
	s, err := h.ledger.Summarize(c.Request.Context(), actorID, start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "Summary retrieved successfully", dto.FromSummary(s))
}

// Suspicious handles GET /api/transactions/suspicious?threshold=&startDate=&endDate=.
func (h *TransactionHandler) Suspicious(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	threshold, err := decimal.NewFromString(c.Query("threshold"))
	if err != nil {
		response.Error(c, apperror.BadRequest("threshold must be a decimal number"))
		return
	}
	start, end, ok := dateQuery(c)
	if !ok {
		return
	}
	h.respondList(c)(h.ledger.ListSuspicious(c.Request.Context(), actorID, threshold, start, end))
}

// Update handles PUT /api/transactions/:id.
func (h *TransactionHandler) Update(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateTransactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	in, err := req.ToInput()
	if err != nil {
		response.Error(c, err)
		return
	}
	tx, err := h.ledger.Update(c.Request.Context(), actorID, id, in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "Transaction updated successfully", dto.FromTransaction(tx))
}

// Delete handles DELETE /api/transactions/:id.
func (h *TransactionHandler) Delete(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.ledger.Delete(c.Request.Context(), actorID, id); err != nil {
		response.Error(c, err)
		return
	}
	zap.L().Info("transaction deleted", zap.Uint("transaction_id", id), zap.Uint("user_id", actorID))
	response.OK(c, http.StatusOK, "Transaction deleted successfully", nil)
}

// Validate handles PATCH /api/transactions/:id/validate.
func (h *TransactionHandler) Validate(c *gin.Context) {
	h.transition(c, h.ledger.Validate, "Transaction validated successfully")
}

// Finalize handles PATCH /api/transactions/:id/finalize.
func (h *TransactionHandler) Finalize(c *gin.Context) {
	h.transition(c, h.ledger.Finalize, "Transaction finalized successfully")
}

// Reject handles PATCH /api/transactions/:id/reject.
func (h *TransactionHandler) Reject(c *gin.Context) {
	h.transition(c, h.ledger.Reject, "Transaction rejected successfully")
}

func (h *TransactionHandler) transition(c *gin.Context, fn func(ctx context.Context, actorID, id uint) (*entity.Transaction, error), msg string) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	tx, err := fn(c.Request.Context(), actorID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	zap.L().Info("transaction status changed",
		zap.Uint("transaction_id", tx.ID), zap.String("status", string(tx.Status)), zap.Uint("user_id", actorID))
	response.OK(c, http.StatusOK, msg, dto.FromTransaction(tx))
}

// respondList writes a list result or its error.
func (h *TransactionHandler) respondList(c *gin.Context) func([]entity.Transaction, error) {
	return func(txs []entity.Transaction, err error) {
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusOK, "Transactions retrieved successfully", dto.FromTransactions(txs))
	}
}

// actor returns the authenticated caller, aborting with 401 when absent.
func actor(c *gin.Context) (uint, bool) {
	id, ok := jwtmw.UserID(c)
	if !ok {
		response.Abort(c, http.StatusUnauthorized, response.KindUnauthenticated, "authentication required")
	}
	return id, ok
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.Error(c, apperror.BadRequest("invalid id %q", c.Param("id")))
		return 0, false
	}
	return uint(id), true
}

// dateQuery reads the required startDate and endDate query parameters.
func dateQuery(c *gin.Context) (time.Time, time.Time, bool) {
	start, err := dto.ParseDate(c.Query("startDate"))
	if err != nil {
		response.Error(c, err)
		return time.Time{}, time.Time{}, false
	}
	end, err := dto.ParseDate(c.Query("endDate"))
	if err != nil {
		response.Error(c, err)
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
