// Package handler serves the user and authentication HTTP API.
package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fintrack_backend/internal/feature/user/domain/entity"
	"fintrack_backend/internal/feature/user/transport/http/dto"
	"fintrack_backend/internal/feature/user/usecase"
	"fintrack_backend/internal/platform/http/response"
	jwtmw "fintrack_backend/internal/platform/jwt"
	"fintrack_backend/internal/shared/apperror"
)

// UserUsecase defines the user directory operations.
// Following Go convention, the consumer (handler) defines the interface, not the provider (usecase).
type UserUsecase interface {
	CreateUser(ctx context.Context, actorID uint, in usecase.CreateUserInput) (*entity.User, error)
	GetUser(ctx context.Context, actorID, id uint) (*entity.User, error)
	ListUsers(ctx context.Context, actorID uint, filter usecase.UserFilter) ([]entity.User, error)
	Update(ctx context.Context, actorID, id uint, in usecase.UpdateUserInput) (*entity.User, error)
	Delete(ctx context.Context, actorID, id uint) error
	Deactivate(ctx context.Context, actorID, id uint) error
}

// UserHandler serves requests under /api/users.
type UserHandler struct {
	users UserUsecase
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users UserUsecase) *UserHandler {
	return &UserHandler{users: users}
}

// Create handles POST /api/users.
func (h *UserHandler) Create(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	var req dto.CreateUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		zap.L().Warn("create user validation failed", zap.Error(err), zap.String("remote_addr", c.ClientIP()))
		response.BindError(c, err)
		return
	}
	user, err := h.users.CreateUser(c.Request.Context(), actorID, req.ToInput())
	if err != nil {
		response.Error(c, err)
		return
	}
	zap.L().Info("user created", zap.Uint("user_id", user.ID), zap.Uint("actor_id", actorID))
	response.OK(c, http.StatusCreated, "User created successfully", dto.FromUser(user))
}

// Get handles GET /api/users/:id.
func (h *UserHandler) Get(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	user, err := h.users.GetUser(c.Request.Context(), actorID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "User retrieved successfully", dto.FromUser(user))
}

// List handles GET /api/users.
func (h *UserHandler) List(c *gin.Context) {
	h.list(c, usecase.UserFilter{})
}

// ListByRole handles GET /api/users/role/:role.
func (h *UserHandler) ListByRole(c *gin.Context) {
	role, ok := entity.ParseRole(c.Param("role"))
	if !ok {
		response.Error(c, apperror.BadRequest("unknown role %q", c.Param("role")))
		return
	}
	h.list(c, usecase.UserFilter{Role: &role})
}

// ListByStatus handles GET /api/users/status/:active.
func (h *UserHandler) ListByStatus(c *gin.Context) {
	active, err := strconv.ParseBool(c.Param("active"))
	if err != nil {
		response.Error(c, apperror.BadRequest("active must be true or false"))
		return
	}
	h.list(c, usecase.UserFilter{IsActive: &active})
}

func (h *UserHandler) list(c *gin.Context, filter usecase.UserFilter) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	users, err := h.users.ListUsers(c.Request.Context(), actorID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "Users retrieved successfully", dto.FromUsers(users))
}

// Update handles PUT /api/users/:id.
func (h *UserHandler) Update(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	in, err := req.ToInput()
	if err != nil {
		response.Error(c, err)
		return
	}
	user, err := h.users.Update(c.Request.Context(), actorID, id, in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "User updated successfully", dto.FromUser(user))
}

// Delete handles DELETE /api/users/:id.
func (h *UserHandler) Delete(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), actorID, id); err != nil {
		response.Error(c, err)
		return
	}
	zap.L().Info("user deleted", zap.Uint("user_id", id), zap.Uint("actor_id", actorID))
	response.OK(c, http.StatusOK, "User deleted successfully", nil)
}

// Deactivate handles PATCH /api/users/:id/deactivate.
func (h *UserHandler) Deactivate(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.users.Deactivate(c.Request.Context(), actorID, id); err != nil {
		response.Error(c, err)
		return
	}
	zap.L().Info("user deactivated", zap.Uint("user_id", id), zap.Uint("actor_id", actorID))
	response.OK(c, http.StatusOK, "User deactivated successfully", nil)
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
