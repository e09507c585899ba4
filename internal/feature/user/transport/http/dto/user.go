// Package dto defines the request and response bodies of the user HTTP API.
package dto

import (
	"time"

	"fintrack_backend/internal/feature/user/domain/entity"
	"fintrack_backend/internal/feature/user/usecase"
	"fintrack_backend/internal/shared/apperror"
	"fintrack_backend/internal/shared/optional"
)

// CreateUserReq is the body of POST /api/users.
type CreateUserReq struct {
	Email     string `json:"email" binding:"required,email,max=255"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Role      string `json:"role" binding:"required"`
}

// ToInput converts the request to a usecase input.
func (r CreateUserReq) ToInput() usecase.CreateUserInput {
	return usecase.CreateUserInput{
		Email:     r.Email,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Role:      entity.Role(r.Role),
	}
}

// UpdateUserReq is the body of PUT /api/users/:id.
// Omitted or null fields are left unchanged.
type UpdateUserReq struct {
	Email     optional.Value[string] `json:"email"`
	FirstName optional.Value[string] `json:"firstName"`
	LastName  optional.Value[string] `json:"lastName"`
	Role      optional.Value[string] `json:"role"`
	IsActive  optional.Value[bool]   `json:"isActive"`
}

// ToInput converts the request to a usecase input. An unknown role is a BadRequest.
func (r UpdateUserReq) ToInput() (usecase.UpdateUserInput, error) {
	role, err := optional.Map(r.Role, parseRole)
	if err != nil {
		return usecase.UpdateUserInput{}, err
	}
	return usecase.UpdateUserInput{
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Role:      role,
		IsActive:  r.IsActive,
	}, nil
}

func parseRole(s string) (entity.Role, error) {
	role, ok := entity.ParseRole(s)
	if !ok {
		return "", apperror.BadRequest("unknown role %q", s)
	}
	return role, nil
}

// UserRes is the external projection of a user. The password hash is never included.
type UserRes struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromUser builds the projection of u.
func FromUser(u *entity.User) UserRes {
	return UserRes{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// FromUsers builds projections for a slice, never returning nil.
func FromUsers(users []entity.User) []UserRes {
	out := make([]UserRes, 0, len(users))
	for i := range users {
		out = append(out, FromUser(&users[i]))
	}
	return out
}
