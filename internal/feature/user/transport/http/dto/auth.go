package dto

import "fintrack_backend/internal/feature/user/usecase"

// LoginReq is the body of POST /api/auth/login.
type LoginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshReq carries a refresh token for /api/auth/refresh and /api/auth/logout.
type RefreshReq struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// TokenRes is returned by login and refresh.
type TokenRes struct {
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken"`
	TokenType    string  `json:"tokenType"`
	ExpiresIn    int64   `json:"expiresIn"`
	User         UserRes `json:"user"`
}

// FromTokenPair builds the response of a token pair.
func FromTokenPair(p *usecase.TokenPair) TokenRes {
	return TokenRes{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    p.TokenType,
		ExpiresIn:    p.ExpiresIn,
		User:         FromUser(p.User),
	}
}
