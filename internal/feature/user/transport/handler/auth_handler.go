package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fintrack_backend/internal/feature/user/transport/http/dto"
	"fintrack_backend/internal/feature/user/usecase"
	"fintrack_backend/internal/platform/http/response"
)

// AuthUsecase は認証操作のユースケースを定義します。
type AuthUsecase interface {
	// Login はユーザーを認証し、成功時にトークンペアを返します。
	Login(ctx context.Context, email, password string, meta usecase.ClientMeta) (*usecase.TokenPair, error)
	// Refresh はリフレッシュトークンを新しいトークンペアと交換します。
	Refresh(ctx context.Context, refreshToken string, meta usecase.ClientMeta) (*usecase.TokenPair, error)
	// Logout はリフレッシュトークンのセッションを失効させます。
	Logout(ctx context.Context, refreshToken string) error
}

// AuthHandler は認証操作のHTTPリクエストを処理します。
type AuthHandler struct {
	auth AuthUsecase
}

// NewAuthHandler はAuthHandlerの新しいインスタンスを生成します。
func NewAuthHandler(auth AuthUsecase) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login はユーザーログインAPIエンドポイントを処理します。
// - バリデーションエラー時は400を返却
// - 認証失敗時は401を返却（未登録・無効化・パスワード不一致を区別しない）
// - 認証成功時はトークンペア付きで200を返却
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		zap.L().Warn("login validation failed", zap.Error(err), zap.String("remote_addr", c.ClientIP()))
		response.BindError(c, err)
		return
	}
	pair, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, clientMeta(c))
	if err != nil {
		zap.L().Warn("login failed", zap.Error(err), zap.String("email", req.Email), zap.String("remote_addr", c.ClientIP()))
		response.Error(c, err)
		return
	}
	zap.L().Info("user login successful", zap.Uint("user_id", pair.User.ID), zap.String("remote_addr", c.ClientIP()))
	response.OK(c, http.StatusOK, "Login successful", dto.FromTokenPair(pair))
}

// Refresh は POST /api/auth/refresh を処理します。
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	pair, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken, clientMeta(c))
	if err != nil {
		zap.L().Warn("token refresh failed", zap.Error(err), zap.String("remote_addr", c.ClientIP()))
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "Token refreshed", dto.FromTokenPair(pair))
}

// Logout は POST /api/auth/logout を処理します。
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.RefreshReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	if err := h.auth.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "Logged out", nil)
}

// maxUserAgentLength はセッションの user_agent カラム長に合わせます。
const maxUserAgentLength = 512

func clientMeta(c *gin.Context) usecase.ClientMeta {
	ua := c.Request.UserAgent()
	if len(ua) > maxUserAgentLength {
		ua = ua[:maxUserAgentLength]
	}
	return usecase.ClientMeta{UserAgent: ua, IPAddress: c.ClientIP()}
}
