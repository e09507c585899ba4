package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"fintrack_backend/internal/feature/user/domain/entity"
)

const (
	// maxSessionsPerUser はユーザーごとの同時リフレッシュセッション数の上限です。
	maxSessionsPerUser = 5
	// refreshTokenBytes はリフレッシュトークンのバイト長です（hexで64文字）。
	refreshTokenBytes = 32
	// DefaultRefreshTTL はリフレッシュトークンの有効期間です。
	DefaultRefreshTTL = 7 * 24 * time.Hour

	// dummyHash はユーザーが存在しない場合にもbcrypt比較を行うためのハッシュです。
	dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
)

// AuthUserRepository は認証に必要なユーザーリポジトリの部分集合です。
type AuthUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, id uint) (*entity.User, error)
}

// JWTGenerator はJWTトークン生成のインターフェースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（platform/jwt）ではなくコンシューマー（usecase）が定義します。
type JWTGenerator interface {
	// GenerateToken は指定されたユーザーの署名済みJWTトークンを生成します。
	GenerateToken(userID uint, email, role string) (string, error)
	// Expiration は生成されるトークンの有効期間を返します。
	Expiration() time.Duration
}

// ClientMeta は認証情報を提示したクライアントの情報です。
type ClientMeta struct {
	UserAgent string
	IPAddress string
}

// TokenPair はログインまたはリフレッシュ成功時の結果です。
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int64
	User         *entity.User
}

// AuthUsecase は認証ビジネスロジックを実装します。
type AuthUsecase struct {
	users        AuthUserRepository
	jwtGenerator JWTGenerator
	sessions     SessionRepository
	refreshTTL   time.Duration
	now          func() time.Time
}

// NewAuthUsecase はAuthUsecaseの新しいインスタンスを生成します。
func NewAuthUsecase(users AuthUserRepository, jwtGenerator JWTGenerator, sessions SessionRepository, refreshTTL time.Duration) *AuthUsecase {
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &AuthUsecase{
		users:        users,
		jwtGenerator: jwtGenerator,
		sessions:     sessions,
		refreshTTL:   refreshTTL,
		now:          time.Now,
	}
}

// Login はユーザーを認証し、成功時にアクセストークンとリフレッシュトークンを返します。
// 未登録・無効化済み・パスワード不一致はすべてErrInvalidCredentialsになります。
// タイミング攻撃を防止するため、ユーザーが存在しない場合でもbcrypt比較を実行します。
func (u *AuthUsecase) Login(ctx context.Context, email, password string, meta ClientMeta) (*TokenPair, error) {
	user, err := u.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	passwordHash := dummyHash
	if user != nil {
		passwordHash = user.Password
	}
	compareErr := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password))

	if user == nil || compareErr != nil || !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	return u.issue(ctx, user, meta)
}

// Refresh は有効なリフレッシュトークンを新しいトークンペアと交換し、古いセッションを失効させます。
func (u *AuthUsecase) Refresh(ctx context.Context, refreshToken string, meta ClientMeta) (*TokenPair, error) {
	session, err := u.sessions.FindByID(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	if !session.IsValidAt(u.now()) {
		return nil, ErrInvalidRefreshToken
	}

	user, err := u.users.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidRefreshToken
	}

	if err := u.sessions.Revoke(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("failed to revoke session: %w", err)
	}
	return u.issue(ctx, user, meta)
}

// Logout はrefreshTokenのセッションを失効させます。未知のトークンは無視します。
func (u *AuthUsecase) Logout(ctx context.Context, refreshToken string) error {
	if err := u.sessions.Revoke(ctx, refreshToken); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	return nil
}

// issue はセッションを作成し（上限を超えた場合は最も古いものを削除）、アクセストークンに署名します。
func (u *AuthUsecase) issue(ctx context.Context, user *entity.User, meta ClientMeta) (*TokenPair, error) {
	count, err := u.sessions.CountByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if count >= maxSessionsPerUser {
		if err := u.sessions.DeleteOldestByUserID(ctx, user.ID); err != nil {
			return nil, err
		}
	}

	refreshToken, err := generateRefreshToken()
	if err != nil {
		return nil, err
	}
	now := u.now()
	session := &entity.Session{
		ID:        refreshToken,
		UserID:    user.ID,
		UserAgent: meta.UserAgent,
		IPAddress: meta.IPAddress,
		CreatedAt: now,
		ExpiresAt: now.Add(u.refreshTTL),
	}
	if err := u.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	token, err := u.jwtGenerator.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &TokenPair{
		AccessToken:  token,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(u.jwtGenerator.Expiration().Seconds()),
		User:         user,
	}, nil
}

func generateRefreshToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
