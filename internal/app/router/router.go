// Package router builds the gin engine and its route table.
package router

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	audithandler "fintrack_backend/internal/feature/audit/transport/handler"
	ledgerhandler "fintrack_backend/internal/feature/ledger/transport/handler"
	userentity "fintrack_backend/internal/feature/user/domain/entity"
	userhandler "fintrack_backend/internal/feature/user/transport/handler"
	platformhandler "fintrack_backend/internal/platform/http/handler"
	"fintrack_backend/internal/platform/http/middleware"
	jwtmw "fintrack_backend/internal/platform/jwt"
	"fintrack_backend/internal/shared/ratelimiter"
)

// EnvKeyCORSAllowedOrigins holds a comma-separated CORS allow list.
const EnvKeyCORSAllowedOrigins = "CORS_ALLOWED_ORIGINS"

// Handlers groups the HTTP handlers mounted by NewRouter.
type Handlers struct {
	Health       *platformhandler.HealthHandler
	Auth         *userhandler.AuthHandler
	Users        *userhandler.UserHandler
	Transactions *ledgerhandler.TransactionHandler
	Audit        *audithandler.AuditHandler
}

// Config holds router-level settings.
type Config struct {
	// AllowedOrigins is the CORS allow list. Empty allows every origin.
	AllowedOrigins []string
	// LoginLimiter throttles POST /api/auth/login per client address.
	LoginLimiter ratelimiter.RateLimiterInterface
	Logger       *zap.Logger
}

// AllowedOriginsFromEnv reads CORS_ALLOWED_ORIGINS, dropping empty entries.
func AllowedOriginsFromEnv() []string {
	var origins []string
	for _, o := range strings.Split(os.Getenv(EnvKeyCORSAllowedOrigins), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

var (
	admin     = string(userentity.RoleAdmin)
	manager   = string(userentity.RoleManager)
	comptable = string(userentity.RoleComptable)
)

// NewRouter returns the engine serving /healthz and the /api surface.
func NewRouter(cfg Config, h Handlers) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.L()
	}
	limiter := cfg.LoginLimiter
	if limiter == nil {
		limiter = ratelimiter.NewRateLimiter(10, time.Minute)
	}

	r := gin.New()
	r.Use(gin.Recovery(), corsMiddleware(cfg.AllowedOrigins), middleware.RequestID(), middleware.Logger(log))

	// public
	// liveness
	r.GET("/healthz", h.Health.Health)
	r.HEAD("/healthz", h.Health.Health)
	r.OPTIONS("/healthz", h.Health.Health)

	api := r.Group("/api", audithandler.SourceAddress())

	authGroup := api.Group("/auth")
	{
		// login (issues a JWT)
		authGroup.POST("/login", middleware.RateLimit(limiter), h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.POST("/logout", h.Auth.Logout)
	}

	// authenticated routes
	secured := api.Group("", jwtmw.AuthRequired())

	reviewers := jwtmw.RequireRoles(manager, admin)
	adminOnly := jwtmw.RequireRoles(admin)

	tx := secured.Group("/transactions")
	{
		tx.POST("", jwtmw.RequireRoles(comptable, manager, admin), h.Transactions.Create)
		tx.GET("", h.Transactions.List)
		tx.GET("/my-transactions", h.Transactions.ListMine)
		tx.GET("/status/:status", h.Transactions.ListByStatus)
		tx.GET("/type/:type", h.Transactions.ListByType)
		tx.GET("/category/:category", h.Transactions.ListByCategory)
		tx.GET("/date-range", h.Transactions.ListByDateRange)
		tx.GET("/summary", reviewers, h.Transactions.Summary)
		tx.GET("/suspicious", reviewers, h.Transactions.Suspicious)
		tx.GET("/:id", h.Transactions.Get)
		// the usecase decides between creator and ADMIN
		tx.PUT("/:id", h.Transactions.Update)
		tx.DELETE("/:id", adminOnly, h.Transactions.Delete)
		tx.PATCH("/:id/validate", reviewers, h.Transactions.Validate)
		tx.PATCH("/:id/reject", reviewers, h.Transactions.Reject)
		tx.PATCH("/:id/finalize", adminOnly, h.Transactions.Finalize)
	}

	users := secured.Group("/users")
	{
		users.GET("", reviewers, h.Users.List)
		users.GET("/role/:role", reviewers, h.Users.ListByRole)
		users.GET("/status/:active", reviewers, h.Users.ListByStatus)
		users.GET("/:id", reviewers, h.Users.Get)
		users.POST("", adminOnly, h.Users.Create)
		users.PUT("/:id", adminOnly, h.Users.Update)
		users.DELETE("/:id", adminOnly, h.Users.Delete)
		users.PATCH("/:id/deactivate", adminOnly, h.Users.Deactivate)
	}

	logs := secured.Group("/audit-logs", adminOnly)
	{
		logs.GET("", h.Audit.Recent)
		logs.GET("/user/:id", h.Audit.ByUser)
		logs.GET("/entity/:type/:id", h.Audit.ByEntity)
		logs.GET("/action/:action", h.Audit.ByAction)
		logs.GET("/range", h.Audit.ByTimeRange)
	}

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return cors.Default()
	}
	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = origins
	cfg.AllowMethods = []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID}
	cfg.ExposeHeaders = []string{middleware.HeaderRequestID}
	cfg.MaxAge = 12 * time.Hour
	return cors.New(cfg)
}
