package handler

import (
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/taskman/internal/metrics"
	"github.com/hitoshi/taskman/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Authenticator      middleware.Authenticator
	CORSAllowedOrigins []string
	TrustedProxies     []netip.Prefix
	RateLimiter        *middleware.RateLimiter
	Logger             *slog.Logger
	Metrics            metrics.MetricsCollector
	MetricsHandler     http.Handler
	HealthChecker      HealthChecker

	// 認証
	AuthService AuthServiceInterface

	// タスク
	TaskService TaskServiceInterface
	TaskSharer  TaskSharer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → ClientIP → CORS → SecurityHeaders → Logging → Metrics → Recovery
//
// ClientIPはTrustedProxiesからの接続に限りX-Forwarded-Forを参照する。
// 登録・ログインはクライアントIP単位、それ以外の認証済みルートは
// Auth → RateLimit(General) の順でユーザー単位のレート制限を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mc := deps.Metrics
	if mc == nil {
		mc = metrics.Nop{}
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(middleware.NewClientIPMiddleware(deps.TrustedProxies))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(mc))
	r.Use(middleware.NewRecoveryMiddleware())

	authHandler := NewAuthHandler(deps.AuthService)
	taskHandler := NewTaskHandler(deps.TaskService)
	shareHandler := NewShareHandler(deps.TaskSharer)

	// --- 認証不要のルート ---

	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.AuthMiddleware())

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/google-login", authHandler.GoogleLogin)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.Authenticator))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/profile", authHandler.Profile)

		r.Get("/tasks", taskHandler.ListTasks)
		r.Post("/tasks", taskHandler.CreateTask)
		r.Put("/update_task/{id}", taskHandler.UpdateTask)
		r.Delete("/delete_task/{id}", taskHandler.DeleteTask)

		r.Post("/share_task", shareHandler.ShareTask)
	})

	return r
}
