package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/checkmate/internal/middleware"
	"github.com/hitoshi/checkmate/internal/model"
)

// HealthChecker はヘルスチェックで疎通確認する依存のインターフェース。
// *sql.DB がこれを満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	HealthChecker     HealthChecker
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig
	Logger            *slog.Logger
	LatencyRecorder   middleware.LatencyRecorder

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig
	AuthMetrics LoginMetricsRecorder

	// タスク
	TaskService TaskServiceInterface

	// プロフィール
	ProfileService ProfileServiceInterface

	// レポート
	ReportService ReportServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → CORS → CSRF
//	→ (認証ルートのみ) AuthRateLimit
//	→ (APIルートのみ) Session → RateLimit(General)
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.LatencyRecorder))
	}
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthMetrics, deps.AuthConfig)
	taskHandler := NewTaskHandler(deps.TaskService)
	profileHandler := NewProfileHandler(deps.ProfileService)
	reportHandler := NewReportHandler(deps.ReportService)

	// --- 認証不要のルート ---

	// ヘルスチェック（DB疎通を含む）
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if deps.HealthChecker != nil {
			if err := deps.HealthChecker.PingContext(r.Context()); err != nil {
				writeAPIErrorResponse(w, http.StatusServiceUnavailable,
					&model.APIError{
						Code:     "HEALTH_CHECK_FAILED",
						Message:  "データベースに接続できません。",
						Category: "system",
						Action:   "しばらく待ってから再度お試しください。",
					})
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// CSRFトークン取得
	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	// 認証ルート（ログイン・登録はIP単位のレート制限を追加）
	r.Route("/auth", func(r chi.Router) {
		r.With(deps.RateLimiter.AuthMiddleware()).Post("/register", authHandler.Register)
		r.With(deps.RateLimiter.AuthMiddleware()).Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// タスク管理
		r.Route("/api/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.ListTasks)
			r.Post("/", taskHandler.AddTask)

			// 固定パスはパラメータルートより先に定義する
			r.Delete("/completed", taskHandler.DeleteCompleted)
			r.Post("/toggle-all", taskHandler.ToggleAll)

			r.Route("/{id}", func(r chi.Router) {
				r.Post("/toggle", taskHandler.ToggleTask)
				r.Delete("/", taskHandler.DeleteTask)
			})
		})

		// プロフィール管理
		r.Route("/api/profile", func(r chi.Router) {
			r.Get("/", profileHandler.GetProfile)
			r.Patch("/", profileHandler.UpdateProfile)
			r.Get("/photo", profileHandler.GetPhoto)
		})

		// 週次レポート
		r.Route("/api/reports", func(r chi.Router) {
			r.Get("/weekly", reportHandler.Weekly)
			r.Put("/weekly/note", reportHandler.SaveNote)
		})
	})

	return r
}
