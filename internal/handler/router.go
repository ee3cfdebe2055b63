package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/blogman/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionChecker    middleware.SessionChecker
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// 認証
	AuthService    AuthServiceInterface
	SessionSource  SessionSource
	CaptureStarter CaptureStarter

	// 記事
	PostService PostServiceInterface
	PostConfig  PostHandlerConfig

	// 画像プロキシ
	ImageHandler *ImageHandler

	// 運用
	MetricsHandler http.Handler
	Ready          <-chan struct{} // 起動時セッション復元の完了通知。nil可
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORSMiddleware → SecurityHeadersMiddleware → LoggingMiddleware → RecoveryMiddleware
//
// 認証が必要なルートにはさらに Session → RateLimit(General) を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルート共通のミドルウェア
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewRecoveryMiddleware())

	authHandler := NewAuthHandler(deps.AuthService, deps.SessionSource, deps.CaptureStarter)
	postHandler := NewPostHandler(deps.PostService, deps.SessionSource, deps.PostConfig)

	// --- 認証不要のルート ---

	// ヘルスチェック。起動時のセッション復元が終わるまでは503を返す。
	r.Get("/health", newHealthHandler(deps.Ready))

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// ページ表示（OAuthフローの戻り先）
	r.Get("/login", authHandler.LoginPage)
	r.Get("/signup", authHandler.SignupPage)

	// OAuthフロー開始
	r.Get("/auth/oauth/google", authHandler.OAuthLogin)

	// アカウント作成・ログイン・パスワード再設定
	r.Post("/api/auth/signup", authHandler.SignUp)
	r.Post("/api/auth/login", authHandler.Login)
	r.Post("/api/auth/recovery", authHandler.SendRecovery)
	r.Put("/api/auth/recovery", authHandler.ConfirmRecovery)

	// 公開中の記事一覧と記事詳細は未ログインでも閲覧できる
	r.Get("/api/posts", postHandler.ListPosts)
	r.Get("/api/posts/{slug}", postHandler.GetPost)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionChecker))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// セッション・アカウント管理
		r.Post("/api/auth/logout", authHandler.Logout)
		r.Get("/api/auth/me", authHandler.Me)
		r.Put("/api/auth/name", authHandler.UpdateName)
		r.Get("/api/auth/prefs", authHandler.GetPreferences)
		r.Put("/api/auth/prefs", authHandler.UpdatePreferences)
		r.Put("/api/auth/password", authHandler.UpdatePassword)

		// 記事管理
		// POST /api/posts - 記事投稿（投稿専用レート制限を追加）
		r.With(deps.RateLimiter.PublishMiddleware()).Post("/api/posts", postHandler.CreatePost)
		r.Patch("/api/posts/{slug}", postHandler.UpdatePost)
		r.Delete("/api/posts/{slug}", postHandler.DeletePost)

		// アイキャッチ画像のプロキシ配信
		if deps.ImageHandler != nil {
			r.Get("/api/files/{id}/view", deps.ImageHandler.ViewFile)
		}
	})

	return r
}

// newHealthHandler はヘルスチェックハンドラーを返す。
// readyがnilの場合は常に200を返す。
func newHealthHandler(ready <-chan struct{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			select {
			case <-ready:
			default:
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "starting"})
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
