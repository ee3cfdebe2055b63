package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/blogman/internal/appwrite"
	"github.com/hitoshi/blogman/internal/auth"
	"github.com/hitoshi/blogman/internal/blog"
	"github.com/hitoshi/blogman/internal/config"
	"github.com/hitoshi/blogman/internal/handler"
	"github.com/hitoshi/blogman/internal/logger"
	"github.com/hitoshi/blogman/internal/metrics"
	"github.com/hitoshi/blogman/internal/middleware"
	"github.com/hitoshi/blogman/internal/security"
	"github.com/hitoshi/blogman/internal/store"
)

// bootstrapTimeout は起動時のセッション復元に許す最大時間。
const bootstrapTimeout = 15 * time.Second

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	return runServe(cfg)
}

// runServe はAPIサーバーモードで起動する。
// リモートプラットフォームのクライアントと全依存関係をワイヤリングし、
// 起動時のセッション復元をバックグラウンドで開始してからHTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 2. リモートプラットフォームクライアントの初期化
	client := appwrite.NewClient(appwrite.Config{
		Endpoint:      cfg.AppwriteEndpoint,
		ProjectID:     cfg.AppwriteProjectID,
		SessionSecret: cfg.AppwriteSession,
		Timeout:       cfg.RequestTimeout,
	}, slog.Default(), collector)

	account := appwrite.NewAccount(client)
	databases := appwrite.NewDatabases(client, cfg.AppwriteDatabaseID, cfg.AppwriteCollectionID)
	storage := appwrite.NewStorage(client, cfg.AppwriteBucketID)

	// 3. 状態ストアの初期化
	sessionStore := store.NewSessionStore(store.SessionState{})
	postStore := store.NewPostStore(store.PostState{})

	// 記事ストアの保持件数をゲージに反映する
	postStore.Subscribe(func(state store.PostState) {
		collector.SetCachedPosts(len(state.Posts))
	})

	// 4. セキュリティサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()

	// 5. ドメインサービスの初期化
	authService := auth.NewService(account, sessionStore, postStore, cfg.BaseURL, slog.Default())
	bootstrapper := auth.NewBootstrapper(account, sessionStore, slog.Default())
	capture := auth.NewCapture(account, sessionStore, slog.Default(), cfg.OAuthProbeDelay)

	blogService := blog.NewService(
		databases, storage, sessionStore, postStore,
		sanitizer, collector, slog.Default(),
	)

	// 6. 画像プロキシの構築
	imageHandler := handler.NewImageHandler(
		blogService, ssrfGuard,
		ssrfGuard.NewSafeClient(cfg.RequestTimeout),
		slog.Default(),
	)

	// 7. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitPublish),
	)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		SessionChecker:    sessionStore,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),

		AuthService:    authService,
		SessionSource:  sessionStore,
		CaptureStarter: capture,

		PostService: blogService,
		PostConfig: handler.PostHandlerConfig{
			MaxUploadSize: cfg.UploadMaxSize,
		},

		ImageHandler: imageHandler,

		MetricsHandler: metrics.Handler(registry),
		Ready:          bootstrapper.Ready(),
	}

	router := handler.NewRouter(deps)

	// 8. 起動時のセッション復元をバックグラウンドで開始する。
	// 完了までの間、/health は503を返す。
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), bootstrapTimeout)
		defer cancel()
		bootstrapper.Run(ctx)
	}()

	// 9. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
