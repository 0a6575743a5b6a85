package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hitoshi/taskman/internal/auth"
	"github.com/hitoshi/taskman/internal/config"
	"github.com/hitoshi/taskman/internal/database"
	"github.com/hitoshi/taskman/internal/handler"
	"github.com/hitoshi/taskman/internal/logger"
	"github.com/hitoshi/taskman/internal/metrics"
	"github.com/hitoshi/taskman/internal/middleware"
	"github.com/hitoshi/taskman/internal/notify"
	"github.com/hitoshi/taskman/internal/repository"
	"github.com/hitoshi/taskman/internal/security"
	"github.com/hitoshi/taskman/internal/task"
)

// connectTimeout は起動時のデータストア接続確認のタイムアウト。
const connectTimeout = 10 * time.Second

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
		slog.String("store", storeKind(cfg)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case CommandMigrate:
		return runMigrate(ctx, cfg)
	default:
		return runServe(ctx, cfg)
	}
}

// stores はリポジトリとその接続のライフサイクルをまとめたもの。
type stores struct {
	users  repository.UserRepository
	tasks  repository.TaskRepository
	health handler.HealthChecker
	close  func()
}

// openStores はDATABASE_URLに応じてPostgreSQLまたはMongoDBに接続し、リポジトリを構築する。
// スキーマ（マイグレーションまたはインデックス）もここで適用する。
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.UsesMongo() {
		client, db, err := database.OpenMongo(ctx, cfg.DatabaseURL, cfg.DatabaseName, connectTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		closeFn := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(ctx); err != nil {
				slog.Error("failed to disconnect mongodb", slog.String("error", err.Error()))
			}
		}
		if err := database.EnsureMongoIndexes(ctx, db); err != nil {
			closeFn()
			return nil, fmt.Errorf("failed to ensure mongodb indexes: %w", err)
		}
		slog.Info("mongodb connection established", slog.String("database", cfg.DatabaseName))
		return &stores{
			users:  repository.NewMongoUserRepo(db),
			tasks:  repository.NewMongoTaskRepo(db),
			health: database.MongoPinger{Client: client},
			close:  closeFn,
		}, nil
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := database.Ping(ctx, db, connectTimeout); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	slog.Info("database connection established")
	return &stores{
		users:  repository.NewPostgresUserRepo(db),
		tasks:  repository.NewPostgresTaskRepo(db),
		health: db,
		close:  func() { db.Close() },
	}, nil
}

// newRouter は全依存関係をワイヤリングしたHTTPハンドラーを返す。
// 返り値のstop関数でバックグラウンド処理を停止する。
func newRouter(ctx context.Context, cfg *config.Config, st *stores) (http.Handler, func(), error) {
	// 1. メトリクス
	reg := metrics.NewRegistry()
	collector := metrics.NewCollector(reg)

	// 2. 認証
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	verifier, err := auth.NewGoogleIDTokenVerifier(ctx, cfg.GoogleClientID, security.NewOutboundClient(cfg.OutboundTimeout))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create id token verifier: %w", err)
	}
	authService := auth.NewService(st.users, auth.NewBcryptHasher(cfg.BcryptCost), tokens, verifier, collector)
	guard := auth.NewGuard(tokens, st.users)

	// 3. タスクと共有
	taskService := task.NewService(st.tasks, security.NewMarkupGuard(), collector)
	mailer := notify.NewMailer(notify.Config{
		Sender:   cfg.MailSender,
		Username: cfg.MailUsername,
		Password: cfg.MailPassword,
		Host:     cfg.MailSMTPHost,
		Port:     cfg.MailSMTPPort,
		Timeout:  cfg.MailTimeout,
	}, collector)
	if !cfg.MailEnabled() {
		slog.Warn("mail sender is not configured; share_task will report delivery failure")
	}

	// 4. ルーター
	rateLimiter := middleware.NewRateLimiter(
		middleware.RateLimiterConfigPerMinute(cfg.RateLimitGeneral, cfg.RateLimitAuth),
	)

	router := handler.NewRouter(&handler.RouterDeps{
		Authenticator:      guard,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		TrustedProxies:     cfg.TrustedProxies,
		RateLimiter:        rateLimiter,
		Logger:             slog.Default(),
		Metrics:            collector,
		MetricsHandler:     metrics.Handler(reg),
		HealthChecker:      st.health,

		AuthService: authService,
		TaskService: handler.NewTaskServiceAdapter(taskService),
		TaskSharer:  mailer,
	})

	return router, rateLimiter.Stop, nil
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// ctxがキャンセルされる（SIGINTまたはSIGTERM）とグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	router, stopBackground, err := newRouter(ctx, cfg, st)
	if err != nil {
		return err
	}
	defer stopBackground()

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はスキーマを適用する。
// PostgreSQLでは未適用マイグレーションを順番に適用し、MongoDBではインデックスを作成する。
func runMigrate(ctx context.Context, cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if cfg.UsesMongo() {
		client, db, err := database.OpenMongo(ctx, cfg.DatabaseURL, cfg.DatabaseName, connectTimeout)
		if err != nil {
			return fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		defer client.Disconnect(context.Background())

		if err := database.EnsureMongoIndexes(ctx, db); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	} else if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
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

// storeKind はログ出力用のデータストア種別を返す。
func storeKind(cfg *config.Config) string {
	if cfg.UsesMongo() {
		return "mongodb"
	}
	return "postgres"
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	if u.User != nil {
		u.User = url.User("***")
	}
	u.RawQuery = ""
	return u.String()
}
