package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/auth"
	"github.com/frahmantamala/user-management/internal/core/database"
	"github.com/frahmantamala/user-management/internal/credentials"
	"github.com/frahmantamala/user-management/internal/notify"
	"github.com/frahmantamala/user-management/internal/passwordchange"
	passwordchangePostgres "github.com/frahmantamala/user-management/internal/passwordchange/postgres"
	"github.com/frahmantamala/user-management/internal/rbac"
	rbacPostgres "github.com/frahmantamala/user-management/internal/rbac/postgres"
	"github.com/frahmantamala/user-management/internal/session"
	sessionRedis "github.com/frahmantamala/user-management/internal/session/redis"
	"github.com/frahmantamala/user-management/internal/token"
	tokenPostgres "github.com/frahmantamala/user-management/internal/token/postgres"
	"github.com/frahmantamala/user-management/internal/transport/rest"
	"github.com/frahmantamala/user-management/internal/user"
	userPostgres "github.com/frahmantamala/user-management/internal/user/postgres"
	"github.com/frahmantamala/user-management/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Observability.Logging.Format, config.Observability.Logging.Level)
	log := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm connection: %w", err)
	}

	tx := database.NewTransactor(gormDB)
	hasher := credentials.NewStore(config.Auth.BCryptCost)

	userRepo := userPostgres.NewUserRepository(gormDB)
	rbacRepo := rbacPostgres.NewRBACRepository(gormDB)
	tokenRepo := tokenPostgres.NewTokenRepository(gormDB)
	changeRepo := passwordchangePostgres.NewPasswordChangeRepository(gormDB)

	defaultRole, err := rbacRepo.GetRoleByName(context.Background(), config.Auth.DefaultRoleName)
	if err != nil {
		return nil, fmt.Errorf("failed to look up default role: %w", err)
	}
	if defaultRole == nil {
		return nil, fmt.Errorf("default role %q does not exist, run the seed command first", config.Auth.DefaultRoleName)
	}

	rbacService := rbac.NewService(rbacRepo, tx, log, defaultRole.ID)
	directory := user.NewDirectory(userRepo, rbacRepo, hasher, tx, log, defaultRole.ID, config.Auth.DefaultVisibility)
	ledger := token.NewLedger(tokenRepo, tx, log, config.Auth.VerificationTokenTTL, config.Auth.ResetTokenTTL)
	changeService := passwordchange.NewService(changeRepo, hasher, tx, log, config.Auth.MaxPasswordChanges, config.Auth.PasswordChangeWindow)
	mailer := notify.NewMailer(config.Mail, log)

	sessionStore, err := initSessionStore(config.Session)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}

	// The auth facade is bound to the caller's session, so the handler
	// builds one per request.
	newFacade := func(sessions auth.SessionAPI) *auth.Service {
		return auth.NewService(
			userRepo, changeRepo, rbacRepo, ledger, sessions, mailer,
			hasher, tx, log,
			defaultRole.ID, config.Auth.DefaultVisibility, config.Session.TTL,
		)
	}

	authHandler := auth.NewHandler(log, newFacade, config.Session.TTL)
	userHandler := user.NewHandler(log, directory)
	rbacHandler := rbac.NewHandler(log, rbacService)
	passwordHandler := passwordchange.NewHandler(log, changeService)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(
		router, db, sessionStore, config.Session.TTL,
		authHandler, userHandler, rbacHandler, rbacService, passwordHandler,
		log,
	)

	return &Dependencies{
		Config: config,
		Logger: log,
		DB:     db,
		Router: router,
	}, nil
}

func initSessionStore(cfg internal.SessionConfig) (session.Store, error) {
	if cfg.Backend == "redis" {
		client := goredis.NewClient(&goredis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		return sessionRedis.NewStore(client), nil
	}
	return session.NewMemoryStore(), nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
