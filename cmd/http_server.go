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

	"github.com/danutirta/menu-access/internal"
	"github.com/danutirta/menu-access/internal/auth"
	"github.com/danutirta/menu-access/internal/core/events"
	"github.com/danutirta/menu-access/internal/menu"
	menuPostgres "github.com/danutirta/menu-access/internal/menu/postgres"
	"github.com/danutirta/menu-access/internal/permission"
	permissionPostgres "github.com/danutirta/menu-access/internal/permission/postgres"
	"github.com/danutirta/menu-access/internal/transport/rest"
	"github.com/danutirta/menu-access/internal/user"
	userPostgres "github.com/danutirta/menu-access/internal/user/postgres"
	"github.com/danutirta/menu-access/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
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
	Config            *internal.Config
	DB                *sqlx.DB
	GormDB            *gorm.DB
	Router            *chi.Mux
	Logger            *slog.Logger
	EventBus          *events.EventBus
	IdentityMW        *auth.Middleware
	MenuHandler       *menu.Handler
	PermissionHandler *permission.Handler
	UserHandler       *user.Handler
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

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

func setupRoutes(deps *Dependencies) {
	rest.RegisterAllRoutes(
		deps.Router,
		deps.DB.DB,
		deps.IdentityMW,
		deps.MenuHandler,
		deps.PermissionHandler,
		deps.UserHandler,
		deps.Config.Server.AllowedOrigins,
		deps.Logger,
	)
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"), config.Observability.Logging.Level)
	appLogger := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// gorm rides on the same pgx connection pool
	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{
		Conn: db.DB,
	}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	eventBus := events.NewEventBus(appLogger)
	registerAuditSubscribers(eventBus, appLogger)

	menuRepo := menuPostgres.NewMenuRepository(gormDB)
	permissionRepo := permissionPostgres.NewPermissionRepository(gormDB)
	userRepo := userPostgres.NewUserRepository(gormDB)

	menuService := menu.NewService(menuRepo, eventBus, appLogger)
	permissionService := permission.NewService(permissionRepo, menuRepo, eventBus, appLogger)
	userHandler := user.NewHandler(userRepo)

	menuHandler := menu.NewHandler(menuService, permissionService)
	permissionHandler := permission.NewHandler(permissionService)

	identityMW := auth.NewMiddleware([]byte(config.Security.JWTSecret), appLogger)

	return &Dependencies{
		Config:            config,
		Logger:            appLogger,
		DB:                db,
		GormDB:            gormDB,
		Router:            chi.NewRouter(),
		EventBus:          eventBus,
		IdentityMW:        identityMW,
		MenuHandler:       menuHandler,
		PermissionHandler: permissionHandler,
		UserHandler:       userHandler,
	}, nil
}

// registerAuditSubscribers logs every grant, revoke and subtree removal so
// permission changes stay traceable.
func registerAuditSubscribers(bus *events.EventBus, log *slog.Logger) {
	bus.Subscribe(events.TypePermissionGranted, func(ctx context.Context, e events.Event) error {
		log.Info("audit: permission granted", "event_id", e.EventID(), "data", e.Payload())
		return nil
	})
	bus.Subscribe(events.TypePermissionRevoked, func(ctx context.Context, e events.Event) error {
		log.Info("audit: permission revoked", "event_id", e.EventID(), "data", e.Payload())
		return nil
	})
	bus.Subscribe(events.TypeMenuDeleted, func(ctx context.Context, e events.Event) error {
		log.Info("audit: menu subtree deleted", "event_id", e.EventID(), "data", e.Payload())
		return nil
	})
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

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
