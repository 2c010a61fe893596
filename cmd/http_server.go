package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/it-helpdesk/api"
	"github.com/frahmantamala/it-helpdesk/internal"
	"github.com/frahmantamala/it-helpdesk/internal/auth"
	authPostgres "github.com/frahmantamala/it-helpdesk/internal/auth/postgres"
	"github.com/frahmantamala/it-helpdesk/internal/core/events"
	"github.com/frahmantamala/it-helpdesk/internal/notification"
	"github.com/frahmantamala/it-helpdesk/internal/realtime"
	"github.com/frahmantamala/it-helpdesk/internal/ticket"
	ticketPostgres "github.com/frahmantamala/it-helpdesk/internal/ticket/postgres"
	"github.com/frahmantamala/it-helpdesk/internal/transport/middleware"
	"github.com/frahmantamala/it-helpdesk/internal/transport/rest"
	"github.com/frahmantamala/it-helpdesk/internal/user"
	userPostgres "github.com/frahmantamala/it-helpdesk/internal/user/postgres"
	"github.com/frahmantamala/it-helpdesk/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests and WebSocket refresh connections`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config     *internal.Config
	DB         *sqlx.DB
	Gorm       *gorm.DB
	Router     *chi.Mux
	EventBus   *events.EventBus
	Dispatcher *notification.Dispatcher
	Hub        *realtime.Hub
	Logger     *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// open sockets would otherwise hold Shutdown until the deadline
		deps.Hub.Stop()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		deps.EventBus.Wait()
		if err := deps.Dispatcher.Shutdown(ctx); err != nil {
			deps.Logger.Error("Mail dispatcher shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.App.Env, config.Observability.Logging.Level)
	log := logger.LoggerWrapper()

	loc, err := config.App.Location()
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone: %w", err)
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	eventBus := events.NewEventBus(log)

	dispatcher, err := initMailDispatcher(config.Mail, log)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize mail: %w", err)
	}
	dispatcher.Start()
	notification.NewEventHandler(dispatcher, config.Mail.ITTeamEmail, log).Register(eventBus)

	health := rest.NewHealthHandler(db.DB)

	var relay realtime.Relay
	if config.Realtime.RedisAddr != "" {
		client := realtime.NewRedisClient(config.Realtime, log)
		health.WithCheck("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		relay = realtime.NewRedisRelay(client, config.Realtime.Channel, log)
	}
	hub := realtime.NewHub(relay, log)
	if err := hub.Start(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to start realtime hub: %w", err)
	}
	realtime.RegisterEventHandlers(eventBus, hub)

	tokenGen := auth.NewJWTTokenGenerator(config.Security.JWTSecret, config.Security.AccessTokenDuration)
	authService := auth.NewService(authPostgres.NewRepository(gormDB), tokenGen, eventBus, config.Security.BCryptCost, log)
	authHandler := auth.NewHandler(authService)

	ticketService := ticket.NewService(ticketPostgres.NewTicketRepository(gormDB), eventBus, loc, log)
	userService := user.NewService(userPostgres.NewUserRepository(gormDB), eventBus, config.Security.BCryptCost, log)

	validator, err := middleware.NewOpenAPIValidator(api.OpenAPISpec)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to load openapi document: %w", err)
	}

	origins := config.Server.Origins()
	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Handlers{
		Health:   health,
		Auth:     authHandler,
		User:     user.NewHandler(userService),
		Ticket:   ticket.NewHandler(ticketService),
		Realtime: realtime.NewWSHandler(hub, authHandler, origins, log),
	}, rest.Options{
		AllowedOrigins: origins,
		OpenAPISpec:    api.OpenAPISpec,
		Validator:      validator,
		Logger:         log,
	})

	return &Dependencies{
		Config:     config,
		DB:         db,
		Gorm:       gormDB,
		Router:     router,
		EventBus:   eventBus,
		Dispatcher: dispatcher,
		Hub:        hub,
		Logger:     log,
	}, nil
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

// initGorm shares the sqlx connection pool with the gorm repositories.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Warn),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
}

func initMailDispatcher(cfg internal.MailConfig, log *slog.Logger) (*notification.Dispatcher, error) {
	var sender notification.Sender = notification.NewLogSender(log)
	if cfg.Enabled {
		smtp, err := notification.NewSMTPSender(cfg)
		if err != nil {
			return nil, err
		}
		sender = smtp
	}

	return notification.NewDispatcher(notification.DispatcherConfig{
		Workers:   cfg.Workers,
		QueueSize: cfg.QueueSize,
	}, notification.NewRenderer(), sender, log), nil
}
