package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "expense_tracker/docs"
	"expense_tracker/internal/config"
	"expense_tracker/internal/handlers"
	"expense_tracker/internal/logger"
	"expense_tracker/internal/notification"
	"expense_tracker/internal/repository"
	"expense_tracker/internal/repository/boltstore"
	"expense_tracker/internal/repository/db"
	"expense_tracker/internal/repository/memstore"
	"expense_tracker/internal/server"
	"expense_tracker/internal/service"
)

const shutdownTimeout = 10 * time.Second

// @title                       Expense Tracker API
// @version                     1.0
// @description                 Personal expense ledger with JWT auth, password reset, summaries and admin analytics.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @securityDefinitions.apikey  AdminToken
// @in                          header
// @name                        X-Admin-Token
func main() {
	configDir := flag.String("config", "configs", "directory holding config.yml")
	flag.Parse()

	// load config.yml + .env + environment
	cfg, err := config.Load(*configDir)
	if err != nil {
		// logger level comes from config, so fall back to the default here
		logger.Get(logger.InfoLevel, logger.FormatConsole).Fatalw("invalid configuration", "err", err)
	}

	// init logger
	log := logger.Get(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	// open DB and apply migrations
	conn, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err, "path", cfg.DB.Path)
	}
	defer closeDB(conn, log)

	resetTokens, closeTokens, err := openResetTokenStore(cfg.Reset, log)
	if err != nil {
		log.Fatalw("failed to open reset token store", "err", err, "store", cfg.Reset.Store)
	}
	defer closeTokens()

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailer, err := notification.New(ctx, cfg.Mail, log)
	if err != nil {
		log.Fatalw("failed to configure mail provider", "err", err, "provider", cfg.Mail.Provider)
	}

	// wire dependencies
	repos := repository.NewRepository(conn, resetTokens)
	services := service.NewService(repos, service.Deps{
		SigningKey: cfg.Auth.SigningKey,
		Mailer:     mailer,
		Log:        log,
	})
	apiHandler := handlers.NewHandler(services, log.Component("http"), handlers.Options{
		AdminToken:     cfg.Analytics.AdminToken,
		ResetLinkBase:  cfg.Reset.LinkBase,
		AllowedOrigins: cfg.WS.AllowedOrigins,
	})
	if cfg.Analytics.AdminToken == "" {
		log.Warnw("analytics.admin_token not set; /analytics is open")
	}
	if cfg.Reset.LinkBase == "" {
		log.Warnw("reset.link_base not set; reset links are built from the request Host header")
	}

	// expired reset tokens are swept in the background
	go services.Sweeper.Run(ctx, cfg.Reset.SweepInterval)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

// openResetTokenStore picks the reset token backend. The returned func
// releases it.
func openResetTokenStore(cfg config.ResetConfig, log *logger.Logger) (repository.ResetTokenStore, func(), error) {
	switch cfg.Store {
	case config.StoreBolt:
		s, err := boltstore.Open(cfg.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		log.Infow("reset tokens stored in bolt", "path", cfg.BoltPath)
		return s, func() {
			if err := s.Close(); err != nil {
				log.Errorw("failed to close bolt store", "err", err)
			}
		}, nil
	case config.StoreMemory:
		log.Warnw("reset tokens kept in memory; they are lost on restart and not shared between instances")
		return memstore.NewResetTokens(), func() {}, nil
	default:
		// nil keeps tokens in the main database
		return nil, func() {}, nil
	}
}

func closeDB(conn *sql.DB, log *logger.Logger) {
	if err := conn.Close(); err != nil {
		log.Errorw("failed to close sqlite", "err", err)
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		log.Infow("http server listening", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
