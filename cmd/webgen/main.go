// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/webgenhq/webgen/internal/config"
	"github.com/webgenhq/webgen/internal/handler"
	"github.com/webgenhq/webgen/internal/middleware"
	"github.com/webgenhq/webgen/internal/render"
	"github.com/webgenhq/webgen/internal/session"
	"github.com/webgenhq/webgen/internal/store"
	"github.com/webgenhq/webgen/internal/version"
	"github.com/webgenhq/webgen/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "WebGen - Minimal Multi-Tenant CMS\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  WEBGEN_SESSION_SECRET  Session signing key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  WEBGEN_STORE           Storage backend: file|sqlite (default: file)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  WEBGEN_DATA_FILE       JSON data file path (default: ./data/webgen.json)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  WEBGEN_DB_PATH         SQLite database path (default: ./data/webgen.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  WEBGEN_SERVER_PORT     Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  WEBGEN_ENV             Environment: development|production (default: development)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		info := &version.Info{Version: appVersion, GitCommit: appGitCommit, BuildTime: appBuildTime}
		fmt.Println(info.String())
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Initialize the storage backend
	st, db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Error("error closing store", "error", err)
		}
	}()

	// Seed default data
	if cfg.DoSeed {
		if err := store.Seed(context.Background(), st); err != nil {
			return fmt.Errorf("seeding store: %w", err)
		}
	}

	// Initialize session manager
	sessionManager := session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	// Initialize renderer
	renderer, err := render.New(render.Config{
		TemplatesFS:    mustSub(web.Templates, "templates"),
		SessionManager: sessionManager,
		Store:          st,
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())

	r := buildRouter(cfg, st, sessionManager, renderer, loginProtection)

	// Create server with appropriate timeouts
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// openStore initializes the configured backend. The returned *sql.DB is
// nil for the file backend; it backs the session store when present.
func openStore(cfg *config.Config) (store.Store, *sql.DB, error) {
	if cfg.UseSQLite() {
		slog.Info("initializing database", "path", cfg.DBPath)
		db, err := store.NewDB(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("initializing database: %w", err)
		}

		slog.Info("running database migrations")
		if err := store.Migrate(db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database ready")

		return store.NewSQLStore(db), db, nil
	}

	slog.Info("initializing file store", "path", cfg.DataFile)
	fileStore, err := store.NewFileStore(cfg.DataFile)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing file store: %w", err)
	}
	return fileStore, nil, nil
}

// buildRouter wires the middleware chain and all routes.
func buildRouter(
	cfg *config.Config,
	st store.Store,
	sessionManager *scs.SessionManager,
	renderer *render.Renderer,
	loginProtection *middleware.LoginProtection,
) chi.Router {
	authHandler := handler.NewAuthHandler(st, renderer, sessionManager, loginProtection)
	pageHandler := handler.NewPageHandler(st, renderer)
	adminHandler := handler.NewAdminHandler(st, renderer)
	userHandler := handler.NewUserHandler(st, renderer)
	footerHandler := handler.NewFooterHandler(st, renderer)

	csrfConfig := middleware.DefaultCSRFConfig(
		[]byte(cfg.SessionSecret), cfg.IsDevelopment(), cfg.ServerPort)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(sessionManager.LoadAndSave)
	r.Use(middleware.CSRF(csrfConfig))
	r.Use(middleware.LoadUser(sessionManager, st))

	r.Handle("/static/*", http.FileServerFS(web.Static))

	r.Get(handler.RouteRoot, pageHandler.Home)
	r.Get(handler.RouteLogin, authHandler.LoginForm)
	r.With(loginProtection.Middleware()).Post(handler.RouteLogin, authHandler.Login)
	r.Get(handler.RouteLogout, authHandler.Logout)

	r.Route(handler.RoutePages, func(r chi.Router) {
		r.Use(middleware.RequireLogin())
		r.Get("/", pageHandler.List)
		r.Get(handler.RouteSuffixNew, pageHandler.NewForm)
		r.Post(handler.RouteSuffixNew, pageHandler.Create)
		r.Get(handler.RouteParamID, pageHandler.View)
		r.Get(handler.RouteParamID+handler.RouteSuffixEdit, pageHandler.EditForm)
		r.Post(handler.RouteParamID+handler.RouteSuffixEdit, pageHandler.Edit)
		r.Post(handler.RouteParamID+handler.RouteSuffixDelete, pageHandler.Delete)
	})

	r.Route(handler.RouteAdmin, func(r chi.Router) {
		r.Use(middleware.RequireAdmin())
		r.Get("/", adminHandler.Dashboard)

		r.Get("/pages", adminHandler.ListPages)
		r.Get("/pages"+handler.RouteParamID, adminHandler.ViewPage)
		r.Post("/pages"+handler.RouteParamID+handler.RouteSuffixDelete, adminHandler.DeletePage)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", userHandler.List)
			r.Get(handler.RouteSuffixNew, userHandler.NewForm)
			r.Post(handler.RouteSuffixNew, userHandler.Create)
			r.Get(handler.RouteParamID+handler.RouteSuffixEdit, userHandler.EditForm)
			r.Post(handler.RouteParamID+handler.RouteSuffixEdit, userHandler.Edit)
			r.Post(handler.RouteParamID+handler.RouteSuffixReset, userHandler.ResetPassword)
			r.Post(handler.RouteParamID+handler.RouteSuffixDelete, userHandler.Delete)
		})

		r.Route("/footer", func(r chi.Router) {
			r.Get("/", footerHandler.Form)
			r.Post("/", footerHandler.UpdateText)
			r.Get("/links"+handler.RouteSuffixNew, footerHandler.LinkNewForm)
			r.Post("/links"+handler.RouteSuffixNew, footerHandler.LinkCreate)
			r.Get("/links"+handler.RouteParamID+handler.RouteSuffixEdit, footerHandler.LinkEditForm)
			r.Post("/links"+handler.RouteParamID+handler.RouteSuffixEdit, footerHandler.LinkEdit)
			r.Post("/links"+handler.RouteParamID+handler.RouteSuffixDelete, footerHandler.LinkDelete)
		})
	})

	return r
}

// mustSub roots the embedded FS at the templates directory.
func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
