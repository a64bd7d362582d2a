package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"protodraw/autosave"
	"protodraw/config"
	"protodraw/editor"
	"protodraw/handlers/api/drawing"
	"protodraw/handlers/api/snapshots"
	"protodraw/render"
	"protodraw/snapshot"
	"protodraw/stores"
)

// allowLocalOrigin admits the local UI shells only.
func allowLocalOrigin(r *http.Request, origin string) bool {
	if origin == "" {
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}

	switch parsed.Scheme {
	case "http", "https":
		switch parsed.Hostname() {
		case "localhost", "127.0.0.1", "::1":
			return true
		}
	case "tauri":
		return parsed.Hostname() == "localhost"
	}
	return false
}

func setupRouter(session *editor.Session, repo *snapshot.Repository) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc:  allowLocalOrigin,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		drawing.Routes(r, session)

		// Snapshot history routes need a store that keeps earlier versions
		if history, ok := repo.History(); ok {
			snapshots.Routes(r, history, repo.Key(), repo, session)
			logrus.Info("Snapshot API routes registered")
		} else {
			logrus.Warn("Snapshot API not available - storage keeps no history")
		}
	})

	return r
}

func waitForShutdown(server *http.Server, saver *autosave.Manager, grace time.Duration, closers ...io.Closer) {
	exit := make(chan struct{})
	signalC := make(chan os.Signal, 1)

	signal.Notify(signalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range signalC {
			switch s {
			case os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				close(exit)
				return
			}
		}
	}()

	<-exit
	logrus.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.WithError(err).Warn("HTTP server did not shut down cleanly")
	}
	if err := saver.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Final autosave failed")
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close resource")
		}
	}
}

func main() {
	logLevel := flag.String("loglevel", "", "The log level (debug, info, warn, error). Overrides LOG_LEVEL.")
	listenAddress := flag.String("listen", "", "The address to listen on. Overrides LISTEN_ADDR.")
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *listenAddress != "" {
		cfg.Listen = *listenAddress
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)

	ctx := context.Background()
	store, err := stores.GetStore(ctx, cfg.Storage)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to open snapshot store")
	}
	var closers []io.Closer
	if c, ok := store.(io.Closer); ok {
		closers = append(closers, c)
	}

	thumbnails := render.NewThumbnailer(cfg.Editor.ThumbnailSize)
	repo := snapshot.NewRepository(store, cfg.Editor.SnapshotKey, snapshot.WithThumbnails(thumbnails.Thumbnail))

	session := editor.NewSession(repo, cfg.Editor.HistoryLimit)
	session.SeedDefaults()

	loaded, err := session.AutoLoad(ctx)
	switch {
	case err != nil:
		logrus.WithError(err).Warn("Stored state could not be loaded, starting empty")
	case loaded:
		logrus.WithField("key", repo.Key()).Info("Previous state restored")
	default:
		logrus.Info("No previous state, starting empty")
	}

	saver := autosave.NewManager(session, repo, cfg.AutoSave.Delay)
	session.OnChange(saver.Trigger)
	saver.Start()

	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           setupRouter(session, repo),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logrus.WithField("addr", cfg.Listen).Info("starting server")
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	logrus.Debug("Server is running in the background")
	waitForShutdown(server, saver, cfg.AutoSave.ShutdownGrace, closers...)
}
