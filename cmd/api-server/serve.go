package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sitediary/db"
	"sitediary/db/migrations"
	"sitediary/internal/handlers"
	"sitediary/internal/uploads"
	"sitediary/internal/weather"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	photos, err := uploads.NewStore(uploads.Options{
		Dir:          cfg.Uploads.Dir,
		PublicURL:    cfg.Uploads.PublicURL,
		MaxFileSize:  cfg.Uploads.MaxFileSize,
		MaxFileCount: cfg.Uploads.MaxFileCount,
		ThumbWidth:   cfg.Uploads.ThumbWidth,
	})
	if err != nil {
		return err
	}

	h := handlers.NewHandler(store, log)
	h.Location = loc
	h.Weather = weather.NewClient(cfg.Weather.BaseURL, cfg.Weather.Timeout)
	h.Uploads = photos

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handlers.NewRouter(h, cfg.Server.CorsOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server",
			zap.String("address", cfg.Server.Address),
			zap.String("storage", cfg.Database.Driver),
			zap.String("environment", cfg.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrap(err, "listen")
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
		return err
	}
	log.Info("server exited properly")
	return nil
}

// openStorage выбирает хранилище по database.driver
func openStorage(ctx context.Context) (handlers.StorageInterface, func(), error) {
	switch cfg.Database.Driver {
	case "memory":
		log.Warn("using in-memory storage, data is lost on restart")
		return db.NewMemoryStorage(), func() {}, nil
	case "postgres", "":
	default:
		return nil, nil, errors.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	conn, err := db.Connect(ctx, cfg.Database.DSN, db.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, err
	}

	if cfg.Database.AutoMigrate {
		migrations.SetLogger(log)
		if err := migrations.Run(ctx, conn.DB); err != nil {
			conn.Close()
			return nil, nil, err
		}
	}

	store := db.NewStorage(conn)
	return store, func() {
		if err := store.Close(); err != nil {
			log.Warn("close database", zap.Error(err))
		}
	}, nil
}
