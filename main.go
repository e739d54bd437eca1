package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mbolis/rpe-survey/app"
	"github.com/mbolis/rpe-survey/config"
	"github.com/mbolis/rpe-survey/database"
	"github.com/mbolis/rpe-survey/log"
	"github.com/mbolis/rpe-survey/routes"
	"github.com/mbolis/rpe-survey/schema"
	"github.com/mbolis/rpe-survey/validation"
)

func main() {
	cfg, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg.DBUrl)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	s := schema.RPE(cfg.EmailDomain)
	app := app.App{
		DB:        db,
		Config:    cfg,
		Schema:    s,
		Validator: validation.NewPayloadValidator(s),
		Now:       time.Now,
	}

	handler := routes.Wire(app)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = runServer(ctx, cfg, handler)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
	log.Info("shutdown complete")
}

// runServer serves until ctx is done, then drains open requests.
func runServer(ctx context.Context, cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Listening on " + cfg.Url())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("received signal, shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
