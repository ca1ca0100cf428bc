package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"delivery-analytics-service/internal/api"
	"delivery-analytics-service/internal/api/handlers"
	"delivery-analytics-service/internal/app"
	"delivery-analytics-service/internal/config"
	"delivery-analytics-service/internal/regression"
	"delivery-analytics-service/internal/services"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// main is the application composition root.
// It wires the configured dataset source and render cache behind ports and starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zap.L().Sync() }()

	if err := run(cfg); err != nil {
		zap.L().Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := app.OpenRepository(ctx, cfg.Data)
	if err != nil {
		return err
	}
	defer closeRepo()

	renders, closeCache, err := app.OpenRenderCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer closeCache()

	datasets := services.NewDatasetCache(repo)
	models := regression.NewModelCache(cfg.Model.Path)
	warm(ctx, datasets, models, cfg.Model.Warm)

	router := api.NewRouter(api.Deps{
		Data:      datasets,
		Predictor: services.NewPredictor(models),
		Renders:   renders,
		RenderTTL: time.Duration(cfg.Cache.TTLSecs) * time.Second,
		Maps: handlers.MapSettings{
			SampleCap: cfg.Maps.SampleCap,
			CellSize:  cfg.Maps.CellSizeDeg,
			Zoom:      cfg.Maps.Zoom,
		},
		HotspotsPath: cfg.Maps.HotspotsPath,
		PredictRate:  rate.Limit(cfg.Predict.RatePerSec),
		PredictBurst: cfg.Predict.Burst,
	})

	addr := ":" + strconv.Itoa(cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// warm loads the dataset and, when enabled, the model concurrently before serving.
// Neither failure is fatal: the dataset carries its own error and the model retries on use.
func warm(ctx context.Context, datasets *services.DatasetCache, models *regression.ModelCache, model bool) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ds := datasets.Get(gctx)
		if ds.Err != "" {
			zap.L().Warn("serving without data", zap.String("error", ds.Err))
		}
		return nil
	})
	if model {
		g.Go(func() error {
			if _, err := models.Get(gctx); err != nil {
				zap.L().Warn("model warm-up failed", zap.String("path", models.Path()), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
}
