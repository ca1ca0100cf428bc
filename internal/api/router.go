package api

import (
	"net/http"
	"time"

	"delivery-analytics-service/internal/api/handlers"
	"delivery-analytics-service/internal/ports"
	"delivery-analytics-service/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// Deps are the shared services the HTTP layer needs. Every field is required.
type Deps struct {
	Data         *services.DatasetCache
	Predictor    *services.Predictor
	Renders      ports.RenderCache
	RenderTTL    time.Duration
	Maps         handlers.MapSettings
	HotspotsPath string
	PredictRate  rate.Limit
	PredictBurst int
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	dash := &handlers.DashboardHandler{
		Data:         d.Data,
		Maps:         d.Maps,
		Renders:      d.Renders,
		RenderTTL:    d.RenderTTL,
		HotspotsPath: d.HotspotsPath,
	}
	predict := &handlers.PredictHandler{Predictor: d.Predictor}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware, loggingMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader, "X-Cache"},
		MaxAge:         300,
	}))

	r.Get("/health", handlers.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/dataset", dash.Dataset)
		r.Get("/options", dash.Options)
		r.Get("/overview", dash.Overview)
		r.Get("/charts", dash.Charts)
		r.Get("/charts/{id}", dash.Chart)
		r.Get("/insights/weather", dash.WeatherInsight)
		r.Get("/insights/traffic", dash.TrafficInsight)
		r.Get("/maps", dash.MapLayer)
		r.Get("/maps/hotspots", dash.Hotspots)
		r.Get("/export", dash.Export)

		r.Get("/predict/form", predict.Form)
		r.With(rateLimitMiddleware(rate.NewLimiter(d.PredictRate, d.PredictBurst))).
			Post("/predict", predict.Predict)
	})

	return r
}
