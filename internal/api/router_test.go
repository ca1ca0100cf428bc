package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"delivery-analytics-service/internal/adapters/cache"
	"delivery-analytics-service/internal/api/handlers"
	"delivery-analytics-service/internal/domain"
	"delivery-analytics-service/internal/ports"
	"delivery-analytics-service/internal/regression"
	"delivery-analytics-service/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepository struct{ mock.Mock }

func (m *mockRepository) ListDeliveries(ctx context.Context) (ports.LoadResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(ports.LoadResult), args.Error(1)
}

func (m *mockRepository) Source() string { return m.Called().String(0) }

// memCache counts cache traffic so tests can observe hits.
type memCache struct {
	items map[string][]byte
	puts  int
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, ok := c.items[key]
	return b, ok, nil
}

func (c *memCache) Put(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.items[key] = value
	c.puts++
	return nil
}

func testRows() []domain.Delivery {
	return []domain.Delivery{
		{OrderID: "a1", Area: "A", Vehicle: "van", Weather: "Sunny", Traffic: "Low", Category: "Books",
			DeliveryTime: 100, AgentRating: 4.5, Distance: 3, OrderTime: "10:00:00",
			StoreLat: 12.9, StoreLon: 77.6, DropLat: 12.95, DropLon: 77.65},
		{OrderID: "a2", Area: "A", Vehicle: "scooter", Weather: "Fog", Traffic: "Jam", Category: "Books",
			DeliveryTime: 160, AgentRating: 4.1, Distance: 9, OrderTime: "10:00:00",
			StoreLat: 12.8, StoreLon: 77.5, DropLat: 12.85, DropLon: 77.55},
		{OrderID: "b1", Area: "B", Vehicle: "van", Weather: "Sunny", Traffic: "Medium", Category: "Grocery",
			DeliveryTime: 80, AgentRating: 4.9, Distance: 2, OrderTime: "18:30:00",
			StoreLat: 13.0, StoreLon: 77.7, DropLat: 13.05, DropLon: 77.75},
	}
}

type fixture struct {
	handler http.Handler
	renders *memCache
	dir     string
}

func newFixture(t *testing.T, rows []domain.Delivery, loadErr error, burst int) fixture {
	t.Helper()

	repo := &mockRepository{}
	repo.On("Source").Return("file:test.csv")
	repo.On("ListDeliveries", mock.Anything).Return(ports.LoadResult{Rows: rows}, loadErr).Once()

	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.json")
	require.NoError(t, regression.Save(modelPath, &regression.Model{
		Kind:         regression.KindLinear,
		FeatureNames: []string{"Distance", "Traffic_Jam"},
		Intercept:    20,
		Coefficients: []float64{2, 25},
	}))

	renders := &memCache{items: map[string][]byte{}}
	h := NewRouter(Deps{
		Data:         services.NewDatasetCache(repo),
		Predictor:    services.NewPredictor(regression.NewModelCache(modelPath)),
		Renders:      renders,
		RenderTTL:    time.Minute,
		Maps:         handlers.MapSettings{SampleCap: 1000, CellSize: 0.01, Zoom: 10},
		HotspotsPath: filepath.Join(dir, "hotspots.html"),
		PredictRate:  1,
		PredictBurst: burst,
	})
	return fixture{handler: h, renders: renders, dir: dir}
}

func (f fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndRequestID(t *testing.T) {
	f := newFixture(t, testRows(), nil, 5)
	rec := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Header().Get("X-Request-ID"))

	rec = f.do(t, http.MethodPost, "/health", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestDatasetAndOptions(t *testing.T) {
	f := newFixture(t, testRows(), nil, 5)

	status := decode[map[string]any](t, f.do(t, http.MethodGet, "/api/dataset", ""))
	assert.Equal(t, "file:test.csv", status["source"])
	assert.Equal(t, 3.0, status["rows"])

	opts := decode[struct {
		Data services.FilterOptions `json:"data"`
	}](t, f.do(t, http.MethodGet, "/api/options", ""))
	assert.Equal(t, []string{"A", "B"}, opts.Data.Areas)
	assert.Equal(t, 80, opts.Data.MinTime)
	assert.Equal(t, 160, opts.Data.MaxTime)
}

func TestOverviewFiltersRows(t *testing.T) {
	f := newFixture(t, testRows(), nil, 5)

	rec := f.do(t, http.MethodGet, "/api/overview?area=A", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[struct {
		Rows int                   `json:"rows"`
		Data services.OverviewKPIs `json:"data"`
	}](t, rec)
	assert.Equal(t, 2, view.Rows)
	assert.Equal(t, 2, view.Data.TotalOrders)
	assert.Equal(t, "10:00", view.Data.PeakOrderTime)

	rec = f.do(t, http.MethodGet, "/api/overview?min_time=200&max_time=100", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDatasetErrorIsReported(t *testing.T) {
	f := newFixture(t, nil, errors.New("open data.csv: no such file or directory"), 5)

	rec := f.do(t, http.MethodGet, "/api/overview", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[map[string]any](t, rec)
	assert.Contains(t, view["dataset_error"], "no such file")
	assert.Equal(t, 0.0, view["rows"])

	rec = f.do(t, http.MethodGet, "/api/charts/orders-by-area", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestChartJSONAndImages(t *testing.T) {
	f := newFixture(t, testRows(), nil, 5)

	catalog := decode[[]services.ChartInfo](t, f.do(t, http.MethodGet, "/api/charts", ""))
	assert.Len(t, catalog, 7)

	rec := f.do(t, http.MethodGet, "/api/charts/orders-by-area", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[struct {
		Data services.ChartSpec `json:"data"`
	}](t, rec)
	assert.Equal(t, "A", view.Data.Points()[0].Label)
	assert.Equal(t, 2.0, view.Data.Points()[0].Value)

	rec = f.do(t, http.MethodGet, "/api/charts/vehicle-distribution?format=svg", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, "miss", rec.Header().Get("X-Cache"))

	rec = f.do(t, http.MethodGet, "/api/charts/vehicle-distribution?format=svg", "")
	assert.Equal(t, "hit", rec.Header().Get("X-Cache"))
	assert.Equal(t, 1, f.renders.puts)

	rec = f.do(t, http.MethodGet, "/api/charts/traffic-impact?format=png", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/charts/unknown", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/charts/top-areas?format=gif", "").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, f.do(t, http.MethodGet, "/api/charts/top-areas?area=", "").Code)
}

func TestInsights(t *testing.T) {
	f := newFixture(t, testRows(), nil, 5)

	weather := decode[struct {
		Data services.WeatherInsight `json:"data"`
	}](t, f.do(t, http.MethodGet, "/api/insights/weather", ""))
	assert.Equal(t, "Fog", weather.Data.Slowest)
	assert.Equal(t, "Sunny", weather.Data.Fastest)

	traffic := decode[struct {
		Data []services.TrafficRow `json:"data"`
	}](t, f.do(t, http.MethodGet, "/api/insights/traffic?vehicle=van", ""))
	assert.Len(t, traffic.Data, 2)
}

func TestMaps(t *testing.T) {
	f := newFixture(t, testRows(), nil, 5)

	rec := f.do(t, http.MethodGet, "/api/maps?mode=routes&seed=9", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view struct {
		Data struct {
			LocationsShown int    `json:"locations_shown"`
			Seed           uint64 `json:"seed"`
			Zoom           int    `json:"zoom"`
			GeoJSON        struct {
				Type     string            `json:"type"`
				Features []json.RawMessage `json:"features"`
			} `json:"geojson"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, 3, view.Data.LocationsShown)
	assert.Equal(t, uint64(9), view.Data.Seed)
	assert.Equal(t, 10, view.Data.Zoom)
	assert.Equal(t, "FeatureCollection", view.Data.GeoJSON.Type)
	assert.Len(t, view.Data.GeoJSON.Features, 9)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/maps?mode=satellite", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/maps?seed=-1", "").Code)
}

func TestHotspots(t *testing.T) {
	f := newFixture(t, testRows(), nil, 5)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/maps/hotspots", "").Code)

	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "hotspots.html"), []byte("<html>map</html>"), 0o644))
	rec := f.do(t, http.MethodGet, "/api/maps/hotspots", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Equal(t, "<html>map</html>", rec.Body.String())
}

func TestExport(t *testing.T) {
	f := newFixture(t, testRows(), nil, 5)

	rec := f.do(t, http.MethodGet, "/api/export?format=csv&area=B", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "deliveries.csv")
	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 2)

	rec = f.do(t, http.MethodGet, "/api/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/export?format=pdf", "").Code)
}

func TestPredict(t *testing.T) {
	f := newFixture(t, testRows(), nil, 20)

	form := decode[services.PredictionForm](t, f.do(t, http.MethodGet, "/api/predict/form", ""))
	assert.Len(t, form.Numeric, 7)

	rec := f.do(t, http.MethodPost, "/api/predict", `{"Distance": 10, "Traffic": "Jam", "Weather": "Sunny", "Vehicle": "scooter", "Area": "Urban", "Category": "Books"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[map[string]any](t, rec)
	assert.InDelta(t, 65.0, res["predicted_minutes"], 1e-9)

	rec = f.do(t, http.MethodPost, "/api/predict", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 30.0, decode[map[string]any](t, rec)["predicted_minutes"], 1e-9)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/predict", `{"Agent_Age": 80}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/predict", `{"Colour": "red"}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/predict", `{} {}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/predict", `not json`).Code)
}

func TestPredictModelUnavailable(t *testing.T) {
	repo := &mockRepository{}
	h := NewRouter(Deps{
		Data:         services.NewDatasetCache(repo),
		Predictor:    services.NewPredictor(regression.NewModelCache(filepath.Join(t.TempDir(), "missing.json"))),
		Renders:      cache.NoopRenderCache{},
		PredictRate:  10,
		PredictBurst: 10,
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPredictRateLimited(t *testing.T) {
	f := newFixture(t, testRows(), nil, 2)

	codes := []int{}
	for i := 0; i < 3; i++ {
		codes = append(codes, f.do(t, http.MethodPost, "/api/predict", `{}`).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
