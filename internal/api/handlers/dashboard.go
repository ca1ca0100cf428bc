package handlers

import (
	"bytes"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"delivery-analytics-service/internal/api/dto"
	"delivery-analytics-service/internal/domain"
	"delivery-analytics-service/internal/platform/obs"
	"delivery-analytics-service/internal/ports"
	"delivery-analytics-service/internal/render"
	"delivery-analytics-service/internal/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type MapSettings struct {
	SampleCap int
	CellSize  float64
	Zoom      int
}

// DashboardHandler serves the read-only views over the shared dataset.
type DashboardHandler struct {
	Data         *services.DatasetCache
	Maps         MapSettings
	Renders      ports.RenderCache
	RenderTTL    time.Duration
	HotspotsPath string
}

// selected resolves the dataset and applies the request's filter selection.
// It writes the error response itself and reports ok=false on a bad query.
func (h *DashboardHandler) selected(w http.ResponseWriter, r *http.Request) (*domain.Dataset, domain.Selection, []domain.Delivery, bool) {
	ds := h.Data.Get(r.Context())
	sel, err := services.ParseSelection(r.URL.Query())
	if err != nil {
		writeServiceError(w, r, err)
		return nil, sel, nil, false
	}
	return ds, sel, services.Filter(ds.Rows, sel), true
}

func (h *DashboardHandler) Dataset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, dto.NewDatasetStatus(h.Data.Get(r.Context())))
}

// Options lists the filter widget values over the whole dataset.
func (h *DashboardHandler) Options(w http.ResponseWriter, r *http.Request) {
	ds := h.Data.Get(r.Context())
	writeJSON(w, r, http.StatusOK, dto.NewView(ds, ds.Len(), services.Options(ds.Rows)))
}

func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	ds, _, rows, ok := h.selected(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewView(ds, len(rows), services.Overview(rows)))
}

func (h *DashboardHandler) Charts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, services.Catalog())
}

// Chart returns one catalog chart as a JSON spec or a rendered image.
func (h *DashboardHandler) Chart(w http.ResponseWriter, r *http.Request) {
	ds, sel, rows, ok := h.selected(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	spec, err := services.BuildChart(id, rows)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" || format == "json" {
		writeJSON(w, r, http.StatusOK, dto.NewView(ds, len(rows), spec))
		return
	}

	img, err := render.ParseFormat(format)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	key := strings.Join([]string{id, string(img), services.SelectionKey(sel), strconv.FormatInt(ds.LoadedAt.UnixNano(), 10)}, "|")
	if b, hit, err := h.Renders.Get(r.Context(), key); err != nil {
		zap.L().Warn("render cache get failed", zap.String("req_id", obs.RequestID(r.Context())), zap.Error(err))
	} else if hit {
		writeImage(w, img, "hit", b)
		return
	}

	var buf bytes.Buffer
	if err := render.Render(&buf, spec, img); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.Renders.Put(r.Context(), key, buf.Bytes(), h.RenderTTL); err != nil {
		zap.L().Warn("render cache put failed", zap.String("req_id", obs.RequestID(r.Context())), zap.Error(err))
	}
	writeImage(w, img, "miss", buf.Bytes())
}

func writeImage(w http.ResponseWriter, f render.Format, cache string, b []byte) {
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("X-Cache", cache)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (h *DashboardHandler) WeatherInsight(w http.ResponseWriter, r *http.Request) {
	ds, _, rows, ok := h.selected(w, r)
	if !ok {
		return
	}
	insight, err := services.Weather(rows)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewView(ds, len(rows), insight))
}

func (h *DashboardHandler) TrafficInsight(w http.ResponseWriter, r *http.Request) {
	ds, _, rows, ok := h.selected(w, r)
	if !ok {
		return
	}
	traffic, err := services.Traffic(rows)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewView(ds, len(rows), traffic))
}

// MapLayer samples the selection and returns it as a GeoJSON layer.
func (h *DashboardHandler) MapLayer(w http.ResponseWriter, r *http.Request) {
	ds, _, rows, ok := h.selected(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	opts := services.MapOptions{
		Mode:      services.MapMode(q.Get("mode")),
		SampleCap: h.Maps.SampleCap,
		CellSize:  h.Maps.CellSize,
		Zoom:      h.Maps.Zoom,
	}
	if raw := q.Get("seed"); raw != "" {
		seed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "seed must be a non-negative integer")
			return
		}
		opts.Seed = &seed
	}

	layer, err := services.BuildMap(rows, opts)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewView(ds, len(rows), layer))
}

// Hotspots serves the pre-rendered hotspot map document.
func (h *DashboardHandler) Hotspots(w http.ResponseWriter, r *http.Request) {
	b, err := os.ReadFile(h.HotspotsPath)
	if errors.Is(err, fs.ErrNotExist) {
		writeError(w, r, http.StatusNotFound, "hotspot map not available")
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// Export downloads the filtered rows as xlsx (default) or csv.
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	_, _, rows, ok := h.selected(w, r)
	if !ok {
		return
	}

	var (
		buf         bytes.Buffer
		err         error
		contentType string
		filename    string
	)
	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "", "xlsx":
		err = services.WriteXLSX(&buf, rows)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		filename = "deliveries.xlsx"
	case "csv":
		err = services.WriteCSV(&buf, rows)
		contentType = "text/csv"
		filename = "deliveries.csv"
	default:
		writeError(w, r, http.StatusBadRequest, "format must be xlsx or csv")
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
