package regression

import (
	"context"
	"sync"

	"delivery-analytics-service/internal/platform/obs"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ModelCache loads the model artifact on first use and keeps it for the life
// of the process. Failed loads are not remembered, so the next call retries.
type ModelCache struct {
	path string
	load func(string) (*Model, error)

	mu    sync.Mutex
	model *Model
}

func NewModelCache(path string) *ModelCache {
	return &ModelCache{path: path, load: Load}
}

func (c *ModelCache) Path() string { return c.path }

// Get returns the cached model, loading it if needed. Load failures are
// wrapped with ErrModelUnavailable.
func (c *ModelCache) Get(ctx context.Context) (_ *Model, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.model != nil {
		return c.model, nil
	}

	defer obs.Time(ctx, "regression.ModelCache.Load")(&err)

	m, err := c.load(c.path)
	if err != nil {
		return nil, eris.Wrapf(ErrModelUnavailable, "%v", err)
	}
	zap.L().Info("model loaded",
		zap.String("path", c.path),
		zap.String("kind", string(m.Kind)),
		zap.Int("features", len(m.FeatureNames)))
	c.model = m
	return m, nil
}

// Loaded reports whether a model is cached.
func (c *ModelCache) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model != nil
}
