// Package di provides dependency injection container
package di

import (
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/CEA-LIST/sgntx/pkg/batch"
	"github.com/CEA-LIST/sgntx/pkg/catalog"
	"github.com/CEA-LIST/sgntx/pkg/codec"
	"github.com/CEA-LIST/sgntx/pkg/config"
	"github.com/CEA-LIST/sgntx/pkg/convert"
	"github.com/CEA-LIST/sgntx/pkg/logger"
	"github.com/CEA-LIST/sgntx/pkg/metrics"
)

// Container holds all the dependencies for the application
type Container struct {
	mu      sync.Mutex
	config  *config.Config
	logger  logger.Logger
	metrics *metrics.Metrics
	catalog *catalog.Catalog
}

// NewContainer creates a new dependency injection container with default
// configuration and a discarding logger.
func NewContainer() *Container {
	return &Container{
		config:  config.DefaultConfig(),
		logger:  logger.Discard(),
		metrics: metrics.New(),
	}
}

// Config returns the active configuration
func (c *Container) Config() *config.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config
}

// SetConfig replaces the active configuration
func (c *Container) SetConfig(cfg *config.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config = cfg
}

// Logger returns the application logger
func (c *Container) Logger() logger.Logger {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.logger
}

// SetLogger allows overriding the logger (for testing)
func (c *Container) SetLogger(l logger.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = l
}

// Metrics returns the shared metrics instance
func (c *Container) Metrics() *metrics.Metrics {
	return c.metrics
}

// Converter returns a converter for mode.
func (c *Container) Converter(mode codec.Mode) *convert.Converter {
	return convert.New(mode)
}

// Runner returns a batch runner wired to the container's logger and metrics.
func (c *Container) Runner(mode codec.Mode, workers int) *batch.Runner {
	return batch.NewRunner(batch.RunnerConfig{
		Converter: c.Converter(mode),
		Workers:   workers,
		Logger:    c.Logger(),
		Metrics:   c.metrics,
	})
}

// Catalog opens the run catalog on first use from config.CatalogDir.
func (c *Container) Catalog() (*catalog.Catalog, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.catalog != nil {
		return c.catalog, nil
	}
	if c.config.CatalogDir == "" {
		return nil, errors.New("catalog_dir is not configured")
	}
	cat, err := catalog.Open(c.config.CatalogDir)
	if err != nil {
		return nil, err
	}
	c.catalog = cat
	return cat, nil
}

// Close releases resources opened by the container.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.catalog == nil {
		return nil
	}
	err := c.catalog.Close()
	c.catalog = nil
	return err
}
