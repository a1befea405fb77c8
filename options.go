package ieql

import (
	"go.uber.org/zap"

	"github.com/kailas-cloud/ieql/internal/compile"
	"github.com/kailas-cloud/ieql/internal/output"
)

type engineConfig struct {
	workers           int
	excerptWindow     int
	allowTextFallback bool
	extractor         compile.Extractor
	logger            *zap.Logger
}

func defaultConfig() engineConfig {
	return engineConfig{
		workers:           0, // hardware threads
		excerptWindow:     output.DefaultExcerptWindow,
		allowTextFallback: true,
		extractor:         defaultExtractor,
		logger:            zap.NewNop(),
	}
}

// Option configures an Engine.
type Option func(*engineConfig)

// WithWorkers sets the scan worker pool size. n <= 0 uses the hardware
// thread count.
func WithWorkers(n int) Option {
	return func(c *engineConfig) { c.workers = n }
}

// WithExcerptWindow sets the excerpt context window in bytes on each side
// of a match span.
func WithExcerptWindow(bytes int) Option {
	return func(c *engineConfig) { c.excerptWindow = bytes }
}

// WithTextFallback controls whether Text-scoped queries scan raw content
// when extraction is unavailable. Enabled by default.
func WithTextFallback(allow bool) Option {
	return func(c *engineConfig) { c.allowTextFallback = allow }
}

// WithExtractor replaces the built-in HTML text extractor.
func WithExtractor(fn func(doc Document) ([]byte, bool)) Option {
	return func(c *engineConfig) { c.extractor = compile.Extractor(fn) }
}

// WithLogger sets the engine logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *engineConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}
