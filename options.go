package fps

import (
	"log/slog"

	"github.com/hupe1980/fps/device"
	"github.com/hupe1980/fps/resource"
)

type options struct {
	registry         *device.Registry
	backends         []device.Backend
	cpuOptions       []func(*device.CPUOptions)
	resources        *resource.Controller
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures a Sampler.
type Option func(*options)

// WithRegistry uses reg to resolve backends instead of a registry holding
// only the CPU backend.
func WithRegistry(reg *device.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithBackend registers an additional backend, replacing any backend for the
// same device family.
//
// Example:
//
//	s := fps.New(fps.WithBackend(myAccelerator))
func WithBackend(b device.Backend) Option {
	return func(o *options) {
		if b != nil {
			o.backends = append(o.backends, b)
		}
	}
}

// WithCPUOptions configures the default CPU backend. Ignored when a registry
// is supplied with WithRegistry.
//
// Example:
//
//	s := fps.New(fps.WithCPUOptions(func(o *device.CPUOptions) {
//	    o.Workers = 4
//	    o.BlockThreshold = -1
//	}))
func WithCPUOptions(optFns ...func(*device.CPUOptions)) Option {
	return func(o *options) {
		o.cpuOptions = append(o.cpuOptions, optFns...)
	}
}

// WithResources bounds the default CPU backend's buffer memory and workers.
func WithResources(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &fps.BasicMetricsCollector{}
//	s := fps.New(fps.WithMetricsCollector(metrics))
//	// ... use s ...
//	stats := metrics.GetStats()
//	fmt.Printf("Samples: %d, Avg latency: %dns\n", stats.SampleCount, stats.SampleAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}
