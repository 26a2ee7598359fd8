package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hupe1980/fps"
	"github.com/hupe1980/fps/blobstore"
	miniostore "github.com/hupe1980/fps/blobstore/minio"
	s3store "github.com/hupe1980/fps/blobstore/s3"
	"github.com/hupe1980/fps/device"
	"github.com/hupe1980/fps/pointio"
	"github.com/hupe1980/fps/resource"
	"github.com/hupe1980/fps/tensor"
	"github.com/spf13/cobra"
)

// app holds what every subcommand needs once the root command has resolved
// configuration.
type app struct {
	configPath  string
	storeKind   string
	root        string
	compression string
	logLevel    string
	logFormat   string
	metricsFile string
	metricsAddr string

	cfg     Config
	comp    pointio.Compression
	logger  *fps.Logger
	rc      *resource.Controller
	metrics *fps.BasicMetricsCollector
	sampler *fps.Sampler

	exporter *exporter

	// store is used as-is when set before the command runs.
	store blobstore.Store
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "fps",
		Short:         "Furthest-point sampling over stored point clouds",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a.metrics == nil || a.logger == nil {
				return
			}
			stats := a.metrics.GetStats()
			a.logger.DebugContext(cmd.Context(), "metrics",
				"samples", stats.SampleCount,
				"sample_errors", stats.SampleErrors,
				"sample_avg_ns", stats.SampleAvgNanos,
				"points_selected", stats.PointsSelected,
				"candidates_scanned", stats.CandidatesScanned,
				"gathers", stats.GatherCount,
			)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	pf.StringVar(&a.storeKind, "store", "", "blob store kind: local, minio or s3")
	pf.StringVar(&a.root, "root", "", "local directory or remote key prefix")
	pf.StringVar(&a.compression, "compression", "", "block compression for written tensors: none, lz4 or zstd")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.StringVar(&a.logFormat, "log-format", "", "log format: text or json")
	pf.StringVar(&a.metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")
	pf.StringVar(&a.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")

	cmd.AddCommand(
		newGenCommand(a),
		newDistmatCommand(a),
		newSampleCommand(a),
		newListCommand(a),
		newInfoCommand(a),
	)
	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := LoadConfig(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.Store.Kind = a.storeKind
	}
	if flags.Changed("root") {
		cfg.Store.Root = a.root
	}
	if flags.Changed("compression") {
		cfg.Compression = a.compression
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}
	if flags.Changed("metrics-file") {
		cfg.Metrics.Textfile = a.metricsFile
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = a.metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.comp, _ = pointio.ParseCompression(cfg.Compression)

	level, _ := cfg.Log.level()
	handlerOpts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Log.Format, "json") {
		a.logger = fps.NewLogger(slog.NewJSONHandler(cmd.ErrOrStderr(), handlerOpts))
	} else {
		a.logger = fps.NewLogger(slog.NewTextHandler(cmd.ErrOrStderr(), handlerOpts))
	}

	a.rc = resource.NewController(resource.Config{
		MaxWorkers:         cfg.Resources.MaxWorkers,
		MemoryLimitBytes:   cfg.Resources.MemoryLimitBytes,
		IOLimitBytesPerSec: cfg.Resources.IOLimitBytesPerSec,
	})

	a.metrics = &fps.BasicMetricsCollector{}
	collectors := fps.MultiMetricsCollector{a.metrics}
	if cfg.Metrics.enabled() {
		e, err := startExporter(cfg.Metrics, a.logger)
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		a.exporter = e
		collectors = append(collectors, e.collector)
	}

	a.sampler = fps.New(
		fps.WithResources(a.rc),
		fps.WithLogger(a.logger),
		fps.WithMetricsCollector(collectors),
		fps.WithCPUOptions(func(o *device.CPUOptions) {
			o.Workers = cfg.Sampler.Workers
			o.BlockSize = cfg.Sampler.BlockSize
			o.BlockThreshold = cfg.Sampler.BlockThreshold
		}),
	)

	if a.store == nil {
		store, err := openStore(cmd.Context(), cfg.Store)
		if err != nil {
			return err
		}
		a.store = store
	}
	if cfg.Resources.IOLimitBytesPerSec > 0 {
		if _, ok := a.store.(*blobstore.RateLimited); !ok {
			a.store = blobstore.NewRateLimited(a.store, a.rc)
		}
	}
	return nil
}

// close releases what setup started. It is safe to call more than once.
func (a *app) close(ctx context.Context) error {
	if a.exporter == nil {
		return nil
	}
	err := a.exporter.close(ctx)
	a.exporter = nil
	return err
}

func openStore(ctx context.Context, cfg StoreConfig) (blobstore.Store, error) {
	switch cfg.Kind {
	case "local":
		return blobstore.NewLocalStore(cfg.Root), nil
	case "minio":
		return miniostore.Dial(miniostore.Config{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Region:    cfg.Region,
			Secure:    cfg.Secure,
		}, cfg.Bucket, remotePrefix(cfg.Root))
	case "s3":
		optFns := []s3store.Option{
			s3store.WithPrefix(remotePrefix(cfg.Root)),
			s3store.WithRegion(cfg.Region),
		}
		if cfg.Endpoint != "" {
			optFns = append(optFns, s3store.WithEndpoint(cfg.Endpoint))
		}
		if cfg.UsePathStyle {
			optFns = append(optFns, func(o *s3store.Options) { o.UsePathStyle = true })
		}
		return s3store.New(ctx, cfg.Bucket, optFns...)
	default:
		return nil, fmt.Errorf("store: unknown kind %q", cfg.Kind)
	}
}

// remotePrefix maps the local default root to an empty key prefix.
func remotePrefix(root string) string {
	if root == "." {
		return ""
	}
	return root
}

// readTensor decodes a pointio blob from the store.
func (a *app) readTensor(ctx context.Context, name string) (*tensor.Tensor, error) {
	rc, err := a.store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()

	t, err := pointio.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return t, nil
}

// writeTensor encodes t with the configured compression and stores it.
func (a *app) writeTensor(ctx context.Context, name string, t *tensor.Tensor) error {
	data, err := pointio.Marshal(t, a.comp)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := a.store.Put(ctx, name, data); err != nil {
		return fmt.Errorf("put %s: %w", name, err)
	}
	a.logger.DebugContext(ctx, "tensor written",
		"name", name,
		"shape", t.Shape().String(),
		"bytes", len(data),
		"compression", a.comp.String(),
	)
	return nil
}
