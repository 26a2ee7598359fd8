package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/hupe1980/fps"
	"github.com/hupe1980/fps/promcollector"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// exporter owns the Prometheus registry of one CLI invocation.
type exporter struct {
	reg       *prometheus.Registry
	collector *promcollector.Collector
	textfile  string
	srv       *http.Server
	addr      string
}

func startExporter(cfg MetricsConfig, logger *fps.Logger) (*exporter, error) {
	reg := prometheus.NewRegistry()
	mc, err := promcollector.New(reg)
	if err != nil {
		return nil, err
	}
	e := &exporter{reg: reg, collector: mc, textfile: cfg.Textfile}

	if cfg.Addr == "" {
		return e, nil
	}

	// Process and runtime metrics only make sense on a live endpoint.
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	e.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	e.addr = ln.Addr().String()

	go func() {
		if err := e.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "addr", e.addr, "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", e.addr)
	return e, nil
}

// close stops the endpoint and writes the textfile.
func (e *exporter) close(ctx context.Context) error {
	var errs []error
	if e.srv != nil {
		errs = append(errs, e.srv.Shutdown(ctx))
	}
	if e.textfile != "" {
		errs = append(errs, prometheus.WriteToTextfile(e.textfile, e.reg))
	}
	return errors.Join(errs...)
}
