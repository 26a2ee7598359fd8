// Command fps generates, inspects and samples point cloud batches kept in a
// blob store.
//
// Tensors are stored in the pointio container format. The store is a local
// directory by default and can be a MinIO or S3 bucket instead.
//
// Usage:
//
//	fps [global flags] <command> [flags]
//
// Commands:
//
//	gen       write a synthetic (B, N, 3) point cloud batch
//	distmat   write the (B, N, N) pairwise distance matrices of a batch
//	sample    select M furthest points per cloud, from points or distances
//	ls        list stored tensors, with -l their dtype and shape
//	info      show backends, kernels and host CPU features
//
// Global flags:
//
//	-c, --config        YAML configuration file
//	    --store         local, minio or s3 (default: local)
//	    --root          local directory or remote key prefix (default: .)
//	    --compression   none, lz4 or zstd (default: zstd)
//	    --log-level     debug, info, warn or error (default: info)
//	    --log-format    text or json (default: text)
//	    --metrics-file  write Prometheus metrics to a file on exit
//	    --metrics-addr  serve Prometheus metrics while running
//
// Example:
//
//	fps gen -o clouds.fpst --batch 4 --points 4096
//	fps sample -i clouds.fpst -o idx.fpst -m 512 --gather sampled.fpst
//	fps distmat -i clouds.fpst -o dist.fpst
//	fps sample -i dist.fpst --mode dist -m 512 --print
//
// Configuration file:
//
//	store:
//	  kind: minio
//	  endpoint: localhost:9000
//	  bucket: clouds
//	  access_key: minioadmin
//	  secret_key: minioadmin
//	compression: lz4
//	resources:
//	  max_workers: 8
//	  memory_limit_bytes: 1073741824
//	  io_limit_bytes_per_sec: 104857600
//	sampler:
//	  block_threshold: 32768
//	metrics:
//	  textfile: /var/lib/node_exporter/fps.prom
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	err := newRootCommand(a).ExecuteContext(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = errors.Join(err, a.close(shutdownCtx))

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		stop()
		os.Exit(1)
	}
}
