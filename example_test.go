package fps_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/fps"
	"github.com/hupe1980/fps/device"
	"github.com/hupe1980/fps/resource"
	"github.com/hupe1980/fps/tensor"
)

// ExampleSampleFurthest picks the two most spread-out points of a cloud.
func ExampleSampleFurthest() {
	points, err := tensor.FromFloat32([]float32{
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
		5, 5, 5,
	}, 1, 4, 3)
	if err != nil {
		log.Fatal(err)
	}

	idx, err := fps.SampleFurthest(context.Background(), points, 2)
	if err != nil {
		log.Fatal(err)
	}
	rows, _ := idx.Int32Rows()
	fmt.Println(rows)
	// Output: [[0 3]]
}

// ExampleSampleFurthestWithDist samples from an upper-triangular distance matrix.
func ExampleSampleFurthestWithDist() {
	dist, err := tensor.FromFloat32([]float32{
		0, 1, 10,
		0, 0, 5,
		0, 0, 0,
	}, 1, 3, 3)
	if err != nil {
		log.Fatal(err)
	}

	idx, err := fps.SampleFurthestWithDist(context.Background(), dist, 2)
	if err != nil {
		log.Fatal(err)
	}
	rows, _ := idx.Int32Rows()
	fmt.Println(rows)
	// Output: [[0 2]]
}

// ExampleNew configures a bounded sampler.
func ExampleNew() {
	rc := resource.NewController(resource.Config{
		MaxWorkers:       4,
		MemoryLimitBytes: 64 << 20,
	})
	metrics := &fps.BasicMetricsCollector{}
	s := fps.New(
		fps.WithResources(rc),
		fps.WithMetricsCollector(metrics),
		fps.WithCPUOptions(func(o *device.CPUOptions) { o.Workers = 4 }),
	)

	points, _ := tensor.FromFloat32([]float32{0, 0, 0, 3, 4, 0, 1, 1, 1}, 1, 3, 3)
	idx, err := s.SampleFurthest(context.Background(), points, 2)
	if err != nil {
		log.Fatal(err)
	}
	sampled, _ := s.Gather(context.Background(), points, idx)
	xyz, _ := sampled.Float32s()

	fmt.Println(xyz, metrics.GetStats().SampleCount)
	// Output: [0 0 0 3 4 0] 1
}
