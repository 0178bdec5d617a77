//go:build ignore
// +build ignore

package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	rawisp "github.com/mrjoshuak/go-rawisp"
	"github.com/mrjoshuak/go-rawisp/internal/dpc"
	"github.com/mrjoshuak/go-rawisp/internal/synth"
)

func main() {
	sizes := []int{64, 256, 1024, 2048}
	iterations := 10
	cfg := dpc.Config{Enable: true, Threshold: 64}

	fmt.Println("=== Defect Pixel Correction Benchmark ===")
	fmt.Println("Batch (full frame) vs Streaming (line buffer)")
	fmt.Println()

	fmt.Printf("%-10s | %-14s | %-14s | %-12s | %-8s\n", "Size", "Batch", "Streaming", "Stream Mpx/s", "Ratio")
	fmt.Println("-----------+----------------+----------------+--------------+---------")

	for _, size := range sizes {
		img, err := synth.Outliers(size, size, 12, 1, 0.01, 256)
		if err != nil {
			fmt.Printf("Failed to generate %dx%d frame: %v\n", size, size, err)
			return
		}

		batchTime := benchmarkBatch(img, cfg, iterations)
		streamTime := benchmarkStream(img, cfg, iterations)

		mpx := float64(size*size) / streamTime.Seconds() / 1e6
		ratio := float64(streamTime) / float64(batchTime)
		fmt.Printf("%-10s | %-14s | %-14s | %-12.1f | %-7.2fx\n",
			fmt.Sprintf("%dx%d", size, size),
			batchTime.Round(time.Microsecond),
			streamTime.Round(time.Microsecond),
			mpx,
			ratio)
	}

	fmt.Println()
	fmt.Println("=== Full pipeline (both paths, concurrent) ===")
	for _, size := range sizes {
		img, _ := synth.Outliers(size, size, 12, 1, 0.01, 256)
		opts := rawisp.DefaultOptions()
		opts.DPC = cfg

		start := time.Now()
		for i := 0; i < iterations; i++ {
			res, err := rawisp.Run(context.Background(), img, opts)
			if err != nil || res.Err() != nil {
				fmt.Printf("%dx%d: run failed: %v %v\n", size, size, err, res.Err())
				return
			}
		}
		fmt.Printf("%-10s | %s\n", fmt.Sprintf("%dx%d", size, size),
			(time.Since(start) / time.Duration(iterations)).Round(time.Microsecond))
	}

	fmt.Println()
	fmt.Println("=== Detailed Component Benchmarks ===")
	runDetailedBenchmarks()
}

func benchmarkBatch(img *rawisp.Image, cfg dpc.Config, iterations int) time.Duration {
	// Warmup
	dpc.Process(img, cfg)

	start := time.Now()
	for i := 0; i < iterations; i++ {
		dpc.Process(img, cfg)
	}
	return time.Since(start) / time.Duration(iterations)
}

func benchmarkStream(img *rawisp.Image, cfg dpc.Config, iterations int) time.Duration {
	ctx := context.Background()
	// Warmup
	dpc.ProcessStream(ctx, img, cfg)

	start := time.Now()
	for i := 0; i < iterations; i++ {
		dpc.ProcessStream(ctx, img, cfg)
	}
	return time.Since(start) / time.Duration(iterations)
}

func runDetailedBenchmarks() {
	fmt.Println()
	cmd := exec.Command("go", "test", "-bench=.", "-benchtime=1s", "./...")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Run()
}
