package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mrjoshuak/go-rawisp/internal/config"
	"github.com/mrjoshuak/go-rawisp/internal/pixel"
	"github.com/mrjoshuak/go-rawisp/internal/rawio"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.Background())
}

func TestCasePath(t *testing.T) {
	tests := []struct {
		path  string
		index int
		n     int
		want  string
	}{
		{"out/alg.txt", 0, 1, "out/alg.txt"},
		{"out/alg.txt", 2, 3, "out/alg_2.txt"},
		{"out/alg", 1, 2, "out/alg_1"},
	}
	for _, tt := range tests {
		if got := casePath(tt.path, tt.index, tt.n); got != tt.want {
			t.Errorf("casePath(%q, %d, %d) = %q, want %q", tt.path, tt.index, tt.n, got, tt.want)
		}
	}
}

func TestInitRunCompare(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "vibe.json")

	if err := execute(t, "init", "-o", cfgPath); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := execute(t, "init", "-o", cfgPath); err == nil {
		t.Error("init overwrote an existing file")
	}
	if err := execute(t, "run", "-c", cfgPath, "--pattern", "outliers", "--seed", "5"); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, name := range []string{"alg_crop_output.txt", "alg_dpc_output.txt", "hls_crop_output.txt", "hls_dpc_output.txt", "src_image_random_generate.txt"} {
		if _, err := os.Stat(filepath.Join(dir, "data", name)); err != nil {
			t.Errorf("missing dump: %v", err)
		}
	}
	if err := execute(t, "compare", "-c", cfgPath); err != nil {
		t.Fatalf("compare: %v", err)
	}

	dump := filepath.Join(dir, "data", "hls_dpc_output.txt")
	samples, err := rawio.ReadSamples(dump, 16)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 48*48 {
		t.Errorf("streaming dump holds %d samples, want %d", len(samples), 48*48)
	}
	samples[100] ^= 1
	img, err := pixel.FromSlice(samples, 48, 48, 16)
	if err != nil {
		t.Fatal(err)
	}
	if err := rawio.WriteFile(dump, img); err != nil {
		t.Fatal(err)
	}
	if err := execute(t, "compare", "-c", cfgPath); err == nil {
		t.Error("compare accepted a corrupted dump")
	}
}

func TestRegistersRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "vibe.yaml")
	tablePath := filepath.Join(dir, "table.csv")
	outPath := filepath.Join(dir, "swept.toml")

	if err := execute(t, "init", "-o", cfgPath); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := execute(t, "registers", "export", "-c", cfgPath, "-o", tablePath); err != nil {
		t.Fatalf("export: %v", err)
	}
	table := "reg_name,bitwidth,initial_value,cons_min,cons_max\n" +
		"reg_dpc_threshold,16,0 32 4096,0,65535\n"
	if err := os.WriteFile(tablePath, []byte(table), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := execute(t, "registers", "import", "-c", cfgPath, "-t", tablePath, "-o", outPath); err != nil {
		t.Fatalf("import: %v", err)
	}

	cfg, err := config.Load(outPath)
	if err != nil {
		t.Fatal(err)
	}
	cases, err := cfg.Cases()
	if err != nil {
		t.Fatal(err)
	}
	if len(cases) != 3 || cases[2].DPC.Threshold != 4096 {
		t.Errorf("cases = %v, want a 3-case threshold sweep", cases)
	}
	if cfg.Image.RandomPath != filepath.Join(dir, "data", "src_image_random_generate.txt") {
		t.Errorf("RandomPath = %q", cfg.Image.RandomPath)
	}
}

func TestRegressCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.json")
	if err := execute(t, "regress", "-n", "20", "-s", "3", "-o", out); err != nil {
		t.Fatalf("regress: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Error(err)
	}
}

func TestStreamCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.raw")
	out := filepath.Join(dir, "out.txt")
	if err := execute(t, "gen", "-o", in, "--width", "20", "--height", "10", "--bit-depth", "12", "--pattern", "ramp"); err != nil {
		t.Fatalf("gen: %v", err)
	}
	if err := execute(t, "stream", "-i", in, "-o", out, "--width", "20", "--height", "10", "--bit-depth", "12", "--crop", "1,1,10,8", "--threshold", "16"); err != nil {
		t.Fatalf("stream: %v", err)
	}
	samples, err := rawio.ReadSamples(out, 12)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 10*8 {
		t.Errorf("output holds %d samples, want 80", len(samples))
	}
}
