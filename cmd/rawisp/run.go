package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	rawisp "github.com/mrjoshuak/go-rawisp"
	"github.com/mrjoshuak/go-rawisp/internal/config"
	"github.com/mrjoshuak/go-rawisp/internal/pixel"
	"github.com/mrjoshuak/go-rawisp/internal/rawio"
	"github.com/mrjoshuak/go-rawisp/internal/synth"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every register case of a configuration through both paths",
	RunE:  runRun,
}

func init() {
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "vibe.json", "Configuration file (.json, .yaml, .toml)")
	cmd.Flags().String("pattern", "uniform", "Generator for random source images")
	cmd.Flags().Uint64("seed", 1, "Seed for random source images")
	cmd.Flags().Bool("streaming", true, "Feed the streaming path through the streaming crop")
}

// runOptions are the flags shared by run and watch.
type runOptions struct {
	configPath string
	pattern    synth.Kind
	seed       uint64
	streaming  bool
}

func parseRunOptions(cmd *cobra.Command) (runOptions, error) {
	var ro runOptions
	ro.configPath, _ = cmd.Flags().GetString("config")
	ro.seed, _ = cmd.Flags().GetUint64("seed")
	ro.streaming, _ = cmd.Flags().GetBool("streaming")
	name, _ := cmd.Flags().GetString("pattern")
	k, err := synth.ParseKind(name)
	if err != nil {
		return ro, err
	}
	ro.pattern = k
	return ro, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	ro, err := parseRunOptions(cmd)
	if err != nil {
		return err
	}
	return runConfig(cmd.Context(), ro, newLogger(cmd))
}

// runConfig loads the configuration and runs every case, writing the
// configured dumps. It fails if any case fails or diverges.
func runConfig(ctx context.Context, ro runOptions, log *slog.Logger) error {
	cfg, err := config.Load(ro.configPath)
	if err != nil {
		return err
	}
	cases, err := cfg.Cases()
	if err != nil {
		return fmt.Errorf("%s: %w", ro.configPath, err)
	}
	log.Info("configuration loaded", "path", ro.configPath, "cases", len(cases), "bit_depth", cfg.BitDepth())

	failed := 0
	for _, c := range cases {
		if err := runCase(ctx, cfg, c, len(cases), ro, log); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error("case failed", "case", c.Index, "error", err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d cases failed", failed, len(cases))
	}
	return nil
}

func runCase(ctx context.Context, cfg *config.Config, c config.Case, n int, ro runOptions, log *slog.Logger) error {
	log.Debug("case", "config", c.String())
	img, err := sourceImage(cfg, c, n, ro)
	if err != nil {
		return err
	}

	res, err := rawisp.Run(ctx, img, &rawisp.Options{
		CropEnable: c.CropEnable,
		Region:     c.Region,
		DPC:        c.DPC,
		Streaming:  ro.streaming,
		Logger:     log,
	})
	if err != nil {
		return err
	}

	dumps := []struct {
		path string
		img  *pixel.Image
	}{
		{cfg.Output.BatchCrop, res.Cropped},
		{cfg.Output.BatchDPC, res.Batch},
		{cfg.Output.StreamCrop, res.StreamCropped},
		{cfg.Output.StreamDPC, res.Stream},
	}
	for _, d := range dumps {
		if d.path == "" {
			continue
		}
		path := casePath(d.path, c.Index, n)
		if err := writeImage(path, d.img); err != nil {
			return err
		}
		log.Debug("dump written", "path", path, "samples", len(d.img.Pix))
	}

	fmt.Printf("case %d: %s -> %s, %s\n", c.Index, img, res.Batch, res.Summary)
	fmt.Printf("  batch:  %s\n", res.BatchStats)
	fmt.Printf("  stream: %s\n", res.StreamStats)
	fmt.Printf("  crop:   %s\n", res.CropEquiv)
	fmt.Printf("  dpc:    %s\n", res.Equiv)
	return res.Err()
}

// sourceImage synthesizes or reads the source frame of case c.
func sourceImage(cfg *config.Config, c config.Case, n int, ro runOptions) (*pixel.Image, error) {
	bd := cfg.BitDepth()
	if cfg.Image.GenerateRandom != 0 {
		img, err := synth.Generate(ro.pattern, synth.Options{
			Width:    c.Width,
			Height:   c.Height,
			BitDepth: bd,
			Seed:     ro.seed + uint64(c.Index),
			Density:  0.01,
			Margin:   int(pixel.MaxValue(bd)) / 16,
			Value:    pixel.MaxValue(bd) / 2,
		})
		if err != nil {
			return nil, err
		}
		if cfg.Image.RandomPath != "" {
			if err := writeImage(casePath(cfg.Image.RandomPath, c.Index, n), img); err != nil {
				return nil, err
			}
		}
		return img, nil
	}

	if cfg.Image.Path == "" {
		return nil, &pixel.ConfigError{Field: "image_path", Msg: "no source image and random generation is off"}
	}
	hdr := rawio.Header{Width: c.Width, Height: c.Height, BitDepth: bd}
	var img *pixel.Image
	var err error
	if cfg.Image.Format != "" {
		img, err = readAs(cfg.Image.Path, cfg.Image.Format, hdr)
	} else {
		img, err = rawio.ReadFile(cfg.Image.Path, hdr)
	}
	if err != nil {
		return nil, err
	}
	if img.Width != c.Width || img.Height != c.Height {
		return nil, &pixel.ConfigError{
			Field: config.RegImageWidth,
			Msg:   fmt.Sprintf("registers say %dx%d but %s is %dx%d", c.Width, c.Height, cfg.Image.Path, img.Width, img.Height),
		}
	}
	return img, nil
}

// readAs reads path in an explicitly named format, ignoring its extension.
func readAs(path, format string, hdr rawio.Header) (*pixel.Image, error) {
	f, err := rawio.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, err := rawio.Decode(file, f, hdr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

func writeImage(path string, img *pixel.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return rawio.WriteFile(path, img)
}

// casePath suffixes path with the case index when a sweep has more than one
// case, so cases do not overwrite each other's dumps.
func casePath(path string, index, n int) string {
	if n <= 1 {
		return path
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(path, ext), index, ext)
}
