package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrjoshuak/go-rawisp/internal/pixel"
	"github.com/mrjoshuak/go-rawisp/internal/rawio"
	"github.com/mrjoshuak/go-rawisp/internal/synth"
)

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate a synthetic source frame",
	RunE:  runGen,
}

func init() {
	d := synth.DefaultOptions()
	genCmd.Flags().StringP("output", "o", "", "Output file")
	genCmd.Flags().String("format", "", "Output format (default: from extension)")
	genCmd.Flags().String("pattern", "outliers", "Pattern: uniform, ramp, impulse, outliers, tie, flat")
	genCmd.Flags().Int("width", d.Width, "Frame width")
	genCmd.Flags().Int("height", d.Height, "Frame height")
	genCmd.Flags().Int("bit-depth", d.BitDepth, "Sample bit depth")
	genCmd.Flags().Uint64("seed", d.Seed, "Random seed")
	genCmd.Flags().Float64("density", d.Density, "Outlier probability per pixel")
	genCmd.Flags().Int("margin", d.Margin, "Distance of outliers beyond their neighborhood")
	genCmd.Flags().Uint16("value", 0, "Constant for the flat pattern")
	genCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(genCmd)
}

func runGen(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")
	formatStr, _ := cmd.Flags().GetString("format")
	patternStr, _ := cmd.Flags().GetString("pattern")

	var opts synth.Options
	opts.Width, _ = cmd.Flags().GetInt("width")
	opts.Height, _ = cmd.Flags().GetInt("height")
	opts.BitDepth, _ = cmd.Flags().GetInt("bit-depth")
	opts.Seed, _ = cmd.Flags().GetUint64("seed")
	opts.Density, _ = cmd.Flags().GetFloat64("density")
	opts.Margin, _ = cmd.Flags().GetInt("margin")
	opts.Value, _ = cmd.Flags().GetUint16("value")

	k, err := synth.ParseKind(patternStr)
	if err != nil {
		return err
	}
	img, err := synth.Generate(k, opts)
	if err != nil {
		return err
	}
	if err := saveImage(outputPath, formatStr, img); err != nil {
		return err
	}
	fmt.Printf("Generated %s %s frame: %s\n", k, img, outputPath)
	return nil
}

// saveImage writes img to path in the named format, or the format implied
// by the extension when format is empty.
func saveImage(path, format string, img *pixel.Image) error {
	if format == "" {
		return writeImage(path, img)
	}
	f, err := rawio.ParseFormat(format)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := rawio.Encode(file, f, img); err != nil {
		file.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return file.Close()
}
