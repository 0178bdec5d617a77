package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrjoshuak/go-rawisp/internal/config"
	"github.com/mrjoshuak/go-rawisp/internal/equiv"
	"github.com/mrjoshuak/go-rawisp/internal/rawio"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare the batch and streaming dumps named in a configuration",
	RunE:  runCompare,
}

func init() {
	compareCmd.Flags().StringP("config", "c", "vibe.json", "Configuration file")
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	log := newLogger(cmd)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cases, err := cfg.Cases()
	if err != nil {
		return err
	}
	pairs := cfg.Output.Pairs()
	if len(pairs) == 0 {
		return fmt.Errorf("%s: output_info names no alg/hls file pair", configPath)
	}

	differ := 0
	for _, c := range cases {
		width := c.Width
		if c.CropEnable {
			width = c.Region.Width()
		}
		for _, p := range pairs {
			batchPath := casePath(p.Batch, c.Index, len(cases))
			streamPath := casePath(p.Stream, c.Index, len(cases))
			rep, err := comparePair(batchPath, streamPath, cfg.BitDepth(), width)
			if err != nil {
				return err
			}
			log.Debug("compared", "stage", p.Stage, "batch", batchPath, "stream", streamPath)
			status := "MATCH"
			if !rep.Equal {
				status = "DIFFER"
				differ++
			}
			fmt.Printf("case %d %-4s %-6s %s\n", c.Index, p.Stage, status, rep)
		}
	}
	if differ > 0 {
		return fmt.Errorf("%d comparisons differ", differ)
	}
	return nil
}

func comparePair(batchPath, streamPath string, bitDepth, width int) (equiv.Report, error) {
	a, err := rawio.ReadSamples(batchPath, bitDepth)
	if err != nil {
		return equiv.Report{}, err
	}
	b, err := rawio.ReadSamples(streamPath, bitDepth)
	if err != nil {
		return equiv.Report{}, err
	}
	return equiv.CompareImage(a, b, width), nil
}
