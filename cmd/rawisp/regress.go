package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrjoshuak/go-rawisp/internal/regress"
)

var regressCmd = &cobra.Command{
	Use:   "regress",
	Short: "Run randomized regression cases and export a JSON report",
	RunE:  runRegress,
}

func init() {
	d := regress.DefaultOptions()
	regressCmd.Flags().IntP("count", "n", d.Count, "Number of cases")
	regressCmd.Flags().Uint64P("seed", "s", 0, "Random seed (default: current time)")
	regressCmd.Flags().Int("max-dim", d.MaxDim, "Largest random frame width and height")
	regressCmd.Flags().Int("workers", 0, "Cases run at once (default: GOMAXPROCS)")
	regressCmd.Flags().Bool("streaming", d.Streaming, "Feed the streaming path through the streaming crop")
	regressCmd.Flags().StringP("output", "o", "test_results.json", "Report file")
	rootCmd.AddCommand(regressCmd)
}

func runRegress(cmd *cobra.Command, args []string) error {
	opts := regress.DefaultOptions()
	opts.Count, _ = cmd.Flags().GetInt("count")
	opts.Seed, _ = cmd.Flags().GetUint64("seed")
	opts.MaxDim, _ = cmd.Flags().GetInt("max-dim")
	opts.Workers, _ = cmd.Flags().GetInt("workers")
	opts.Streaming, _ = cmd.Flags().GetBool("streaming")
	outputPath, _ := cmd.Flags().GetString("output")
	if opts.Seed == 0 {
		opts.Seed = uint64(time.Now().Unix())
	}
	opts.Logger = newLogger(cmd)

	rep, err := regress.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}
	for _, f := range rep.Failures() {
		fmt.Printf("test %d: %s\n  config: %+v\n", f.TestID, f.Message, f.Config)
	}
	fmt.Println(rep)

	if err := rep.WriteFile(outputPath); err != nil {
		return err
	}
	fmt.Printf("Report: %s\n", outputPath)
	if !rep.OK() {
		return fmt.Errorf("%d of %d cases failed", rep.Failed, rep.TestCount)
	}
	return nil
}
