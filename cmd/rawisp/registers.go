package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/mrjoshuak/go-rawisp/internal/config"
)

var registersCmd = &cobra.Command{
	Use:   "registers",
	Short: "List, export or import the register table of a configuration",
	RunE:  runRegistersList,
}

var registersExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the register table as CSV",
	RunE:  runRegistersExport,
}

var registersImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Merge a CSV register table into a configuration",
	RunE:  runRegistersImport,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration",
	RunE:  runInit,
}

func init() {
	registersCmd.PersistentFlags().StringP("config", "c", "vibe.json", "Configuration file")
	registersExportCmd.Flags().StringP("output", "o", "register_table.csv", "CSV file")
	registersImportCmd.Flags().StringP("table", "t", "register_table.csv", "CSV file")
	registersImportCmd.Flags().StringP("output", "o", "", "Configuration to write (default: overwrite --config)")
	registersCmd.AddCommand(registersExportCmd, registersImportCmd)
	rootCmd.AddCommand(registersCmd)

	initCmd.Flags().StringP("output", "o", "vibe.json", "Configuration file (.json, .yaml, .toml)")
	rootCmd.AddCommand(initCmd)
}

func runRegistersList(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	width := lo.Max(lo.Map(cfg.RegisterNames(), func(n string, _ int) int { return len(n) }))
	for _, name := range cfg.RegisterNames() {
		r := cfg.Registers[name]
		fmt.Printf("%-*s  %2d bits  [%d, %d]  %v\n", width, name, r.BitWidth, r.Min, r.Max, r.Values)
	}
	if missing, _ := lo.Difference(config.Required, cfg.RegisterNames()); len(missing) > 0 {
		fmt.Printf("missing: %v\n", missing)
	}
	return nil
}

func runRegistersExport(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	outputPath, _ := cmd.Flags().GetString("output")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	if err := cfg.WriteRegisterTable(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", outputPath, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("Exported %d registers to %s\n", len(cfg.Registers), outputPath)
	return nil
}

func runRegistersImport(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	tablePath, _ := cmd.Flags().GetString("table")
	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" {
		outputPath = configPath
	}

	// Parse rather than Load so relative paths are written back unchanged.
	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Parse(data, filepath.Ext(configPath))
	if err != nil {
		return fmt.Errorf("%s: %w", configPath, err)
	}
	f, err := os.Open(tablePath)
	if err != nil {
		return err
	}
	regs, err := config.ReadRegisterTable(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", tablePath, err)
	}
	cfg.MergeRegisters(regs)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Save(outputPath); err != nil {
		return err
	}
	fmt.Printf("Imported %d registers into %s\n", len(regs), outputPath)
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")
	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("%s already exists", outputPath)
	}
	cfg := config.Default()
	cfg.Image.RandomPath = "data/src_image_random_generate.txt"
	cfg.Output = config.OutputInfo{
		BatchCrop:  "data/alg_crop_output.txt",
		BatchDPC:   "data/alg_dpc_output.txt",
		StreamCrop: "data/hls_crop_output.txt",
		StreamDPC:  "data/hls_dpc_output.txt",
	}
	if err := cfg.Save(outputPath); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", outputPath)
	return nil
}
