package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mrjoshuak/go-rawisp/internal/crop"
	"github.com/mrjoshuak/go-rawisp/internal/dpc"
	"github.com/mrjoshuak/go-rawisp/internal/pixel"
)

const jsonConfig = `{
	"image_info": {
		"image_path": "data/src_image.txt",
		"image_format": "hex",
		"image_data_bitwidth": 12,
		"generate_random_image": 0,
		"random_image_path": "data/src_image_random_generate.txt"
	},
	"register_info": {
		"reg_image_width":   {"reg_bit_width": 13, "reg_value_min": 1, "reg_value_max": 8191, "reg_initial_value": [32, 16]},
		"reg_image_height":  {"reg_bit_width": 13, "reg_value_min": 1, "reg_value_max": 8191, "reg_initial_value": [24]},
		"reg_crop_enable":   {"reg_bit_width": 1, "reg_value_min": 0, "reg_value_max": 1, "reg_initial_value": [1, 0, 1]},
		"reg_crop_start_x":  {"reg_bit_width": 13, "reg_value_min": 0, "reg_value_max": 8191, "reg_initial_value": [2]},
		"reg_crop_start_y":  {"reg_bit_width": 13, "reg_value_min": 0, "reg_value_max": 8191, "reg_initial_value": [3]},
		"reg_crop_end_x":    {"reg_bit_width": 13, "reg_value_min": 0, "reg_value_max": 8191, "reg_initial_value": [9]},
		"reg_crop_end_y":    {"reg_bit_width": 13, "reg_value_min": 0, "reg_value_max": 8191, "reg_initial_value": [10]},
		"reg_dpc_enable":    {"reg_bit_width": 1, "reg_value_min": 0, "reg_value_max": 1, "reg_initial_value": [1]},
		"reg_dpc_threshold": {"reg_bit_width": 16, "reg_value_min": 0, "reg_value_max": 65535, "reg_initial_value": [0, 1, 255]}
	},
	"output_info": {
		"alg_crop_output_file": "out/alg_crop_output.txt",
		"alg_dpc_output_file": "out/alg_dpc_output.txt",
		"hls_crop_output_file": "out/hls_crop_output.txt",
		"hls_dpc_output_file": ""
	}
}`

const yamlConfig = `
image_info:
  image_path: data/src_image.txt
  image_format: hex
  image_data_bitwidth: 12
  generate_random_image: 0
  random_image_path: data/src_image_random_generate.txt
register_info:
  reg_image_width:   {reg_bit_width: 13, reg_value_min: 1, reg_value_max: 8191, reg_initial_value: [32, 16]}
  reg_image_height:  {reg_bit_width: 13, reg_value_min: 1, reg_value_max: 8191, reg_initial_value: [24]}
  reg_crop_enable:   {reg_bit_width: 1, reg_value_min: 0, reg_value_max: 1, reg_initial_value: [1, 0, 1]}
  reg_crop_start_x:  {reg_bit_width: 13, reg_value_min: 0, reg_value_max: 8191, reg_initial_value: [2]}
  reg_crop_start_y:  {reg_bit_width: 13, reg_value_min: 0, reg_value_max: 8191, reg_initial_value: [3]}
  reg_crop_end_x:    {reg_bit_width: 13, reg_value_min: 0, reg_value_max: 8191, reg_initial_value: [9]}
  reg_crop_end_y:    {reg_bit_width: 13, reg_value_min: 0, reg_value_max: 8191, reg_initial_value: [10]}
  reg_dpc_enable:    {reg_bit_width: 1, reg_value_min: 0, reg_value_max: 1, reg_initial_value: [1]}
  reg_dpc_threshold: {reg_bit_width: 16, reg_value_min: 0, reg_value_max: 65535, reg_initial_value: [0, 1, 255]}
output_info:
  alg_crop_output_file: out/alg_crop_output.txt
  alg_dpc_output_file: out/alg_dpc_output.txt
  hls_crop_output_file: out/hls_crop_output.txt
  hls_dpc_output_file: ""
`

const tomlConfig = `
[image_info]
image_path = "data/src_image.txt"
image_format = "hex"
image_data_bitwidth = 12
generate_random_image = 0
random_image_path = "data/src_image_random_generate.txt"

[register_info]
reg_image_width   = { reg_bit_width = 13, reg_value_min = 1, reg_value_max = 8191, reg_initial_value = [32, 16] }
reg_image_height  = { reg_bit_width = 13, reg_value_min = 1, reg_value_max = 8191, reg_initial_value = [24] }
reg_crop_enable   = { reg_bit_width = 1, reg_value_min = 0, reg_value_max = 1, reg_initial_value = [1, 0, 1] }
reg_crop_start_x  = { reg_bit_width = 13, reg_value_min = 0, reg_value_max = 8191, reg_initial_value = [2] }
reg_crop_start_y  = { reg_bit_width = 13, reg_value_min = 0, reg_value_max = 8191, reg_initial_value = [3] }
reg_crop_end_x    = { reg_bit_width = 13, reg_value_min = 0, reg_value_max = 8191, reg_initial_value = [9] }
reg_crop_end_y    = { reg_bit_width = 13, reg_value_min = 0, reg_value_max = 8191, reg_initial_value = [10] }
reg_dpc_enable    = { reg_bit_width = 1, reg_value_min = 0, reg_value_max = 1, reg_initial_value = [1] }
reg_dpc_threshold = { reg_bit_width = 16, reg_value_min = 0, reg_value_max = 65535, reg_initial_value = [0, 1, 255] }

[output_info]
alg_crop_output_file = "out/alg_crop_output.txt"
alg_dpc_output_file = "out/alg_dpc_output.txt"
hls_crop_output_file = "out/hls_crop_output.txt"
hls_dpc_output_file = ""
`

func TestParse_Syntaxes(t *testing.T) {
	want, err := Parse([]byte(jsonConfig), ".json")
	if err != nil {
		t.Fatalf("Parse(json) error = %v", err)
	}
	if want.Image.BitDepth != 12 || len(want.Registers) != 9 {
		t.Fatalf("Parse(json) = %+v", want)
	}

	for _, tt := range []struct {
		ext, data string
	}{
		{".yaml", yamlConfig},
		{"yml", yamlConfig},
		{".toml", tomlConfig},
	} {
		got, err := Parse([]byte(tt.data), tt.ext)
		if err != nil {
			t.Fatalf("Parse(%s) error = %v", tt.ext, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Parse(%s) differs from json (-json +%s):\n%s", tt.ext, tt.ext, diff)
		}
	}

	if _, err := Parse([]byte("{}"), ".ini"); err == nil {
		t.Error("Parse(.ini) succeeded")
	}
	if _, err := Parse([]byte("{"), ".json"); err == nil {
		t.Error("Parse(malformed json) succeeded")
	}
}

func TestCases_Sweep(t *testing.T) {
	cfg, err := Parse([]byte(jsonConfig), ".json")
	if err != nil {
		t.Fatal(err)
	}
	cases, err := cfg.Cases()
	if err != nil {
		t.Fatal(err)
	}
	region := crop.Region{StartX: 2, StartY: 3, EndX: 9, EndY: 10}
	want := []Case{
		{Index: 0, Width: 32, Height: 24, CropEnable: true, Region: region, DPC: dpc.Config{Enable: true, Threshold: 0}},
		{Index: 1, Width: 16, Height: 24, CropEnable: false, Region: region, DPC: dpc.Config{Enable: true, Threshold: 1}},
		{Index: 2, Width: 16, Height: 24, CropEnable: true, Region: region, DPC: dpc.Config{Enable: true, Threshold: 255}},
	}
	if diff := cmp.Diff(want, cases); diff != "" {
		t.Errorf("Cases() mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"missing register", func(c *Config) { delete(c.Registers, RegDPCThreshold) }, RegDPCThreshold},
		{"value above max", func(c *Config) {
			r := c.Registers[RegCropEnable]
			r.Values = []int{2}
			c.Registers[RegCropEnable] = r
		}, RegCropEnable},
		{"range wider than bit width", func(c *Config) {
			r := c.Registers[RegImageWidth]
			r.Max = 1 << 13
			c.Registers[RegImageWidth] = r
		}, RegImageWidth},
		{"min above max", func(c *Config) {
			r := c.Registers[RegDPCThreshold]
			r.Min, r.Max = 10, 5
			c.Registers[RegDPCThreshold] = r
		}, RegDPCThreshold},
		{"empty values", func(c *Config) {
			r := c.Registers[RegCropStartX]
			r.Values = nil
			c.Registers[RegCropStartX] = r
		}, RegCropStartX},
		{"bit depth", func(c *Config) { c.Image.BitDepth = 17 }, "bit depth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			var ce *pixel.ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("Validate() error = %v, want *pixel.ConfigError", err)
			}
			if ce.Field != tt.field {
				t.Errorf("Field = %q, want %q", ce.Field, tt.field)
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestOutputPairs(t *testing.T) {
	cfg, _ := Parse([]byte(jsonConfig), ".json")
	pairs := cfg.Output.Pairs()
	want := []Pair{{Stage: "crop", Batch: "out/alg_crop_output.txt", Stream: "out/hls_crop_output.txt"}}
	if diff := cmp.Diff(want, pairs); diff != "" {
		t.Errorf("Pairs() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_ResolvesPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vibe.json")
	if err := os.WriteFile(path, []byte(jsonConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data/src_image.txt"); cfg.Image.Path != want {
		t.Errorf("Image.Path = %q, want %q", cfg.Image.Path, want)
	}
	if cfg.Output.StreamDPC != "" {
		t.Errorf("empty path resolved to %q", cfg.Output.StreamDPC)
	}
}

func TestRegisterTable_RoundTrip(t *testing.T) {
	cfg, _ := Parse([]byte(jsonConfig), ".json")
	var buf bytes.Buffer
	if err := cfg.WriteRegisterTable(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "reg_name,bitwidth,initial_value,cons_min,cons_max\n") {
		t.Errorf("table header = %q", strings.SplitN(buf.String(), "\n", 2)[0])
	}
	if !strings.Contains(buf.String(), "reg_dpc_threshold,16,0 1 255,0,65535\n") {
		t.Errorf("table missing sweep row:\n%s", buf.String())
	}

	regs, err := ReadRegisterTable(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(cfg.Registers, regs); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	merged := Default()
	merged.MergeRegisters(map[string]Register{RegDPCThreshold: regs[RegDPCThreshold]})
	if got := merged.Registers[RegDPCThreshold].At(5); got != 255 {
		t.Errorf("merged threshold At(5) = %d, want 255", got)
	}
}

func TestReadRegisterTable_Errors(t *testing.T) {
	if _, err := ReadRegisterTable(strings.NewReader("name,width\n")); err == nil {
		t.Error("bad header accepted")
	}
	bad := "reg_name,bitwidth,initial_value,cons_min,cons_max\nreg_x,eight,1,0,1\n"
	if _, err := ReadRegisterTable(strings.NewReader(bad)); err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("bad row error = %v, want line 2", err)
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	want := Default()
	want.Output.BatchDPC = "alg_dpc_output.txt"
	want.Output.StreamDPC = "hls_dpc_output.txt"
	for _, ext := range []string{".json", ".yaml", ".toml"} {
		t.Run(ext, func(t *testing.T) {
			data, err := want.Marshal(ext)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			got, err := Parse(data, ext)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
	if _, err := want.Marshal(".ini"); err == nil {
		t.Error("Marshal(.ini) succeeded")
	}

	path := filepath.Join(t.TempDir(), "vibe.yaml")
	if err := want.Save(path); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Registers[RegDPCThreshold].At(0) != 64 {
		t.Errorf("saved threshold = %d, want 64", got.Registers[RegDPCThreshold].At(0))
	}
}
