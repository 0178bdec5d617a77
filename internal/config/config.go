// Package config loads run configurations.
//
// A configuration has three sections. image_info names the source frame,
// register_info holds the pipeline registers, and output_info names the dump
// files of the batch ("alg") and streaming ("hls") paths. Every register
// declares its bit width, legal range and a list of values; a list with more
// than one value describes a sweep, expanded by Cases.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/mrjoshuak/go-rawisp/internal/crop"
	"github.com/mrjoshuak/go-rawisp/internal/dpc"
	"github.com/mrjoshuak/go-rawisp/internal/pixel"
)

// Register names.
const (
	RegImageWidth   = "reg_image_width"
	RegImageHeight  = "reg_image_height"
	RegCropEnable   = "reg_crop_enable"
	RegCropStartX   = "reg_crop_start_x"
	RegCropStartY   = "reg_crop_start_y"
	RegCropEndX     = "reg_crop_end_x"
	RegCropEndY     = "reg_crop_end_y"
	RegDPCEnable    = "reg_dpc_enable"
	RegDPCThreshold = "reg_dpc_threshold"
)

// Required lists the registers every configuration must declare.
var Required = []string{
	RegImageWidth, RegImageHeight,
	RegCropEnable, RegCropStartX, RegCropStartY, RegCropEndX, RegCropEndY,
	RegDPCEnable, RegDPCThreshold,
}

// Config is a complete run configuration.
type Config struct {
	Image     ImageInfo           `json:"image_info" yaml:"image_info" toml:"image_info"`
	Registers map[string]Register `json:"register_info" yaml:"register_info" toml:"register_info"`
	Output    OutputInfo          `json:"output_info" yaml:"output_info" toml:"output_info"`
}

// ImageInfo describes the source frame.
type ImageInfo struct {
	Path     string `json:"image_path" yaml:"image_path" toml:"image_path"`
	Format   string `json:"image_format" yaml:"image_format" toml:"image_format"`
	BitDepth int    `json:"image_data_bitwidth" yaml:"image_data_bitwidth" toml:"image_data_bitwidth"`
	// GenerateRandom is non-zero when the source should be synthesized and
	// written to RandomPath instead of read from Path.
	GenerateRandom int    `json:"generate_random_image" yaml:"generate_random_image" toml:"generate_random_image"`
	RandomPath     string `json:"random_image_path" yaml:"random_image_path" toml:"random_image_path"`
}

// Register is one pipeline register.
type Register struct {
	BitWidth int   `json:"reg_bit_width" yaml:"reg_bit_width" toml:"reg_bit_width"`
	Min      int   `json:"reg_value_min" yaml:"reg_value_min" toml:"reg_value_min"`
	Max      int   `json:"reg_value_max" yaml:"reg_value_max" toml:"reg_value_max"`
	Values   []int `json:"reg_initial_value" yaml:"reg_initial_value" toml:"reg_initial_value"`
}

// At returns sweep value i; lists shorter than i+1 repeat their last value.
func (r Register) At(i int) int {
	if len(r.Values) == 0 {
		return 0
	}
	return r.Values[min(i, len(r.Values)-1)]
}

// OutputInfo names the dump files of each path and stage.
type OutputInfo struct {
	BatchCrop  string `json:"alg_crop_output_file" yaml:"alg_crop_output_file" toml:"alg_crop_output_file"`
	BatchDPC   string `json:"alg_dpc_output_file" yaml:"alg_dpc_output_file" toml:"alg_dpc_output_file"`
	StreamCrop string `json:"hls_crop_output_file" yaml:"hls_crop_output_file" toml:"hls_crop_output_file"`
	StreamDPC  string `json:"hls_dpc_output_file" yaml:"hls_dpc_output_file" toml:"hls_dpc_output_file"`
}

// Pair is a batch dump and the streaming dump it must equal.
type Pair struct {
	Stage  string
	Batch  string
	Stream string
}

// Pairs returns the configured batch/streaming dump pairs, skipping stages
// where either file is unset.
func (o OutputInfo) Pairs() []Pair {
	all := []Pair{
		{Stage: "crop", Batch: o.BatchCrop, Stream: o.StreamCrop},
		{Stage: "dpc", Batch: o.BatchDPC, Stream: o.StreamDPC},
	}
	return lo.Filter(all, func(p Pair, _ int) bool {
		return p.Batch != "" && p.Stream != ""
	})
}

// Load reads a configuration file. The decoder is chosen by extension:
// .json, .yaml/.yml or .toml. Relative paths inside the file are resolved
// against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.resolve(filepath.Dir(path))
	return cfg, nil
}

// Parse decodes a configuration. ext selects the syntax as in Load.
func Parse(data []byte, ext string) (*Config, error) {
	var cfg Config
	var err error
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "json":
		err = json.Unmarshal(data, &cfg)
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &cfg)
	case "toml":
		_, err = toml.Decode(string(data), &cfg)
	default:
		return nil, &pixel.ConfigError{Field: "config format", Msg: fmt.Sprintf("unsupported extension %q", ext)}
	}
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.Registers == nil {
		cfg.Registers = map[string]Register{}
	}
	return &cfg, nil
}

// Marshal encodes the configuration in the syntax selected by ext.
func (c *Config) Marshal(ext string) ([]byte, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "json":
		data, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case "yaml", "yml":
		return yaml.Marshal(c)
	case "toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, &pixel.ConfigError{Field: "config format", Msg: fmt.Sprintf("unsupported extension %q", ext)}
	}
}

// Save writes the configuration to path, choosing the syntax by extension.
func (c *Config) Save(path string) error {
	data, err := c.Marshal(filepath.Ext(path))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) resolve(dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	c.Image.Path = abs(c.Image.Path)
	c.Image.RandomPath = abs(c.Image.RandomPath)
	c.Output.BatchCrop = abs(c.Output.BatchCrop)
	c.Output.BatchDPC = abs(c.Output.BatchDPC)
	c.Output.StreamCrop = abs(c.Output.StreamCrop)
	c.Output.StreamDPC = abs(c.Output.StreamDPC)
}

// Validate checks the image section and every register.
func (c *Config) Validate() error {
	if c.Image.BitDepth != 0 {
		if err := pixel.CheckBitDepth(c.Image.BitDepth); err != nil {
			return err
		}
	}
	for _, name := range Required {
		if _, ok := c.Registers[name]; !ok {
			return &pixel.ConfigError{Field: name, Msg: "missing register"}
		}
	}
	for _, name := range c.RegisterNames() {
		if err := c.Registers[name].validate(name); err != nil {
			return err
		}
	}
	return nil
}

func (r Register) validate(name string) error {
	if r.BitWidth < 1 || r.BitWidth > 32 {
		return &pixel.ConfigError{Field: name, Msg: fmt.Sprintf("bit width %d outside [1, 32]", r.BitWidth)}
	}
	if r.Min > r.Max {
		return &pixel.ConfigError{Field: name, Msg: fmt.Sprintf("min %d exceeds max %d", r.Min, r.Max)}
	}
	if r.Min < 0 || int64(r.Max) >= int64(1)<<r.BitWidth {
		return &pixel.ConfigError{Field: name, Msg: fmt.Sprintf("range [%d, %d] does not fit %d bits", r.Min, r.Max, r.BitWidth)}
	}
	if len(r.Values) == 0 {
		return &pixel.ConfigError{Field: name, Msg: "no values"}
	}
	for i, v := range r.Values {
		if v < r.Min || v > r.Max {
			return &pixel.ConfigError{Field: name, Msg: fmt.Sprintf("value[%d] = %d outside [%d, %d]", i, v, r.Min, r.Max)}
		}
	}
	return nil
}

// RegisterNames returns the register names in sorted order.
func (c *Config) RegisterNames() []string {
	names := lo.Keys(c.Registers)
	sort.Strings(names)
	return names
}

// BitDepth returns the configured sample width, defaulting to 16.
func (c *Config) BitDepth() int {
	if c.Image.BitDepth == 0 {
		return pixel.DefaultBitDepth
	}
	return c.Image.BitDepth
}

// Case is one fully resolved register setting.
type Case struct {
	Index      int
	Width      int
	Height     int
	CropEnable bool
	Region     crop.Region
	DPC        dpc.Config
}

func (k Case) String() string {
	return fmt.Sprintf("case %d: %dx%d crop=%v %s dpc=%v threshold=%d",
		k.Index, k.Width, k.Height, k.CropEnable, k.Region, k.DPC.Enable, k.DPC.Threshold)
}

// Cases expands the register value lists into sweep cases. Case i takes
// element i of every register; shorter lists repeat their last value. The
// number of cases is the length of the longest list.
func (c *Config) Cases() ([]Case, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	n := lo.Max(lo.Map(lo.Values(c.Registers), func(r Register, _ int) int {
		return len(r.Values)
	}))

	reg := func(name string, i int) int { return c.Registers[name].At(i) }
	return lo.Times(n, func(i int) Case {
		return Case{
			Index:      i,
			Width:      reg(RegImageWidth, i),
			Height:     reg(RegImageHeight, i),
			CropEnable: reg(RegCropEnable, i) != 0,
			Region: crop.Region{
				StartX: reg(RegCropStartX, i),
				StartY: reg(RegCropStartY, i),
				EndX:   reg(RegCropEndX, i),
				EndY:   reg(RegCropEndY, i),
			},
			DPC: dpc.Config{
				Enable:    reg(RegDPCEnable, i) != 0,
				Threshold: reg(RegDPCThreshold, i),
			},
		}
	}), nil
}

// Default returns a configuration for a 64x64 16-bit synthesized frame with
// a centered 48x48 crop and correction at threshold 64.
func Default() *Config {
	r := func(bits, low, high int, v ...int) Register {
		return Register{BitWidth: bits, Min: low, Max: high, Values: v}
	}
	return &Config{
		Image: ImageInfo{
			Format:         "hex",
			BitDepth:       pixel.DefaultBitDepth,
			GenerateRandom: 1,
		},
		Registers: map[string]Register{
			RegImageWidth:   r(13, 1, 8191, 64),
			RegImageHeight:  r(13, 1, 8191, 64),
			RegCropEnable:   r(1, 0, 1, 1),
			RegCropStartX:   r(13, 0, 8191, 8),
			RegCropStartY:   r(13, 0, 8191, 8),
			RegCropEndX:     r(13, 0, 8191, 55),
			RegCropEndY:     r(13, 0, 8191, 55),
			RegDPCEnable:    r(1, 0, 1, 1),
			RegDPCThreshold: r(16, 0, 65535, 64),
		},
	}
}
