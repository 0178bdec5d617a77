// Package synth generates deterministic test images.
//
// Random generators take an explicit seed and draw from gonum distributions
// backed by a PCG source, so a seed always reproduces the same frame.
package synth

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/mrjoshuak/go-rawisp/internal/pixel"
	"github.com/mrjoshuak/go-rawisp/internal/window"
)

// Kind names a generator.
type Kind int

const (
	KindUniform Kind = iota
	KindRamp
	KindImpulse
	KindOutliers
	KindTie
	KindFlat
)

// Kinds lists every generator in declaration order.
var Kinds = []Kind{KindUniform, KindRamp, KindImpulse, KindOutliers, KindTie, KindFlat}

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindUniform:
		return "uniform"
	case KindRamp:
		return "ramp"
	case KindImpulse:
		return "impulse"
	case KindOutliers:
		return "outliers"
	case KindTie:
		return "tie"
	case KindFlat:
		return "flat"
	default:
		return "Unknown"
	}
}

// ParseKind returns the kind with the given name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, &pixel.ConfigError{Field: "pattern", Msg: fmt.Sprintf("unknown pattern %q", s)}
}

// Options configures Generate.
type Options struct {
	Width, Height int
	BitDepth      int
	Seed          uint64
	// Density is the outlier probability per pixel for KindOutliers.
	Density float64
	// Margin is how far injected outliers sit beyond their neighborhood.
	Margin int
	// Value is the constant for KindFlat.
	Value uint16
}

// DefaultOptions returns options for a 64x64 16-bit frame with 1% outliers.
func DefaultOptions() Options {
	return Options{
		Width:    64,
		Height:   64,
		BitDepth: pixel.DefaultBitDepth,
		Seed:     1,
		Density:  0.01,
		Margin:   256,
	}
}

// Generate builds an image of the given kind.
func Generate(k Kind, opts Options) (*pixel.Image, error) {
	switch k {
	case KindUniform:
		return Uniform(opts.Width, opts.Height, opts.BitDepth, opts.Seed)
	case KindRamp:
		return Ramp(opts.Width, opts.Height, opts.BitDepth)
	case KindImpulse:
		return Impulse(opts.Width, opts.Height, opts.BitDepth)
	case KindOutliers:
		return Outliers(opts.Width, opts.Height, opts.BitDepth, opts.Seed, opts.Density, opts.Margin)
	case KindTie:
		return Tie(opts.BitDepth)
	case KindFlat:
		return Flat(opts.Width, opts.Height, opts.BitDepth, opts.Value)
	default:
		return nil, &pixel.ConfigError{Field: "pattern", Msg: fmt.Sprintf("unknown pattern %d", k)}
	}
}

// Uniform fills every pixel independently from [0, max].
func Uniform(width, height, bitDepth int, seed uint64) (*pixel.Image, error) {
	img, err := pixel.New(width, height, bitDepth)
	if err != nil {
		return nil, err
	}
	limit := float64(img.MaxValue())
	u := distuv.Uniform{Min: 0, Max: limit + 1, Src: rand.NewSource(seed)}
	for i := range img.Pix {
		img.Pix[i] = quantize(u.Rand(), limit)
	}
	return img, nil
}

// Ramp is a diagonal gradient from 0 at the top-left to max at the
// bottom-right.
func Ramp(width, height, bitDepth int) (*pixel.Image, error) {
	img, err := pixel.New(width, height, bitDepth)
	if err != nil {
		return nil, err
	}
	span := width + height - 2
	if span == 0 {
		return img, nil
	}
	limit := int(img.MaxValue())
	for y := 0; y < height; y++ {
		row := img.Row(y)
		for x := range row {
			row[x] = uint16((x + y) * limit / span)
		}
	}
	return img, nil
}

// Impulse is a zero image with a single max-valued pixel at the center.
func Impulse(width, height, bitDepth int) (*pixel.Image, error) {
	img, err := pixel.New(width, height, bitDepth)
	if err != nil {
		return nil, err
	}
	img.Pix[(height/2)*width+width/2] = img.MaxValue()
	return img, nil
}

// Flat fills every pixel with v.
func Flat(width, height, bitDepth int, v uint16) (*pixel.Image, error) {
	img, err := pixel.New(width, height, bitDepth)
	if err != nil {
		return nil, err
	}
	if v > img.MaxValue() {
		return nil, &pixel.ConfigError{Field: "value", Msg: fmt.Sprintf("%d exceeds %d-bit range", v, bitDepth)}
	}
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img, nil
}

// Outliers draws a smooth gaussian field and then, with probability density
// per pixel, pushes a pixel more than margin above or below every sample of
// its clamp-extended 5x5 neighborhood. Pixels whose neighborhood leaves no
// room in the bit range are left alone.
func Outliers(width, height, bitDepth int, seed uint64, density float64, margin int) (*pixel.Image, error) {
	if density < 0 || density > 1 {
		return nil, &pixel.ConfigError{Field: "density", Msg: fmt.Sprintf("%v outside [0, 1]", density)}
	}
	if margin < 0 {
		return nil, &pixel.ConfigError{Field: "margin", Msg: fmt.Sprintf("%d must be non-negative", margin)}
	}
	base, err := pixel.New(width, height, bitDepth)
	if err != nil {
		return nil, err
	}

	src := rand.NewSource(seed)
	limit := float64(base.MaxValue())
	field := distuv.Normal{Mu: limit / 2, Sigma: limit / 32, Src: src}
	for i := range base.Pix {
		base.Pix[i] = quantize(field.Rand(), limit)
	}

	out := base.Clone()
	pick := distuv.Bernoulli{P: density, Src: src}
	side := distuv.Bernoulli{P: 0.5, Src: src}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if pick.Rand() == 0 {
				continue
			}
			lo, hi := neighborhoodRange(base, x, y)
			up := hi + int32(margin) + 1
			down := lo - int32(margin) - 1
			switch {
			case side.Rand() == 1 && up <= int32(limit):
				out.Pix[y*width+x] = uint16(up)
			case down >= 0:
				out.Pix[y*width+x] = uint16(down)
			case up <= int32(limit):
				out.Pix[y*width+x] = uint16(up)
			}
		}
	}
	return out, nil
}

func neighborhoodRange(img *pixel.Image, x, y int) (lo, hi int32) {
	var outer, inner [8]int32
	window.Gather(&outer, img, x, y, &window.Outer)
	window.Gather(&inner, img, x, y, &window.Inner)
	lo, hi = outer[0], outer[0]
	for _, v := range append(outer[:], inner[:]...) {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}

// TieSize is the side length of the Tie image.
const TieSize = 7

// Tie returns a 7x7 image whose center is a defect with the horizontal and
// main-diagonal gradients tied for smallest. The immediate horizontal and
// diagonal neighbors differ, so the replacement reveals which direction won:
// 81 for horizontal, 100 for main diagonal. Any threshold below 70 corrects
// the center.
func Tie(bitDepth int) (*pixel.Image, error) {
	if bitDepth < 8 {
		return nil, &pixel.ConfigError{Field: "bit depth", Msg: fmt.Sprintf("tie pattern needs at least 8 bits, got %d", bitDepth)}
	}
	img, err := Flat(TieSize, TieSize, bitDepth, 100)
	if err != nil {
		return nil, err
	}
	set := func(x, y int, v uint16) { img.Pix[y*TieSize+x] = v }
	const c = TieSize / 2
	set(c, c, 10)
	// Vertical and anti-diagonal outer samples raise those gradients.
	set(c, c-2, 120)
	set(c, c+2, 120)
	set(c+2, c-2, 130)
	set(c-2, c+2, 130)
	// Horizontal immediate neighbors.
	set(c-1, c, 80)
	set(c+1, c, 82)
	return img, nil
}

func quantize(v, limit float64) uint16 {
	return uint16(math.Max(0, math.Min(limit, math.Floor(v))))
}
