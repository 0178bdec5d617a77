package synth

import (
	"testing"

	"github.com/mrjoshuak/go-rawisp/internal/window"
)

func TestUniform_Deterministic(t *testing.T) {
	a, err := Uniform(32, 16, 12, 7)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := Uniform(32, 16, 12, 7)
	if !a.Equal(b) {
		t.Error("same seed produced different images")
	}
	c, _ := Uniform(32, 16, 12, 8)
	if a.Equal(c) {
		t.Error("different seeds produced identical images")
	}
	if err := a.Validate(); err != nil {
		t.Errorf("generated image invalid: %v", err)
	}
}

func TestRamp(t *testing.T) {
	img, err := Ramp(5, 4, 8)
	if err != nil {
		t.Fatal(err)
	}
	if img.Pixel(0, 0) != 0 {
		t.Errorf("top-left = %d, want 0", img.Pixel(0, 0))
	}
	if img.Pixel(4, 3) != 255 {
		t.Errorf("bottom-right = %d, want 255", img.Pixel(4, 3))
	}
	for y := 0; y < img.Height; y++ {
		for x := 1; x < img.Width; x++ {
			if img.Pixel(x, y) < img.Pixel(x-1, y) {
				t.Fatalf("ramp decreases at (%d, %d)", x, y)
			}
		}
	}

	one, err := Ramp(1, 1, 8)
	if err != nil || one.Pix[0] != 0 {
		t.Errorf("Ramp(1, 1) = %v, %v", one, err)
	}
}

func TestImpulse(t *testing.T) {
	img, err := Impulse(5, 5, 10)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range img.Pix {
		want := uint16(0)
		if i == 12 {
			want = 1023
		}
		if v != want {
			t.Errorf("Pix[%d] = %d, want %d", i, v, want)
		}
	}
}

func TestFlat_RejectsWideValue(t *testing.T) {
	if _, err := Flat(2, 2, 8, 256); err == nil {
		t.Error("Flat(256) on 8-bit image should fail")
	}
}

func TestOutliers(t *testing.T) {
	const w, h, margin = 64, 64, 300
	img, err := Outliers(w, h, 16, 3, 0.02, margin)
	if err != nil {
		t.Fatal(err)
	}
	again, _ := Outliers(w, h, 16, 3, 0.02, margin)
	if !img.Equal(again) {
		t.Fatal("same seed produced different images")
	}

	// With zero density the same seed yields the underlying field.
	base, err := Outliers(w, h, 16, 3, 0, margin)
	if err != nil {
		t.Fatal(err)
	}
	injected := 0
	for i := range img.Pix {
		if img.Pix[i] == base.Pix[i] {
			continue
		}
		injected++
		x, y := i%w, i/w
		lo, hi := neighborhoodRange(base, x, y)
		if c := int32(img.Pix[i]); c <= hi+margin && c >= lo-margin {
			t.Errorf("outlier at (%d, %d) = %d within [%d, %d] +/- margin", x, y, c, lo, hi)
		}
	}
	if injected == 0 {
		t.Error("no outliers injected at 2% density")
	}
	if injected > w*h/10 {
		t.Errorf("%d outliers, far more than 2%% of %d pixels", injected, w*h)
	}

	var outer [8]int32
	window.Gather(&outer, base, 0, 0, &window.Outer)
	if outer[window.UpLeft] != int32(base.Pixel(0, 0)) {
		t.Error("corner neighborhood does not clamp")
	}

	if _, err := Outliers(4, 4, 16, 1, 1.5, 0); err == nil {
		t.Error("density > 1 should fail")
	}
	if _, err := Outliers(4, 4, 16, 1, 0.1, -1); err == nil {
		t.Error("negative margin should fail")
	}
}

func TestTie(t *testing.T) {
	img, err := Tie(8)
	if err != nil {
		t.Fatal(err)
	}
	if img.Width != TieSize || img.Height != TieSize {
		t.Fatalf("size = %dx%d", img.Width, img.Height)
	}
	if _, err := Tie(6); err == nil {
		t.Error("Tie(6) should fail")
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, err)
		}
	}
	if _, err := ParseKind("checkerboard"); err == nil {
		t.Error("ParseKind(checkerboard) should fail")
	}
}

func TestGenerate(t *testing.T) {
	opts := DefaultOptions()
	opts.Width, opts.Height = 9, 7
	for _, k := range Kinds {
		t.Run(k.String(), func(t *testing.T) {
			img, err := Generate(k, opts)
			if err != nil {
				t.Fatal(err)
			}
			if err := img.Validate(); err != nil {
				t.Errorf("invalid image: %v", err)
			}
		})
	}
}
