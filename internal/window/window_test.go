package window

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// grid is a minimal Source for tests.
type grid struct {
	w, h int
	pix  []uint16
}

func (g grid) Size() (int, int)      { return g.w, g.h }
func (g grid) Pixel(x, y int) uint16 { return g.pix[y*g.w+x] }

func numbered(w, h int) grid {
	g := grid{w: w, h: h, pix: make([]uint16, w*h)}
	for i := range g.pix {
		g.pix[i] = uint16(i)
	}
	return g
}

func TestAt_CornerClamp(t *testing.T) {
	g := numbered(6, 4)
	if got := At(g, -2, -2); got != 0 {
		t.Errorf("At(-2, -2) = %d, want image[0][0] = 0", got)
	}
	if got := At(g, 7, 5); got != 23 {
		t.Errorf("At(7, 5) = %d, want image[3][5] = 23", got)
	}
	if got := At(g, -1, 2); got != 12 {
		t.Errorf("At(-1, 2) = %d, want 12", got)
	}
}

func TestSample_DeclaredOrder(t *testing.T) {
	g := numbered(5, 5)
	got := Sample(g, 2, 2, Outer[:])
	want := []int32{0, 10, 20, 2, 22, 4, 14, 24}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Sample(Outer) mismatch (-want +got):\n%s", diff)
	}

	got = Sample(g, 2, 2, Inner[:])
	want = []int32{6, 11, 16, 7, 17, 8, 13, 18}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Sample(Inner) mismatch (-want +got):\n%s", diff)
	}
}

func TestGather_MatchesSample(t *testing.T) {
	g := numbered(7, 3)
	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			for _, set := range []*Set{&Outer, &Inner} {
				var dst [8]int32
				Gather(&dst, g, x, y, set)
				want := Sample(g, x, y, set[:])
				if diff := cmp.Diff(want, dst[:]); diff != "" {
					t.Fatalf("Gather(%d, %d) mismatch (-want +got):\n%s", x, y, diff)
				}
			}
		}
	}
}

func TestSetLayout(t *testing.T) {
	pairs := []struct {
		name string
		a, b int
	}{
		{"vertical", Up, Down},
		{"horizontal", Left, Right},
		{"main diagonal", UpLeft, DownRight},
		{"anti diagonal", UpRight, DownLeft},
	}
	for _, p := range pairs {
		for _, set := range []Set{Outer, Inner} {
			a, b := set[p.a], set[p.b]
			if a.DX != -b.DX || a.DY != -b.DY {
				t.Errorf("%s pair %v/%v is not symmetric", p.name, a, b)
			}
		}
	}
	for i := range Outer {
		if Outer[i].DX != 2*Inner[i].DX || Outer[i].DY != 2*Inner[i].DY {
			t.Errorf("Outer[%d] = %v is not 2*Inner[%d] = %v", i, Outer[i], i, Inner[i])
		}
	}
}

func TestSample_SinglePixel(t *testing.T) {
	g := grid{w: 1, h: 1, pix: []uint16{42}}
	for _, v := range Sample(g, 0, 0, Outer[:]) {
		if v != 42 {
			t.Fatalf("1x1 sample = %d, want 42", v)
		}
	}
}
