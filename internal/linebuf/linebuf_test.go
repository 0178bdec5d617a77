package linebuf

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mrjoshuak/go-rawisp/internal/pixel"
	"github.com/mrjoshuak/go-rawisp/internal/window"
)

func TestDepth(t *testing.T) {
	tests := []struct {
		width, radius int
		want          int
	}{
		{1, 2, 7},
		{2, 2, 6},
		{3, 2, 6},
		{640, 2, 6},
		{4, 1, 4},
		{1, 1, 5},
		{5, 0, 1},
	}
	for _, tt := range tests {
		if got := Depth(tt.width, tt.radius); got != tt.want {
			t.Errorf("Depth(%d, %d) = %d, want %d", tt.width, tt.radius, got, tt.want)
		}
	}
}

func TestNew_Rejects(t *testing.T) {
	center := func(src window.Source, x, y int) uint16 { return src.Pixel(x, y) }
	if _, err := New(0, 4, 2, center); err == nil {
		t.Error("New() with zero width should fail")
	}
	if _, err := New(4, 4, -1, center); err == nil {
		t.Error("New() with negative radius should fail")
	}
	if _, err := New(4, 4, 2, nil); err == nil {
		t.Error("New() with nil kernel should fail")
	}
}

// boxSum reads every clamped sample of the full 5x5 window, so it touches the
// oldest and newest rows the engine must hold.
func boxSum(src window.Source, x, y int) uint16 {
	var s int32
	for dy := -window.Radius; dy <= window.Radius; dy++ {
		for dx := -window.Radius; dx <= window.Radius; dx++ {
			s += window.At(src, x+dx, y+dy)
		}
	}
	return uint16(s)
}

func runFrame(t *testing.T, img *pixel.Image, k Kernel) ([]Output, *Engine) {
	t.Helper()
	e, err := New(img.Width, img.Height, window.Radius, k)
	if err != nil {
		t.Fatal(err)
	}
	var outs []Output
	for _, v := range img.Pix {
		o, ok, err := e.Push(v)
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			outs = append(outs, o)
		}
	}
	for e.State() != Done {
		o, ok, err := e.Drain()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatal("Drain() produced no output before Done")
		}
		outs = append(outs, o)
	}
	return outs, e
}

func TestEngine_MatchesFullFrame(t *testing.T) {
	sizes := [][2]int{
		{1, 1}, {1, 9}, {9, 1}, {2, 2}, {2, 7}, {3, 3}, {5, 5}, {7, 4}, {16, 11},
	}
	for _, sz := range sizes {
		w, h := sz[0], sz[1]
		t.Run(fmt.Sprintf("%dx%d", w, h), func(t *testing.T) {
			img, err := pixel.New(w, h, 16)
			if err != nil {
				t.Fatal(err)
			}
			for i := range img.Pix {
				img.Pix[i] = uint16((i*37 + 11) % 251)
			}

			outs, _ := runFrame(t, img, boxSum)
			if len(outs) != w*h {
				t.Fatalf("got %d outputs, want %d", len(outs), w*h)
			}
			var got, want []uint16
			for i, o := range outs {
				if o.X != i%w || o.Y != i/w {
					t.Fatalf("output %d at (%d, %d), want raster order", i, o.X, o.Y)
				}
				got = append(got, o.Value)
				want = append(want, boxSum(img, o.X, o.Y))
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("streaming window mismatch (-frame +stream):\n%s", diff)
			}
		})
	}
}

func TestEngine_Latency(t *testing.T) {
	const w, h = 6, 5
	e, err := New(w, h, window.Radius, func(src window.Source, x, y int) uint16 {
		return src.Pixel(x, y)
	})
	if err != nil {
		t.Fatal(err)
	}
	if e.Latency() != 2*w+2 {
		t.Fatalf("Latency() = %d, want %d", e.Latency(), 2*w+2)
	}

	states := map[State]int{}
	for n := 0; n < w*h; n++ {
		o, ok, err := e.Push(uint16(n))
		if err != nil {
			t.Fatal(err)
		}
		if want := n >= e.Latency(); ok != want {
			t.Fatalf("Push(%d) produced output = %v, want %v", n, ok, want)
		}
		if ok && int(o.Value) != n-e.Latency() {
			t.Fatalf("Push(%d) output = %d, want %d", n, o.Value, n-e.Latency())
		}
		states[e.State()]++
	}
	if states[Filling] != e.Latency() {
		t.Errorf("%d steps in Filling, want %d", states[Filling], e.Latency())
	}
	if e.State() != Draining {
		t.Fatalf("State() after last input = %v, want draining", e.State())
	}

	drained := 0
	for e.State() == Draining {
		if _, _, err := e.Drain(); err != nil {
			t.Fatal(err)
		}
		drained++
	}
	if drained != e.Latency() {
		t.Errorf("drained %d outputs, want %d", drained, e.Latency())
	}
	if e.State() != Done {
		t.Errorf("State() = %v, want done", e.State())
	}
}

func TestEngine_ShortFrameDrainsEverything(t *testing.T) {
	// 3x2 holds fewer pixels than the latency, so nothing leaves during input.
	img, _ := pixel.FromSlice([]uint16{1, 2, 3, 4, 5, 6}, 3, 2, 8)
	e, _ := New(3, 2, window.Radius, func(src window.Source, x, y int) uint16 { return src.Pixel(x, y) })
	for _, v := range img.Pix {
		if _, ok, err := e.Push(v); ok || err != nil {
			t.Fatalf("Push() = %v, %v, want no output", ok, err)
		}
	}
	if e.State() != Draining {
		t.Fatalf("State() = %v, want draining", e.State())
	}
	outs, _ := runFrame(t, img, func(src window.Source, x, y int) uint16 { return src.Pixel(x, y) })
	var got []uint16
	for _, o := range outs {
		got = append(got, o.Value)
	}
	if diff := cmp.Diff(img.Pix, got); diff != "" {
		t.Errorf("passthrough mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_StepErrors(t *testing.T) {
	e, _ := New(2, 2, window.Radius, func(src window.Source, x, y int) uint16 { return 0 })
	if _, _, err := e.Drain(); !errors.Is(err, ErrFrameIncomplete) {
		t.Errorf("early Drain() error = %v, want ErrFrameIncomplete", err)
	}
	for i := 0; i < 4; i++ {
		if _, _, err := e.Push(0); err != nil {
			t.Fatal(err)
		}
	}
	if _, _, err := e.Push(0); !errors.Is(err, ErrFrameComplete) {
		t.Errorf("extra Push() error = %v, want ErrFrameComplete", err)
	}
	for e.State() != Done {
		if _, _, err := e.Drain(); err != nil {
			t.Fatal(err)
		}
	}
	if _, _, err := e.Drain(); !errors.Is(err, ErrFrameComplete) {
		t.Errorf("Drain() after done error = %v, want ErrFrameComplete", err)
	}
}

func TestEngine_PanicsOnUnbufferedRow(t *testing.T) {
	const w, h = 4, 12
	e, _ := New(w, h, window.Radius, func(src window.Source, x, y int) uint16 {
		// Looks further ahead than the latency allows.
		return src.Pixel(x, y+3)
	})

	defer func() {
		if recover() == nil {
			t.Error("reading an unbuffered row did not panic")
		}
	}()
	for n := 0; n < w*h; n++ {
		e.Push(0)
	}
}

func TestEngine_PanicsOnRetiredRow(t *testing.T) {
	const w, h = 4, 12
	e, _ := New(w, h, window.Radius, func(src window.Source, x, y int) uint16 {
		if y >= 5 {
			return src.Pixel(x, y-5)
		}
		return 0
	})

	defer func() {
		if recover() == nil {
			t.Error("reading a retired row did not panic")
		}
	}()
	for n := 0; n < w*h; n++ {
		e.Push(0)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{Filling, "filling"},
		{Steady, "steady"},
		{Draining, "draining"},
		{Done, "done"},
		{State(42), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}
