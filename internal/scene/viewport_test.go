package scene

import (
	"math"
	"testing"
)

func TestZoomClampsScale(t *testing.T) {
	v := NewViewport()

	v.Zoom(1000, 0, 0)
	if v.Scale != MaxScale {
		t.Errorf("scale after huge zoom in = %v, want clamp at %v", v.Scale, MaxScale)
	}

	v.Zoom(1e-9, 0, 0)
	if v.Scale != MinScale {
		t.Errorf("scale after huge zoom out = %v, want clamp at %v", v.Scale, MinScale)
	}
}

func TestZoomKeepsAnchorFixed(t *testing.T) {
	v := NewViewport()
	v.Pan(120, -40)

	const ax, ay = 400, 300
	wx, wy := v.ToWorld(ax, ay)

	v.Zoom(1.5, ax, ay)

	gx, gy := v.ToWorld(ax, ay)
	if math.Abs(gx-wx) > 1e-9 || math.Abs(gy-wy) > 1e-9 {
		t.Errorf("world point under anchor moved from (%v,%v) to (%v,%v)", wx, wy, gx, gy)
	}

	v.Zoom(0.25, ax, ay)
	gx, gy = v.ToWorld(ax, ay)
	if math.Abs(gx-wx) > 1e-9 || math.Abs(gy-wy) > 1e-9 {
		t.Errorf("anchor drifted on zoom out: (%v,%v) vs (%v,%v)", gx, gy, wx, wy)
	}
}

func TestZoomAtClampWallLeavesTranslation(t *testing.T) {
	v := NewViewport()
	v.Zoom(MaxScale, 0, 0)
	v.Pan(50, 60)

	v.Zoom(2, 123, 456)
	if v.Scale != MaxScale || v.TX != 50 || v.TY != 60 {
		t.Errorf("zoom at wall changed transform to scale=%v tx=%v ty=%v", v.Scale, v.TX, v.TY)
	}
}

func TestPanShiftsScreenSpace(t *testing.T) {
	v := NewViewport()
	v.Zoom(2, 0, 0)
	v.Pan(10, -5)

	sx, sy := v.ToScreen(100, 100)
	if sx != 210 || sy != 195 {
		t.Errorf("ToScreen(100,100) = (%v,%v), want (210,195)", sx, sy)
	}
}

func TestWorldScreenRoundTrip(t *testing.T) {
	v := NewViewport()
	v.Zoom(0.7, 300, 200)
	v.Pan(-33, 81)

	for _, p := range [][2]float64{{0, 0}, {150, -40}, {-7.5, 999}} {
		sx, sy := v.ToScreen(p[0], p[1])
		wx, wy := v.ToWorld(sx, sy)
		if math.Abs(wx-p[0]) > 1e-9 || math.Abs(wy-p[1]) > 1e-9 {
			t.Errorf("round trip of (%v,%v) = (%v,%v)", p[0], p[1], wx, wy)
		}
	}
}

func TestReset(t *testing.T) {
	v := NewViewport()
	v.Zoom(3, 40, 40)
	v.Pan(17, 23)

	v.Reset()
	if v.Scale != 1 || v.TX != 0 || v.TY != 0 {
		t.Errorf("reset left scale=%v tx=%v ty=%v", v.Scale, v.TX, v.TY)
	}
}
