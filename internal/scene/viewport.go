package scene

// Zoom bounds. Wheel input outside this range clamps silently.
const (
	MinScale = 0.1
	MaxScale = 4.0
)

// Viewport is the pure view transform between world and screen space:
// screen = world*Scale + T. It carries no reference to the scene, so
// rebuilding sprites never disturbs pan or zoom.
type Viewport struct {
	Scale float64 `json:"scale"`
	TX    float64 `json:"tx"`
	TY    float64 `json:"ty"`
}

// NewViewport returns the identity transform
func NewViewport() *Viewport {
	return &Viewport{Scale: 1}
}

// Zoom multiplies the scale by factor, clamped to [MinScale, MaxScale],
// keeping the world point under the screen anchor (ax, ay) fixed. A
// factor of 1, or one that only hits the clamp wall, leaves the
// translation untouched.
func (v *Viewport) Zoom(factor, ax, ay float64) {
	next := v.Scale * factor
	if next < MinScale {
		next = MinScale
	}
	if next > MaxScale {
		next = MaxScale
	}
	if next == v.Scale {
		return
	}
	k := next / v.Scale
	v.TX = ax - (ax-v.TX)*k
	v.TY = ay - (ay-v.TY)*k
	v.Scale = next
}

// Pan shifts the view by a screen-space delta
func (v *Viewport) Pan(dx, dy float64) {
	v.TX += dx
	v.TY += dy
}

// ToWorld maps a screen point into world coordinates
func (v *Viewport) ToWorld(sx, sy float64) (float64, float64) {
	return (sx - v.TX) / v.Scale, (sy - v.TY) / v.Scale
}

// ToScreen maps a world point into screen coordinates
func (v *Viewport) ToScreen(wx, wy float64) (float64, float64) {
	return wx*v.Scale + v.TX, wy*v.Scale + v.TY
}

// Reset restores the identity transform
func (v *Viewport) Reset() {
	v.Scale = 1
	v.TX = 0
	v.TY = 0
}
