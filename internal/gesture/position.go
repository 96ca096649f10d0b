package gesture

import (
	"errors"
	"math"
	"time"

	"github.com/ayusman/airsync/internal/detector"
)

// Position thresholds on normalized coordinates.
const (
	DefaultLow  = 0.3
	DefaultHigh = 0.7
)

// Direction is a movement direction; the values double as arrow key names.
type Direction string

const (
	DirNone  Direction = ""
	DirLeft  Direction = "left"
	DirRight Direction = "right"
	DirUp    Direction = "up"
	DirDown  Direction = "down"
)

// Directions holds at most one horizontal and one vertical direction.
type Directions struct {
	Horizontal Direction `json:"horizontal,omitempty"`
	Vertical   Direction `json:"vertical,omitempty"`
}

// Keys returns the non-empty directions as key names.
func (d Directions) Keys() []string {
	var keys []string
	if d.Horizontal != DirNone {
		keys = append(keys, string(d.Horizontal))
	}
	if d.Vertical != DirNone {
		keys = append(keys, string(d.Vertical))
	}
	return keys
}

// Movement maps a normalized position to directions: left or right outside
// [low, high] on x, up or down outside [low, high] on y.
func Movement(x, y, low, high float64) Directions {
	var d Directions
	switch {
	case x < low:
		d.Horizontal = DirLeft
	case x > high:
		d.Horizontal = DirRight
	}
	switch {
	case y < low:
		d.Vertical = DirUp
	case y > high:
		d.Vertical = DirDown
	}
	return d
}

// TwoHandMovement picks a single direction from whichever hands are present.
//
// With both hands the wrists are averaged and a vertical direction overrides
// a horizontal one. The left hand alone can only steer left or up, the right
// hand alone only right or down.
func TwoHandMovement(left, right *detector.HandLandmarks, low, high float64) Direction {
	switch {
	case left != nil && right != nil:
		lw, rw := left.Wrist(), right.Wrist()
		d := Movement((lw.X+rw.X)/2, (lw.Y+rw.Y)/2, low, high)
		if d.Vertical != DirNone {
			return d.Vertical
		}
		return d.Horizontal
	case left != nil:
		w := left.Wrist()
		if w.X < low {
			return DirLeft
		}
		if w.Y < low {
			return DirUp
		}
	case right != nil:
		w := right.Wrist()
		if w.X > high {
			return DirRight
		}
		if w.Y > high {
			return DirDown
		}
	}
	return DirNone
}

// Bounds calibration defaults.
const (
	DefaultBoundsSamples  = 30
	DefaultBoundsInterval = 100 * time.Millisecond
	DefaultBoundsPadding  = 0.1
)

// ErrNoSamples is returned when a calibration finishes without data.
var ErrNoSamples = errors.New("calibration collected no samples")

// Bounds is the box a user's wrist moves within, per axis.
type Bounds struct {
	MinX float64 `json:"min_x"`
	MaxX float64 `json:"max_x"`
	MinY float64 `json:"min_y"`
	MaxY float64 `json:"max_y"`
	MinZ float64 `json:"min_z"`
	MaxZ float64 `json:"max_z"`
}

// Normalize maps p into the unit cube spanned by b, clamping outside values.
// An axis with no extent maps to 0.5.
func (b Bounds) Normalize(p detector.Point3D) detector.Point3D {
	return detector.Point3D{
		X: normalizeAxis(p.X, b.MinX, b.MaxX),
		Y: normalizeAxis(p.Y, b.MinY, b.MaxY),
		Z: normalizeAxis(p.Z, b.MinZ, b.MaxZ),
	}
}

func normalizeAxis(v, lo, hi float64) float64 {
	if hi-lo <= 0 {
		return 0.5
	}
	return clamp((v-lo)/(hi-lo), 0, 1)
}

// BoundsCalibrator accumulates wrist samples, accepting at most one per
// Interval, until Samples have been collected.
type BoundsCalibrator struct {
	Samples  int
	Interval time.Duration
	Padding  float64

	points []detector.Point3D
	last   time.Time
}

// NewBoundsCalibrator returns a calibrator with the default sample count,
// interval and padding.
func NewBoundsCalibrator() *BoundsCalibrator {
	return &BoundsCalibrator{
		Samples:  DefaultBoundsSamples,
		Interval: DefaultBoundsInterval,
		Padding:  DefaultBoundsPadding,
	}
}

// Add offers a wrist sample taken at now. It reports whether the sample was
// kept.
func (c *BoundsCalibrator) Add(p detector.Point3D, now time.Time) bool {
	if c.Done() {
		return false
	}
	if !c.last.IsZero() && now.Sub(c.last) < c.Interval {
		return false
	}
	c.points = append(c.points, p)
	c.last = now
	return true
}

// Done reports whether enough samples have been collected.
func (c *BoundsCalibrator) Done() bool {
	n := c.Samples
	if n <= 0 {
		n = DefaultBoundsSamples
	}
	return len(c.points) >= n
}

// Progress returns collected and required sample counts.
func (c *BoundsCalibrator) Progress() (int, int) {
	n := c.Samples
	if n <= 0 {
		n = DefaultBoundsSamples
	}
	return len(c.points), n
}

// Result returns the padded bounds of the collected samples.
func (c *BoundsCalibrator) Result() (Bounds, error) {
	if len(c.points) == 0 {
		return Bounds{}, ErrNoSamples
	}
	b := Bounds{
		MinX: math.Inf(1), MaxX: math.Inf(-1),
		MinY: math.Inf(1), MaxY: math.Inf(-1),
		MinZ: math.Inf(1), MaxZ: math.Inf(-1),
	}
	for _, p := range c.points {
		b.MinX, b.MaxX = math.Min(b.MinX, p.X), math.Max(b.MaxX, p.X)
		b.MinY, b.MaxY = math.Min(b.MinY, p.Y), math.Max(b.MaxY, p.Y)
		b.MinZ, b.MaxZ = math.Min(b.MinZ, p.Z), math.Max(b.MaxZ, p.Z)
	}
	pad := c.Padding
	b.MinX, b.MaxX = padRange(b.MinX, b.MaxX, pad)
	b.MinY, b.MaxY = padRange(b.MinY, b.MaxY, pad)
	b.MinZ, b.MaxZ = padRange(b.MinZ, b.MaxZ, pad)
	return b, nil
}

func padRange(lo, hi, frac float64) (float64, float64) {
	p := (hi - lo) * frac
	return lo - p, hi + p
}
