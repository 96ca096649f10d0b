// Package gesture turns hand landmarks into steering angles, finger states,
// movement directions and turn classifications. Everything here is pure
// geometry over small bounded state; nothing performs I/O.
package gesture

import (
	"math"

	"github.com/ayusman/airsync/internal/detector"
)

// Wheel tuning defaults.
const (
	DefaultDeadZone       = 5.0  // degrees
	DefaultFullTurn       = 90.0 // degrees mapped to a full stick deflection
	DefaultThumbThreshold = 0.08 // normalized distance thumb tip to index MCP
)

// Wheel is the virtual steering wheel spanned by the two wrists.
type Wheel struct {
	Center detector.Point3D `json:"center"`
	Radius float64          `json:"radius"`
	// Angle of the line from the left wrist to the right wrist, in degrees.
	// Positive when the right wrist is lower in the frame.
	Angle float64 `json:"angle"`
}

// DetectWheel builds the wheel held between the left and right wrists.
func DetectWheel(left, right detector.Point3D) Wheel {
	dx := right.X - left.X
	dy := right.Y - left.Y
	return Wheel{
		Center: detector.Point3D{
			X: (left.X + right.X) / 2,
			Y: (left.Y + right.Y) / 2,
			Z: (left.Z + right.Z) / 2,
		},
		Radius: math.Hypot(dx, dy) / 2,
		Angle:  degrees(math.Atan2(dy, dx)),
	}
}

// SteeringFromNeutral returns current-neutral wrapped into [-180, 180].
func SteeringFromNeutral(current, neutral float64) float64 {
	d := current - neutral
	for d > 180 {
		d -= 360
	}
	for d < -180 {
		d += 360
	}
	return d
}

// ApplyDeadZone zeroes angles inside the dead zone and shifts the rest toward
// zero by the dead zone width, so the output is continuous at the boundary.
func ApplyDeadZone(angle, deadZone float64) float64 {
	if math.Abs(angle) < deadZone {
		return 0
	}
	if angle > 0 {
		return angle - deadZone
	}
	return angle + deadZone
}

// MapToJoystick maps an angle onto [-1, 1], saturating at fullTurn degrees.
func MapToJoystick(angle, fullTurn float64) float64 {
	if fullTurn <= 0 {
		return 0
	}
	return clamp(angle, -fullTurn, fullTurn) / fullTurn
}

// ThumbExtended reports whether the thumb tip is further than threshold from
// the index knuckle in the image plane.
func ThumbExtended(hand *detector.HandLandmarks, threshold float64) bool {
	if hand == nil {
		return false
	}
	tip := hand.Points[detector.ThumbTip]
	mcp := hand.Points[detector.IndexMCP]
	return math.Hypot(tip.X-mcp.X, tip.Y-mcp.Y) > threshold
}

// IsAccelerating is false only when both thumbs are extended, which is the
// brake gesture.
func IsAccelerating(left, right *detector.HandLandmarks, threshold float64) bool {
	return !(ThumbExtended(left, threshold) && ThumbExtended(right, threshold))
}

// Track keeps a short wrist history for one hand so a briefly lost hand can
// be extrapolated.
type Track struct {
	Size   int
	points []detector.Point3D
}

// Add records a wrist position.
func (t *Track) Add(p detector.Point3D) {
	size := t.Size
	if size <= 0 {
		size = DefaultHistory
	}
	t.points = append(t.points, p)
	if len(t.points) > size {
		t.points = t.points[len(t.points)-size:]
	}
}

// Predict extrapolates one step past the last sample. It needs two samples.
func (t *Track) Predict() (detector.Point3D, bool) {
	n := len(t.points)
	if n < 2 {
		return detector.Point3D{}, false
	}
	last, prev := t.points[n-1], t.points[n-2]
	return detector.Point3D{
		X: last.X + (last.X - prev.X),
		Y: last.Y + (last.Y - prev.Y),
		Z: last.Z + (last.Z - prev.Z),
	}, true
}

// Len returns the number of stored samples.
func (t *Track) Len() int { return len(t.points) }

// Reset drops the history.
func (t *Track) Reset() { t.points = t.points[:0] }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
