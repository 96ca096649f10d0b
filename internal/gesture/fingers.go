package gesture

import (
	"math"
	"strings"

	"github.com/ayusman/airsync/internal/detector"
)

// Finger indices into Fingers.
const (
	Thumb = iota
	Index
	Middle
	Ring
	Pinky
)

// FingerNames lists the fingers in Fingers order.
var FingerNames = [5]string{"thumb", "index", "middle", "ring", "pinky"}

// fingerJoints holds (tip, pip, mcp) per finger; the thumb uses its IP joint.
var fingerJoints = [5][3]int{
	{detector.ThumbTip, detector.ThumbIP, detector.ThumbMCP},
	{detector.IndexTip, detector.IndexPIP, detector.IndexMCP},
	{detector.MiddleTip, detector.MiddlePIP, detector.MiddleMCP},
	{detector.RingTip, detector.RingPIP, detector.RingMCP},
	{detector.PinkyTip, detector.PinkyPIP, detector.PinkyMCP},
}

// Fingers records which fingers are extended, thumb first.
type Fingers [5]bool

// FingerStates classifies each finger of hand as extended or not.
//
// The thumb is extended when its tip lies outside its IP joint: to the right
// for a right hand, to the left for a left hand. The other fingers are
// extended when the tip is above the PIP joint (smaller y).
func FingerStates(hand *detector.HandLandmarks) Fingers {
	var f Fingers
	if hand == nil {
		return f
	}
	p := hand.Points
	if hand.IsRight() {
		f[Thumb] = p[detector.ThumbTip].X > p[detector.ThumbIP].X
	} else {
		f[Thumb] = p[detector.ThumbTip].X < p[detector.ThumbIP].X
	}
	for i := Index; i <= Pinky; i++ {
		tip, pip := fingerJoints[i][0], fingerJoints[i][1]
		f[i] = p[tip].Y < p[pip].Y
	}
	return f
}

// Only reports whether exactly the listed fingers are extended.
func (f Fingers) Only(fingers ...int) bool {
	var want Fingers
	for _, i := range fingers {
		if i >= 0 && i < len(want) {
			want[i] = true
		}
	}
	return f == want
}

// All reports whether every finger is extended.
func (f Fingers) All() bool { return f == Fingers{true, true, true, true, true} }

// None reports whether every finger is closed.
func (f Fingers) None() bool { return f == Fingers{} }

// Count returns the number of extended fingers.
func (f Fingers) Count() int {
	n := 0
	for _, up := range f {
		if up {
			n++
		}
	}
	return n
}

// String renders the states as five digits, 1 for extended.
func (f Fingers) String() string {
	var b strings.Builder
	for _, up := range f {
		if up {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// Or returns the fingers extended in either f or g.
func (f Fingers) Or(g Fingers) Fingers {
	for i := range f {
		f[i] = f[i] || g[i]
	}
	return f
}

// FingerAngles returns how far each finger bends at its middle joint, in
// degrees: the angle between the tip-to-pip and pip-to-mcp segments in 3D.
// A straight finger is 0. Degenerate segments yield 0.
func FingerAngles(hand *detector.HandLandmarks) [5]float64 {
	var angles [5]float64
	if hand == nil {
		return angles
	}
	for i, j := range fingerJoints {
		tip, pip, mcp := hand.Points[j[0]], hand.Points[j[1]], hand.Points[j[2]]
		a := sub(pip, tip)
		b := sub(mcp, pip)
		norm := length(a) * length(b)
		if norm < 1e-6 {
			continue
		}
		cos := clamp(dot(a, b)/norm, -1, 1)
		angles[i] = degrees(math.Acos(cos))
	}
	return angles
}

func sub(a, b detector.Point3D) detector.Point3D {
	return detector.Point3D{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}
}

func dot(a, b detector.Point3D) float64 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }

func length(a detector.Point3D) float64 { return math.Sqrt(dot(a, a)) }

// Rotation returns the direction from the index knuckle to the pinky
// knuckle in degrees, in [0, 360).
func Rotation(hand *detector.HandLandmarks) float64 {
	if hand == nil {
		return 0
	}
	idx := hand.Points[detector.IndexMCP]
	pky := hand.Points[detector.PinkyMCP]
	a := math.Mod(degrees(math.Atan2(pky.Y-idx.Y, pky.X-idx.X)), 360)
	if a < 0 {
		a += 360
	}
	return a
}

// RotationTracker steadies rotation readings with a running median.
type RotationTracker struct {
	Size    int
	history []float64
}

// Add records a reading and returns the median of the recent ones.
func (r *RotationTracker) Add(angle float64) float64 {
	size := r.Size
	if size <= 0 {
		size = DefaultHistory
	}
	r.history = append(r.history, angle)
	if len(r.history) > size {
		r.history = r.history[len(r.history)-size:]
	}
	return median(r.history)
}

// Reset clears the history.
func (r *RotationTracker) Reset() { r.history = r.history[:0] }
