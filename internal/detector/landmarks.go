// Package detector provides hand detection interfaces and landmark types.
package detector

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Handedness labels reported by MediaPipe.
const (
	Left  = "Left"
	Right = "Right"
)

// Point3D represents a 3D point with x, y normalized to the frame and z as relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// IsRight reports whether the detector labelled the hand as a right hand.
func (h *HandLandmarks) IsRight() bool {
	return h.Handedness == Right
}

// Wrist returns the wrist landmark.
func (h *HandLandmarks) Wrist() Point3D {
	return h.Points[Wrist]
}

// BoundingBoxArea returns the area of the 2D box enclosing all landmarks.
// Larger values mean the hand is closer to the camera.
func (h *HandLandmarks) BoundingBoxArea() float64 {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range h.Points {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	return (maxX - minX) * (maxY - minY)
}

// Translate returns a copy of the hand with every point shifted by (dx, dy).
func (h HandLandmarks) Translate(dx, dy float64) HandLandmarks {
	for i := range h.Points {
		h.Points[i].X += dx
		h.Points[i].Y += dy
	}
	return h
}

// SplitHands returns the first left-labelled and the first right-labelled hand.
// Either result may be nil.
func SplitHands(hands []HandLandmarks) (left, right *HandLandmarks) {
	for i := range hands {
		switch hands[i].Handedness {
		case Left:
			if left == nil {
				left = &hands[i]
			}
		case Right:
			if right == nil {
				right = &hands[i]
			}
		}
	}
	return left, right
}

// PixelCoords converts a normalized landmark into pixel coordinates of a
// width x height frame. ok is false when the landmark lies outside the frame.
func PixelCoords(p Point3D, width, height int) (x, y int, ok bool) {
	if !inUnit(p.X) || !inUnit(p.Y) || width <= 0 || height <= 0 {
		return 0, 0, false
	}
	x = max(0, min(int(math.Floor(p.X*float64(width))), width-1))
	y = max(0, min(int(math.Floor(p.Y*float64(height))), height-1))
	return x, y, true
}

func inUnit(v float64) bool {
	const tol = 1e-9
	return v > -tol && v < 1+tol
}
