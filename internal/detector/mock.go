package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands ...HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.hands == nil {
		return nil, nil
	}
	out := make([]HandLandmarks, len(m.hands))
	copy(out, m.hands)
	return out, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Finger poses used by Pose. Extended fingers point up the frame, closed
// fingers curl back so that the tip sits below the PIP joint.
var (
	thumbOpen   = [4]Point3D{{X: 0.55, Y: 0.75, Z: 0.02}, {X: 0.62, Y: 0.70, Z: 0.03}, {X: 0.68, Y: 0.65, Z: 0.03}, {X: 0.73, Y: 0.60, Z: 0.03}}
	thumbClosed = [4]Point3D{{X: 0.55, Y: 0.75}, {X: 0.57, Y: 0.70}, {X: 0.56, Y: 0.66}, {X: 0.53, Y: 0.69}}

	fingerOpen = [4][4]Point3D{
		{{X: 0.55, Y: 0.68}, {X: 0.57, Y: 0.55}, {X: 0.58, Y: 0.45}, {X: 0.58, Y: 0.35}},
		{{X: 0.50, Y: 0.66}, {X: 0.50, Y: 0.52}, {X: 0.50, Y: 0.40}, {X: 0.50, Y: 0.28}},
		{{X: 0.45, Y: 0.68}, {X: 0.43, Y: 0.55}, {X: 0.42, Y: 0.45}, {X: 0.42, Y: 0.35}},
		{{X: 0.40, Y: 0.70}, {X: 0.37, Y: 0.60}, {X: 0.35, Y: 0.50}, {X: 0.34, Y: 0.42}},
	}
	fingerClosed = [4][4]Point3D{
		{{X: 0.55, Y: 0.70, Z: -0.02}, {X: 0.55, Y: 0.68, Z: -0.05}, {X: 0.52, Y: 0.70, Z: -0.04}, {X: 0.50, Y: 0.72, Z: -0.02}},
		{{X: 0.50, Y: 0.68, Z: -0.02}, {X: 0.50, Y: 0.66, Z: -0.05}, {X: 0.47, Y: 0.68, Z: -0.04}, {X: 0.45, Y: 0.70, Z: -0.02}},
		{{X: 0.45, Y: 0.70, Z: -0.02}, {X: 0.45, Y: 0.68, Z: -0.05}, {X: 0.42, Y: 0.70, Z: -0.04}, {X: 0.40, Y: 0.72, Z: -0.02}},
		{{X: 0.40, Y: 0.72, Z: -0.02}, {X: 0.40, Y: 0.70, Z: -0.05}, {X: 0.37, Y: 0.72, Z: -0.04}, {X: 0.35, Y: 0.74, Z: -0.02}},
	}
)

// Pose builds a hand with the wrist at (0.5, 0.8) and each finger, in order
// thumb, index, middle, ring, pinky, either extended or curled.
// Left hands are mirrored around the wrist.
func Pose(handedness string, extended [5]bool) HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: handedness,
		Score:      0.95,
	}
	landmarks.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	thumb := thumbClosed
	if extended[0] {
		thumb = thumbOpen
	}
	copy(landmarks.Points[ThumbCMC:ThumbTip+1], thumb[:])

	for f := 0; f < 4; f++ {
		joints := fingerClosed[f]
		if extended[f+1] {
			joints = fingerOpen[f]
		}
		base := IndexMCP + f*4
		copy(landmarks.Points[base:base+4], joints[:])
	}

	if handedness == Left {
		wx := landmarks.Points[Wrist].X
		for i := range landmarks.Points {
			landmarks.Points[i].X = 2*wx - landmarks.Points[i].X
		}
	}
	return landmarks
}

// ThumbsUpLandmarks returns a preset HandLandmarks representing a thumbs up gesture.
// The thumb is extended upward while other fingers are curled.
func ThumbsUpLandmarks() HandLandmarks {
	landmarks := Pose(Right, [5]bool{true})

	// Thumb pointing up, Y decreases going up
	landmarks.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.0}
	landmarks.Points[ThumbMCP] = Point3D{X: 0.57, Y: 0.65, Z: 0.0}
	landmarks.Points[ThumbIP] = Point3D{X: 0.58, Y: 0.50, Z: 0.0}
	landmarks.Points[ThumbTip] = Point3D{X: 0.60, Y: 0.35, Z: 0.0}

	return landmarks
}

// OpenPalmLandmarks returns a preset HandLandmarks representing an open palm gesture.
// All fingers are extended outward.
func OpenPalmLandmarks() HandLandmarks {
	return Pose(Right, [5]bool{true, true, true, true, true})
}

// FistLandmarks returns a right hand with every finger curled.
func FistLandmarks() HandLandmarks {
	return Pose(Right, [5]bool{})
}

// IndexUpLandmarks returns a right hand pointing with the index finger only.
func IndexUpLandmarks() HandLandmarks {
	return Pose(Right, [5]bool{false, true})
}

// HandAt returns an open palm of the given handedness with its wrist at (x, y).
func HandAt(handedness string, x, y float64) HandLandmarks {
	return Pose(handedness, [5]bool{true, true, true, true, true}).MoveTo(x, y)
}

// MoveTo returns a copy of the hand translated so the wrist lies at (x, y).
func (h HandLandmarks) MoveTo(x, y float64) HandLandmarks {
	w := h.Points[Wrist]
	return h.Translate(x-w.X, y-w.Y)
}
