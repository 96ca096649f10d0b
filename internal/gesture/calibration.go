package gesture

import (
	"math"

	"github.com/ayusman/airsync/internal/detector"
)

// DefaultCalibrationFrames is the number of wheel samples averaged into a
// neutral position.
const DefaultCalibrationFrames = 60

// WheelCalibrator averages wheel samples into a neutral wheel.
type WheelCalibrator struct {
	Frames  int
	samples []Wheel
}

// NewWheelCalibrator returns a calibrator that needs frames samples.
func NewWheelCalibrator(frames int) *WheelCalibrator {
	return &WheelCalibrator{Frames: frames}
}

func (c *WheelCalibrator) frames() int {
	if c.Frames <= 0 {
		return DefaultCalibrationFrames
	}
	return c.Frames
}

// Add records a sample and reports whether calibration is complete.
func (c *WheelCalibrator) Add(w Wheel) bool {
	if len(c.samples) < c.frames() {
		c.samples = append(c.samples, w)
	}
	return c.Done()
}

// Done reports whether enough samples have been collected.
func (c *WheelCalibrator) Done() bool { return len(c.samples) >= c.frames() }

// Progress returns collected and required sample counts.
func (c *WheelCalibrator) Progress() (int, int) { return len(c.samples), c.frames() }

// Result averages the collected samples. Angles are averaged on the circle
// so readings either side of ±180 do not cancel out.
func (c *WheelCalibrator) Result() (Wheel, error) {
	n := len(c.samples)
	if n == 0 {
		return Wheel{}, ErrNoSamples
	}
	var cx, cy, cz, r, sin, cos float64
	for _, w := range c.samples {
		cx += w.Center.X
		cy += w.Center.Y
		cz += w.Center.Z
		r += w.Radius
		sin += math.Sin(radians(w.Angle))
		cos += math.Cos(radians(w.Angle))
	}
	fn := float64(n)
	return Wheel{
		Center: detector.Point3D{X: cx / fn, Y: cy / fn, Z: cz / fn},
		Radius: r / fn,
		Angle:  degrees(math.Atan2(sin/fn, cos/fn)),
	}, nil
}

// Reset discards collected samples.
func (c *WheelCalibrator) Reset() { c.samples = c.samples[:0] }
