package gesture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/airsync/internal/detector"
)

func TestMovement(t *testing.T) {
	tests := []struct {
		name string
		x, y float64
		want Directions
	}{
		{"center", 0.5, 0.5, Directions{}},
		{"left", 0.2, 0.5, Directions{Horizontal: DirLeft}},
		{"right", 0.8, 0.5, Directions{Horizontal: DirRight}},
		{"up", 0.5, 0.1, Directions{Vertical: DirUp}},
		{"down", 0.5, 0.9, Directions{Vertical: DirDown}},
		{"up left", 0.1, 0.1, Directions{Horizontal: DirLeft, Vertical: DirUp}},
		{"thresholds are exclusive", 0.3, 0.7, Directions{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Movement(tt.x, tt.y, DefaultLow, DefaultHigh))
		})
	}
}

func TestDirections_Keys(t *testing.T) {
	assert.Nil(t, Directions{}.Keys())
	assert.Equal(t, []string{"left", "down"}, Directions{Horizontal: DirLeft, Vertical: DirDown}.Keys())
}

func TestTwoHandMovement(t *testing.T) {
	hand := func(label string, x, y float64) *detector.HandLandmarks {
		h := detector.HandAt(label, x, y)
		return &h
	}

	tests := []struct {
		name        string
		left, right *detector.HandLandmarks
		want        Direction
	}{
		{"no hands", nil, nil, DirNone},
		{"both centered", hand(detector.Left, 0.4, 0.5), hand(detector.Right, 0.6, 0.5), DirNone},
		{"both left", hand(detector.Left, 0.1, 0.5), hand(detector.Right, 0.3, 0.5), DirLeft},
		{"both right", hand(detector.Left, 0.7, 0.5), hand(detector.Right, 0.9, 0.5), DirRight},
		{"vertical overrides horizontal", hand(detector.Left, 0.1, 0.1), hand(detector.Right, 0.2, 0.2), DirUp},
		{"both down", hand(detector.Left, 0.4, 0.9), hand(detector.Right, 0.6, 0.9), DirDown},
		{"left only left", hand(detector.Left, 0.2, 0.1), nil, DirLeft},
		{"left only up", hand(detector.Left, 0.5, 0.2), nil, DirUp},
		{"left only ignores right side", hand(detector.Left, 0.9, 0.9), nil, DirNone},
		{"right only right", nil, hand(detector.Right, 0.8, 0.9), DirRight},
		{"right only down", nil, hand(detector.Right, 0.5, 0.8), DirDown},
		{"right only ignores left side", nil, hand(detector.Right, 0.1, 0.1), DirNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TwoHandMovement(tt.left, tt.right, DefaultLow, DefaultHigh))
		})
	}
}

func TestBounds_Normalize(t *testing.T) {
	b := Bounds{MinX: 0.2, MaxX: 0.6, MinY: 0.0, MaxY: 1.0, MinZ: 0.1, MaxZ: 0.1}

	p := b.Normalize(detector.Point3D{X: 0.4, Y: 0.25, Z: 0.3})
	assert.InDelta(t, 0.5, p.X, delta)
	assert.InDelta(t, 0.25, p.Y, delta)
	assert.InDelta(t, 0.5, p.Z, delta, "zero-width axis maps to the middle")

	p = b.Normalize(detector.Point3D{X: 0.0, Y: 2.0})
	assert.InDelta(t, 0.0, p.X, delta)
	assert.InDelta(t, 1.0, p.Y, delta)
}

func TestBoundsCalibrator(t *testing.T) {
	t.Run("rate limits samples", func(t *testing.T) {
		c := NewBoundsCalibrator()
		start := time.Unix(0, 0)

		assert.True(t, c.Add(detector.Point3D{X: 0.5}, start))
		assert.False(t, c.Add(detector.Point3D{X: 0.6}, start.Add(50*time.Millisecond)))
		assert.True(t, c.Add(detector.Point3D{X: 0.6}, start.Add(100*time.Millisecond)))

		n, total := c.Progress()
		assert.Equal(t, 2, n)
		assert.Equal(t, DefaultBoundsSamples, total)
	})

	t.Run("stops at sample count", func(t *testing.T) {
		c := &BoundsCalibrator{Samples: 3, Padding: 0.1}
		now := time.Unix(0, 0)
		for i := 0; i < 5; i++ {
			c.Add(detector.Point3D{X: float64(i)}, now)
			now = now.Add(time.Second)
		}
		assert.True(t, c.Done())
		n, _ := c.Progress()
		assert.Equal(t, 3, n)
	})

	t.Run("pads ranges by ten percent", func(t *testing.T) {
		c := &BoundsCalibrator{Samples: 2, Padding: DefaultBoundsPadding}
		now := time.Unix(0, 0)
		c.Add(detector.Point3D{X: 0.2, Y: 0.4, Z: -0.1}, now)
		c.Add(detector.Point3D{X: 0.6, Y: 0.8, Z: 0.1}, now.Add(time.Second))

		b, err := c.Result()
		require.NoError(t, err)
		assert.InDelta(t, 0.16, b.MinX, delta)
		assert.InDelta(t, 0.64, b.MaxX, delta)
		assert.InDelta(t, 0.36, b.MinY, delta)
		assert.InDelta(t, 0.84, b.MaxY, delta)
		assert.InDelta(t, -0.12, b.MinZ, delta)
		assert.InDelta(t, 0.12, b.MaxZ, delta)
	})

	t.Run("no samples", func(t *testing.T) {
		_, err := NewBoundsCalibrator().Result()
		assert.ErrorIs(t, err, ErrNoSamples)
	})
}
