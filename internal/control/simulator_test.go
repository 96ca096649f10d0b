package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/airsync/internal/detector"
	"github.com/ayusman/airsync/internal/gesture"
	"github.com/ayusman/airsync/internal/input"
)

func newSimulator(rec *input.Recorder) *Simulator {
	return NewSimulator(DefaultSimulatorConfig(), rec, rec, nil)
}

// scaled grows a hand around its wrist.
func scaled(h detector.HandLandmarks, k float64) detector.HandLandmarks {
	w := h.Wrist()
	for i := range h.Points {
		h.Points[i].X = w.X + (h.Points[i].X-w.X)*k
		h.Points[i].Y = w.Y + (h.Points[i].Y-w.Y)*k
	}
	return h
}

func TestSimulator_FingerKeys(t *testing.T) {
	rec := input.NewRecorder(nil)
	s := newSimulator(rec)

	require.NoError(t, s.Process(frame(0, detector.HandAt(detector.Right, 0.5, 0.5))))
	assert.Equal(t, []string{"space"}, rec.HeldKeys(), "open thumb holds space")
	assert.False(t, rec.HeldButton(input.ButtonLeft))

	fist := detector.Pose(detector.Right, [5]bool{}).MoveTo(0.5, 0.5)
	require.NoError(t, s.Process(frame(0, fist)))
	assert.Equal(t, []string{"a", "d", "f", "s"}, rec.HeldKeys())
	assert.True(t, rec.HeldButton(input.ButtonLeft))
	assert.Equal(t, "fist", s.State().Action)
	assert.Equal(t, []string{"left"}, s.State().Buttons)

	require.NoError(t, s.Process(frame(0)))
	assert.Empty(t, rec.HeldKeys())
	assert.False(t, rec.HeldButton(input.ButtonLeft))
}

func TestSimulator_ThumbWhenClosed(t *testing.T) {
	rec := input.NewRecorder(nil)
	cfg := DefaultSimulatorConfig()
	cfg.ThumbWhenOpen = false
	s := NewSimulator(cfg, rec, rec, nil)

	require.NoError(t, s.Process(frame(0, detector.HandAt(detector.Right, 0.5, 0.5))))
	assert.Empty(t, rec.HeldKeys())
}

func TestSimulator_HandSwitchTapsShift(t *testing.T) {
	rec := input.NewRecorder(nil)
	s := newSimulator(rec)

	require.NoError(t, s.Process(frame(0, detector.HandAt(detector.Left, 0.5, 0.5))))
	assert.Equal(t, []string{"+shift", "-shift", "+space"}, edges(rec.Events()))
	assert.Equal(t, detector.Left, s.State().Mode)

	rec.Clear()
	require.NoError(t, s.Process(frame(0, detector.HandAt(detector.Left, 0.5, 0.5))))
	assert.Empty(t, edges(rec.Events()))
}

func TestSimulator_MainHandIsLargest(t *testing.T) {
	rec := input.NewRecorder(nil)
	s := newSimulator(rec)

	small := detector.HandAt(detector.Right, 0.5, 0.5)
	big := scaled(detector.HandAt(detector.Left, 0.5, 0.5), 1.5)
	require.NoError(t, s.Process(frame(0, small, big)))
	assert.Equal(t, detector.Left, s.State().Mode)
	assert.Equal(t, 2, s.State().Hands)
}

func TestSimulator_Arrows(t *testing.T) {
	rec := input.NewRecorder(nil)
	s := newSimulator(rec)

	require.NoError(t, s.Process(frame(0, detector.HandAt(detector.Right, 0.1, 0.9))))
	assert.Equal(t, []string{"down", "left", "space"}, rec.HeldKeys())

	s.SetBounds(&gesture.Bounds{MinX: 0.4, MaxX: 0.6, MinY: 0.4, MaxY: 0.6})
	require.NoError(t, s.Process(frame(0, detector.HandAt(detector.Right, 0.45, 0.5))))
	assert.Equal(t, []string{"left", "space"}, rec.HeldKeys(), "bounds normalize the wrist")
}

func TestSimulator_MouseMotion(t *testing.T) {
	rec := input.NewRecorder(nil)
	s := newSimulator(rec)

	require.NoError(t, s.Process(frame(0, detector.HandAt(detector.Right, 0.5, 0.5))))
	require.NoError(t, s.Process(frame(0, detector.HandAt(detector.Right, 0.52, 0.5))))
	require.NoError(t, s.Process(frame(0, detector.HandAt(detector.Right, 0.52, 0.48))))

	moves := rec.EventsOf(input.EventMove)
	require.Len(t, moves, 2)
	assert.Equal(t, 12, moves[0].DX, "0.02 * 1000 * 0.6")
	assert.Equal(t, 0, moves[0].DY)
	assert.Equal(t, 6, moves[1].DX, "averaged with a still frame")

	scrolls := rec.EventsOf(input.EventScroll)
	require.Len(t, scrolls, 1)
	assert.Equal(t, 3, scrolls[0].Delta, "moving up scrolls up")
}

func TestSimulator_Bind(t *testing.T) {
	rec := input.NewRecorder(nil)
	s := newSimulator(rec)
	require.NoError(t, s.Bind("thumb", "e"))
	assert.ErrorIs(t, s.Bind("thumb", "f13"), input.ErrUnknownKey)

	require.NoError(t, s.Process(frame(0, detector.HandAt(detector.Right, 0.5, 0.5))))
	assert.Equal(t, []string{"e"}, rec.HeldKeys())

	require.NoError(t, s.Release())
	assert.Empty(t, rec.HeldKeys())
}
