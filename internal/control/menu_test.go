package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/airsync/internal/detector"
	"github.com/ayusman/airsync/internal/input"
)

func taps(events []input.Event, key string) int {
	n := 0
	for _, e := range events {
		if e.Kind == input.EventKeyDown && e.Key == key {
			n++
		}
	}
	return n
}

func TestMenu_Arrows(t *testing.T) {
	tests := []struct {
		name  string
		hands []detector.HandLandmarks
		arrow string
	}{
		{"left hand left", []detector.HandLandmarks{detector.HandAt(detector.Left, 0.1, 0.5)}, "left"},
		{"left hand up", []detector.HandLandmarks{detector.HandAt(detector.Left, 0.5, 0.1)}, "up"},
		{"right hand right", []detector.HandLandmarks{detector.HandAt(detector.Right, 0.9, 0.5)}, "right"},
		{"right hand down", []detector.HandLandmarks{detector.HandAt(detector.Right, 0.5, 0.9)}, "down"},
		{"both vertical wins", []detector.HandLandmarks{
			detector.HandAt(detector.Left, 0.1, 0.1),
			detector.HandAt(detector.Right, 0.2, 0.1),
		}, "up"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := input.NewRecorder(nil)
			m := NewMenu(DefaultMenuConfig(), rec, nil)
			require.NoError(t, m.Process(frame(0, tt.hands...)))
			assert.Contains(t, rec.HeldKeys(), tt.arrow)
		})
	}
}

func TestMenu_FingerKeysUnion(t *testing.T) {
	rec := input.NewRecorder(nil)
	m := NewMenu(DefaultMenuConfig(), rec, nil)

	left := detector.Pose(detector.Left, [5]bool{false, true}).MoveTo(0.4, 0.5)
	right := detector.Pose(detector.Right, [5]bool{false, false, false, false, true}).MoveTo(0.6, 0.5)
	require.NoError(t, m.Process(frame(0, left, right)))

	assert.Equal(t, []string{"a", "f"}, rec.HeldKeys())
	assert.Equal(t, "01001", m.State().Fingers)
}

func TestMenu_SubmitIsEdgeTriggered(t *testing.T) {
	rec := input.NewRecorder(nil)
	m := NewMenu(DefaultMenuConfig(), rec, nil)
	left := detector.HandAt(detector.Left, 0.4, 0.5)
	right := detector.HandAt(detector.Right, 0.6, 0.5)

	require.NoError(t, m.Process(frame(0, left, right)))
	assert.Equal(t, "submit", m.State().Action)
	require.NoError(t, m.Process(frame(0, left, right)))
	assert.Equal(t, 1, taps(rec.Events(), "enter"))
	assert.NotContains(t, rec.HeldKeys(), "enter")

	require.NoError(t, m.Process(frame(0)))
	require.NoError(t, m.Process(frame(0, left, right)))
	assert.Equal(t, 2, taps(rec.Events(), "enter"))
}

func TestMenu_Cancel(t *testing.T) {
	rec := input.NewRecorder(nil)
	m := NewMenu(DefaultMenuConfig(), rec, nil)
	fist := detector.Pose(detector.Left, [5]bool{}).MoveTo(0.4, 0.5)
	right := detector.HandAt(detector.Right, 0.6, 0.5)

	require.NoError(t, m.Process(frame(0, fist, right)))
	assert.Equal(t, "cancel", m.State().Action)
	require.NoError(t, m.Process(frame(0, fist, right)))
	assert.Equal(t, 1, taps(rec.Events(), "esc"))

	// A lone left fist is not a cancel.
	rec.Clear()
	m2 := NewMenu(DefaultMenuConfig(), rec, nil)
	require.NoError(t, m2.Process(frame(0, fist)))
	assert.Zero(t, taps(rec.Events(), "esc"))
}

func TestMenu_Release(t *testing.T) {
	rec := input.NewRecorder(nil)
	m := NewMenu(DefaultMenuConfig(), rec, nil)
	require.NoError(t, m.Process(frame(0, detector.HandAt(detector.Right, 0.9, 0.5))))
	require.NotEmpty(t, rec.HeldKeys())

	require.NoError(t, m.Release())
	assert.Empty(t, rec.HeldKeys())
	assert.Empty(t, m.State().Keys)
}
