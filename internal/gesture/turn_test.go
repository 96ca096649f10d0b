package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyTurn(t *testing.T) {
	tests := []struct {
		name   string
		wrists []Pixel
		want   Turn
	}{
		{"no hands", nil, TurnNone},
		{"one hand reverses", []Pixel{{X: 300, Y: 200}}, TurnReverse},
		{"level", []Pixel{{X: 200, Y: 300}, {X: 440, Y: 310}}, TurnStraight},
		{"left wrist lower", []Pixel{{X: 200, Y: 360}, {X: 440, Y: 300}}, TurnLeft},
		{"right wrist lower", []Pixel{{X: 200, Y: 300}, {X: 440, Y: 360}}, TurnRight},
		{"order does not matter", []Pixel{{X: 440, Y: 300}, {X: 200, Y: 360}}, TurnLeft},
		{"exactly at threshold is straight", []Pixel{{X: 200, Y: 350}, {X: 440, Y: 300}}, TurnStraight},
		{"vertical line", []Pixel{{X: 300, Y: 100}, {X: 300, Y: 400}}, TurnUndetermined},
		{"extra wrists ignored", []Pixel{{X: 200, Y: 300}, {X: 440, Y: 360}, {X: 10, Y: 10}}, TurnRight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyTurn(tt.wrists, DefaultTurnThreshold))
		})
	}
}

func TestTurn_String(t *testing.T) {
	assert.Equal(t, "left", TurnLeft.String())
	assert.Equal(t, "undetermined", TurnUndetermined.String())
	assert.Equal(t, "unknown", Turn(42).String())
}
