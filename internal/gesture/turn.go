package gesture

// DefaultTurnThreshold is the wrist height difference, in pixels, that
// counts as a turn.
const DefaultTurnThreshold = 50

// Pixel is a landmark position in frame pixels.
type Pixel struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Turn is the steering decision of the two-wrist motion controller.
type Turn int

const (
	TurnNone Turn = iota
	TurnReverse
	TurnLeft
	TurnRight
	TurnStraight
	TurnUndetermined
)

var turnNames = [...]string{"none", "reverse", "left", "right", "straight", "undetermined"}

func (t Turn) String() string {
	if t < 0 || int(t) >= len(turnNames) {
		return "unknown"
	}
	return turnNames[t]
}

// ClassifyTurn decides the turn from wrist pixel positions.
//
// No wrists is None and a single wrist is Reverse. Otherwise the first two
// wrists are ordered by x; the wheel turns toward the lower wrist once the
// height difference exceeds threshold. Two wrists stacked on the same x give
// no usable slope and are Undetermined.
func ClassifyTurn(wrists []Pixel, threshold int) Turn {
	switch len(wrists) {
	case 0:
		return TurnNone
	case 1:
		return TurnReverse
	}

	left, right := wrists[0], wrists[1]
	if left.X == right.X {
		return TurnUndetermined
	}
	if left.X > right.X {
		left, right = right, left
	}

	switch {
	case left.Y-right.Y > threshold:
		return TurnLeft
	case right.Y-left.Y > threshold:
		return TurnRight
	default:
		return TurnStraight
	}
}
