package input

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// EventKind names a recorded input event.
type EventKind string

const (
	EventKeyDown    EventKind = "key_down"
	EventKeyUp      EventKind = "key_up"
	EventMove       EventKind = "move"
	EventScroll     EventKind = "scroll"
	EventButtonDown EventKind = "button_down"
	EventButtonUp   EventKind = "button_up"
	EventGamepad    EventKind = "gamepad"
)

// Event is one recorded input event. Only the fields relevant to Kind are set.
type Event struct {
	Kind     EventKind  `json:"kind"`
	Key      string     `json:"key,omitempty"`
	Button   Button     `json:"button"`
	DX       int        `json:"dx,omitempty"`
	DY       int        `json:"dy,omitempty"`
	Delta    int        `json:"delta,omitempty"`
	Stick    [2]float64 `json:"stick"`
	Triggers [2]float64 `json:"triggers"`
}

// Recorder is an in-memory Keyboard, Mouse and Gamepad. It is safe for
// concurrent use.
type Recorder struct {
	logger *zap.Logger

	mu       sync.Mutex
	events   []Event
	keys     map[string]bool
	buttons  map[Button]bool
	stick    [2]float64
	triggers [2]float64
	closed   bool
}

// NewRecorder returns an empty Recorder. Events are logged at debug level.
func NewRecorder(logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		logger:  logger,
		keys:    make(map[string]bool),
		buttons: make(map[Button]bool),
	}
}

func (r *Recorder) record(e Event) {
	r.events = append(r.events, e)
	r.logger.Debug("input event",
		zap.String("kind", string(e.Kind)),
		zap.String("key", e.Key),
		zap.Stringer("button", e.Button),
		zap.Int("dx", e.DX),
		zap.Int("dy", e.DY),
		zap.Int("delta", e.Delta),
		zap.Float64s("stick", e.Stick[:]),
		zap.Float64s("triggers", e.Triggers[:]))
}

func (r *Recorder) KeyDown(key string) error {
	if err := CheckKey(key); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[key] = true
	r.record(Event{Kind: EventKeyDown, Key: key})
	return nil
}

func (r *Recorder) KeyUp(key string) error {
	if err := CheckKey(key); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.keys, key)
	r.record(Event{Kind: EventKeyUp, Key: key})
	return nil
}

func (r *Recorder) Move(dx, dy int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Event{Kind: EventMove, DX: dx, DY: dy})
	return nil
}

func (r *Recorder) Scroll(delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Event{Kind: EventScroll, Delta: delta})
	return nil
}

func (r *Recorder) ButtonDown(b Button) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buttons[b] = true
	r.record(Event{Kind: EventButtonDown, Button: b})
	return nil
}

func (r *Recorder) ButtonUp(b Button) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.buttons, b)
	r.record(Event{Kind: EventButtonUp, Button: b})
	return nil
}

// Click records a button press followed by a release.
func (r *Recorder) Click(b Button) error {
	if err := r.ButtonDown(b); err != nil {
		return err
	}
	return r.ButtonUp(b)
}

func (r *Recorder) SetLeftStick(x, y float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stick = [2]float64{ClampStick(x), ClampStick(y)}
}

func (r *Recorder) SetTriggers(left, right float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triggers = [2]float64{ClampTrigger(left), ClampTrigger(right)}
}

func (r *Recorder) Update() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Event{Kind: EventGamepad, Stick: r.stick, Triggers: r.triggers})
	return nil
}

func (r *Recorder) Reset() error {
	r.mu.Lock()
	r.stick = [2]float64{}
	r.triggers = [2]float64{}
	r.mu.Unlock()
	return r.Update()
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// EventsOf returns the recorded events of the given kind.
func (r *Recorder) EventsOf(kind EventKind) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Clear drops the recorded events but keeps held state.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// HeldKeys returns the keys currently down, sorted.
func (r *Recorder) HeldKeys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.keys))
	for k := range r.keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HeldButton reports whether b is down.
func (r *Recorder) HeldButton(b Button) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buttons[b]
}

// Stick returns the buffered stick position.
func (r *Recorder) Stick() (float64, float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stick[0], r.stick[1]
}

// Triggers returns the buffered trigger values.
func (r *Recorder) Triggers() (float64, float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.triggers[0], r.triggers[1]
}

// Closed reports whether Close has been called.
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
