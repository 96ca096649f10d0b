package input

import "sort"

// KeySet tracks which keys it holds down on a Keyboard and only sends
// press and release edges. It is not safe for concurrent use.
type KeySet struct {
	kb      Keyboard
	pressed map[string]bool
}

// NewKeySet wraps kb.
func NewKeySet(kb Keyboard) *KeySet {
	return &KeySet{kb: kb, pressed: make(map[string]bool)}
}

// Sync makes want the exact set of held keys. Keys no longer wanted are
// released before new ones are pressed.
func (s *KeySet) Sync(want ...string) error {
	wanted := make(map[string]bool, len(want))
	for _, k := range want {
		if err := CheckKey(k); err != nil {
			return err
		}
		wanted[k] = true
	}
	for _, k := range s.Pressed() {
		if !wanted[k] {
			if err := s.Release(k); err != nil {
				return err
			}
		}
	}
	for _, k := range want {
		if err := s.Press(k); err != nil {
			return err
		}
	}
	return nil
}

// Press holds key down unless it already is.
func (s *KeySet) Press(key string) error {
	if err := CheckKey(key); err != nil {
		return err
	}
	if s.pressed[key] {
		return nil
	}
	if err := s.kb.KeyDown(key); err != nil {
		return err
	}
	s.pressed[key] = true
	return nil
}

// Release lets key go if it is held.
func (s *KeySet) Release(key string) error {
	if !s.pressed[key] {
		return nil
	}
	if err := s.kb.KeyUp(key); err != nil {
		return err
	}
	delete(s.pressed, key)
	return nil
}

// Tap presses and releases key. A held key is released and pressed again.
func (s *KeySet) Tap(key string) error {
	if err := CheckKey(key); err != nil {
		return err
	}
	if err := s.Release(key); err != nil {
		return err
	}
	if err := s.kb.KeyDown(key); err != nil {
		return err
	}
	return s.kb.KeyUp(key)
}

// ReleaseAll lets every held key go. It attempts all releases and returns
// the first error.
func (s *KeySet) ReleaseAll() error {
	var first error
	for _, k := range s.Pressed() {
		if err := s.Release(k); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// IsPressed reports whether key is held.
func (s *KeySet) IsPressed(key string) bool { return s.pressed[key] }

// Pressed returns the held keys, sorted.
func (s *KeySet) Pressed() []string {
	keys := make([]string, 0, len(s.pressed))
	for k := range s.pressed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ButtonSet is KeySet for mouse buttons.
type ButtonSet struct {
	mouse   Mouse
	pressed map[Button]bool
}

// NewButtonSet wraps m.
func NewButtonSet(m Mouse) *ButtonSet {
	return &ButtonSet{mouse: m, pressed: make(map[Button]bool)}
}

// Sync makes want the exact set of held buttons.
func (s *ButtonSet) Sync(want ...Button) error {
	wanted := make(map[Button]bool, len(want))
	for _, b := range want {
		wanted[b] = true
	}
	for _, b := range s.Pressed() {
		if !wanted[b] {
			if err := s.Release(b); err != nil {
				return err
			}
		}
	}
	for _, b := range want {
		if err := s.Press(b); err != nil {
			return err
		}
	}
	return nil
}

// Press holds b down unless it already is.
func (s *ButtonSet) Press(b Button) error {
	if s.pressed[b] {
		return nil
	}
	if err := s.mouse.ButtonDown(b); err != nil {
		return err
	}
	s.pressed[b] = true
	return nil
}

// Release lets b go if it is held.
func (s *ButtonSet) Release(b Button) error {
	if !s.pressed[b] {
		return nil
	}
	if err := s.mouse.ButtonUp(b); err != nil {
		return err
	}
	delete(s.pressed, b)
	return nil
}

// Click releases b if held and clicks it.
func (s *ButtonSet) Click(b Button) error {
	if err := s.Release(b); err != nil {
		return err
	}
	return s.mouse.Click(b)
}

// ReleaseAll lets every held button go.
func (s *ButtonSet) ReleaseAll() error {
	var first error
	for _, b := range s.Pressed() {
		if err := s.Release(b); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// IsPressed reports whether b is held.
func (s *ButtonSet) IsPressed(b Button) bool { return s.pressed[b] }

// Pressed returns the held buttons in ascending order.
func (s *ButtonSet) Pressed() []Button {
	out := make([]Button, 0, len(s.pressed))
	for b := range s.pressed {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
