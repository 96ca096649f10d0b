package gesture

import "sync"

// Pattern names a finger pose.
type Pattern struct {
	Name    string  `json:"name" yaml:"name"`
	Fingers Fingers `json:"fingers" yaml:"fingers"`
}

// Matcher matches finger states against registered patterns. Patterns are
// tried in registration order and the first exact match wins.
type Matcher struct {
	mu       sync.RWMutex
	patterns []Pattern
}

// NewMatcher creates a Matcher holding the given patterns.
func NewMatcher(patterns ...Pattern) *Matcher {
	m := &Matcher{}
	for _, p := range patterns {
		m.Add(p)
	}
	return m
}

// Add registers a pattern, replacing any existing pattern of the same name.
func (m *Matcher) Add(p Pattern) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.patterns {
		if m.patterns[i].Name == p.Name {
			m.patterns[i] = p
			return
		}
	}
	m.patterns = append(m.patterns, p)
}

// Match returns the name of the first pattern equal to f.
func (m *Matcher) Match(f Fingers) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.patterns {
		if p.Fingers == f {
			return p.Name, true
		}
	}
	return "", false
}
