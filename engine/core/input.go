package core

import "sync"

// Input tracks keyboard state assembled from presenter key events. Key
// names use the presenter's spelling: "a", "escape", "ctrl+c", "+".
//
// Release events depend on the terminal's keyboard protocol; plain
// terminals only deliver presses, so WasKeyPressed is the reliable edge.
type Input struct {
	mu       sync.Mutex
	down     map[string]bool
	pressed  map[string]bool
	released map[string]bool
}

func NewInput() *Input {
	return &Input{
		down:     make(map[string]bool),
		pressed:  make(map[string]bool),
		released: make(map[string]bool),
	}
}

// ProcessKey ingests one key event, pressed=false for a release.
func (in *Input) ProcessKey(key string, pressed bool) {
	if key == "" {
		return
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if pressed {
		if !in.down[key] {
			in.pressed[key] = true
		}
		in.down[key] = true
	} else {
		if in.down[key] {
			in.released[key] = true
		}
		in.down[key] = false
	}
}

// Update rolls the per-frame edge state over. Call once per frame, after
// events are drained and the game updated.
func (in *Input) Update() {
	in.mu.Lock()
	defer in.mu.Unlock()
	clear(in.pressed)
	clear(in.released)
}

// IsKeyDown reports whether the key is currently held.
func (in *Input) IsKeyDown(key string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.down[key]
}

// WasKeyPressed reports whether the key went down during this frame.
func (in *Input) WasKeyPressed(key string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.pressed[key]
}

// WasKeyReleased reports whether the key came up during this frame.
func (in *Input) WasKeyReleased(key string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.released[key]
}
