package core

import "testing"

func TestInputPressEdges(t *testing.T) {
	in := NewInput()

	in.ProcessKey("a", true)
	if !in.IsKeyDown("a") {
		t.Errorf("key should be down after a press")
	}
	if !in.WasKeyPressed("a") {
		t.Errorf("press edge should be visible this frame")
	}

	in.Update()
	if in.WasKeyPressed("a") {
		t.Errorf("press edge should clear on the frame roll")
	}
	if !in.IsKeyDown("a") {
		t.Errorf("held key should stay down across frames")
	}

	// Terminal key repeat delivers more presses while held; they are not
	// new edges.
	in.ProcessKey("a", true)
	if in.WasKeyPressed("a") {
		t.Errorf("auto-repeat must not fake a new press edge")
	}

	in.ProcessKey("a", false)
	if in.IsKeyDown("a") {
		t.Errorf("key should be up after a release")
	}
	if !in.WasKeyReleased("a") {
		t.Errorf("release edge should be visible this frame")
	}

	in.Update()
	if in.WasKeyReleased("a") {
		t.Errorf("release edge should clear on the frame roll")
	}
}

func TestInputReleaseWithoutPress(t *testing.T) {
	in := NewInput()
	in.ProcessKey("b", false)
	if in.WasKeyReleased("b") {
		t.Errorf("a release for a key that was never down is not an edge")
	}
}

func TestInputIgnoresEmptyKey(t *testing.T) {
	in := NewInput()
	in.ProcessKey("", true)
	if in.IsKeyDown("") {
		t.Errorf("empty key names should be ignored")
	}
}

func TestInputTracksDistinctKeys(t *testing.T) {
	in := NewInput()
	in.ProcessKey("ctrl+c", true)
	in.ProcessKey("escape", true)
	in.ProcessKey("escape", false)

	if !in.IsKeyDown("ctrl+c") {
		t.Errorf("ctrl+c should still be down")
	}
	if in.IsKeyDown("escape") {
		t.Errorf("escape should be up")
	}
	if !in.WasKeyPressed("escape") || !in.WasKeyReleased("escape") {
		t.Errorf("escape should carry both edges within one frame")
	}
}
