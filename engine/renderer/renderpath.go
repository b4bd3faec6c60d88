package renderer

// PathType selects a rendering strategy.
type PathType uint8

const (
	PathForward PathType = iota
	PathTiledForward
	PathDeferred
)

func (t PathType) String() string {
	switch t {
	case PathForward:
		return "forward"
	case PathTiledForward:
		return "tiled-forward"
	case PathDeferred:
		return "deferred"
	}
	return "unknown"
}

// RenderPath is a swappable strategy for drawing the scene into the HDR
// target. The orchestrator owns exactly one at a time; switching tears the
// old one down and initializes the replacement. Implementations own
// whatever auxiliary device resources they need and release them in
// Shutdown.
type RenderPath interface {
	// Name identifies the path in logs and tests.
	Name() string
	Initialize(width, height uint32) error
	// Execute draws the scene described by data into data.Target. It must
	// not retain data past the call.
	Execute(data *RenderPassData)
	// NeedsDepthPrepass reports whether the orchestrator should run a
	// depth prepass before Execute.
	NeedsDepthPrepass() bool
	OnResize(width, height uint32)
	Shutdown()
}
