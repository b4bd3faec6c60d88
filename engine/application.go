package engine

// ApplicationConfig describes how the application wants to run. The game
// fills it once before handing itself to the engine.
type ApplicationConfig struct {
	// The application name, shown in the HUD line.
	Name string
	// Surface size in pixels when running headless. The terminal
	// presenter derives its size from the terminal instead.
	StartWidth  uint32
	StartHeight uint32
	// Path of the renderer tunables TOML file. When empty the compiled
	// defaults are used and hot reload stays off.
	ConfigPath string
	// Headless renders to PNG files under OutputDir instead of a
	// terminal surface.
	Headless  bool
	OutputDir string
	// FrameLimit stops the loop after this many frames when positive.
	FrameLimit int
	// TargetFPS caps the frame rate when positive.
	TargetFPS int
	// ModelPath optionally names a glTF/GLB mesh for the game to place in
	// its scene.
	ModelPath string
}
