package engine

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spaghettifunk/chiaro/engine/assets"
	"github.com/spaghettifunk/chiaro/engine/config"
	"github.com/spaghettifunk/chiaro/engine/core"
	"github.com/spaghettifunk/chiaro/engine/platform"
	"github.com/spaghettifunk/chiaro/engine/renderer"
	"github.com/spaghettifunk/chiaro/engine/renderer/soft"
	"github.com/spaghettifunk/chiaro/engine/resources"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently booting up
	EngineStageBooting
	// Engine completed boot process and is ready to be initialized
	EngineStageBootComplete
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

// Engine owns the frame loop: drain events, update the game, render the
// scene, present the backbuffer. Everything event-driven (terminal input,
// config reload) is posted to the bus and handled on the loop goroutine.
type Engine struct {
	currentStage Stage
	gameInstance *Game
	isRunning    bool

	bus       *core.EventBus
	input     *core.Input
	device    *soft.Device
	renderer  *renderer.SceneRenderer
	presenter platform.Presenter
	watcher   *config.Watcher
	cfg       *config.Config
	logFile   *os.File

	gradingLUT *resources.Texture

	width  uint32
	height uint32

	clock    *core.Clock
	metrics  *core.Metrics
	lastTime float64
	frames   int

	reloadMu  sync.Mutex
	reloadCfg *config.Config
}

func New(g *Game) (*Engine, error) {
	if g == nil || g.ApplicationConfig == nil {
		return nil, fmt.Errorf("engine needs a game with an application config")
	}

	e := &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		bus:          core.NewEventBus(),
		input:        core.NewInput(),
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
	}

	e.currentStage = EngineStageBooting
	e.cfg = loadConfig(g.ApplicationConfig.ConfigPath)

	if g.FnBoot != nil {
		if err := g.FnBoot(); err != nil {
			return nil, fmt.Errorf("game boot: %w", err)
		}
	}

	e.currentStage = EngineStageBootComplete
	return e, nil
}

// loadConfig never fails the boot: a missing file is bootstrapped with the
// defaults, a broken one is logged and ignored.
func loadConfig(path string) *config.Config {
	if path == "" {
		return config.Default()
	}
	cfg, err := config.Load(path)
	if err == nil {
		return cfg
	}
	if errors.Is(err, os.ErrNotExist) {
		cfg = config.Default()
		if werr := cfg.Save(path); werr != nil {
			core.LogWarn("could not write default config: %v", werr)
		} else {
			core.LogInfo("wrote default config to %s", path)
		}
		return cfg
	}
	core.LogWarn("config load failed, using defaults: %v", err)
	return config.Default()
}

func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageBootComplete {
		return fmt.Errorf("engine initialize: %w", core.ErrAlreadyInitialized)
	}
	e.currentStage = EngineStageInitializing

	appCfg := e.gameInstance.ApplicationConfig

	var err error
	if appCfg.Headless {
		e.presenter, err = platform.NewHeadlessPresenter(appCfg.OutputDir, appCfg.StartWidth, appCfg.StartHeight)
	} else {
		// Writing to stderr would tear the cell grid once the terminal
		// presenter takes over, so logs go to a sidecar file.
		if f, ferr := os.Create("chiaro.log"); ferr != nil {
			core.LogWarn("log file unavailable, logging stays on stderr: %v", ferr)
		} else {
			core.SetLogOutput(f)
			e.logFile = f
		}
		e.presenter, err = platform.NewTerminalPresenter(e.bus)
	}
	if err != nil {
		return fmt.Errorf("create presenter: %w", err)
	}

	e.width, e.height = e.presenter.Size()
	e.device = soft.New(e.width, e.height)
	e.renderer = renderer.NewSceneRenderer(e.device, e.width, e.height, e.cfg.Renderer)
	if !e.renderer.Valid() {
		e.presenter.Shutdown()
		return fmt.Errorf("scene renderer construction failed")
	}
	e.applyGradingLUT(e.cfg.Renderer.Grading.LUTPath)

	e.bus.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	e.bus.Register(core.EVENT_CODE_KEY_PRESSED, e, e.onKey)
	e.bus.Register(core.EVENT_CODE_KEY_RELEASED, e, e.onKey)
	e.bus.Register(core.EVENT_CODE_RESIZED, e, e.onResized)
	e.bus.Register(core.EVENT_CODE_CONFIG_RELOADED, e, e.onConfigReloaded)

	if appCfg.ConfigPath != "" {
		w, werr := config.NewWatcher(appCfg.ConfigPath, e.queueReload)
		if werr == nil {
			werr = w.Start()
		}
		if werr != nil {
			core.LogWarn("config hot reload disabled: %v", werr)
		} else {
			e.watcher = w
		}
	}

	e.gameInstance.Renderer = e.renderer
	e.gameInstance.Device = e.device
	e.gameInstance.Input = e.input

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(); err != nil {
			return fmt.Errorf("game initialize: %w", err)
		}
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	e.isRunning = true
	return nil
}

func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine run: %w", core.ErrNotInitialized)
	}
	e.currentStage = EngineStageRunning

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	appCfg := e.gameInstance.ApplicationConfig
	var targetSeconds float64
	if appCfg.TargetFPS > 0 {
		targetSeconds = 1.0 / float64(appCfg.TargetFPS)
	}

	for e.isRunning {
		e.bus.DrainPosted()
		if !e.isRunning {
			break
		}

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		e.lastTime = currentTime

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(delta); err != nil {
				core.LogError("game update failed, shutting down: %v", err)
				e.isRunning = false
				break
			}
		}

		if e.gameInstance.FnRender != nil {
			if err := e.gameInstance.FnRender(delta); err != nil {
				core.LogError("game render failed, shutting down: %v", err)
				e.isRunning = false
				break
			}
		}

		if err := e.presenter.Present(e.device.Backbuffer(), e.hudLine()); err != nil {
			core.LogError("present failed, shutting down: %v", err)
			e.isRunning = false
			break
		}

		e.metrics.Update(delta)
		e.input.Update()

		e.frames++
		if appCfg.FrameLimit > 0 && e.frames >= appCfg.FrameLimit {
			core.LogInfo("frame limit reached (%d), stopping", appCfg.FrameLimit)
			e.isRunning = false
		}

		if targetSeconds > 0 {
			e.clock.Update()
			frameElapsed := e.clock.Elapsed() - currentTime
			if remaining := targetSeconds - frameElapsed; remaining > 0 {
				time.Sleep(time.Duration(remaining * float64(time.Second)))
			}
		}
	}

	return e.Shutdown()
}

// RequestQuit asks the frame loop to stop after the current frame. Safe to
// call from any goroutine.
func (e *Engine) RequestQuit() {
	e.bus.Post(core.EVENT_CODE_APPLICATION_QUIT, e, core.EventContext{})
}

// Shutdown tears everything down in reverse construction order. Calling it
// again is a no-op.
func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShuttingDown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.isRunning = false

	fps, ms := e.metrics.Frame()
	core.LogInfo("ran %d frames, last second %.0f fps, %.1f ms average", e.frames, fps, ms)

	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			core.LogError("game shutdown: %v", err)
		}
	}
	if e.watcher != nil {
		e.watcher.Close()
		e.watcher = nil
	}
	if e.gradingLUT != nil {
		e.device.DestroyTexture(e.gradingLUT)
		e.gradingLUT = nil
	}
	if e.renderer != nil {
		e.renderer.Shutdown()
	}
	if e.presenter != nil {
		e.presenter.Shutdown()
	}
	if e.logFile != nil {
		core.SetLogOutput(os.Stderr)
		e.logFile.Close()
		e.logFile = nil
	}
	return nil
}

// GetFramebufferSize returns the width and height (in this order) of the
// render surface in pixels.
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) Bus() *core.EventBus { return e.bus }

func (e *Engine) hudLine() string {
	fps, ms := e.metrics.Frame()
	stats := e.renderer.Stats()
	return fmt.Sprintf(" %s | %dx%d | %.0f fps %.1f ms | draws %d culled %d tris %d | %s ",
		e.gameInstance.ApplicationConfig.Name, e.width, e.height, fps, ms,
		stats.DrawCalls, stats.Culled, stats.Triangles, e.renderer.PathName())
}

func (e *Engine) onEvent(code core.SystemEventCode, _ interface{}, _ interface{}, _ core.EventContext) bool {
	if code == core.EVENT_CODE_APPLICATION_QUIT {
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down")
		e.isRunning = false
		return true
	}
	return false
}

func (e *Engine) onKey(code core.SystemEventCode, _ interface{}, _ interface{}, data core.EventContext) bool {
	key := data.Data.C[0]
	pressed := code == core.EVENT_CODE_KEY_PRESSED
	e.input.ProcessKey(key, pressed)

	if pressed && (key == "escape" || key == "ctrl+c") {
		e.bus.Fire(core.EVENT_CODE_APPLICATION_QUIT, e, core.EventContext{})
		return true
	}
	// Game listeners may want the key as well.
	return false
}

func (e *Engine) onResized(_ core.SystemEventCode, _ interface{}, _ interface{}, data core.EventContext) bool {
	width := uint32(data.Data.I32[0])
	height := uint32(data.Data.I32[1])
	if width == e.width && height == e.height {
		return false
	}
	if width == 0 || height == 0 {
		core.LogInfo("surface collapsed to zero, skipping resize")
		return false
	}

	core.LogDebug("surface resize: %d x %d", width, height)
	e.width = width
	e.height = height
	e.device.Resize(width, height)
	e.renderer.OnResize(int32(width), int32(height))

	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(width, height); err != nil {
			core.LogError("game resize: %v", err)
		}
	}
	return false
}

// queueReload runs on the watcher goroutine. The parsed config is handed to
// the frame loop through the posted-event queue.
func (e *Engine) queueReload(cfg *config.Config) {
	e.reloadMu.Lock()
	e.reloadCfg = cfg
	e.reloadMu.Unlock()
	e.bus.Post(core.EVENT_CODE_CONFIG_RELOADED, e, core.EventContext{})
}

func (e *Engine) onConfigReloaded(_ core.SystemEventCode, _ interface{}, _ interface{}, _ core.EventContext) bool {
	e.reloadMu.Lock()
	cfg := e.reloadCfg
	e.reloadCfg = nil
	e.reloadMu.Unlock()
	if cfg == nil {
		return false
	}

	e.cfg = cfg
	e.renderer.ApplyConfig(cfg.Renderer)
	e.applyGradingLUT(cfg.Renderer.Grading.LUTPath)
	return true
}

// applyGradingLUT loads the grading table named by the config. Loading
// lives here rather than in the renderer so the renderer never touches the
// filesystem.
func (e *Engine) applyGradingLUT(path string) {
	if path == "" {
		return
	}
	lut, err := assets.LoadGradingLUT(e.device, path)
	if err != nil {
		core.LogWarn("grading table %s not loaded: %v", path, err)
		return
	}
	e.renderer.SetGradingLUT(lut)
	if e.gradingLUT != nil {
		e.device.DestroyTexture(e.gradingLUT)
	}
	e.gradingLUT = lut
}
