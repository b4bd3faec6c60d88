package engine

import (
	"github.com/spaghettifunk/chiaro/engine/core"
	"github.com/spaghettifunk/chiaro/engine/renderer"
)

// Game is supplied by the application. The engine fills Renderer, Device
// and Input before FnInitialize runs; everything else belongs to the game.
type Game struct {
	ApplicationConfig *ApplicationConfig
	Renderer          *renderer.SceneRenderer
	Device            renderer.Device
	Input             *core.Input
	State             interface{}

	FnBoot       Boot
	FnInitialize Initialize
	FnUpdate     Update
	FnRender     Render
	FnOnResize   OnResize
	FnShutdown   Shutdown
}

type Boot func() error
type Initialize func() error
type Update func(deltaTime float64) error
type Render func(deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
