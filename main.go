/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/chiaro/engine"
	"github.com/spaghettifunk/chiaro/testbed"
)

func main() {
	configPath := flag.String("config", "chiaro.toml", "renderer tunables file, hot-reloaded on change")
	headless := flag.Bool("headless", false, "render to PNG files instead of the terminal")
	outDir := flag.String("out", "frames", "output directory for headless frames")
	frames := flag.Int("frames", 0, "stop after this many frames (0 = run until quit)")
	width := flag.Uint("width", 480, "surface width in pixels (headless only)")
	height := flag.Uint("height", 270, "surface height in pixels (headless only)")
	fps := flag.Int("fps", 30, "frame rate cap (0 = uncapped)")
	model := flag.String("model", "", "optional glTF/GLB mesh to add to the scene")
	flag.Parse()

	tb, err := testbed.NewTestGame()
	if err != nil {
		panic(err)
	}
	tb.ApplicationConfig.ConfigPath = *configPath
	tb.ApplicationConfig.Headless = *headless
	tb.ApplicationConfig.OutputDir = *outDir
	tb.ApplicationConfig.FrameLimit = *frames
	tb.ApplicationConfig.StartWidth = uint32(*width)
	tb.ApplicationConfig.StartHeight = uint32(*height)
	tb.ApplicationConfig.TargetFPS = *fps
	tb.ApplicationConfig.ModelPath = *model

	engine, err := engine.New(tb.Game)
	if err != nil {
		panic(err)
	}

	if err := engine.Initialize(); err != nil {
		panic(err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// ask the frame loop to stop on the next drain
	go func() {
		<-sigCh
		engine.RequestQuit()
	}()

	// run engine
	if err := engine.Run(); err != nil {
		panic(err)
	}
}
