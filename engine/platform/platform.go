// Package platform presents finished frames to the outside world, either
// on a terminal surface drawn with half blocks or as PNG files when
// running headless.
package platform

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	uv "github.com/charmbracelet/ultraviolet"
	xdraw "golang.org/x/image/draw"

	"github.com/spaghettifunk/chiaro/engine/core"
)

// Presenter is where the engine pushes finished frames. Size is in
// pixels; presenters whose surface can change post EVENT_CODE_RESIZED
// with the new pixel dimensions.
type Presenter interface {
	Size() (width, height uint32)
	Present(frame *image.RGBA, hud string) error
	Shutdown()
}

// forwardedKeys are the terminal keys translated into engine key events.
// Anything else the terminal reports is dropped here.
var forwardedKeys = []string{
	"escape", "ctrl+c", "space",
	"q", "w", "a", "s", "d", "e",
	"b", "g", "o", "p", "t",
	"0", "1", "2", "3", "4", "5",
	"+", "-",
}

// TerminalPresenter draws frames into the owning terminal, two pixels per
// character cell using the upper half block, and forwards input to the
// engine bus. Events are posted, not fired: the terminal reader runs on
// its own goroutine and the engine drains the queue each frame.
type TerminalPresenter struct {
	term *uv.Terminal
	bus  *core.EventBus

	mu   sync.Mutex
	cols int
	rows int
}

func NewTerminalPresenter(bus *core.EventBus) (*TerminalPresenter, error) {
	term := uv.DefaultTerminal()
	cols, rows, err := term.GetSize()
	if err != nil {
		return nil, fmt.Errorf("terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return nil, fmt.Errorf("start terminal: %w", err)
	}
	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(cols, rows)

	p := &TerminalPresenter{term: term, bus: bus, cols: cols, rows: rows}
	go p.pumpEvents()
	return p, nil
}

// Size returns the pixel dimensions of the drawing surface, one pixel per
// column and two pixel rows per character row.
func (p *TerminalPresenter) Size() (uint32, uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return uint32(p.cols), uint32(p.rows * 2)
}

func (p *TerminalPresenter) pumpEvents() {
	for ev := range p.term.Events() {
		switch ev := ev.(type) {
		case uv.WindowSizeEvent:
			p.mu.Lock()
			p.cols = ev.Width
			p.rows = ev.Height
			p.mu.Unlock()
			p.term.Erase()
			p.term.Resize(ev.Width, ev.Height)
			ctx := core.EventContext{}
			ctx.Data.I32[0] = int32(ev.Width)
			ctx.Data.I32[1] = int32(ev.Height * 2)
			p.bus.Post(core.EVENT_CODE_RESIZED, p, ctx)
		case uv.KeyPressEvent:
			if key, ok := matchForwarded(ev); ok {
				ctx := core.EventContext{}
				ctx.Data.C[0] = key
				p.bus.Post(core.EVENT_CODE_KEY_PRESSED, p, ctx)
			}
		case uv.KeyReleaseEvent:
			if key, ok := matchForwarded(ev); ok {
				ctx := core.EventContext{}
				ctx.Data.C[0] = key
				p.bus.Post(core.EVENT_CODE_KEY_RELEASED, p, ctx)
			}
		}
	}
}

// keyMatcher is satisfied by both key press and key release events.
type keyMatcher interface {
	MatchString(s ...string) bool
}

func matchForwarded(ev keyMatcher) (string, bool) {
	for _, key := range forwardedKeys {
		if ev.MatchString(key) {
			return key, true
		}
	}
	return "", false
}

func (p *TerminalPresenter) Present(frame *image.RGBA, hud string) error {
	if frame == nil {
		return nil
	}
	p.mu.Lock()
	cols, rows := p.cols, p.rows
	p.mu.Unlock()

	// A resize leaves one frame rendered at the old size; rescale it to
	// the cell grid instead of drawing it cropped.
	frame = fitToGrid(frame, cols, rows*2)

	bounds := frame.Bounds()
	for row := 0; row < rows; row++ {
		topY := row * 2
		botY := topY + 1
		for col := 0; col < cols; col++ {
			cell := &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: pixelColor(frame, bounds, col, topY),
					Bg: pixelColor(frame, bounds, col, botY),
				},
			}
			p.term.SetCell(col, row, cell)
		}
	}
	drawHUD(p.term, hud, cols)
	return p.term.Display()
}

func pixelColor(img *image.RGBA, bounds image.Rectangle, x, y int) color.Color {
	if x >= bounds.Dx() || y >= bounds.Dy() {
		return nil
	}
	return img.RGBAAt(bounds.Min.X+x, bounds.Min.Y+y)
}

func fitToGrid(frame *image.RGBA, width, height int) *image.RGBA {
	b := frame.Bounds()
	if width <= 0 || height <= 0 || (b.Dx() == width && b.Dy() == height) {
		return frame
	}
	scaled := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), frame, b, xdraw.Src, nil)
	return scaled
}

// drawHUD overlays one status line across the top character row.
func drawHUD(scr uv.Screen, hud string, cols int) {
	if hud == "" {
		return
	}
	fg := color.RGBA{235, 235, 235, 255}
	bg := color.RGBA{20, 20, 20, 255}
	col := 0
	for _, r := range hud {
		if col >= cols {
			break
		}
		scr.SetCell(col, 0, &uv.Cell{Content: string(r), Width: 1, Style: uv.Style{Fg: fg, Bg: bg}})
		col++
	}
}

func (p *TerminalPresenter) Shutdown() {
	p.term.ExitAltScreen()
	p.term.ShowCursor()
	p.term.Shutdown(context.Background())
}

// HeadlessPresenter writes frames to numbered PNG files. Useful for CI
// runs and for inspecting render output without a terminal.
type HeadlessPresenter struct {
	dir    string
	width  uint32
	height uint32
	frame  int
}

func NewHeadlessPresenter(dir string, width, height uint32) (*HeadlessPresenter, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("headless surface needs a non-zero size, got %dx%d", width, height)
	}
	if dir == "" {
		dir = "frames"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &HeadlessPresenter{dir: dir, width: width, height: height}, nil
}

func (p *HeadlessPresenter) Size() (uint32, uint32) { return p.width, p.height }

// Present encodes the frame as frame_NNNN.png in the output directory.
// The HUD line is not baked into the image.
func (p *HeadlessPresenter) Present(frame *image.RGBA, _ string) error {
	if frame == nil {
		return nil
	}
	path := filepath.Join(p.dir, fmt.Sprintf("frame_%04d.png", p.frame))
	p.frame++
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, frame)
}

func (p *HeadlessPresenter) Shutdown() {}
