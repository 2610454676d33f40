package tui

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/1broseidon/multiwin/internal/scene"
	"github.com/1broseidon/multiwin/internal/winreg"
)

// View is a terminal rendering of the shared window roster: a minimap of
// every registered window plus a table, redrawn on every poll tick.
type View struct {
	reg      *winreg.Registry
	scene    *scene.Scene
	interval time.Duration

	membership chan struct{}
	shape      chan struct{}

	// Terminal state
	oldState *term.State
	width    int
	height   int
}

// New creates a view over a registered registry.
func New(reg *winreg.Registry, interval time.Duration) *View {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	return &View{
		reg:        reg,
		scene:      scene.New(),
		interval:   interval,
		membership: make(chan struct{}, 1),
		shape:      make(chan struct{}, 1),
	}
}

// Run draws until the user quits or ctx is cancelled. The caller owns
// registration and teardown of the registry.
func (v *View) Run(ctx context.Context) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("view requires an interactive terminal (stdin/stdout must be TTYs)")
	}

	// Enter raw mode
	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("failed to enter raw mode: %w", err)
	}
	v.oldState = oldState
	defer v.restore()

	v.reg.OnMembershipChanged(func() { signal(v.membership) })
	v.reg.OnShapeChanged(func() { signal(v.shape) })
	defer v.reg.OnMembershipChanged(nil)
	defer v.reg.OnShapeChanged(nil)

	v.scene.Rebuild(v.reg.Windows())
	v.scene.SetOffsetTarget(v.reg.Self().Shape, false)

	input := make(chan []byte)
	go readInput(input)

	fmt.Print("\x1b[?25l") // hide cursor
	v.updateSize()
	v.render()

	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case buf, ok := <-input:
			if !ok || v.handleInput(buf) {
				return nil
			}
		case <-v.membership:
			v.scene.Rebuild(v.reg.Windows())
		case <-v.shape:
			v.scene.SetOffsetTarget(v.reg.Self().Shape, true)
		case <-ticker.C:
			v.reg.Poll()
			v.scene.Step(v.reg.Windows())
			v.updateSize()
			v.render()
		}
	}
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func readInput(out chan<- []byte) {
	defer close(out)
	buf := make([]byte, 32)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return
		}
		chunk := make([]byte, n)
		copy(chunk, buf[:n])
		out <- chunk
	}
}

func (v *View) handleInput(input []byte) bool {
	for _, b := range input {
		switch b {
		case 'q', 0x1b: // q or Escape
			return true
		case 0x03: // Ctrl+C
			return true
		}
	}
	return false
}

func (v *View) restore() {
	if v.oldState != nil {
		term.Restore(int(os.Stdin.Fd()), v.oldState)
	}
	// Clear screen and show cursor on exit
	fmt.Print("\x1b[0m")   // reset
	fmt.Print("\x1b[?25h") // show cursor
	fmt.Print("\x1b[2J")   // clear screen
	fmt.Print("\x1b[H")    // home cursor
}

func (v *View) updateSize() {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		v.width = 80
		v.height = 24
		return
	}
	v.width = w
	v.height = h
}

func (v *View) render() {
	frame := Frame{
		Width:   v.width,
		Height:  v.height,
		Windows: v.reg.Windows(),
		SelfID:  v.reg.SelfID(),
		Scene:   v.scene,
	}
	fmt.Print("\x1b[H\x1b[2J")
	fmt.Print(RenderFrame(frame))
}
