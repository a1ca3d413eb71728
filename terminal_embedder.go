// terminal_embedder.go - Headless terminal front-end for the console
//
// This is the embedder half of the API put to work without a graphics
// stack: raw-mode stdin becomes the button bus, and the SCREEN region is
// painted to the terminal with half-block glyphs. Only instantiated in
// main.go for interactive use - never in tests.
package main

import (
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"
)

// Button indices on the pad.
const (
	BTN_LEFT  = 0
	BTN_RIGHT = 1
	BTN_UP    = 2
	BTN_DOWN  = 3
	BTN_O     = 4
	BTN_X     = 5
)

// keyHoldFrames is how many frames a terminal keypress counts as held: a
// terminal only reports key-down events, so each press is stretched into
// a short hold and released when the repeat stream stops.
const keyHoldFrames = 4

// TerminalEmbedder reads raw stdin and feeds keypresses into a VM's
// button bus between steps.
type TerminalEmbedder struct {
	vm      *VM
	stopCh  chan struct{}
	done    chan struct{}
	stopped sync.Once

	mu   sync.Mutex
	held [NUM_BUTTONS]int

	quit bool

	fd           int
	nonblockSet  bool
	oldTermState *term.State
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func NewTerminalEmbedder(vm *VM) *TerminalEmbedder {
	return &TerminalEmbedder{
		vm:     vm,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start sets stdin to raw non-blocking mode and begins decoding keys in a
// goroutine. Arrow keys map to the d-pad, z/x to the two action buttons,
// q (or ctrl-c) requests quit.
func (t *TerminalEmbedder) Start() error {
	t.fd = int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(t.fd)
	if err != nil {
		close(t.done)
		return fmt.Errorf("terminal embedder: set raw mode: %w", err)
	}
	t.oldTermState = oldState

	if err := syscall.SetNonblock(t.fd, true); err != nil {
		_ = term.Restore(t.fd, t.oldTermState)
		t.oldTermState = nil
		close(t.done)
		return fmt.Errorf("terminal embedder: set nonblocking stdin: %w", err)
	}
	t.nonblockSet = true

	go func() {
		defer close(t.done)
		buf := make([]byte, 8)

		for {
			select {
			case <-t.stopCh:
				return
			default:
			}

			n, err := syscall.Read(t.fd, buf)
			if n > 0 {
				t.decodeKeys(buf[:n])
			}
			if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK || n == 0 {
				time.Sleep(5 * time.Millisecond)
				continue
			}
			if err != nil {
				return
			}
		}
	}()
	return nil
}

func (t *TerminalEmbedder) decodeKeys(buf []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := 0; i < len(buf); i++ {
		b := buf[i]
		switch b {
		case 0x1b: // ESC [ A..D arrow sequences
			if i+2 < len(buf) && buf[i+1] == '[' {
				switch buf[i+2] {
				case 'A':
					t.held[BTN_UP] = keyHoldFrames
				case 'B':
					t.held[BTN_DOWN] = keyHoldFrames
				case 'C':
					t.held[BTN_RIGHT] = keyHoldFrames
				case 'D':
					t.held[BTN_LEFT] = keyHoldFrames
				}
				i += 2
			}
		case 'z', 'Z', 'c', 'C', 'n', 'N':
			t.held[BTN_O] = keyHoldFrames
		case 'x', 'X', 'v', 'V', 'm', 'M':
			t.held[BTN_X] = keyHoldFrames
		case 'q', 'Q', 0x03:
			t.quit = true
		}
	}
}

// Apply commits the current key state into the VM's button bus and counts
// each synthetic hold down one frame. Call once per step, before Step.
func (t *TerminalEmbedder) Apply() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := 0; i < NUM_BUTTONS; i++ {
		t.vm.Button(i%BUTTONS_PER_PL, i/BUTTONS_PER_PL, t.held[i] > 0)
		if t.held[i] > 0 {
			t.held[i]--
		}
	}
}

// QuitRequested reports whether the user asked to stop.
func (t *TerminalEmbedder) QuitRequested() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.quit
}

// Stop terminates the reader goroutine and restores the terminal.
func (t *TerminalEmbedder) Stop() {
	t.stopped.Do(func() {
		close(t.stopCh)
	})
	<-t.done
	if t.nonblockSet {
		_ = syscall.SetNonblock(t.fd, false)
		t.nonblockSet = false
	}
	if t.oldTermState != nil {
		_ = term.Restore(t.fd, t.oldTermState)
		t.oldTermState = nil
	}
}

// ansiPalette approximates the console's 16 colors with ANSI-256 codes.
var ansiPalette = [16]int{
	16, 54, 89, 29, 94, 59, 251, 231,
	197, 214, 220, 47, 39, 103, 211, 223,
}

// DrawScreen paints the 128x128 framebuffer to the terminal, two rows per
// text line via the upper-half-block glyph, applying the screen palette
// the way a display front-end is meant to.
func (t *TerminalEmbedder) DrawScreen(out *os.File) {
	screen := t.vm.Screen()
	pal := t.vm.ScreenPalette()
	fmt.Fprint(out, "\033[H")
	for y := 0; y < SCREEN_HEIGHT_PX; y += 2 {
		for x := 0; x < SCREEN_WIDTH_PX; x++ {
			top := screenPixel(screen, x, y)
			bot := screenPixel(screen, x, y+1)
			fmt.Fprintf(out, "\033[38;5;%dm\033[48;5;%dm▀",
				ansiPalette[pal[top]&0xf], ansiPalette[pal[bot]&0xf])
		}
		fmt.Fprint(out, "\033[0m\r\n")
	}
}

func screenPixel(screen []byte, x, y int) byte {
	b := screen[(y*SCREEN_WIDTH_PX+x)/2]
	if x%2 != 0 {
		return b >> 4
	}
	return b & 0x0f
}
