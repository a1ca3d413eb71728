// input.go - Button and mouse bus for the retro8 fantasy console
//
// Input is double-buffered: the embedder drives the bus once per
// tick via UpdateButtons, and btn()/btnp() read whatever was committed by
// the last such call, never the embedder's live state mid-frame. This
// mirrors how the memory-mapped HW_STATE region is itself only ever
// written between ticks, never during script execution.
package main

// InputState tracks the 64 logical buttons (2 players x 32, though only
// the low 8 per player are named) across ticks, so btnp can report edges
// and auto-repeat without the embedder tracking history itself.
type InputState struct {
	held      [NUM_BUTTONS]int // consecutive ticks held, 0 = not held
	heldPrior [NUM_BUTTONS]bool

	mouseX, mouseY  int
	mouseButtons    byte
	mouseFlagActive bool
}

func NewInputState() *InputState {
	return &InputState{}
}

func buttonIndex(i, p int) int {
	return p*BUTTONS_PER_PL + i
}

// UpdateButtons commits a new raw button snapshot for the tick boundary,
// advancing each button's held-tick counter or resetting it.
// This is the single place the bus for btn()/btnp() changes; it is
// distinct from the embedder's live polling, matching the script-visible
// _update_buttons entry point.
func (in *InputState) UpdateButtons(down [NUM_BUTTONS]bool) {
	for i := 0; i < NUM_BUTTONS; i++ {
		if down[i] {
			in.held[i]++
		} else {
			in.held[i] = 0
		}
		in.heldPrior[i] = down[i]
	}
}

// Btn reports whether button i for player p is currently held.
func (in *InputState) Btn(i, p int) bool {
	idx := buttonIndex(i, p)
	if idx < 0 || idx >= NUM_BUTTONS {
		return false
	}
	return in.held[idx] > 0
}

// BtnBitmask returns all 8 named buttons for player p packed into the low
// bits, the form btn() takes with a single player argument.
func (in *InputState) BtnBitmask(p int) uint32 {
	var mask uint32
	for i := 0; i < BUTTONS_PER_PL; i++ {
		if in.Btn(i, p) {
			mask |= 1 << uint(i)
		}
	}
	return mask
}

// Btnp implements the "just pressed, or auto-repeating" rule: true on the
// first tick a button is held, then again once it has been held for more
// than 15 ticks and every 4th tick thereafter.
func (in *InputState) Btnp(i, p int) bool {
	idx := buttonIndex(i, p)
	if idx < 0 || idx >= NUM_BUTTONS {
		return false
	}
	h := in.held[idx]
	if h == 1 {
		return true
	}
	return h > 15 && h%4 == 0
}

// BtnpBitmask mirrors BtnBitmask for the auto-repeat form.
func (in *InputState) BtnpBitmask(p int) uint32 {
	var mask uint32
	for i := 0; i < BUTTONS_PER_PL; i++ {
		if in.Btnp(i, p) {
			mask |= 1 << uint(i)
		}
	}
	return mask
}

// SetMouse updates the mouse position/buttons; mouse state is only ever
// visible to scripts through stat(32..34) once HW_MOUSE_FLAG has been
// set, so embedders that never opt a cartridge into mouse support never
// perturb stat() for button/axis queries.
func (in *InputState) SetMouse(x, y int, buttons byte) {
	in.mouseX, in.mouseY, in.mouseButtons = x, y, buttons
}

func (in *InputState) SetMouseFlag(active bool) { in.mouseFlagActive = active }

func (in *InputState) MouseX() int {
	if !in.mouseFlagActive {
		return 0
	}
	return in.mouseX
}

func (in *InputState) MouseY() int {
	if !in.mouseFlagActive {
		return 0
	}
	return in.mouseY
}

func (in *InputState) MouseButtons() byte {
	if !in.mouseFlagActive {
		return 0
	}
	return in.mouseButtons
}
