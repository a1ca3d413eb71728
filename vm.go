// vm.go - Script-host VM binding gopher-lua to the memory/render/input kernels
//
// The VM owns one gopher-lua runtime, registers every name in the
// script-visible API as a native callback, and runs each frame's tick (and
// the cart's initial run) inside a Lua coroutine so the instruction-budget
// hook can cooperatively yield back to the embedder's frame loop.
// gopher-lua has no lua_sethook equivalent, so each native call is counted
// as one hook interval's worth of instructions: a documented approximation
// of the bytecode-level hook, which any interpreter with an instruction
// hook could replace.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	lua "github.com/yuin/gopher-lua"
)

type audioChannel struct {
	SfxIndex int
	Row      int
}

// VM is the console's live state: cart, memory, instruction counter,
// button state, mouse, audio channels, timer, rendering state, and the
// script-runtime handle.
type VM struct {
	mem      *Memory
	input    *InputState
	state    *renderState
	renderer *Renderer
	cart     *Cartridge
	cdata    *CartData
	menus    *MenuRegistry

	L      *lua.LState
	tickFn *lua.LFunction

	// Coroutine suspension state: when a tick (or the initial run) blows
	// the instruction budget it yields mid-script, and the next Step
	// resumes it with the values the interrupted native call produced.
	co         *lua.LState
	coCancel   func()
	suspended  bool
	pendingFn  *lua.LFunction
	resumeVals []lua.LValue

	instrCount  int
	instrBudget int

	pendingButtons [NUM_BUTTONS]bool

	startedAt time.Time
	rng       *rand.Rand

	audio [NUM_AUDIO_CHANNELS]audioChannel
	music struct {
		pattern int
		playing bool
	}

	stubSeen map[string]bool

	printhSink *os.File
}

// NewVM constructs a VM with memory cleared, the API surface registered,
// and the bootstrap script loaded. baseDir scopes cartdata persistence.
func NewVM(baseDir string) (*VM, error) {
	vm := &VM{
		mem:         NewMemory(),
		input:       NewInputState(),
		state:       newRenderState(),
		menus:       NewMenuRegistry(),
		instrBudget: DEFAULT_INSTR_HOOK_INTERVAL * DEFAULT_INSTR_BUDGET_HOOKS,
		startedAt:   time.Now(),
		rng:         rand.New(rand.NewSource(0)),
		stubSeen:    map[string]bool{},
		printhSink:  os.Stdout,
	}
	vm.renderer = NewRenderer(vm.mem, vm.state)
	vm.cdata = NewCartData(vm.mem, baseDir)
	for i := range vm.audio {
		vm.audio[i].SfxIndex = -1
	}

	vm.L = lua.NewState()
	vm.registerAPI(vm.L)

	if err := vm.L.DoString(bootstrapSource); err != nil {
		return nil, fmt.Errorf("load bootstrap script: %w", err)
	}
	tickFn, ok := vm.L.GetGlobal("_z8").(*lua.LTable).RawGetString("tick").(*lua.LFunction)
	if !ok {
		return nil, fmt.Errorf("bootstrap script did not install _z8.tick")
	}
	vm.tickFn = tickFn
	return vm, nil
}

// ResetMemory clears memory and the render state back to their power-on
// defaults, then re-copies the active cart's ROM; it is what
// extcmd("reset") invokes.
func (vm *VM) ResetMemory() {
	vm.mem.Reset()
	vm.state = newRenderState()
	vm.renderer = NewRenderer(vm.mem, vm.state)
	if vm.cart != nil {
		copy(vm.mem.bytes[:], vm.cart.ROM[:])
	}
}

// Load reads a cartridge from path and installs it as the active cart,
// without running it yet. On failure the previous cart stays active and
// unmutated.
func (vm *VM) Load(path string) error {
	cart, err := LoadCartridge(path)
	if err != nil {
		return err
	}
	vm.cart = cart
	return nil
}

// Run is the per-cart entry point: zero the button state, load the cart
// code as a chunk, and call _z8.run with it. The call happens inside a
// fresh coroutine so even a long-running top-level script body can
// cooperatively yield; a suspended run is finished by subsequent Steps.
func (vm *VM) Run() error {
	if vm.cart == nil {
		return fmt.Errorf("run: no cartridge loaded")
	}
	vm.input = NewInputState()
	vm.pendingButtons = [NUM_BUTTONS]bool{}
	vm.ResetMemory()

	code, err := vm.cart.FixedCode()
	if err != nil {
		return err
	}
	chunk, err := vm.L.LoadString(code)
	if err != nil {
		return fmt.Errorf("parse cartridge code: %w", err)
	}

	runFn, ok := vm.L.GetGlobal("_z8").(*lua.LTable).RawGetString("run").(*lua.LFunction)
	if !ok {
		return fmt.Errorf("run: bootstrap did not install _z8.run")
	}

	vm.instrCount = 0
	if err := vm.resumeOn(vm.newThread(), runFn, chunk); err != nil {
		return fmt.Errorf("cartridge run error: %w", err)
	}
	return nil
}

// Step drives one frame: call _z8.tick once with the instruction counter
// reset, resuming the previously suspended coroutine first if the last
// tick (or the initial run) yielded mid-script.
func (vm *VM) Step(dt float64) error {
	if vm.tickFn == nil {
		return fmt.Errorf("step: VM not initialised")
	}
	vm.instrCount = 0
	vm.advanceAudio()

	if vm.suspended {
		// This step is consumed finishing the interrupted script.
		if err := vm.resumeSuspended(); err != nil {
			return fmt.Errorf("cartridge tick error: %w", err)
		}
		return nil
	}
	if err := vm.resumeOn(vm.newThread(), vm.tickFn); err != nil {
		return fmt.Errorf("cartridge tick error: %w", err)
	}
	return nil
}

func (vm *VM) newThread() *lua.LState {
	if vm.coCancel != nil {
		vm.coCancel()
	}
	co, cancel := vm.L.NewThread()
	vm.co = co
	vm.coCancel = cancel
	return co
}

// resumeOn starts fn on the coroutine and records suspension state if the
// instruction hook yielded it mid-script.
func (vm *VM) resumeOn(co *lua.LState, fn *lua.LFunction, args ...lua.LValue) error {
	st, err, vals := vm.L.Resume(co, fn, args...)
	return vm.noteResume(st, err, vals, fn)
}

// resumeSuspended continues an interrupted script, handing the values the
// interrupted native call yielded back as that call's return values.
func (vm *VM) resumeSuspended() error {
	st, err, vals := vm.L.Resume(vm.co, vm.pendingFn, vm.resumeVals...)
	return vm.noteResume(st, err, vals, vm.pendingFn)
}

func (vm *VM) noteResume(st lua.ResumeState, err error, vals []lua.LValue, fn *lua.LFunction) error {
	switch st {
	case lua.ResumeYield:
		vm.suspended = true
		vm.pendingFn = fn
		vm.resumeVals = vals
		return nil
	case lua.ResumeError:
		vm.suspended = false
		return err
	default:
		vm.suspended = false
		return nil
	}
}

// Close tears down the script runtime. A VM must be closed on the same
// goroutine that drove its ticks.
func (vm *VM) Close() {
	if vm.coCancel != nil {
		vm.coCancel()
	}
	vm.L.Close()
	vm.cdata.Flush()
}

// Button feeds one button's raw down/up state into the pending snapshot
// that _update_buttons commits at the next tick boundary.
func (vm *VM) Button(i, player int, down bool) {
	idx := buttonIndex(i, player)
	if idx >= 0 && idx < NUM_BUTTONS {
		vm.pendingButtons[idx] = down
	}
}

// Mouse feeds the current mouse position/buttons.
func (vm *VM) Mouse(x, y int, buttons byte) {
	vm.input.SetMouse(x, y, buttons)
}

// Screen exposes the packed 4-bit framebuffer for a display front-end.
func (vm *VM) Screen() []byte {
	return vm.mem.bytes[SCREEN_ADDR : SCREEN_ADDR+SCREEN_SIZE]
}

// ScreenPalette exposes the display-side remap table; the kernel never
// applies it, the front-end does.
func (vm *VM) ScreenPalette() [16]byte {
	return vm.state.screenPalette
}

// stubOnce logs one structured line the first time an unimplemented
// feature is hit, then stays quiet.
func (vm *VM) stubOnce(name string) {
	if vm.stubSeen[name] {
		return
	}
	vm.stubSeen[name] = true
	fmt.Fprintf(vm.printhSink, "z8:stub:%s\n", name)
}

// wrap charges every native call one hook interval's worth of
// instructions and, once the budget is crossed inside a coroutine, yields
// with the call's own results so the host can hand them back on resume.
// The main state never yields: bootstrap code and embedder-driven
// DoString calls run to completion.
func (vm *VM) wrap(fn lua.LGFunction) lua.LGFunction {
	return func(L *lua.LState) int {
		vm.instrCount += DEFAULT_INSTR_HOOK_INTERVAL
		n := fn(L)
		if vm.instrCount >= vm.instrBudget && L != vm.L {
			vm.instrCount = 0
			rets := make([]lua.LValue, n)
			for i := n - 1; i >= 0; i-- {
				rets[i] = L.Get(-1)
				L.Pop(1)
			}
			return L.Yield(rets...)
		}
		return n
	}
}

func (vm *VM) register(L *lua.LState, name string, fn lua.LGFunction) {
	L.SetGlobal(name, L.NewFunction(vm.wrap(fn)))
}
