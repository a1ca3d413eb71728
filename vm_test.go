package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	lua "github.com/yuin/gopher-lua"
)

func newTestVM(t *testing.T) *VM {
	t.Helper()
	vm, err := NewVM(t.TempDir())
	if err != nil {
		t.Fatalf("NewVM: %v", err)
	}
	t.Cleanup(vm.Close)
	return vm
}

func (vm *VM) mustDo(t *testing.T, code string) {
	t.Helper()
	if err := vm.L.DoString(code); err != nil {
		t.Fatalf("script %q: %v", code, err)
	}
}

func (vm *VM) globalNumber(t *testing.T, name string) float64 {
	t.Helper()
	v, ok := vm.L.GetGlobal(name).(lua.LNumber)
	if !ok {
		t.Fatalf("global %s is %s, want number", name, vm.L.GetGlobal(name).Type())
	}
	return float64(v)
}

func (vm *VM) globalString(t *testing.T, name string) string {
	t.Helper()
	v, ok := vm.L.GetGlobal(name).(lua.LString)
	if !ok {
		t.Fatalf("global %s is %s, want string", name, vm.L.GetGlobal(name).Type())
	}
	return string(v)
}

func writeTestCart(t *testing.T, code string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.p8")
	src := "pico-8 cartridge // http://www.pico-8.com\nversion 16\n__lua__\n" + code + "\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write cart: %v", err)
	}
	return path
}

func TestAPIClsThenPset(t *testing.T) {
	vm := newTestVM(t)
	vm.mustDo(t, `cls(0) pset(64, 64, 7)`)
	addr := uint32(SCREEN_ADDR) + (128*64+64)/2
	if got := vm.mem.Peek(addr); got != 0x07 {
		t.Fatalf("screen byte = 0x%02x, want 0x07", got)
	}
}

func TestAPICameraTranslatedLine(t *testing.T) {
	vm := newTestVM(t)
	vm.mustDo(t, `camera(10, 0) line(10, 0, 13, 0, 5)`)
	for x := 0; x <= 3; x++ {
		if got := vm.mem.GetPixel4(SCREEN_ADDR, x, 0, SCREEN_WIDTH_PX); got != 5 {
			t.Errorf("pixel x=%d = %d, want 5", x, got)
		}
	}
}

func TestAPIClipReject(t *testing.T) {
	vm := newTestVM(t)
	vm.mustDo(t, `clip(20, 20, 10, 10) pset(5, 5, 3) a = pget(5, 5) b = pget(25, 25)`)
	if got := vm.globalNumber(t, "a"); got != 0 {
		t.Fatalf("pget(5,5) = %v, want 0 (clipped out)", got)
	}
	if got := vm.globalNumber(t, "b"); got != 0 {
		t.Fatalf("pget(25,25) = %v, want 0 (pristine)", got)
	}
}

func TestAPISpriteFlip(t *testing.T) {
	vm := newTestVM(t)
	vm.mustDo(t, `
		for x = 0, 7 do sset(8 + x, 0, x) end
		palt(0, false)
		spr(1, 0, 0, 1, 1, true, false)
	`)
	want := []byte{7, 6, 5, 4, 3, 2, 1, 0}
	for x, w := range want {
		if got := vm.mem.GetPixel4(SCREEN_ADDR, x, 0, SCREEN_WIDTH_PX); got != w {
			t.Errorf("screen pixel x=%d = %d, want %d", x, got, w)
		}
	}
}

func TestAPIPoke4Peek4Roundtrip(t *testing.T) {
	vm := newTestVM(t)
	vm.mustDo(t, `poke4(0x4300, tonum("0x1234.5678"))`)
	if got := vm.mem.Peek4(0x4300).toBits(); got != 0x12345678 {
		t.Fatalf("peek4 bits = 0x%08x, want 0x12345678", got)
	}
	// Little-endian byte order in memory.
	want := []byte{0x78, 0x56, 0x34, 0x12}
	for i, w := range want {
		if got := vm.mem.Peek(0x4300 + uint32(i)); got != w {
			t.Errorf("byte %d = 0x%02x, want 0x%02x", i, got, w)
		}
	}
}

func TestAPIBtnpThroughTickLoop(t *testing.T) {
	vm := newTestVM(t)
	if err := vm.Load(writeTestCart(t, `function _update() end`)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := vm.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	vm.Button(0, 0, true)

	fired := []int{}
	for frame := 1; frame <= 24; frame++ {
		if err := vm.Step(1.0 / 30); err != nil {
			t.Fatalf("step %d: %v", frame, err)
		}
		vm.mustDo(t, `r = btnp(0)`)
		if vm.L.GetGlobal("r") == lua.LTrue {
			fired = append(fired, frame)
		}
	}
	want := []int{1, 16, 20, 24}
	if len(fired) != len(want) {
		t.Fatalf("btnp fired on frames %v, want %v", fired, want)
	}
	for i, w := range want {
		if fired[i] != w {
			t.Errorf("fired[%d] = %d, want %d", i, fired[i], w)
		}
	}
}

func TestCooperativeYieldResumesAcrossSteps(t *testing.T) {
	vm := newTestVM(t)
	if err := vm.Load(writeTestCart(t, `
done = false
function _update()
	for i = 1, 100 do pset(0, 0, 7) end
	done = true
end
	`)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := vm.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	// Ten native calls per budget: the update loop cannot finish in one
	// step and must suspend at the instruction hook.
	vm.instrBudget = 10 * DEFAULT_INSTR_HOOK_INTERVAL

	if err := vm.Step(1.0 / 30); err != nil {
		t.Fatalf("step: %v", err)
	}
	if !vm.suspended {
		t.Fatal("expected the first step to suspend mid-loop")
	}
	if vm.L.GetGlobal("done") == lua.LTrue {
		t.Fatal("update loop should not have finished in one step")
	}

	for i := 0; i < 50 && vm.suspended; i++ {
		if err := vm.Step(1.0 / 30); err != nil {
			t.Fatalf("resume step: %v", err)
		}
	}
	if vm.L.GetGlobal("done") != lua.LTrue {
		t.Fatal("update loop never completed across resumes")
	}
}

func TestBadMemoryAccessAbortsRun(t *testing.T) {
	vm := newTestVM(t)
	if err := vm.Load(writeTestCart(t, `poke(0x8000, 1)`)); err != nil {
		t.Fatalf("load: %v", err)
	}
	err := vm.Run()
	if err == nil {
		t.Fatal("expected a bad memory access error")
	}
	if !strings.Contains(err.Error(), "bad memory access") {
		t.Fatalf("error = %v, want bad memory access", err)
	}
}

func TestCartLoadFailureKeepsPreviousCart(t *testing.T) {
	vm := newTestVM(t)
	good := writeTestCart(t, `x = 1`)
	if err := vm.Load(good); err != nil {
		t.Fatalf("load: %v", err)
	}
	prev := vm.cart
	if err := vm.Load(filepath.Join(t.TempDir(), "missing.p8")); err == nil {
		t.Fatal("expected load failure for missing file")
	}
	if vm.cart != prev {
		t.Fatal("failed load must leave the previous cart active")
	}
}

func TestStatAudioChannels(t *testing.T) {
	vm := newTestVM(t)
	vm.mustDo(t, `a = stat(16)`)
	if got := vm.globalNumber(t, "a"); got != -1 {
		t.Fatalf("stat(16) idle = %v, want -1", got)
	}
	vm.mustDo(t, `sfx(5, 0)`)
	vm.mustDo(t, `b = stat(16)`)
	if got := vm.globalNumber(t, "b"); got != 5 {
		t.Fatalf("stat(16) playing = %v, want 5", got)
	}
}

func TestStatMouseGatedOnMemoryFlag(t *testing.T) {
	vm := newTestVM(t)
	vm.Mouse(42, 17, 1)
	vm.mustDo(t, `a = stat(32)`)
	if got := vm.globalNumber(t, "a"); got != 0 {
		t.Fatalf("stat(32) without flag = %v, want 0", got)
	}
	vm.mustDo(t, `poke(0x5f2d, 1) b = stat(32) c = stat(33) d = stat(34)`)
	if x, y, btn := vm.globalNumber(t, "b"), vm.globalNumber(t, "c"), vm.globalNumber(t, "d"); x != 42 || y != 17 || btn != 1 {
		t.Fatalf("stat(32..34) = %v,%v,%v, want 42,17,1", x, y, btn)
	}
}

func TestTostrFormatting(t *testing.T) {
	vm := newTestVM(t)
	vm.mustDo(t, `
		a = tostr()
		b = tostr(nil)
		c = tostr(17)
		d = tostr(17, true)
		e = tostr("abc")
		f = tostr({})
		g = tostr(-1.5)
	`)
	cases := map[string]string{
		"a": "[no value]",
		"b": "[nil]",
		"c": "17",
		"d": "0x0011.0000",
		"e": "abc",
		"f": "[table]",
		"g": "-1.5",
	}
	for name, want := range cases {
		if got := vm.globalString(t, name); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
}

func TestTonumParsesHexAndDecimal(t *testing.T) {
	vm := newTestVM(t)
	vm.mustDo(t, `a = tonum("1.5") b = tonum("0x10") c = tonum("junk")`)
	if got := vm.globalNumber(t, "a"); got != 1.5 {
		t.Fatalf("tonum(1.5) = %v", got)
	}
	if got := vm.globalNumber(t, "b"); got != 16 {
		t.Fatalf("tonum(0x10) = %v", got)
	}
	if vm.L.GetGlobal("c") != lua.LNil {
		t.Fatalf("tonum(junk) should be nil")
	}
}

func TestMathSurface(t *testing.T) {
	vm := newTestVM(t)
	vm.mustDo(t, `
		a = flr(-4.5)
		b = ceil(4.1)
		c = mid(1, 5, 3)
		d = band(5, 3)
		e = shl(1, 4)
		f = sgn(0)
		g = cos(0.5)
		h = sin(0.25)
		i = atan2(1, 0)
		j = sqrt(16)
		k = abs(-7)
	`)
	cases := map[string]float64{
		"a": -5, "b": 5, "c": 3, "d": 1, "e": 16,
		"f": 1, "g": -1, "h": -1, "i": 0, "j": 4, "k": 7,
	}
	for name, want := range cases {
		if got := vm.globalNumber(t, name); got != want {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}
}

func TestRndDeterministicUnderSrand(t *testing.T) {
	vm := newTestVM(t)
	vm.mustDo(t, `srand(7) a = rnd(10) srand(7) b = rnd(10)`)
	a, b := vm.globalNumber(t, "a"), vm.globalNumber(t, "b")
	if a != b {
		t.Fatalf("rnd not reproducible under srand: %v != %v", a, b)
	}
	if a < 0 || a >= 10 {
		t.Fatalf("rnd(10) = %v, out of [0,10)", a)
	}
}

func TestReloadRestoresROM(t *testing.T) {
	vm := newTestVM(t)
	path := filepath.Join(t.TempDir(), "gfx.p8")
	src := "pico-8 cartridge\nversion 16\n__lua__\nx=1\n__gfx__\n55555555\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write cart: %v", err)
	}
	if err := vm.Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := vm.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	vm.mustDo(t, `memset(0, 0, 4) reload(0, 0, 4) a = peek(0)`)
	if got := vm.globalNumber(t, "a"); got != 0x55 {
		t.Fatalf("reload byte = 0x%02x, want 0x55", int(got))
	}
}

func TestMgetMsetSplitRows(t *testing.T) {
	vm := newTestVM(t)
	vm.mustDo(t, `mset(5, 10, 42) mset(5, 40, 7) a = mget(5, 10) b = mget(5, 40)`)
	if vm.globalNumber(t, "a") != 42 || vm.globalNumber(t, "b") != 7 {
		t.Fatal("mget/mset mismatch across the map split")
	}
	if vm.mem.Peek(MAP_LO_ADDR+(40-32)*MAP_WIDTH_TILES+5) != 7 {
		t.Fatal("row 40 must land in the GFX-overlapping low map half")
	}
}

func TestFillPatternSecondaryColor(t *testing.T) {
	vm := newTestVM(t)
	// Checkerboard pattern with two colors packed in one pen value:
	// primary 7 in the low nibble, secondary 8 in the next.
	vm.mustDo(t, `fillp(0x5a5a) rectfill(0, 0, 3, 3, 0x87)`)
	saw7, saw8 := false, false
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			switch vm.mem.GetPixel4(SCREEN_ADDR, x, y, SCREEN_WIDTH_PX) {
			case 7:
				saw7 = true
			case 8:
				saw8 = true
			}
		}
	}
	if !saw7 || !saw8 {
		t.Fatalf("fill pattern should interleave primary and secondary colors")
	}
}

func TestPrintAdvancesCursor(t *testing.T) {
	vm := newTestVM(t)
	vm.mustDo(t, `print("hi")`)
	if got := vm.state.cursorY; got != newFix(glyphLineHeight) {
		t.Fatalf("cursor y = %v, want %d", got.toFloat(), glyphLineHeight)
	}
	if got := vm.state.cursorX; got != 0 {
		t.Fatalf("cursor x = %v, want 0", got.toFloat())
	}
}

func TestScriptRunRestartsCart(t *testing.T) {
	vm := newTestVM(t)
	if err := vm.Load(writeTestCart(t, `n = (n or 0) + 1 poke(0x4300, n)`)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := vm.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := vm.mem.Peek(0x4300); got != 1 {
		t.Fatalf("first run marker = %d, want 1", got)
	}
	vm.mustDo(t, `run()`)
	if got := vm.mem.Peek(0x4300); got != 2 {
		t.Fatalf("marker after script run() = %d, want 2", got)
	}
}
