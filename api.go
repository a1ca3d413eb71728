// api.go - The script-visible API surface
//
// Every name a cartridge can call is registered here as a gopher-lua
// native function wrapping one kernel or memory primitive. The coercion
// protocol is uniform: a missing or nil argument takes the primitive's
// documented default (usually zero or a "reset" branch), numbers become
// fix32 by truncating the runtime's float64 at the 1/65536 step, and
// addresses are masked to the 64 KiB logical space before range checks.
package main

import (
	"fmt"
	"math"
	"math/bits"
	"math/rand"
	"runtime"
	"strconv"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
)

func (vm *VM) registerAPI(L *lua.LState) {
	// System
	vm.register(L, "run", vm.apiRun)
	vm.register(L, "menuitem", vm.apiMenuitem)
	vm.register(L, "cartdata", vm.apiCartdata)
	vm.register(L, "reload", vm.apiReload)
	vm.register(L, "peek", vm.apiPeek)
	vm.register(L, "peek4", vm.apiPeek4)
	vm.register(L, "poke", vm.apiPoke)
	vm.register(L, "poke4", vm.apiPoke4)
	vm.register(L, "memcpy", vm.apiMemcpy)
	vm.register(L, "memset", vm.apiMemset)
	vm.register(L, "stat", vm.apiStat)
	vm.register(L, "printh", vm.apiPrinth)
	vm.register(L, "extcmd", vm.apiExtcmd)

	// I/O
	vm.register(L, "_update_buttons", vm.apiUpdateButtons)
	vm.register(L, "btn", vm.apiBtn)
	vm.register(L, "btnp", vm.apiBtnp)

	// Text
	vm.register(L, "cursor", vm.apiCursor)
	vm.register(L, "print", vm.apiPrint)
	vm.register(L, "tonum", vm.apiTonum)
	vm.register(L, "tostr", vm.apiTostr)

	// Maths
	vm.register(L, "max", vm.apiMax)
	vm.register(L, "min", vm.apiMin)
	vm.register(L, "mid", vm.apiMid)
	vm.register(L, "ceil", vm.apiCeil)
	vm.register(L, "flr", vm.apiFlr)
	vm.register(L, "cos", vm.apiCos)
	vm.register(L, "sin", vm.apiSin)
	vm.register(L, "atan2", vm.apiAtan2)
	vm.register(L, "sqrt", vm.apiSqrt)
	vm.register(L, "abs", vm.apiAbs)
	vm.register(L, "sgn", vm.apiSgn)
	vm.register(L, "rnd", vm.apiRnd)
	vm.register(L, "srand", vm.apiSrand)
	vm.register(L, "band", vm.apiBand)
	vm.register(L, "bor", vm.apiBor)
	vm.register(L, "bxor", vm.apiBxor)
	vm.register(L, "bnot", vm.apiBnot)
	vm.register(L, "shl", vm.apiShl)
	vm.register(L, "shr", vm.apiShr)
	vm.register(L, "lshr", vm.apiLshr)
	vm.register(L, "rotl", vm.apiRotl)
	vm.register(L, "rotr", vm.apiRotr)

	// Graphics
	vm.register(L, "camera", vm.apiCamera)
	vm.register(L, "circ", vm.apiCirc)
	vm.register(L, "circfill", vm.apiCircfill)
	vm.register(L, "clip", vm.apiClip)
	vm.register(L, "cls", vm.apiCls)
	vm.register(L, "color", vm.apiColor)
	vm.register(L, "fillp", vm.apiFillp)
	vm.register(L, "fget", vm.apiFget)
	vm.register(L, "fset", vm.apiFset)
	vm.register(L, "line", vm.apiLine)
	vm.register(L, "map", vm.apiMap)
	vm.register(L, "mget", vm.apiMget)
	vm.register(L, "mset", vm.apiMset)
	vm.register(L, "pal", vm.apiPal)
	vm.register(L, "palt", vm.apiPalt)
	vm.register(L, "pget", vm.apiPget)
	vm.register(L, "pset", vm.apiPset)
	vm.register(L, "rect", vm.apiRect)
	vm.register(L, "rectfill", vm.apiRectfill)
	vm.register(L, "sget", vm.apiSget)
	vm.register(L, "sset", vm.apiSset)
	vm.register(L, "spr", vm.apiSpr)
	vm.register(L, "sspr", vm.apiSspr)

	// Audio
	vm.register(L, "music", vm.apiMusic)
	vm.register(L, "sfx", vm.apiSfx)

	vm.register(L, "time", vm.apiTime)
}

// --- coercion helpers -------------------------------------------------------

func hasArg(L *lua.LState, n int) bool {
	return L.GetTop() >= n && L.Get(n) != lua.LNil
}

// argFix is the runtime's number-to-fix32 rule: the float64 Lua carries is
// truncated at the 1/65536 step. Missing, nil and non-numeric arguments
// coerce to zero.
func argFix(L *lua.LState, n int) fix32 {
	if !hasArg(L, n) {
		return 0
	}
	if num, ok := L.Get(n).(lua.LNumber); ok {
		return fixFromFloat(float64(num))
	}
	return 0
}

func argFixDef(L *lua.LState, n int, def fix32) fix32 {
	if !hasArg(L, n) {
		return def
	}
	return argFix(L, n)
}

func argInt(L *lua.LState, n int) int {
	return argFix(L, n).toInt()
}

func argIntDef(L *lua.LState, n, def int) int {
	if !hasArg(L, n) {
		return def
	}
	return argInt(L, n)
}

func argBool(L *lua.LState, n int) bool {
	if L.GetTop() < n {
		return false
	}
	return lua.LVAsBool(L.Get(n))
}

// argAddr masks a numeric argument into the 64 KiB logical address space.
func argAddr(L *lua.LState, n int) uint32 {
	return uint32(argInt(L, n)) & 0xffff
}

func pushFix(L *lua.LState, f fix32) int {
	L.Push(lua.LNumber(f.toFloat()))
	return 1
}

// --- system -----------------------------------------------------------------

// apiRun restarts the active cartridge from inside script code: button
// state is zeroed, the code is re-chunked, and _z8.run invoked in place.
func (vm *VM) apiRun(L *lua.LState) int {
	if vm.cart == nil {
		return 0
	}
	vm.input = NewInputState()
	vm.pendingButtons = [NUM_BUTTONS]bool{}
	vm.ResetMemory()

	code, err := vm.cart.FixedCode()
	if err != nil {
		L.RaiseError("run: %s", err.Error())
		return 0
	}
	chunk, err := L.LoadString(code)
	if err != nil {
		L.RaiseError("run: %s", err.Error())
		return 0
	}
	runFn := vm.L.GetGlobal("_z8").(*lua.LTable).RawGetString("run")
	if err := L.CallByParam(lua.P{Fn: runFn, NRet: 0, Protect: true}, chunk); err != nil {
		L.RaiseError("run: %s", err.Error())
	}
	return 0
}

func (vm *VM) apiMenuitem(L *lua.LState) int {
	index := argInt(L, 1)
	label := ""
	if hasArg(L, 2) {
		label = lua.LVAsString(L.Get(2))
	}
	vm.menus.Set(index, label)
	return 0
}

func (vm *VM) apiCartdata(L *lua.LState) int {
	name := ""
	if hasArg(L, 1) {
		name = lua.LVAsString(L.Get(1))
	}
	active, err := vm.cdata.Cartdata(name, hasArg(L, 1))
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	L.Push(lua.LBool(active))
	return 1
}

// apiReload copies from the cart ROM back into main memory; with no
// arguments the whole ROM is reloaded.
func (vm *VM) apiReload(L *lua.LState) int {
	dst, src, size := uint32(0), uint32(0), uint32(MEM_SIZE)
	if hasArg(L, 3) {
		dst = argAddr(L, 1)
		src = argAddr(L, 2)
		n := argInt(L, 3)
		if n <= 0 {
			return 0
		}
		size = uint32(n) & 0xffff
	}
	var rom []byte
	if vm.cart != nil {
		rom = vm.cart.ROM[:]
	}
	if !vm.mem.Reload(dst, src, size, rom) {
		L.RaiseError("bad memory access")
	}
	return 0
}

func (vm *VM) apiPeek(L *lua.LState) int {
	L.Push(lua.LNumber(vm.mem.Peek(argAddr(L, 1))))
	return 1
}

func (vm *VM) apiPeek4(L *lua.LState) int {
	return pushFix(L, vm.mem.Peek4(argAddr(L, 1)))
}

func (vm *VM) apiPoke(L *lua.LState) int {
	addr := argInt(L, 1)
	v := argInt(L, 2)
	if addr < 0 || addr >= MEM_SIZE || !vm.mem.Poke(uint32(addr), byte(v)) {
		L.RaiseError("bad memory access")
	}
	return 0
}

func (vm *VM) apiPoke4(L *lua.LState) int {
	addr := argInt(L, 1)
	if addr < 0 || addr > MEM_SIZE-4 || !vm.mem.Poke4(uint32(addr), argFix(L, 2)) {
		L.RaiseError("bad memory access")
	}
	return 0
}

func (vm *VM) apiMemcpy(L *lua.LState) int {
	dst := argInt(L, 1)
	src := argAddr(L, 2)
	n := argInt(L, 3)
	if n <= 0 {
		return 0
	}
	size := uint32(n) & 0xffff
	if dst < 0 || !vm.mem.Memcpy(uint32(dst), src, size) {
		L.RaiseError("bad memory access")
	}
	return 0
}

func (vm *VM) apiMemset(L *lua.LState) int {
	dst := argInt(L, 1)
	v := byte(argInt(L, 2))
	n := argInt(L, 3)
	if n <= 0 {
		return 0
	}
	size := uint32(n) & 0xffff
	if dst < 0 || !vm.mem.Memset(uint32(dst), v, size) {
		L.RaiseError("bad memory access")
	}
	return 0
}

// apiStat is the introspection register bank: 0 reports runtime memory
// usage as a coarse-kilobytes/fine-bytes fix32, 16..23 the audio channel
// state, and 32..34 the mouse once the cart has set the flag at 0x5f2d.
func (vm *VM) apiStat(L *lua.LState) int {
	id := argInt(L, 1)
	var ret fix32

	switch {
	case id == 0:
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		kb := uint32(ms.HeapAlloc / 1024)
		rem := uint32(ms.HeapAlloc % 1024)
		ret = fixFromBits(kb<<16 | rem<<6)
	case id == 1:
		vm.stubOnce("stat(1)")
	case id >= 16 && id <= 19:
		ret = newFix(vm.ChannelSfx(id - 16))
	case id >= 20 && id <= 23:
		ret = newFix(vm.ChannelRow(id - 20))
	case id >= 32 && id <= 34:
		vm.input.SetMouseFlag(vm.mem.Peek(HW_MOUSE_FLAG) == 1)
		switch id {
		case 32:
			ret = newFix(vm.input.MouseX())
		case 33:
			ret = newFix(vm.input.MouseY())
		case 34:
			ret = newFix(int(vm.input.MouseButtons()))
		}
	}
	return pushFix(L, ret)
}

func (vm *VM) apiPrinth(L *lua.LState) int {
	var str string
	switch v := L.Get(1).(type) {
	case lua.LString:
		str = string(v)
	case lua.LNumber:
		str = fixFromFloat(float64(v)).String()
	case lua.LBool:
		str = "false"
		if bool(v) {
			str = "true"
		}
	default:
		str = "false"
	}
	fmt.Fprintf(vm.printhSink, "%s\n", str)
	vm.printhSink.Sync()
	return 0
}

func (vm *VM) apiExtcmd(L *lua.LState) int {
	name := "false"
	if s, ok := L.Get(1).(lua.LString); ok {
		name = string(s)
	}
	ExtCmd(name, vm)
	return 0
}

// --- I/O --------------------------------------------------------------------

func (vm *VM) apiUpdateButtons(L *lua.LState) int {
	vm.input.UpdateButtons(vm.pendingButtons)
	return 0
}

func (vm *VM) apiBtn(L *lua.LState) int {
	if !hasArg(L, 1) {
		mask := vm.input.BtnBitmask(0) | vm.input.BtnBitmask(1)<<8
		L.Push(lua.LNumber(mask))
		return 1
	}
	i := argInt(L, 1)
	p := argIntDef(L, 2, 0)
	L.Push(lua.LBool(vm.input.Btn(i, p)))
	return 1
}

func (vm *VM) apiBtnp(L *lua.LState) int {
	if !hasArg(L, 1) {
		mask := vm.input.BtnpBitmask(0) | vm.input.BtnpBitmask(1)<<8
		L.Push(lua.LNumber(mask))
		return 1
	}
	i := argInt(L, 1)
	p := argIntDef(L, 2, 0)
	L.Push(lua.LBool(vm.input.Btnp(i, p)))
	return 1
}

// --- text -------------------------------------------------------------------

func (vm *VM) apiCursor(L *lua.LState) int {
	vm.state.Cursor(argFix(L, 1), argFix(L, 2), argFix(L, 3), hasArg(L, 3), L.GetTop() > 0)
	return 0
}

func (vm *VM) apiPrint(L *lua.LState) int {
	if L.GetTop() < 1 {
		return 0
	}
	str := luaDisplayString(L.Get(1), true, false)
	hasPos := hasArg(L, 2) && hasArg(L, 3)
	vm.renderer.Print(str, argFix(L, 2), argFix(L, 3), hasPos, argFix(L, 4), hasArg(L, 4))
	return 0
}

func (vm *VM) apiTonum(L *lua.LState) int {
	switch v := L.Get(1).(type) {
	case lua.LNumber:
		return pushFix(L, fixFromFloat(float64(v)))
	case lua.LString:
		if f, ok := parseFixString(string(v)); ok {
			return pushFix(L, f)
		}
	}
	L.Push(lua.LNil)
	return 1
}

func (vm *VM) apiTostr(L *lua.LState) int {
	hex := argBool(L, 2)
	L.Push(lua.LString(luaDisplayString(L.Get(1), L.GetTop() >= 1, hex)))
	return 1
}

// luaDisplayString is the tostr/print formatting rule: bracketed
// placeholders for non-printable types, fix32 formatting for numbers.
func luaDisplayString(v lua.LValue, present bool, hex bool) string {
	if !present {
		return "[no value]"
	}
	switch t := v.(type) {
	case *lua.LNilType:
		return "[nil]"
	case lua.LString:
		return string(t)
	case lua.LNumber:
		f := fixFromFloat(float64(t))
		if hex {
			return f.hexString()
		}
		return f.String()
	case lua.LBool:
		if bool(t) {
			return "true"
		}
		return "false"
	default:
		return "[" + v.Type().String() + "]"
	}
}

// parseFixString accepts decimal ("1.5", "-3") and hexadecimal
// ("0x1234.5678") number literals, the two spellings tostr can emit.
func parseFixString(s string) (fix32, bool) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	if len(s) == 0 {
		return 0, false
	}
	var f fix32
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		body := s[2:]
		intPart, fracPart := body, ""
		if i := strings.IndexByte(body, '.'); i >= 0 {
			intPart, fracPart = body[:i], body[i+1:]
		}
		if intPart == "" && fracPart == "" {
			return 0, false
		}
		var bitsVal uint32
		if intPart != "" {
			v, err := strconv.ParseUint(intPart, 16, 32)
			if err != nil {
				return 0, false
			}
			bitsVal = uint32(v) << 16
		}
		if fracPart != "" {
			frac := fracPart
			if len(frac) > 4 {
				frac = frac[:4]
			}
			for len(frac) < 4 {
				frac += "0"
			}
			v, err := strconv.ParseUint(frac, 16, 32)
			if err != nil {
				return 0, false
			}
			bitsVal |= uint32(v)
		}
		f = fixFromBits(bitsVal)
	} else {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = fixFromFloat(v)
	}
	if neg {
		f = f.neg()
	}
	return f, true
}

// --- maths ------------------------------------------------------------------

func (vm *VM) apiMax(L *lua.LState) int {
	return pushFix(L, fixMaxOf(argFix(L, 1), argFix(L, 2)))
}

func (vm *VM) apiMin(L *lua.LState) int {
	return pushFix(L, fixMinOf(argFix(L, 1), argFix(L, 2)))
}

func (vm *VM) apiMid(L *lua.LState) int {
	return pushFix(L, fixMid(argFix(L, 1), argFix(L, 2), argFix(L, 3)))
}

func (vm *VM) apiCeil(L *lua.LState) int {
	return pushFix(L, argFix(L, 1).neg().floor().neg())
}

func (vm *VM) apiFlr(L *lua.LState) int {
	return pushFix(L, argFix(L, 1).floor())
}

// The trig convention is turns, not radians: a full circle is 1.0, and
// sin is sign-flipped so that increasing angles rotate clockwise in
// screen space (y grows downward).
func (vm *VM) apiCos(L *lua.LState) int {
	t := argFix(L, 1).toFloat()
	return pushFix(L, fixFromFloat(math.Cos(t*2*math.Pi)))
}

func (vm *VM) apiSin(L *lua.LState) int {
	t := argFix(L, 1).toFloat()
	return pushFix(L, fixFromFloat(-math.Sin(t*2*math.Pi)))
}

func (vm *VM) apiAtan2(L *lua.LState) int {
	dx := argFix(L, 1).toFloat()
	dy := argFix(L, 2).toFloat()
	if dx == 0 && dy == 0 {
		return pushFix(L, fixFromFloat(0.25))
	}
	a := math.Atan2(-dy, dx) / (2 * math.Pi)
	if a < 0 {
		a += 1
	}
	return pushFix(L, fixFromFloat(a))
}

func (vm *VM) apiSqrt(L *lua.LState) int {
	x := argFix(L, 1)
	if x <= 0 {
		return pushFix(L, 0)
	}
	return pushFix(L, fixFromFloat(math.Sqrt(x.toFloat())))
}

func (vm *VM) apiAbs(L *lua.LState) int {
	return pushFix(L, argFix(L, 1).abs())
}

func (vm *VM) apiSgn(L *lua.LState) int {
	if argFix(L, 1) < 0 {
		return pushFix(L, newFix(-1))
	}
	return pushFix(L, newFix(1))
}

// apiRnd returns a uniform value in [0, x), computed on the raw bit
// pattern so the distribution steps exactly at the fix32 resolution.
func (vm *VM) apiRnd(L *lua.LState) int {
	limit := argFixDef(L, 1, fixOne)
	if limit <= 0 {
		return pushFix(L, 0)
	}
	r := uint64(vm.rng.Uint32())
	return pushFix(L, fixFromBits(uint32(r*uint64(limit.toBits())>>32)))
}

func (vm *VM) apiSrand(L *lua.LState) int {
	vm.rng = rand.New(rand.NewSource(int64(argFix(L, 1).toBits())))
	return 0
}

func (vm *VM) apiBand(L *lua.LState) int {
	return pushFix(L, fixFromBits(argFix(L, 1).toBits()&argFix(L, 2).toBits()))
}

func (vm *VM) apiBor(L *lua.LState) int {
	return pushFix(L, fixFromBits(argFix(L, 1).toBits()|argFix(L, 2).toBits()))
}

func (vm *VM) apiBxor(L *lua.LState) int {
	return pushFix(L, fixFromBits(argFix(L, 1).toBits()^argFix(L, 2).toBits()))
}

func (vm *VM) apiBnot(L *lua.LState) int {
	return pushFix(L, fixFromBits(^argFix(L, 1).toBits()))
}

func (vm *VM) apiShl(L *lua.LState) int {
	return pushFix(L, fixShiftLeft(argFix(L, 1), argInt(L, 2)))
}

func (vm *VM) apiShr(L *lua.LState) int {
	return pushFix(L, fixShiftRightArith(argFix(L, 1), argInt(L, 2)))
}

func (vm *VM) apiLshr(L *lua.LState) int {
	return pushFix(L, fixShiftRightLogical(argFix(L, 1), argInt(L, 2)))
}

func (vm *VM) apiRotl(L *lua.LState) int {
	return pushFix(L, fixFromBits(bits.RotateLeft32(argFix(L, 1).toBits(), argInt(L, 2)&31)))
}

func (vm *VM) apiRotr(L *lua.LState) int {
	return pushFix(L, fixFromBits(bits.RotateLeft32(argFix(L, 1).toBits(), -(argInt(L, 2)&31))))
}

// Shifts operate on the whole 32-bit pattern; a negative count shifts the
// other way, and counts of 32 or more flush to zero (or the sign fill).
func fixShiftLeft(f fix32, n int) fix32 {
	if n < 0 {
		return fixShiftRightArith(f, -n)
	}
	if n >= 32 {
		return 0
	}
	return fixFromBits(f.toBits() << uint(n))
}

func fixShiftRightArith(f fix32, n int) fix32 {
	if n < 0 {
		return fixShiftLeft(f, -n)
	}
	if n >= 32 {
		n = 31
	}
	return fix32(int32(f) >> uint(n))
}

func fixShiftRightLogical(f fix32, n int) fix32 {
	if n < 0 {
		return fixShiftLeft(f, -n)
	}
	if n >= 32 {
		return 0
	}
	return fixFromBits(f.toBits() >> uint(n))
}

// --- graphics ---------------------------------------------------------------

func (vm *VM) apiCamera(L *lua.LState) int {
	vm.state.Camera(int16(argInt(L, 1)), int16(argInt(L, 2)))
	return 0
}

func (vm *VM) penFromArg(L *lua.LState, n int) {
	if hasArg(L, n) {
		vm.state.Color(argFix(L, n))
	}
}

func (vm *VM) apiCirc(L *lua.LState) int {
	vm.penFromArg(L, 4)
	vm.renderer.Circ(argFix(L, 1), argFix(L, 2), argFix(L, 3))
	return 0
}

func (vm *VM) apiCircfill(L *lua.LState) int {
	vm.penFromArg(L, 4)
	vm.renderer.Circfill(argFix(L, 1), argFix(L, 2), argFix(L, 3))
	return 0
}

func (vm *VM) apiClip(L *lua.LState) int {
	vm.state.Clip(argInt(L, 1), argInt(L, 2), argInt(L, 3), argInt(L, 4), hasArg(L, 4))
	return 0
}

func (vm *VM) apiCls(L *lua.LState) int {
	vm.renderer.Cls(byte(argInt(L, 1)))
	return 0
}

func (vm *VM) apiColor(L *lua.LState) int {
	vm.state.Color(argFix(L, 1))
	return 0
}

func (vm *VM) apiFillp(L *lua.LState) int {
	b := argFix(L, 1).toBits()
	vm.state.Fillp(uint16(b>>16), b&0x8000 != 0)
	return 0
}

func (vm *VM) apiFget(L *lua.LState) int {
	if !hasArg(L, 1) {
		L.Push(lua.LNumber(0))
		return 1
	}
	n := argInt(L, 1)
	if hasArg(L, 2) {
		L.Push(lua.LBool(vm.renderer.FgetBit(n, argInt(L, 2))))
		return 1
	}
	L.Push(lua.LNumber(vm.renderer.Fget(n)))
	return 1
}

func (vm *VM) apiFset(L *lua.LState) int {
	if !hasArg(L, 1) || !hasArg(L, 2) {
		return 0
	}
	n := argInt(L, 1)
	if hasArg(L, 3) {
		vm.renderer.FsetBit(n, argInt(L, 2), argBool(L, 3))
		return 0
	}
	vm.renderer.Fset(n, byte(argInt(L, 2)))
	return 0
}

func (vm *VM) apiLine(L *lua.LState) int {
	vm.penFromArg(L, 5)
	vm.renderer.Line(argFix(L, 1), argFix(L, 2), argFix(L, 3), argFix(L, 4))
	return 0
}

func (vm *VM) apiMap(L *lua.LState) int {
	celW, celH := 128, 32
	if hasArg(L, 5) || hasArg(L, 6) {
		celW, celH = argInt(L, 5), argInt(L, 6)
	}
	vm.renderer.Map(argFix(L, 1), argFix(L, 2), argFix(L, 3), argFix(L, 4),
		celW, celH, byte(argInt(L, 7)))
	return 0
}

func (vm *VM) apiMget(L *lua.LState) int {
	L.Push(lua.LNumber(vm.mem.MapTile(argInt(L, 1), argInt(L, 2))))
	return 1
}

func (vm *VM) apiMset(L *lua.LState) int {
	vm.mem.SetMapTile(argInt(L, 1), argInt(L, 2), byte(argInt(L, 3)))
	return 0
}

func (vm *VM) apiPal(L *lua.LState) int {
	if !hasArg(L, 1) || !hasArg(L, 2) {
		vm.state.Pal(0, 0, 0, false)
		return 0
	}
	vm.state.Pal(byte(argInt(L, 1)), byte(argInt(L, 2)), argInt(L, 3), true)
	return 0
}

func (vm *VM) apiPalt(L *lua.LState) int {
	if !hasArg(L, 1) || !hasArg(L, 2) {
		vm.state.Palt(0, false, false)
		return 0
	}
	vm.state.Palt(byte(argInt(L, 1)), argBool(L, 2), true)
	return 0
}

func (vm *VM) apiPget(L *lua.LState) int {
	L.Push(lua.LNumber(vm.renderer.Pget(argFix(L, 1), argFix(L, 2))))
	return 1
}

func (vm *VM) apiPset(L *lua.LState) int {
	vm.penFromArg(L, 3)
	vm.renderer.Pset(argFix(L, 1), argFix(L, 2))
	return 0
}

func (vm *VM) apiRect(L *lua.LState) int {
	vm.penFromArg(L, 5)
	vm.renderer.Rect(argFix(L, 1), argFix(L, 2), argFix(L, 3), argFix(L, 4))
	return 0
}

func (vm *VM) apiRectfill(L *lua.LState) int {
	vm.penFromArg(L, 5)
	vm.renderer.Rectfill(argFix(L, 1), argFix(L, 2), argFix(L, 3), argFix(L, 4))
	return 0
}

func (vm *VM) apiSget(L *lua.LState) int {
	x, y := argInt(L, 1), argInt(L, 2)
	if x < 0 || x >= GFX_WIDTH_PX || y < 0 || y >= GFX_HEIGHT_PX {
		L.Push(lua.LNumber(0))
		return 1
	}
	L.Push(lua.LNumber(vm.mem.GetPixel4(GFX_ADDR, x, y, GFX_WIDTH_PX)))
	return 1
}

func (vm *VM) apiSset(L *lua.LState) int {
	x, y := argInt(L, 1), argInt(L, 2)
	if x < 0 || x >= GFX_WIDTH_PX || y < 0 || y >= GFX_HEIGHT_PX {
		return 0
	}
	col := vm.state.pen
	if hasArg(L, 3) {
		col = argFix(L, 3)
	}
	vm.mem.SetPixel4(GFX_ADDR, x, y, GFX_WIDTH_PX, byte(col.toInt()))
	return 0
}

func (vm *VM) apiSpr(L *lua.LState) int {
	n := argInt(L, 1)
	wPx := argFixDef(L, 4, fixOne).mul(newFix(SPRITE_SIZE_PX)).toInt()
	hPx := argFixDef(L, 5, fixOne).mul(newFix(SPRITE_SIZE_PX)).toInt()
	vm.renderer.Spr(n, argFix(L, 2), argFix(L, 3), wPx, hPx, argBool(L, 6), argBool(L, 7))
	return 0
}

func (vm *VM) apiSspr(L *lua.LState) int {
	sx, sy := argInt(L, 1), argInt(L, 2)
	sw, sh := argInt(L, 3), argInt(L, 4)
	dw := newFix(argIntDef(L, 7, sw))
	dh := newFix(argIntDef(L, 8, sh))
	vm.renderer.Sspr(sx, sy, sw, sh, argFix(L, 5), argFix(L, 6), dw, dh,
		argBool(L, 9), argBool(L, 10))
	return 0
}

// --- audio ------------------------------------------------------------------

func (vm *VM) apiMusic(L *lua.LState) int {
	vm.Music(argIntDef(L, 1, -1), argInt(L, 2), argInt(L, 3))
	return 0
}

func (vm *VM) apiSfx(L *lua.LState) int {
	vm.Sfx(argInt(L, 1), argIntDef(L, 2, -1), argInt(L, 3))
	return 0
}

// apiTime reports seconds since VM construction, wrapped into the signed
// fix32 range the way the 16.16 format forces.
func (vm *VM) apiTime(L *lua.LState) int {
	t := math.Mod(time.Since(vm.startedAt).Seconds(), 65536.0)
	if t >= 32768.0 {
		t -= 65536.0
	}
	return pushFix(L, fixFromFloat(t))
}
