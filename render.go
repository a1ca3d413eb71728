// render.go - Rendering kernel for the retro8 fantasy console
//
// Every primitive here operates in a signed fixed-point coordinate space:
// callers pass fix32 coordinates, the camera offset is subtracted, and the
// result is truncated to integer before a single byte of memory is ever
// touched. Primitives never widen coordinates to float64, since that
// would shift rounding by fractions of a pixel and desync cartridges.
//
// Render state (the pen, fill pattern, clip rect, camera, palettes and
// transparency mask) lives per-VM in renderState, composed into a single
// colorBits descriptor (colorbits.go) before any pixel is written.
package main

// renderState holds everything the kernel needs beyond the memory image
// itself: the current pen/fill descriptor, clip rectangle, camera offset,
// text cursor, and the two 16-entry palette remap tables.
type renderState struct {
	pen              fix32
	fillp            uint16
	fillpTransparent bool

	clipAX, clipAY, clipBX, clipBY int // half-open on the high side

	cameraX, cameraY int16

	cursorX, cursorY fix32

	drawPalette   [16]byte
	screenPalette [16]byte
	transparent   [16]bool // palt mask
}

func newRenderState() *renderState {
	s := &renderState{}
	s.resetClip()
	s.resetPalette()
	return s
}

func (s *renderState) resetClip() {
	s.clipAX, s.clipAY = 0, 0
	s.clipBX, s.clipBY = SCREEN_WIDTH_PX, SCREEN_HEIGHT_PX
}

// resetPalette implements the no-argument form of pal()/palt(): both
// remap tables go to identity, the transparency mask goes to {0}, and the
// fill pattern resets to 0.
func (s *renderState) resetPalette() {
	for i := range s.drawPalette {
		s.drawPalette[i] = byte(i)
		s.screenPalette[i] = byte(i)
		s.transparent[i] = false
	}
	s.transparent[0] = true
	s.fillp = 0
	s.fillpTransparent = false
}

func clampClip(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clip sets the clip rectangle. With fewer than 4 arguments the caller
// resets to the full screen; otherwise width/height are added to x0/y0 and
// the result clamped to [0,128]^2.
func (s *renderState) Clip(x0, y0, w, h int, hasArgs bool) {
	if !hasArgs {
		s.resetClip()
		return
	}
	s.clipAX = clampClip(x0, 0, SCREEN_WIDTH_PX)
	s.clipAY = clampClip(y0, 0, SCREEN_HEIGHT_PX)
	s.clipBX = clampClip(x0+w, 0, SCREEN_WIDTH_PX)
	s.clipBY = clampClip(y0+h, 0, SCREEN_HEIGHT_PX)
}

func (s *renderState) inClip(x, y int) bool {
	return x >= s.clipAX && x < s.clipBX && y >= s.clipAY && y < s.clipBY
}

// Renderer binds a render state to the memory image it draws into.
type Renderer struct {
	mem   *Memory
	state *renderState
}

func NewRenderer(mem *Memory, state *renderState) *Renderer {
	return &Renderer{mem: mem, state: state}
}

func (r *Renderer) toScreenX(x fix32) int { return x.toInt() - int(r.state.cameraX) }
func (r *Renderer) toScreenY(y fix32) int { return y.toInt() - int(r.state.cameraY) }

// Cls clears the SCREEN region to a single color (4-bit, both nibbles).
func (r *Renderer) Cls(color byte) {
	color &= 0xf
	b := color | color<<4
	for i := uint32(0); i < SCREEN_SIZE; i++ {
		r.mem.bytes[SCREEN_ADDR+i] = b
	}
}

func (r *Renderer) writePixel(cb colorBits, x, y int) {
	if !r.state.inClip(x, y) {
		return
	}
	color, skip := cb.pixelColor(x, y)
	if skip {
		return
	}
	r.mem.SetPixel4(SCREEN_ADDR, x, y, SCREEN_WIDTH_PX, color)
}

// Pset writes a single pixel, subject to camera translation and clip.
func (r *Renderer) Pset(x, y fix32) {
	cb := r.state.resolveColorBits()
	r.writePixel(cb, r.toScreenX(x), r.toScreenY(y))
}

// Pget reads the screen's raw 4-bit index at (x,y). The screen palette
// is deliberately not applied here; that remap belongs to the display
// front-end.
func (r *Renderer) Pget(x, y fix32) byte {
	sx, sy := r.toScreenX(x), r.toScreenY(y)
	if sx < 0 || sx >= SCREEN_WIDTH_PX || sy < 0 || sy >= SCREEN_HEIGHT_PX {
		return 0
	}
	return r.mem.GetPixel4(SCREEN_ADDR, sx, sy, SCREEN_WIDTH_PX)
}

// Hline draws a horizontal span, one pixel at a time so the fill pattern
// keeps its screen-space phase regardless of span length.
func (r *Renderer) Hline(x0, x1, y fix32) {
	cb := r.state.resolveColorBits()
	a, b := r.toScreenX(x0), r.toScreenX(x1)
	if a > b {
		a, b = b, a
	}
	sy := r.toScreenY(y)
	for x := a; x <= b; x++ {
		r.writePixel(cb, x, sy)
	}
}

// Vline mirrors Hline but is always per-pixel.
func (r *Renderer) Vline(x, y0, y1 fix32) {
	cb := r.state.resolveColorBits()
	sx := r.toScreenX(x)
	a, b := r.toScreenY(y0), r.toScreenY(y1)
	if a > b {
		a, b = b, a
	}
	for y := a; y <= b; y++ {
		r.writePixel(cb, sx, y)
	}
}

func roundFix(f fix32) int {
	return (f + fixOne/2).toInt()
}

func mixFix(a, b fix32, t float64) fix32 {
	return fixFromFloat(a.toFloat() + (b.toFloat()-a.toFloat())*t)
}

// Line draws a DDA line stepping along the major axis, rounding the minor
// axis via round(mix(a,b,t)). The mix runs in float64 throughout; mixing
// in two precisions would move edge pixels between runs.
func (r *Renderer) Line(x0, y0, x1, y1 fix32) {
	cb := r.state.resolveColorBits()
	sx0, sy0 := r.toScreenX(x0), r.toScreenY(y0)
	sx1, sy1 := r.toScreenX(x1), r.toScreenY(y1)

	dx := sx1 - sx0
	dy := sy1 - sy0
	if dx == 0 && dy == 0 {
		r.writePixel(cb, sx0, sy0)
		return
	}

	steps := dx
	if abs(dy) > abs(dx) {
		steps = dy
	}
	if steps < 0 {
		steps = -steps
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := roundFix(mixFix(newFix(sx0), newFix(sx1), t))
		y := roundFix(mixFix(newFix(sy0), newFix(sy1), t))
		r.writePixel(cb, x, y)
	}
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

// Rect draws the four border segments of an (x0,y0)-(x1,y1) box. The two
// vertical sides are shortened by one pixel on each end so the corners are
// not written twice.
func (r *Renderer) Rect(x0, y0, x1, y1 fix32) {
	ax, ay := r.toScreenX(x0), r.toScreenY(y0)
	bx, by := r.toScreenX(x1), r.toScreenY(y1)
	if ax > bx {
		ax, bx = bx, ax
	}
	if ay > by {
		ay, by = by, ay
	}
	cb := r.state.resolveColorBits()
	for x := ax; x <= bx; x++ {
		r.writePixel(cb, x, ay)
		r.writePixel(cb, x, by)
	}
	for y := ay + 1; y <= by-1; y++ {
		r.writePixel(cb, ax, y)
		r.writePixel(cb, bx, y)
	}
}

// Rectfill scanline-fills the box via Hline. The loop bound is
// floor(max(y0,y1)) inclusive, so fractional endpoints like y0=0.5,
// y1=1.4 still fill both rows.
func (r *Renderer) Rectfill(x0, y0, x1, y1 fix32) {
	ay, by := r.toScreenY(y0), r.toScreenY(y1)
	if ay > by {
		ay, by = by, ay
	}
	for y := ay; y <= by; y++ {
		r.Hline(x0, x1, newFix(y+int(r.state.cameraY)))
	}
}

// Circ draws the eight-way-symmetric Bresenham midpoint circle outline.
func (r *Renderer) Circ(cx, cy, radius fix32) {
	r.circlePoints(cx, cy, radius, func(cb colorBits, px, py int) {
		r.writePixel(cb, px, py)
	})
}

// Circfill draws two horizontal and two vertical spans per midpoint step,
// accepting the minor overdraw this implies at the poles.
func (r *Renderer) Circfill(cx, cy, radius fix32) {
	scx, scy := r.toScreenX(cx), r.toScreenY(cy)
	cb := r.state.resolveColorBits()
	r.bresenhamCircle(radius.toInt(), func(dx, dy int) {
		r.spanH(cb, scx-dx, scx+dx, scy+dy)
		r.spanH(cb, scx-dx, scx+dx, scy-dy)
		r.spanV(cb, scx+dx, scy-dy, scy+dy)
		r.spanV(cb, scx-dx, scy-dy, scy+dy)
	})
}

func (r *Renderer) spanH(cb colorBits, x0, x1, y int) {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	for x := x0; x <= x1; x++ {
		r.writePixel(cb, x, y)
	}
}

func (r *Renderer) spanV(cb colorBits, x, y0, y1 int) {
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		r.writePixel(cb, x, y)
	}
}

func (r *Renderer) circlePoints(cx, cy, radius fix32, plot func(cb colorBits, x, y int)) {
	scx, scy := r.toScreenX(cx), r.toScreenY(cy)
	cb := r.state.resolveColorBits()
	r.bresenhamCircle(radius.toInt(), func(dx, dy int) {
		plot(cb, scx+dx, scy+dy)
		plot(cb, scx+dy, scy+dx)
		plot(cb, scx-dy, scy+dx)
		plot(cb, scx-dx, scy+dy)
		plot(cb, scx-dx, scy-dy)
		plot(cb, scx-dy, scy-dx)
		plot(cb, scx+dy, scy-dx)
		plot(cb, scx+dx, scy-dy)
	})
}

// bresenhamCircle implements the midpoint stepper with an empirically
// adjusted correction step: after incrementing dy and err, if
// 2*(err-dx) > r+1 then dx -= 1 and err += 1-2*dx.
func (r *Renderer) bresenhamCircle(radius int, step func(dx, dy int)) {
	if radius < 0 {
		return
	}
	dx := radius
	dy := 0
	err := 0
	for dx >= dy {
		step(dx, dy)
		dy++
		err += 2*dy - 1
		if 2*(err-dx) > radius+1 {
			dx--
			err += 1 - 2*dx
		}
	}
}

// Spr draws sprite n at (x,y), spanning wPx x hPx pixels (the cell-count
// API argument times 8, which keeps fractional cell spans exact), with
// independent x/y flip.
func (r *Renderer) Spr(n int, x, y fix32, wPx, hPx int, flipX, flipY bool) {
	sheetX0 := (n % SPRITE_SHEET_COLS) * SPRITE_SIZE_PX
	sheetY0 := (n / SPRITE_SHEET_COLS) * SPRITE_SIZE_PX
	dx0, dy0 := r.toScreenX(x), r.toScreenY(y)

	for j := 0; j < hPx; j++ {
		srcJ := j
		if flipY {
			srcJ = hPx - 1 - j
		}
		for i := 0; i < wPx; i++ {
			srcI := i
			if flipX {
				srcI = wPx - 1 - i
			}
			idx := r.mem.GetPixel4(GFX_ADDR, sheetX0+srcI, sheetY0+srcJ, GFX_WIDTH_PX)
			if r.state.transparent[idx] {
				continue
			}
			color := r.state.drawPalette[idx]
			cb := makeColorBits(0, color, color, false)
			r.writePixel(cb, dx0+i, dy0+j)
		}
	}
}

// Sspr stretch-blits a source rectangle to a destination rectangle using
// nearest-neighbour sampling, with independent flips.
func (r *Renderer) Sspr(sx, sy, sw, sh int, dx, dy, dw, dh fix32, flipX, flipY bool) {
	ddx0, ddy0 := r.toScreenX(dx), r.toScreenY(dy)
	ddw, ddh := dw.toInt(), dh.toInt()
	if ddw <= 0 || ddh <= 0 {
		return
	}
	for j := 0; j < ddh; j++ {
		srcY := sy + sh*j/ddh
		if flipY {
			srcY = sy + sh - 1 - sh*j/ddh
		}
		for i := 0; i < ddw; i++ {
			srcX := sx + sw*i/ddw
			if flipX {
				srcX = sx + sw - 1 - sw*i/ddw
			}
			idx := r.mem.GetPixel4(GFX_ADDR, srcX, srcY, GFX_WIDTH_PX)
			if r.state.transparent[idx] {
				continue
			}
			color := r.state.drawPalette[idx]
			cb := makeColorBits(0, color, color, false)
			r.writePixel(cb, ddx0+i, ddy0+j)
		}
	}
}

// Map blits a region of the tile map. When layerMask is non-zero, tiles
// whose flag byte lacks all requested bits are skipped.
func (r *Renderer) Map(celX, celY, sx, sy fix32, celW, celH int, layerMask byte) {
	dx0, dy0 := r.toScreenX(sx), r.toScreenY(sy)
	cx0, cy0 := celX.toInt(), celY.toInt()
	for ty := 0; ty < celH; ty++ {
		for tx := 0; tx < celW; tx++ {
			n := int(r.mem.MapTile(cx0+tx, cy0+ty))
			if n == 0 {
				continue
			}
			if layerMask != 0 && r.mem.SpriteFlags(n)&layerMask != layerMask {
				continue
			}
			r.blitTileOpaque(n, dx0+tx*SPRITE_SIZE_PX, dy0+ty*SPRITE_SIZE_PX)
		}
	}
}

func (r *Renderer) blitTileOpaque(n, dx, dy int) {
	sheetX0 := (n % SPRITE_SHEET_COLS) * SPRITE_SIZE_PX
	sheetY0 := (n / SPRITE_SHEET_COLS) * SPRITE_SIZE_PX
	for j := 0; j < SPRITE_SIZE_PX; j++ {
		for i := 0; i < SPRITE_SIZE_PX; i++ {
			idx := r.mem.GetPixel4(GFX_ADDR, sheetX0+i, sheetY0+j, GFX_WIDTH_PX)
			if r.state.transparent[idx] {
				continue
			}
			color := r.state.drawPalette[idx]
			cb := makeColorBits(0, color, color, false)
			r.writePixel(cb, dx+i, dy+j)
		}
	}
}

// Pal sets the draw (p=0) or screen (p=1) palette remap, or resets both
// tables (plus transparency and fill pattern) when called with no args.
func (s *renderState) Pal(c0, c1 byte, p int, hasArgs bool) {
	if !hasArgs {
		s.resetPalette()
		return
	}
	c0 &= 0xf
	c1 &= 0xf
	if p == 0 {
		s.drawPalette[c0] = c1
	} else {
		s.screenPalette[c0] = c1
	}
}

// Palt sets the transparency bit for color c, or resets to {0} when
// called with no args.
func (s *renderState) Palt(c byte, v bool, hasArgs bool) {
	if !hasArgs {
		for i := range s.transparent {
			s.transparent[i] = false
		}
		s.transparent[0] = true
		return
	}
	s.transparent[c&0xf] = v
}

// Fget/Fset read or write a sprite's flag byte, or a single bit of it.
func (r *Renderer) Fget(n int) byte { return r.mem.SpriteFlags(n) }

func (r *Renderer) FgetBit(n, bit int) bool {
	return r.mem.SpriteFlags(n)&(1<<uint(bit&7)) != 0
}

func (r *Renderer) Fset(n int, v byte) { r.mem.SetSpriteFlags(n, v) }

func (r *Renderer) FsetBit(n, bit int, v bool) {
	f := r.mem.SpriteFlags(n)
	mask := byte(1 << uint(bit&7))
	if v {
		f |= mask
	} else {
		f &^= mask
	}
	r.mem.SetSpriteFlags(n, f)
}

// Color sets the current pen verbatim: the caller's fix32 carries the
// primary index in the low integer nibble, an optional secondary index in
// the next nibble, and possibly the raw-descriptor sentinel.
func (s *renderState) Color(c fix32) {
	s.pen = c
}

// Fillp sets the fill pattern and its transparency flag.
func (s *renderState) Fillp(pattern uint16, transparent bool) {
	s.fillp = pattern
	s.fillpTransparent = transparent
}

// Camera sets the signed camera offset subtracted from every draw
// coordinate before it reaches the clip test.
func (s *renderState) Camera(x, y int16) {
	s.cameraX, s.cameraY = x, y
}

const glyphLineHeight = 6

// glyphWidth implements the font's narrow/wide split: bytes 0x20..0x99
// are 4px-wide, 0x9a and above are 8px-wide.
func glyphWidth(b byte) int {
	if b >= 0x9a {
		return 8
	}
	return 4
}

// glyphStencil draws one character cell. ASCII comes from the embedded
// 3x5 bitmap font; bytes outside that range get a stencil derived from a
// hash of the byte, stable across runs and distinct per character, since
// the console's full symbol/kana art is asset data this module does not
// embed.
func (r *Renderer) glyphStencil(b byte, x0, y0 int) {
	if b == ' ' || b == '\n' {
		return
	}
	cb := r.state.resolveColorBits()
	if b >= 0x20 && b < 0x80 {
		g := fontNarrow[b-0x20]
		for y := 0; y < 5; y++ {
			for x := 0; x < 3; x++ {
				if fontRowBits(g, x, y) {
					r.writePixel(cb, x0+x, y0+y)
				}
			}
		}
		return
	}
	w := glyphWidth(b) - 1
	h := splitmix64(uint64(b)) | 1
	for y := 0; y < 5; y++ {
		for x := 0; x < w; x++ {
			if h>>uint(y*w+x)&1 != 0 {
				r.writePixel(cb, x0+x, y0+y)
			}
		}
	}
}

// scrollScreen moves the SCREEN region up by n rows and zero-fills the
// vacated rows at the bottom, the text-overflow half of print.
func (r *Renderer) scrollScreen(rows int) {
	rowBytes := uint32(SCREEN_WIDTH_PX / 2)
	shift := uint32(rows) * rowBytes
	if shift >= SCREEN_SIZE {
		r.mem.Memset(SCREEN_ADDR, 0, SCREEN_SIZE)
		return
	}
	r.mem.Memcpy(SCREEN_ADDR, SCREEN_ADDR+shift, SCREEN_SIZE-shift)
	r.mem.Memset(SCREEN_ADDR+SCREEN_SIZE-shift, 0, shift)
}

// Print draws str starting at (x,y), or at the text cursor when hasPos is
// false, updating the pen when hasColor is true. Newlines reset x and
// advance y by one line; the comma glyph is back-kerned by one pixel; the
// cursor auto-scrolls the screen once it passes row 116.
func (r *Renderer) Print(str string, x, y fix32, hasPos bool, pen fix32, hasColor bool) (nextX, nextY fix32) {
	if hasColor {
		r.state.Color(pen)
	}
	cx, cy := r.state.cursorX, r.state.cursorY
	if hasPos {
		cx, cy = x, y
	}
	startX := cx

	for i := 0; i < len(str); i++ {
		b := str[i]
		if b == '\n' {
			cx = startX
			cy += newFix(glyphLineHeight)
			continue
		}
		if b == ',' {
			cx -= newFix(1)
		}
		r.glyphStencil(b, r.toScreenX(cx), r.toScreenY(cy))
		cx += newFix(glyphWidth(b))
	}

	if !hasPos {
		// print() always leaves the cursor at the start of the next line,
		// even when the string did not end in an explicit newline.
		cx, cy = startX, cy+newFix(glyphLineHeight)
		if cy.toInt() > 116 {
			r.scrollScreen(glyphLineHeight)
			cy -= newFix(glyphLineHeight)
		}
		r.state.cursorX, r.state.cursorY = cx, cy
	}
	return cx, cy
}

// Cursor sets (or, with no args, resets) the text cursor, optionally
// updating the pen color too.
func (s *renderState) Cursor(x, y fix32, pen fix32, hasColor bool, hasArgs bool) {
	if !hasArgs {
		s.cursorX, s.cursorY = 0, 0
		return
	}
	s.cursorX, s.cursorY = x, y
	if hasColor {
		s.Color(pen)
	}
}
