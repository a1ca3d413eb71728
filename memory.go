// memory.go - Flat memory bus for the retro8 fantasy console
//
// This module implements the 32 KiB memory image that is the backbone of
// the VM: every graphics primitive, the input bus, and the audio scheduler
// all read and write the same byte array, so the layout in constants.go is
// bit-exact ABI rather than an implementation detail.
//
// Core Features:
//
//	A single contiguous 32 KiB byte slice, addressed 0x0000-0x7FFF.
//	4-bit packed pixel accessors shared, not copied, with the byte array,
//	so poke/peek and the rendering kernel always agree.
//	peek4/poke4 reinterpret four bytes as a little-endian fix32.
//	memcpy/memset/reload implement the script-visible bulk operators,
//	including the documented wraparound and fatal-on-overflow rules.
//
// Unlike the bus this module is descended from, there is no mutex here:
// per the VM's single-threaded cooperative model, the memory image is
// only ever touched by the active script and the embedder between ticks,
// never concurrently.
package main

import "encoding/binary"

// Memory is the VM's 32 KiB flat address space.
type Memory struct {
	bytes [MEM_SIZE]byte
}

// NewMemory returns a zeroed memory image.
func NewMemory() *Memory {
	return &Memory{}
}

// Reset clears every byte to zero.
func (m *Memory) Reset() {
	for i := range m.bytes {
		m.bytes[i] = 0
	}
}

// Bytes exposes the backing array for bulk copy operations (cartridge
// loading, memcpy/memset) that want direct slice access.
func (m *Memory) Bytes() []byte { return m.bytes[:] }

// Peek reads one byte. Out-of-range addresses read as zero.
func (m *Memory) Peek(addr uint32) byte {
	if addr >= MEM_SIZE {
		return 0
	}
	return m.bytes[addr]
}

// Poke writes the low 8 bits of v. Addresses outside [0, MEM_SIZE) are a
// fatal script error; callers enforce that, since Memory itself has no
// notion of a script error type.
func (m *Memory) Poke(addr uint32, v byte) bool {
	if addr >= MEM_SIZE {
		return false
	}
	m.bytes[addr] = v
	return true
}

// Peek4 reads a little-endian 32-bit word as a fix32. Bytes past MEM_SIZE
// read as zero; an address that wraps past 0x10000 wraps back to zero
// (the documented 64 KiB logical address space for peek4).
func (m *Memory) Peek4(addr uint32) fix32 {
	addr &= 0xffff
	var buf [4]byte
	for i := 0; i < 4; i++ {
		a := addr + uint32(i)
		if a < MEM_SIZE {
			buf[i] = m.bytes[a]
		}
	}
	return fixFromBits(binary.LittleEndian.Uint32(buf[:]))
}

// Poke4 writes the little-endian bit pattern of v across four bytes.
func (m *Memory) Poke4(addr uint32, v fix32) bool {
	if addr+4 > MEM_SIZE {
		return false
	}
	binary.LittleEndian.PutUint32(m.bytes[addr:addr+4], v.toBits())
	return true
}

// Memcpy implements memmove semantics: dst and src may overlap and are
// copied via an intermediate buffer. Source bytes wrap at 0x10000 and read
// as zero beyond MEM_SIZE; a destination range that overflows MEM_SIZE is
// a fatal error (reported via the bool return).
func (m *Memory) Memcpy(dst, src, n uint32) bool {
	if n == 0 {
		return true
	}
	if dst+n > MEM_SIZE {
		return false
	}
	buf := make([]byte, n)
	for i := uint32(0); i < n; i++ {
		a := (src + i) & 0xffff
		if a < MEM_SIZE {
			buf[i] = m.bytes[a]
		}
	}
	copy(m.bytes[dst:dst+n], buf)
	return true
}

// Memset fills n bytes at dst with v. Overflowing dst is fatal.
func (m *Memory) Memset(dst uint32, v byte, n uint32) bool {
	if dst+n > MEM_SIZE {
		return false
	}
	for i := uint32(0); i < n; i++ {
		m.bytes[dst+i] = v
	}
	return true
}

// Reload copies n bytes from the cart's ROM (up to its code section) into
// main memory, the cartridge-reset half of memcpy. Source bytes
// past the code section read as zero.
func (m *Memory) Reload(dst, src, n uint32, rom []byte) bool {
	if dst+n > MEM_SIZE {
		return false
	}
	buf := make([]byte, n)
	for i := uint32(0); i < n; i++ {
		a := src + i
		if a < uint32(len(rom)) {
			buf[i] = rom[a]
		}
	}
	copy(m.bytes[dst:dst+n], buf)
	return true
}

// --- typed pixel/tile views -------------------------------------------------
//
// Pixels are 4-bit packed two-per-byte: even x in the low nibble, odd x in
// the high nibble. GetPixel4/SetPixel4 implement that packing for both the
// GFX sheet and the SCREEN framebuffer, since both share the same layout.

func pixelOffset(base uint32, x, y, widthPx int) (addr uint32, hiNibble bool) {
	idx := y*widthPx + x
	addr = base + uint32(idx/2)
	hiNibble = idx%2 != 0
	return
}

// GetPixel4 reads a packed 4-bit pixel from a region starting at base with
// the given pixel width (128 for both GFX and SCREEN in this console).
func (m *Memory) GetPixel4(base uint32, x, y, widthPx int) byte {
	addr, hi := pixelOffset(base, x, y, widthPx)
	b := m.Peek(addr)
	if hi {
		return b >> 4
	}
	return b & 0x0f
}

// SetPixel4 writes a packed 4-bit pixel, preserving the other nibble.
func (m *Memory) SetPixel4(base uint32, x, y, widthPx int, color byte) {
	addr, hi := pixelOffset(base, x, y, widthPx)
	if addr >= MEM_SIZE {
		return
	}
	b := m.bytes[addr]
	color &= 0x0f
	if hi {
		b = (b & 0x0f) | (color << 4)
	} else {
		b = (b & 0xf0) | color
	}
	m.bytes[addr] = b
}

// MapTile reads a tile index from the MAP region, honouring the documented
// split: rows 0..31 live at MAP_HI_ADDR (0x2000), rows 32..63 overlap the
// tail of GFX at MAP_LO_ADDR (0x1000).
func (m *Memory) MapTile(tx, ty int) byte {
	if tx < 0 || tx >= MAP_WIDTH_TILES || ty < 0 || ty >= MAP_HEIGHT_TILES {
		return 0
	}
	return m.Peek(mapTileAddr(tx, ty))
}

// SetMapTile writes a tile index, mirroring MapTile's addressing.
func (m *Memory) SetMapTile(tx, ty int, v byte) {
	if tx < 0 || tx >= MAP_WIDTH_TILES || ty < 0 || ty >= MAP_HEIGHT_TILES {
		return
	}
	m.Poke(mapTileAddr(tx, ty), v)
}

func mapTileAddr(tx, ty int) uint32 {
	if ty < 32 {
		return MAP_HI_ADDR + uint32(ty*MAP_WIDTH_TILES+tx)
	}
	return MAP_LO_ADDR + uint32((ty-32)*MAP_WIDTH_TILES+tx)
}

// SpriteFlags returns the per-sprite flag byte (fget/fset's backing store).
func (m *Memory) SpriteFlags(n int) byte {
	if n < 0 || n >= GFX_PROPS_SIZE {
		return 0
	}
	return m.Peek(GFX_PROPS_ADDR + uint32(n))
}

// SetSpriteFlags writes the per-sprite flag byte.
func (m *Memory) SetSpriteFlags(n int, v byte) {
	if n < 0 || n >= GFX_PROPS_SIZE {
		return
	}
	m.Poke(GFX_PROPS_ADDR+uint32(n), v)
}
