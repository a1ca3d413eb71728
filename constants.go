// constants.go - Master memory map for the retro8 fantasy console
//
// This file provides a centralized reference for every named region of the
// 32 KiB memory image, mirroring how registers.go in the teacher engine
// this package is descended from keeps one authoritative address map
// instead of scattering magic offsets across each chip's file.
//
// MEMORY MAP OVERVIEW
// ====================
//
// Address Range       Size     Region            Detail file
// ---------------------------------------------------------------------
// 0x0000-0x1FFF       8KB      GFX (sprite sheet) memory.go
// 0x1000-0x1FFF       4KB      MAP rows 32-63     memory.go (overlaps GFX)
// 0x2000-0x2FFF       4KB      MAP rows 0-31      memory.go
// 0x3000-0x30FF       256B     GFX_PROPS (flags)  memory.go
// 0x3100-0x31FF       256B     MAP_PROPS (unused) memory.go
// 0x3200-0x42FF       4KB      SFX                audio_state.go
// 0x4300-0x5DFF       ~7KB     MUSIC + reserved   audio_state.go
// 0x5E00-0x5EFF       256B     GENERAL_STATE      vm.go, input.go
// 0x5F00-0x5F3F       64B      DRAW_STATE         render.go
// 0x5F40-0x5FFF       192B     HW_STATE           input.go, audio_state.go
// 0x6000-0x7FFF       8KB      SCREEN (framebuf)  memory.go
//
// This is a flat 32 KiB address space: every byte offset doubles as
// something a rendering primitive, the input bus or the audio scheduler
// reads or writes directly, so these constants are load-bearing ABI, not
// merely convenient names.
package main

const (
	MEM_SIZE = 0x8000 // 32 KiB flat memory image

	GFX_ADDR       = 0x0000
	GFX_SIZE       = 0x2000
	MAP_LO_ADDR    = 0x1000 // rows 32..63, overlapping the tail of GFX
	MAP_LO_SIZE    = 0x1000
	MAP_HI_ADDR    = 0x2000 // rows 0..31
	MAP_HI_SIZE    = 0x1000
	GFX_PROPS_ADDR = 0x3000
	GFX_PROPS_SIZE = 0x0100
	MAP_PROPS_ADDR = 0x3100
	MAP_PROPS_SIZE = 0x0100

	SFX_ADDR   = 0x3200
	SFX_SIZE   = 0x1100
	MUSIC_ADDR = 0x4300
	MUSIC_SIZE = 0x1100

	CART_DATA_ADDR = 0x5E00 // persistent cart data (cartdata())
	CART_DATA_SIZE = 0x0100

	DRAW_STATE_ADDR = 0x5F00
	DRAW_STATE_SIZE = 0x0040

	HW_STATE_ADDR = 0x5F40
	HW_STATE_SIZE = 0x00C0

	SCREEN_ADDR = 0x6000
	SCREEN_SIZE = 0x2000

	// Hardware-state offsets, relative to HW_STATE_ADDR (0x5F40).
	HW_BTN_STATE     = HW_STATE_ADDR + 0x00 // low 16 bits: btn(i)
	HW_MOUSE_FLAG    = 0x5F2D               // stat(32..34) gate
	HW_MOUSE_X       = HW_STATE_ADDR + 0x04
	HW_MOUSE_Y       = HW_STATE_ADDR + 0x08
	HW_MOUSE_BUTTONS = HW_STATE_ADDR + 0x0C

	// Sprite/map tile geometry.
	SPRITE_SHEET_COLS = 16 // 128px / 8px
	SPRITE_SIZE_PX    = 8
	GFX_WIDTH_PX      = 128
	GFX_HEIGHT_PX     = 128
	MAP_WIDTH_TILES   = 128
	MAP_HEIGHT_TILES  = 64
	SCREEN_WIDTH_PX   = 128
	SCREEN_HEIGHT_PX  = 128

	NUM_BUTTONS    = 64
	BUTTONS_PER_PL = 8
	NUM_PLAYERS    = 2

	NUM_AUDIO_CHANNELS = 4

	// Script host scheduling: the cooperative-yield budget.
	DEFAULT_INSTR_HOOK_INTERVAL = 1000
	DEFAULT_INSTR_BUDGET_HOOKS  = 300 // 300 hooks * 1000 "instructions" == 300,000
)

// InRange reports whether addr falls inside [base, base+size).
func InRange(addr, base, size uint32) bool {
	return addr >= base && addr < base+size
}
