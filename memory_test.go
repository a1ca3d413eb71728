package main

import "testing"

func TestPeek4Poke4Roundtrip(t *testing.T) {
	m := NewMemory()
	v := fixFromBits(0x12345678)
	if !m.Poke4(0x4300, v) {
		t.Fatal("poke4 at 0x4300 should succeed")
	}
	got := m.Peek4(0x4300)
	if got.toBits() != 0x12345678 {
		t.Fatalf("peek4 = 0x%08x, want 0x12345678", got.toBits())
	}
}

func TestPeek4WrapsAt0x10000(t *testing.T) {
	m := NewMemory()
	// addr + i wraps past 0x10000 back to 0; MEM_SIZE (0x8000) < 0x10000
	// so bytes beyond MEM_SIZE but before the wrap read as zero too.
	got := m.Peek4(0xfffe)
	if got.toBits() != 0 {
		t.Fatalf("peek4 past MEM_SIZE = 0x%08x, want 0", got.toBits())
	}
}

func TestPokeOutOfRangeFails(t *testing.T) {
	m := NewMemory()
	if m.Poke(MEM_SIZE, 1) {
		t.Fatal("poke at MEM_SIZE should fail (out of range)")
	}
}

func TestMemcpyOverlap(t *testing.T) {
	m := NewMemory()
	for i := 0; i < 8; i++ {
		m.Poke(uint32(i), byte(i+1))
	}
	if !m.Memcpy(2, 0, 8) {
		t.Fatal("memcpy should succeed")
	}
	want := []byte{1, 2, 1, 2, 3, 4, 5, 6, 7, 8}
	for i, w := range want {
		if got := m.Peek(uint32(i)); got != w {
			t.Errorf("byte %d = %d, want %d", i, got, w)
		}
	}
}

func TestMemcpyDstOverflowFails(t *testing.T) {
	m := NewMemory()
	if m.Memcpy(MEM_SIZE-1, 0, 4) {
		t.Fatal("memcpy overflowing dst should fail")
	}
}

func TestMemsetFill(t *testing.T) {
	m := NewMemory()
	if !m.Memset(10, 0xaa, 5) {
		t.Fatal("memset should succeed")
	}
	for i := uint32(10); i < 15; i++ {
		if got := m.Peek(i); got != 0xaa {
			t.Errorf("byte %d = 0x%02x, want 0xaa", i, got)
		}
	}
}

func TestPixel4Packing(t *testing.T) {
	m := NewMemory()
	m.SetPixel4(SCREEN_ADDR, 64, 64, SCREEN_WIDTH_PX, 7)
	addr := uint32(SCREEN_ADDR) + (128*64+64)/2
	if got := m.Peek(addr); got != 0x07 {
		t.Fatalf("screen byte at 0x%04x = 0x%02x, want 0x07", addr, got)
	}
	if got := m.GetPixel4(SCREEN_ADDR, 64, 64, SCREEN_WIDTH_PX); got != 7 {
		t.Fatalf("GetPixel4 = %d, want 7", got)
	}
}

func TestPixel4OddEvenNibble(t *testing.T) {
	m := NewMemory()
	m.SetPixel4(SCREEN_ADDR, 0, 0, SCREEN_WIDTH_PX, 3)
	m.SetPixel4(SCREEN_ADDR, 1, 0, SCREEN_WIDTH_PX, 9)
	if got := m.Peek(SCREEN_ADDR); got != 0x93 {
		t.Fatalf("packed byte = 0x%02x, want 0x93", got)
	}
}

func TestMapTileSplit(t *testing.T) {
	m := NewMemory()
	m.SetMapTile(5, 10, 42) // row 10 < 32 -> MAP_HI_ADDR
	if got := m.Peek(MAP_HI_ADDR + 10*MAP_WIDTH_TILES + 5); got != 42 {
		t.Fatalf("map tile at row 10 not at MAP_HI_ADDR")
	}
	m.SetMapTile(5, 40, 7) // row 40 >= 32 -> MAP_LO_ADDR
	if got := m.Peek(MAP_LO_ADDR + (40-32)*MAP_WIDTH_TILES + 5); got != 7 {
		t.Fatalf("map tile at row 40 not at MAP_LO_ADDR")
	}
	if got := m.MapTile(5, 40); got != 7 {
		t.Fatalf("MapTile(5,40) = %d, want 7", got)
	}
}

func TestSpriteFlagsBit(t *testing.T) {
	m := NewMemory()
	m.SetSpriteFlags(1, 0b0000_0101)
	if got := m.SpriteFlags(1); got != 0b0000_0101 {
		t.Fatalf("SpriteFlags(1) = %b, want 0b101", got)
	}
}
