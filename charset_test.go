package main

import "testing"

func TestCharsetHas256Entries(t *testing.T) {
	for i := 0; i < 256; i++ {
		if CharToUTF8(byte(i)) == "" {
			t.Fatalf("byte %d has an empty UTF-8 form", i)
		}
	}
}

func TestCharsetASCIIIdentity(t *testing.T) {
	if got := CharToUTF8('A'); got != "A" {
		t.Fatalf("byte 'A' = %q, want \"A\"", got)
	}
	if got := CharToUTF8('0'); got != "0" {
		t.Fatalf("byte '0' = %q, want \"0\"", got)
	}
}

func TestCharsetReverseLookupRoundtrips(t *testing.T) {
	for i := 0; i < 256; i++ {
		codepoints := CharToUTF32(byte(i))
		if len(codepoints) == 0 {
			t.Fatalf("byte %d has no UTF-32 form", i)
		}
		b, ok := RuneToChar(codepoints[0])
		if !ok || b != byte(i) {
			t.Errorf("byte %d: reverse lookup of %U = %d, ok=%v", i, codepoints[0], b, ok)
		}
	}
}

func TestCharsetVariationSelectorEntriesCarryTwoCodepoints(t *testing.T) {
	found := false
	for i := 0; i < 256; i++ {
		cp := CharToUTF32(byte(i))
		if len(cp) == 2 {
			found = true
			if cp[1] != 0xfe0f {
				t.Errorf("byte %d second codepoint = %U, want U+FE0F", i, cp[1])
			}
		}
	}
	if !found {
		t.Fatal("expected at least one variation-selector-bearing entry")
	}
}

func TestEncodeLeavesPlainASCIIAlone(t *testing.T) {
	if got := Encode("hello world"); got != "hello world" {
		t.Fatalf("Encode(ascii) = %q, want unchanged", got)
	}
}

func TestEncodeFoldsMultiByteGlyphToSingleByte(t *testing.T) {
	glyph := CharToUTF8(128) // first glyph past ASCII, a multi-byte symbol
	got := Encode(glyph)
	if len(got) != 1 || got[0] != 128 {
		t.Fatalf("Encode(%q) = %q, want single byte 128", glyph, got)
	}
}

func TestEncodeRoundTripsEveryByte(t *testing.T) {
	for i := 0; i < 256; i++ {
		glyph := CharToUTF8(byte(i))
		got := Encode(glyph)
		if len(got) != 1 || got[0] != byte(i) {
			t.Errorf("byte %d: Encode(%q) = %q, want the single original byte", i, glyph, got)
		}
	}
}
