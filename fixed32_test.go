package main

import "testing"

func TestFixArithmeticMatchesBitPattern(t *testing.T) {
	a := fix32(0x00010000) // 1.0
	b := fix32(0x00008000) // 0.5
	if got := a.add(b); got != fix32(0x00018000) {
		t.Fatalf("add: got 0x%08x, want 0x00018000", uint32(got))
	}
	if got := a.sub(b); got != fix32(0x00008000) {
		t.Fatalf("sub: got 0x%08x, want 0x00008000", uint32(got))
	}
	if got := a.mul(b); got != b {
		t.Fatalf("mul: 1.0*0.5 = 0x%08x, want 0x%08x", uint32(got), uint32(b))
	}
}

func TestFixOverflowWraps(t *testing.T) {
	got := fixMax.add(fix32(1))
	if got != fixMin {
		t.Fatalf("overflow add: got %d, want %d (int32 wraparound)", got, fixMin)
	}
}

func TestFixDivByZeroSaturates(t *testing.T) {
	pos := newFix(5)
	if got := pos.div(0); got != fixMax {
		t.Fatalf("positive/0 = %d, want fixMax", got)
	}
	neg := newFix(-5)
	if got := neg.div(0); got != fixMin {
		t.Fatalf("negative/0 = %d, want fixMin", got)
	}
}

func TestFixBitsRoundtrip(t *testing.T) {
	want := uint32(0x12345678)
	f := fixFromBits(want)
	if got := f.toBits(); got != want {
		t.Fatalf("toBits/fromBits roundtrip: got 0x%08x, want 0x%08x", got, want)
	}
}

func TestFixToIntTruncatesTowardZero(t *testing.T) {
	if got := fixFromFloat(3.9).toInt(); got != 3 {
		t.Fatalf("3.9 -> %d, want 3", got)
	}
	if got := fixFromFloat(-3.9).toInt(); got != -3 {
		t.Fatalf("-3.9 -> %d, want -3", got)
	}
}

func TestFixStringTrimsTrailingZeros(t *testing.T) {
	cases := map[fix32]string{
		newFix(4):                           "4",
		newFix(4) + fix32(0x8000):           "4.5",
		fixFromBits(0).add(newFix(0)):       "0",
		newFix(-2):                          "-2",
	}
	for f, want := range cases {
		if got := f.String(); got != want {
			t.Errorf("String(%#x) = %q, want %q", uint32(f), got, want)
		}
	}
}

func TestFixHexString(t *testing.T) {
	f := fixFromBits(0x12345678)
	if got := f.hexString(); got != "0x1234.5678" {
		t.Fatalf("hexString = %q, want 0x1234.5678", got)
	}
}

func TestFixFloorMidMinMax(t *testing.T) {
	f := fixFromFloat(1.75)
	if got := f.floor(); got != newFix(1) {
		t.Fatalf("floor(1.75) = %v, want 1", got.toFloat())
	}
	a, b, c := newFix(1), newFix(5), newFix(3)
	if got := fixMid(a, b, c); got != c {
		t.Fatalf("mid(1,5,3) = %v, want 3", got.toFloat())
	}
	if got := fixMinOf(a, b); got != a {
		t.Fatalf("min(1,5) = %v, want 1", got.toFloat())
	}
	if got := fixMaxOf(a, b); got != b {
		t.Fatalf("max(1,5) = %v, want 5", got.toFloat())
	}
}
