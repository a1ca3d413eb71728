package main

import "testing"

func pressOnly(indices ...int) (down [NUM_BUTTONS]bool) {
	for _, i := range indices {
		down[i] = true
	}
	return
}

func TestBtnReflectsLastUpdate(t *testing.T) {
	in := NewInputState()
	in.UpdateButtons(pressOnly(buttonIndex(0, 0)))
	if !in.Btn(0, 0) {
		t.Fatal("button 0 player 0 should be held")
	}
	if in.Btn(1, 0) {
		t.Fatal("button 1 player 0 should not be held")
	}
}

func TestBtnpFirstTickOnly(t *testing.T) {
	in := NewInputState()
	down := pressOnly(buttonIndex(2, 0))
	in.UpdateButtons(down)
	if !in.Btnp(2, 0) {
		t.Fatal("btnp should fire on first held tick")
	}
	for i := 0; i < 14; i++ {
		in.UpdateButtons(down)
		if in.Btnp(2, 0) {
			t.Fatalf("btnp should not fire on held tick %d", i+2)
		}
	}
}

func TestBtnpAutoRepeatAfter15(t *testing.T) {
	in := NewInputState()
	down := pressOnly(buttonIndex(3, 0))
	fired := []int{}
	for tick := 1; tick <= 24; tick++ {
		in.UpdateButtons(down)
		if in.Btnp(3, 0) {
			fired = append(fired, tick)
		}
	}
	want := []int{1, 16, 20, 24}
	if len(fired) != len(want) {
		t.Fatalf("fired ticks = %v, want %v", fired, want)
	}
	for i, w := range want {
		if fired[i] != w {
			t.Errorf("fired[%d] = %d, want %d", i, fired[i], w)
		}
	}
}

func TestBtnReleaseResetsHoldCounter(t *testing.T) {
	in := NewInputState()
	down := pressOnly(buttonIndex(0, 0))
	in.UpdateButtons(down)
	in.UpdateButtons([NUM_BUTTONS]bool{})
	if in.Btn(0, 0) {
		t.Fatal("button should be released")
	}
	in.UpdateButtons(down)
	if !in.Btnp(0, 0) {
		t.Fatal("btnp should fire again after a release/re-press")
	}
}

func TestBtnBitmaskPacksEightButtons(t *testing.T) {
	in := NewInputState()
	in.UpdateButtons(pressOnly(buttonIndex(0, 0), buttonIndex(2, 0)))
	if got := in.BtnBitmask(0); got != 0b0000_0101 {
		t.Fatalf("bitmask = %b, want 0b101", got)
	}
}

func TestMouseGatedByFlag(t *testing.T) {
	in := NewInputState()
	in.SetMouse(10, 20, 1)
	if in.MouseX() != 0 || in.MouseY() != 0 || in.MouseButtons() != 0 {
		t.Fatal("mouse state should read zero until the flag is set")
	}
	in.SetMouseFlag(true)
	if in.MouseX() != 10 || in.MouseY() != 20 || in.MouseButtons() != 1 {
		t.Fatal("mouse state should be visible once the flag is set")
	}
}

func TestButtonIndexOutOfRangeIsFalse(t *testing.T) {
	in := NewInputState()
	if in.Btn(0, 5) || in.Btnp(0, 5) {
		t.Fatal("out-of-range player should read false")
	}
}
