package main

import "testing"

func TestWaveformsStayInRange(t *testing.T) {
	for n := 0; n < numWaveforms; n++ {
		for i := 0; i < 200; i++ {
			phase := float64(i) * 0.031
			v := Waveform(n, phase)
			if v < -1.0001 || v > 1.0001 {
				t.Fatalf("waveform %d at phase %v = %v, out of [-1,1]", n, phase, v)
			}
		}
	}
}

func TestWaveformsAreDeterministic(t *testing.T) {
	for n := 0; n < numWaveforms; n++ {
		a := Waveform(n, 0.417)
		b := Waveform(n, 0.417)
		if a != b {
			t.Fatalf("waveform %d not deterministic: %v != %v", n, a, b)
		}
	}
}

func TestSquareWaveShape(t *testing.T) {
	if v := Waveform(WaveSquare, 0.1); v != 1 {
		t.Fatalf("square(0.1) = %v, want 1", v)
	}
	if v := Waveform(WaveSquare, 0.6); v != -1 {
		t.Fatalf("square(0.6) = %v, want -1", v)
	}
}

func TestTriangleWaveSymmetry(t *testing.T) {
	if v := Waveform(WaveTriangle, 0); v != -1 {
		t.Fatalf("triangle(0) = %v, want -1", v)
	}
	if v := Waveform(WaveTriangle, 0.25); v != 0 {
		t.Fatalf("triangle(0.25) = %v, want 0", v)
	}
	if v := Waveform(WaveTriangle, 0.5); v != 1 {
		t.Fatalf("triangle(0.5) = %v, want 1", v)
	}
}

func TestNoiseWaveRepeatsPerCycleStep(t *testing.T) {
	a := Waveform(WaveNoise, 1.0)
	b := Waveform(WaveNoise, 2.0)
	if a == b {
		t.Fatalf("expected different noise samples at different quantized steps, got %v twice", a)
	}
	c := Waveform(WaveNoise, 1.0)
	if a != c {
		t.Fatalf("noise at the same phase must repeat: %v != %v", a, c)
	}
}

func TestWaveformIndexWrapsModulo(t *testing.T) {
	a := Waveform(0, 0.3)
	b := Waveform(numWaveforms, 0.3)
	if a != b {
		t.Fatalf("waveform index should wrap modulo numWaveforms")
	}
}
