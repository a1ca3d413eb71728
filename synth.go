// synth.go - The eight built-in waveform generators backing sfx playback
//
// Each generator takes a phase (cycles advanced since the note started,
// not wrapped) and returns a sample in [-1, 1]. All eight are pure
// functions of phase: calling one twice with the same input is guaranteed
// to reproduce the same sample, including the noise generator, whose
// "randomness" is a deterministic hash of the quantized phase rather than
// a seeded RNG stream.
package main

import "math"

const (
	WaveTriangle = iota
	WaveTiltedSaw
	WaveSaw
	WaveSquare
	WavePulse
	WaveOrgan
	WaveNoise
	WavePhaser
	numWaveforms
)

type waveformFunc func(phase float64) float64

var waveforms = [numWaveforms]waveformFunc{
	WaveTriangle:  triangleWave,
	WaveTiltedSaw: tiltedSawWave,
	WaveSaw:       sawWave,
	WaveSquare:    squareWave,
	WavePulse:     pulseWave,
	WaveOrgan:     organWave,
	WaveNoise:     noiseWave,
	WavePhaser:    phaserWave,
}

// Waveform evaluates instrument n (0-7) at the given phase, wrapping
// unknown instrument indices modulo the 8 built-ins.
func Waveform(n int, phase float64) float64 {
	return waveforms[n%numWaveforms](phase)
}

func frac(x float64) float64 {
	return x - math.Floor(x)
}

func triangleWave(phase float64) float64 {
	t := frac(phase)
	if t < 0.5 {
		return 4*t - 1
	}
	return 3 - 4*t
}

// tiltedSawWave rises steeply to the peak at 80% of the cycle, then falls
// the rest of the way, giving the asymmetric "tilted saw" shape.
func tiltedSawWave(phase float64) float64 {
	t := frac(phase)
	const peak = 0.8
	if t < peak {
		return t/peak*2 - 1
	}
	return (1-t)/(1-peak)*2 - 1
}

func sawWave(phase float64) float64 {
	return 2*frac(phase) - 1
}

func squareWave(phase float64) float64 {
	if frac(phase) < 0.5 {
		return 1
	}
	return -1
}

// pulseWave is an asymmetric square with a 1/3 duty cycle.
func pulseWave(phase float64) float64 {
	if frac(phase) < 1.0/3.0 {
		return 1
	}
	return -1
}

// organWave layers a half-amplitude first harmonic over the fundamental
// triangle, then renormalizes back into [-1, 1].
func organWave(phase float64) float64 {
	return (triangleWave(phase) + 0.5*triangleWave(phase*2)) / 1.5
}

// noiseWave hashes the quantized phase into a reproducible pseudo-random
// sample: the same phase always yields the same "noise" value, so a
// cartridge that reloads and replays a channel hears an identical sound.
func noiseWave(phase float64) float64 {
	const stepsPerCycle = 64
	step := uint64(phase * stepsPerCycle)
	h := splitmix64(step)
	return float64(h>>11)/float64(1<<53)*2 - 1
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// phaserWave beats the fundamental triangle against a slightly detuned
// copy of itself, producing a slow two-component interference sweep.
func phaserWave(phase float64) float64 {
	return (triangleWave(phase) + triangleWave(phase*127.0/128.0)) / 2
}
