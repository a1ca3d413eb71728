// audio_state.go - 4-channel sfx/music scheduler state
//
// The actual DSP mixing belongs to a sound front-end this package does not
// carry; what lives here is the channel bookkeeping the script API and
// stat() observe: which sfx plays on which channel, and the row it has
// advanced to. Rows advance once per Step, 32 rows per sfx.
package main

const sfxRowCount = 32

// Sfx starts, stops, or releases a sound effect. n == -1 stops the
// channel, n == -2 releases a looping sfx (bookkept the same as a stop
// here, since there is no mixer to keep the tail alive). channel == -1
// picks the first idle channel, stealing channel 0 when all are busy.
func (vm *VM) Sfx(n, channel, offset int) {
	if n == -1 || n == -2 {
		if channel >= 0 && channel < NUM_AUDIO_CHANNELS {
			vm.audio[channel].SfxIndex = -1
			vm.audio[channel].Row = 0
		}
		return
	}
	if n < 0 || n >= 64 {
		return
	}
	if channel < 0 || channel >= NUM_AUDIO_CHANNELS {
		channel = 0
		for i := 0; i < NUM_AUDIO_CHANNELS; i++ {
			if vm.audio[i].SfxIndex == -1 {
				channel = i
				break
			}
		}
	}
	if offset < 0 || offset >= sfxRowCount {
		offset = 0
	}
	vm.audio[channel].SfxIndex = n
	vm.audio[channel].Row = offset
}

// Music starts pattern n, or stops playback when n == -1. The fade length
// and channel mask are accepted for API compatibility; with no mixer they
// only gate which channels a future front-end may reserve.
func (vm *VM) Music(n, fadeLen, channelMask int) {
	if n < 0 {
		vm.music.playing = false
		vm.music.pattern = -1
		return
	}
	vm.music.pattern = n & 0x3f
	vm.music.playing = true
	_ = fadeLen
	_ = channelMask
}

// advanceAudio moves every playing channel forward one row at the tick
// boundary, freeing the channel once it runs off the end of its sfx.
func (vm *VM) advanceAudio() {
	for i := range vm.audio {
		if vm.audio[i].SfxIndex < 0 {
			continue
		}
		vm.audio[i].Row++
		if vm.audio[i].Row >= sfxRowCount {
			vm.audio[i].SfxIndex = -1
			vm.audio[i].Row = 0
		}
	}
}

// ChannelSfx reports the sfx playing on a channel, -1 when idle; this is
// what stat(16..19) returns.
func (vm *VM) ChannelSfx(ch int) int {
	if ch < 0 || ch >= NUM_AUDIO_CHANNELS {
		return -1
	}
	return vm.audio[ch].SfxIndex
}

// ChannelRow reports the row a channel has reached, -1 when idle; this is
// what stat(20..23) returns.
func (vm *VM) ChannelRow(ch int) int {
	if ch < 0 || ch >= NUM_AUDIO_CHANNELS {
		return -1
	}
	if vm.audio[ch].SfxIndex < 0 {
		return -1
	}
	return vm.audio[ch].Row
}
