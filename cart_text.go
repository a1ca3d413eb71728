// cart_text.go - ".p8" text cartridge format parser
//
// A text cart is UTF-8, split into sections introduced by a `__name__`
// line on its own. __lua__ holds the raw code string verbatim; every
// other section is a grid of hex digits packed into its documented memory
// region. The binary sections decode concurrently via errgroup, except
// that __gfx__ and __map__ share one goroutine: map rows 32-63 live at
// 0x1000-0x1FFF, inside the tail of the sprite sheet, so those two
// writers would race on the same bytes if split apart.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// basePalette gives the 16 standard console colors RGB values, used only
// to materialize a cart's __label__ section into displayable pixels; the
// rendering kernel itself never looks at this table.
var basePalette = [16][3]byte{
	{0, 0, 0}, {29, 43, 83}, {126, 37, 83}, {0, 135, 81},
	{171, 82, 54}, {95, 87, 79}, {194, 195, 199}, {255, 241, 232},
	{255, 0, 77}, {255, 163, 0}, {255, 236, 39}, {0, 228, 54},
	{41, 173, 255}, {131, 118, 156}, {255, 119, 168}, {255, 204, 170},
}

func splitTextCartSections(src string) map[string][]string {
	sections := map[string][]string{}
	cur := ""
	for _, line := range strings.Split(src, "\n") {
		if strings.HasPrefix(line, "__") && strings.HasSuffix(strings.TrimRight(line, "\r"), "__") && len(line) > 4 {
			cur = strings.Trim(strings.TrimRight(line, "\r"), "_")
			sections[cur] = nil
			continue
		}
		if cur == "" {
			continue
		}
		sections[cur] = append(sections[cur], strings.TrimRight(line, "\r"))
	}
	return sections
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

// packHexBytes packs every adjacent pair of hex digits across all lines
// (in order, ignoring non-hex characters such as stray whitespace) into
// successive bytes of dst, high nibble first, stopping when dst is full.
func packHexBytes(lines []string, dst []byte) {
	var hi byte
	haveHi := false
	pos := 0
	for _, line := range lines {
		for i := 0; i < len(line) && pos < len(dst); i++ {
			n, ok := hexNibble(line[i])
			if !ok {
				continue
			}
			if !haveHi {
				hi = n
				haveHi = true
				continue
			}
			dst[pos] = hi<<4 | n
			pos++
			haveHi = false
		}
	}
}

// packGfxPixels packs hex digits into the 4-bit pixel convention used by
// the GFX region: each digit is one pixel, the first digit of a pair in
// the low nibble (even x), matching Memory.SetPixel4.
func packGfxPixels(mem *Memory, lines []string) {
	for y, line := range lines {
		if y >= GFX_HEIGHT_PX {
			break
		}
		x := 0
		for i := 0; i < len(line) && x < GFX_WIDTH_PX; i++ {
			n, ok := hexNibble(line[i])
			if !ok {
				continue
			}
			mem.SetPixel4(GFX_ADDR, x, y, GFX_WIDTH_PX, n)
			x++
		}
	}
}

func packMapTiles(mem *Memory, lines []string) {
	for y, line := range lines {
		if y >= MAP_HEIGHT_TILES {
			break
		}
		x := 0
		var hi byte
		haveHi := false
		for i := 0; i < len(line) && x < MAP_WIDTH_TILES; i++ {
			n, ok := hexNibble(line[i])
			if !ok {
				continue
			}
			if !haveHi {
				hi = n
				haveHi = true
				continue
			}
			mem.SetMapTile(x, y, hi<<4|n)
			x++
			haveHi = false
		}
	}
}

func decodeLabel(lines []string) *LabelImage {
	if len(lines) == 0 {
		return nil
	}
	img := &LabelImage{Width: 128, Height: 128, Pixels: make([]byte, 128*128*4)}
	for y, line := range lines {
		if y >= 128 {
			break
		}
		x := 0
		for i := 0; i < len(line) && x < 128; i++ {
			n, ok := hexNibble(line[i])
			if !ok {
				continue
			}
			rgb := basePalette[n]
			off := (y*128 + x) * 4
			img.Pixels[off], img.Pixels[off+1], img.Pixels[off+2], img.Pixels[off+3] = rgb[0], rgb[1], rgb[2], 255
			x++
		}
	}
	return img
}

func parseCartVersion(headerLines []string) int {
	for _, line := range headerLines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "version ") {
			if v, err := strconv.Atoi(strings.TrimSpace(line[len("version "):])); err == nil {
				return v
			}
		}
	}
	return 0
}

func loadTextCartridge(path string) (*Cartridge, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load text cartridge %q: %w", path, err)
	}
	sections := splitTextCartSections(string(data))

	mem := NewMemory()

	var g errgroup.Group
	g.Go(func() error {
		// Sprite sheet first, then the map rows that overlap its tail.
		packGfxPixels(mem, sections["gfx"])
		packMapTiles(mem, sections["map"])
		return nil
	})
	g.Go(func() error { packHexBytes(sections["gff"], mem.bytes[GFX_PROPS_ADDR:GFX_PROPS_ADDR+GFX_PROPS_SIZE]); return nil })
	g.Go(func() error { packHexBytes(sections["sfx"], mem.bytes[SFX_ADDR:SFX_ADDR+SFX_SIZE]); return nil })
	g.Go(func() error { packHexBytes(sections["music"], mem.bytes[MUSIC_ADDR:MUSIC_ADDR+MUSIC_SIZE]); return nil })
	var label *LabelImage
	g.Go(func() error { label = decodeLabel(sections["label"]); return nil })
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("decode text cartridge %q: %w", path, err)
	}

	code := strings.Join(sections["lua"], "\n")
	allLines := strings.Split(string(data), "\n")
	version := parseCartVersion(allLines[:min(8, len(allLines))])

	return newCartridge(mem.bytes, code, label, version), nil
}
