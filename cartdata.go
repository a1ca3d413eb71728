// cartdata.go - Persistent cart-data region, menuitem registry, extcmd
//
// cartdata() names a 256-byte save slot and flushes it to disk under a
// restricted base directory the same way the engine this package is
// descended from guards its file I/O device: reject absolute paths and
// "..", then confirm the joined path still resolves inside the base dir.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CartData manages the CART_DATA memory region's on-disk persistence.
type CartData struct {
	mem     *Memory
	baseDir string
	name    string
}

func NewCartData(mem *Memory, baseDir string) *CartData {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		abs = baseDir
	}
	return &CartData{mem: mem, baseDir: abs}
}

func (c *CartData) sanitizeName(name string) (string, bool) {
	if name == "" || filepath.IsAbs(name) || strings.Contains(name, "..") || strings.ContainsAny(name, "/\\") {
		return "", false
	}
	full := filepath.Join(c.baseDir, name+".cartdata")
	rel, err := filepath.Rel(c.baseDir, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return full, true
}

// Cartdata implements the cartdata(id) API: with no id, it reports
// whether a slot is already active; with an id, it opens (creating if
// needed) that slot, loading its saved bytes into CART_DATA.
func (c *CartData) Cartdata(name string, hasName bool) (active bool, err error) {
	if !hasName {
		return c.name != "", nil
	}
	full, ok := c.sanitizeName(name)
	if !ok {
		return false, fmt.Errorf("cartdata %q: invalid slot name", name)
	}
	c.name = name
	data, readErr := os.ReadFile(full)
	if readErr == nil {
		n := copy(c.mem.bytes[CART_DATA_ADDR:CART_DATA_ADDR+CART_DATA_SIZE], data)
		for i := CART_DATA_ADDR + uint32(n); i < CART_DATA_ADDR+CART_DATA_SIZE; i++ {
			c.mem.bytes[i] = 0
		}
	} else {
		for i := uint32(CART_DATA_ADDR); i < CART_DATA_ADDR+CART_DATA_SIZE; i++ {
			c.mem.bytes[i] = 0
		}
	}
	return true, nil
}

// Flush writes the current CART_DATA bytes to the active slot's file.
// Called automatically whenever a script pokes into the region and on
// clean VM shutdown, so a crash between pokes loses at most one write.
func (c *CartData) Flush() error {
	if c.name == "" {
		return nil
	}
	full, ok := c.sanitizeName(c.name)
	if !ok {
		return fmt.Errorf("flush cartdata %q: invalid slot name", c.name)
	}
	data := c.mem.bytes[CART_DATA_ADDR : CART_DATA_ADDR+CART_DATA_SIZE]
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("flush cartdata %q: %w", c.name, err)
	}
	return nil
}

// MenuRegistry is a no-op backing store for menuitem(): real front-ends
// render a pause-menu entry that invokes the callback, but this package
// has no front-end, so registering just remembers the
// label for introspection/tests.
type MenuRegistry struct {
	items map[int]string
}

func NewMenuRegistry() *MenuRegistry { return &MenuRegistry{items: map[int]string{}} }

func (r *MenuRegistry) Set(index int, label string) {
	if label == "" {
		delete(r.items, index)
		return
	}
	r.items[index] = label
}

func (r *MenuRegistry) Labels() map[int]string { return r.items }

// ExtCmd implements extcmd(): only "reset" is wired to real behavior
// (reload the active cart's ROM into memory); every other command name
// is accepted and ignored with a single logged line the first time it
// comes up.
func ExtCmd(name string, vm *VM) {
	switch name {
	case "reset":
		vm.ResetMemory()
	case "label", "screen", "rec", "video":
		vm.stubOnce("extcmd(" + name + ")")
	}
}
