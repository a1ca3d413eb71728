// cart.go - Cartridge type and loader dispatch
//
// A Cartridge is an immutable snapshot produced once by LoadCartridge and
// owned by the VM for as long as it stays loaded; loading a new cart
// replaces it atomically rather than mutating it in place. Dispatch
// by file extension mirrors detectMediaType's extension switch in the
// engine this package is descended from.
package main

import (
	"fmt"
	"path/filepath"
	"strings"
)

// CodeFixer normalizes dialect sugar in cartridge source before the
// script host ever sees it (e.g. `+=`, one-line `if`). The real fixer is
// an external collaborator consuming a string and returning a string;
// identityFixer is the only implementation carried here.
type CodeFixer interface {
	Fix(code string) (string, error)
}

type identityFixer struct{}

func (identityFixer) Fix(code string) (string, error) { return code, nil }

// Cartridge is the immutable result of a cart load: a 32 KiB ROM image,
// the raw code string, an optional label image, a version number, and a
// lazily computed "fixed" code string.
type Cartridge struct {
	ROM     [MEM_SIZE]byte
	Code    string
	Label   *LabelImage
	Version int

	fixer   CodeFixer
	fixed   string
	fixedOK bool
}

// LabelImage is the optional 128x128 RGBA cart-label thumbnail carried by
// image-format carts.
type LabelImage struct {
	Width, Height int
	Pixels        []byte // RGBA, row-major
}

func newCartridge(rom [MEM_SIZE]byte, code string, label *LabelImage, version int) *Cartridge {
	return &Cartridge{ROM: rom, Code: code, Label: label, Version: version, fixer: identityFixer{}}
}

// SetCodeFixer installs the external analyzer used by FixedCode. Carts
// loaded before this call still lazily fix on first FixedCode access.
func (c *Cartridge) SetCodeFixer(f CodeFixer) {
	c.fixer = f
	c.fixedOK = false
}

// FixedCode runs the raw code through the installed CodeFixer the first
// time it's requested, then memoizes the result.
func (c *Cartridge) FixedCode() (string, error) {
	if c.fixedOK {
		return c.fixed, nil
	}
	fixer := c.fixer
	if fixer == nil {
		fixer = identityFixer{}
	}
	fixed, err := fixer.Fix(c.Code)
	if err != nil {
		return "", fmt.Errorf("fix cart code: %w", err)
	}
	c.fixed = fixed
	c.fixedOK = true
	return c.fixed, nil
}

// CompressedCode returns the code section as it would appear packed into
// a cart file; carts loaded from disk already carry code unpacked, so
// this is a pass-through placeholder for the packer half of the loader,
// which belongs to the external cart tooling rather than this module.
func (c *Cartridge) CompressedCode() []byte {
	return []byte(c.Code)
}

// LoadCartridge reads a cart from path, dispatching by extension. No
// partial cart is ever returned: a parse failure yields (nil, err) and
// any in-progress state is discarded.
func LoadCartridge(path string) (*Cartridge, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".p8":
		return loadTextCartridge(path)
	case ".png":
		return loadPNGCartridge(path)
	default:
		return nil, fmt.Errorf("load cartridge %q: unsupported extension %q", path, filepath.Ext(path))
	}
}
