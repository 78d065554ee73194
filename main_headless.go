//go:build !vga

package main

import (
	"errors"

	"github.com/dioptase-project/dioptase/emu/runtime"
	"github.com/dioptase-project/dioptase/emu/vga"
)

// prepareDisplay is the headless build's counterpart to the "vga"-tagged
// version: no Sink, and starting a display always fails loudly rather
// than silently ignoring --vga.
func prepareDisplay(scale int) (vga.Sink, func(sys *runtime.System) error) {
	return nil, func(sys *runtime.System) error {
		return errors.New(`built without the "vga" tag; rebuild with -tags vga to use --vga`)
	}
}
