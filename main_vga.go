//go:build vga

package main

import (
	"github.com/dioptase-project/dioptase/emu/runtime"
	"github.com/dioptase-project/dioptase/emu/vga"
	"github.com/dioptase-project/dioptase/vgaview"
)

// prepareDisplay constructs the on-screen VGA window as a vga.Sink
// (wired into runtime.Config before the machine exists) and returns
// the closure that binds it to the finished machine's console and
// blocks running its event loop. Call from main's goroutine once sys
// is built.
func prepareDisplay(scale int) (vga.Sink, func(sys *runtime.System) error) {
	win := vgaview.New(scale, nil)
	start := func(sys *runtime.System) error {
		win.SetKeyTarget(sys.Console)
		return win.Run("Dioptase")
	}
	return win, start
}
