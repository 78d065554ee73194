//go:build vga

/*
 * Dioptase - ebiten-backed VGA display window.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package vgaview renders the emulated VGA framebuffer to an on-screen
// window and feeds host keystrokes back into the machine's console
// block. Built only under the "vga" tag, keeping the headless module
// free of any GUI dependency by default — the same optional-surface
// shape as the teacher's own --vga-gated telnet/console split.
package vgaview

import (
	"image"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/dioptase-project/dioptase/emu/mmio"
)

const (
	width  = 256
	height = 192
)

// KeyTarget receives decoded host keystrokes; satisfied by
// *emu/mmio.ConsoleBlock.
type KeyTarget interface {
	PushKey(keyCode uint8, keyUp bool)
}

var _ KeyTarget = (*mmio.ConsoleBlock)(nil)

// Window is an ebiten game loop implementing vga.Sink: it decodes the
// RGB332 pixel plane into an RGBA image once per Blit call and tracks
// pressed keys to relay into the console block.
type Window struct {
	mu     sync.Mutex
	pixels []byte // RGBA, refreshed by the most recent Blit.
	scale  int
	keys   KeyTarget

	rgba *image.RGBA
}

// New creates a window at the given integer scale factor (minimum 1)
// feeding decoded keystrokes to keys.
func New(scale int, keys KeyTarget) *Window {
	if scale < 1 {
		scale = 1
	}
	return &Window{
		scale:  scale,
		keys:   keys,
		pixels: make([]byte, width*height*4),
		rgba:   image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// SetKeyTarget (re)binds the console block keystrokes are relayed to.
// Exists because the window is constructed before the machine it feeds
// — runtime.New needs a vga.Sink up front, but the ConsoleBlock it
// creates isn't available until after that call returns.
func (w *Window) SetKeyTarget(keys KeyTarget) {
	w.mu.Lock()
	w.keys = keys
	w.mu.Unlock()
}

// Run opens the window and blocks until it is closed. Call from main
// after the machine's scheduler has started on its own goroutine.
func (w *Window) Run(title string) error {
	ebiten.SetWindowSize(width*w.scale, height*w.scale)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizable(true)
	return ebiten.RunGame(w)
}

// Blit implements vga.Sink: decode the RGB332 pixel plane into RGBA
// and latch it for the next Draw.
func (w *Window) Blit(pixels []byte, tiles []byte, tilemap []byte, hscroll, vscroll uint16, mode, scale uint8) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := width * height
	if len(pixels) < n {
		n = len(pixels)
	}
	for i := 0; i < n; i++ {
		r, g, b := decodeRGB332(pixels[i])
		o := i * 4
		w.pixels[o] = r
		w.pixels[o+1] = g
		w.pixels[o+2] = b
		w.pixels[o+3] = 0xFF
	}
}

// decodeRGB332 splits one byte into 3 bits red, 3 bits green, 2 bits
// blue, each scaled to a full 8-bit channel.
func decodeRGB332(px byte) (r, g, b uint8) {
	r = expand3((px >> 5) & 0x7)
	g = expand3((px >> 2) & 0x7)
	b = expand2(px & 0x3)
	return
}

func expand3(v byte) uint8 { return uint8(v)<<5 | uint8(v)<<2 | uint8(v)>>1 }
func expand2(v byte) uint8 { return uint8(v)<<6 | uint8(v)<<4 | uint8(v)<<2 | uint8(v) }

// Update implements ebiten.Game: poll for a close request and relay
// pressed keys to the console block.
func (w *Window) Update() error {
	if ebiten.IsWindowBeingClosed() {
		return ebiten.Termination
	}
	w.handleKeys()
	return nil
}

func (w *Window) handleKeys() {
	w.mu.Lock()
	keys := w.keys
	w.mu.Unlock()
	if keys == nil {
		return
	}
	for _, r := range ebiten.AppendInputChars(nil) {
		if r > 0 && r <= 0xFF {
			keys.PushKey(uint8(r), false)
		}
	}
	for _, key := range inpututil.AppendJustPressedKeys(nil) {
		if code, ok := specialKeyCode(key); ok {
			keys.PushKey(code, false)
		}
	}
	for _, key := range inpututil.AppendJustReleasedKeys(nil) {
		if code, ok := specialKeyCode(key); ok {
			keys.PushKey(code, true)
		}
	}
}

func specialKeyCode(key ebiten.Key) (uint8, bool) {
	switch key {
	case ebiten.KeyEnter, ebiten.KeyNumpadEnter:
		return 0x0D, true
	case ebiten.KeyBackspace:
		return 0x08, true
	case ebiten.KeyTab:
		return 0x09, true
	case ebiten.KeyEscape:
		return 0x1B, true
	case ebiten.KeyArrowUp:
		return 0x80, true
	case ebiten.KeyArrowDown:
		return 0x81, true
	case ebiten.KeyArrowLeft:
		return 0x82, true
	case ebiten.KeyArrowRight:
		return 0x83, true
	default:
		return 0, false
	}
}

// Draw implements ebiten.Game: paint the latched RGBA image.
func (w *Window) Draw(screen *ebiten.Image) {
	w.mu.Lock()
	w.rgba.Pix = w.pixels
	w.mu.Unlock()
	img := ebiten.NewImageFromImage(w.rgba)
	screen.DrawImage(img, nil)
}

// Layout implements ebiten.Game.
func (w *Window) Layout(_, _ int) (int, int) {
	return width, height
}
