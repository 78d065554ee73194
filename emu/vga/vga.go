/*
 * Dioptase - VGA framebuffer device.
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

// Package vga implements the pixel/tile framebuffer device: a linear RGB332
// pixel plane, a tile framebuffer, a tilemap, and a control register block
// that drives scroll/scale/mode and the frame-complete interrupt. Rendering
// itself — turning the framebuffer into pixels on a screen — lives in the
// optional vgaview package; this package only owns the bytes.
package vga

const (
	// SourceFrame is the IVT/isr source id for the frame-complete interrupt.
	SourceFrame = 0xF4

	PixelWindowSize   = 0x20000 // 0x07FC0000..0x07FDFFFF
	TileFBWindowSize  = 0x3000  // 0x07FBD000..0x07FBFFFF
	TilemapWindowSize = 0x2000  // 0x07FE8000..
	ControlWindowSize = 0x10    // 0x07FE5B40..0x07FE5B4F

	offHScroll = 0x0
	offVScroll = 0x2
	offMode    = 0x4
	offScale   = 0x5
	offStatus  = 0x6
	offFrame   = 0x8
	offCDV     = 0xC
)

// Sink receives a completed frame for display; the optional vgaview window
// implements it. Nil is valid — the emulator runs headless otherwise.
type Sink interface {
	Blit(pixels []byte, tiles []byte, tilemap []byte, hscroll, vscroll uint16, mode, scale uint8)
}

// VGA owns the pixel plane, tile framebuffer, tilemap, and control state.
type VGA struct {
	pixel   []byte
	tileFB  []byte
	tilemap []byte

	hscroll, vscroll uint16
	mode, scale      uint8
	frame            uint32
	cdv              uint32

	tickCounter  uint32
	framePending bool

	sink Sink
}

// New allocates framebuffer storage and wires an optional display sink.
func New(sink Sink) *VGA {
	return &VGA{
		pixel:   make([]byte, PixelWindowSize),
		tileFB:  make([]byte, TileFBWindowSize),
		tilemap: make([]byte, TilemapWindowSize),
		cdv:     1,
		sink:    sink,
	}
}

// FrameSource reports the level-triggered frame-complete interrupt state.
func (v *VGA) FrameSource() bool { return v.framePending }

// ClearFrame acknowledges the frame-complete edge.
func (v *VGA) ClearFrame() { v.framePending = false }

// Tick advances the clock divider and renders a frame each time it
// overflows, mirroring the PIT's period-counter shape.
func (v *VGA) Tick() {
	if v.cdv == 0 {
		return
	}
	v.tickCounter++
	if v.tickCounter < v.cdv {
		return
	}
	v.tickCounter = 0
	v.frame++
	v.framePending = true
	if v.sink != nil {
		v.sink.Blit(v.pixel, v.tileFB, v.tilemap, v.hscroll, v.vscroll, v.mode, v.scale)
	}
}

// PixelWindow returns the bus-attachable device for the pixel framebuffer.
func (v *VGA) PixelWindow() *region { return &region{buf: &v.pixel} }

// TileFBWindow returns the bus-attachable device for the tile framebuffer.
func (v *VGA) TileFBWindow() *region { return &region{buf: &v.tileFB} }

// TilemapWindow returns the bus-attachable device for the tilemap.
func (v *VGA) TilemapWindow() *region { return &region{buf: &v.tilemap} }

// ControlWindow returns the bus-attachable control register block.
func (v *VGA) ControlWindow() *controlRegion { return &controlRegion{v: v} }

// region is a plain byte-addressable framebuffer window; Tick is a no-op
// since the owning VGA is ticked once, through its control window.
type region struct {
	buf *[]byte
}

func (r *region) ReadByte(offset uint32) uint8 {
	if int(offset) >= len(*r.buf) {
		return 0
	}
	return (*r.buf)[offset]
}

func (r *region) WriteByte(offset uint32, value uint8) {
	if int(offset) >= len(*r.buf) {
		return
	}
	(*r.buf)[offset] = value
}

func (r *region) ReadHalf(offset uint32) uint16 {
	return uint16(r.ReadByte(offset)) | uint16(r.ReadByte(offset+1))<<8
}

func (r *region) WriteHalf(offset uint32, value uint16) {
	r.WriteByte(offset, uint8(value))
	r.WriteByte(offset+1, uint8(value>>8))
}

func (r *region) ReadWord(offset uint32) uint32 {
	return uint32(r.ReadHalf(offset)) | uint32(r.ReadHalf(offset+2))<<16
}

func (r *region) WriteWord(offset uint32, value uint32) {
	r.WriteHalf(offset, uint16(value))
	r.WriteHalf(offset+2, uint16(value>>16))
}

func (r *region) Tick() {}

// controlRegion exposes the scroll/scale/mode/status/frame/cdv registers
// and is the one window whose Tick drives frame advance.
type controlRegion struct {
	v *VGA
}

func (c *controlRegion) ReadByte(offset uint32) uint8 {
	return uint8(c.ReadWord(offset &^ 3) >> ((offset & 3) * 8))
}

func (c *controlRegion) WriteByte(offset uint32, value uint8) {
	shift := (offset & 3) * 8
	word := c.ReadWord(offset &^ 3)
	word = (word &^ (0xFF << shift)) | uint32(value)<<shift
	c.WriteWord(offset&^3, word)
}

func (c *controlRegion) ReadHalf(offset uint32) uint16 {
	return uint16(c.ReadWord(offset&^3) >> ((offset & 3) * 8))
}

func (c *controlRegion) WriteHalf(offset uint32, value uint16) {
	shift := (offset & 3) * 8
	word := c.ReadWord(offset &^ 3)
	word = (word &^ (0xFFFF << shift)) | uint32(value)<<shift
	c.WriteWord(offset&^3, word)
}

func (c *controlRegion) ReadWord(offset uint32) uint32 {
	v := c.v
	switch offset {
	case offHScroll:
		return uint32(v.hscroll) | uint32(v.vscroll)<<16
	case offMode:
		return uint32(v.mode) | uint32(v.scale)<<8 | statusByte(v)<<16
	case offFrame:
		return v.frame
	case offCDV:
		return v.cdv
	default:
		return 0
	}
}

func statusByte(v *VGA) uint32 {
	if v.framePending {
		return 1
	}
	return 0
}

func (c *controlRegion) WriteWord(offset uint32, value uint32) {
	v := c.v
	switch offset {
	case offHScroll:
		v.hscroll = uint16(value)
		v.vscroll = uint16(value >> 16)
	case offMode:
		v.mode = uint8(value)
		v.scale = uint8(value >> 8)
		if uint8(value>>16) == 0 {
			v.framePending = false // Writing 0 to status acknowledges the frame interrupt.
		}
	case offFrame:
		// Read-only; ties off.
	case offCDV:
		if value == 0 {
			value = 1
		}
		v.cdv = value
	}
}

func (c *controlRegion) Tick() {
	c.v.Tick()
}
