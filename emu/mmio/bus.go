/*
 * Dioptase - MMIO bus.
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

// Package mmio routes the flat 32-bit physical address space to RAM or to
// one of a fixed set of address-decoded device windows, mirroring the
// firmware's base+offset convention for the high MMIO range.
package mmio

import (
	"github.com/dioptase-project/dioptase/emu/device"
	"github.com/dioptase-project/dioptase/emu/memory"
)

// window is one registered device's address range.
type window struct {
	base uint32
	size uint32
	dev  device.Device
}

func (w window) contains(addr uint32) bool {
	return addr >= w.base && addr < w.base+w.size
}

// Bus dispatches physical accesses to RAM or to a device window. A bare
// struct (not an interface) is shared by value of pointer across the
// arena so cores reach devices without importing emu/cpu from emu/device.
type Bus struct {
	ram     *memory.Memory
	windows []window
}

// New wraps RAM with no devices attached; use Attach to register windows.
func New(ram *memory.Memory) *Bus {
	return &Bus{ram: ram}
}

// Attach registers a device window [base, base+size). Overlap with an
// already-registered window is a programming error and panics at startup.
func (b *Bus) Attach(base, size uint32, dev device.Device) {
	for _, w := range b.windows {
		if base < w.base+w.size && w.base < base+size {
			panic("mmio: overlapping device window")
		}
	}
	b.windows = append(b.windows, window{base: base, size: size, dev: dev})
}

func (b *Bus) find(addr uint32) (window, bool) {
	for _, w := range b.windows {
		if w.contains(addr) {
			return w, true
		}
	}
	return window{}, false
}

// Tick advances every attached device by one quantum.
func (b *Bus) Tick() {
	for _, w := range b.windows {
		w.dev.Tick()
	}
}

// ReadByte/WriteByte/ReadHalf/WriteHalf/ReadWord/WriteWord route to RAM
// when the address falls inside it, to a device window when it matches
// one, or are silently ignored (DeviceError is not a trapped fault; see
// the error-handling design, §7) when the address hits neither.

func (b *Bus) ReadByte(addr uint32) uint8 {
	if b.ram.InRange(addr, 1) {
		return b.ram.ReadByte(addr)
	}
	if w, ok := b.find(addr); ok {
		return w.dev.ReadByte(addr - w.base)
	}
	return 0
}

func (b *Bus) WriteByte(addr uint32, value uint8) {
	if b.ram.InRange(addr, 1) {
		b.ram.WriteByte(addr, value)
		return
	}
	if w, ok := b.find(addr); ok {
		w.dev.WriteByte(addr-w.base, value)
	}
}

func (b *Bus) ReadHalf(addr uint32) uint16 {
	if b.ram.InRange(addr, 2) {
		return b.ram.ReadHalf(addr)
	}
	if w, ok := b.find(addr); ok {
		return w.dev.ReadHalf(addr - w.base)
	}
	return 0
}

func (b *Bus) WriteHalf(addr uint32, value uint16) {
	if b.ram.InRange(addr, 2) {
		b.ram.WriteHalf(addr, value)
		return
	}
	if w, ok := b.find(addr); ok {
		w.dev.WriteHalf(addr-w.base, value)
	}
}

func (b *Bus) ReadWord(addr uint32) uint32 {
	if b.ram.InRange(addr, 4) {
		return b.ram.ReadWord(addr)
	}
	if w, ok := b.find(addr); ok {
		return w.dev.ReadWord(addr - w.base)
	}
	return 0
}

func (b *Bus) WriteWord(addr uint32, value uint32) {
	if b.ram.InRange(addr, 4) {
		b.ram.WriteWord(addr, value)
		return
	}
	if w, ok := b.find(addr); ok {
		w.dev.WriteWord(addr-w.base, value)
	}
}

// ReadBytes/WriteBytes serve the SD DMA engine and the debugger's memory
// dump command; both only ever target RAM in practice, so out-of-range
// spans degrade the same way Memory does (short-read as zero, discard).
func (b *Bus) ReadBytes(addr uint32, length int) []byte {
	if b.ram.InRange(addr, uint32(length)) {
		return b.ram.ReadBytes(addr, length)
	}
	out := make([]byte, length)
	for i := range out {
		out[i] = b.ReadByte(addr + uint32(i))
	}
	return out
}

func (b *Bus) WriteBytes(addr uint32, data []byte) {
	if b.ram.InRange(addr, uint32(len(data))) {
		b.ram.WriteBytes(addr, data)
		return
	}
	for i, v := range data {
		b.WriteByte(addr+uint32(i), v)
	}
}
