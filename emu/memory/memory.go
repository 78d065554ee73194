/*
 * Dioptase - Physical memory.
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

// Package memory models the flat 32-bit physical address space backing
// RAM. Devices are not addressed here; emu/mmio decodes the high part of
// the address space and only routes RAM-range addresses down to this
// package.
package memory

// Little-endian byte/halfword/word accessors over a flat byte slice.
type Memory struct {
	ram []byte
}

// New creates RAM of the given size in bytes.
func New(size uint32) *Memory {
	return &Memory{ram: make([]byte, size)}
}

// Size returns the number of addressable RAM bytes.
func (m *Memory) Size() uint32 {
	return uint32(len(m.ram))
}

// InRange reports whether addr..addr+length is entirely inside RAM.
func (m *Memory) InRange(addr uint32, length uint32) bool {
	end := uint64(addr) + uint64(length)
	return end <= uint64(len(m.ram))
}

// ReadByte returns the byte at addr, or 0 if out of range.
func (m *Memory) ReadByte(addr uint32) uint8 {
	if int(addr) >= len(m.ram) {
		return 0
	}
	return m.ram[addr]
}

// WriteByte stores a byte at addr; out-of-range writes are discarded.
func (m *Memory) WriteByte(addr uint32, value uint8) {
	if int(addr) >= len(m.ram) {
		return
	}
	m.ram[addr] = value
}

// ReadHalf returns the little-endian halfword at addr.
func (m *Memory) ReadHalf(addr uint32) uint16 {
	return uint16(m.ReadByte(addr)) | uint16(m.ReadByte(addr+1))<<8
}

// WriteHalf stores a little-endian halfword at addr.
func (m *Memory) WriteHalf(addr uint32, value uint16) {
	m.WriteByte(addr, uint8(value))
	m.WriteByte(addr+1, uint8(value>>8))
}

// ReadWord returns the little-endian word at addr.
func (m *Memory) ReadWord(addr uint32) uint32 {
	return uint32(m.ReadByte(addr)) |
		uint32(m.ReadByte(addr+1))<<8 |
		uint32(m.ReadByte(addr+2))<<16 |
		uint32(m.ReadByte(addr+3))<<24
}

// WriteWord stores a little-endian word at addr.
func (m *Memory) WriteWord(addr uint32, value uint32) {
	m.WriteByte(addr, uint8(value))
	m.WriteByte(addr+1, uint8(value>>8))
	m.WriteByte(addr+2, uint8(value>>16))
	m.WriteByte(addr+3, uint8(value>>24))
}

// ReadBytes copies length bytes starting at addr into a fresh slice,
// short-reading if the range runs past the end of RAM.
func (m *Memory) ReadBytes(addr uint32, length int) []byte {
	out := make([]byte, length)
	for i := range out {
		out[i] = m.ReadByte(addr + uint32(i))
	}
	return out
}

// WriteBytes copies data into RAM starting at addr.
func (m *Memory) WriteBytes(addr uint32, data []byte) {
	for i, b := range data {
		m.WriteByte(addr+uint32(i), b)
	}
}
