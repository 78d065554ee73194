/*
 * Dioptase - SD DMA engine.
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

// Package sddma implements the two-slot block DMA engine that moves bytes
// between physical RAM and a raw SD card image, one 4-byte quantum every
// --sd-dma-ticks ticks.
package sddma

const (
	// BlockSize is the SD image's fixed block length in bytes.
	BlockSize = 512

	quantum = 4

	// Register offsets within a slot's 20-byte window.
	OffMemAddr = 0x00
	OffSDBlock = 0x04
	OffLen     = 0x08
	OffCtrl    = 0x0C
	OffStatus  = 0x10

	// WindowSize is the span a slot occupies on the bus.
	WindowSize = 0x14

	// CTRL commands.
	CtrlRead  = 0x1 // SD -> RAM.
	CtrlWrite = 0x3 // RAM -> SD.
	CtrlInit  = 0x8 // No-op; clears BUSY after one tick.

	statusBusy uint8 = 0x01
)

// MemAccessor is the subset of the physical bus a DMA slot needs. It is
// satisfied structurally by *emu/mmio.Bus without importing that package,
// which would otherwise close a cycle (bus -> device -> sddma -> bus).
type MemAccessor interface {
	ReadBytes(addr uint32, length int) []byte
	WriteBytes(addr uint32, data []byte)
}

// Slot is one DMA register block plus the backing SD image it targets.
type Slot struct {
	memAddr uint32
	sdBlock uint32
	length  uint32
	ctrl    uint32
	busy    bool
	dir     uint32
	done    uint32 // Bytes transferred so far.

	mem   MemAccessor
	image []byte // Mutated in place; write commands persist immediately.

	ticksPerQuantum int
	tickCounter     int

	onWriteComplete func()
}

// NewSlot wires a slot to the shared physical bus and its SD image. image
// is held by reference: RAM->SD commands mutate it directly, satisfying
// the "SD images are written back in-place" persistence rule. onComplete,
// if non-nil, is invoked after a write command finishes (to flush image
// to its backing file).
func NewSlot(mem MemAccessor, image []byte, ticksPerQuantum int, onComplete func()) *Slot {
	if ticksPerQuantum < 1 {
		ticksPerQuantum = 1
	}
	return &Slot{mem: mem, image: image, ticksPerQuantum: ticksPerQuantum, onWriteComplete: onComplete}
}

func (s *Slot) ReadByte(offset uint32) uint8 {
	return uint8(s.ReadWord(offset&^3) >> ((offset & 3) * 8))
}

func (s *Slot) WriteByte(offset uint32, value uint8) {
	shift := (offset & 3) * 8
	word := s.ReadWord(offset &^ 3)
	word = (word &^ (0xFF << shift)) | uint32(value)<<shift
	s.WriteWord(offset&^3, word)
}

func (s *Slot) ReadHalf(offset uint32) uint16 {
	return uint16(s.ReadWord(offset&^3) >> ((offset & 3) * 8))
}

func (s *Slot) WriteHalf(offset uint32, value uint16) {
	shift := (offset & 3) * 8
	word := s.ReadWord(offset &^ 3)
	word = (word &^ (0xFFFF << shift)) | uint32(value)<<shift
	s.WriteWord(offset&^3, word)
}

func (s *Slot) ReadWord(offset uint32) uint32 {
	switch offset {
	case OffMemAddr:
		return s.memAddr
	case OffSDBlock:
		return s.sdBlock
	case OffLen:
		return s.length
	case OffCtrl:
		return s.ctrl
	case OffStatus:
		if s.busy {
			return uint32(statusBusy)
		}
		return 0
	default:
		return 0
	}
}

func (s *Slot) WriteWord(offset uint32, value uint32) {
	switch offset {
	case OffMemAddr:
		s.memAddr = value
	case OffSDBlock:
		s.sdBlock = value
	case OffLen:
		s.length = value
	case OffCtrl:
		s.startCommand(value)
	default:
		// STATUS is read-only; ties off.
	}
}

// startCommand is ignored while BUSY, per the "subsequent CTRL writes are
// ignored until BUSY clears" rule.
func (s *Slot) startCommand(value uint32) {
	if s.busy {
		return
	}
	s.ctrl = value
	s.dir = value
	s.done = 0
	s.tickCounter = 0
	switch value {
	case CtrlRead, CtrlWrite, CtrlInit:
		s.busy = true
	}
}

// Tick advances the transfer by at most one 4-byte quantum.
func (s *Slot) Tick() {
	if !s.busy {
		return
	}

	if s.dir == CtrlInit {
		s.busy = false
		return
	}

	s.tickCounter++
	if s.tickCounter < s.ticksPerQuantum {
		return
	}
	s.tickCounter = 0

	remaining := s.length - s.done
	if remaining == 0 {
		s.finish()
		return
	}
	n := uint32(quantum)
	if remaining < n {
		n = remaining
	}

	imageOff := s.sdBlock*BlockSize + s.done
	switch s.dir {
	case CtrlRead:
		data := s.readImage(imageOff, int(n))
		s.mem.WriteBytes(s.memAddr+s.done, data)
	case CtrlWrite:
		data := s.mem.ReadBytes(s.memAddr+s.done, int(n))
		s.writeImage(imageOff, data)
	}
	s.done += n

	if s.done >= s.length {
		s.finish()
	}
}

func (s *Slot) finish() {
	wasWrite := s.dir == CtrlWrite
	s.busy = false
	if wasWrite && s.onWriteComplete != nil {
		s.onWriteComplete()
	}
}

func (s *Slot) readImage(offset uint32, n int) []byte {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		idx := offset + uint32(i)
		if int(idx) < len(s.image) {
			out[i] = s.image[idx]
		}
	}
	return out
}

func (s *Slot) writeImage(offset uint32, data []byte) {
	for i, b := range data {
		idx := offset + uint32(i)
		if int(idx) < len(s.image) {
			s.image[idx] = b
		}
	}
}

// Busy reports whether a transfer is in progress.
func (s *Slot) Busy() bool { return s.busy }
