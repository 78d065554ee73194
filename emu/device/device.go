/*
 * Dioptase - Device interface.
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

// Package device declares the MMIO device contract shared by UART, PS/2,
// PIT, VGA, the SD DMA engine, and the inter-processor mailbox.
package device

// Device is implemented by every MMIO peripheral. Offset is relative to
// the device's own base address, already decoded by emu/mmio.
type Device interface {
	ReadByte(offset uint32) uint8
	WriteByte(offset uint32, value uint8)
	ReadHalf(offset uint32) uint16
	WriteHalf(offset uint32, value uint16)
	ReadWord(offset uint32) uint32
	WriteWord(offset uint32, value uint32)

	// Tick advances device-internal state (PIT counters, DMA quanta, frame
	// counters) by one scheduler pass.
	Tick()
}

// InterruptSource describes a device that can assert one of the per-core
// pending-interrupt bits. Source returns the IVT slot index the device
// latches when it fires. No device in this tree implements it: the
// scheduler polls ConsoleBlock and VGA through their own *Source()/Clear*()
// accessors.
type InterruptSource interface {
	Device
	Source() uint8
	Pending() bool
	// Clear acknowledges the edge; level-triggered devices with a
	// non-empty internal queue re-assert on the next Pending() check.
	Clear()
}

// InterruptSink receives device-asserted interrupts and IPI deliveries. No
// type in this tree implements the whole interface: the scheduler has
// DeliverIPI and raises device interrupts through each core's
// RaiseInterrupt.
type InterruptSink interface {
	RaiseInterrupt(source uint8)
	DeliverIPI(target uint8, payload uint32)
}

// Common status bits shared by the SD DMA slots and the VGA control block.
const (
	StatusBusy uint8 = 0x01
)
