/*
 * Dioptase - PS/2, UART, and PIT console block.
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

package mmio

import "io"

// Interrupt source ids, mirrored from the reserved IVT slots.
const (
	SourcePIT = 0xF0
	SourceKbd = 0xF1
)

// WindowSize is the size of the bus window ConsoleBlock occupies.
const WindowSize = 0x08

// ConsoleBlock groups the PS/2 keyboard port, the UART, and the PIT: three
// tiny registers packed into one contiguous window
// (0x07FE5800..0x07FE5807) in the firmware's address map, grounded on the
// spec's device model rather than split into three overlapping windows.
type ConsoleBlock struct {
	out io.Writer

	kbdQueue []uint16
	uartRX   []byte
	uartOnly bool // --uart: route host keystrokes to UART RX instead of PS/2.

	pitPeriod  uint32
	pitCounter uint32
	pitPending bool

	kbdPending bool
}

// NewConsoleBlock creates the block; out receives raw UART TX bytes
// (typically os.Stdout).
func NewConsoleBlock(out io.Writer, uartOnly bool) *ConsoleBlock {
	return &ConsoleBlock{out: out, uartOnly: uartOnly}
}

// PushKey delivers a host keystroke. keyCode is the low byte; keyUp marks
// a release event. Routed to the UART RX queue instead of PS/2 when the
// block was constructed with uartOnly.
func (c *ConsoleBlock) PushKey(keyCode uint8, keyUp bool) {
	if c.uartOnly {
		c.uartRX = append(c.uartRX, keyCode)
		return
	}
	word := uint16(keyCode)
	if keyUp {
		word |= 0x0100
	}
	c.kbdQueue = append(c.kbdQueue, word)
	c.kbdPending = true
}

// SetPITPeriod sets the PIT period in ticks (the interval register writes
// it); 0 disables the timer. The cdv control register does not feed it.
func (c *ConsoleBlock) SetPITPeriod(period uint32) {
	c.pitPeriod = period
}

// Tick advances the PIT counter.
func (c *ConsoleBlock) Tick() {
	if c.pitPeriod == 0 {
		return
	}
	c.pitCounter++
	if c.pitCounter >= c.pitPeriod {
		c.pitPending = true
	}
}

// PITSource reports the PIT's level-triggered pending state.
func (c *ConsoleBlock) PITSource() bool { return c.pitPending }

// ClearPIT acknowledges and drains the PIT (resets the period counter).
func (c *ConsoleBlock) ClearPIT() {
	c.pitPending = false
	c.pitCounter = 0
}

// KeyboardSource reports the PS/2 queue's level-triggered pending state.
func (c *ConsoleBlock) KeyboardSource() bool { return c.kbdPending }

// ClearKeyboard acknowledges the edge; the source stays asserted while the
// queue is still non-empty (draining happens by reading the data register).
func (c *ConsoleBlock) ClearKeyboard() {
	c.kbdPending = len(c.kbdQueue) > 0
}

func (c *ConsoleBlock) popKey() uint16 {
	if len(c.kbdQueue) == 0 {
		return 0
	}
	word := c.kbdQueue[0]
	c.kbdQueue = c.kbdQueue[1:]
	if len(c.kbdQueue) == 0 {
		c.kbdPending = false
	}
	return word
}

func (c *ConsoleBlock) popUART() uint8 {
	if len(c.uartRX) == 0 {
		return 0
	}
	b := c.uartRX[0]
	c.uartRX = c.uartRX[1:]
	return b
}

// Register offsets within the block, relative to its 0x07FE5800 base.
const (
	offPS2Data = 0x00
	offUARTTX  = 0x02
	offUARTRX  = 0x03
	offPITIval = 0x04
)

func (c *ConsoleBlock) ReadByte(offset uint32) uint8 {
	switch offset {
	case offUARTRX:
		return c.popUART()
	case offPITIval, offPITIval + 1, offPITIval + 2, offPITIval + 3:
		return uint8(c.pitPeriod >> ((offset - offPITIval) * 8))
	default:
		return 0
	}
}

func (c *ConsoleBlock) WriteByte(offset uint32, value uint8) {
	switch offset {
	case offUARTTX:
		if c.out != nil {
			_, _ = c.out.Write([]byte{value})
		}
	default:
		// TX/RX are the only byte-granularity registers; everything else
		// ties off (DeviceError: silently ignored, no trap).
	}
}

func (c *ConsoleBlock) ReadHalf(offset uint32) uint16 {
	switch offset {
	case offPS2Data:
		return c.popKey()
	case offPITIval, offPITIval + 2:
		return uint16(c.pitPeriod >> ((offset - offPITIval) * 8))
	default:
		return 0
	}
}

func (c *ConsoleBlock) WriteHalf(offset uint32, value uint16) {
	// No writable halfword registers in this block; ties off.
}

func (c *ConsoleBlock) ReadWord(offset uint32) uint32 {
	switch offset {
	case offPS2Data:
		return uint32(c.popKey())
	case offPITIval:
		return c.pitPeriod
	default:
		return 0
	}
}

func (c *ConsoleBlock) WriteWord(offset uint32, value uint32) {
	switch offset {
	case offPITIval:
		c.SetPITPeriod(value)
	default:
		// Ties off.
	}
}
