/*
 * Dioptase - per-core CPU state, register file, and trap dispatch.
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

// Package cpu implements the per-core instruction interpreter: the
// register file with its r0/r31 special cases, the control-register
// bank, the ALU, the decoder/executor for the opcode set, and the trap
// dispatcher that saves state and vectors through the IVT.
package cpu

import (
	"github.com/dioptase-project/dioptase/emu/mmu"
	"github.com/dioptase-project/dioptase/emu/opcodemap"
)

// Mode is one of the three architecturally visible privilege levels.
type Mode uint8

const (
	ModeUser Mode = iota
	ModeKernel
	ModeInterrupt
)

// Reserved IVT vectors.
const (
	VecSysExit       uint8 = 0x01
	VecExcInstr      uint8 = 0x80
	VecExcPriv       uint8 = 0x81
	VecTLBUserMiss   uint8 = 0x82
	VecTLBKernelMiss uint8 = 0x83
	VecPIT           uint8 = 0xF0
	VecKeyboard      uint8 = 0xF1
	VecVGA           uint8 = 0xF4
	VecIPI           uint8 = 0xF5
)

// ALU condition flag bits, packed into the flg control register.
const (
	FlagZ uint32 = 1 << 0
	FlagN uint32 = 1 << 1
	FlagC uint32 = 1 << 2
	FlagV uint32 = 1 << 3
)

// BootPC is where execution starts: the IVT occupies 0x000..0x3FC, so
// firmware convention places the first instruction at 0x400.
const BootPC uint32 = 0x400

// Bus is the physical-address read/write surface the core needs; it is
// satisfied structurally by *emu/mmio.Bus so this package never imports
// mmio (which would otherwise close the arena's dependency cycle).
type Bus interface {
	ReadByte(addr uint32) uint8
	WriteByte(addr uint32, value uint8)
	ReadHalf(addr uint32) uint16
	WriteHalf(addr uint32, value uint16)
	ReadWord(addr uint32) uint32
	WriteWord(addr uint32, value uint32)
}

// Scheduler is the arena's interrupt-delivery surface. Cores never hold
// a pointer to another core directly; IPI delivery is routed through
// this interface to whatever owns the full core array.
type Scheduler interface {
	DeliverIPI(target uint8, payload uint32)
}

// interruptSources lists device-latched sources in trap-priority order
// (ascending IVT vector); isr/imr reserve one bit per source rather than
// one bit per IVT slot, since slot numbers run past 31.
var interruptSources = []struct {
	vector uint8
	bit    uint32
}{
	{VecPIT, 0},
	{VecKeyboard, 1},
	{VecVGA, 2},
	{VecIPI, 3},
}

// Core is one processor's architectural state. It never references
// another Core or the device set directly: shared state is reached
// through Bus and Scheduler, so N cores plus memory plus devices form an
// arena indexed by id rather than a pointer cycle.
type Core struct {
	id   uint8
	mode Mode
	prevMode Mode

	regs  [32]uint32
	cregs [opcodemap.ControlRegisterCount]uint32

	tlb  *mmu.TLB
	bus  Bus
	sched Scheduler

	halted   bool
	sleeping bool

	pc  uint32
	iPC uint32 // PC of the instruction currently executing; used as epc on synchronous faults.
}

// New creates a core booted in kernel mode at BootPC with pid 0 and an
// empty TLB, matching the fixtures' reset convention (identity-mapped
// physical access until software installs entries or raises pid).
func New(id uint8, bus Bus, tlb *mmu.TLB, sched Scheduler) *Core {
	c := &Core{id: id, bus: bus, tlb: tlb, sched: sched, mode: ModeKernel, pc: BootPC}
	c.cregs[opcodemap.CrCID] = uint32(id)
	return c
}

// ID returns the core's identifier (also readable as cr cid).
func (c *Core) ID() uint8 { return c.id }

// Mode returns the current privilege mode.
func (c *Core) Mode() Mode { return c.mode }

// PC returns the program counter.
func (c *Core) PC() uint32 { return c.pc }

// SetPC overrides the program counter; used by the loader and debugger.
func (c *Core) SetPC(pc uint32) { c.pc = pc }

// Halted reports whether the core has reached mode=halt.
func (c *Core) Halted() bool { return c.halted }

// Sleeping reports whether the core is parked waiting for an interrupt.
func (c *Core) Sleeping() bool { return c.sleeping }

// GPR returns general register i (0..31), resolving the r31 alias for
// the current mode. Used by the debugger's "info regs".
func (c *Core) GPR(i uint8) uint32 { return c.readGPR(i) }

// SetGPR writes general register i, resolving the r31 alias. Used by
// the debugger's "set reg".
func (c *Core) SetGPR(i uint8, v uint32) { c.writeGPR(i, v) }

// CReg returns control register index i by cr-index (see opcodemap.Cr*).
func (c *Core) CReg(i uint8) uint32 {
	if int(i) >= len(c.cregs) {
		return 0
	}
	return c.cregs[i]
}

// SetCReg writes control register index i directly, bypassing any
// privilege check (the debugger operates outside the privilege model).
func (c *Core) SetCReg(i uint8, v uint32) {
	if int(i) >= len(c.cregs) {
		return
	}
	c.cregs[i] = v
}

// TLB exposes the core's TLB for the debugger's "info tlb".
func (c *Core) TLB() *mmu.TLB { return c.tlb }

// readGPR implements r0-reads-zero and the mode-dependent r31 alias.
func (c *Core) readGPR(i uint8) uint32 {
	switch {
	case i == 0:
		return 0
	case i == 31:
		return c.cregs[c.spAlias()]
	default:
		return c.regs[i]
	}
}

// writeGPR implements r0-writes-discarded and the mode-dependent r31
// alias. Control-register-addressed writes (crmv) bypass this entirely.
func (c *Core) writeGPR(i uint8, v uint32) {
	switch {
	case i == 0:
		return
	case i == 31:
		c.cregs[c.spAlias()] = v
	default:
		c.regs[i] = v
	}
}

func (c *Core) spAlias() uint8 {
	switch c.mode {
	case ModeUser:
		return opcodemap.CrUSP
	case ModeInterrupt:
		return opcodemap.CrISP
	default:
		return opcodemap.CrKSP
	}
}

// RaiseInterrupt ORs a device source's pending bit into isr; it
// implements emu/device.InterruptSink's per-core half (the broadcast to
// every core, as PIT requires, is the scheduler's job, calling this once
// per core).
func (c *Core) RaiseInterrupt(source uint8) {
	for _, s := range interruptSources {
		if s.vector == source {
			c.cregs[opcodemap.CrISR] |= 1 << s.bit
			return
		}
	}
}

// pendingInterrupt returns the highest-priority unmasked, pending source.
func (c *Core) pendingInterrupt() (uint8, bool) {
	if c.cregs[opcodemap.CrIMR]&0x80000000 == 0 {
		return 0, false
	}
	for _, s := range interruptSources {
		if c.cregs[opcodemap.CrISR]&(1<<s.bit) != 0 {
			return s.vector, true
		}
	}
	return 0, false
}

// enterTrap performs the atomic trap-entry sequence: epc/efg/mode_prev
// saved, mode switched, pc vectored through the IVT. async selects
// whether epc receives the already-advanced pc (interrupts) or the
// frozen faulting pc (synchronous exceptions), per P4.
func (c *Core) enterTrap(vector uint8, newMode Mode, async bool) {
	if async {
		c.cregs[opcodemap.CrEPC] = c.pc
	} else {
		c.cregs[opcodemap.CrEPC] = c.iPC
	}
	c.cregs[opcodemap.CrEFG] = c.cregs[opcodemap.CrFLG]
	c.prevMode = c.mode
	c.mode = newMode
	c.pc = c.bus.ReadWord(uint32(vector) * 4)
}

// Tick advances the core by exactly one instruction, per the execution
// contract in the decoder/executor design.
func (c *Core) Tick() {
	if c.halted {
		return
	}
	if c.sleeping {
		if vector, ok := c.pendingInterrupt(); ok {
			c.sleeping = false
			c.enterTrap(vector, ModeInterrupt, true)
		}
		return
	}

	c.stepOne()

	if !c.halted && !c.sleeping {
		if vector, ok := c.pendingInterrupt(); ok {
			c.enterTrap(vector, ModeInterrupt, true)
		}
	}
}

func (c *Core) translate(va uint32, access mmu.Access) (uint32, bool) {
	pa, ok := c.tlb.Translate(uint8(c.cregs[opcodemap.CrPID]), va, access, c.mode == ModeUser)
	if !ok {
		c.cregs[opcodemap.CrTLB] = va
		vector := VecTLBUserMiss
		if c.mode != ModeUser {
			vector = VecTLBKernelMiss
		}
		c.enterTrap(vector, ModeKernel, false)
	}
	return pa, ok
}

func (c *Core) stepOne() {
	c.iPC = c.pc

	pa, ok := c.translate(c.pc, mmu.AccessFetch)
	if !ok {
		return
	}
	word := c.bus.ReadWord(pa)
	op := uint8(word >> 24)

	if _, known := opcodemap.Mnemonic[op]; !known {
		c.enterTrap(VecExcInstr, ModeKernel, false)
		return
	}
	if opcodemap.Privileged(op) && c.mode == ModeUser {
		c.enterTrap(VecExcPriv, ModeKernel, false)
		return
	}

	c.pc = c.iPC + 4
	c.execute(op, word)
}
