/*
 * Dioptase - multi-core round-robin scheduler.
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

// Package scheduler runs the fixed set of cores in round-robin order on a
// single goroutine, ticks the device fabric once per pass, and fans
// device-latched interrupts (PIT, keyboard, VGA frame) out to every core.
// Unlike the teacher's one-goroutine-per-CPU design, a single-threaded
// emulator has no use for per-core goroutines: cross-core state (the
// mailbox, IPI, shared memory) is easier to reason about as one loop than
// as channel traffic between cores, so the scheduler steps cores in
// sequence rather than running each on its own core.Start() goroutine.
package scheduler

import (
	"github.com/dioptase-project/dioptase/emu/cpu"
	"github.com/dioptase-project/dioptase/emu/mmio"
	"github.com/dioptase-project/dioptase/emu/opcodemap"
	"github.com/dioptase-project/dioptase/emu/vga"
)

// Bus is the subset of *mmio.Bus the scheduler needs to advance devices
// once per pass.
type Bus interface {
	Tick()
}

// Scheduler owns every core plus the shared device fabric and implements
// cpu.Scheduler so cores can route ipi through it without importing this
// package back.
type Scheduler struct {
	cores   []*cpu.Core
	bus     Bus
	console *mmio.ConsoleBlock
	vga     *vga.VGA
}

// New creates a scheduler over an already-attached bus; console and vga
// may be nil, in which case their interrupt sources are not polled
// (runtime.New always supplies both).
func New(bus Bus, console *mmio.ConsoleBlock, vga *vga.VGA) *Scheduler {
	return &Scheduler{bus: bus, console: console, vga: vga}
}

// AddCore registers a core with the scheduler. Cores are stepped in the
// order they were added.
func (s *Scheduler) AddCore(c *cpu.Core) {
	s.cores = append(s.cores, c)
}

// Cores exposes the live core set for the debugger and the loader.
func (s *Scheduler) Cores() []*cpu.Core { return s.cores }

// DeliverIPI implements cpu.Scheduler: it latches the payload into the
// target core's mbi register and raises VecIPI on it. A target id with no
// matching core is silently ignored, matching the bus's treatment of
// addresses with no device.
func (s *Scheduler) DeliverIPI(target uint8, payload uint32) {
	for _, c := range s.cores {
		if c.ID() == target {
			c.SetCReg(opcodemap.CrMBI, payload)
			c.RaiseInterrupt(cpu.VecIPI)
			return
		}
	}
}

// Halted reports whether every core has reached halt. The scheduler stops
// driving the system once this is true; devices keep no independent
// clock.
func (s *Scheduler) Halted() bool {
	for _, c := range s.cores {
		if !c.Halted() {
			return false
		}
	}
	return len(s.cores) > 0
}

// Step advances the system by one round: every core executes exactly one
// instruction (or wakes/stays parked), the device fabric ticks once, and
// any newly latched device interrupt is broadcast to every core's isr.
// Broadcasting PIT to every core follows the "set the PIT bit in every
// core's isr" convention; keyboard and VGA frame-complete follow the same
// broadcast rule for uniformity, since the architecture has no per-core
// device routing table.
func (s *Scheduler) Step() {
	for _, c := range s.cores {
		c.Tick()
	}
	s.bus.Tick()
	s.pollDeviceInterrupts()
}

func (s *Scheduler) pollDeviceInterrupts() {
	if s.console != nil {
		if s.console.PITSource() {
			s.broadcast(cpu.VecPIT)
			s.console.ClearPIT()
		}
		if s.console.KeyboardSource() {
			s.broadcast(cpu.VecKeyboard)
			s.console.ClearKeyboard()
		}
	}
	if s.vga != nil && s.vga.FrameSource() {
		s.broadcast(cpu.VecVGA)
		s.vga.ClearFrame()
	}
}

func (s *Scheduler) broadcast(vector uint8) {
	for _, c := range s.cores {
		c.RaiseInterrupt(vector)
	}
}

// Run steps the system until every core has halted or steps rounds have
// elapsed, whichever comes first; a non-positive steps runs until halt
// with no bound, for interactive/debugger use where the caller controls
// the stopping point externally (e.g. a breakpoint hit).
func Run(s *Scheduler, steps int) int {
	n := 0
	for !s.Halted() {
		s.Step()
		n++
		if steps > 0 && n >= steps {
			break
		}
	}
	return n
}
