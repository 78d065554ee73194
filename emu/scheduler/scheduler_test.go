package scheduler

import (
	"bytes"
	"testing"

	"github.com/dioptase-project/dioptase/emu/cpu"
	"github.com/dioptase-project/dioptase/emu/memory"
	"github.com/dioptase-project/dioptase/emu/mmio"
	"github.com/dioptase-project/dioptase/emu/mmu"
	"github.com/dioptase-project/dioptase/emu/opcodemap"
	"github.com/dioptase-project/dioptase/emu/vga"
)

func newSystem(numCores int) (*Scheduler, *memory.Memory, *mmio.ConsoleBlock, *vga.VGA) {
	mem := memory.New(0x20000)
	bus := mmio.New(mem)
	console := mmio.NewConsoleBlock(&bytes.Buffer{}, false)
	vgaDev := vga.New(nil)
	bus.Attach(0x07FE5800, mmio.WindowSize, console)
	bus.Attach(0x07FE5B40, vga.ControlWindowSize, vgaDev.ControlWindow())

	sched := New(bus, console, vgaDev)
	for i := 0; i < numCores; i++ {
		tlb := mmu.New()
		sched.AddCore(cpu.New(uint8(i), bus, tlb, sched))
	}
	return sched, mem, console, vgaDev
}

func loadHalt(mem *memory.Memory, pc uint32) {
	mem.WriteWord(pc, uint32(opcodemap.OpHalt)<<24)
}

func TestStepHaltsAllCoresEventually(t *testing.T) {
	sched, mem, _, _ := newSystem(2)
	for _, c := range sched.Cores() {
		loadHalt(mem, c.PC())
	}
	if sched.Halted() {
		t.Fatalf("Halted() = true before any step")
	}
	n := Run(sched, 100)
	if !sched.Halted() {
		t.Fatalf("system did not halt within %d steps", n)
	}
}

func TestDeliverIPISetsMailboxAndRaisesVector(t *testing.T) {
	sched, mem, _, _ := newSystem(2)
	for _, c := range sched.Cores() {
		// Halt one word later: a core that has halted takes no interrupts.
		loadHalt(mem, c.PC()+4)
	}
	target := sched.Cores()[1]
	mem.WriteWord(uint32(cpu.VecIPI)*4, 0x1234)
	target.SetCReg(opcodemap.CrIMR, 0x80000000)

	sched.DeliverIPI(1, 0xAAAA)

	if target.CReg(opcodemap.CrMBI) != 0xAAAA {
		t.Fatalf("mbi = %#x, want 0xAAAA", target.CReg(opcodemap.CrMBI))
	}
	target.Tick()
	if target.PC() != 0x1234 {
		t.Fatalf("pc = %#x, want IPI vector 0x1234", target.PC())
	}
}

func TestDeliverIPIToUnknownTargetIsIgnored(t *testing.T) {
	sched, mem, _, _ := newSystem(1)
	for _, c := range sched.Cores() {
		loadHalt(mem, c.PC())
	}
	sched.DeliverIPI(99, 0x1)
}

func TestPITInterruptBroadcastsToEveryCore(t *testing.T) {
	sched, mem, console, _ := newSystem(2)
	for _, c := range sched.Cores() {
		// Halt after the two nops the steps below execute: a halted core
		// takes no interrupts.
		loadHalt(mem, c.PC()+8)
		mem.WriteWord(uint32(cpu.VecPIT)*4, 0x5000)
		c.SetCReg(opcodemap.CrIMR, 0x80000000)
	}
	console.SetPITPeriod(1)

	sched.Step() // The PIT latches after the cores tick.
	sched.Step() // Each core runs one instruction, then takes the PIT trap.

	for _, c := range sched.Cores() {
		if c.PC() != 0x5000 {
			t.Fatalf("core %d pc = %#x, want PIT vector 0x5000", c.ID(), c.PC())
		}
	}
}
