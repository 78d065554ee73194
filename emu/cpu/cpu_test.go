package cpu

import (
	"testing"

	"github.com/dioptase-project/dioptase/emu/memory"
	"github.com/dioptase-project/dioptase/emu/mmu"
	"github.com/dioptase-project/dioptase/emu/opcodemap"
)

type noopScheduler struct {
	delivered []uint8
	payload   uint32
}

func (s *noopScheduler) DeliverIPI(target uint8, payload uint32) {
	s.delivered = append(s.delivered, target)
	s.payload = payload
}

func encodeRRR(op, rd, rs1, rs2 uint8) uint32 {
	return uint32(op)<<24 | uint32(rd)<<19 | uint32(rs1)<<14 | uint32(rs2)<<9
}

func encodeRI(op, rd, rs1 uint8, imm int32) uint32 {
	return uint32(op)<<24 | uint32(rd)<<19 | uint32(rs1)<<14 | (uint32(imm) & 0x3FFF)
}

func encodeJ(op uint8, imm int32) uint32 {
	return uint32(op)<<24 | (uint32(imm) & 0xFFFFFF)
}

func encodeM(op, rd, rv, ra uint8, disp int32) uint32 {
	return uint32(op)<<24 | uint32(rd)<<19 | uint32(rv)<<14 | uint32(ra)<<9 | (uint32(disp) & 0x1FF)
}

func encodeCrmv(gpr, cridx uint8, writeToCR bool) uint32 {
	v := uint32(opcodemap.OpCrmv)<<24 | uint32(gpr)<<19 | uint32(cridx)<<14
	if writeToCR {
		v |= 1 << 13
	}
	return v
}

func newTestCore() (*Core, *memory.Memory) {
	mem := memory.New(0x10000)
	tlb := mmu.New()
	core := New(0, mem, tlb, &noopScheduler{})
	return core, mem
}

func load(mem *memory.Memory, pc uint32, words ...uint32) {
	for i, w := range words {
		mem.WriteWord(pc+uint32(i*4), w)
	}
}

func TestR0AlwaysReadsZero(t *testing.T) {
	core, _ := newTestCore()
	core.writeGPR(0, 0xDEADBEEF)
	if got := core.readGPR(0); got != 0 {
		t.Fatalf("r0 = %#x, want 0", got)
	}
}

func TestAddSetsCarryOnUnsignedOverflow(t *testing.T) {
	core, mem := newTestCore()
	core.SetPC(BootPC)
	core.writeGPR(1, 0x80000000)
	load(mem, BootPC,
		encodeRRR(opcodemap.OpAdd, 2, 1, 1), // r2 = r1 + r1
	)
	core.Tick()
	if core.cregs[opcodemap.CrFLG]&FlagC == 0 {
		t.Fatalf("C flag not set for 0x80000000+0x80000000")
	}
	if core.GPR(2) != 0 {
		t.Fatalf("r2 = %#x, want 0", core.GPR(2))
	}
}

func TestBCBranchTakenOnCarryMatchesS2(t *testing.T) {
	core, mem := newTestCore()
	core.SetPC(BootPC)
	core.writeGPR(1, 0x80000000)
	load(mem, BootPC,
		encodeRRR(opcodemap.OpAdd, 0, 1, 1),   // add r0,r1,r1 -> discard result, set C
		encodeJ(opcodemap.OpBc, 2),            // bc +2 words -> skip the movi
		encodeRI(opcodemap.OpMovi, 1, 0, 0xFF), // skipped
		encodeRI(opcodemap.OpMovi, 1, 0, 0xF),
	)
	core.Tick() // add
	core.Tick() // bc, taken, jumps to BootPC+12
	core.Tick() // movi r1,0xF
	if core.GPR(1) != 0xF {
		t.Fatalf("r1 = %#x, want 0xF", core.GPR(1))
	}
}

func TestUserModePrivilegedOpTrapsEXCPRIV(t *testing.T) {
	core, mem := newTestCore()
	core.mode = ModeUser
	core.SetPC(BootPC)
	load(mem, BootPC, encodeCrmv(1, opcodemap.CrPID, true))
	mem.WriteWord(uint32(VecExcPriv)*4, 0x1000)

	before := core.cregs[opcodemap.CrPID]
	core.Tick()

	if core.mode != ModeKernel {
		t.Fatalf("mode = %v, want kernel after EXC_PRIV", core.mode)
	}
	if core.pc != 0x1000 {
		t.Fatalf("pc = %#x, want 0x1000", core.pc)
	}
	if core.cregs[opcodemap.CrEPC] != BootPC {
		t.Fatalf("epc = %#x, want faulting pc %#x (B2)", core.cregs[opcodemap.CrEPC], BootPC)
	}
	if core.cregs[opcodemap.CrPID] != before {
		t.Fatalf("cr1 (pid) was modified despite EXC_PRIV (B2)")
	}
}

func TestKernelModeTLBMissWritesFaultingVA(t *testing.T) {
	core, mem := newTestCore()
	core.mode = ModeKernel
	core.cregs[opcodemap.CrPID] = 7 // Nonzero pid disables identity mapping.
	// Map the code page so only the load misses.
	core.tlb.Insert(7, BootPC, uint32(mmu.FlagX))
	core.SetPC(BootPC)
	load(mem, BootPC, encodeRI(opcodemap.OpLwa, 2, 1, 0)) // lwa r2, 0(r1)
	core.writeGPR(1, 0x00055000)
	mem.WriteWord(uint32(VecTLBKernelMiss)*4, 0x2000)

	core.Tick()

	if core.mode != ModeKernel {
		t.Fatalf("mode changed unexpectedly: %v", core.mode)
	}
	if core.pc != 0x2000 {
		t.Fatalf("pc = %#x, want TLB_KMISS vector target 0x2000", core.pc)
	}
	if core.cregs[opcodemap.CrTLB] != 0x00055000 {
		t.Fatalf("cr tlb = %#x, want faulting VA 0x55000 (B3)", core.cregs[opcodemap.CrTLB])
	}
}

func TestRfeRestoresPCNotFlags(t *testing.T) {
	core, mem := newTestCore()
	core.mode = ModeKernel
	core.cregs[opcodemap.CrEPC] = 0x900
	core.cregs[opcodemap.CrFLG] = FlagZ
	load(mem, 0, encodeJ(opcodemap.OpRfe, 0))
	core.SetPC(0)

	core.Tick()

	if core.mode != ModeUser {
		t.Fatalf("mode = %v, want user after rfe", core.mode)
	}
	if core.pc != 0x900 {
		t.Fatalf("pc = %#x, want epc 0x900", core.pc)
	}
	if core.cregs[opcodemap.CrFLG]&FlagZ == 0 {
		t.Fatalf("rfe must not restore flg (B5): flags were altered")
	}
}

func TestTLBWriteThenReadRoundTrips(t *testing.T) {
	core, mem := newTestCore()
	core.mode = ModeKernel
	core.SetPC(BootPC)
	core.tlb.Insert(0, BootPC, uint32(mmu.FlagX)) // Keep fetches mapped once the TLB is non-empty.
	core.writeGPR(1, 0x00400000|uint32(mmu.FlagR|mmu.FlagW|mmu.FlagX|mmu.FlagU))
	core.writeGPR(2, 0x00001000)
	load(mem, BootPC,
		encodeRRR(opcodemap.OpTlbw, 1, 0, 2), // tlbw r1(rE), r2(rV)
		encodeRRR(opcodemap.OpTlbr, 3, 0, 2), // tlbr r3, r2
	)
	core.Tick()
	core.Tick()
	if core.GPR(3) != core.GPR(1) {
		t.Fatalf("tlbr = %#x, want exact word written %#x (R1)", core.GPR(3), core.GPR(1))
	}
}

func TestPushPopRestoresRegisterAndSP(t *testing.T) {
	core, mem := newTestCore()
	core.mode = ModeKernel
	core.cregs[opcodemap.CrKSP] = 0x3000
	core.SetPC(BootPC)
	core.writeGPR(5, 0x12345678)
	load(mem, BootPC,
		encodeRI(opcodemap.OpPush, 5, 0, 0),
		encodeRI(opcodemap.OpPop, 6, 0, 0),
	)
	sp0 := core.readGPR(31)
	core.Tick()
	core.Tick()
	if core.GPR(6) != 0x12345678 {
		t.Fatalf("popped value = %#x, want 0x12345678 (R3)", core.GPR(6))
	}
	if core.readGPR(31) != sp0 {
		t.Fatalf("sp after push+pop = %#x, want restored %#x (R3)", core.readGPR(31), sp0)
	}
}

func TestFadaAtomicFetchAndAdd(t *testing.T) {
	core, mem := newTestCore()
	core.mode = ModeKernel
	core.SetPC(BootPC)
	mem.WriteWord(0x1000, 5)
	core.writeGPR(1, 1) // addend
	core.writeGPR(2, 0x1000) // base
	load(mem, BootPC, encodeM(opcodemap.OpFada, 3, 1, 2, 0))
	core.Tick()
	if core.GPR(3) != 5 {
		t.Fatalf("fada returned old value %#x, want 5", core.GPR(3))
	}
	if mem.ReadWord(0x1000) != 6 {
		t.Fatalf("memory after fada = %d, want 6", mem.ReadWord(0x1000))
	}
}

func TestHaltStopsExecutionPermanently(t *testing.T) {
	core, mem := newTestCore()
	core.mode = ModeKernel
	core.SetPC(BootPC)
	load(mem, BootPC, encodeJ(opcodemap.OpHalt, 0), encodeRI(opcodemap.OpMovi, 1, 0, 1))
	core.Tick()
	if !core.Halted() {
		t.Fatalf("Halted() = false after halt instruction")
	}
	pcBefore := core.pc
	core.Tick()
	if core.pc != pcBefore || core.GPR(1) != 0 {
		t.Fatalf("halted core must not execute further instructions")
	}
}

func TestSleepWakesOnUnmaskedInterrupt(t *testing.T) {
	core, mem := newTestCore()
	core.mode = ModeKernel
	core.SetPC(BootPC)
	mem.WriteWord(uint32(VecPIT)*4, 0x4000)
	load(mem, BootPC, encodeJ(opcodemap.OpSleep, 0))
	core.Tick()
	if !core.Sleeping() {
		t.Fatalf("Sleeping() = false after sleep instruction")
	}

	core.cregs[opcodemap.CrIMR] = 0x80000000 // Global enable.
	core.RaiseInterrupt(VecPIT)
	core.Tick()

	if core.Sleeping() {
		t.Fatalf("core should have woken on the pending PIT interrupt")
	}
	if core.pc != 0x4000 {
		t.Fatalf("pc = %#x, want PIT vector target 0x4000", core.pc)
	}
	if core.mode != ModeInterrupt {
		t.Fatalf("mode = %v, want interrupt", core.mode)
	}
}

func TestIPIInstructionCallsScheduler(t *testing.T) {
	core, mem := newTestCore()
	core.mode = ModeKernel
	core.SetPC(BootPC)
	sched := &noopScheduler{}
	core.sched = sched
	core.cregs[opcodemap.CrMBO] = 0xCAFE
	core.writeGPR(1, 1) // target core id
	load(mem, BootPC, encodeRI(opcodemap.OpIpi, 0, 1, 0))
	core.Tick()
	if len(sched.delivered) != 1 || sched.delivered[0] != 1 {
		t.Fatalf("DeliverIPI target = %v, want [1]", sched.delivered)
	}
	if sched.payload != 0xCAFE {
		t.Fatalf("DeliverIPI payload = %#x, want 0xCAFE", sched.payload)
	}
}

func TestUnknownOpcodeRaisesEXCINSTR(t *testing.T) {
	core, mem := newTestCore()
	core.mode = ModeKernel
	core.SetPC(BootPC)
	mem.WriteWord(uint32(VecExcInstr)*4, 0x5000)
	load(mem, BootPC, uint32(0xEE)<<24) // Opcode 0xEE is not defined.
	core.Tick()
	if core.pc != 0x5000 {
		t.Fatalf("pc = %#x, want EXC_INSTR vector 0x5000", core.pc)
	}
}
