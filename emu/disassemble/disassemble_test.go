package disassembler

import (
	"testing"

	op "github.com/dioptase-project/dioptase/emu/opcodemap"
)

func encodeRRR(opcode, rd, rs1, rs2 uint8) uint32 {
	return uint32(opcode)<<24 | uint32(rd)<<19 | uint32(rs1)<<14 | uint32(rs2)<<9
}

func encodeRI(opcode, rd, rs1 uint8, imm int32) uint32 {
	return uint32(opcode)<<24 | uint32(rd)<<19 | uint32(rs1)<<14 | (uint32(imm) & 0x3FFF)
}

func TestFormatRRRInstruction(t *testing.T) {
	got := Format(encodeRRR(op.OpAdd, 2, 1, 1))
	want := "add r2, r1, r1"
	if got != want {
		t.Fatalf("Format() = %q, want %q", got, want)
	}
}

func TestFormatRIInstructionWithNegativeDisplacement(t *testing.T) {
	got := Format(encodeRI(op.OpLwa, 3, 4, -8))
	want := "lwa r3, -8(r4)"
	if got != want {
		t.Fatalf("Format() = %q, want %q", got, want)
	}
}

func TestFormatBranchShowsWordDisplacement(t *testing.T) {
	got := Format(uint32(op.OpBc)<<24 | 2)
	want := "bc 2"
	if got != want {
		t.Fatalf("Format() = %q, want %q", got, want)
	}
}

func TestFormatNoOperandInstruction(t *testing.T) {
	if got := Format(uint32(op.OpHalt) << 24); got != "halt" {
		t.Fatalf("Format() = %q, want %q", got, "halt")
	}
}

func TestFormatCrmvBothDirections(t *testing.T) {
	toReg := uint32(op.OpCrmv)<<24 | uint32(5)<<19 | uint32(op.CrPID)<<14
	if got, want := Format(toReg), "crmv r5, pid"; got != want {
		t.Fatalf("Format() = %q, want %q", got, want)
	}
	toCR := toReg | (1 << 13)
	if got, want := Format(toCR), "crmv pid, r5"; got != want {
		t.Fatalf("Format() = %q, want %q", got, want)
	}
}

func TestFormatFadaInstruction(t *testing.T) {
	word := uint32(op.OpFada)<<24 | uint32(3)<<19 | uint32(1)<<14 | uint32(2)<<9
	want := "fada r3, r1, r2, 0"
	if got := Format(word); got != want {
		t.Fatalf("Format() = %q, want %q", got, want)
	}
}

func TestFormatUnknownOpcodeRendersWordDirective(t *testing.T) {
	got := Format(0xEE000000)
	want := ".word 0xee000000"
	if got != want {
		t.Fatalf("Format() = %q, want %q", got, want)
	}
}
