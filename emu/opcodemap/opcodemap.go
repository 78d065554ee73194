/*
 * Dioptase - instruction opcodes for assembly and disassembly.
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

// Package opcodemap declares the Dioptase opcode byte values and their
// mnemonics, shared by the decoder, the disassembler, and the debugger.
package opcodemap

const (
	// Data move.
	OpNop  = 0x00
	OpMov  = 0x01 // rd = rs1 (R-type).
	OpMovi = 0x02 // rd = sign-extended imm14 (I-type); there is no zero-extending form.
	OpCrmv = 0x03 // control-register move, bypasses the r31 alias.
	OpAdpc = 0x04 // rd = pc + signed imm14 byte offset (I-type).

	// Arithmetic / logic.
	OpAdd  = 0x10
	OpSub  = 0x11
	OpCmp  = 0x12 // sub, discard result, update flags only.
	OpAnd  = 0x13
	OpOr   = 0x14
	OpXor  = 0x15
	OpLsl  = 0x16
	OpLsr  = 0x17
	OpRotr = 0x18

	// Memory.
	OpLw  = 0x20 // word, PC+disp.
	OpSw  = 0x21
	OpLwa = 0x22 // word, register-indirect + signed halfword disp.
	OpSwa = 0x23
	OpLba = 0x24 // byte, register-indirect.
	OpSba = 0x25
	OpLda = 0x26 // halfword, register-indirect.
	OpSda = 0x27
	OpFada = 0x28 // atomic fetch-and-add.

	// Branches (PC-relative, J-type).
	OpBz   = 0x30
	OpBnz  = 0x31
	OpBs   = 0x32
	OpBns  = 0x33
	OpBc   = 0x34
	OpBnc  = 0x35
	OpBo   = 0x36
	OpBno  = 0x37
	OpBl   = 0x38
	OpBge  = 0x39
	OpBle  = 0x3A
	OpBae  = 0x3B
	OpBbe  = 0x3C
	OpBr   = 0x3D // Unconditional, PC-relative.
	OpJmp  = 0x3E // Unconditional, register-indirect absolute.

	// Control transfer.
	OpCall = 0x40
	OpRet  = 0x41
	OpPush = 0x42
	OpPop  = 0x43

	// Privileged.
	OpTlbw = 0x50
	OpTlbr = 0x51
	OpTlbc = 0x52
	OpSys  = 0x53
	OpRfe  = 0x54
	OpRfi  = 0x55
	OpRft  = 0x56
	OpIpi  = 0x57
	OpHalt = 0x58
	OpSleep = 0x59
)

// Privileged reports whether the opcode traps EXC_PRIV when issued in
// user mode.
func Privileged(op uint8) bool {
	switch op {
	case OpTlbw, OpTlbr, OpTlbc, OpCrmv, OpSys, OpRfe, OpRfi, OpRft, OpIpi, OpHalt, OpSleep:
		return true
	default:
		return false
	}
}

// Mnemonic maps every defined opcode to its assembly mnemonic; used by
// the disassembler and by decode-error messages.
var Mnemonic = map[uint8]string{
	OpNop: "nop", OpMov: "mov", OpMovi: "movi", OpCrmv: "crmv", OpAdpc: "adpc",
	OpAdd: "add", OpSub: "sub", OpCmp: "cmp", OpAnd: "and", OpOr: "or",
	OpXor: "xor", OpLsl: "lsl", OpLsr: "lsr", OpRotr: "rotr",
	OpLw: "lw", OpSw: "sw", OpLwa: "lwa", OpSwa: "swa",
	OpLba: "lba", OpSba: "sba", OpLda: "lda", OpSda: "sda", OpFada: "fada",
	OpBz: "bz", OpBnz: "bnz", OpBs: "bs", OpBns: "bns", OpBc: "bc", OpBnc: "bnc",
	OpBo: "bo", OpBno: "bno", OpBl: "bl", OpBge: "bge", OpBle: "ble",
	OpBae: "bae", OpBbe: "bbe", OpBr: "br", OpJmp: "jmp",
	OpCall: "call", OpRet: "ret", OpPush: "push", OpPop: "pop",
	OpTlbw: "tlbw", OpTlbr: "tlbr", OpTlbc: "tlbc", OpSys: "sys",
	OpRfe: "rfe", OpRfi: "rfi", OpRft: "rft", OpIpi: "ipi",
	OpHalt: "halt", OpSleep: "sleep",
}

// ControlRegister names index into the control-register file used by
// crmv and referenced by the debugger's "info cregs"/"set reg" commands.
const (
	CrPID = iota
	CrIMR
	CrISR
	CrEPC
	CrEFG
	CrKSP
	CrISP
	CrUSP
	CrTLB
	CrMBI
	CrMBO
	CrCDV
	CrCID
	CrFLG
	crCount
)

// ControlRegisterNames maps cr-index to its mnemonic name.
var ControlRegisterNames = [crCount]string{
	CrPID: "pid", CrIMR: "imr", CrISR: "isr", CrEPC: "epc", CrEFG: "efg",
	CrKSP: "ksp", CrISP: "isp", CrUSP: "usp", CrTLB: "tlb", CrMBI: "mbi",
	CrMBO: "mbo", CrCDV: "cdv", CrCID: "cid", CrFLG: "flg",
}

// ControlRegisterCount is the number of named control registers.
const ControlRegisterCount = crCount

// ControlRegisterIndex looks up a control register by name (as accepted
// by crmv's assembly syntax and the debugger's "info"/"set" commands),
// returning -1 if name does not name one.
func ControlRegisterIndex(name string) int {
	for i, n := range ControlRegisterNames {
		if n == name {
			return i
		}
	}
	return -1
}
