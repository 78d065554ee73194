/*
 * Dioptase - instruction disassembler.
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

// Package disassembler renders a fetched 32-bit Dioptase instruction word
// back into assembly text, for the debugger's "x" command.
package disassembler

import (
	"fmt"

	op "github.com/dioptase-project/dioptase/emu/opcodemap"
)

const (
	tyRRR = 1 + iota // rd, rs1, rs2
	tyRI             // rd, rs1, imm
	tyRImm           // rd, imm
	tyJ              // pc-relative word displacement
	tyM              // rd, rv, ra, disp (fada)
	tyC              // crmv
	tyNone           // no operands
)

type opcode struct {
	name   string
	opType int
}

var opMap = map[uint8]opcode{
	op.OpNop:  {"nop", tyNone},
	op.OpMov:  {"mov", tyRRR},
	op.OpMovi: {"movi", tyRImm},
	op.OpCrmv: {"crmv", tyC},
	op.OpAdpc: {"adpc", tyRImm},

	op.OpAdd: {"add", tyRRR}, op.OpSub: {"sub", tyRRR}, op.OpCmp: {"cmp", tyRRR},
	op.OpAnd: {"and", tyRRR}, op.OpOr: {"or", tyRRR}, op.OpXor: {"xor", tyRRR},
	op.OpLsl: {"lsl", tyRRR}, op.OpLsr: {"lsr", tyRRR}, op.OpRotr: {"rotr", tyRRR},

	op.OpLw: {"lw", tyRI}, op.OpSw: {"sw", tyRI},
	op.OpLwa: {"lwa", tyRI}, op.OpSwa: {"swa", tyRI},
	op.OpLba: {"lba", tyRI}, op.OpSba: {"sba", tyRI},
	op.OpLda: {"lda", tyRI}, op.OpSda: {"sda", tyRI},
	op.OpFada: {"fada", tyM},

	op.OpBz: {"bz", tyJ}, op.OpBnz: {"bnz", tyJ}, op.OpBs: {"bs", tyJ}, op.OpBns: {"bns", tyJ},
	op.OpBc: {"bc", tyJ}, op.OpBnc: {"bnc", tyJ}, op.OpBo: {"bo", tyJ}, op.OpBno: {"bno", tyJ},
	op.OpBl: {"bl", tyJ}, op.OpBge: {"bge", tyJ}, op.OpBle: {"ble", tyJ},
	op.OpBae: {"bae", tyJ}, op.OpBbe: {"bbe", tyJ}, op.OpBr: {"br", tyJ},
	op.OpJmp: {"jmp", tyRI},

	op.OpCall: {"call", tyJ}, op.OpRet: {"ret", tyNone},
	op.OpPush: {"push", tyRImm}, op.OpPop: {"pop", tyRImm},

	op.OpTlbw: {"tlbw", tyRRR}, op.OpTlbr: {"tlbr", tyRRR}, op.OpTlbc: {"tlbc", tyNone},
	op.OpSys: {"sys", tyRImm},
	op.OpRfe: {"rfe", tyNone}, op.OpRfi: {"rfi", tyNone}, op.OpRft: {"rft", tyNone},
	op.OpIpi: {"ipi", tyRI}, op.OpHalt: {"halt", tyNone}, op.OpSleep: {"sleep", tyNone},
}

func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}

// Format renders word as assembly text. Unknown opcodes render as a raw
// ".word" directive, matching the decoder's EXC_INSTR treatment of the
// same input.
func Format(word uint32) string {
	opcode := uint8(word >> 24)
	entry, ok := opMap[opcode]
	if !ok {
		return fmt.Sprintf(".word 0x%08x", word)
	}

	rd := uint8((word >> 19) & 0x1F)
	rs1 := uint8((word >> 14) & 0x1F)
	rs2 := uint8((word >> 9) & 0x1F)
	imm14 := signExtend(word&0x3FFF, 14)
	imm24 := signExtend(word&0xFFFFFF, 24)
	disp9 := signExtend(word&0x1FF, 9)

	switch entry.opType {
	case tyNone:
		return entry.name
	case tyRRR:
		return fmt.Sprintf("%s r%d, r%d, r%d", entry.name, rd, rs1, rs2)
	case tyRI:
		return fmt.Sprintf("%s r%d, %d(r%d)", entry.name, rd, imm14, rs1)
	case tyRImm:
		return fmt.Sprintf("%s r%d, %d", entry.name, rd, imm14)
	case tyJ:
		return fmt.Sprintf("%s %d", entry.name, imm24)
	case tyM:
		return fmt.Sprintf("%s r%d, r%d, r%d, %d", entry.name, rd, rs1, rs2, disp9)
	case tyC:
		cridx := uint8((word >> 14) & 0x1F)
		name := "?"
		if int(cridx) < len(op.ControlRegisterNames) {
			name = op.ControlRegisterNames[cridx]
		}
		if (word>>13)&1 != 0 {
			return fmt.Sprintf("crmv %s, r%d", name, rd)
		}
		return fmt.Sprintf("crmv r%d, %s", rd, name)
	default:
		return fmt.Sprintf(".word 0x%08x", word)
	}
}
