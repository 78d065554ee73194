/*
 * Dioptase - instruction decode and execute.
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

package cpu

import (
	"github.com/dioptase-project/dioptase/emu/mmu"
	"github.com/dioptase-project/dioptase/emu/opcodemap"
)

// Field extraction for the four instruction encodings. Opcode occupies
// bits [31:24] uniformly; the remaining 24 bits are sliced differently
// per family:
//
//	R-type (arithmetic/logic, mov, tlb ops, ipi): rd[23:19] rs1[18:14] rs2[13:9]
//	I-type (movi, adpc, loads/stores, jmp, sys):  rd[23:19] rs1[18:14] imm14[13:0]
//	J-type (branches, br, call):                  imm24[23:0], word-scaled
//	M-type (fada only):                           rd[23:19] rv[18:14] ra[13:9] disp9[8:0]
//	C-type (crmv):                                gpr[23:19] cridx[18:14] dir[13]
func fieldRD(word uint32) uint8  { return uint8((word >> 19) & 0x1F) }
func fieldRS1(word uint32) uint8 { return uint8((word >> 14) & 0x1F) }
func fieldRS2(word uint32) uint8 { return uint8((word >> 9) & 0x1F) }
func fieldRA(word uint32) uint8  { return uint8((word >> 9) & 0x1F) }

func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}

func fieldImm14(word uint32) int32 { return signExtend(word&0x3FFF, 14) }
func fieldImm24(word uint32) int32 { return signExtend(word&0xFFFFFF, 24) }
func fieldDisp9(word uint32) int32 { return signExtend(word&0x1FF, 9) }
func fieldCRIdx(word uint32) uint8 { return uint8((word >> 14) & 0x1F) }
func fieldDir(word uint32) bool    { return (word>>13)&1 != 0 }

// aluAdd computes result and flags for an add per the ISA's exact
// definitions: C is the carry out of bit 31 treating operands as
// unsigned; V is the signed overflow (both operands same sign, result
// differs).
func aluAdd(a, b uint32) (result uint32, flags uint32) {
	sum := uint64(a) + uint64(b)
	result = uint32(sum)
	if sum > 0xFFFFFFFF {
		flags |= FlagC
	}
	if (a^result)&(b^result)&0x80000000 != 0 {
		flags |= FlagV
	}
	flags |= zn(result)
	return
}

// aluSub computes result and flags for a subtract: C is NOT borrow; V is
// signed overflow via XOR of carry into/out of bit 31 (equivalently
// (a^b)&(a^result) on the sign bit).
func aluSub(a, b uint32) (result uint32, flags uint32) {
	result = a - b
	if a >= b {
		flags |= FlagC
	}
	if (a^b)&(a^result)&0x80000000 != 0 {
		flags |= FlagV
	}
	flags |= zn(result)
	return
}

func zn(result uint32) uint32 {
	var flags uint32
	if result == 0 {
		flags |= FlagZ
	}
	if result&0x80000000 != 0 {
		flags |= FlagN
	}
	return flags
}

func (c *Core) setFlags(flags uint32) {
	c.cregs[opcodemap.CrFLG] = flags
}

// execute dispatches a decoded instruction. pc has already been advanced
// to iPC+4; branch/jump/call handlers override it for taken control flow.
func (c *Core) execute(op uint8, word uint32) {
	switch op {
	case opcodemap.OpNop:

	case opcodemap.OpMov:
		c.writeGPR(fieldRD(word), c.readGPR(fieldRS1(word)))
	case opcodemap.OpMovi:
		c.writeGPR(fieldRD(word), uint32(fieldImm14(word)))
	case opcodemap.OpCrmv:
		c.execCrmv(word)
	case opcodemap.OpAdpc:
		c.writeGPR(fieldRD(word), uint32(int64(c.iPC)+int64(fieldImm14(word))))

	case opcodemap.OpAdd:
		res, fl := aluAdd(c.readGPR(fieldRS1(word)), c.readGPR(fieldRS2(word)))
		c.setFlags(fl)
		c.writeGPR(fieldRD(word), res)
	case opcodemap.OpSub:
		res, fl := aluSub(c.readGPR(fieldRS1(word)), c.readGPR(fieldRS2(word)))
		c.setFlags(fl)
		c.writeGPR(fieldRD(word), res)
	case opcodemap.OpCmp:
		_, fl := aluSub(c.readGPR(fieldRS1(word)), c.readGPR(fieldRS2(word)))
		c.setFlags(fl)
	case opcodemap.OpAnd:
		res := c.readGPR(fieldRS1(word)) & c.readGPR(fieldRS2(word))
		c.setFlags(zn(res))
		c.writeGPR(fieldRD(word), res)
	case opcodemap.OpOr:
		res := c.readGPR(fieldRS1(word)) | c.readGPR(fieldRS2(word))
		c.setFlags(zn(res))
		c.writeGPR(fieldRD(word), res)
	case opcodemap.OpXor:
		res := c.readGPR(fieldRS1(word)) ^ c.readGPR(fieldRS2(word))
		c.setFlags(zn(res))
		c.writeGPR(fieldRD(word), res)
	case opcodemap.OpLsl:
		shamt := c.readGPR(fieldRS2(word)) & 0x1F
		res := c.readGPR(fieldRS1(word)) << shamt
		c.setFlags(zn(res))
		c.writeGPR(fieldRD(word), res)
	case opcodemap.OpLsr:
		shamt := c.readGPR(fieldRS2(word)) & 0x1F
		res := c.readGPR(fieldRS1(word)) >> shamt
		c.setFlags(zn(res))
		c.writeGPR(fieldRD(word), res)
	case opcodemap.OpRotr:
		shamt := c.readGPR(fieldRS2(word)) & 0x1F
		v := c.readGPR(fieldRS1(word))
		res := (v >> shamt) | (v << (32 - shamt))
		if shamt == 0 {
			res = v
		}
		c.setFlags(zn(res))
		c.writeGPR(fieldRD(word), res)

	case opcodemap.OpLw:
		c.execLoad(word, 4, fieldImm14(word), c.iPC)
	case opcodemap.OpSw:
		c.execStore(word, 4, fieldImm14(word), c.iPC)
	case opcodemap.OpLwa:
		c.execLoad(word, 4, fieldImm14(word), c.readGPR(fieldRS1(word)))
	case opcodemap.OpSwa:
		c.execStore(word, 4, fieldImm14(word), c.readGPR(fieldRS1(word)))
	case opcodemap.OpLba:
		c.execLoad(word, 1, fieldImm14(word), c.readGPR(fieldRS1(word)))
	case opcodemap.OpSba:
		c.execStore(word, 1, fieldImm14(word), c.readGPR(fieldRS1(word)))
	case opcodemap.OpLda:
		c.execLoad(word, 2, fieldImm14(word), c.readGPR(fieldRS1(word)))
	case opcodemap.OpSda:
		c.execStore(word, 2, fieldImm14(word), c.readGPR(fieldRS1(word)))
	case opcodemap.OpFada:
		c.execFada(word)

	case opcodemap.OpBz:
		c.branch(word, c.cregs[opcodemap.CrFLG]&FlagZ != 0)
	case opcodemap.OpBnz:
		c.branch(word, c.cregs[opcodemap.CrFLG]&FlagZ == 0)
	case opcodemap.OpBs:
		c.branch(word, c.cregs[opcodemap.CrFLG]&FlagN != 0)
	case opcodemap.OpBns:
		c.branch(word, c.cregs[opcodemap.CrFLG]&FlagN == 0)
	case opcodemap.OpBc:
		c.branch(word, c.cregs[opcodemap.CrFLG]&FlagC != 0)
	case opcodemap.OpBnc:
		c.branch(word, c.cregs[opcodemap.CrFLG]&FlagC == 0)
	case opcodemap.OpBo:
		c.branch(word, c.cregs[opcodemap.CrFLG]&FlagV != 0)
	case opcodemap.OpBno:
		c.branch(word, c.cregs[opcodemap.CrFLG]&FlagV == 0)
	case opcodemap.OpBl:
		n := c.cregs[opcodemap.CrFLG]&FlagN != 0
		v := c.cregs[opcodemap.CrFLG]&FlagV != 0
		c.branch(word, n != v)
	case opcodemap.OpBge:
		n := c.cregs[opcodemap.CrFLG]&FlagN != 0
		v := c.cregs[opcodemap.CrFLG]&FlagV != 0
		c.branch(word, n == v)
	case opcodemap.OpBle:
		n := c.cregs[opcodemap.CrFLG]&FlagN != 0
		v := c.cregs[opcodemap.CrFLG]&FlagV != 0
		z := c.cregs[opcodemap.CrFLG]&FlagZ != 0
		c.branch(word, (n != v) || z)
	case opcodemap.OpBae:
		c.branch(word, c.cregs[opcodemap.CrFLG]&FlagC != 0)
	case opcodemap.OpBbe:
		fl := c.cregs[opcodemap.CrFLG]
		c.branch(word, fl&FlagC == 0 || fl&FlagZ != 0)
	case opcodemap.OpBr:
		c.branch(word, true)
	case opcodemap.OpJmp:
		c.pc = c.readGPR(fieldRS1(word))

	case opcodemap.OpCall:
		sp := c.readGPR(31) - 4
		c.writeGPR(31, sp)
		pa, ok := c.translate(sp, mmu.AccessWrite)
		if !ok {
			return
		}
		c.bus.WriteWord(pa, c.pc)
		c.branch(word, true)
	case opcodemap.OpRet:
		sp := c.readGPR(31)
		pa, ok := c.translate(sp, mmu.AccessRead)
		if !ok {
			return
		}
		c.pc = c.bus.ReadWord(pa)
		c.writeGPR(31, sp+4)
	case opcodemap.OpPush:
		sp := c.readGPR(31) - 4
		c.writeGPR(31, sp)
		pa, ok := c.translate(sp, mmu.AccessWrite)
		if !ok {
			return
		}
		c.bus.WriteWord(pa, c.readGPR(fieldRD(word)))
	case opcodemap.OpPop:
		sp := c.readGPR(31)
		pa, ok := c.translate(sp, mmu.AccessRead)
		if !ok {
			return
		}
		c.writeGPR(fieldRD(word), c.bus.ReadWord(pa))
		c.writeGPR(31, sp+4)

	case opcodemap.OpTlbw:
		c.tlb.Insert(uint8(c.cregs[opcodemap.CrPID]), c.readGPR(fieldRS2(word)), c.readGPR(fieldRD(word)))
	case opcodemap.OpTlbr:
		v, _ := c.tlb.Read(uint8(c.cregs[opcodemap.CrPID]), c.readGPR(fieldRS2(word)))
		c.writeGPR(fieldRD(word), v)
	case opcodemap.OpTlbc:
		c.tlb.Clear()
	case opcodemap.OpSys:
		// async=true: epc must be the return address (pc already
		// advanced past sys), not the sys instruction itself, since
		// rfe never re-issues the call that trapped it.
		c.enterTrap(uint8(fieldImm14(word)), ModeKernel, true)
	case opcodemap.OpRfe:
		c.pc = c.cregs[opcodemap.CrEPC]
		c.mode = ModeUser
	case opcodemap.OpRfi:
		c.pc = c.cregs[opcodemap.CrEPC]
		c.setFlags(c.cregs[opcodemap.CrEFG])
		c.mode = c.prevMode
	case opcodemap.OpRft:
		c.pc = c.cregs[opcodemap.CrEPC]
		c.setFlags(c.cregs[opcodemap.CrEFG])
		c.mode = ModeKernel
	case opcodemap.OpIpi:
		target := uint8(c.readGPR(fieldRS1(word)))
		c.sched.DeliverIPI(target, c.cregs[opcodemap.CrMBO])
	case opcodemap.OpHalt:
		c.halted = true
	case opcodemap.OpSleep:
		c.sleeping = true
	}
}

func (c *Core) execCrmv(word uint32) {
	gpr := fieldRD(word)
	cridx := fieldCRIdx(word)
	if fieldDir(word) {
		c.cregs[cridx] = c.readGPR(gpr)
	} else {
		c.writeGPR(gpr, c.cregs[cridx])
	}
}

func (c *Core) branch(word uint32, taken bool) {
	if !taken {
		return
	}
	c.pc = uint32(int64(c.iPC) + int64(fieldImm24(word))*4)
}

func (c *Core) execLoad(word uint32, size int, disp int32, base uint32) {
	addr := uint32(int64(base) + int64(disp))
	pa, ok := c.translate(addr, mmu.AccessRead)
	if !ok {
		return
	}
	var v uint32
	switch size {
	case 1:
		v = uint32(c.bus.ReadByte(pa))
	case 2:
		v = uint32(c.bus.ReadHalf(pa))
	default:
		v = c.bus.ReadWord(pa)
	}
	c.writeGPR(fieldRD(word), v)
}

func (c *Core) execStore(word uint32, size int, disp int32, base uint32) {
	addr := uint32(int64(base) + int64(disp))
	pa, ok := c.translate(addr, mmu.AccessWrite)
	if !ok {
		return
	}
	v := c.readGPR(fieldRD(word))
	switch size {
	case 1:
		c.bus.WriteByte(pa, uint8(v))
	case 2:
		c.bus.WriteHalf(pa, uint16(v))
	default:
		c.bus.WriteWord(pa, v)
	}
}

func (c *Core) execFada(word uint32) {
	rd := fieldRD(word)
	rv := fieldRS1(word)
	ra := fieldRA(word)
	disp := fieldDisp9(word)

	addr := uint32(int64(c.readGPR(ra)) + int64(disp))
	pa, ok := c.translate(addr, mmu.AccessWrite)
	if !ok {
		return
	}
	old := c.bus.ReadWord(pa)
	c.bus.WriteWord(pa, old+c.readGPR(rv))
	c.writeGPR(rd, old)
}
