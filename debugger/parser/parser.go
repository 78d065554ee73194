/*
 * Dioptase - debugger command parser.
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

// Package parser implements the interactive debugger's command language:
// run/continue/step/quit, breakpoints and watchpoints by address or
// symbol, register and TLB inspection, and raw memory examination.
package parser

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/dioptase-project/dioptase/emu/cpu"
	disassembler "github.com/dioptase-project/dioptase/emu/disassemble"
	"github.com/dioptase-project/dioptase/emu/mmu"
	"github.com/dioptase-project/dioptase/emu/opcodemap"
	"github.com/dioptase-project/dioptase/emu/scheduler"
	"github.com/dioptase-project/dioptase/util/debuginfo"
)

// Bus is the raw physical-address surface the debugger reads and
// patches; satisfied structurally by *emu/mmio.Bus.
type Bus interface {
	ReadByte(addr uint32) uint8
	WriteByte(addr uint32, value uint8)
	ReadWord(addr uint32) uint32
	WriteWord(addr uint32, value uint32)
	ReadBytes(addr uint32, length int) []byte
}

type watchMode uint8

const (
	watchRead watchMode = 1 << iota
	watchWrite
)

type watchpoint struct {
	addr uint32
	mode watchMode
}

// Debugger holds the REPL's live session state: which core is selected,
// breakpoints/watchpoints, and the symbol table used to resolve labels.
type Debugger struct {
	sched   *scheduler.Scheduler
	bus     Bus
	symbols *debuginfo.Table
	out     io.Writer

	coreIdx     int
	breakpoints map[uint32]bool
	watches     []watchpoint
}

// New creates a debugger session over an already-wired system. symbols
// may be nil if no .debug file was loaded.
func New(sched *scheduler.Scheduler, bus Bus, symbols *debuginfo.Table, out io.Writer) *Debugger {
	if symbols == nil {
		symbols = debuginfo.New()
	}
	return &Debugger{
		sched:       sched,
		bus:         bus,
		symbols:     symbols,
		out:         out,
		breakpoints: map[uint32]bool{},
	}
}

type cmdLine struct {
	line string
	pos  int
}

type command struct {
	name    string
	min     int
	process func(*cmdLine, *Debugger) (bool, error)
}

var commandList = []command{
	{name: "run", min: 1, process: cmdRun},
	{name: "continue", min: 1, process: cmdRun},
	{name: "next", min: 1, process: cmdNext},
	{name: "quit", min: 1, process: cmdQuit},
	{name: "break", min: 2, process: cmdBreak},
	{name: "delete", min: 3, process: cmdDelete},
	{name: "watch", min: 2, process: cmdWatch},
	{name: "unwatch", min: 3, process: cmdUnwatch},
	{name: "info", min: 1, process: cmdInfo},
	{name: "set", min: 3, process: cmdSet},
	{name: "x", min: 1, process: cmdExamine},
	{name: "core", min: 2, process: cmdCore},
}

// ProcessCommand executes one line of debugger input, returning true if
// the session should end.
func ProcessCommand(line string, d *Debugger) (bool, error) {
	cl := &cmdLine{line: line}
	name := cl.getWord()
	if name == "" {
		return false, nil
	}

	match := matchList(name)
	switch len(match) {
	case 0:
		return false, fmt.Errorf("unknown command %q", name)
	case 1:
		return match[0].process(cl, d)
	default:
		return false, fmt.Errorf("ambiguous command %q", name)
	}
}

func matchList(name string) []command {
	var match []command
	for _, c := range commandList {
		if matchCommand(c, name) {
			match = append(match, c)
		}
	}
	return match
}

// matchCommand allows any unambiguous prefix of a command name at least
// min characters long, so "r" matches "run" and "c" matches "continue"
// without the two colliding.
func matchCommand(c command, name string) bool {
	if len(name) < c.min || len(name) > len(c.name) {
		return false
	}
	return c.name[:len(name)] == name
}

func (l *cmdLine) skipSpace() {
	for l.pos < len(l.line) && unicode.IsSpace(rune(l.line[l.pos])) {
		l.pos++
	}
}

// getWord returns the next whitespace-delimited token, advancing past it.
func (l *cmdLine) getWord() string {
	l.skipSpace()
	start := l.pos
	for l.pos < len(l.line) && !unicode.IsSpace(rune(l.line[l.pos])) {
		l.pos++
	}
	return l.line[start:l.pos]
}

func (d *Debugger) core() *cpu.Core {
	cores := d.sched.Cores()
	if d.coreIdx >= len(cores) {
		return nil
	}
	return cores[d.coreIdx]
}

// resolveAddr accepts either a symbol name or a bare hex address.
func (d *Debugger) resolveAddr(token string) (uint32, error) {
	if addr, ok := d.symbols.Resolve(token); ok {
		return addr, nil
	}
	token = strings.TrimPrefix(strings.TrimPrefix(token, "0x"), "0X")
	v, err := strconv.ParseUint(token, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("unresolved address or label %q", token)
	}
	return uint32(v), nil
}

func cmdQuit(*cmdLine, *Debugger) (bool, error) { return true, nil }

func cmdCore(cl *cmdLine, d *Debugger) (bool, error) {
	tok := cl.getWord()
	n, err := strconv.Atoi(tok)
	if err != nil || n < 0 || n >= len(d.sched.Cores()) {
		return false, fmt.Errorf("no such core %q", tok)
	}
	d.coreIdx = n
	return false, nil
}

// cmdRun steps the system until the selected core hits a breakpoint or
// the whole system halts.
func cmdRun(cl *cmdLine, d *Debugger) (bool, error) {
	c := d.core()
	if c == nil {
		return false, errors.New("no core selected")
	}
	for !d.sched.Halted() {
		d.sched.Step()
		if d.breakpoints[c.PC()] {
			fmt.Fprintf(d.out, "breakpoint at 0x%08x\n", c.PC())
			return false, nil
		}
	}
	fmt.Fprintln(d.out, "halted")
	return false, nil
}

func cmdNext(cl *cmdLine, d *Debugger) (bool, error) {
	c := d.core()
	if c == nil {
		return false, errors.New("no core selected")
	}
	d.sched.Step()
	word := d.bus.ReadWord(c.PC())
	fmt.Fprintf(d.out, "0x%08x: %s\n", c.PC(), disassembler.Format(word))
	return false, nil
}

func cmdBreak(cl *cmdLine, d *Debugger) (bool, error) {
	tok := cl.getWord()
	addr, err := d.resolveAddr(tok)
	if err != nil {
		return false, err
	}
	d.breakpoints[addr] = true
	return false, nil
}

func cmdDelete(cl *cmdLine, d *Debugger) (bool, error) {
	tok := cl.getWord()
	addr, err := d.resolveAddr(tok)
	if err != nil {
		return false, err
	}
	delete(d.breakpoints, addr)
	return false, nil
}

func cmdWatch(cl *cmdLine, d *Debugger) (bool, error) {
	tok := cl.getWord()
	mode := watchRead | watchWrite
	switch tok {
	case "r":
		mode = watchRead
	case "w":
		mode = watchWrite
	case "rw":
		mode = watchRead | watchWrite
	default:
		addr, err := d.resolveAddr(tok)
		if err != nil {
			return false, err
		}
		d.watches = append(d.watches, watchpoint{addr: addr, mode: mode})
		return false, nil
	}
	addrTok := cl.getWord()
	addr, err := d.resolveAddr(addrTok)
	if err != nil {
		return false, err
	}
	d.watches = append(d.watches, watchpoint{addr: addr, mode: mode})
	return false, nil
}

func cmdUnwatch(cl *cmdLine, d *Debugger) (bool, error) {
	tok := cl.getWord()
	addr, err := d.resolveAddr(tok)
	if err != nil {
		return false, err
	}
	kept := d.watches[:0]
	for _, w := range d.watches {
		if w.addr != addr {
			kept = append(kept, w)
		}
	}
	d.watches = kept
	return false, nil
}

func cmdInfo(cl *cmdLine, d *Debugger) (bool, error) {
	sub := cl.getWord()
	c := d.core()
	if c == nil {
		return false, errors.New("no core selected")
	}
	switch sub {
	case "regs":
		for i := uint8(0); i < 32; i++ {
			fmt.Fprintf(d.out, "r%-2d = 0x%08x\n", i, c.GPR(i))
		}
	case "cregs":
		for i, name := range opcodemap.ControlRegisterNames {
			fmt.Fprintf(d.out, "%-4s = 0x%08x\n", name, c.CReg(uint8(i)))
		}
	case "tlb":
		fmt.Fprintf(d.out, "%d entries resident\n", c.TLB().Count())
	case "p":
		addr, err := d.resolveAddr(cl.getWord())
		if err != nil {
			return false, err
		}
		fmt.Fprintf(d.out, "0x%08x: 0x%08x\n", addr, d.bus.ReadWord(addr))
	case "v":
		addr, err := d.resolveAddr(cl.getWord())
		if err != nil {
			return false, err
		}
		pa, ok := c.TLB().Translate(uint8(c.CReg(opcodemap.CrPID)), addr, mmu.AccessRead, c.Mode() == cpu.ModeUser)
		if !ok {
			fmt.Fprintf(d.out, "0x%08x: not mapped\n", addr)
			return false, nil
		}
		fmt.Fprintf(d.out, "0x%08x -> 0x%08x: 0x%08x\n", addr, pa, d.bus.ReadWord(pa))
	default:
		if idx := opcodemap.ControlRegisterIndex(sub); idx >= 0 {
			fmt.Fprintf(d.out, "%s = 0x%08x\n", sub, c.CReg(uint8(idx)))
			return false, nil
		}
		return false, fmt.Errorf("unknown info target %q", sub)
	}
	return false, nil
}

func cmdSet(cl *cmdLine, d *Debugger) (bool, error) {
	what := cl.getWord()
	if what != "reg" {
		return false, fmt.Errorf("unknown set target %q", what)
	}
	c := d.core()
	if c == nil {
		return false, errors.New("no core selected")
	}
	name := cl.getWord()
	valueTok := cl.getWord()
	value, err := strconv.ParseUint(strings.TrimPrefix(valueTok, "0x"), 16, 32)
	if err != nil {
		return false, fmt.Errorf("invalid value %q", valueTok)
	}
	if idx := opcodemap.ControlRegisterIndex(name); idx >= 0 {
		c.SetCReg(uint8(idx), uint32(value))
		return false, nil
	}
	if n, err := strconv.Atoi(strings.TrimPrefix(name, "r")); err == nil && n >= 0 && n < 32 {
		c.SetGPR(uint8(n), uint32(value))
		return false, nil
	}
	return false, fmt.Errorf("unknown register %q", name)
}

func cmdExamine(cl *cmdLine, d *Debugger) (bool, error) {
	kind := "p"
	tok := cl.getWord()
	if tok == "v" || tok == "p" {
		kind = tok
		tok = cl.getWord()
	}
	addr, err := d.resolveAddr(tok)
	if err != nil {
		return false, err
	}
	lengthTok := cl.getWord()
	length := 1
	if lengthTok != "" {
		n, err := strconv.Atoi(lengthTok)
		if err != nil || n <= 0 {
			return false, fmt.Errorf("invalid length %q", lengthTok)
		}
		length = n
	}

	pa := addr
	if kind == "v" {
		c := d.core()
		if c == nil {
			return false, errors.New("no core selected")
		}
		translated, ok := c.TLB().Translate(uint8(c.CReg(opcodemap.CrPID)), addr, mmu.AccessRead, c.Mode() == cpu.ModeUser)
		if !ok {
			return false, fmt.Errorf("address 0x%08x not mapped", addr)
		}
		pa = translated
	}

	for i := 0; i < length; i++ {
		word := d.bus.ReadWord(pa + uint32(i*4))
		fmt.Fprintf(d.out, "0x%08x: 0x%08x  %s\n", pa+uint32(i*4), word, disassembler.Format(word))
	}
	return false, nil
}
