/*
 * Dioptase - debug symbol table.
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

// Package debuginfo loads a ".debug" symbol file: one "label address" pair
// per line, address in hex with or without a 0x prefix, used by the debugger so breakpoints
// and "x" can be given symbolic names instead of bare addresses.
package debuginfo

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Table is a loaded label<->address symbol table.
type Table struct {
	byName map[string]uint32
	byAddr map[uint32]string
}

// New returns an empty table.
func New() *Table {
	return &Table{byName: map[string]uint32{}, byAddr: map[uint32]string{}}
}

// Load reads a ".debug" file from r into a new Table.
func Load(r io.Reader) (*Table, error) {
	t := New()
	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()
		if i := strings.IndexAny(line, "#;"); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("debuginfo: line %d: want \"label address\", got %q", lineNumber, line)
		}
		addr, err := parseAddr(fields[1])
		if err != nil {
			return nil, fmt.Errorf("debuginfo: line %d: %w", lineNumber, err)
		}
		t.Add(fields[0], addr)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

func parseAddr(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return uint32(v), nil
}

// Add binds a label to an address, overwriting any prior binding for
// either the label or the address.
func (t *Table) Add(label string, addr uint32) {
	t.byName[label] = addr
	t.byAddr[addr] = label
}

// Resolve looks up a label, returning its address and whether it was found.
func (t *Table) Resolve(label string) (uint32, bool) {
	addr, ok := t.byName[label]
	return addr, ok
}

// Lookup returns the label bound to addr, if any.
func (t *Table) Lookup(addr uint32) (string, bool) {
	name, ok := t.byAddr[addr]
	return name, ok
}
