/*
 * Dioptase - MMU / TLB.
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

// Package mmu implements the 16-entry, fully-associative, software-refilled
// TLB described by the ISA: entries are keyed on (pid, vpn), carry RWXUG
// permission bits, and a miss or permission failure is reported to the
// caller as ok=false from Translate rather than being resolved here (there is no
// hardware page-table walker).
package mmu

const (
	// Capacity is the number of TLB entries.
	Capacity = 16

	pageShift uint32 = 12
	pageMask  uint32 = 0x00000FFF
	vpnMask   uint32 = 0xFFFFF000

	// Flag bits, canonical encoding: low nibble is R|W<<1|X<<2|U<<3, G is bit 4.
	FlagR uint8 = 1 << 0
	FlagW uint8 = 1 << 1
	FlagX uint8 = 1 << 2
	FlagU uint8 = 1 << 3
	FlagG uint8 = 1 << 4
)

// Access describes the intent behind a translation request.
type Access int

const (
	AccessFetch Access = iota
	AccessRead
	AccessWrite
)

func (a Access) flag() uint8 {
	switch a {
	case AccessFetch:
		return FlagX
	case AccessWrite:
		return FlagW
	default:
		return FlagR
	}
}

// entry is one TLB slot. raw is the exact rE operand tlbw was given
// (ppn in the high bits, flags in the low nibble/bit 4) — tlbr must
// reproduce this value bit for bit, not a recomputed encoding.
type entry struct {
	valid bool
	vpn   uint32
	ppn   uint32
	pid   uint8
	flags uint8
	raw   uint32
}

// TLB is the per-core translation cache.
type TLB struct {
	entries [Capacity]entry
	fifo    int // Next slot to evict (FIFO replacement).
}

// New returns an empty TLB.
func New() *TLB {
	return &TLB{}
}

// Count returns how many entries currently hold a mapping.
func (t *TLB) Count() int {
	n := 0
	for i := range t.entries {
		if t.entries[i].valid {
			n++
		}
	}
	return n
}

// Clear removes every entry (tlbc).
func (t *TLB) Clear() {
	for i := range t.entries {
		t.entries[i] = entry{}
	}
	t.fifo = 0
}

// Insert installs { vpn=va[31:12], ppn=rawEntry[31:12], flags=rawEntry[4:0] }
// for the given pid, evicting the oldest entry if the TLB is full (tlbw).
func (t *TLB) Insert(pid uint8, va, rawEntry uint32) {
	vpn := va & vpnMask
	ppn := rawEntry & vpnMask
	flags := uint8(rawEntry & 0x1F)

	e := entry{valid: true, vpn: vpn, ppn: ppn, pid: pid, flags: flags, raw: rawEntry}

	for i := range t.entries {
		if !t.entries[i].valid {
			t.entries[i] = e
			return
		}
	}

	// Full: evict via FIFO so that >Capacity distinct inserts guarantee at
	// least one prior key can no longer hit (see B1 / tlb_evict).
	t.entries[t.fifo] = e
	t.fifo = (t.fifo + 1) % Capacity
}

// lookup scans for an entry matching (pid, vpn) honoring the global bit.
func (t *TLB) lookup(pid uint8, vpn uint32) (entry, bool) {
	for i := range t.entries {
		e := t.entries[i]
		if !e.valid || e.vpn != vpn {
			continue
		}
		if e.flags&FlagG != 0 || e.pid == pid {
			return e, true
		}
	}
	return entry{}, false
}

// Read returns the raw word for the entry matching (pid, va), or 0 on miss
// (tlbr). The returned word is bit-for-bit what Insert was given.
func (t *TLB) Read(pid uint8, va uint32) (uint32, bool) {
	e, ok := t.lookup(pid, va&vpnMask)
	if !ok {
		return 0, false
	}
	return e.raw, true
}

// Translate resolves a virtual address to a physical address for the given
// access intent. Identity mapping applies only when pid==0 and the TLB is
// completely empty (boot state); otherwise a miss or a permission failure
// both report ok=false so the caller can raise TLB_UMISS/TLB_KMISS.
func (t *TLB) Translate(pid uint8, va uint32, access Access, userMode bool) (pa uint32, ok bool) {
	if pid == 0 && t.Count() == 0 {
		return va, true
	}

	e, hit := t.lookup(pid, va&vpnMask)
	if !hit {
		return 0, false
	}
	if e.flags&access.flag() == 0 {
		return 0, false
	}
	if userMode && e.flags&FlagU == 0 {
		return 0, false
	}

	return (va & pageMask) | e.ppn, true
}
