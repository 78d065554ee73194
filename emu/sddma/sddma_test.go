package sddma

import "testing"

type fakeMem struct {
	ram []byte
}

func newFakeMem(size int) *fakeMem { return &fakeMem{ram: make([]byte, size)} }

func (m *fakeMem) ReadBytes(addr uint32, length int) []byte {
	out := make([]byte, length)
	copy(out, m.ram[addr:int(addr)+length])
	return out
}

func (m *fakeMem) WriteBytes(addr uint32, data []byte) {
	copy(m.ram[addr:], data)
}

func TestSDToRAMReadCopiesBytes(t *testing.T) {
	mem := newFakeMem(0x4000)
	image := make([]byte, BlockSize*4)
	copy(image, []byte{0xD4, 0xC3, 0xB2, 0xA1, 0x88, 0x77, 0x66, 0x55})

	slot := NewSlot(mem, image, 1, nil)
	slot.WriteWord(OffMemAddr, 0x2000)
	slot.WriteWord(OffSDBlock, 0)
	slot.WriteWord(OffLen, 8)
	slot.WriteWord(OffCtrl, CtrlRead)

	for slot.Busy() {
		slot.Tick()
	}

	got := mem.ReadBytes(0x2000, 8)
	want := []byte{0xD4, 0xC3, 0xB2, 0xA1, 0x88, 0x77, 0x66, 0x55}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, got[i], want[i])
		}
	}
}

func TestRAMToSDWriteThenReadBackRoundTrips(t *testing.T) {
	mem := newFakeMem(0x4000)
	pattern := []byte{0xD4, 0xC3, 0xB2, 0xA1, 0x88, 0x77, 0x66, 0x55}
	mem.WriteBytes(0x2000, pattern)

	image := make([]byte, BlockSize*4)
	flushed := false
	slot := NewSlot(mem, image, 1, func() { flushed = true })

	slot.WriteWord(OffMemAddr, 0x2000)
	slot.WriteWord(OffSDBlock, 3)
	slot.WriteWord(OffLen, 8)
	slot.WriteWord(OffCtrl, CtrlWrite)
	for slot.Busy() {
		slot.Tick()
	}
	if !flushed {
		t.Fatalf("onWriteComplete callback was not invoked")
	}

	slot2 := NewSlot(mem, image, 1, nil)
	slot2.WriteWord(OffMemAddr, 0x3000)
	slot2.WriteWord(OffSDBlock, 3)
	slot2.WriteWord(OffLen, 8)
	slot2.WriteWord(OffCtrl, CtrlRead)
	for slot2.Busy() {
		slot2.Tick()
	}

	a := mem.ReadBytes(0x2000, 8)
	b := mem.ReadBytes(0x3000, 8)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("round-trip mismatch at byte %d: %#x vs %#x", i, a[i], b[i])
		}
	}
}

func TestBusyIgnoresCTRLWrites(t *testing.T) {
	mem := newFakeMem(0x1000)
	image := make([]byte, BlockSize)
	slot := NewSlot(mem, image, 4, nil)

	slot.WriteWord(OffLen, 8)
	slot.WriteWord(OffCtrl, CtrlRead)
	if !slot.Busy() {
		t.Fatalf("slot should be busy after starting a command")
	}

	slot.WriteWord(OffCtrl, CtrlWrite) // Must be ignored.
	if slot.ReadWord(OffCtrl) != CtrlRead {
		t.Fatalf("CTRL changed while BUSY; ignored write should have no effect")
	}
}

func TestInitClearsBusyAfterOneTick(t *testing.T) {
	mem := newFakeMem(0x1000)
	slot := NewSlot(mem, make([]byte, BlockSize), 100, nil)
	slot.WriteWord(OffCtrl, CtrlInit)
	if !slot.Busy() {
		t.Fatalf("slot should be busy immediately after CtrlInit")
	}
	slot.Tick()
	if slot.Busy() {
		t.Fatalf("CtrlInit should clear BUSY after exactly one tick")
	}
}

func TestTicksPerQuantumThrottlesTransfer(t *testing.T) {
	mem := newFakeMem(0x1000)
	image := make([]byte, BlockSize)
	image[0], image[1], image[2], image[3] = 1, 2, 3, 4
	slot := NewSlot(mem, image, 3, nil)

	slot.WriteWord(OffMemAddr, 0)
	slot.WriteWord(OffLen, 4)
	slot.WriteWord(OffCtrl, CtrlRead)

	slot.Tick()
	slot.Tick()
	if got := mem.ReadBytes(0, 4); got[0] != 0 {
		t.Fatalf("quantum fired before ticksPerQuantum elapsed: %v", got)
	}
	slot.Tick()
	if got := mem.ReadBytes(0, 4); got[0] != 1 {
		t.Fatalf("quantum should have fired on the third tick: %v", got)
	}
}
