package vga

import "testing"

type fakeSink struct {
	blits int
}

func (f *fakeSink) Blit(pixels, tiles, tilemap []byte, hscroll, vscroll uint16, mode, scale uint8) {
	f.blits++
}

func TestTilemapWriteReadRoundTrips(t *testing.T) {
	v := New(nil)
	w := v.TilemapWindow()
	for i := 0; i < 64; i++ {
		w.WriteHalf(uint32(128+i*2), 0xF0)
	}
	for i := 0; i < 64; i++ {
		if got := w.ReadHalf(uint32(128 + i*2)); got != 0xF0 {
			t.Fatalf("tilemap[%d] = %#x, want 0xF0", i, got)
		}
	}
}

func TestPixelWindowByteAccess(t *testing.T) {
	v := New(nil)
	w := v.PixelWindow()
	w.WriteByte(10, 0xAB)
	if got := w.ReadByte(10); got != 0xAB {
		t.Fatalf("pixel byte = %#x, want 0xAB", got)
	}
}

func TestControlScrollRegisters(t *testing.T) {
	v := New(nil)
	c := v.ControlWindow()
	c.WriteWord(offHScroll, uint32(7)|uint32(9)<<16)
	if v.hscroll != 7 || v.vscroll != 9 {
		t.Fatalf("hscroll/vscroll = %d/%d, want 7/9", v.hscroll, v.vscroll)
	}
}

func TestFrameAdvancesOnCDVOverflowAndBlits(t *testing.T) {
	sink := &fakeSink{}
	v := New(sink)
	c := v.ControlWindow()
	c.WriteWord(offCDV, 3)

	for i := 0; i < 3; i++ {
		c.Tick()
	}
	if v.frame != 1 {
		t.Fatalf("frame = %d, want 1", v.frame)
	}
	if !v.FrameSource() {
		t.Fatalf("FrameSource() false after frame completion")
	}
	if sink.blits != 1 {
		t.Fatalf("sink blits = %d, want 1", sink.blits)
	}
}

func TestClearFrameAcknowledgesInterrupt(t *testing.T) {
	v := New(nil)
	c := v.ControlWindow()
	c.WriteWord(offCDV, 1)
	c.Tick()
	if !v.FrameSource() {
		t.Fatalf("FrameSource() should be pending")
	}
	v.ClearFrame()
	if v.FrameSource() {
		t.Fatalf("FrameSource() should clear after ClearFrame")
	}
}
