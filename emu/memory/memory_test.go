package memory

import "testing"

func TestByteRoundTrip(t *testing.T) {
	m := New(16)
	m.WriteByte(4, 0xAB)
	if got := m.ReadByte(4); got != 0xAB {
		t.Fatalf("ReadByte() = %#x, want 0xAB", got)
	}
}

func TestWordLittleEndian(t *testing.T) {
	m := New(16)
	m.WriteWord(0, 0xA1B2C3D4)
	want := []byte{0xD4, 0xC3, 0xB2, 0xA1}
	for i, b := range want {
		if got := m.ReadByte(uint32(i)); got != b {
			t.Fatalf("byte %d = %#x, want %#x", i, got, b)
		}
	}
	if got := m.ReadWord(0); got != 0xA1B2C3D4 {
		t.Fatalf("ReadWord() = %#x, want 0xA1B2C3D4", got)
	}
}

func TestHalfLittleEndian(t *testing.T) {
	m := New(16)
	m.WriteHalf(2, 0xF0F0)
	if got := m.ReadHalf(2); got != 0xF0F0 {
		t.Fatalf("ReadHalf() = %#x, want 0xF0F0", got)
	}
}

func TestOutOfRangeIsSilentlyDiscarded(t *testing.T) {
	m := New(4)
	m.WriteByte(100, 0xFF) // Must not panic.
	if got := m.ReadByte(100); got != 0 {
		t.Fatalf("ReadByte() out of range = %#x, want 0", got)
	}
}

func TestReadWriteBytes(t *testing.T) {
	m := New(32)
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	m.WriteBytes(8, data)
	got := m.ReadBytes(8, len(data))
	for i := range data {
		if got[i] != data[i] {
			t.Fatalf("byte %d = %d, want %d", i, got[i], data[i])
		}
	}
}
