package hexload

import (
	"strings"
	"testing"
)

type fakeTarget struct {
	words map[uint32]uint32
}

func (f *fakeTarget) WriteWord(addr uint32, value uint32) {
	if f.words == nil {
		f.words = map[uint32]uint32{}
	}
	f.words[addr] = value
}

func TestLoadSequentialWords(t *testing.T) {
	src := "00000001 00000002\n00000003\n"
	dst := &fakeTarget{}
	n, err := Load(strings.NewReader(src), dst, 0x400)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if n != 3 {
		t.Fatalf("n = %d, want 3", n)
	}
	want := map[uint32]uint32{0x400: 1, 0x404: 2, 0x408: 3}
	for addr, v := range want {
		if dst.words[addr] != v {
			t.Errorf("word at %#x = %#x, want %#x", addr, dst.words[addr], v)
		}
	}
}

func TestLoadSkipsHashAndSemicolonComments(t *testing.T) {
	src := "# header\n00000010 ; inline comment\n  ; full line comment\n00000020\n"
	dst := &fakeTarget{}
	n, err := Load(strings.NewReader(src), dst, 0)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("n = %d, want 2", n)
	}
	if dst.words[0] != 0x10 || dst.words[4] != 0x20 {
		t.Fatalf("words = %#v, want {0:0x10, 4:0x20}", dst.words)
	}
}

func TestLoadRejectsInvalidHex(t *testing.T) {
	dst := &fakeTarget{}
	if _, err := Load(strings.NewReader("not-hex\n"), dst, 0); err == nil {
		t.Fatalf("Load() error = nil, want an error for invalid hex token")
	}
}

func TestLoadEmptyInputLoadsNothing(t *testing.T) {
	dst := &fakeTarget{}
	n, err := Load(strings.NewReader(""), dst, 0)
	if err != nil || n != 0 {
		t.Fatalf("Load() = %d, %v, want 0, nil", n, err)
	}
}
