package debuginfo

import (
	"strings"
	"testing"
)

func TestLoadParsesLabelAddressPairs(t *testing.T) {
	src := "start 0x400\n# comment\nloop_top 420  ; trailing\n"
	table, err := Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if addr, ok := table.Resolve("start"); !ok || addr != 0x400 {
		t.Fatalf("Resolve(start) = %#x, %v, want 0x400, true", addr, ok)
	}
	if addr, ok := table.Resolve("loop_top"); !ok || addr != 0x420 {
		t.Fatalf("Resolve(loop_top) = %#x, %v, want 0x420, true", addr, ok)
	}
}

func TestLookupReturnsLabelForAddress(t *testing.T) {
	table := New()
	table.Add("handler", 0x1000)
	if name, ok := table.Lookup(0x1000); !ok || name != "handler" {
		t.Fatalf("Lookup(0x1000) = %q, %v, want handler, true", name, ok)
	}
	if _, ok := table.Lookup(0x2000); ok {
		t.Fatalf("Lookup(0x2000) = true, want false for unbound address")
	}
}

func TestLoadRejectsMalformedLine(t *testing.T) {
	if _, err := Load(strings.NewReader("oneword\n")); err == nil {
		t.Fatalf("Load() error = nil, want error for missing address")
	}
}

func TestAddOverwritesPriorBinding(t *testing.T) {
	table := New()
	table.Add("x", 1)
	table.Add("x", 2)
	if addr, _ := table.Resolve("x"); addr != 2 {
		t.Fatalf("Resolve(x) = %#x, want 2 after rebind", addr)
	}
}
