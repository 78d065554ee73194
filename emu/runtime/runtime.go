/*
 * Dioptase - system assembly: wires memory, the MMIO fabric, cores, and
 * the scheduler into one runnable machine.
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

// Package runtime builds a complete, ready-to-step Dioptase machine from a
// Config: RAM sized and loaded, the MMIO fabric attached at its
// architectural addresses, SD DMA slots backed by optional card images,
// an optional VGA sink, and one core per requested count, all handed to
// a scheduler.
package runtime

import (
	"fmt"
	"io"

	"github.com/dioptase-project/dioptase/emu/cpu"
	"github.com/dioptase-project/dioptase/emu/memory"
	"github.com/dioptase-project/dioptase/emu/mmio"
	"github.com/dioptase-project/dioptase/emu/mmu"
	"github.com/dioptase-project/dioptase/emu/scheduler"
	"github.com/dioptase-project/dioptase/emu/sddma"
	"github.com/dioptase-project/dioptase/emu/vga"
	"github.com/dioptase-project/dioptase/util/hexload"
)

// Physical addresses of the MMIO fabric, per the architecture's fixed
// memory map (everything at or above 0x07FBD000).
const (
	AddrVGAPixel   = 0x07FC0000
	AddrVGATileFB  = 0x07FBD000
	AddrConsole    = 0x07FE5800
	AddrSDSlot0    = 0x07FE5810
	AddrSDSlot1    = 0x07FE5908
	AddrVGAControl = 0x07FE5B40
	AddrVGATilemap = 0x07FE8000
)

// Config describes one machine to assemble. RAMSize and NumCores are
// required; everything else may be left at its zero value. Every device
// window is attached regardless: a nil SD image leaves that slot without
// a card, and a nil VGASink or ConsoleOut discards that output.
type Config struct {
	RAMSize    uint32
	RAMImage   io.Reader // Hex image loaded at address 0; nil leaves RAM zeroed.
	NumCores   int
	SD0Image   []byte // Backing bytes for DMA slot 0; nil disables the slot's card.
	SD1Image   []byte
	SDDMATicks int // Ticks per 4-byte DMA quantum; <1 is clamped to 1.
	UART       bool
	ConsoleOut io.Writer // UART TX sink; nil discards output.
	VGASink    vga.Sink  // Optional blit target (e.g. an ebiten window).
	OnSD0Write func()    // Invoked after a slot-0 write command completes.
	OnSD1Write func()
}

// System is a fully wired, steppable machine.
type System struct {
	Memory    *memory.Memory
	Bus       *mmio.Bus
	Console   *mmio.ConsoleBlock
	VGA       *vga.VGA
	SD0       *sddma.Slot
	SD1       *sddma.Slot
	Scheduler *scheduler.Scheduler
}

// New assembles a System from cfg and loads the RAM image if provided.
func New(cfg Config) (*System, error) {
	if cfg.NumCores < 1 {
		return nil, fmt.Errorf("runtime: NumCores must be at least 1, got %d", cfg.NumCores)
	}

	mem := memory.New(cfg.RAMSize)
	if cfg.RAMImage != nil {
		if _, err := hexload.Load(cfg.RAMImage, mem, 0); err != nil {
			return nil, fmt.Errorf("runtime: loading RAM image: %w", err)
		}
	}

	bus := mmio.New(mem)

	console := mmio.NewConsoleBlock(cfg.ConsoleOut, cfg.UART)
	bus.Attach(AddrConsole, mmio.WindowSize, console)

	vgaDev := vga.New(cfg.VGASink)
	bus.Attach(AddrVGAPixel, vga.PixelWindowSize, vgaDev.PixelWindow())
	bus.Attach(AddrVGATileFB, vga.TileFBWindowSize, vgaDev.TileFBWindow())
	bus.Attach(AddrVGATilemap, vga.TilemapWindowSize, vgaDev.TilemapWindow())
	bus.Attach(AddrVGAControl, vga.ControlWindowSize, vgaDev.ControlWindow())

	ticks := cfg.SDDMATicks
	if ticks < 1 {
		ticks = 1
	}
	sd0 := sddma.NewSlot(bus, cfg.SD0Image, ticks, cfg.OnSD0Write)
	sd1 := sddma.NewSlot(bus, cfg.SD1Image, ticks, cfg.OnSD1Write)
	bus.Attach(AddrSDSlot0, sddma.WindowSize, sd0)
	bus.Attach(AddrSDSlot1, sddma.WindowSize, sd1)

	sched := scheduler.New(bus, console, vgaDev)
	for i := 0; i < cfg.NumCores; i++ {
		tlb := mmu.New()
		sched.AddCore(cpu.New(uint8(i), bus, tlb, sched))
	}

	return &System{
		Memory:    mem,
		Bus:       bus,
		Console:   console,
		VGA:       vgaDev,
		SD0:       sd0,
		SD1:       sd1,
		Scheduler: sched,
	}, nil
}
