/*
 * Dioptase - Main process.
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

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	getopt "github.com/pborman/getopt/v2"

	config "github.com/dioptase-project/dioptase/config/configparser"
	runconfig "github.com/dioptase-project/dioptase/config/runconfig"
	"github.com/dioptase-project/dioptase/debugger/parser"
	"github.com/dioptase-project/dioptase/debugger/reader"
	"github.com/dioptase-project/dioptase/emu/runtime"
	"github.com/dioptase-project/dioptase/util/debuginfo"
	logger "github.com/dioptase-project/dioptase/util/logger"
	"github.com/dioptase-project/dioptase/util/termkeys"
)

var Logger *slog.Logger

func main() {
	optConfigFile := getopt.StringLong("config", 'c', "", "Configuration file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optSD0 := getopt.StringLong("sd0", '0', "", "SD card image for slot 0")
	optSD1 := getopt.StringLong("sd1", '1', "", "SD card image for slot 1")
	optCores := getopt.StringLong("cores", 'n', "1", "Number of cores")
	optRAM := getopt.StringLong("ram", 'm', "100000", "RAM size in bytes, hex")
	optDMATicks := getopt.StringLong("sd-dma-ticks", 0, "", "Ticks per 4-byte SD DMA quantum")
	optUART := getopt.BoolLong("uart", 0, "Route host keystrokes to UART RX instead of PS/2")
	optVGA := getopt.BoolLong("vga", 0, "Open an on-screen VGA display")
	optVGAScale := getopt.StringLong("vga-scale", 0, "2", "VGA display integer scale factor")
	optDebug := getopt.StringLong("debug", 'd', "", "Symbol file, enables the interactive debugger")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	numCores, err := strconv.Atoi(*optCores)
	if err != nil || numCores < 1 {
		numCores = 1
	}
	ramSize, err := strconv.ParseUint(*optRAM, 16, 32)
	if err != nil {
		ramSize = 0x100000
	}
	vgaScale, err := strconv.Atoi(*optVGAScale)
	if err != nil || vgaScale < 1 {
		vgaScale = 2
	}

	var file *os.File
	if *optLogFile != "" {
		file, _ = os.Create(*optLogFile)
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelInfo)
	debugLog := false
	Logger = slog.New(logger.NewHandler(file, &slog.HandlerOptions{Level: programLevel, AddSource: false}, &debugLog))
	slog.SetDefault(Logger)

	Logger.Info("Dioptase started")

	if *optConfigFile != "" {
		if err := config.LoadConfigFile(*optConfigFile); err != nil {
			Logger.Error(err.Error())
			os.Exit(1)
		}
	}
	runOpts := runconfig.Current()
	if *optSD0 != "" {
		runOpts.SD0 = *optSD0
	}
	if *optSD1 != "" {
		runOpts.SD1 = *optSD1
	}
	if *optDMATicks != "" {
		if n, err := strconv.Atoi(*optDMATicks); err == nil {
			runOpts.SDDMATicks = n
		}
	}
	if *optUART {
		runOpts.UART = true
	}

	args := getopt.Args()
	if len(args) < 1 {
		Logger.Error("Please specify a RAM image")
		os.Exit(1)
	}
	ramFile, err := os.Open(args[0])
	if err != nil {
		Logger.Error(err.Error())
		os.Exit(1)
	}
	defer ramFile.Close()

	if len(args) > 1 && runOpts.SD0 == "" {
		runOpts.SD0 = args[1]
	}
	if len(args) > 2 && runOpts.SD1 == "" {
		runOpts.SD1 = args[2]
	}

	var sd0Image, sd1Image []byte
	if runOpts.SD0 != "" {
		if sd0Image, err = os.ReadFile(runOpts.SD0); err != nil {
			Logger.Error(err.Error())
			os.Exit(1)
		}
	}
	if runOpts.SD1 != "" {
		if sd1Image, err = os.ReadFile(runOpts.SD1); err != nil {
			Logger.Error(err.Error())
			os.Exit(1)
		}
	}

	cfg := runtime.Config{
		RAMSize:    uint32(ramSize),
		RAMImage:   ramFile,
		NumCores:   numCores,
		SD0Image:   sd0Image,
		SD1Image:   sd1Image,
		SDDMATicks: runOpts.SDDMATicks,
		UART:       runOpts.UART,
		ConsoleOut: os.Stdout,
	}
	if runOpts.SD0 != "" {
		cfg.OnSD0Write = func() {
			if err := os.WriteFile(runOpts.SD0, sd0Image, 0o644); err != nil {
				Logger.Error(err.Error())
			}
		}
	}
	if runOpts.SD1 != "" {
		cfg.OnSD1Write = func() {
			if err := os.WriteFile(runOpts.SD1, sd1Image, 0o644); err != nil {
				Logger.Error(err.Error())
			}
		}
	}

	var startDisplay func(sys *runtime.System) error
	if *optVGA {
		cfg.VGASink, startDisplay = prepareDisplay(vgaScale)
	}

	sys, err := runtime.New(cfg)
	if err != nil {
		Logger.Error(err.Error())
		os.Exit(1)
	}

	if startDisplay != nil {
		go func() {
			if err := startDisplay(sys); err != nil {
				Logger.Error("display: " + err.Error())
			}
		}()
	}

	if *optDebug != "" {
		runDebugger(sys, *optDebug)
		return
	}

	var keys *termkeys.Host
	if !*optVGA {
		keys = termkeys.New(sys.Console)
		if err := keys.Start(); err != nil {
			Logger.Error("termkeys: " + err.Error())
			keys = nil
		}
	}
	runHeadless(sys)
	if keys != nil {
		keys.Stop()
	}
}

// runDebugger loads symbols, if any, and drops into the interactive
// REPL instead of free-running the scheduler.
func runDebugger(sys *runtime.System, symbolPath string) {
	symbols := debuginfo.New()
	if f, err := os.Open(symbolPath); err == nil {
		defer f.Close()
		if loaded, err := debuginfo.Load(f); err != nil {
			Logger.Error(err.Error())
		} else {
			symbols = loaded
		}
	}
	dbg := parser.New(sys.Scheduler, sys.Bus, symbols, os.Stdout)
	reader.Run(dbg)
}

// runHeadless free-runs the scheduler until it halts or a SIGINT/SIGTERM
// arrives.
func runHeadless(sys *runtime.System) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		for !sys.Scheduler.Halted() {
			select {
			case <-done:
				return
			default:
				sys.Scheduler.Step()
			}
		}
		close(done)
	}()

	select {
	case <-sigChan:
		fmt.Println("Got quit signal")
	case <-done:
		Logger.Info("All cores halted")
	}
}
