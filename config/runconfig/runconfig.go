/*
 * Dioptase - Run configuration directives.
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

// Package runconfig binds the config file directives recognized by the
// dioptase command (main.go) to the options struct the loader and runtime
// consume.
package runconfig

import (
	"strconv"

	config "github.com/dioptase-project/dioptase/config/configparser"
)

// Options collects everything a config file or the CLI can set.
type Options struct {
	SD0        string // Path to SD slot 0 image.
	SD1        string // Path to SD slot 1 image.
	SDDMATicks int    // Ticks per 4-byte DMA quantum.
	UART       bool   // Route host keystrokes to UART RX instead of PS/2.
}

var current Options

func init() {
	current.SDDMATicks = 1
	config.RegisterOption("sd0", setSD0)
	config.RegisterOption("sd1", setSD1)
	config.RegisterOption("sd-dma-ticks", setSDDMATicks)
	config.RegisterOption("uart", setUART)
}

func setSD0(value string) error {
	current.SD0 = value
	return nil
}

func setSD1(value string) error {
	current.SD1 = value
	return nil
}

func setSDDMATicks(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return err
	}
	if n < 1 {
		n = 1
	}
	current.SDDMATicks = n
	return nil
}

func setUART(value string) error {
	current.UART = value == "1" || value == "true" || value == "yes"
	return nil
}

// Current returns the options accumulated so far by any loaded config file.
func Current() Options {
	return current
}

// Reset restores defaults; used by tests and before reloading a config file.
func Reset() {
	current = Options{SDDMATicks: 1}
}
