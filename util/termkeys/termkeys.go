/*
 * Dioptase - raw-terminal keystroke capture.
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

// Package termkeys puts the host terminal in raw mode and relays
// keystrokes to the machine's console block, for the headless run mode
// where no VGA window is open to capture them instead.
package termkeys

import (
	"os"
	"syscall"
	"time"

	"golang.org/x/term"
)

// KeyTarget receives decoded host keystrokes; satisfied by
// *emu/mmio.ConsoleBlock.
type KeyTarget interface {
	PushKey(keyCode uint8, keyUp bool)
}

// Host reads raw stdin in a goroutine and feeds bytes to a KeyTarget.
type Host struct {
	target  KeyTarget
	fd      int
	old     *term.State
	stopCh  chan struct{}
	done    chan struct{}
	started bool
}

// New creates a host relaying stdin keystrokes to target.
func New(target KeyTarget) *Host {
	return &Host{target: target, stopCh: make(chan struct{}), done: make(chan struct{})}
}

// Start puts stdin in raw mode and begins reading. If stdin isn't a
// terminal it returns nil without reading anything, so PS/2 input is
// simply unavailable in a pipe/redirect context. Returns an error if raw
// mode can't be set.
func (h *Host) Start() error {
	h.fd = int(os.Stdin.Fd())
	if !term.IsTerminal(h.fd) {
		close(h.done)
		return nil
	}

	old, err := term.MakeRaw(h.fd)
	if err != nil {
		close(h.done)
		return err
	}
	h.old = old
	h.started = true

	if err := syscall.SetNonblock(h.fd, true); err != nil {
		_ = term.Restore(h.fd, h.old)
		h.old = nil
		close(h.done)
		return err
	}

	go h.run()
	return nil
}

func (h *Host) run() {
	defer close(h.done)
	buf := make([]byte, 1)
	for {
		select {
		case <-h.stopCh:
			return
		default:
		}

		n, err := syscall.Read(h.fd, buf)
		if n > 0 {
			b := buf[0]
			if b == '\r' {
				b = '\n'
			}
			if b == 0x7F {
				b = 0x08
			}
			h.target.PushKey(b, false)
		}
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if err != nil {
			return
		}
		if n == 0 {
			time.Sleep(5 * time.Millisecond)
		}
	}
}

// Stop terminates the reading goroutine and restores the terminal.
func (h *Host) Stop() {
	select {
	case <-h.stopCh:
	default:
		close(h.stopCh)
	}
	<-h.done
	if h.started {
		_ = syscall.SetNonblock(h.fd, false)
		_ = term.Restore(h.fd, h.old)
		h.started = false
	}
}
