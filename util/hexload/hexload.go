/*
 * Dioptase - RAM hex-image loader.
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

// Package hexload parses the RAM image format accepted on the command
// line: whitespace-separated 32-bit hex words, loaded in order starting
// at address 0, with '#' or ';' introducing a comment that runs to end
// of line.
package hexload

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Target receives the decoded words; satisfied structurally by
// *emu/memory.Memory so this package never imports it.
type Target interface {
	WriteWord(addr uint32, value uint32)
}

// Load reads every hex word from r and writes them into dst starting at
// base, advancing by 4 bytes per word (little-endian addressing is the
// target's concern, not the loader's — this package only assigns
// sequential word addresses).
func Load(r io.Reader, dst Target, base uint32) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	addr := base
	n := 0
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		for _, tok := range tokenize(scanner.Text()) {
			word, err := strconv.ParseUint(tok, 16, 32)
			if err != nil {
				return n, fmt.Errorf("hexload: line %d: invalid hex word %q: %w", lineNumber, tok, err)
			}
			dst.WriteWord(addr, uint32(word))
			addr += 4
			n++
		}
	}
	if err := scanner.Err(); err != nil {
		return n, err
	}
	return n, nil
}

// tokenize strips a trailing comment and splits the remainder on
// whitespace, mirroring configparser's "rest of line is ignored" rule
// but for '#' and ';' rather than '#' alone.
func tokenize(line string) []string {
	if i := strings.IndexAny(line, "#;"); i >= 0 {
		line = line[:i]
	}
	return strings.Fields(line)
}
