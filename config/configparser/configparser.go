/*
 * Dioptase - Configuration file parser
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

// Package configparser reads the optional Dioptase config file: a small
// set of "key=value" directives, one per line, used to script multi-device
// setups instead of passing everything on the command line.
package configparser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
)

/* Configuration file format:
 *
 * '#' indicates comment, rest of line is ignored.
 * <line> := <key> '=' <value>
 * <key>   ::= *(<letter> | <number> | '-')
 * <value> ::= <string> | '"' *(<letter> | <whitespace>) '"'
 */

// Current option line being parsed.
type optionLine struct {
	line string // Current option line.
	pos  int    // Current position in line.
}

// Handler registered for a directive key.
type handlerDef struct {
	create func(value string) error
}

var handlers = map[string]handlerDef{}

var lineNumber int

// RegisterOption should be called from init functions to bind a directive
// key (e.g. "sd0") to a handler invoked with the value after '='.
func RegisterOption(key string, fn func(value string) error) {
	key = strings.ToLower(key)
	handlers[key] = handlerDef{create: fn}
}

// LoadConfigFile reads and applies every directive in name.
func LoadConfigFile(name string) error {
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()

	lineNumber = 0
	reader := bufio.NewReader(file)
	for {
		line := optionLine{}
		line.line, err = reader.ReadString('\n')
		lineNumber++
		if len(line.line) == 0 && err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		if parseErr := line.parseLine(); parseErr != nil {
			return parseErr
		}
	}
	return nil
}

// Parse one line from file.
func (line *optionLine) parseLine() error {
	key, err := line.getName()
	if err != nil {
		return err
	}
	if key == "" {
		return nil
	}

	if line.isEOL() || line.line[line.pos] != '=' {
		return fmt.Errorf("directive %q requires '=value', line %d", key, lineNumber)
	}
	// pos stays on '=' here: getPeek/getNext both look one character ahead
	// of the current position, so parseQuoteString needs pos sitting on
	// the delimiter to see the value's first character.

	value, ok := line.parseQuoteString()
	if !ok {
		return fmt.Errorf("invalid quoted value, line %d", lineNumber)
	}

	key = strings.ToLower(key)
	handler, ok := handlers[key]
	if !ok {
		return fmt.Errorf("unknown directive %q, line %d", key, lineNumber)
	}
	return handler.create(value)
}

// Skip forward over line until none whitespace character found.
func (line *optionLine) skipSpace() {
	for !line.isEOL() && unicode.IsSpace(rune(line.line[line.pos])) {
		line.pos++
	}
}

// Check if at end of line.
func (line *optionLine) isEOL() bool {
	if line.pos >= len(line.line) {
		return true
	}
	return line.line[line.pos] == '#'
}

// Return next character in line, 0 if EOL.
func (line *optionLine) getNext(inQuote bool) byte {
	line.pos++
	if line.isEOL() {
		return 0
	}
	by := line.line[line.pos]
	if unicode.IsLetter(rune(by)) || unicode.IsNumber(rune(by)) || inQuote {
		return by
	}
	return 0
}

// Peek at next character.
func (line *optionLine) getPeek() byte {
	if (line.pos + 1) >= len(line.line) {
		return 0
	}
	return line.line[line.pos+1]
}

// Parse a directive key: letters, digits and '-'.
func (line *optionLine) getName() (string, error) {
	line.skipSpace()
	if line.isEOL() {
		return "", nil
	}

	by := line.line[line.pos]
	if !unicode.IsLetter(rune(by)) {
		return "", fmt.Errorf("invalid directive at line %d [%d]", lineNumber, line.pos)
	}

	value := ""
	for {
		value += string([]byte{by})
		line.pos++
		if line.isEOL() {
			break
		}
		by = line.line[line.pos]
		if !unicode.IsLetter(rune(by)) && !unicode.IsNumber(rune(by)) && by != '-' {
			break
		}
	}
	return value, nil
}

// Parse string that is "quoted" or a bare run of non-space characters.
func (line *optionLine) parseQuoteString() (string, bool) {
	inQuote := false
	value := ""

	if line.getPeek() == '"' {
		inQuote = true
		_ = line.getNext(true)
	}

	for {
		by := line.getNext(inQuote)
		if by == '"' && inQuote {
			by = line.getNext(inQuote)
			if by != '"' {
				return value, true
			}
		}

		space := unicode.IsSpace(rune(by))
		if !inQuote && (space || by == 0) {
			return value, true
		}

		value += string(by)
		if line.isEOL() {
			return value, !inQuote
		}
	}
}
