/*
 * Dioptase - Configuration file parser test set.
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

package configparser

import (
	"os"
	"path/filepath"
	"testing"
)

var testValue string

func resetHandlers() {
	handlers = map[string]handlerDef{}
	testValue = ""
}

func modOption(value string) error {
	testValue = value
	return nil
}

func TestRegisterOptionLowercasesKey(t *testing.T) {
	resetHandlers()

	RegisterOption("TestOption", modOption)
	if _, ok := handlers["testoption"]; !ok {
		t.Fatalf("RegisterOption did not register under the lowercased key")
	}
}

func TestParseLineBareValue(t *testing.T) {
	resetHandlers()
	RegisterOption("testoption", modOption)

	line := &optionLine{line: "testoption=hello\n"}
	if err := line.parseLine(); err != nil {
		t.Fatalf("parseLine() error = %v", err)
	}
	if testValue != "hello" {
		t.Fatalf("value = %q, want %q", testValue, "hello")
	}
}

func TestParseLineQuotedValueWithSpaces(t *testing.T) {
	resetHandlers()
	RegisterOption("testoption", modOption)

	line := &optionLine{line: `testoption="hello world"` + "\n"}
	if err := line.parseLine(); err != nil {
		t.Fatalf("parseLine() error = %v", err)
	}
	if testValue != "hello world" {
		t.Fatalf("value = %q, want %q", testValue, "hello world")
	}
}

func TestParseLineKeyIsCaseInsensitive(t *testing.T) {
	resetHandlers()
	RegisterOption("testoption", modOption)

	line := &optionLine{line: "TESTOPTION=hello\n"}
	if err := line.parseLine(); err != nil {
		t.Fatalf("parseLine() error = %v", err)
	}
	if testValue != "hello" {
		t.Fatalf("value = %q, want %q", testValue, "hello")
	}
}

func TestParseLineFullLineCommentIsIgnored(t *testing.T) {
	resetHandlers()
	RegisterOption("testoption", modOption)

	line := &optionLine{line: "# a comment\n"}
	if err := line.parseLine(); err != nil {
		t.Fatalf("parseLine() error = %v", err)
	}
	if testValue != "" {
		t.Fatalf("value = %q, want handler not invoked", testValue)
	}
}

func TestParseLineBlankLineIsIgnored(t *testing.T) {
	resetHandlers()
	RegisterOption("testoption", modOption)

	line := &optionLine{line: "   \n"}
	if err := line.parseLine(); err != nil {
		t.Fatalf("parseLine() error = %v", err)
	}
	if testValue != "" {
		t.Fatalf("value = %q, want handler not invoked", testValue)
	}
}

func TestParseLineTrailingCommentStopsValue(t *testing.T) {
	resetHandlers()
	RegisterOption("testoption", modOption)

	line := &optionLine{line: "testoption=hello # trailing comment\n"}
	if err := line.parseLine(); err != nil {
		t.Fatalf("parseLine() error = %v", err)
	}
	if testValue != "hello" {
		t.Fatalf("value = %q, want %q", testValue, "hello")
	}
}

func TestParseLineUnknownDirectiveErrors(t *testing.T) {
	resetHandlers()

	line := &optionLine{line: "nosuchdirective=1\n"}
	if err := line.parseLine(); err == nil {
		t.Fatalf("parseLine() error = nil, want error for unregistered directive")
	}
}

func TestParseLineMissingEqualsErrors(t *testing.T) {
	resetHandlers()
	RegisterOption("testoption", modOption)

	line := &optionLine{line: "testoption\n"}
	if err := line.parseLine(); err == nil {
		t.Fatalf("parseLine() error = nil, want error for missing '='")
	}
}

func TestParseLineInvalidDirectiveStartErrors(t *testing.T) {
	resetHandlers()

	line := &optionLine{line: "123=value\n"}
	if err := line.parseLine(); err == nil {
		t.Fatalf("parseLine() error = nil, want error for a directive not starting with a letter")
	}
}

func TestParseLineUnterminatedQuoteErrors(t *testing.T) {
	resetHandlers()
	RegisterOption("testoption", modOption)

	line := &optionLine{line: `testoption="unterminated` + "\n"}
	if err := line.parseLine(); err == nil {
		t.Fatalf("parseLine() error = nil, want error for an unterminated quoted value")
	}
}

func TestLoadConfigFileAppliesEveryDirective(t *testing.T) {
	resetHandlers()
	var seen []string
	RegisterOption("testoption", func(value string) error {
		seen = append(seen, value)
		return nil
	})

	path := filepath.Join(t.TempDir(), "dioptase.cfg")
	contents := "# a sample config\ntestoption=first\n\ntestoption=\"second one\"\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if err := LoadConfigFile(path); err != nil {
		t.Fatalf("LoadConfigFile() error = %v", err)
	}
	if len(seen) != 2 || seen[0] != "first" || seen[1] != "second one" {
		t.Fatalf("seen = %#v, want [first, second one]", seen)
	}
}

func TestLoadConfigFileMissingFileErrors(t *testing.T) {
	resetHandlers()

	if err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.cfg")); err == nil {
		t.Fatalf("LoadConfigFile() error = nil, want error for a nonexistent file")
	}
}

func TestLoadConfigFileStopsOnFirstError(t *testing.T) {
	resetHandlers()

	path := filepath.Join(t.TempDir(), "dioptase.cfg")
	contents := "nosuchdirective=1\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if err := LoadConfigFile(path); err == nil {
		t.Fatalf("LoadConfigFile() error = nil, want error for an unregistered directive")
	}
}
