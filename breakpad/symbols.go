/* Copyright 2013 Google Inc. All Rights Reserved.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*
	Package breakpad is the symbol resolver core of a post-mortem
	crash-analysis toolchain. It parses the Breakpad symbol file text
	format for a single loaded module, documented here:
		<http://code.google.com/p/google-breakpad/wiki/SymbolFiles>.
	and answers queries against the resulting in-memory index: source-level
	attribution of a faulting instruction, recovered parameter values, and
	stack-unwinding rules.

	The package performs no I/O. Callers supply symbol-file bytes (typically
	fetched by a module-name/debug-id lookup elsewhere in the toolchain) and,
	for parameter recovery, implementations of FrameView and MemoryView
	backed by a live or post-mortem stack.
*/
package breakpad

import (
	"strconv"
	"strings"
)

// SymbolTable answers queries about a single loaded module's symbols. It is
// built once from a symbol-file buffer via Load and is safe for
// concurrent read-only use thereafter.
type SymbolTable interface {
	// IsCorrupt reports whether any record in the symbol file failed to
	// parse. A corrupt table is still usable; missing records simply yield
	// absent fields at query time.
	IsCorrupt() bool

	// LookupAddress resolves a module-relative instruction address into a
	// Symbol. frame and memory may be nil; if either is nil, parameter
	// recovery is skipped. Returns the zero Symbol if no evidence at all
	// was found for address.
	LookupAddress(address uint64, frame FrameView, memory MemoryView) Symbol

	// WindowsFrameInfoAt returns the Windows unwind information that
	// applies at a module-relative address, or nil if none applies.
	WindowsFrameInfoAt(address uint64) *WindowsFrameInfo

	// CFIRulesAt composes the DWARF CFI rule set that applies at a
	// module-relative address, via parser, or nil if no CFI INIT record
	// covers the address.
	CFIRulesAt(address uint64, parser CFIRuleParser) (*CFIRuleSet, error)
}

// Symbol stores the source-level attribution of a resolved instruction
// address.
type Symbol struct {
	// Function is the resolved function or public symbol name. Empty if
	// nothing matched the queried address.
	Function string

	// FunctionBase is the module-relative address at which Function
	// begins.
	FunctionBase uint64

	// File is the source file in which the instruction occurred. Empty if
	// no line record matched, or if the line's file id is unknown.
	File string

	// Line is the 1-based source line at which the instruction occurred.
	// Zero if no line record matched, or for a block-helper function that
	// legitimately has no line.
	Line int

	// LineBase is the module-relative address at which Line begins.
	LineBase uint64

	// Params holds recovered argument values, in declaration order. Empty
	// if the match was a PUBLIC symbol, if no FrameView/MemoryView was
	// supplied, or if the function declares no parameters.
	Params []Parameter
}

// Found reports whether LookupAddress matched any evidence at all.
func (s *Symbol) Found() bool {
	return s.Function != ""
}

// FileLine returns the formatted file/line information in a standard way,
// or the empty string if File is unset.
func (s *Symbol) FileLine() string {
	if s.File == "" {
		return ""
	}
	base := s.File
	if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
		base = base[idx+1:]
	}
	return base + ":" + strconv.Itoa(s.Line)
}

// Parameter is a recovered function argument, formatted by the expression
// evaluator in eval.go.
type Parameter struct {
	// TypeName is the parameter's declared C++ type, taken verbatim from
	// the symbol file.
	TypeName string

	// TypeSize is the parameter's size in bytes.
	TypeSize uint

	// Name is the parameter's declared name.
	Name string

	// Value is the formatted recovered value (hex word, pointer, float, or
	// a hex byte dump), or empty if the word at the evaluated address could
	// not be read. A parameter whose location expression produced no usable
	// address is left out of Symbol.Params altogether.
	Value string
}

// ParseAddress converts a hex string in either 0xABC123 or just ABC123 form
// into an integer.
func ParseAddress(addr string) (uint64, error) {
	addr = strings.TrimPrefix(addr, "0x")
	return strconv.ParseUint(addr, 16, 64)
}
