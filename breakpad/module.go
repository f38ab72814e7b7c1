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

package breakpad

import (
	"strings"

	log "github.com/golang/glog"
)

// maxErrorsLogged bounds how many individual parse errors are logged per
// load; a badly generated symbol file should not flood the log.
const maxErrorsLogged = 5

// maxErrorsBeforeBailing stops processing further records once more than
// this many errors have been counted; past this point the file is assumed
// to be fundamentally the wrong format rather than merely containing a few
// bad records. The load itself still succeeds, with IsCorrupt() true.
const maxErrorsBeforeBailing = 100

// function is one FUNC record: its extent, declared parameters, and the
// LINE records nested within it.
type function struct {
	name           string
	address        uint64
	size           uint64
	stackParamSize int64
	params         []paramDef
	lines          *containmentRangeMap[*lineRecord]
}

// lineRecord is one LINE record, always nested inside a function's extent.
type lineRecord struct {
	address uint64
	size    uint64
	line    int
	fileID  int
}

// publicSymbol is one PUBLIC record: a bare name at an address, with no
// extent and no line information.
type publicSymbol struct {
	name           string
	address        uint64
	stackParamSize int64
}

// paramDef is one parsed parameter descriptor from a FUNC record's metadata,
// prior to evaluation against a live frame and memory view.
type paramDef struct {
	typeName   string
	typeSize   uint
	paramName  string
	locProgram []locOp
}

// locOp is a single opcode of a parameter's DWARF-style location expression.
type locOp struct {
	op     byte
	v1, v2 uint64
}

// module is the in-memory index built from a single symbol-file buffer.
type module struct {
	files     map[int]string
	functions *containmentRangeMap[*function]
	publics   *flatRangeMap[*publicSymbol]

	// windowsFrameInfo is indexed by frameInfoKind (FRAME_DATA preferred
	// over FPO at lookup time).
	windowsFrameInfo [numFrameInfoKinds]*containmentRangeMap[*WindowsFrameInfo]

	cfiInitial *containmentRangeMap[string]
	cfiDelta   *orderedMap

	numErrors int
	isCorrupt bool
}

// Load parses data as a Breakpad symbol file and returns the resulting
// SymbolTable. An empty buffer is a trivially successful, empty load. A
// buffer that racks up recoverable per-record errors still loads
// successfully with IsCorrupt() true, whether or not the error cap was hit;
// exceeding maxErrorsBeforeBailing stops processing further records early
// rather than failing the load outright.
func Load(data []byte) (SymbolTable, error) {
	m := &module{
		files:      make(map[int]string),
		functions:  newContainmentRangeMap[*function](),
		publics:    newFlatRangeMap[*publicSymbol](),
		cfiInitial: newContainmentRangeMap[string](),
		cfiDelta:   newOrderedMap(),
	}
	for i := range m.windowsFrameInfo {
		m.windowsFrameInfo[i] = newContainmentRangeMap[*WindowsFrameInfo]()
	}

	if len(data) == 0 {
		return m, nil
	}

	text := sanitizeBuffer(data, m)

	var curFunc *function
parseLoop:
	for _, line := range splitLines(text) {
		if line == "" {
			continue
		}

		rt := recordType(line)
		switch rt {
		case "MODULE", "INFO":
			curFunc = nil
			continue

		case "FILE":
			curFunc = nil
			id, name, ok := parseFileRecord(line)
			if !ok {
				if m.recordError("malformed FILE record: %q", line) {
					break parseLoop
				}
				continue
			}
			// Duplicate ids are silently ignored: first value wins.
			if _, exists := m.files[id]; !exists {
				m.files[id] = name
			}

		case "FUNC":
			f, ok := parseFunctionRecord(line)
			if !ok {
				curFunc = nil
				if m.recordError("malformed FUNC record: %q", line) {
					break parseLoop
				}
				continue
			}
			curFunc = f
			// A failed store (crossing an existing range) is not counted
			// as an error: the function and any lines appended to it are
			// simply discarded once curFunc is reassigned.
			m.functions.store(f.address, f.size, f)

		case "PUBLIC":
			curFunc = nil
			p, ok := parsePublicRecord(line)
			if !ok {
				if m.recordError("malformed PUBLIC record: %q", line) {
					break parseLoop
				}
				continue
			}
			// Address-0 PUBLIC records are dropped without being an
			// error.
			if p.address == 0 {
				continue
			}
			if !m.publics.store(p.address, p) {
				if m.recordError("duplicate PUBLIC address in record: %q", line) {
					break parseLoop
				}
			}

		case "STACK":
			curFunc = nil
			if !m.parseStackRecord(afterPrefix(line)) {
				if m.recordError("malformed STACK record: %q", line) {
					break parseLoop
				}
			}

		default:
			if curFunc == nil {
				if m.recordError("line record with no enclosing FUNC: %q", line) {
					break parseLoop
				}
				continue
			}
			lr, ok := parseLineRecordFields(line)
			if !ok {
				if m.recordError("malformed line record: %q", line) {
					break parseLoop
				}
				continue
			}
			curFunc.lines.store(lr.address, lr.size, lr)
		}
	}

	m.isCorrupt = m.numErrors > 0
	return m, nil
}

// recordError counts one recoverable parse error, logs it (up to
// maxErrorsLogged times), and reports whether the caller should stop
// processing further records having exceeded maxErrorsBeforeBailing. Load
// still returns successfully in that case; only isCorrupt is set.
func (m *module) recordError(format string, args ...interface{}) bool {
	m.numErrors++
	if m.numErrors <= maxErrorsLogged {
		log.Errorf(format, args...)
	}
	return m.numErrors > maxErrorsBeforeBailing
}

// parseStackRecord dispatches "STACK WIN ..." and "STACK CFI ..." records,
// the remainder of a STACK line after the "STACK" token has been consumed.
func (m *module) parseStackRecord(rest string) bool {
	tag := recordType(strings.TrimLeft(rest, whitespaceDelims))
	body := afterPrefix(strings.TrimLeft(rest, whitespaceDelims))

	switch tag {
	case "WIN":
		kind, base, size, info, ok := parseStackWinRecord(body)
		if !ok {
			return false
		}
		return m.windowsFrameInfo[kind].store(base, size, info)

	case "CFI":
		if recordType(strings.TrimLeft(body, whitespaceDelims)) == "INIT" {
			initBody := afterPrefix(strings.TrimLeft(body, whitespaceDelims))
			base, size, rules, ok := parseCFIInitRecord(initBody)
			if !ok {
				return false
			}
			m.cfiInitial.store(base, size, rules)
			return true
		}
		addr, rules, ok := parseCFIDeltaRecord(body)
		if !ok {
			return false
		}
		m.cfiDelta.set(addr, rules)
		return true

	default:
		return false
	}
}

func (m *module) IsCorrupt() bool {
	return m.isCorrupt
}

// sanitizeBuffer forces a trailing NUL and collapses a trailing run of NULs
// before scanning for interior ones. Any number of interior NULs counts as
// exactly one recoverable error, matching the original resolver's
// treatment of a single corrupted region rather than penalizing every byte
// within it. Unlike the C original, which must rewrite NUL to '_' to keep
// a NUL-terminated C string scan from stopping early, the returned text
// keeps interior NULs intact for splitLines to treat as line breaks: a Go
// string has no structural need for null-termination safety, and treating
// an embedded NUL as a delimiter keeps a record that follows one directly
// after a line break, as in a truncated transfer, parseable instead of
// corrupting its first token.
func sanitizeBuffer(data []byte, m *module) string {
	buf := make([]byte, len(data), len(data)+1)
	copy(buf, data)
	if len(buf) == 0 || buf[len(buf)-1] != 0 {
		buf = append(buf, 0)
	}

	end := len(buf)
	for end > 0 && buf[end-1] == 0 {
		end--
	}

	if bytesContainByte(buf[:end], 0) {
		m.recordError("symbol data contains embedded NUL bytes")
	}

	return string(buf[:end])
}

func bytesContainByte(b []byte, target byte) bool {
	for _, c := range b {
		if c == target {
			return true
		}
	}
	return false
}

// splitLines splits text on any run of '\r', '\n', or NUL, matching a
// strtok-style line reader rather than a strict CRLF/LF split, and drops
// empty lines.
func splitLines(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '\r' || r == '\n' || r == 0
	})
}
