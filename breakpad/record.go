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

import "strings"

// wire type codes carried by STACK WIN records, as produced by dump_syms.
const (
	stackWinTypeFPO       = 0
	stackWinTypeFrameData = 4
)

// Frame-info kinds recognized by WindowsFrameInfoAt (§4.6): a module keeps
// one containment range map per kind, and prefers FRAME_DATA over FPO.
const (
	frameInfoKindFrameData = iota
	frameInfoKindFPO
	numFrameInfoKinds
)

func frameInfoKindForWireType(wireType int64) (int, bool) {
	switch wireType {
	case stackWinTypeFrameData:
		return frameInfoKindFrameData, true
	case stackWinTypeFPO:
		return frameInfoKindFPO, true
	default:
		return 0, false
	}
}

// recordType returns the first whitespace-delimited token of line, which
// identifies the record kind.
func recordType(line string) string {
	idx := strings.IndexAny(line, whitespaceDelims)
	if idx < 0 {
		return line
	}
	return line[:idx]
}

// afterPrefix returns the remainder of line after its first token, starting
// with the delimiter(s) that follow it; callers skip those themselves.
func afterPrefix(line string) string {
	idx := strings.IndexAny(line, whitespaceDelims)
	if idx < 0 {
		return ""
	}
	return line[idx:]
}

// parseFileRecord parses "FILE <id> <name>".
func parseFileRecord(line string) (id int, name string, ok bool) {
	tokens, ok := tokenize(afterPrefix(line), whitespaceDelims, 2)
	if !ok {
		return 0, "", false
	}
	n, ok := parseDecimalI64(tokens[0])
	if !ok || n < 0 {
		return 0, "", false
	}
	return int(n), tokens[1], true
}

// parseFunctionRecord parses "FUNC <addr> <size> <stack_param_size> <name>
// [ # <nparams_hex> # <param>#<param>#… ]".
func parseFunctionRecord(line string) (*function, bool) {
	// Split off the optional parameter metadata, delimited by '#'.
	segments, ok := tokenize(afterPrefix(line), "#", 3)
	if !ok {
		// No '#' metadata present; the whole remainder is the base fields.
		segments = []string{afterPrefix(line)}
	}

	tokens, ok := tokenize(strings.TrimRight(segments[0], whitespaceDelims), whitespaceDelims, 4)
	if !ok {
		return nil, false
	}

	address, ok := parseHexU64(tokens[0])
	if !ok {
		return nil, false
	}
	size, ok := parseHexU64(tokens[1])
	if !ok {
		return nil, false
	}
	stackParamSize, ok := parseHexI64(tokens[2])
	if !ok || stackParamSize < 0 {
		return nil, false
	}

	f := &function{
		name:           tokens[3],
		address:        address,
		size:           size,
		stackParamSize: stackParamSize,
		lines:          newContainmentRangeMap[*lineRecord](),
	}

	if len(segments) == 3 {
		f.params = parseFunctionParams(segments[1], segments[2])
	}

	return f, true
}

// parseFunctionParams parses the "<nparams_hex> # <param>#<param>#…" tail of
// a FUNC record's parameter metadata. Any failure here leaves the function
// itself successfully parsed, just with no recovered parameters — mirroring
// the original resolver, which never lets a malformed parameter list fail
// the enclosing FUNC record.
func parseFunctionParams(nparamsField, paramsField string) []paramDef {
	nparams, ok := parseHexU64Full(strings.TrimSpace(nparamsField))
	if !ok {
		return nil
	}

	argTokens, ok := tokenize(paramsField, "#", int(nparams))
	if !ok {
		return nil
	}

	params := make([]paramDef, 0, len(argTokens))
	for _, tok := range argTokens {
		p, ok := parseParamDef(tok)
		if !ok {
			return nil
		}
		params = append(params, p)
	}
	return params
}

// parseParamDef parses one "<typeName>@<typeSizeHex>@<paramName>@<locExpr>"
// parameter descriptor, where locExpr is a '$'-delimited sequence of
// "<opHex>[:<v1Hex>[:<v2Hex>]]" operations.
func parseParamDef(tok string) (paramDef, bool) {
	fields, ok := tokenize(strings.TrimSpace(tok), "@", 4)
	if !ok {
		return paramDef{}, false
	}

	typeSize, ok := parseHexU64Full(fields[1])
	if !ok {
		typeSize = 0
	}

	// The location expression has no fixed field count, so it is split in
	// full rather than through tokenize's exact-arity contract.
	opTokens := strings.Split(fields[3], "$")
	if len(opTokens) == 0 || (len(opTokens) == 1 && opTokens[0] == "") {
		return paramDef{}, false
	}

	ops := make([]locOp, 0, len(opTokens))
	for _, opTok := range opTokens {
		locFields := strings.SplitN(opTok, ":", 3)
		if len(locFields) == 0 || locFields[0] == "" {
			return paramDef{}, false
		}

		opVal, ok := parseHexU64Full(locFields[0])
		if !ok {
			return paramDef{}, false
		}

		var v1, v2 uint64
		if len(locFields) > 1 {
			if v, ok := parseHexU64Full(locFields[1]); ok {
				v1 = v
			}
		}
		if len(locFields) > 2 {
			if v, ok := parseHexU64Full(locFields[2]); ok {
				v2 = v
			}
		}
		ops = append(ops, locOp{op: byte(opVal), v1: v1, v2: v2})
	}

	return paramDef{
		typeName:   fields[0],
		typeSize:   uint(typeSize),
		paramName:  fields[2],
		locProgram: ops,
	}, true
}

// parseLineRecordFields parses "<addr> <size> <line> <file_id>".
func parseLineRecordFields(line string) (*lineRecord, bool) {
	tokens, ok := tokenize(line, whitespaceDelims, 4)
	if !ok {
		return nil, false
	}

	address, ok := parseHexU64(tokens[0])
	if !ok {
		return nil, false
	}
	size, ok := parseHexU64(tokens[1])
	if !ok {
		return nil, false
	}
	lineNo, ok := parseDecimalI64(tokens[2])
	if !ok || lineNo < 0 {
		return nil, false
	}
	fileID, ok := parseDecimalI64(tokens[3])
	if !ok || fileID < 0 {
		return nil, false
	}

	return &lineRecord{address: address, size: size, line: int(lineNo), fileID: int(fileID)}, true
}

// parsePublicRecord parses "PUBLIC <addr> <stack_param_size> <name>".
func parsePublicRecord(line string) (*publicSymbol, bool) {
	tokens, ok := tokenize(afterPrefix(line), whitespaceDelims, 3)
	if !ok {
		return nil, false
	}

	address, ok := parseHexU64(tokens[0])
	if !ok {
		return nil, false
	}
	stackParamSize, ok := parseHexI64(tokens[1])
	if !ok || stackParamSize < 0 {
		return nil, false
	}

	return &publicSymbol{name: tokens[2], address: address, stackParamSize: stackParamSize}, true
}

// parseStackWinRecord parses "<type> <rva> <code_size> …", the
// remainder of a "STACK WIN ..." line after the WIN token. The trailing
// fields beyond code_size describe the actual unwind program and are
// captured verbatim as an opaque string for the external frame-info
// evaluator; this resolver only needs enough to index the record by range
// and kind.
func parseStackWinRecord(rest string) (kind int, base, size uint64, info *WindowsFrameInfo, ok bool) {
	tokens, ok := tokenize(rest, whitespaceDelims, 4)
	if !ok {
		return 0, 0, 0, nil, false
	}

	wireType, ok := parseDecimalI64(tokens[0])
	if !ok {
		return 0, 0, 0, nil, false
	}
	kind, known := frameInfoKindForWireType(wireType)
	if !known {
		return 0, 0, 0, nil, false
	}

	base, ok = parseHexU64(tokens[1])
	if !ok {
		return 0, 0, 0, nil, false
	}
	size, ok = parseHexU64(tokens[2])
	if !ok {
		return 0, 0, 0, nil, false
	}

	info = &WindowsFrameInfo{
		Kind:    frameInfoKindName(kind),
		Base:    base,
		Size:    size,
		Program: tokens[3],
	}
	return kind, base, size, info, true
}

func frameInfoKindName(kind int) FrameInfoKind {
	if kind == frameInfoKindFPO {
		return FPO
	}
	return FrameData
}

// parseCFIInitRecord parses "<addr> <size> <rules…>", the remainder of
// a "STACK CFI INIT ..." line after the INIT token.
func parseCFIInitRecord(rest string) (base, size uint64, rules string, ok bool) {
	tokens, ok := tokenize(rest, whitespaceDelims, 3)
	if !ok {
		return 0, 0, "", false
	}
	base, ok = parseHexU64(tokens[0])
	if !ok {
		return 0, 0, "", false
	}
	size, ok = parseHexU64(tokens[1])
	if !ok {
		return 0, 0, "", false
	}
	return base, size, tokens[2], true
}

// parseCFIDeltaRecord parses "<addr> <rules…>", the remainder of a
// "STACK CFI ..." line after the CFI token (when it is not an INIT record).
func parseCFIDeltaRecord(rest string) (addr uint64, rules string, ok bool) {
	tokens, ok := tokenize(rest, whitespaceDelims, 2)
	if !ok {
		return 0, "", false
	}
	addr, ok = parseHexU64(tokens[0])
	if !ok {
		return 0, "", false
	}
	return addr, tokens[1], true
}
