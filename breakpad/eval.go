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
	"fmt"
	"math"
	"strings"
)

// FrameView exposes the register state of the stack frame being symbolized.
// A live debugger or a post-mortem unwinder both satisfy this.
type FrameView interface {
	// Register returns the value of register i, or 0 if i is out of range.
	Register(i int) uint64
	// FrameBase returns the frame's canonical frame address, or 0 if
	// unknown.
	FrameBase() uint64
}

// MemoryView exposes the process memory a location expression may
// dereference.
type MemoryView interface {
	// ReadWord reads an 8-byte little-endian value at addr.
	ReadWord(addr uint64) (uint64, bool)
	// ReadByte reads a single byte at addr.
	ReadByte(addr uint64) (byte, bool)
}

// Location-expression opcodes, a fixed subset of DWARF's.
const (
	opReg0   = 0x50
	opReg31  = opReg0 + 31
	opRegX   = 0x90
	opBreg0  = 0x70
	opBreg31 = opBreg0 + 31
	opFbreg  = 0x91
	opAddr   = 0x03
	opLit0   = 0x30
	opLit31  = opLit0 + 31

	opConst1u = 0x08
	opConst1s = 0x09
	opConst2u = 0x0a
	opConst2s = 0x0b
	opConst4u = 0x0c
	opConst4s = 0x0d
	opConst8u = 0x0e
	opConst8s = 0x0f

	opDup  = 0x12
	opDrop = 0x13
	opOver = 0x14
	opSwap = 0x16
	opRot  = 0x17
	opPick = 0x15
	opDeref = 0x06
)

// evalStack is the location-expression evaluator's operand stack.
type evalStack struct {
	values []uint64
}

func (s *evalStack) push(v uint64) { s.values = append(s.values, v) }

func (s *evalStack) pop() (uint64, bool) {
	if len(s.values) == 0 {
		return 0, false
	}
	v := s.values[len(s.values)-1]
	s.values = s.values[:len(s.values)-1]
	return v, true
}

func (s *evalStack) top() (uint64, bool) {
	if len(s.values) == 0 {
		return 0, false
	}
	return s.values[len(s.values)-1], true
}

// evaluateLocation runs program against frame and memory, returning the
// effective address of the last pushed value, or 0 on any failure
// (underflow, unsupported opcode, or a failed memory read), which the
// caller treats as "this parameter has no recoverable value."
func evaluateLocation(program []locOp, frame FrameView, memory MemoryView) uint64 {
	var st evalStack

	for _, inst := range program {
		op := uint64(inst.op)
		switch {
		case op >= opReg0 && op <= opReg31:
			st.push(frame.Register(int(op - opReg0)))

		case op == opRegX:
			st.push(frame.Register(int(inst.v1)))

		case op >= opBreg0 && op <= opBreg31:
			st.push(frame.Register(int(op-opBreg0)) + inst.v1)

		case op == opFbreg:
			st.push(frame.FrameBase() + inst.v1)

		case op == opAddr:
			st.push(inst.v1)

		case op >= opLit0 && op <= opLit31:
			st.push(op - opLit0)

		case op == opConst1u, op == opConst2u, op == opConst4u, op == opConst8u:
			st.push(inst.v1)

		case op == opConst1s:
			st.push(uint64(int64(int8(inst.v1))))
		case op == opConst2s:
			st.push(uint64(int64(int16(inst.v1))))
		case op == opConst4s:
			st.push(uint64(int64(int32(inst.v1))))
		case op == opConst8s:
			st.push(uint64(int64(inst.v1)))

		case op == opDup:
			v, ok := st.top()
			if !ok {
				return 0
			}
			st.push(v)

		case op == opDrop:
			if _, ok := st.pop(); !ok {
				return 0
			}

		case op == opOver:
			if len(st.values) < 2 {
				return 0
			}
			st.push(st.values[len(st.values)-2])

		case op == opSwap:
			n := len(st.values)
			if n < 2 {
				return 0
			}
			st.values[n-1], st.values[n-2] = st.values[n-2], st.values[n-1]

		case op == opRot:
			n := len(st.values)
			if n < 3 {
				return 0
			}
			st.values[n-1], st.values[n-2], st.values[n-3] = st.values[n-2], st.values[n-3], st.values[n-1]

		case op == opPick:
			idx := inst.v1
			n := len(st.values)
			if idx >= uint64(n) {
				return 0
			}
			st.push(st.values[uint64(n)-1-idx])

		case op == opDeref:
			addr, ok := st.pop()
			if !ok {
				return 0
			}
			v, ok := memory.ReadWord(addr)
			if !ok {
				return 0
			}
			st.push(v)

		default:
			// deref_size, xderef, xderef_size, and anything else: unsupported.
			return 0
		}
	}

	v, ok := st.top()
	if !ok {
		return 0
	}
	return v
}

// recoverParameters evaluates each of defs' location programs against
// frame and memory, dropping any parameter whose typeSize is non-positive
// without attempting evaluation, and any whose effective address
// evaluates to 0.
func recoverParameters(defs []paramDef, frame FrameView, memory MemoryView) []Parameter {
	if len(defs) == 0 {
		return nil
	}

	params := make([]Parameter, 0, len(defs))
	for _, def := range defs {
		if def.typeSize == 0 {
			continue
		}
		addr := evaluateLocation(def.locProgram, frame, memory)
		if addr == 0 {
			continue
		}
		params = append(params, Parameter{
			TypeName: def.typeName,
			TypeSize: def.typeSize,
			Name:     def.paramName,
			Value:    formatParamValue(def.typeName, def.typeSize, addr, memory),
		})
	}
	if len(params) == 0 {
		return nil
	}
	return params
}

// formatParamValue reads the word and raw bytes at addr and formats them
// the way the original resolver's show_simple_type does: when typeSize is
// even and at most 8, a pointer, floating-point, or masked hex rendering of
// the word; for any other typeSize, no rendering of the word. Either way it
// is followed by a space-separated hex dump of the first typeSize raw bytes.
func formatParamValue(typeName string, typeSize uint, addr uint64, memory MemoryView) string {
	word, ok := memory.ReadWord(addr)
	if !ok {
		return ""
	}

	var parts []string
	if typeSize%2 == 0 && typeSize <= 8 {
		switch {
		case strings.ContainsAny(typeName, "*&"):
			parts = append(parts, fmt.Sprintf("0x%x", word))
		case strings.Contains(typeName, "float"):
			parts = append(parts, fmt.Sprintf("%g", math.Float32frombits(uint32(word))))
		case strings.Contains(typeName, "double"):
			parts = append(parts, fmt.Sprintf("%g", math.Float64frombits(word)))
		default:
			mask := uint64(1)<<(8*typeSize) - 1
			if typeSize >= 8 {
				mask = math.MaxUint64
			}
			parts = append(parts, fmt.Sprintf("0x%x", word&mask))
		}
	}

	dump := make([]string, 0, typeSize)
	for i := uint(0); i < typeSize; i++ {
		b, ok := memory.ReadByte(addr + uint64(i))
		if !ok {
			break
		}
		dump = append(dump, fmt.Sprintf("%02x", b))
	}
	if len(dump) > 0 {
		parts = append(parts, strings.Join(dump, " "))
	}

	return strings.Join(parts, ", ")
}
