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
	"encoding/binary"
	"testing"

	"github.com/kmalloc/breakpad/testutils"
)

// fakeFrame is a minimal FrameView backed by a fixed register array.
type fakeFrame struct {
	regs      [32]uint64
	frameBase uint64
}

func (f *fakeFrame) Register(i int) uint64 {
	if i < 0 || i >= len(f.regs) {
		return 0
	}
	return f.regs[i]
}

func (f *fakeFrame) FrameBase() uint64 { return f.frameBase }

// fakeMemory is a minimal MemoryView backed by a sparse byte map.
type fakeMemory struct {
	bytes map[uint64]byte
}

func newFakeMemory() *fakeMemory {
	return &fakeMemory{bytes: make(map[uint64]byte)}
}

func (m *fakeMemory) setWord(addr, value uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], value)
	for i, b := range buf {
		m.bytes[addr+uint64(i)] = b
	}
}

func (m *fakeMemory) ReadWord(addr uint64) (uint64, bool) {
	var buf [8]byte
	for i := range buf {
		b, ok := m.bytes[addr+uint64(i)]
		if !ok {
			return 0, false
		}
		buf[i] = b
	}
	return binary.LittleEndian.Uint64(buf[:]), true
}

func (m *fakeMemory) ReadByte(addr uint64) (byte, bool) {
	b, ok := m.bytes[addr]
	return b, ok
}

func TestEvaluateLocationRegister(t *testing.T) {
	frame := &fakeFrame{}
	frame.regs[3] = 0xdeadbeef
	memory := newFakeMemory()

	addr := evaluateLocation([]locOp{{op: opReg0 + 3}}, frame, memory)
	if addr != 0xdeadbeef {
		t.Errorf("reg3 = %x, want deadbeef", addr)
	}
}

func TestEvaluateLocationFbregAndDeref(t *testing.T) {
	frame := &fakeFrame{frameBase: 0x1000}
	memory := newFakeMemory()
	memory.setWord(0x1008, 0x42)

	program := []locOp{
		{op: opFbreg, v1: 8},
		{op: opDeref},
	}
	addr := evaluateLocation(program, frame, memory)
	if addr != 0x42 {
		t.Errorf("fbreg+8 deref'd = %x, want 42", addr)
	}
}

func TestEvaluateLocationUnderflow(t *testing.T) {
	frame := &fakeFrame{}
	memory := newFakeMemory()

	if addr := evaluateLocation([]locOp{{op: opDrop}}, frame, memory); addr != 0 {
		t.Errorf("dropping an empty stack should yield 0, got %x", addr)
	}
	if addr := evaluateLocation([]locOp{{op: opSwap}}, frame, memory); addr != 0 {
		t.Errorf("swap on a short stack should yield 0, got %x", addr)
	}
}

func TestEvaluateLocationUnsupportedOpcode(t *testing.T) {
	frame := &fakeFrame{}
	memory := newFakeMemory()

	// 0xff is not any recognized opcode.
	if addr := evaluateLocation([]locOp{{op: 0xff}}, frame, memory); addr != 0 {
		t.Errorf("unsupported opcode should yield 0, got %x", addr)
	}
}

func TestEvaluateLocationOver(t *testing.T) {
	frame := &fakeFrame{}
	memory := newFakeMemory()

	// lit5 lit7 over -> 5 7 5.
	program := []locOp{
		{op: opLit0 + 5},
		{op: opLit0 + 7},
		{op: opOver},
	}
	addr := evaluateLocation(program, frame, memory)
	if addr != 5 {
		t.Errorf("over should duplicate the second-from-top, got %d, want 5", addr)
	}
}

// Scenario 5: FUNC 300 10 0 h # 1 # int@4@x@53 (op 0x53 = reg3), register 3
// set to 0xDEADBEEF, memory at 0xDEADBEEF holding 0x7.
func TestRecoverParametersScenario(t *testing.T) {
	data := "FUNC 300 10 0 h # 1 # int@4@x@53\n"
	table, err := Load([]byte(data))
	if err != nil {
		t.Fatal(err)
	}

	frame := &fakeFrame{}
	frame.regs[3] = 0xdeadbeef
	memory := newFakeMemory()
	memory.setWord(0xdeadbeef, 7)

	sym := table.LookupAddress(0x300, frame, memory)
	if sym.Function != "h" {
		t.Fatalf("function = %q, want h", sym.Function)
	}
	if len(sym.Params) != 1 {
		t.Fatalf("got %d params, want 1", len(sym.Params))
	}

	p := sym.Params[0]
	if p.Name != "x" || p.TypeName != "int" {
		t.Errorf("param = %+v, want name x, type int", p)
	}
	if err := testutils.CheckStringsEqual("0x7, 07 00 00 00", p.Value); err != nil {
		t.Errorf("param value mismatch:\n%v", err)
	}
}

func TestRecoverParametersSkipsZeroTypeSize(t *testing.T) {
	frame := &fakeFrame{}
	memory := newFakeMemory()
	defs := []paramDef{{typeName: "void", typeSize: 0, paramName: "v"}}

	if got := recoverParameters(defs, frame, memory); got != nil {
		t.Errorf("expected zero-typeSize parameter to be dropped, got %+v", got)
	}
}

func TestFormatParamValuePointer(t *testing.T) {
	memory := newFakeMemory()
	memory.setWord(0x2000, 0xcafef00d)

	got := formatParamValue("void*", 8, 0x2000, memory)
	want := "0xcafef00d, 0d f0 fe ca 00 00 00 00"
	if err := testutils.CheckStringsEqual(want, got); err != nil {
		t.Errorf("formatParamValue(pointer) mismatch:\n%v", err)
	}
}

// An odd-sized or over-8-byte type gets no formatted word, only the raw hex
// dump: show_simple_type never applies outside typeSize%2==0 && typeSize<=8.
func TestFormatParamValueOddAndOversizedDumpOnly(t *testing.T) {
	memory := newFakeMemory()
	memory.setWord(0x3000, 0x01)

	got := formatParamValue("bool", 1, 0x3000, memory)
	want := "01"
	if err := testutils.CheckStringsEqual(want, got); err != nil {
		t.Errorf("formatParamValue(1-byte bool) mismatch:\n%v", err)
	}

	for i := uint64(8); i < 12; i++ {
		memory.bytes[0x3000+i] = 0
	}
	got = formatParamValue("LargeStruct", 12, 0x3000, memory)
	want = "01 00 00 00 00 00 00 00 00 00 00 00"
	if err := testutils.CheckStringsEqual(want, got); err != nil {
		t.Errorf("formatParamValue(12-byte struct) mismatch:\n%v", err)
	}
}
