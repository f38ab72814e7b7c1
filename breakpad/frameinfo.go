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

// FrameInfoKind distinguishes the two Windows stack-unwind record shapes.
type FrameInfoKind int

const (
	// FrameData is the FRAME_DATA wire type, preferred over FPO when both
	// cover an address.
	FrameData FrameInfoKind = iota
	// FPO is the older Frame Pointer Omission wire type.
	FPO
)

// WindowsFrameInfo is an opaque carrier for a Windows stack-unwind record.
// The core never interprets Program; it exists so an external evaluator can
// be handed the verbatim unwind program for the address in question.
type WindowsFrameInfo struct {
	Kind FrameInfoKind
	Base uint64
	Size uint64

	// ParameterSize and HasParameterSize are set only on the fallback path
	// where no STACK WIN record covers the address but an enclosing
	// function's stack_param_size is available.
	ParameterSize    int64
	HasParameterSize bool

	// Program is the verbatim unwind program text following code_size in
	// the source STACK WIN record.
	Program string
}

// WindowsFrameInfoAt returns the Windows unwind information that applies at
// address, preferring a FRAME_DATA record over an FPO record when both
// cover it. Absent either, it falls back to a minimal carrier built from an
// enclosing function's stack_param_size.
func (m *module) WindowsFrameInfoAt(address uint64) *WindowsFrameInfo {
	if info, _, _, ok := m.windowsFrameInfo[frameInfoKindFrameData].retrieveRange(address); ok {
		copied := *info
		return &copied
	}
	if info, _, _, ok := m.windowsFrameInfo[frameInfoKindFPO].retrieveRange(address); ok {
		copied := *info
		return &copied
	}

	if f, base, size, ok := m.functions.retrieveNearest(address); ok && covers(base, size, address) {
		return &WindowsFrameInfo{
			ParameterSize:    f.stackParamSize,
			HasParameterSize: true,
		}
	}

	// Bounded public-symbol fallback: the original resolver allocates a
	// carrier and sets parameter_size on it here, but never returns it,
	// so this branch is observably equivalent to a miss. Replicated as
	// observed rather than "fixed".
	if p, _, ok := m.publics.retrieve(address); ok {
		_, funcBase, _, funcOK := m.functions.retrieveNearest(address)
		if !funcOK || p.address > funcBase {
			unused := &WindowsFrameInfo{
				ParameterSize:    p.stackParamSize,
				HasParameterSize: true,
			}
			_ = unused
		}
	}

	return nil
}
