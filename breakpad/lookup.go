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

// LookupAddress resolves address (module-relative) into a Symbol. It first
// tries a FUNC record actually covering address, falling back to the
// nearest PUBLIC record that lies past whatever function (if any) failed
// to cover it.
func (m *module) LookupAddress(address uint64, frame FrameView, memory MemoryView) Symbol {
	var sym Symbol

	f, funcBase, funcSize, funcOK := m.functions.retrieveNearest(address)
	if funcOK && covers(funcBase, funcSize, address) {
		sym.Function = f.name
		sym.FunctionBase = funcBase

		if line, lineBase, _, ok := f.lines.retrieveRange(address); ok {
			sym.File = m.files[line.fileID]
			sym.Line = line.line
			sym.LineBase = lineBase
		}

		if frame != nil && memory != nil {
			sym.Params = recoverParameters(f.params, frame, memory)
		}
		return sym
	}

	if p, pAddr, ok := m.publics.retrieve(address); ok {
		if !funcOK || pAddr > funcBase {
			sym.Function = p.name
			sym.FunctionBase = pAddr
		}
	}

	return sym
}
