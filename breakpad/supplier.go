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

// SupplierRequest identifies the code module a Supplier is asked to find
// symbols for: a debug file name and the unique identifier for one built
// version of it.
type SupplierRequest struct {
	// ModuleName is the debug file name of the code module.
	ModuleName string

	// Identifier is the unique identifier for this version of the module.
	Identifier string
}

// SupplierResponse is delivered on a Supplier's TableForModule channel: the
// raw symbol-file bytes for the requested module, ready to hand to Load, or
// the error that prevented fetching them.
type SupplierResponse struct {
	// Error is set if the SupplierRequest could not be serviced.
	Error error

	// Data is the symbol-file contents for the requested module.
	Data []byte
}

// Supplier locates and fetches Breakpad symbol-file bytes for code modules.
// It does not parse them; LoadFromSupplier is the bridge from a
// SupplierResponse to a built SymbolTable.
type Supplier interface {
	// FilterAvailableModules lets a Supplier narrow a list of candidate
	// modules down to the ones it has any hope of servicing, avoiding
	// unnecessary round trips to a backend. A Supplier with no such
	// knowledge returns modules unchanged.
	FilterAvailableModules(modules []SupplierRequest) []SupplierRequest

	// TableForModule fetches symbol-file bytes for request asynchronously,
	// returning a channel the caller receives the single response from.
	TableForModule(request SupplierRequest) <-chan SupplierResponse
}

// LoadFromSupplier fetches request's symbol-file bytes from supplier and
// parses them into a SymbolTable.
func LoadFromSupplier(supplier Supplier, request SupplierRequest) (SymbolTable, error) {
	resp := <-supplier.TableForModule(request)
	if resp.Error != nil {
		return nil, resp.Error
	}
	return Load(resp.Data)
}

// AnnotatedFrame is one stack frame together with the code module in which
// its instruction address resides.
type AnnotatedFrame struct {
	Address uint64
	Module  SupplierRequest
}

// AnnotatedFrameService looks up the callstack, as AnnotatedFrames, that a
// crash report recorded under some report-specific key (for example, the
// key naming which thread crashed).
type AnnotatedFrameService interface {
	// GetAnnotatedFrames returns the callstack recorded under key in the
	// crash report identified by reportID.
	GetAnnotatedFrames(reportID, key string) ([]AnnotatedFrame, error)
}

// ModuleInfoService looks up which code modules shipped in a given product
// and version, so their symbols can be requested from a Supplier.
type ModuleInfoService interface {
	// GetModulesForProduct returns the modules that shipped in product at
	// version.
	GetModulesForProduct(product, version string) ([]SupplierRequest, error)
}
