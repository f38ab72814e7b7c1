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

// CFIRuleSet accumulates the DWARF Call Frame Information rules that apply
// at a queried address: the initial rule set from a STACK CFI INIT record,
// refined by zero or more STACK CFI delta records up to and including the
// queried address. Its contents are entirely owned and interpreted by the
// CFIRuleParser that filled it; the core treats it as opaque.
type CFIRuleSet struct {
	Rules map[string]string
}

// CFIRuleParser turns one rule-string (the verbatim text following the
// address/size fields of a STACK CFI record) into entries in ruleSet. The
// core calls it once for the initial rules and once per applicable delta,
// in address order, letting later deltas override earlier ones the way the
// external evaluator expects.
type CFIRuleParser interface {
	ParseRules(ruleString string, ruleSet *CFIRuleSet) error
}

// CFIRulesAt composes the rule set that applies at address: the initial
// rules for the STACK CFI INIT range covering it, then every delta record
// at or before address within that range, applied in ascending order.
// Returns nil, nil if no INIT record covers address.
func (m *module) CFIRulesAt(address uint64, parser CFIRuleParser) (*CFIRuleSet, error) {
	initialRules, base, _, ok := m.cfiInitial.retrieveRange(address)
	if !ok {
		return nil, nil
	}

	ruleSet := &CFIRuleSet{Rules: make(map[string]string)}
	if err := parser.ParseRules(initialRules, ruleSet); err != nil {
		return nil, err
	}

	for i := m.cfiDelta.lowerBound(base); i < m.cfiDelta.len(); i++ {
		if m.cfiDelta.keys[i] > address {
			break
		}
		// A malformed delta is skipped, not fatal to the whole composition:
		// the walk keeps applying later deltas and returns whatever rules
		// were accumulated.
		parser.ParseRules(m.cfiDelta.values[i], ruleSet)
	}

	return ruleSet, nil
}
