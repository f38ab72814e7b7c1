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

// whitespaceDelims are the delimiters that separate fields within a record.
const whitespaceDelims = " \t\r\n"

// tokenize splits line into exactly n fields using any byte in delims as a
// separator. The first n-1 fields are each produced by skipping one run of
// leading delimiters and then scanning to the next delimiter; the final
// field captures everything that remains after skipping leading delimiters,
// and may itself contain delimiter bytes. This lets a trailing name or
// rule-string field contain spaces. tokenize fails if fewer than n fields
// can be produced, or if the final field would be empty.
func tokenize(line, delims string, n int) ([]string, bool) {
	if n <= 0 {
		return nil, false
	}

	tokens := make([]string, 0, n)
	rest := line
	for len(tokens) < n-1 {
		rest = strings.TrimLeft(rest, delims)
		if rest == "" {
			return nil, false
		}
		idx := strings.IndexAny(rest, delims)
		if idx < 0 {
			return nil, false
		}
		tokens = append(tokens, rest[:idx])
		rest = rest[idx:]
	}

	rest = strings.TrimLeft(rest, delims)
	if rest == "" {
		return nil, false
	}
	tokens = append(tokens, rest)
	return tokens, true
}

// isValidAfterNumber reports that a parsed integer is well-formed: the
// characters following the consumed digits must be either end-of-string or
// a whitespace delimiter.
func isValidAfterNumber(after string) bool {
	if after == "" {
		return true
	}
	return strings.IndexByte(whitespaceDelims, after[0]) >= 0
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isDecimalDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// parseHexU64 parses the leading hex digits of tok as a uint64 and requires
// the remainder to be a valid number terminator (see isValidAfterNumber).
// It reports failure if no digits were consumed.
func parseHexU64(tok string) (uint64, bool) {
	end := 0
	for end < len(tok) && isHexDigit(tok[end]) {
		end++
	}
	if end == 0 {
		return 0, false
	}
	var v uint64
	for i := 0; i < end; i++ {
		v = v<<4 | uint64(hexVal(tok[i]))
	}
	return v, isValidAfterNumber(tok[end:])
}

// parseHexU64Full is like parseHexU64 but requires the entire token to be
// consumed by digits, with no trailing terminator permitted. It is used for
// the sub-fields of parameter metadata, which arrive already isolated by a
// delimiter and so must be either a clean number or nothing.
func parseHexU64Full(tok string) (uint64, bool) {
	if tok == "" {
		return 0, false
	}
	for i := 0; i < len(tok); i++ {
		if !isHexDigit(tok[i]) {
			return 0, false
		}
	}
	var v uint64
	for i := 0; i < len(tok); i++ {
		v = v<<4 | uint64(hexVal(tok[i]))
	}
	return v, true
}

func hexVal(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

// parseHexI64 is like parseHexU64 but accepts an optional leading '-', for
// fields the grammar treats as a signed long encoded in hex (stack_param_size).
func parseHexI64(tok string) (int64, bool) {
	neg := false
	rest := tok
	if rest != "" && rest[0] == '-' {
		neg = true
		rest = rest[1:]
	}
	end := 0
	for end < len(rest) && isHexDigit(rest[end]) {
		end++
	}
	if end == 0 {
		return 0, false
	}
	var v int64
	for i := 0; i < end; i++ {
		v = v<<4 | int64(hexVal(rest[i]))
	}
	if neg {
		v = -v
	}
	return v, isValidAfterNumber(rest[end:])
}

// parseDecimalI64 parses a leading, optionally negative, run of decimal
// digits as an int64 and requires the remainder to be a valid number
// terminator.
func parseDecimalI64(tok string) (int64, bool) {
	neg := false
	rest := tok
	if rest != "" && rest[0] == '-' {
		neg = true
		rest = rest[1:]
	}
	end := 0
	for end < len(rest) && isDecimalDigit(rest[end]) {
		end++
	}
	if end == 0 {
		return 0, false
	}
	var v int64
	for i := 0; i < end; i++ {
		v = v*10 + int64(rest[i]-'0')
	}
	if neg {
		v = -v
	}
	return v, isValidAfterNumber(rest[end:])
}
