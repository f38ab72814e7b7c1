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

import "testing"

func TestTokenize(t *testing.T) {
	cases := []struct {
		line   string
		delims string
		n      int
		want   []string
		ok     bool
	}{
		{"FILE 1 a.c", " ", 3, []string{"FILE", "1", "a.c"}, true},
		{"FILE 1 a b c.c", " ", 3, []string{"FILE", "1", "a b c.c"}, true},
		{"a#b#c", "#", 3, []string{"a", "b", "c"}, true},
		{"a#b", "#", 3, nil, false},
		{"   ", " ", 1, nil, false},
		{"", " ", 1, nil, false},
		{"solo", " ", 1, []string{"solo"}, true},
	}

	for _, c := range cases {
		got, ok := tokenize(c.line, c.delims, c.n)
		if ok != c.ok {
			t.Errorf("tokenize(%q, %q, %d) ok = %v, want %v", c.line, c.delims, c.n, ok, c.ok)
			continue
		}
		if !ok {
			continue
		}
		if len(got) != len(c.want) {
			t.Fatalf("tokenize(%q, %q, %d) = %v, want %v", c.line, c.delims, c.n, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("tokenize(%q, %q, %d)[%d] = %q, want %q", c.line, c.delims, c.n, i, got[i], c.want[i])
			}
		}
	}
}

func TestParseHexU64(t *testing.T) {
	cases := []struct {
		tok  string
		want uint64
		ok   bool
	}{
		{"1f4a9", 0x1f4a9, true},
		{"0", 0, true},
		{"ffffffffffffffff", 0xffffffffffffffff, true},
		{"1f4a9 20", 0x1f4a9, true},
		{"1f4a9x", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, ok := parseHexU64(c.tok)
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("parseHexU64(%q) = (%x, %v), want (%x, %v)", c.tok, got, ok, c.want, c.ok)
		}
	}
}

func TestParseHexI64Negative(t *testing.T) {
	got, ok := parseHexI64("-8")
	if !ok || got != -8 {
		t.Errorf("parseHexI64(-8) = (%d, %v), want (-8, true)", got, ok)
	}
}

func TestParseDecimalI64(t *testing.T) {
	cases := []struct {
		tok  string
		want int64
		ok   bool
	}{
		{"42", 42, true},
		{"0", 0, true},
		{"-1", -1, true},
		{"1a", 0, false},
	}
	for _, c := range cases {
		got, ok := parseDecimalI64(c.tok)
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("parseDecimalI64(%q) = (%d, %v), want (%d, %v)", c.tok, got, ok, c.want, c.ok)
		}
	}
}
