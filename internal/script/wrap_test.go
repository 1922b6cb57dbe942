/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"math/rand/v2"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestWrapShortTextUnchanged(t *testing.T) {
	text := "Hola a todos"
	got := Wrap(text, 56)
	if len(got) != 1 || got[0] != text {
		t.Fatalf("expected unchanged text, got %q", got)
	}
	if got := Wrap("", 56); len(got) != 1 || got[0] != "" {
		t.Fatalf("expected single empty line, got %q", got)
	}
}

func TestWrap120CharsIntoThreeLines(t *testing.T) {
	text := strings.Repeat("abcdefghi ", 11) + "abcdefghij"
	if utf8.RuneCountInString(text) != 120 {
		t.Fatalf("fixture length %d", utf8.RuneCountInString(text))
	}
	lines := Wrap(text, 56)
	if len(lines) < 3 {
		t.Fatalf("expected at least 3 lines, got %d: %q", len(lines), lines)
	}
	for _, l := range lines {
		if utf8.RuneCountInString(l) > 56 {
			t.Fatalf("line too long (%d): %q", utf8.RuneCountInString(l), l)
		}
	}
}

func TestWrapBalancesLines(t *testing.T) {
	// 59 characters: greedy packing gives 54 + 4, equitable gives 29 + 29
	text := strings.Repeat("abcd ", 11) + "abcd"
	lines := Wrap(text, 56)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", lines)
	}
	for _, l := range lines {
		if n := utf8.RuneCountInString(l); n < 20 || n > 30 {
			t.Fatalf("unbalanced line length %d: %q", n, lines)
		}
	}
}

func TestWrapLongWordGetsOwnLine(t *testing.T) {
	long := strings.Repeat("x", 70)
	lines := Wrap("a "+long+" b", 56)
	if len(lines) != 3 || lines[1] != long {
		t.Fatalf("expected long word on its own line, got %q", lines)
	}
}

func TestWrapCountsRunesNotBytes(t *testing.T) {
	text := strings.Repeat("ñ", 50)
	if got := Wrap(text, 56); len(got) != 1 {
		t.Fatalf("50 runes should fit in 56, got %q", got)
	}
}

func TestWrapPreservesTokens(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 200; i++ {
		var words []string
		n := rng.IntN(40)
		longest := 0
		for j := 0; j < n; j++ {
			w := strings.Repeat("a", 1+rng.IntN(14))
			if rng.IntN(50) == 0 {
				w = strings.Repeat("b", 57+rng.IntN(10))
			}
			if len(w) > longest {
				longest = len(w)
			}
			words = append(words, w)
		}
		text := strings.Join(words, " ")
		lines := Wrap(text, 56)
		if got := strings.Join(lines, " "); got != strings.Join(strings.Fields(text), " ") {
			t.Fatalf("tokens not preserved:\n got %q\nwant %q", got, text)
		}
		for _, l := range lines {
			if utf8.RuneCountInString(l) > 56 && longest <= 56 {
				t.Fatalf("line over 56 without long word: %q", l)
			}
		}
	}
}

func TestWrapDefaultWidth(t *testing.T) {
	text := strings.Repeat("abc ", 30)
	a := Wrap(text, 0)
	b := Wrap(text, DefaultLineWidth)
	if strings.Join(a, "|") != strings.Join(b, "|") {
		t.Fatalf("non-positive width should use default: %q vs %q", a, b)
	}
}
