/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"strings"
	"unicode/utf8"
)

// DefaultLineWidth is the maximum rendered dialogue line length in characters.
const DefaultLineWidth = 56

// Wrap splits text into lines of at most maxLen characters, spreading the text
// evenly over the minimum number of lines instead of filling each line greedily.
// Words are never split; a single word longer than maxLen gets its own line.
// Text that already fits is returned unchanged.
func Wrap(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = DefaultLineWidth
	}
	total := utf8.RuneCountInString(text)
	if total <= maxLen {
		return []string{text}
	}
	linesNeeded := (total + maxLen - 1) / maxLen
	target := (total + linesNeeded - 1) / linesNeeded
	if target > maxLen {
		target = maxLen
	}

	var (
		out    []string
		cur    strings.Builder
		curLen int
	)
	for _, w := range strings.Fields(text) {
		wl := utf8.RuneCountInString(w)
		switch {
		case cur.Len() == 0:
			cur.WriteString(w)
			curLen = wl
		case curLen+1+wl > target:
			out = append(out, cur.String())
			cur.Reset()
			cur.WriteString(w)
			curLen = wl
		default:
			cur.WriteByte(' ')
			cur.WriteString(w)
			curLen += 1 + wl
		}
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}
