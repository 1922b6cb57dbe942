/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import "strings"

// Labels holds the localized line prefixes recognized by the parser and the
// sentinel values used for missing fields.
// Prefixes are matched case-insensitively after trimming the line.
type Labels struct {
	SceneMarker      string `yaml:"scene_marker"`
	Place            string `yaml:"place"`
	Character        string `yaml:"character"`
	Dialogue         string `yaml:"dialogue"`
	Onomatopoeia     string `yaml:"onomatopoeia"`
	EmotionSeparator string `yaml:"emotion_separator"`
	Separator        string `yaml:"separator"`

	UnknownCharacter string `yaml:"unknown_character"`
	UndefinedEmotion string `yaml:"undefined_emotion"`
	EmptyDialogue    string `yaml:"empty_dialogue"`
}

// DefaultLabels matches the Spanish form deployment.
var DefaultLabels = Labels{
	SceneMarker:      "=== escena",
	Place:            "lugar:",
	Character:        "personaje:",
	Dialogue:         "diálogo:",
	Onomatopoeia:     "onomatopeya:",
	EmotionSeparator: "| emoción:",
	Separator:        "---",

	UnknownCharacter: "Desconocido",
	UndefinedEmotion: "Indefinida",
	EmptyDialogue:    "Diálogo vacío",
}

// withDefaults fills blank fields from DefaultLabels.
func (l Labels) withDefaults() Labels {
	d := DefaultLabels
	if strings.TrimSpace(l.SceneMarker) != "" {
		d.SceneMarker = l.SceneMarker
	}
	if strings.TrimSpace(l.Place) != "" {
		d.Place = l.Place
	}
	if strings.TrimSpace(l.Character) != "" {
		d.Character = l.Character
	}
	if strings.TrimSpace(l.Dialogue) != "" {
		d.Dialogue = l.Dialogue
	}
	if strings.TrimSpace(l.Onomatopoeia) != "" {
		d.Onomatopoeia = l.Onomatopoeia
	}
	if strings.TrimSpace(l.EmotionSeparator) != "" {
		d.EmotionSeparator = l.EmotionSeparator
	}
	if strings.TrimSpace(l.Separator) != "" {
		d.Separator = l.Separator
	}
	if l.UnknownCharacter != "" {
		d.UnknownCharacter = l.UnknownCharacter
	}
	if l.UndefinedEmotion != "" {
		d.UndefinedEmotion = l.UndefinedEmotion
	}
	if l.EmptyDialogue != "" {
		d.EmptyDialogue = l.EmptyDialogue
	}
	return d
}

// lineKind classifies a transcript line.
type lineKind int

const (
	lineOther lineKind = iota
	lineSceneMarker
	linePlace
	lineCharacter
	lineDialogue
	lineOnomatopoeia
	lineSeparator
)

// classify returns the kind of line and the remainder after its label, trimmed.
// The scene marker carries no remainder.
func (l Labels) classify(line string) (lineKind, string) {
	lower := strings.ToLower(line)
	switch {
	case hasLabel(lower, l.SceneMarker):
		return lineSceneMarker, ""
	case hasLabel(lower, l.Place):
		return linePlace, afterLabel(line, lower, l.Place)
	case hasLabel(lower, l.Character):
		return lineCharacter, afterLabel(line, lower, l.Character)
	case hasLabel(lower, l.Dialogue):
		return lineDialogue, afterLabel(line, lower, l.Dialogue)
	case hasLabel(lower, l.Onomatopoeia):
		return lineOnomatopoeia, afterLabel(line, lower, l.Onomatopoeia)
	case hasLabel(lower, l.Separator):
		return lineSeparator, ""
	}
	return lineOther, ""
}

func hasLabel(lower, label string) bool {
	return label != "" && strings.HasPrefix(lower, strings.ToLower(label))
}

// afterLabel cuts the label off the original line. Lowercasing can change the
// byte length of some runes, so the cut is computed on the lowered label and
// mapped back by rune count.
func afterLabel(line, lower, label string) string {
	ll := strings.ToLower(label)
	if len(lower) == len(line) {
		return strings.TrimSpace(line[len(ll):])
	}
	n := len([]rune(ll))
	r := []rune(line)
	if n > len(r) {
		return ""
	}
	return strings.TrimSpace(string(r[n:]))
}

// splitCharacter splits "Ana | Emoción: Feliz" into name and emotion.
func (l Labels) splitCharacter(raw string) (name, emotion string) {
	lower := strings.ToLower(raw)
	sep := strings.ToLower(l.EmotionSeparator)
	if sep == "" {
		return strings.TrimSpace(raw), l.UndefinedEmotion
	}
	i := strings.Index(lower, sep)
	if i < 0 {
		return strings.TrimSpace(raw), l.UndefinedEmotion
	}
	if len(lower) != len(raw) {
		// fall back to rune positions when lowering changed byte widths
		ri := len([]rune(lower[:i]))
		rs := len([]rune(sep))
		r := []rune(raw)
		return strings.TrimSpace(string(r[:ri])), strings.TrimSpace(string(r[ri+rs:]))
	}
	return strings.TrimSpace(raw[:i]), strings.TrimSpace(raw[i+len(sep):])
}
