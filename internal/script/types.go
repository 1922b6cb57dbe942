/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package script turns the plain-text transcript produced by the dialogue form
// into scenes and renders those scenes as a shooting script.
//
// A transcript looks like:
//
//	=== Escena #1 ===
//	Lugar: Cocina
//	Personaje: Ana | Emoción: Feliz
//	Diálogo: Hola a todos
//	Onomatopeya: Jaja
//	-----------------------------
//
// Parsing is best effort: unknown lines are skipped and missing fields fall back
// to sentinel values. Rendering adds randomized staging annotations drawn from
// fixed catalogs through an injectable RandomSource.
package script

// Scene is one segment of the transcript between scene markers.
type Scene struct {
	Place     string
	Dialogues []Dialogue
}

// Empty reports whether the scene has neither a place nor dialogue.
func (s Scene) Empty() bool {
	return s.Place == "" && len(s.Dialogues) == 0
}

// Dialogue is one character's spoken line with its emotion tag and optional
// onomatopoeia cue.
type Dialogue struct {
	Character    string
	Emotion      string
	Text         string
	Onomatopoeia string
}

// DialogueCount returns the number of dialogue records across scenes.
func DialogueCount(scenes []Scene) int {
	n := 0
	for _, s := range scenes {
		n += len(s.Dialogues)
	}
	return n
}
