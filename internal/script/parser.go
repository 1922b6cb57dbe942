/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import "strings"

// Parser converts transcripts into scenes using a set of localized labels.
// The zero value uses DefaultLabels.
type Parser struct {
	Labels Labels
}

// Parse parses a transcript with DefaultLabels.
func Parse(transcript string) []Scene {
	return Parser{}.Parse(transcript)
}

// Parse converts a line-oriented transcript into scenes.
// Supported syntax:
//   - "=== Escena ..." starts a new scene.
//   - "Lugar: X" sets the place of the open scene.
//   - "Personaje: Name | Emoción: E" opens a dialogue record.
//   - "Diálogo: text" sets the text of the open record; the record stays open
//     waiting for an optional onomatopoeia.
//   - "Onomatopeya: X" attaches the cue and closes the record.
//   - Separator lines ("---") and anything else are ignored.
//
// Parse never fails; missing fields fall back to the sentinels in Labels and
// scenes with neither a place nor dialogue are dropped.
func (p Parser) Parse(transcript string) []Scene {
	m := newMachine(p.Labels.withDefaults())
	for _, line := range strings.Split(transcript, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m.step(line)
	}
	return m.finish()
}

// pendingState is the state of the dialogue accumulator.
type pendingState int

const (
	noPending pendingState = iota
	pendingDialogue
)

// machine carries the parse state across lines. Transitions happen in step;
// flush and pushScene are the only places records leave the accumulators.
type machine struct {
	labels  Labels
	scenes  []Scene
	scene   *Scene
	state   pendingState
	pending Dialogue
}

func newMachine(l Labels) *machine {
	return &machine{labels: l}
}

func (m *machine) step(line string) {
	kind, rest := m.labels.classify(line)
	switch kind {
	case lineSceneMarker:
		m.flush()
		m.pushScene()
		m.scene = &Scene{}
	case linePlace:
		if m.scene != nil {
			m.scene.Place = rest
		}
	case lineCharacter:
		m.flush()
		name, emotion := m.labels.splitCharacter(rest)
		m.open(name, emotion)
	case lineDialogue:
		if m.state == noPending {
			m.open("", "")
		}
		m.pending.Text = rest
	case lineOnomatopoeia:
		if m.state == noPending {
			m.open("", "")
		}
		m.pending.Onomatopoeia = rest
		m.flush()
	case lineSeparator, lineOther:
	}
}

// open starts a new pending dialogue.
func (m *machine) open(name, emotion string) {
	m.state = pendingDialogue
	m.pending = Dialogue{Character: name, Emotion: emotion}
}

// flush moves the pending dialogue into the open scene. A record pending
// before any scene marker opens an implicit scene so it is not lost.
func (m *machine) flush() {
	if m.state == noPending {
		return
	}
	d := m.pending
	if d.Character == "" {
		d.Character = m.labels.UnknownCharacter
	}
	if d.Emotion == "" {
		d.Emotion = m.labels.UndefinedEmotion
	}
	if d.Text == "" {
		d.Text = m.labels.EmptyDialogue
	}
	if m.scene == nil {
		m.scene = &Scene{}
	}
	m.scene.Dialogues = append(m.scene.Dialogues, d)
	m.state = noPending
	m.pending = Dialogue{}
}

func (m *machine) pushScene() {
	if m.scene == nil {
		return
	}
	if !m.scene.Empty() {
		m.scenes = append(m.scenes, *m.scene)
	}
	m.scene = nil
}

func (m *machine) finish() []Scene {
	m.flush()
	m.pushScene()
	if m.scenes == nil {
		return []Scene{}
	}
	return m.scenes
}
