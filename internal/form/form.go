/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package form builds dialogue transcripts from structured form input, the
// same text the web form submits and the script parser reads back.
package form

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"mandatuvideo/internal/submission"
)

// Fallbacks written for blank form fields.
const (
	NoPlace     = "Sin lugar definido"
	NoCharacter = "Personaje desconocido"
	NoEmotion   = "Sin emoción"
	NoDialogue  = "Diálogo vacío"
)

const sceneRule = "-----------------------------"

// ErrNoScenes is returned when a form has nothing to submit.
var ErrNoScenes = errors.New("form has no scenes")

// State is the content of a filled-in dialogue form.
type State struct {
	Usuario string         `yaml:"usuario"`
	Scenes  []Scene        `yaml:"scenes"`
	Otros   map[string]any `yaml:"otros,omitempty"`
}

// Scene is one scene block of the form.
type Scene struct {
	Place     string     `yaml:"place"`
	Dialogues []Dialogue `yaml:"dialogues"`
}

// Dialogue is one dialogue row of a scene block.
type Dialogue struct {
	Character    string `yaml:"character"`
	Emotion      string `yaml:"emotion"`
	Text         string `yaml:"text"`
	Onomatopoeia string `yaml:"onomatopoeia,omitempty"`
}

// Load decodes a YAML form state.
func Load(data []byte) (State, error) {
	var s State
	if err := yaml.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("decode form: %w", err)
	}
	return s, nil
}

// Transcript renders the form as a numbered scene transcript:
//
//	=== Escena #1 ===
//	Lugar: Cafetería
//
//	Personaje: Gata | Emoción: Feliz
//	Diálogo: Hola
//
//	-----------------------------
//
// Blank fields are replaced with the No* fallbacks.
func (s State) Transcript() (string, error) {
	if len(s.Scenes) == 0 {
		return "", ErrNoScenes
	}
	var b strings.Builder
	for i, sc := range s.Scenes {
		fmt.Fprintf(&b, "=== Escena #%d ===\n", i+1)
		fmt.Fprintf(&b, "Lugar: %s\n\n", orDefault(sc.Place, NoPlace))
		for _, d := range sc.Dialogues {
			fmt.Fprintf(&b, "Personaje: %s | Emoción: %s\n", orDefault(d.Character, NoCharacter), orDefault(d.Emotion, NoEmotion))
			fmt.Fprintf(&b, "Diálogo: %s\n", orDefault(d.Text, NoDialogue))
			if o := strings.TrimSpace(d.Onomatopoeia); o != "" {
				fmt.Fprintf(&b, "Onomatopeya: %s\n", o)
			}
			b.WriteString("\n")
		}
		b.WriteString(sceneRule + "\n\n")
	}
	return b.String(), nil
}

// Envelope wraps the transcript in a pending submission envelope stamped at now.
func (s State) Envelope(now time.Time) (*submission.Envelope, error) {
	text, err := s.Transcript()
	if err != nil {
		return nil, err
	}
	otros := submission.Otros{}
	for k, v := range s.Otros {
		otros[k] = v
	}
	otros[submission.FlagTransformed] = "false"
	return &submission.Envelope{
		Usuario:   orDefault(s.Usuario, submission.DefaultUser),
		Momento:   now.UTC().Format("2006-01-02T15:04:05.000Z"),
		Contenido: text,
		Otros:     otros,
	}, nil
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
