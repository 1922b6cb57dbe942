/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"fmt"
	"strings"
)

const (
	// ScriptHeader opens every rendered script.
	ScriptHeader = "–Script–"
	// SceneBreak separates consecutive scenes.
	SceneBreak = "---Cambio de escena---"
)

// OnomatopoeiaMode selects how onomatopoeia cues are rendered.
type OnomatopoeiaMode string

const (
	// OnomatopoeiaLine renders the cue on its own "OSD (cue) (PP name)" line.
	OnomatopoeiaLine OnomatopoeiaMode = "line"
	// OnomatopoeiaInline folds the cue into the last dialogue line's annotation.
	OnomatopoeiaInline OnomatopoeiaMode = "inline"
)

// RenderOptions control the layout of rendered dialogue blocks.
type RenderOptions struct {
	MaxLineWidth int              `yaml:"max_line_width"`
	NumberLines  bool             `yaml:"number_lines"`
	Onomatopoeia OnomatopoeiaMode `yaml:"onomatopoeia"`
}

// Renderer formats scenes as a shooting script.
// Rand and every catalog must be non-empty; Options fall back to defaults.
type Renderer struct {
	Rand     RandomSource
	Catalogs Catalogs
	Options  RenderOptions
}

// NewRenderer returns a Renderer with default catalogs and options.
func NewRenderer(r RandomSource) Renderer {
	return Renderer{Rand: r, Catalogs: DefaultCatalogs()}
}

// Render produces the script text for scenes:
//
//	[Ana] (3 segundos | Feliz | Se inclina hacia la cámara)
//	Hola a todos (PP Ana)
//	OSD (Jaja) (PP Ana)
//
//	**Cocina**
//
// Each dialogue gets a random duration and action; each wrapped line gets a
// random camera effect. Trailing whitespace is trimmed.
func (r Renderer) Render(scenes []Scene) string {
	if r.Rand == nil {
		panic("script: Renderer.Rand is nil")
	}
	cat := r.Catalogs
	width := r.Options.MaxLineWidth
	if width <= 0 {
		width = DefaultLineWidth
	}

	var b strings.Builder
	b.WriteString(ScriptHeader)
	b.WriteString("\n\n")
	for i, sc := range scenes {
		for _, d := range sc.Dialogues {
			r.renderDialogue(&b, cat, width, d)
		}
		if sc.Place != "" {
			fmt.Fprintf(&b, "**%s**\n", sc.Place)
		}
		if i < len(scenes)-1 {
			b.WriteString("\n" + SceneBreak + "\n\n")
		}
	}
	return strings.TrimSpace(b.String())
}

func (r Renderer) renderDialogue(b *strings.Builder, cat Catalogs, width int, d Dialogue) {
	duration := pick(r.Rand, cat.Durations)
	action := pick(r.Rand, cat.Actions)
	fmt.Fprintf(b, "[%s] (%s | %s | %s)\n", d.Character, duration, d.Emotion, action)

	ono := strings.TrimSpace(d.Onomatopoeia)
	inline := ono != "" && r.Options.Onomatopoeia == OnomatopoeiaInline
	lines := Wrap(d.Text, width)
	for i, line := range lines {
		note := r.cameraNote(cat, d.Character)
		if inline && i == len(lines)-1 {
			note += " | OSD " + ono
		}
		if r.Options.NumberLines {
			fmt.Fprintf(b, "%d. ", i+1)
		}
		fmt.Fprintf(b, "%s (%s)\n", line, note)
	}
	if ono != "" && !inline {
		fmt.Fprintf(b, "OSD (%s) (%s %s)\n", ono, PPEffect, d.Character)
	}
	b.WriteString("\n")
}

// cameraNote returns the text inside a wrapped line's trailing parenthesis.
func (r Renderer) cameraNote(cat Catalogs, character string) string {
	effect := pick(r.Rand, cat.CameraEffects)
	if effect == PPEffect {
		return PPEffect + " " + character
	}
	return effect
}

// Transform parses transcript with p and renders the result with r.
func Transform(p Parser, r Renderer, transcript string) string {
	return r.Render(p.Parse(transcript))
}
