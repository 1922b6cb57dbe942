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
	"testing"
)

// firstPick always selects the first catalog entry.
var firstPick = RandomFunc(func(int) int { return 0 })

func exampleScene() []Scene {
	return []Scene{{
		Place: "Cocina",
		Dialogues: []Dialogue{{
			Character:    "Ana",
			Emotion:      "Feliz",
			Text:         "Hola a todos",
			Onomatopoeia: "Jaja",
		}},
	}}
}

func TestRenderExampleScene(t *testing.T) {
	got := NewRenderer(firstPick).Render(exampleScene())
	want := "–Script–\n\n" +
		"[Ana] (3 segundos | Feliz | Se inclina hacia la cámara)\n" +
		"Hola a todos (PP Ana)\n" +
		"OSD (Jaja) (PP Ana)\n" +
		"\n" +
		"**Cocina**"
	if got != want {
		t.Fatalf("render mismatch:\n got %q\nwant %q", got, want)
	}
}

func TestRenderSceneBreakBetweenScenes(t *testing.T) {
	scenes := append(exampleScene(), Scene{Place: "Tren", Dialogues: []Dialogue{{Character: "Bo", Emotion: "Serio", Text: "Ya llegamos"}}})
	out := NewRenderer(firstPick).Render(scenes)
	if c := strings.Count(out, SceneBreak); c != 1 {
		t.Fatalf("expected 1 scene break, got %d in %q", c, out)
	}
	if !strings.Contains(out, "**Cocina**\n\n"+SceneBreak+"\n\n[Bo]") {
		t.Fatalf("scene break not laid out as expected: %q", out)
	}
	if !strings.HasSuffix(out, "**Tren**") {
		t.Fatalf("expected output to end with last place, got %q", out)
	}
	if strings.Count(out, "OSD") != 1 {
		t.Fatalf("expected OSD only for the dialogue with onomatopoeia: %q", out)
	}
}

func TestRenderEmptyScenesIsHeaderOnly(t *testing.T) {
	if got := NewRenderer(firstPick).Render(nil); got != ScriptHeader {
		t.Fatalf("expected header only, got %q", got)
	}
}

func TestRenderSceneWithoutPlace(t *testing.T) {
	out := NewRenderer(firstPick).Render([]Scene{{Dialogues: []Dialogue{{Character: "Ana", Emotion: "Feliz", Text: "Hola"}}}})
	if strings.Contains(out, "**") {
		t.Fatalf("no place marker expected: %q", out)
	}
}

func TestRenderNonPPEffect(t *testing.T) {
	// durations, actions, then effects index 1 ("PA-D*1.2")
	picks := []int{0, 0, 1}
	i := 0
	r := NewRenderer(RandomFunc(func(n int) int {
		v := picks[i%len(picks)]
		i++
		return v
	}))
	out := r.Render([]Scene{{Dialogues: []Dialogue{{Character: "Ana", Emotion: "Feliz", Text: "Hola"}}}})
	if !strings.Contains(out, "Hola (PA-D*1.2)") {
		t.Fatalf("expected plain effect annotation, got %q", out)
	}
}

func TestRenderWrapsLongDialogue(t *testing.T) {
	text := strings.Repeat("palabra ", 20) + "fin"
	out := NewRenderer(firstPick).Render([]Scene{{Dialogues: []Dialogue{{Character: "Ana", Emotion: "Feliz", Text: text}}}})
	if n := strings.Count(out, "(PP Ana)"); n != len(Wrap(text, DefaultLineWidth)) {
		t.Fatalf("expected one annotation per wrapped line, got %d in %q", n, out)
	}
}

func TestRenderNumberedLines(t *testing.T) {
	text := strings.Repeat("uno dos tres ", 8)
	r := NewRenderer(firstPick)
	r.Options.NumberLines = true
	out := r.Render([]Scene{{Dialogues: []Dialogue{{Character: "Ana", Emotion: "Feliz", Text: text}}}})
	if !strings.Contains(out, "\n1. uno") || !strings.Contains(out, "\n2. ") {
		t.Fatalf("expected numbered lines, got %q", out)
	}
}

func TestRenderInlineOnomatopoeia(t *testing.T) {
	r := NewRenderer(firstPick)
	r.Options.Onomatopoeia = OnomatopoeiaInline
	out := r.Render(exampleScene())
	if strings.Contains(out, "OSD (") {
		t.Fatalf("inline mode should not emit an OSD line: %q", out)
	}
	if !strings.Contains(out, "Hola a todos (PP Ana | OSD Jaja)") {
		t.Fatalf("expected folded onomatopoeia, got %q", out)
	}
}

func TestRenderSeededIsDeterministic(t *testing.T) {
	scenes := Parse("=== Escena ===\nLugar: Sala\nPersonaje: Ana | Emoción: Feliz\nDiálogo: " + strings.Repeat("hola mundo ", 15))
	a := NewRenderer(NewRandSource(42)).Render(scenes)
	b := NewRenderer(NewRandSource(42)).Render(scenes)
	if a != b {
		t.Fatalf("same seed produced different scripts:\n%s\n---\n%s", a, b)
	}
}

func TestRenderEmptyCatalogPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for empty catalog")
		}
	}()
	r := Renderer{Rand: firstPick, Catalogs: Catalogs{Durations: []string{"3 segundos"}}}
	_ = r.Render(exampleScene())
}

func TestRenderOutOfRangePickPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for out-of-range pick")
		}
	}()
	_ = NewRenderer(RandomFunc(func(n int) int { return n })).Render(exampleScene())
}

func TestCatalogsOrDefaults(t *testing.T) {
	c := Catalogs{Actions: []string{"Salta"}}.OrDefaults()
	if len(c.Durations) != 5 || len(c.CameraEffects) != 8 {
		t.Fatalf("defaults not applied: %+v", c)
	}
	if len(c.Actions) != 1 || c.Actions[0] != "Salta" {
		t.Fatalf("custom actions overwritten: %+v", c.Actions)
	}
}

func TestTransform(t *testing.T) {
	out := Transform(Parser{}, NewRenderer(firstPick), "=== Escena #1 ===\nLugar: Cocina\nPersonaje: Ana | Emoción: Feliz\nDiálogo: Hola a todos\nOnomatopeya: Jaja")
	for _, want := range []string{
		"[Ana] (3 segundos | Feliz | Se inclina hacia la cámara)",
		"Hola a todos (PP Ana)",
		"OSD (Jaja) (PP Ana)",
		"**Cocina**",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}
