/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mandatuvideo/internal/script"
)

func renderedSample(t *testing.T, dialogues int) string {
	t.Helper()
	var in strings.Builder
	in.WriteString("=== Escena #1 ===\nLugar: Cocina\n\n")
	for i := 0; i < dialogues; i++ {
		in.WriteString("Personaje: Ana | Emoción: Feliz\nDiálogo: Hola a todos, qué alegría verlos aquí reunidos esta tarde\nOnomatopeya: Jaja\n\n")
	}
	in.WriteString("=== Escena #2 ===\nLugar: Jardín\n\nPersonaje: Luis | Emoción: Triste\nDiálogo: Adiós\n")
	return script.Transform(script.Parser{}, script.NewRenderer(script.NewRandSource(7)), in.String())
}

func TestWriteScriptPDF(t *testing.T) {
	var buf bytes.Buffer
	pages, err := WriteScriptPDF(&buf, "ana_20250115103000_RENDERIZAR", renderedSample(t, 2), PDFOptions{PageNumbers: true})
	if err != nil {
		t.Fatalf("WriteScriptPDF: %v", err)
	}
	if pages != 1 {
		t.Fatalf("pages = %d", pages)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a PDF")
	}
}

func TestWriteScriptPDFBreaksPages(t *testing.T) {
	var buf bytes.Buffer
	pages, err := WriteScriptPDF(&buf, "", renderedSample(t, 60), PDFOptions{PageSize: "Letter"})
	if err != nil {
		t.Fatalf("WriteScriptPDF: %v", err)
	}
	if pages < 2 {
		t.Fatalf("expected several pages, got %d", pages)
	}
}

func TestWriteScriptPDFEmpty(t *testing.T) {
	if _, err := WriteScriptPDF(&bytes.Buffer{}, "x", "  \n", PDFOptions{}); err == nil {
		t.Fatalf("expected error for empty script")
	}
}

func TestSaveScriptPDF(t *testing.T) {
	out := filepath.Join(t.TempDir(), "pdf", "a.pdf")
	if _, err := SaveScriptPDF(out, "a", renderedSample(t, 1), PDFOptions{}); err != nil {
		t.Fatalf("SaveScriptPDF: %v", err)
	}
	st, err := os.Stat(out)
	if err != nil || st.Size() == 0 {
		t.Fatalf("pdf missing: %v", err)
	}
	ents, _ := os.ReadDir(filepath.Dir(out))
	if len(ents) != 1 {
		t.Fatalf("temp files left behind: %d entries", len(ents))
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		in   string
		want lineStyle
		text string
	}{
		{"", styleBlank, ""},
		{script.ScriptHeader, styleHeader, script.ScriptHeader},
		{script.SceneBreak, styleBreak, script.SceneBreak},
		{"**Cocina**", stylePlace, "Cocina"},
		{"[Ana] (3 segundos | Feliz | Sonríe)", styleCue, "[Ana] (3 segundos | Feliz | Sonríe)"},
		{"Hola (PP Ana)", styleBody, "Hola (PP Ana)"},
	}
	for _, c := range cases {
		got, text := classify(c.in)
		if got != c.want || text != c.text {
			t.Fatalf("classify(%q) = %v %q", c.in, got, text)
		}
	}
}
