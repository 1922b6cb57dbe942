/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export lays out rendered scripts as printable documents.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"mandatuvideo/internal/script"
)

// PDFOptions controls the script layout. Units are points.
// Courier is used throughout so the character-based wrap of the renderer
// lines up on paper the way it does in the text record.
type PDFOptions struct {
	PageSize    string  // "A4" or "Letter"; default A4
	Margin      float64 // default 56
	FontSize    float64 // default 10
	PageNumbers bool
	Author      string
}

func (o PDFOptions) withDefaults() PDFOptions {
	if strings.TrimSpace(o.PageSize) == "" {
		o.PageSize = "A4"
	}
	if o.Margin <= 0 {
		o.Margin = 56
	}
	if o.FontSize <= 0 {
		o.FontSize = 10
	}
	if o.Author == "" {
		o.Author = "MandaTuVideo"
	}
	return o
}

// lineStyle classifies a rendered script line for typesetting.
type lineStyle int

const (
	styleBody lineStyle = iota
	styleHeader
	styleCue
	stylePlace
	styleBreak
	styleBlank
)

func classify(line string) (lineStyle, string) {
	t := strings.TrimSpace(line)
	switch {
	case t == "":
		return styleBlank, ""
	case t == script.ScriptHeader:
		return styleHeader, t
	case t == script.SceneBreak:
		return styleBreak, t
	case strings.HasPrefix(t, "**") && strings.HasSuffix(t, "**") && len(t) > 4:
		return stylePlace, strings.TrimSuffix(strings.TrimPrefix(t, "**"), "**")
	case strings.HasPrefix(t, "["):
		return styleCue, t
	}
	return styleBody, t
}

// WriteScriptPDF typesets a rendered script into w and returns the number of
// pages written.
func WriteScriptPDF(w io.Writer, title, content string, opt PDFOptions) (int, error) {
	if strings.TrimSpace(content) == "" {
		return 0, errors.New("script is empty")
	}
	opt = opt.withDefaults()

	pdf := gofpdf.New("P", "pt", opt.PageSize, "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(title, true)
	pdf.SetAuthor(opt.Author, true)
	pdf.SetCreator("mandatuvideo", false)
	pdf.SetMargins(opt.Margin, opt.Margin, opt.Margin)
	pdf.SetAutoPageBreak(true, opt.Margin)
	if opt.PageNumbers {
		pdf.AliasNbPages("")
		pdf.SetFooterFunc(func() {
			pdf.SetY(-opt.Margin / 2)
			pdf.SetFont("Courier", "", opt.FontSize-2)
			pdf.CellFormat(0, opt.FontSize, fmt.Sprintf("%d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
		})
	}
	pdf.AddPage()

	lh := opt.FontSize * 1.3
	if title != "" {
		pdf.SetFont("Courier", "B", opt.FontSize+2)
		pdf.MultiCell(0, lh, tr(title), "", "L", false)
		pdf.Ln(lh / 2)
	}
	for _, line := range strings.Split(content, "\n") {
		style, text := classify(line)
		switch style {
		case styleBlank:
			pdf.Ln(lh / 2)
			continue
		case styleHeader:
			pdf.SetFont("Courier", "B", opt.FontSize+4)
			pdf.MultiCell(0, lh*1.4, tr(text), "", "C", false)
			pdf.Ln(lh / 2)
			continue
		case styleBreak:
			pdf.SetFont("Courier", "I", opt.FontSize)
			pdf.MultiCell(0, lh, tr(text), "", "C", false)
			continue
		case stylePlace:
			pdf.SetFont("Courier", "BI", opt.FontSize)
		case styleCue:
			pdf.SetFont("Courier", "B", opt.FontSize)
		default:
			pdf.SetFont("Courier", "", opt.FontSize)
		}
		pdf.MultiCell(0, lh, tr(text), "", "L", false)
	}
	if err := pdf.Error(); err != nil {
		return 0, fmt.Errorf("layout pdf: %w", err)
	}
	pages := pdf.PageNo()
	if err := pdf.Output(w); err != nil {
		return 0, fmt.Errorf("write pdf: %w", err)
	}
	return pages, nil
}

// SaveScriptPDF writes the PDF to outPath, creating parent directories. The
// file is written to a temp name first and renamed into place.
func SaveScriptPDF(outPath, title, content string, opt PDFOptions) (int, error) {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return 0, fmt.Errorf("ensure out dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(outPath), ".pdf-*")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()
	pages, err := WriteScriptPDF(tmp, title, content, opt)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmpName, outPath)
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return 0, err
	}
	return pages, nil
}
