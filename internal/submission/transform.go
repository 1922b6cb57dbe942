/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package submission

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"mandatuvideo/internal/script"
)

const (
	// DefaultUser replaces a missing usuario.
	DefaultUser = "usuario_desconocido"
	// RenderSuffix marks rendered records in titles and storage keys.
	RenderSuffix = "_RENDERIZAR"
	// StatusToProcess is the status of a freshly rendered record.
	StatusToProcess = "procesar"

	sendDateLayout = "20060102150405"
)

// ErrInvalidTimestamp is returned when momento is not an ISO-8601 timestamp.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// Rendered is the record produced by the transform.
type Rendered struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	URL      string `json:"url"`
	Status   string `json:"status"`
	SendDate string `json:"sendDate"`
	Otros    Otros  `json:"otros"`
}

// Result pairs the updated source envelope with its rendered record.
type Result struct {
	Original *Envelope
	Rendered Rendered
}

// Transformer runs the parse and render pipeline over envelopes.
// Now defaults to time.Now and is only used when momento is missing.
type Transformer struct {
	Parser   script.Parser
	Renderer script.Renderer
	Now      func() time.Time
}

// Transform renders env if it is still pending.
// It returns (nil, nil) when otros is missing or otros.transformado is not the
// string "false". On success env.Otros.transformado is set to "true" and env is
// otherwise left as it was. An unparseable momento yields ErrInvalidTimestamp
// and leaves env untouched.
func (t Transformer) Transform(env *Envelope) (*Result, error) {
	if env == nil || !env.Otros.Pending() {
		return nil, nil
	}
	user := env.Usuario
	if user == "" {
		user = DefaultUser
	}
	var ts time.Time
	if strings.TrimSpace(env.Momento) == "" {
		now := time.Now
		if t.Now != nil {
			now = t.Now
		}
		ts = now()
	} else {
		parsed, err := ParseTimestamp(env.Momento)
		if err != nil {
			return nil, err
		}
		ts = parsed
	}
	stamp := ts.UTC().Format(sendDateLayout)

	content := script.Transform(t.Parser, t.Renderer, env.Contenido)

	env.Otros[FlagTransformed] = "true"
	return &Result{
		Original: env,
		Rendered: Rendered{
			Title:    user + "_" + stamp + RenderSuffix,
			Content:  content,
			URL:      user,
			Status:   StatusToProcess,
			SendDate: stamp,
			Otros:    env.Otros.Clone(),
		},
	}, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp. Values without a zone are read
// as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}

// RenderedKey returns the storage key of the rendered record for key.
func RenderedKey(key string) string {
	return key + RenderSuffix
}

// IsRenderedKey reports whether key names a rendered record.
func IsRenderedKey(key string) bool {
	return strings.HasSuffix(key, RenderSuffix)
}

var (
	unsafeUserChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
	timestampPunct  = regexp.MustCompile(`[:.]`)
)

// Key builds the storage key for a new submission:
// <usuario with unsafe characters replaced>_<momento with ":" and "." replaced>_<suffix>.
func Key(usuario, momento, suffix string) string {
	return unsafeUserChars.ReplaceAllString(usuario, "_") + "_" + timestampPunct.ReplaceAllString(momento, "-") + "_" + suffix
}
