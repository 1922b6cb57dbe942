/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package submission holds the JSON envelopes exchanged with the storage
// backend and the gated transform that turns a raw submission into a rendered
// shooting-script record.
package submission

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// FlagTransformed is the key in Otros that gates the transform.
const FlagTransformed = "transformado"

// Otros carries the opaque metadata of a submission.
type Otros map[string]any

// Pending reports whether the transform has not yet run for this envelope.
// Only the literal string "false" counts as pending.
func (o Otros) Pending() bool {
	if o == nil {
		return false
	}
	v, ok := o[FlagTransformed].(string)
	return ok && v == "false"
}

// Clone returns a deep copy of o.
func (o Otros) Clone() Otros {
	if o == nil {
		return nil
	}
	return cloneValue(map[string]any(o)).(map[string]any)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = cloneValue(vv)
		}
		return m
	case Otros:
		return Otros(cloneValue(map[string]any(t)).(map[string]any))
	case []any:
		s := make([]any, len(t))
		for i, vv := range t {
			s[i] = cloneValue(vv)
		}
		return s
	case json.Number:
		return t
	default:
		return v
	}
}

// Envelope is a raw submission as written by the intake:
//
//	{"usuario": "...", "momento": "2025-01-02T03:04:05.000Z", "contenido": "...", "otros": {...}}
//
// Unknown top-level fields are kept and written back unchanged.
type Envelope struct {
	Usuario   string
	Momento   string
	Contenido string
	Otros     Otros

	extra map[string]json.RawMessage
}

var knownFields = []string{"usuario", "momento", "contenido", "otros"}

// UnmarshalJSON decodes the envelope and keeps unknown fields.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return errors.New("envelope is null")
	}
	*e = Envelope{}
	for _, f := range []struct {
		key string
		dst *string
	}{{"usuario", &e.Usuario}, {"momento", &e.Momento}, {"contenido", &e.Contenido}} {
		v, ok := raw[f.key]
		if !ok {
			continue
		}
		delete(raw, f.key)
		if string(v) == "null" {
			continue
		}
		if err := json.Unmarshal(v, f.dst); err != nil {
			return fmt.Errorf("field %s: %w", f.key, err)
		}
	}
	if v, ok := raw["otros"]; ok {
		delete(raw, "otros")
		if string(v) != "null" {
			// numbers stay json.Number so large ids survive a round trip
			dec := json.NewDecoder(bytes.NewReader(v))
			dec.UseNumber()
			var o map[string]any
			if err := dec.Decode(&o); err != nil {
				return fmt.Errorf("field otros: %w", err)
			}
			e.Otros = o
		}
	}
	if len(raw) > 0 {
		e.extra = raw
	}
	return nil
}

// MarshalJSON writes the known fields in intake order followed by any
// preserved unknown fields in key order.
func (e Envelope) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	vals := []any{e.Usuario, e.Momento, e.Contenido, e.Otros}
	for i, k := range knownFields {
		if i == 3 && e.Otros == nil {
			continue
		}
		if i > 0 {
			b.WriteByte(',')
		}
		if err := writeField(&b, k, vals[i]); err != nil {
			return nil, err
		}
	}
	keys := make([]string, 0, len(e.extra))
	for k := range e.extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(',')
		if err := writeField(&b, k, e.extra[k]); err != nil {
			return nil, err
		}
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

func writeField(b *bytes.Buffer, key string, v any) error {
	kb, err := marshal(key)
	if err != nil {
		return err
	}
	vb, err := marshal(v)
	if err != nil {
		return fmt.Errorf("field %s: %w", key, err)
	}
	b.Write(kb)
	b.WriteByte(':')
	b.Write(vb)
	return nil
}

// Decode parses an envelope from JSON.
func Decode(data []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return &e, nil
}

// marshal is json.Marshal without HTML escaping; transcripts are stored verbatim.
func marshal(v any) ([]byte, error) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(b.Bytes(), "\n"), nil
}

// Encode serializes v with two-space indentation, the layout used for stored
// records.
func Encode(v any) ([]byte, error) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(b.Bytes(), "\n"), nil
}
