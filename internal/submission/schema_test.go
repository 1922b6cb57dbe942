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
	"testing"
)

func TestValidateEnvelope(t *testing.T) {
	good := `{"usuario":"u@example.com","momento":"2025-01-01T00:00:00Z","contenido":"x","otros":{"transformado":"false"}}`
	if err := Validate(SchemaEnvelope, []byte(good)); err != nil {
		t.Fatalf("expected valid envelope: %v", err)
	}
	bad := `{"usuario":"","momento":"2025-01-01T00:00:00Z","otros":{"transformado":"maybe"}}`
	err := Validate(SchemaEnvelope, []byte(bad))
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Issues) < 3 {
		t.Fatalf("expected issues for usuario, contenido and transformado, got %v", ve.Issues)
	}
}

func TestRenderedRecordConformsToSchema(t *testing.T) {
	res, err := testTransformer().Transform(pendingEnvelope())
	if err != nil {
		t.Fatalf("Transform error: %v", err)
	}
	b, err := Encode(res.Rendered)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if err := Validate(SchemaRendered, b); err != nil {
		t.Fatalf("rendered record invalid: %v", err)
	}
	orig, err := Encode(res.Original)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if err := Validate(SchemaEnvelope, orig); err != nil {
		t.Fatalf("updated envelope invalid: %v", err)
	}
}

func TestValidateUnknownSchema(t *testing.T) {
	if err := Validate("nope", []byte("{}")); err == nil {
		t.Fatalf("expected error for unknown schema")
	}
}
