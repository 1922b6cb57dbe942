/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package submission

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

// Schema names accepted by Validate.
const (
	SchemaEnvelope = "envelope"
	SchemaRendered = "rendered"
)

var (
	schemaMu    sync.Mutex
	schemaCache = map[string]*gojsonschema.Schema{}
)

func loadSchema(name string) (*gojsonschema.Schema, error) {
	schemaMu.Lock()
	defer schemaMu.Unlock()
	if s, ok := schemaCache[name]; ok {
		return s, nil
	}
	b, err := schemaFS.ReadFile("schemas/" + name + ".schema.json")
	if err != nil {
		return nil, fmt.Errorf("unknown schema %q: %w", name, err)
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(b))
	if err != nil {
		return nil, fmt.Errorf("compile schema %q: %w", name, err)
	}
	schemaCache[name] = s
	return s, nil
}

// ValidationError lists the schema violations of a document.
type ValidationError struct {
	Schema string
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s does not conform to schema: %s", e.Schema, strings.Join(e.Issues, "; "))
}

// Validate checks raw JSON against the named embedded schema.
func Validate(name string, raw []byte) error {
	s, err := loadSchema(name)
	if err != nil {
		return err
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("validate %s: %w", name, err)
	}
	if res.Valid() {
		return nil
	}
	ve := &ValidationError{Schema: name}
	for _, e := range res.Errors() {
		ve.Issues = append(ve.Issues, e.String())
	}
	return ve
}
