/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"

	"mandatuvideo/internal/storage"
)

// openTestPG connects to MTV_TEST_PG_DSN. Every test uses its own key prefix
// so runs against a shared database do not interfere.
func openTestPG(t *testing.T) (*PGStore, string) {
	t.Helper()
	dsn := os.Getenv("MTV_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("MTV_TEST_PG_DSN not set")
	}
	s, err := OpenPG(context.Background(), dsn)
	if err != nil {
		t.Fatalf("OpenPG: %v", err)
	}
	t.Cleanup(s.Close)
	return s, "t" + uuid.NewString()[:8] + "_"
}

func sameJSON(t *testing.T, a, b []byte) bool {
	t.Helper()
	var va, vb any
	if err := json.Unmarshal(a, &va); err != nil {
		t.Fatalf("unmarshal %q: %v", a, err)
	}
	if err := json.Unmarshal(b, &vb); err != nil {
		t.Fatalf("unmarshal %q: %v", b, err)
	}
	return reflect.DeepEqual(va, vb)
}

func TestPGStoreRoundTrip(t *testing.T) {
	s, p := openTestPG(t)
	ctx := context.Background()
	body := []byte(`{"usuario": "ana", "otros": {"transformado": "false"}}`)
	if err := s.Put(ctx, p+"ana", body); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, p+"ana")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !sameJSON(t, body, got) {
		t.Fatalf("Get = %s", got)
	}
	if err := s.Put(ctx, p+"ana", []byte(`{"usuario":"ana","otros":{"transformado":"true"}}`)); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	if _, err := s.Get(ctx, p+"missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Get missing = %v", err)
	}
	if err := s.Put(ctx, "a/b", body); !errors.Is(err, storage.ErrInvalidKey) {
		t.Fatalf("Put invalid key = %v", err)
	}
}

func TestPGStorePending(t *testing.T) {
	s, p := openTestPG(t)
	ctx := context.Background()
	for k, v := range map[string]string{
		p + "a":            `{"otros":{"transformado":"false"}}`,
		p + "b":            `{"otros":{"transformado":"true"}}`,
		p + "c":            `{}`,
		p + "a_RENDERIZAR": `{"otros":{"transformado":"false"}}`,
	} {
		if err := s.Put(ctx, k, []byte(v)); err != nil {
			t.Fatalf("Put %s: %v", k, err)
		}
	}
	pending, err := s.Pending(ctx)
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	found := 0
	for _, k := range pending {
		if strings.HasPrefix(k, p) {
			found++
			if k != p+"a" {
				t.Fatalf("unexpected pending key %s", k)
			}
		}
	}
	if found != 1 {
		t.Fatalf("pending keys = %v", pending)
	}
	all, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	n := 0
	for _, k := range all {
		if strings.HasPrefix(k, p) {
			n++
		}
	}
	if n != 4 {
		t.Fatalf("List found %d of 4 keys", n)
	}
	var _ storage.RecordStore = s
	var _ storage.PendingLister = s
}
