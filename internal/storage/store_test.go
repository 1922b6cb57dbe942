/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"errors"
	"slices"
	"testing"
)

// exerciseStore runs the behavior every RecordStore must share.
func exerciseStore(t *testing.T, s RecordStore) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) err = %v, want ErrNotFound", err)
	}
	keys, err := s.List(ctx)
	if err != nil || len(keys) != 0 {
		t.Fatalf("List on empty store = %v, %v", keys, err)
	}

	sub := "ana_2025-01-15T10-30-00-000Z_1234"
	if err := s.Put(ctx, sub, []byte(`{"usuario":"ana"}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, sub+"_RENDERIZAR", []byte(`{"title":"x"}`)); err != nil {
		t.Fatalf("Put rendered: %v", err)
	}
	if err := s.Put(ctx, "bob_2025-01-14T08-00-00-000Z_1", []byte(`{"usuario":"bob"}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	// overwrite keeps a single record
	if err := s.Put(ctx, sub, []byte(`{"usuario":"ana","v":2}`)); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}

	got, err := s.Get(ctx, sub)
	if err != nil || string(got) != `{"usuario":"ana","v":2}` {
		t.Fatalf("Get = %q, %v", got, err)
	}
	keys, err = s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{sub, sub + "_RENDERIZAR", "bob_2025-01-14T08-00-00-000Z_1"}
	slices.Sort(want)
	if !slices.Equal(keys, want) {
		t.Fatalf("List = %v, want %v", keys, want)
	}

	for _, bad := range []string{"", "..", "a/b", "a\\b"} {
		if err := s.Put(ctx, bad, []byte("{}")); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("Put(%q) err = %v, want ErrInvalidKey", bad, err)
		}
	}
}

func TestCheckKey(t *testing.T) {
	if err := CheckKey("user_2025-01-01T00-00-00-000Z_1"); err != nil {
		t.Fatalf("valid key rejected: %v", err)
	}
	for _, k := range []string{"", " ", ".", "..", "x/y", "x\\y", "nul\x00"} {
		if err := CheckKey(k); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("CheckKey(%q) = %v", k, err)
		}
	}
}

func TestKindOf(t *testing.T) {
	if KindOf("a_RENDERIZAR") != KindRendered || KindOf("a") != KindSubmission {
		t.Fatalf("KindOf misclassifies keys")
	}
}
