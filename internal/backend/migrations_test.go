/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package backend

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestParseVersion(t *testing.T) {
	cases := map[string]int64{
		"001_records.sql":         1,
		"002_records_pending.sql": 2,
		"010_x.sql":               10,
	}
	for name, want := range cases {
		got, err := parseVersion(name)
		if err != nil || got != want {
			t.Fatalf("parseVersion(%q) = %d, %v", name, got, err)
		}
	}
	for _, bad := range []string{"records.sql", "x_records.sql", ""} {
		if _, err := parseVersion(bad); err == nil {
			t.Fatalf("parseVersion(%q) should fail", bad)
		}
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	migs, err := loadMigrations(migrationsFS, "migrations")
	if err != nil {
		t.Fatal(err)
	}
	if len(migs) < 2 || migs[0].version != 1 || migs[1].version != 2 {
		t.Fatalf("unexpected migrations: %+v", migs)
	}
	if !strings.Contains(migs[0].sql, "records") {
		t.Fatalf("first migration does not create records: %q", migs[0].sql)
	}
}

func TestLoadMigrationsSortsByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"m/10_later.sql":  {Data: []byte("SELECT 10")},
		"m/2_second.sql":  {Data: []byte("SELECT 2")},
		"m/1_first.sql":   {Data: []byte("SELECT 1")},
		"m/README.md":     {Data: []byte("ignored")},
		"m/sub/3_sub.sql": {Data: []byte("SELECT 3")},
	}
	migs, err := loadMigrations(fsys, "m")
	if err != nil {
		t.Fatal(err)
	}
	var got []int64
	for _, m := range migs {
		got = append(got, m.version)
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 10 {
		t.Fatalf("versions = %v", got)
	}
}

func TestLoadMigrationsRejectsDuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"m/001_a.sql": {Data: []byte("SELECT 1")},
		"m/1_b.sql":   {Data: []byte("SELECT 1")},
	}
	if _, err := loadMigrations(fsys, "m"); err == nil || !strings.Contains(err.Error(), "share version 1") {
		t.Fatalf("expected duplicate version error, got %v", err)
	}
}
