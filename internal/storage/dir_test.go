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
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestDirStore(t *testing.T) *DirStore {
	t.Helper()
	root := t.TempDir()
	s, err := NewDirStore(filepath.Join(root, "dialog_data"), filepath.Join(root, "dialog_data_processed"))
	if err != nil {
		t.Fatalf("NewDirStore: %v", err)
	}
	return s
}

func TestDirStoreContract(t *testing.T) {
	exerciseStore(t, newTestDirStore(t))
}

func TestDirStoreLayout(t *testing.T) {
	s := newTestDirStore(t)
	ctx := context.Background()
	if err := s.Put(ctx, "ana_1", []byte("{}")); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "ana_1_RENDERIZAR", []byte("{}")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(s.InputDir, "ana_1.json")); err != nil {
		t.Fatalf("submission not in input dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.ProcessedDir, "ana_1_RENDERIZAR.json")); err != nil {
		t.Fatalf("rendered record not in processed dir: %v", err)
	}
	// no temp files left behind
	ents, _ := os.ReadDir(s.InputDir)
	for _, e := range ents {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("temp file left: %s", e.Name())
		}
	}
}

func TestDirStoreListIgnoresForeignFiles(t *testing.T) {
	s := newTestDirStore(t)
	for _, name := range []string{"notes.txt", ".hidden.json"} {
		if err := os.WriteFile(filepath.Join(s.InputDir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(s.InputDir, "sub.json"), 0o755); err != nil {
		t.Fatal(err)
	}
	keys, err := s.List(context.Background())
	if err != nil || len(keys) != 0 {
		t.Fatalf("List = %v, %v", keys, err)
	}
}

func TestDirStoreBackups(t *testing.T) {
	s := newTestDirStore(t)
	s.Backups = true
	ctx := context.Background()
	if err := s.Put(ctx, "ana_1", []byte(`{"v":1}`)); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "ana_1", []byte(`{"v":2}`)); err != nil {
		t.Fatal(err)
	}
	ents, err := os.ReadDir(filepath.Join(s.InputDir, BackupsDirName))
	if err != nil || len(ents) != 1 {
		t.Fatalf("expected one backup, got %v (%v)", ents, err)
	}
	b, _ := os.ReadFile(filepath.Join(s.InputDir, BackupsDirName, ents[0].Name()))
	if string(b) != `{"v":1}` {
		t.Fatalf("backup content = %q", b)
	}
	// backups are not records
	keys, _ := s.List(ctx)
	if len(keys) != 1 {
		t.Fatalf("List = %v", keys)
	}
}

func TestDirStoreBackupsWithinOneStamp(t *testing.T) {
	s := newTestDirStore(t)
	if err := os.MkdirAll(filepath.Join(s.InputDir, BackupsDirName), 0o755); err != nil {
		t.Fatal(err)
	}
	now := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		p := s.backupPath("ana_1", now)
		if seen[p] {
			t.Fatalf("backup path reused: %s", p)
		}
		seen[p] = true
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	ctx := context.Background()
	s.Backups = true
	for i := 1; i <= 3; i++ {
		if err := s.Put(ctx, "beto_2", []byte(fmt.Sprintf(`{"v":%d}`, i))); err != nil {
			t.Fatal(err)
		}
	}
	ents, err := os.ReadDir(filepath.Join(s.InputDir, BackupsDirName))
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for _, e := range ents {
		if strings.HasPrefix(e.Name(), "beto_2") {
			n++
		}
	}
	if n != 2 {
		t.Fatalf("expected 2 backups of beto_2, got %d", n)
	}
}

func TestDirStoreCanceledContext(t *testing.T) {
	s := newTestDirStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Put(ctx, "k", []byte("{}")); !errors.Is(err, context.Canceled) {
		t.Fatalf("Put err = %v", err)
	}
}

func TestNewDirStoreRequiresPaths(t *testing.T) {
	if _, err := NewDirStore("", "x"); err == nil {
		t.Fatalf("expected error for empty input dir")
	}
}

func TestDirContentWriteFile(t *testing.T) {
	c := DirContent{Root: t.TempDir()}
	ctx := context.Background()
	if err := c.WriteFile(ctx, "dialog_data/ana_1.json", []byte("{}")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if b, err := os.ReadFile(filepath.Join(c.Root, "dialog_data", "ana_1.json")); err != nil || string(b) != "{}" {
		t.Fatalf("content = %q, %v", b, err)
	}
	for _, bad := range []string{"", "../escape.json", "/abs.json"} {
		if err := c.WriteFile(ctx, bad, []byte("{}")); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("WriteFile(%q) err = %v", bad, err)
		}
	}
}
