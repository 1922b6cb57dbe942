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
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	applog "mandatuvideo/internal/log"
	"mandatuvideo/internal/submission"
)

const (
	recordExt      = ".json"
	BackupsDirName = "backups"
)

// DirStore keeps submissions as <key>.json in InputDir and rendered records in
// ProcessedDir. With Backups set, an overwritten submission is first copied to
// InputDir/backups/<key>.json.<stamp>.bak.
type DirStore struct {
	InputDir     string
	ProcessedDir string
	Backups      bool
}

// NewDirStore creates both directories if needed.
func NewDirStore(inputDir, processedDir string) (*DirStore, error) {
	if strings.TrimSpace(inputDir) == "" || strings.TrimSpace(processedDir) == "" {
		return nil, errors.New("input and processed directories are required")
	}
	for _, d := range []string{inputDir, processedDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", d, err)
		}
	}
	return &DirStore{InputDir: inputDir, ProcessedDir: processedDir}, nil
}

func (s *DirStore) path(key string) string {
	dir := s.InputDir
	if submission.IsRenderedKey(key) {
		dir = s.ProcessedDir
	}
	return filepath.Join(dir, key+recordExt)
}

func (s *DirStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := CheckKey(key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, notFound(key)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return b, nil
}

// Put replaces the record transactionally: the data goes to a temp file in the
// target directory which is then renamed over the record.
func (s *DirStore) Put(ctx context.Context, key string, data []byte) error {
	if err := CheckKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	target := s.path(key)
	if s.Backups && !submission.IsRenderedKey(key) {
		if _, err := os.Stat(target); err == nil {
			if err := copyFile(target, s.backupPath(key, time.Now())); err != nil {
				return fmt.Errorf("backup %s: %w", key, err)
			}
		}
	}
	return replaceFile(target, data)
}

// List returns the keys of all .json files in both directories.
func (s *DirStore) List(ctx context.Context) ([]string, error) {
	var keys []string
	for _, dir := range []string{s.InputDir, s.ProcessedDir} {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ents, err := os.ReadDir(dir)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", dir, err)
		}
		for _, e := range ents {
			name := e.Name()
			if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, recordExt) {
				continue
			}
			keys = append(keys, strings.TrimSuffix(name, recordExt))
		}
	}
	slices.Sort(keys)
	return slices.Compact(keys), nil
}

// DirContent writes published files below Root.
type DirContent struct {
	Root string
}

// WriteFile stores data at Root/name. Name may contain forward slashes for
// sub folders but must stay inside Root.
func (c DirContent) WriteFile(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean := filepath.Clean(filepath.FromSlash(name))
	if name == "" || filepath.IsAbs(clean) || clean == "." || strings.HasPrefix(clean, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, name)
	}
	target := filepath.Join(c.Root, clean)
	if err := replaceFile(target, data); err != nil {
		return err
	}
	applog.WithOperation(applog.WithComponent("storage"), "content_write").Debug("content written",
		slog.String("path", target), slog.Int("bytes", len(data)))
	return nil
}

// replaceFile writes data next to path and renames it into place.
func replaceFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if err := writeFileSync(temp, data); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(temp, path); err != nil {
		// attempt cleanup temp
		_ = os.Remove(temp)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// backupPath returns a backup name for key that no earlier backup uses.
// Coarse clocks can repeat a stamp, so a counter breaks ties.
func (s *DirStore) backupPath(key string, now time.Time) string {
	base := filepath.Join(s.InputDir, BackupsDirName, fmt.Sprintf("%s%s.%s", key, recordExt, now.Format("20060102-150405.000000000")))
	bak := base + ".bak"
	for i := 1; ; i++ {
		if _, err := os.Stat(bak); err != nil {
			return bak
		}
		bak = fmt.Sprintf("%s-%d.bak", base, i)
	}
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
