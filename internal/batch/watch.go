/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package batch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	applog "mandatuvideo/internal/log"
)

// DefaultDebounce is the quiet period Watch waits for before a rerun.
const DefaultDebounce = 500 * time.Millisecond

// Watch calls run once, then again whenever a submission file in dir is
// created, written or renamed into place, after dir has been quiet for
// debounce. Hidden files (the stores' temp files) are ignored. Watch returns
// nil when ctx is canceled.
func Watch(ctx context.Context, dir string, debounce time.Duration, run func(context.Context)) error {
	l := applog.WithOperation(applog.WithComponent("batch"), "watch")
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	l.InfoContext(ctx, "watching for submissions", slog.String("dir", dir))

	run(ctx)

	timer := time.NewTimer(debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			l.DebugContext(ctx, "submission changed", slog.String("file", ev.Name), slog.String("op", ev.Op.String()))
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			l.WarnContext(ctx, "watcher error", slog.Any("err", err))
		case <-timer.C:
			run(ctx)
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") || !strings.HasSuffix(base, ".json") {
		return false
	}
	return ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0
}
