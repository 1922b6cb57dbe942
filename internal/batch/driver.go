/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package batch runs the submission transform over every record in a store.
//
// Each pending submission is parsed and rendered on its own, so records are
// processed in parallel with a bounded number of workers. A failing record is
// logged and counted; it never stops the run. The rendered record is written
// before the source envelope is flagged, so a record that fails halfway stays
// pending and is picked up by the next run.
package batch

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"mandatuvideo/internal/export"
	applog "mandatuvideo/internal/log"
	"mandatuvideo/internal/metrics"
	"mandatuvideo/internal/script"
	"mandatuvideo/internal/storage"
	"mandatuvideo/internal/submission"
	"mandatuvideo/internal/telemetry"
)

// Options tune a run.
type Options struct {
	Workers int
	// Seed pins the staging annotations. Each record gets its own stream
	// derived from Seed and its key; zero means unseeded.
	Seed uint64
	// LockFile, when set, is held for the duration of Run.
	LockFile string
	// PDFDir, when set, receives <rendered key>.pdf for every transformed record.
	PDFDir string
	PDF    export.PDFOptions
	// Publish writes each rendered record to the content store as <rendered key>.json.
	Publish bool
}

// Driver wires a record store to the transform pipeline.
type Driver struct {
	Records  storage.RecordStore
	Content  storage.ContentStore
	Parser   script.Parser
	Catalogs script.Catalogs
	Render   script.RenderOptions
	Options  Options
	Now      func() time.Time
	// Metrics defaults to metrics.Default().
	Metrics *metrics.Metrics
}

// Outcome is the result of processing one record.
type Outcome string

const (
	Transformed Outcome = "transformed"
	Skipped     Outcome = "skipped"
	Failed      Outcome = "failed"
)

// Item reports what happened to one record.
type Item struct {
	Key     string
	Outcome Outcome
	Title   string
	PDF     string
	Err     error
}

// Summary aggregates a run.
type Summary struct {
	RunID       string
	Listed      int
	Transformed int
	Skipped     int
	Failed      int
	Items       []Item
	Elapsed     time.Duration
}

// Err joins the errors of failed items, or returns nil.
func (s Summary) Err() error {
	var errs []error
	for _, it := range s.Items {
		if it.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", it.Key, it.Err))
		}
	}
	return errors.Join(errs...)
}

// Run processes every submission in the store. It returns an error only when
// the run as a whole could not proceed: the lock is held, the listing failed
// or ctx was canceled. Per-record failures are reported in the Summary.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	sum := Summary{RunID: uuid.NewString()}
	ctx = applog.WithRun(ctx, sum.RunID)
	l := applog.WithOperation(applog.WithComponent("batch"), "run")

	if d.Records == nil {
		return sum, errors.New("batch: no record store")
	}
	if d.Options.Publish && d.Content == nil {
		return sum, errors.New("batch: publish requested without a content store")
	}
	unlock, err := Lock(d.Options.LockFile)
	if err != nil {
		return sum, err
	}
	defer func() {
		if err := unlock(); err != nil {
			l.WarnContext(ctx, "release batch lock", slog.Any("err", err))
		}
	}()

	all, err := d.Records.List(ctx)
	if err != nil {
		return sum, fmt.Errorf("list records: %w", err)
	}
	keys := make([]string, 0, len(all))
	for _, k := range all {
		if !submission.IsRenderedKey(k) {
			keys = append(keys, k)
		}
	}
	sum.Listed = len(keys)
	sum.Items = make([]Item, len(keys))

	workers := d.Options.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	met := d.Metrics
	if met == nil {
		met = metrics.Default()
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for i, key := range keys {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			t0 := time.Now()
			it := d.process(applog.WithSubmission(ctx, key), key)
			met.RecordOutcome(ctx, string(it.Outcome), time.Since(t0).Seconds())
			sum.Items[i] = it
			return nil
		})
	}
	_ = g.Wait()

	for i := range sum.Items {
		it := &sum.Items[i]
		if it.Key == "" {
			it.Key = keys[i]
			it.Outcome = Failed
			it.Err = context.Cause(ctx)
		}
		switch it.Outcome {
		case Transformed:
			sum.Transformed++
		case Skipped:
			sum.Skipped++
		default:
			sum.Failed++
		}
	}
	sum.Elapsed = time.Since(start)
	met.BatchRuns.Add(ctx, 1)
	l.InfoContext(ctx, "batch finished",
		slog.Int("listed", sum.Listed),
		slog.Int("transformed", sum.Transformed),
		slog.Int("skipped", sum.Skipped),
		slog.Int("failed", sum.Failed),
		slog.Duration("elapsed", sum.Elapsed))
	telemetry.Event(telemetry.EventBatchRun, map[string]any{
		"listed":      sum.Listed,
		"transformed": sum.Transformed,
		"skipped":     sum.Skipped,
		"failed":      sum.Failed,
		"workers":     workers,
		"elapsed_ms":  sum.Elapsed.Milliseconds(),
	})
	if err := ctx.Err(); err != nil {
		return sum, err
	}
	return sum, nil
}

func (d *Driver) process(ctx context.Context, key string) Item {
	l := applog.WithOperation(applog.WithComponent("batch"), "transform")
	it := Item{Key: key}
	fail := func(stage string, err error) Item {
		it.Outcome = Failed
		it.Err = fmt.Errorf("%s: %w", stage, err)
		l.ErrorContext(ctx, "submission failed", slog.String("stage", stage), slog.Any("err", err))
		return it
	}
	if err := ctx.Err(); err != nil {
		return fail("start", err)
	}

	raw, err := d.Records.Get(ctx, key)
	if err != nil {
		return fail("read", err)
	}
	env, err := submission.Decode(raw)
	if err != nil {
		return fail("decode", err)
	}
	tr := submission.Transformer{
		Parser: d.Parser,
		Renderer: script.Renderer{
			Rand:     d.randFor(key),
			Catalogs: d.Catalogs.OrDefaults(),
			Options:  d.Render,
		},
		Now: d.Now,
	}
	res, err := tr.Transform(env)
	if err != nil {
		return fail("transform", err)
	}
	if res == nil {
		it.Outcome = Skipped
		l.DebugContext(ctx, "submission already transformed")
		return it
	}
	it.Title = res.Rendered.Title

	rendered, err := submission.Encode(res.Rendered)
	if err != nil {
		return fail("encode rendered", err)
	}
	if err := submission.Validate(submission.SchemaRendered, rendered); err != nil {
		return fail("validate rendered", err)
	}
	original, err := submission.Encode(res.Original)
	if err != nil {
		return fail("encode original", err)
	}

	rkey := submission.RenderedKey(key)
	if err := d.Records.Put(ctx, rkey, rendered); err != nil {
		return fail("write rendered", err)
	}
	if d.Options.Publish {
		if err := d.Content.WriteFile(ctx, rkey+".json", rendered); err != nil {
			return fail("publish", err)
		}
	}
	if d.Options.PDFDir != "" {
		out := filepath.Join(d.Options.PDFDir, rkey+".pdf")
		if _, err := export.SaveScriptPDF(out, res.Rendered.Title, res.Rendered.Content, d.Options.PDF); err != nil {
			return fail("pdf", err)
		}
		it.PDF = out
	}
	if err := d.Records.Put(ctx, key, original); err != nil {
		return fail("write original", err)
	}
	it.Outcome = Transformed
	l.InfoContext(ctx, "submission transformed", slog.String("title", res.Rendered.Title))
	return it
}

// randFor returns the random source for one record.
func (d *Driver) randFor(key string) script.RandomSource {
	if d.Options.Seed == 0 {
		return script.DefaultRandSource()
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return script.NewRandSource(d.Options.Seed ^ h.Sum64())
}
