/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"mandatuvideo/internal/batch"
	"mandatuvideo/internal/config"
	"mandatuvideo/internal/export"
	applog "mandatuvideo/internal/log"
	"mandatuvideo/internal/script"
)

func newTransformCommand(ctx *commandContext) *cobra.Command {
	var (
		workers int
		seed    uint64
		pdfDir  string
		publish bool
		watch   bool
	)
	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Render every pending submission in the record store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.config
			opts := batch.Options{
				Workers:  cfg.Batch.Workers,
				Seed:     cfg.Render.Seed,
				LockFile: cfg.Batch.LockFile,
				PDFDir:   cfg.Batch.PDFDir,
				PDF:      export.PDFOptions{PageNumbers: true},
				Publish:  cfg.Batch.Publish,
			}
			if cmd.Flags().Changed("workers") {
				opts.Workers = workers
			}
			if cmd.Flags().Changed("seed") {
				opts.Seed = seed
			}
			if cmd.Flags().Changed("pdf-dir") {
				opts.PDFDir = pdfDir
			}
			if cmd.Flags().Changed("publish") {
				opts.Publish = publish
			}
			if watch && cfg.Storage.Backend != config.StorageDir {
				return fmt.Errorf("--watch needs the %q storage backend, have %q", config.StorageDir, cfg.Storage.Backend)
			}
			return ctx.withRecords(cmd.Context(), func(r *records) error {
				d := &batch.Driver{
					Records:  r,
					Content:  ctx.openContent(),
					Parser:   script.Parser{Labels: cfg.Render.Labels},
					Catalogs: script.DefaultCatalogs(),
					Render:   cfg.Render.Options(),
					Options:  opts,
				}
				if watch {
					l := applog.WithOperation(applog.WithComponent("cli"), "watch")
					return batch.Watch(cmd.Context(), cfg.Storage.InputDir, batch.DefaultDebounce, func(runCtx context.Context) {
						sum, err := d.Run(runCtx)
						if sum.Listed > 0 || err != nil {
							printSummary(cmd, sum)
						}
						if err != nil && !errors.Is(err, context.Canceled) {
							l.Warn("batch run failed", slog.Any("err", err))
						}
					})
				}
				sum, err := d.Run(cmd.Context())
				printSummary(cmd, sum)
				if err != nil {
					return err
				}
				if sum.Failed > 0 {
					return fmt.Errorf("%d of %d submissions failed", sum.Failed, sum.Listed)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Parallel workers (default from config)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for the staging annotations (0 = random)")
	cmd.Flags().StringVar(&pdfDir, "pdf-dir", "", "Write a PDF of each rendered script to this directory")
	cmd.Flags().BoolVar(&publish, "publish", false, "Publish rendered records to the content store")
	cmd.Flags().BoolVar(&watch, "watch", false, "Keep running and transform new submissions as they arrive (dir backend)")
	return cmd
}

func printSummary(cmd *cobra.Command, sum batch.Summary) {
	out := cmd.OutOrStdout()
	rows := make([][]string, 0, len(sum.Items))
	for _, it := range sum.Items {
		if it.Outcome == batch.Skipped {
			continue
		}
		detail := it.Title
		if it.Err != nil {
			detail = it.Err.Error()
		} else if it.PDF != "" {
			detail += " (" + filepath.Base(it.PDF) + ")"
		}
		rows = append(rows, []string{it.Key, string(it.Outcome), detail})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable(out, []string{"Submission", "Result", "Detail"}, rows, nil))
	}
	fmt.Fprintf(out, "listed %d, transformed %d, skipped %d, failed %d in %s\n",
		sum.Listed, sum.Transformed, sum.Skipped, sum.Failed, sum.Elapsed.Round(1e6))
}
