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
	"fmt"

	"github.com/spf13/cobra"

	"mandatuvideo/internal/storage"
	"mandatuvideo/internal/submission"
)

// Record states shown by list.
const (
	statePending  = "pending"
	stateDone     = "transformed"
	stateRendered = "rendered"
	stateInvalid  = "invalid"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var pendingOnly bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored submissions and rendered records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRecords(cmd.Context(), func(r *records) error {
				rows, err := listRows(cmd.Context(), r, pendingOnly)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(rows) == 0 {
					fmt.Fprintln(out, "no records")
					return nil
				}
				fmt.Fprintln(out, renderTable(out, []string{"Key", "Kind", "State"}, rows, nil))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&pendingOnly, "pending", false, "Only list submissions waiting for transform")
	return cmd
}

func listRows(ctx context.Context, r *records, pendingOnly bool) ([][]string, error) {
	if pendingOnly {
		if pl, ok := r.RecordStore.(storage.PendingLister); ok {
			keys, err := pl.Pending(ctx)
			if err != nil {
				return nil, err
			}
			rows := make([][]string, 0, len(keys))
			for _, k := range keys {
				rows = append(rows, []string{k, storage.KindSubmission, statePending})
			}
			return rows, nil
		}
	}
	keys, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	var rows [][]string
	for _, k := range keys {
		kind := storage.KindOf(k)
		state := stateRendered
		if kind == storage.KindSubmission {
			state = recordState(ctx, r, k)
		}
		if pendingOnly && state != statePending {
			continue
		}
		rows = append(rows, []string{k, kind, state})
	}
	return rows, nil
}

func recordState(ctx context.Context, r storage.RecordStore, key string) string {
	b, err := r.Get(ctx, key)
	if err != nil {
		return stateInvalid
	}
	env, err := submission.Decode(b)
	if err != nil {
		return stateInvalid
	}
	if env.Otros.Pending() {
		return statePending
	}
	return stateDone
}
