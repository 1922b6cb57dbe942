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
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"mandatuvideo/internal/backend"
	applog "mandatuvideo/internal/log"
	"mandatuvideo/internal/metrics"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept form submissions over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.config
			if !cmd.Flags().Changed("addr") {
				addr = cfg.Server.Addr
			}
			l := applog.WithComponent("cli")
			metricsHandler, shutdown, err := metrics.InitProvider(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if err := shutdown(sctx); err != nil {
					l.Warn("metrics shutdown", slog.Any("err", err))
				}
			}()
			return ctx.withRecords(cmd.Context(), func(r *records) error {
				srv := &backend.Server{
					Records:        r,
					Content:        ctx.openContent(),
					Ready:          r.ready,
					MaxBodyBytes:   cfg.Server.MaxBodyBytes,
					MetricsHandler: metricsHandler,
				}
				l.Info("starting intake",
					slog.String("addr", addr),
					slog.String("storage", cfg.Storage.Backend),
					slog.String("content", cfg.Content.Backend))
				return srv.ListenAndServe(cmd.Context(), addr)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}
