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
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"mandatuvideo/internal/backend"
	"mandatuvideo/internal/config"
	applog "mandatuvideo/internal/log"
	"mandatuvideo/internal/storage"
	"mandatuvideo/internal/telemetry"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     config.AppConfig
	token      string
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// ensureConfig loads and validates the configuration once, then sets up
// logging and telemetry from it.
func (c *commandContext) ensureConfig(cmd *cobra.Command) (config.AppConfig, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, token, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = fmt.Errorf("invalid configuration: %w", err)
			return
		}
		applog.Init(applog.Options{
			Level:     cfg.Logging.Level,
			Format:    cfg.Logging.Format,
			AddSource: cfg.Logging.Source,
			File:      cfg.Logging.File,
			Writer:    cmd.ErrOrStderr(),
		})
		tc := telemetry.FromEnv()
		tc.OptIn = tc.OptIn || cfg.General.TelemetryOptIn
		telemetry.SetDefault(tc)
		c.config, c.token = cfg, token
	})
	return c.config, c.configErr
}

// records is an opened record store with its lifecycle hooks.
type records struct {
	storage.RecordStore
	ready func(context.Context) error
	close func() error
}

func (c *commandContext) openRecords(ctx context.Context) (*records, error) {
	cfg := c.config.Storage
	l := applog.WithOperation(applog.WithComponent("cli"), "open_records")
	l.Debug("opening record store", slog.String("backend", cfg.Backend))
	switch cfg.Backend {
	case config.StorageSQLite:
		s, err := storage.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &records{RecordStore: s, ready: s.Check, close: s.Close}, nil
	case config.StoragePostgres:
		s, err := backend.OpenPG(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return &records{RecordStore: s, ready: s.Ping, close: func() error { s.Close(); return nil }}, nil
	default:
		s, err := storage.NewDirStore(cfg.InputDir, cfg.ProcessedDir)
		if err != nil {
			return nil, err
		}
		s.Backups = cfg.Backups
		return &records{RecordStore: s, close: func() error { return nil }}, nil
	}
}

// openContent returns the configured content store, or nil for "none".
func (c *commandContext) openContent() storage.ContentStore {
	cfg := c.config.Content
	switch cfg.Backend {
	case config.ContentDir:
		return storage.DirContent{Root: cfg.Dir}
	case config.ContentGitHub:
		gh := backend.NewGitHubContent(cfg.GitHub.BaseURL, cfg.GitHub.Owner, cfg.GitHub.Repo, cfg.GitHub.Folder, c.token, cfg.GitHub.EffectiveTimeout())
		gh.Branch = cfg.GitHub.Branch
		return gh
	}
	return nil
}

// withRecords opens the record store for the duration of fn.
func (c *commandContext) withRecords(ctx context.Context, fn func(*records) error) error {
	r, err := c.openRecords(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := r.close(); err != nil {
			applog.WithComponent("cli").Warn("close record store", slog.Any("err", err))
		}
	}()
	return fn(r)
}
