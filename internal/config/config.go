/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"mandatuvideo/internal/script"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Storage       StorageConfig `yaml:"storage"`
	Content       ContentConfig `yaml:"content"`
	Render        RenderConfig  `yaml:"render"`
	Batch         BatchConfig   `yaml:"batch"`
	Server        ServerConfig  `yaml:"server"`
	Logging       LoggingConfig `yaml:"logging"`
}

type GeneralConfig struct {
	TelemetryOptIn bool `yaml:"telemetry_opt_in"`
}

// Storage backends.
const (
	StorageDir      = "dir"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// StorageConfig selects where submissions and rendered records live.
type StorageConfig struct {
	Backend      string `yaml:"backend"` // "dir" | "sqlite" | "postgres"
	InputDir     string `yaml:"input_dir"`
	ProcessedDir string `yaml:"processed_dir"`
	SQLitePath   string `yaml:"sqlite_path"`
	// PostgresDSN may carry a password; prefer MTV_PG_DSN over writing it to disk.
	PostgresDSN string `yaml:"postgres_dsn"`
	// Backups keeps a timestamped copy of each submission the dir backend replaces.
	Backups bool `yaml:"backups"`
}

// Content backends.
const (
	ContentNone   = "none"
	ContentDir    = "dir"
	ContentGitHub = "github"
)

// ContentConfig selects where intake files and published scripts are written.
type ContentConfig struct {
	Backend string       `yaml:"backend"` // "none" | "dir" | "github"
	Dir     string       `yaml:"dir"`
	GitHub  GitHubConfig `yaml:"github"`
}

type GitHubConfig struct {
	BaseURL   string `yaml:"base_url"`
	Owner     string `yaml:"owner"`
	Repo      string `yaml:"repo"`
	Folder    string `yaml:"folder"`
	Branch    string `yaml:"branch"`
	TimeoutMs int    `yaml:"timeout_ms"`
	// Token is not stored on disk; it lives in the OS keychain.
}

// RenderConfig carries the renderer and parser settings.
type RenderConfig struct {
	MaxLineWidth int           `yaml:"max_line_width"`
	NumberLines  bool          `yaml:"number_lines"`
	Onomatopoeia string        `yaml:"onomatopoeia"` // "line" | "inline"
	Seed         uint64        `yaml:"seed"`         // 0 draws a fresh seed per run
	Labels       script.Labels `yaml:"labels"`
}

type BatchConfig struct {
	Workers  int    `yaml:"workers"`
	LockFile string `yaml:"lock_file"`
	PDFDir   string `yaml:"pdf_dir"`
	Publish  bool   `yaml:"publish"`
}

type ServerConfig struct {
	Addr         string `yaml:"addr"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false},
		Storage: StorageConfig{
			Backend:      StorageDir,
			InputDir:     "dialog_data",
			ProcessedDir: "dialog_data_processed",
			SQLitePath:   "mandatuvideo.db",
		},
		Content: ContentConfig{
			Backend: ContentNone,
			Dir:     "dialog_content",
			GitHub: GitHubConfig{
				BaseURL:   "https://api.github.com",
				Folder:    "dialog_data",
				Branch:    "main",
				TimeoutMs: 15000,
			},
		},
		Render: RenderConfig{
			MaxLineWidth: script.DefaultLineWidth,
			Onomatopoeia: string(script.OnomatopoeiaLine),
		},
		Batch:   BatchConfig{Workers: runtime.NumCPU(), LockFile: filepath.Join(os.TempDir(), "mandatuvideo-batch.lock")},
		Server:  ServerConfig{Addr: "127.0.0.1:8080", MaxBodyBytes: 1 << 20},
		Logging: LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvConfigFile     = "MTV_CONFIG"
	EnvTelemetryOptIn = "MTV_TELEMETRY_OPT_IN"
	EnvStorageBackend = "MTV_STORAGE_BACKEND"
	EnvInputDir       = "MTV_INPUT_DIR"
	EnvProcessedDir   = "MTV_PROCESSED_DIR"
	EnvSQLitePath     = "MTV_SQLITE_PATH"
	EnvPostgresDSN    = "MTV_PG_DSN"
	EnvContentBackend = "MTV_CONTENT_BACKEND"
	EnvContentDir     = "MTV_CONTENT_DIR"
	EnvGitHubURL      = "MTV_GITHUB_URL"
	EnvGitHubOwner    = "MTV_GITHUB_OWNER"
	EnvGitHubRepo     = "MTV_GITHUB_REPO"
	EnvGitHubToken    = "MTV_GITHUB_TOKEN"
	EnvRenderSeed     = "MTV_RENDER_SEED"
	EnvRenderNumbered = "MTV_RENDER_NUMBER_LINES"
	EnvBatchWorkers   = "MTV_BATCH_WORKERS"
	EnvBatchPDFDir    = "MTV_BATCH_PDF_DIR"
	EnvServerAddr     = "MTV_SERVER_ADDR"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "MTV_LOG_LEVEL"
	EnvLogFormat = "MTV_LOG_FORMAT"
	EnvLogSource = "MTV_LOG_SOURCE"
	EnvLogFile   = "MTV_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService = "MandaTuVideo"
	keyringToken   = "github_token"
)

// tokenStore abstracts keyring, so we can stub in tests.
var tokenStore TokenStore = osKeyring{}

type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// ConfigPath returns the per-user config file path. MTV_CONFIG wins when set.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigFile)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "MandaTuVideo")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "MandaTuVideo")
	default: // linux and others
		home := os.Getenv("HOME")
		if home == "" {
			return "", errors.New("cannot resolve config directory")
		}
		base = filepath.Join(home, ".config", "mandatuvideo")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the config file at path (ConfigPath when empty), applies defaults,
// and merges environment overrides. A missing file is not an error; a file that
// does not parse is. The GitHub token comes from MTV_GITHUB_TOKEN or the OS
// keyring and is returned separately.
func Load(path string) (AppConfig, string, error) {
	cfg := Defaults()
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return cfg, "", err
		}
		path = p
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, "", fmt.Errorf("parse config %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		return cfg, "", fmt.Errorf("read config %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	if tok := strings.TrimSpace(os.Getenv(EnvGitHubToken)); tok != "" {
		return cfg, tok, nil
	}
	// a missing keyring entry just means no token
	tok, _ := tokenStore.Get(keyringService, keyringToken)
	return cfg, tok, nil
}

// Save writes the config YAML to path (ConfigPath when empty) and persists the
// token into the OS keyring (if non-empty).
func Save(path string, cfg AppConfig, token string) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token != "" {
		if err := tokenStore.Set(keyringService, keyringToken, token); err != nil {
			return fmt.Errorf("store token: %w", err)
		}
	}
	return nil
}

// DeleteToken removes the stored GitHub token from the keyring.
func DeleteToken() error {
	return tokenStore.Delete(keyringService, keyringToken)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	dst.Storage.Backups = src.Storage.Backups

	setLower(&dst.Storage.Backend, src.Storage.Backend)
	setTrimmed(&dst.Storage.InputDir, src.Storage.InputDir)
	setTrimmed(&dst.Storage.ProcessedDir, src.Storage.ProcessedDir)
	setTrimmed(&dst.Storage.SQLitePath, src.Storage.SQLitePath)
	setTrimmed(&dst.Storage.PostgresDSN, src.Storage.PostgresDSN)

	setLower(&dst.Content.Backend, src.Content.Backend)
	setTrimmed(&dst.Content.Dir, src.Content.Dir)
	setTrimmed(&dst.Content.GitHub.BaseURL, src.Content.GitHub.BaseURL)
	setTrimmed(&dst.Content.GitHub.Owner, src.Content.GitHub.Owner)
	setTrimmed(&dst.Content.GitHub.Repo, src.Content.GitHub.Repo)
	setTrimmed(&dst.Content.GitHub.Folder, src.Content.GitHub.Folder)
	setTrimmed(&dst.Content.GitHub.Branch, src.Content.GitHub.Branch)
	if src.Content.GitHub.TimeoutMs != 0 {
		dst.Content.GitHub.TimeoutMs = src.Content.GitHub.TimeoutMs
	}

	if src.Render.MaxLineWidth > 0 {
		dst.Render.MaxLineWidth = src.Render.MaxLineWidth
	}
	dst.Render.NumberLines = src.Render.NumberLines
	setLower(&dst.Render.Onomatopoeia, src.Render.Onomatopoeia)
	if src.Render.Seed != 0 {
		dst.Render.Seed = src.Render.Seed
	}
	// blank labels fall back to the defaults inside the parser
	dst.Render.Labels = src.Render.Labels

	if src.Batch.Workers > 0 {
		dst.Batch.Workers = src.Batch.Workers
	}
	setTrimmed(&dst.Batch.LockFile, src.Batch.LockFile)
	setTrimmed(&dst.Batch.PDFDir, src.Batch.PDFDir)
	dst.Batch.Publish = src.Batch.Publish

	setTrimmed(&dst.Server.Addr, src.Server.Addr)
	if src.Server.MaxBodyBytes > 0 {
		dst.Server.MaxBodyBytes = src.Server.MaxBodyBytes
	}

	setLower(&dst.Logging.Level, src.Logging.Level)
	setLower(&dst.Logging.Format, src.Logging.Format)
	dst.Logging.Source = src.Logging.Source
	setTrimmed(&dst.Logging.File, src.Logging.File)
}

func setTrimmed(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setLower(dst *string, v string) {
	if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
		*dst = v
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = truthy(v)
	}
	setLower(&cfg.Storage.Backend, os.Getenv(EnvStorageBackend))
	setTrimmed(&cfg.Storage.InputDir, os.Getenv(EnvInputDir))
	setTrimmed(&cfg.Storage.ProcessedDir, os.Getenv(EnvProcessedDir))
	setTrimmed(&cfg.Storage.SQLitePath, os.Getenv(EnvSQLitePath))
	setTrimmed(&cfg.Storage.PostgresDSN, os.Getenv(EnvPostgresDSN))

	setLower(&cfg.Content.Backend, os.Getenv(EnvContentBackend))
	setTrimmed(&cfg.Content.Dir, os.Getenv(EnvContentDir))
	setTrimmed(&cfg.Content.GitHub.BaseURL, os.Getenv(EnvGitHubURL))
	setTrimmed(&cfg.Content.GitHub.Owner, os.Getenv(EnvGitHubOwner))
	setTrimmed(&cfg.Content.GitHub.Repo, os.Getenv(EnvGitHubRepo))

	if v := strings.TrimSpace(os.Getenv(EnvRenderSeed)); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Render.Seed = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvRenderNumbered)); v != "" {
		cfg.Render.NumberLines = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvBatchWorkers)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Batch.Workers = n
		}
	}
	setTrimmed(&cfg.Batch.PDFDir, os.Getenv(EnvBatchPDFDir))
	setTrimmed(&cfg.Server.Addr, os.Getenv(EnvServerAddr))

	// logging overrides
	setLower(&cfg.Logging.Level, os.Getenv(EnvLogLevel))
	setLower(&cfg.Logging.Format, os.Getenv(EnvLogFormat))
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	setTrimmed(&cfg.Logging.File, os.Getenv(EnvLogFile))
}

var envByKey = map[string]string{
	"general.telemetry_opt_in": EnvTelemetryOptIn,
	"storage.backend":          EnvStorageBackend,
	"storage.input_dir":        EnvInputDir,
	"storage.processed_dir":    EnvProcessedDir,
	"storage.sqlite_path":      EnvSQLitePath,
	"storage.postgres_dsn":     EnvPostgresDSN,
	"content.backend":          EnvContentBackend,
	"content.dir":              EnvContentDir,
	"content.github.base_url":  EnvGitHubURL,
	"content.github.owner":     EnvGitHubOwner,
	"content.github.repo":      EnvGitHubRepo,
	"render.seed":              EnvRenderSeed,
	"render.number_lines":      EnvRenderNumbered,
	"batch.workers":            EnvBatchWorkers,
	"batch.pdf_dir":            EnvBatchPDFDir,
	"server.addr":              EnvServerAddr,
	"logging.level":            EnvLogLevel,
	"logging.format":           EnvLogFormat,
	"logging.source":           EnvLogSource,
	"logging.file":             EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := envByKey[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}

// Validate reports settings that cannot work together.
func (c AppConfig) Validate() error {
	var errs []error
	switch c.Storage.Backend {
	case StorageDir, StorageSQLite:
	case StoragePostgres:
		if strings.TrimSpace(c.Storage.PostgresDSN) == "" {
			errs = append(errs, errors.New("storage.postgres_dsn is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.backend %q", c.Storage.Backend))
	}
	switch c.Content.Backend {
	case ContentNone, ContentDir:
	case ContentGitHub:
		if c.Content.GitHub.Owner == "" || c.Content.GitHub.Repo == "" {
			errs = append(errs, errors.New("content.github.owner and content.github.repo are required for the github backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown content.backend %q", c.Content.Backend))
	}
	switch script.OnomatopoeiaMode(c.Render.Onomatopoeia) {
	case script.OnomatopoeiaLine, script.OnomatopoeiaInline:
	default:
		errs = append(errs, fmt.Errorf("unknown render.onomatopoeia %q", c.Render.Onomatopoeia))
	}
	return errors.Join(errs...)
}

// Options returns the renderer options.
func (r RenderConfig) Options() script.RenderOptions {
	return script.RenderOptions{
		MaxLineWidth: r.MaxLineWidth,
		NumberLines:  r.NumberLines,
		Onomatopoeia: script.OnomatopoeiaMode(r.Onomatopoeia),
	}
}

// EffectiveTimeout returns the GitHub client timeout.
func (g GitHubConfig) EffectiveTimeout() time.Duration {
	if g.TimeoutMs <= 0 {
		return time.Duration(Defaults().Content.GitHub.TimeoutMs) * time.Millisecond
	}
	return time.Duration(g.TimeoutMs) * time.Millisecond
}
