// Copyright 2024 The refactorctl Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the environment flags and the optional
// project-local YAML file described in spec §6: per-phase timing
// traces, file-walker cache tuning, rewrite parallelism, importer
// lookup preference, and the validation hook run after C8 succeeds.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rogpeppe/go-internal/lockedfile"
	"gopkg.in/yaml.v3"

	"github.com/typemill-go/refactorctl/internal/errs"
)

// OnFailure selects what the engine does when the validation command
// exits non-zero.
type OnFailure string

const (
	Report      OnFailure = "Report"
	Rollback    OnFailure = "Rollback"
	Interactive OnFailure = "Interactive"
)

// Validation is the validation.* config block (spec §6).
type Validation struct {
	Enabled   bool      `yaml:"enabled"`
	Command   string    `yaml:"command"`
	OnFailure OnFailure `yaml:"on_failure"`
}

func (v Validation) validate() error {
	if !v.Enabled {
		return nil
	}
	if strings.TrimSpace(v.Command) == "" {
		return errs.New(errs.InvalidRequest, "validation.enabled is true but validation.command is empty")
	}
	switch v.OnFailure {
	case Report, Rollback, Interactive:
	case "":
		// defaulted to Report below.
	default:
		return errs.New(errs.InvalidRequest, "validation.on_failure %q is not one of Report, Rollback, Interactive", v.OnFailure)
	}
	return nil
}

// Config holds the fully resolved set of environment flags plus the
// optional file-backed validation hook and cache directory override.
type Config struct {
	PerfTrace            bool
	FileListWatch        bool
	FileListCacheTTL     time.Duration
	RewriteConcurrency   int
	PreferCacheImporters bool
	SkipLSPForDir        bool

	Validation Validation
	CacheDir   string
}

// fileConfig is the shape of the optional YAML config file; only the
// fields environment flags don't already cover live here, matching the
// teacher's split between env-first flags and a file for the rest.
type fileConfig struct {
	Validation Validation `yaml:"validation"`
	CacheDir   string     `yaml:"cache_dir"`
}

const defaultRewriteConcurrency = 8
const minRewriteConcurrency = 1
const maxRewriteConcurrency = 128

// Load resolves a Config from the process environment (via getenv,
// normally os.Getenv) and an optional YAML file at path. A missing
// file is not an error; every field then takes its environment or
// zero-value default.
func Load(getenv func(string) string, projectRoot, path string) (Config, error) {
	cfg := Config{
		PerfTrace:            envBool(getenv, "PERF_TRACE", false),
		FileListWatch:        envBool(getenv, "FILELIST_WATCH", false),
		FileListCacheTTL:     envMillis(getenv, "FILELIST_CACHE_TTL_MS", 0),
		RewriteConcurrency:   clamp(envInt(getenv, "REWRITE_CONCURRENCY", defaultRewriteConcurrency), minRewriteConcurrency, maxRewriteConcurrency),
		PreferCacheImporters: envBool(getenv, "PREFER_CACHE_IMPORTERS", false),
		SkipLSPForDir:        envBool(getenv, "SKIP_LSP_FOR_DIR", false),
		CacheDir:             filepath.Join(projectRoot, ".refactorctl-cache"),
	}

	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, errs.New(errs.IOFailure, "reading config file %s: %v", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, errs.New(errs.InvalidRequest, "parsing config file %s: %v", path, err)
	}
	if err := fc.Validation.validate(); err != nil {
		return Config{}, err
	}
	if fc.Validation.Enabled && fc.Validation.OnFailure == "" {
		fc.Validation.OnFailure = Report
	}
	cfg.Validation = fc.Validation
	if fc.CacheDir != "" {
		cfg.CacheDir = fc.CacheDir
	}
	return cfg, nil
}

func envBool(getenv func(string) string, key string, def bool) bool {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(getenv func(string) string, key string, def int) int {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envMillis(getenv func(string) string, key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// resolvedSnapshot is what Persist writes to disk: a record of the
// configuration actually in effect for one run, for diagnostics.
type resolvedSnapshot struct {
	PerfTrace            bool      `yaml:"perf_trace"`
	FileListWatch        bool      `yaml:"filelist_watch"`
	FileListCacheTTLMS   int64     `yaml:"filelist_cache_ttl_ms"`
	RewriteConcurrency   int       `yaml:"rewrite_concurrency"`
	PreferCacheImporters bool      `yaml:"prefer_cache_importers"`
	SkipLSPForDir        bool      `yaml:"skip_lsp_for_dir"`
	ResolvedAt           time.Time `yaml:"resolved_at"`
}

// Persist writes the resolved Config to <CacheDir>/resolved-config.yaml
// for diagnostics, matching the teacher's lockedfile-guarded
// write-temp-then-rename idiom for its own on-disk config file: a
// lock file at the same path plus ".lock" serializes concurrent
// writers, and the rename keeps readers from ever observing a
// half-written file.
func (c Config) Persist() error {
	if err := os.MkdirAll(c.CacheDir, 0o777); err != nil {
		return errs.New(errs.IOFailure, "creating cache dir %s: %v", c.CacheDir, err)
	}
	path := filepath.Join(c.CacheDir, "resolved-config.yaml")

	unlock, err := lockedfile.MutexAt(path + ".lock").Lock()
	if err != nil {
		return errs.New(errs.IOFailure, "locking %s: %v", path, err)
	}
	defer unlock()

	snap := resolvedSnapshot{
		PerfTrace:            c.PerfTrace,
		FileListWatch:        c.FileListWatch,
		FileListCacheTTLMS:   c.FileListCacheTTL.Milliseconds(),
		RewriteConcurrency:   c.RewriteConcurrency,
		PreferCacheImporters: c.PreferCacheImporters,
		SkipLSPForDir:        c.SkipLSPForDir,
		ResolvedAt:           time.Now(),
	}
	data, err := yaml.Marshal(snap)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path+".tmp", data, 0o600); err != nil {
		return errs.New(errs.IOFailure, "writing %s: %v", path+".tmp", err)
	}
	if err := os.Rename(path+".tmp", path); err != nil {
		return errs.New(errs.IOFailure, "renaming %s: %v", path+".tmp", err)
	}
	return nil
}
