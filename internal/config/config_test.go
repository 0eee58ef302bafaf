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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func fakeEnv(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(fakeEnv(nil), dir, "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.PerfTrace || cfg.FileListWatch || cfg.PreferCacheImporters || cfg.SkipLSPForDir {
		t.Fatalf("expected all bool flags false by default, got %+v", cfg)
	}
	if cfg.RewriteConcurrency != defaultRewriteConcurrency {
		t.Fatalf("RewriteConcurrency = %d, want %d", cfg.RewriteConcurrency, defaultRewriteConcurrency)
	}
	if cfg.CacheDir != filepath.Join(dir, ".refactorctl-cache") {
		t.Fatalf("unexpected default CacheDir: %s", cfg.CacheDir)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	env := fakeEnv(map[string]string{
		"PERF_TRACE":            "true",
		"FILELIST_WATCH":        "1",
		"FILELIST_CACHE_TTL_MS": "5000",
		"REWRITE_CONCURRENCY":   "999",
		"PREFER_CACHE_IMPORTERS": "true",
		"SKIP_LSP_FOR_DIR":      "true",
	})
	cfg, err := Load(env, dir, "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.PerfTrace || !cfg.FileListWatch || !cfg.PreferCacheImporters || !cfg.SkipLSPForDir {
		t.Fatalf("expected all bool flags true, got %+v", cfg)
	}
	if cfg.FileListCacheTTL != 5*time.Second {
		t.Fatalf("FileListCacheTTL = %v, want 5s", cfg.FileListCacheTTL)
	}
	if cfg.RewriteConcurrency != maxRewriteConcurrency {
		t.Fatalf("RewriteConcurrency = %d, want clamp to %d", cfg.RewriteConcurrency, maxRewriteConcurrency)
	}
}

func TestLoadValidationFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "refactorctl.yaml")
	body := "validation:\n  enabled: true\n  command: \"go build ./...\"\n  on_failure: Rollback\ncache_dir: \"/tmp/custom-cache\"\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(fakeEnv(nil), dir, path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.Validation.Enabled || cfg.Validation.Command != "go build ./..." || cfg.Validation.OnFailure != Rollback {
		t.Fatalf("unexpected validation config: %+v", cfg.Validation)
	}
	if cfg.CacheDir != "/tmp/custom-cache" {
		t.Fatalf("CacheDir = %s, want override applied", cfg.CacheDir)
	}
}

func TestLoadRejectsEnabledValidationWithoutCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "refactorctl.yaml")
	body := "validation:\n  enabled: true\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(fakeEnv(nil), dir, path); err == nil {
		t.Fatal("expected error for enabled validation with empty command")
	}
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(fakeEnv(nil), dir, filepath.Join(dir, "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Validation.Enabled {
		t.Fatalf("expected zero-value validation config, got %+v", cfg.Validation)
	}
}

func TestPersistWritesResolvedSnapshot(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(fakeEnv(map[string]string{"PERF_TRACE": "true"}), dir, "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Persist(); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}
	snapPath := filepath.Join(cfg.CacheDir, "resolved-config.yaml")
	if _, err := os.Stat(snapPath); err != nil {
		t.Fatalf("expected resolved snapshot at %s: %v", snapPath, err)
	}
}
