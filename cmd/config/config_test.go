package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigYAML(t *testing.T) {
	dir := t.TempDir()
	content := `version: v1
server_url: http://rag.internal:8000
project: proj_abc
max_chunks: 8
include_sources: false
`
	if err := os.WriteFile(filepath.Join(dir, "ragbot.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.ServerURL != "http://rag.internal:8000" {
		t.Errorf("server_url = %q", cfg.ServerURL)
	}
	if cfg.Project != "proj_abc" {
		t.Errorf("project = %q", cfg.Project)
	}
	if cfg.MaxChunks != 8 {
		t.Errorf("max_chunks = %d", cfg.MaxChunks)
	}
	if cfg.IncludeSources == nil || *cfg.IncludeSources != false {
		t.Errorf("include_sources = %v", cfg.IncludeSources)
	}
}

func TestLoadConfigTOML(t *testing.T) {
	dir := t.TempDir()
	content := `server_url = "http://localhost:9000"
project = "proj_toml"
`
	if err := os.WriteFile(filepath.Join(dir, "ragbot.toml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.ServerURL != "http://localhost:9000" || cfg.Project != "proj_toml" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadConfigJSON(t *testing.T) {
	dir := t.TempDir()
	content := `{"server_url": "http://localhost:7000", "max_chunks": 3}`
	if err := os.WriteFile(filepath.Join(dir, "ragbot.json"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.ServerURL != "http://localhost:7000" || cfg.MaxChunks != 3 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestFindConfigFilePrecedence(t *testing.T) {
	dir := t.TempDir()
	// yaml is found before toml when both exist
	os.WriteFile(filepath.Join(dir, "ragbot.toml"), []byte(""), 0644)
	os.WriteFile(filepath.Join(dir, "ragbot.yaml"), []byte(""), 0644)

	found, err := FindConfigFile(dir)
	if err != nil {
		t.Fatalf("FindConfigFile failed: %v", err)
	}
	if filepath.Base(found) != "ragbot.yaml" {
		t.Errorf("expected ragbot.yaml to win, got %s", found)
	}
}

func TestIsConfigFile(t *testing.T) {
	if !IsConfigFile("/some/dir/ragbot.yaml") {
		t.Error("ragbot.yaml should be recognized")
	}
	if !IsConfigFile("ragbot.toml") {
		t.Error("ragbot.toml should be recognized")
	}
	if IsConfigFile("/some/dir/other.yaml") {
		t.Error("other.yaml should not be recognized")
	}
}

func TestGetClientConfigDefaults(t *testing.T) {
	t.Setenv(EnvServerURL, "")
	t.Setenv(EnvMaxChunks, "")

	cfg, err := GetClientConfig(t.TempDir(), "", "")
	if err != nil {
		t.Fatalf("GetClientConfig failed: %v", err)
	}
	if cfg.URL != DefaultServerURL {
		t.Errorf("URL = %q, want default %q", cfg.URL, DefaultServerURL)
	}
	if cfg.MaxChunks != DefaultMaxChunks {
		t.Errorf("MaxChunks = %d, want %d", cfg.MaxChunks, DefaultMaxChunks)
	}
	if !cfg.IncludeSources {
		t.Error("IncludeSources should default to true")
	}
}

func TestGetClientConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	content := `server_url: http://from-file:8000
project: proj_file
max_chunks: 2
`
	if err := os.WriteFile(filepath.Join(dir, "ragbot.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvServerURL, "http://from-env:8000")
	t.Setenv(EnvMaxChunks, "7")

	// Flag beats env beats file
	cfg, err := GetClientConfig(dir, "http://from-flag:8000", "proj_flag")
	if err != nil {
		t.Fatalf("GetClientConfig failed: %v", err)
	}
	if cfg.URL != "http://from-flag:8000" {
		t.Errorf("flag must win for URL, got %q", cfg.URL)
	}
	if cfg.Project != "proj_flag" {
		t.Errorf("flag must win for project, got %q", cfg.Project)
	}
	if cfg.MaxChunks != 7 {
		t.Errorf("env must win over file for max_chunks, got %d", cfg.MaxChunks)
	}

	// Without the flag, env wins for URL; file still supplies the project
	cfg, err = GetClientConfig(dir, "", "")
	if err != nil {
		t.Fatalf("GetClientConfig failed: %v", err)
	}
	if cfg.URL != "http://from-env:8000" {
		t.Errorf("env must win over file for URL, got %q", cfg.URL)
	}
	if cfg.Project != "proj_file" {
		t.Errorf("file must supply the project, got %q", cfg.Project)
	}
}

func TestGetClientConfigMissingFileIsNotAnError(t *testing.T) {
	t.Setenv(EnvServerURL, "")
	t.Setenv(EnvMaxChunks, "")

	cfg, err := GetClientConfig(t.TempDir(), "http://somewhere:8000", "")
	if err != nil {
		t.Fatalf("a missing config file must not be an error, got %v", err)
	}
	if cfg.URL != "http://somewhere:8000" {
		t.Errorf("URL = %q", cfg.URL)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ragbot.yaml")

	include := true
	original := &RagbotConfig{
		Version:        "v1",
		ServerURL:      "http://localhost:8000",
		Project:        "proj_1",
		MaxChunks:      4,
		IncludeSources: &include,
	}
	if err := SaveConfig(original, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile failed: %v", err)
	}
	if loaded.ServerURL != original.ServerURL || loaded.Project != original.Project || loaded.MaxChunks != original.MaxChunks {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}
