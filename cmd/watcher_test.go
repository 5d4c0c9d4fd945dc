package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"ragbot-cli/cmd/config"
)

func TestConfigWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()

	reloaded := make(chan *config.RagbotConfig, 1)
	stop, err := StartConfigWatcher(dir, func(cfg *config.RagbotConfig) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	if err != nil {
		t.Fatalf("StartConfigWatcher failed: %v", err)
	}
	defer stop()

	content := "server_url: http://changed:8000\nproject: proj_new\n"
	if err := os.WriteFile(filepath.Join(dir, "ragbot.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.ServerURL != "http://changed:8000" || cfg.Project != "proj_new" {
			t.Fatalf("unexpected reloaded config: %+v", cfg)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("config change was not picked up")
	}
}

func TestConfigWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()

	reloaded := make(chan *config.RagbotConfig, 1)
	stop, err := StartConfigWatcher(dir, func(cfg *config.RagbotConfig) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	if err != nil {
		t.Fatalf("StartConfigWatcher failed: %v", err)
	}
	defer stop()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a config"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		t.Fatalf("unrelated file triggered a reload: %+v", cfg)
	case <-time.After(500 * time.Millisecond):
	}
}
