package cmd

import (
	"fmt"
	"path/filepath"
	"sync"

	"ragbot-cli/cmd/config"

	"github.com/fsnotify/fsnotify"
)

var watcherOnce sync.Once

// StartConfigWatcher watches the effective working directory for changes to
// the ragbot config file and invokes onChange with the reloaded config.
// Returns a stop function that shuts the watcher down.
func StartConfigWatcher(dir string, onChange func(*config.RagbotConfig)) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !config.IsConfigFile(event.Name) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				logDebug(fmt.Sprintf("config watcher: %s %s", event.Op, event.Name))
				cfg, err := config.LoadConfigFile(filepath.Clean(event.Name))
				if err != nil {
					logDebug(fmt.Sprintf("config watcher: reload failed: %v", err))
					continue
				}
				if onChange != nil {
					onChange(cfg)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logDebug(fmt.Sprintf("config watcher error: %v", err))
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		watcher.Close()
	}, nil
}

// StartConfigWatcherForCommand starts a best-effort background watcher for
// the lifetime of a one-shot command. Reloads are logged; the next request
// function picks the new values up through GetClientConfig.
func StartConfigWatcherForCommand() {
	watcherOnce.Do(func() {
		_, err := StartConfigWatcher(getEffectiveCWD(), func(cfg *config.RagbotConfig) {
			logDebug(fmt.Sprintf("config reloaded: server_url=%s project=%s", cfg.ServerURL, cfg.Project))
		})
		if err != nil {
			logDebug(fmt.Sprintf("config watcher not started: %v", err))
		}
	})
}
