package config

import (
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/ragcore/ragcore/internal/core"
)

// ScenarioWatcher watches a scenario config file on disk and invokes a
// callback with the reloaded ScenarioConfig whenever it changes, grounded
// on the teacher's internal/watcher/hybrid.go's fsnotify event loop,
// narrowed from recursive directory watching to a single file.
type ScenarioWatcher struct {
	fsw *fsnotify.Watcher
}

// WatchScenario starts watching path and calls onChange with the reloaded
// ScenarioConfig after every write. Stop the returned watcher's Close to
// end watching.
func WatchScenario(path, scenarioID string, onChange func(core.ScenarioConfig)) (*ScenarioWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &ScenarioWatcher{fsw: fsw}

	go func() {
		for {
			select {
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				scenario, err := LoadScenario(path, scenarioID)
				if err != nil {
					slog.Warn("scenario_config_reload_failed", slog.String("path", path), slog.String("error", err.Error()))
					continue
				}
				onChange(scenario)
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				slog.Warn("scenario_watcher_error", slog.String("error", err.Error()))
			}
		}
	}()

	return w, nil
}

// Close stops the watcher.
func (w *ScenarioWatcher) Close() error {
	return w.fsw.Close()
}
