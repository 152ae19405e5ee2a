package config

import (
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/freqkit/freqkit/boost"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/exp/slog"
	"gopkg.in/tomb.v2"
)

// Target receives reloaded configurations. *boost.Driver implements it.
type Target interface {
	SetConfig(config boost.Config) error
}

// Watcher reloads a configuration file whenever it changes and installs the result on a Target.
// A file that fails to parse is logged and the previous configuration stays in effect.
type Watcher struct {
	logger  *slog.Logger
	path    string
	target  Target
	watcher *fsnotify.Watcher

	tomb tomb.Tomb
}

// Watch starts watching path. The directory is watched rather than the file so that editors
// replacing the file by rename are noticed.
func Watch(logger *slog.Logger, path string, target Target) (*Watcher, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve %s", path)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create file watcher")
	}

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, errors.Wrapf(err, "failed to watch %s", filepath.Dir(path))
	}

	w := &Watcher{
		logger:  logger.With(slog.String("Config", path)),
		path:    path,
		target:  target,
		watcher: watcher,
	}
	w.tomb.Go(w.loop)
	return w, nil
}

func (w *Watcher) loop() error {
	defer w.watcher.Close()

	for {
		select {
		case <-w.tomb.Dying():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("config watcher failed", slog.Any("Error", err))
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Error("ignoring invalid configuration", slog.Any("Error", err))
		return
	}

	if err := w.target.SetConfig(cfg); err != nil {
		w.logger.Error("failed to install configuration", slog.Any("Error", err))
		return
	}
	w.logger.Info("configuration reloaded")
}

// Stop stops watching and waits for the watcher goroutine to exit
func (w *Watcher) Stop() error {
	w.tomb.Kill(nil)
	return w.tomb.Wait()
}
