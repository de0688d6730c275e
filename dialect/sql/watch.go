package sql

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// ConfigWatcher reloads a YAML configuration file when it changes and
// applies its slow_threshold to a StatsDriver. Other settings require
// reopening the driver and are ignored.
//
//	w, err := sql.NewConfigWatcher("db.yaml", statsDriver)
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//	go w.Run(ctx)
type ConfigWatcher struct {
	path string
	drv  *StatsDriver
	w    *fsnotify.Watcher
	log  *slog.Logger
}

// NewConfigWatcher starts watching path. The directory is watched rather
// than the file, so editors replacing the file by rename are observed.
func NewConfigWatcher(path string, drv *StatsDriver) (*ConfigWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: config watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("dialect/sql: config watcher: %w", err)
	}
	return &ConfigWatcher{path: abs, drv: drv, w: w, log: slog.Default()}, nil
}

// Run applies changes until ctx is done or the watcher is closed.
// Invalid files are logged and leave the current threshold unchanged.
func (c *ConfigWatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-c.w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != c.path || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if err := c.Reload(); err != nil {
				c.log.WarnContext(ctx, "config reload failed", "path", c.path, "error", err)
			}
		case err, ok := <-c.w.Errors:
			if !ok {
				return nil
			}
			c.log.WarnContext(ctx, "config watcher error", "path", c.path, "error", err)
		}
	}
}

// Reload reads the file and applies its slow_threshold.
func (c *ConfigWatcher) Reload() error {
	f, err := os.Open(c.path)
	if err != nil {
		return err
	}
	defer f.Close()
	cfg, err := LoadConfig(f)
	if err != nil {
		return err
	}
	if cfg.SlowThreshold > 0 && cfg.SlowThreshold != c.drv.SlowThreshold() {
		c.drv.SetSlowThreshold(cfg.SlowThreshold)
		c.log.Info("slow query threshold updated", "threshold", cfg.SlowThreshold)
	}
	return nil
}

// Close stops watching.
func (c *ConfigWatcher) Close() error { return c.w.Close() }
