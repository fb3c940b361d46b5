package compliance

import (
	"context"

	"github.com/fsnotify/fsnotify"
	"github.com/linnemanlabs/go-core/log"
)

// Watch monitors the rule file for changes and swaps the Monitor's catalog
// each time it is rewritten. It runs until ctx is cancelled.
//
// If a reload fails (e.g. invalid YAML), the error is logged and the
// previous catalog remains active.
func Watch(ctx context.Context, path string, m *Monitor, logger log.Logger) error {
	if logger == nil {
		logger = log.Nop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(path); err != nil {
		return err
	}

	logger.Info(ctx, "watching compliance rules", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Only reload on write or create events. Editors often write via
			// rename (atomic save), so also catch fsnotify.Create.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := LoadConfig(path)
			if err != nil {
				logger.Error(ctx, err, "compliance rules reload failed, keeping previous catalog", "path", path)
				continue
			}

			m.SetConfig(cfg)
			logger.Info(ctx, "compliance rules reloaded", "path", path, "rules", len(cfg.Rules))

			// Re-add the file in case an atomic save replaced the inode.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error(ctx, err, "compliance rules watcher error")
		}
	}
}
