package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// FileSignal signals other processes on the same machine by rewriting a
// marker file; subscribers watch it. Only the latest event survives in the
// file, so bursts collapse into one notification.
type FileSignal struct {
	path   string
	logger *zap.Logger
}

func NewFileSignal(path string, logger *zap.Logger) (*FileSignal, error) {
	if path == "" {
		return nil, fmt.Errorf("signal file path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve signal file path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o700); err != nil {
		return nil, fmt.Errorf("create signal directory: %w", err)
	}
	return &FileSignal{path: abs, logger: logger}, nil
}

func (f *FileSignal) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode signal: %w", err)
	}

	tmpPath := f.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("write signal file: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename signal file: %w", err)
	}
	return nil
}

func (f *FileSignal) Subscribe(ctx context.Context) (<-chan Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create signal watcher: %w", err)
	}
	// Watch the directory: the marker is replaced by rename, which drops
	// watches placed on the file itself.
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch signal directory: %w", err)
	}

	out := make(chan Event, defaultBuffer)
	go func() {
		defer close(out)
		defer watcher.Close()

		var last []byte
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				f.logger.Warn("signal watcher error", zap.String("path", f.path), zap.Error(err))
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != f.path || (!ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write)) {
					continue
				}
				data, err := os.ReadFile(f.path)
				if err != nil || bytes.Equal(data, last) {
					continue
				}
				var event Event
				if err := json.Unmarshal(data, &event); err != nil {
					f.logger.Debug("ignoring unreadable signal", zap.String("path", f.path), zap.Error(err))
					continue
				}
				last = data
				select {
				case out <- event:
				default:
				}
			}
		}
	}()

	return out, nil
}
