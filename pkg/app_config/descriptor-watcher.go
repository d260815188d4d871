package app_config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/couchbase/stellar-connstr/contrib/mongoconnstr"
	"github.com/couchbase/stellar-connstr/pkg/metrics"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var errEmptyDescriptorFile = errors.New("descriptor file is empty")

type DescriptorWatcherOptions struct {
	Logger  *zap.Logger
	Path    string
	Metrics *metrics.ConnStrMetrics
}

// DescriptorWatcher keeps the connection string stored in a file parsed, and
// notifies subscribers every time the file is rewritten.  If the new contents
// fail to parse the previous descriptor is kept.
type DescriptorWatcher struct {
	logger  *zap.Logger
	path    string
	metrics *metrics.ConnStrMetrics
	watch   *fsnotify.Watcher

	lock     sync.RWMutex
	current  *mongoconnstr.Descriptor
	watchers map[uuid.UUID]chan<- *mongoconnstr.Descriptor

	closed    chan struct{}
	closeOnce sync.Once
}

func checkExists(file string) bool {
	if _, err := os.Stat(file); err != nil {
		return false
	}
	return true
}

func NewDescriptorWatcher(opts DescriptorWatcherOptions) (*DescriptorWatcher, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.GetConnStrMetrics()
	}

	if !checkExists(opts.Path) {
		file, err := os.Create(opts.Path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create descriptor file")
		}
		_ = file.Close()
	}

	w := &DescriptorWatcher{
		logger:   opts.Logger,
		path:     filepath.Clean(opts.Path),
		metrics:  opts.Metrics,
		current:  mongoconnstr.New(),
		watchers: map[uuid.UUID]chan<- *mongoconnstr.Descriptor{},
		closed:   make(chan struct{}),
	}

	// a broken initial file is logged and leaves the empty descriptor in place
	_, _ = w.reload()

	watch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create file watcher")
	}
	w.watch = watch

	err = w.startWatcher()
	if err != nil {
		_ = watch.Close()
		return nil, errors.Wrap(err, "failed to watch descriptor file")
	}

	return w, nil
}

func (w *DescriptorWatcher) reload() (*mongoconnstr.Descriptor, error) {
	bytes, err := os.ReadFile(w.path)
	if err != nil {
		w.logger.Warn("failed to read descriptor file", zap.String("path", w.path), zap.Error(err))
		return nil, err
	}

	connStr := strings.TrimSpace(string(bytes))
	if connStr == "" {
		// truncation shows up as its own write event, before the new contents land
		w.logger.Debug("descriptor file is empty, keeping previous descriptor", zap.String("path", w.path))
		return nil, errEmptyDescriptorFile
	}

	d, report, err := mongoconnstr.ParseWithReport(connStr)
	w.metrics.RecordParse(context.Background(), report, err)
	if err != nil {
		w.logger.Warn("failed to parse descriptor file, keeping previous descriptor",
			zap.String("path", w.path),
			zap.Error(err))
		return nil, err
	}

	if !report.Empty() {
		w.logger.Info("descriptor file contained skipped items",
			zap.Strings("droppedSegments", report.DroppedSegments),
			zap.Strings("droppedHosts", report.DroppedHosts),
			zap.Strings("overwritten", report.Overwritten))
	}

	d.EnsureHost()

	w.lock.Lock()
	w.current = d
	w.lock.Unlock()

	w.logger.Info("loaded descriptor",
		zap.String("path", w.path),
		zap.String("descriptor", d.RedactedString()))

	return d, nil
}

func (w *DescriptorWatcher) broadcast() {
	w.lock.RLock()
	current := w.current
	chans := make([]chan<- *mongoconnstr.Descriptor, 0, len(w.watchers))
	for _, ch := range w.watchers {
		chans = append(chans, ch)
	}
	w.lock.RUnlock()

	for _, ch := range chans {
		select {
		case ch <- current.Clone():
		case <-w.closed:
			return
		}
	}
}

// isWatchedFile reports whether an event in the parent directory concerns
// the descriptor file.
func (w *DescriptorWatcher) isWatchedFile(event fsnotify.Event) bool {
	return filepath.Clean(event.Name) == w.path
}

func (w *DescriptorWatcher) startWatcher() error {
	go func() {
		for {
			select {
			case event, ok := <-w.watch.Events:
				if !ok {
					return
				}
				if !w.isWatchedFile(event) {
					continue
				}

				// a rename-replace shows up as Remove/Rename of the old file
				// followed by Create of the new one
				if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					w.logger.Info("descriptor file removed or renamed, waiting for a replacement",
						zap.String("path", w.path),
						zap.String("op", event.Op.String()))
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					if _, err := w.reload(); err == nil {
						w.broadcast()
					}
				}
			case err, ok := <-w.watch.Errors:
				if !ok {
					return
				}
				w.logger.Warn("descriptor file watcher error", zap.Error(err))
			}
		}
	}()

	// the directory is watched rather than the file, so that the watch
	// survives the file being atomically replaced
	return w.watch.Add(filepath.Dir(w.path))
}

// Current returns a copy of the most recently loaded descriptor.
func (w *DescriptorWatcher) Current() *mongoconnstr.Descriptor {
	w.lock.RLock()
	defer w.lock.RUnlock()
	return w.current.Clone()
}

// Subscribe registers ch to receive every successfully reloaded descriptor.
// Sends block until ch is drained or the watcher is closed.  The returned
// func unsubscribes.
func (w *DescriptorWatcher) Subscribe(ch chan<- *mongoconnstr.Descriptor) func() {
	id := uuid.New()

	w.lock.Lock()
	w.watchers[id] = ch
	w.lock.Unlock()

	return func() {
		w.lock.Lock()
		delete(w.watchers, id)
		w.lock.Unlock()
	}
}

// Close stops watching and releases any broadcast blocked on a subscriber.
func (w *DescriptorWatcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.closed)
	})
	return w.watch.Close()
}
