// Package watcher analyzes documents as they land in inbox directories.
//
// Events flow through four stages before the handler sees them: the ignore
// filter drops temp files and unsupported extensions, the debouncer waits
// for a burst of writes to settle, the stability checker waits for the size
// to stop changing, and a rate limiter caps how many documents are analyzed
// per second.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"
	"golang.org/x/time/rate"

	"filegroups/internal/logging"
)

// ErrAlreadyRunning is returned by Start when another session holds the lock file.
var ErrAlreadyRunning = errors.New("another watch session is already running")

// queueSize bounds the number of settled paths waiting for the worker.
const queueSize = 64

// Config contains watcher settings.
type Config struct {
	Debounce        time.Duration // Quiet period after the last event for a path
	StableThreshold time.Duration // Size must stay unchanged this long
	StableTimeout   time.Duration // Give up waiting for stability after this long
	IgnorePatterns  []string      // Added to DefaultIgnorePatterns
	Extensions      []string      // Accepted extensions with leading dots; empty accepts all
	MaxPerSecond    float64       // Analysis rate cap; 0 means unlimited
	LockFile        string        // Lock held for the session; empty disables locking
	Logger          *slog.Logger
}

// DefaultConfig returns a Config with a 2s debounce, 1s stability threshold
// and at most two documents per second.
func DefaultConfig() Config {
	return Config{
		Debounce:        2 * time.Second,
		StableThreshold: time.Second,
		StableTimeout:   30 * time.Second,
		MaxPerSecond:    2,
	}
}

// Outcome is what the handler reports for one analyzed document.
type Outcome struct {
	Patterns   int
	TotalFound int
}

// Handler analyzes one settled document.
type Handler func(ctx context.Context, path string) (Outcome, error)

// WatchSummary contains stats from the watch session.
type WatchSummary struct {
	DocumentsAnalyzed int
	DocumentsFailed   int
	EventsIgnored     int
	FilesFound        int // Sum of TotalFound over analyzed documents
	Duration          time.Duration
}

// Watcher monitors directories and hands settled documents to a Handler.
type Watcher struct {
	config    Config
	handler   Handler
	logger    *slog.Logger
	filter    *FileFilter
	stability *StabilityChecker
	limiter   *rate.Limiter
	lock      *flock.Flock

	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	queue     chan string
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startTime time.Time
	running   bool

	mu      sync.Mutex
	summary WatchSummary
}

// New creates a Watcher. Zero durations in cfg fall back to DefaultConfig.
func New(cfg Config, handler Handler) *Watcher {
	d := DefaultConfig()
	if cfg.Debounce <= 0 {
		cfg.Debounce = d.Debounce
	}
	if cfg.StableTimeout <= 0 {
		cfg.StableTimeout = d.StableTimeout
	}

	limit := rate.Inf
	if cfg.MaxPerSecond > 0 {
		limit = rate.Limit(cfg.MaxPerSecond)
	}
	interval := cfg.StableThreshold / 4
	if interval < 50*time.Millisecond {
		interval = 50 * time.Millisecond
	}

	w := &Watcher{
		config:    cfg,
		handler:   handler,
		logger:    logging.OrNop(cfg.Logger).With(slog.String("component", "watcher")),
		filter:    NewFileFilter(cfg.IgnorePatterns, cfg.Extensions),
		stability: NewStabilityCheckerWithOptions(cfg.StableThreshold, cfg.StableTimeout, interval),
		limiter:   rate.NewLimiter(limit, 1),
	}
	if cfg.LockFile != "" {
		w.lock = flock.New(cfg.LockFile)
	}
	return w
}

// Start acquires the lock file and begins watching dirs. It returns
// ErrAlreadyRunning when another session holds the lock. The watcher runs
// until Stop is called or ctx is cancelled.
func (w *Watcher) Start(ctx context.Context, dirs []string) error {
	if len(dirs) == 0 {
		return errors.New("no directories to watch")
	}

	if w.lock != nil {
		if err := os.MkdirAll(filepath.Dir(w.config.LockFile), 0o755); err != nil {
			return fmt.Errorf("create lock directory: %w", err)
		}
		ok, err := w.lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return ErrAlreadyRunning
		}
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.unlock()
		return err
	}
	for _, dir := range dirs {
		absDir, err := filepath.Abs(dir)
		if err == nil {
			err = fsWatcher.Add(absDir)
		}
		if err != nil {
			fsWatcher.Close()
			w.unlock()
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		w.logger.Info("watching directory", slog.String("path", absDir))
	}

	ctx, cancel := context.WithCancel(ctx)
	w.fsWatcher = fsWatcher
	w.cancel = cancel
	w.queue = make(chan string, queueSize)
	w.debouncer = NewDebouncer(w.config.Debounce, func(path string) {
		select {
		case w.queue <- path:
		case <-ctx.Done():
		}
	})
	w.startTime = time.Now()
	w.running = true

	w.wg.Add(2)
	go w.processEvents(ctx)
	go w.processQueue(ctx)
	return nil
}

// Stop shuts the watcher down, releases the lock file and returns a summary
// of the session. Documents still waiting in the debouncer are dropped.
func (w *Watcher) Stop() *WatchSummary {
	if w.running {
		w.debouncer.Stop()
		w.cancel()
		w.wg.Wait()
		w.fsWatcher.Close()
		w.unlock()
		w.running = false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	summary := w.summary
	if !w.startTime.IsZero() {
		summary.Duration = time.Since(w.startTime)
	}
	return &summary
}

// IsRunning reports whether Start succeeded and Stop has not been called.
func (w *Watcher) IsRunning() bool {
	return w.running
}

func (w *Watcher) unlock() {
	if w.lock != nil {
		_ = w.lock.Unlock()
	}
}

// processEvents filters fsnotify events and feeds the debouncer.
func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !w.filter.Accepts(event.Name) {
				w.logger.Debug("ignoring file", slog.String("path", event.Name))
				w.count(func(s *WatchSummary) { s.EventsIgnored++ })
				continue
			}
			w.debouncer.Add(event.Name)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", logging.Error(err))
		}
	}
}

// processQueue analyzes settled paths one at a time.
func (w *Watcher) processQueue(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case path := <-w.queue:
			w.handle(ctx, path)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, path string) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return
	}

	if _, err := w.stability.WaitForStable(ctx, path); err != nil {
		if ctx.Err() != nil {
			return
		}
		w.logger.Warn("file not stable", slog.String("path", path), logging.Error(err))
		w.count(func(s *WatchSummary) { s.DocumentsFailed++ })
		return
	}

	if err := w.limiter.Wait(ctx); err != nil {
		return
	}

	if w.handler == nil {
		w.count(func(s *WatchSummary) { s.DocumentsAnalyzed++ })
		return
	}

	outcome, err := w.handler(ctx, path)
	if err != nil {
		w.logger.Error("analysis failed", slog.String("path", path), logging.Error(err))
		w.count(func(s *WatchSummary) { s.DocumentsFailed++ })
		return
	}

	w.logger.Info("document analyzed",
		slog.String("path", path),
		slog.Int("patterns", outcome.Patterns),
		slog.Int("totalFound", outcome.TotalFound),
	)
	w.count(func(s *WatchSummary) {
		s.DocumentsAnalyzed++
		s.FilesFound += outcome.TotalFound
	})
}

func (w *Watcher) count(update func(*WatchSummary)) {
	w.mu.Lock()
	update(&w.summary)
	w.mu.Unlock()
}
