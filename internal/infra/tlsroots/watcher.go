package tlsroots

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the files must be quiet before a reload.
const DefaultDebounce = 300 * time.Millisecond

// CertWatcher holds the client key pair and reloads it when the files change.
type CertWatcher struct {
	certFile string
	keyFile  string
	logger   *slog.Logger
	debounce time.Duration
	onReload func()

	mu   sync.RWMutex
	cert *tls.Certificate

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	stopped  chan struct{}
}

// WatcherOption configures a CertWatcher.
type WatcherOption func(*CertWatcher)

// WithLogger sets the logger for the watcher.
func WithLogger(logger *slog.Logger) WatcherOption {
	return func(w *CertWatcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDebounce sets the quiet period before a reload.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *CertWatcher) {
		w.debounce = d
	}
}

// WithOnReload registers fn to run after each successful reload.
func WithOnReload(fn func()) WatcherOption {
	return func(w *CertWatcher) {
		w.onReload = fn
	}
}

// NewCertWatcher loads the key pair. Call Start to follow file changes.
func NewCertWatcher(certFile, keyFile string, opts ...WatcherOption) (*CertWatcher, error) {
	w := &CertWatcher{
		certFile: certFile,
		keyFile:  keyFile,
		logger:   slog.Default(),
		debounce: DefaultDebounce,
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.reload(); err != nil {
		return nil, err
	}
	return w, nil
}

// Start watches the directories holding the cert and key, which also
// catches editors and tools that replace files by rename. It returns once
// the watch is in place; reloads continue until ctx is done or Stop is called.
func (w *CertWatcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("tlsroots: create watcher: %w", err)
	}

	dirs := []string{filepath.Dir(w.certFile)}
	if d := filepath.Dir(w.keyFile); d != dirs[0] {
		dirs = append(dirs, d)
	}
	for _, d := range dirs {
		if err := fw.Add(d); err != nil {
			fw.Close()
			return fmt.Errorf("tlsroots: watch %s: %w", d, err)
		}
	}

	w.started.Store(true)
	w.logger.Debug("certificate watcher started", "cert_file", w.certFile, "key_file", w.keyFile)
	go w.loop(ctx, fw)
	return nil
}

// Stop ends the watch and waits for it to finish. It is safe to call more
// than once and on a watcher that was never started.
func (w *CertWatcher) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	if !w.started.Load() {
		return
	}
	select {
	case <-w.stopped:
	case <-time.After(time.Second):
	}
}

func (w *CertWatcher) loop(ctx context.Context, fw *fsnotify.Watcher) {
	defer close(w.stopped)
	defer fw.Close()

	watched := map[string]bool{
		filepath.Clean(w.certFile): true,
		filepath.Clean(w.keyFile):  true,
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if !watched[filepath.Clean(event.Name)] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("certificate file changed", "file", event.Name, "op", event.Op.String())

			// A cert write is usually followed by a key write; wait for both.
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if err := w.reload(); err != nil {
				w.logger.Error("certificate reload failed", "error", err, "cert_file", w.certFile)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Error("certificate watcher error", "error", err)

		case <-ctx.Done():
			return
		case <-w.stop:
			return
		}
	}
}

// Certificate returns the current key pair.
func (w *CertWatcher) Certificate() *tls.Certificate {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cert
}

// GetClientCertificate implements tls.Config.GetClientCertificate.
func (w *CertWatcher) GetClientCertificate(*tls.CertificateRequestInfo) (*tls.Certificate, error) {
	if cert := w.Certificate(); cert != nil {
		return cert, nil
	}
	return nil, errors.New("tlsroots: no client certificate loaded")
}

func (w *CertWatcher) reload() error {
	cert, err := tls.LoadX509KeyPair(w.certFile, w.keyFile)
	if err != nil {
		return fmt.Errorf("tlsroots: load key pair: %w", err)
	}

	w.mu.Lock()
	w.cert = &cert
	w.mu.Unlock()

	w.logger.Debug("certificate loaded", "cert_file", w.certFile)
	if w.onReload != nil {
		w.onReload()
	}
	return nil
}
