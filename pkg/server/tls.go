package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// certReloader serves the key pair on disk and swaps it whenever either file changes, so a
// rotated certificate is picked up without a restart.
type certReloader struct {
	certPath, keyPath string

	mu   sync.RWMutex
	cert *tls.Certificate
}

// newCertReloader loads the key pair and watches it for the lifetime of the app.
func newCertReloader(lc fx.Lifecycle, certPath, keyPath string) (*certReloader, error) {
	r := &certReloader{certPath: certPath, keyPath: keyPath}
	if err := r.reload(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("tls: watcher: %w", err)
			}
			for _, path := range []string{certPath, keyPath} {
				if err := watcher.Add(path); err != nil {
					watcher.Close()
					return fmt.Errorf("tls: watch %s: %w", path, err)
				}
			}
			go r.watch(ctx, watcher)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
	return r, nil
}

func (r *certReloader) reload() error {
	cert, err := tls.LoadX509KeyPair(r.certPath, r.keyPath)
	if err != nil {
		return fmt.Errorf("tls: load key pair: %w", err)
	}
	r.mu.Lock()
	r.cert = &cert
	r.mu.Unlock()
	return nil
}

func (r *certReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cert, nil
}

func (r *certReloader) Config() *tls.Config {
	return &tls.Config{
		MinVersion:     tls.VersionTLS12,
		GetCertificate: r.GetCertificate,
	}
}

func (r *certReloader) watch(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			// a failed reload keeps serving the previous pair
			if err := r.reload(); err != nil {
				zap.L().Error("tls reload failed", zap.String("file", event.Name), zap.Error(err))
				continue
			}
			zap.L().Info("tls certificate reloaded", zap.String("file", event.Name))
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			zap.L().Warn("tls watcher error", zap.Error(err))
		}
	}
}
