package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"clipstack/internal/capture"
	"clipstack/internal/config"
	"clipstack/internal/transport/nativemsg"
	"clipstack/internal/transport/ws"
)

const shutdownTimeout = 5 * time.Second

// ServeOptions configures Serve.
type ServeOptions struct {
	// Clipboard is polled for captures. Nil disables capture.
	Clipboard capture.Clipboard
	// ConfigPath is watched for changes to the capture settings. Empty disables reloads.
	ConfigPath string
	// Listener overrides cfg.Server.Addr.
	Listener net.Listener
}

// Serve runs the capture watcher and the WebSocket server until ctx is
// cancelled or one of them fails.
func (a *ClipApp) Serve(ctx context.Context, opts ServeOptions) error {
	ln := opts.Listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", a.cfg.Server.Addr)
		if err != nil {
			return fmt.Errorf("listening on %s: %w", a.cfg.Server.Addr, err)
		}
	}

	wsServer := ws.NewServer(a.router, a.log, a.cfg.Server.RatePerMinute, a.cfg.Server.Burst)
	wsServer.AllowExtensions(a.cfg.Server.AllowedExtensions...)
	mux := http.NewServeMux()
	mux.Handle("/ws", wsServer)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := a.storage.ValidateSetup(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, "ok\n")
	})
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("websocket server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		wsServer.Close()
		return err
	})

	var watcher *capture.Watcher
	if opts.Clipboard != nil {
		watcher = capture.NewWatcher(opts.Clipboard, a.router, a.marks, a.log, a.cfg.Capture)
		g.Go(func() error {
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if opts.ConfigPath != "" {
		g.Go(func() error {
			err := config.Watch(ctx, opts.ConfigPath, a.logger, func(cfg *config.Config) {
				if watcher != nil {
					watcher.Reconfigure(cfg.Capture)
				}
			})
			if err != nil {
				// Reloading is optional; serving continues without it.
				a.logger.Warn("config watch unavailable", "path", opts.ConfigPath, "error", err)
			}
			return nil
		})
	}

	err := g.Wait()
	a.logger.Info("server stopped")
	return err
}

// NativeHost serves native messaging frames from r, replying on w, until r
// reaches EOF or ctx is cancelled.
func (a *ClipApp) NativeHost(ctx context.Context, r io.Reader, w io.Writer) error {
	host := nativemsg.NewHost(a.router, a.log)
	a.logger.Info("native messaging host started")
	return host.Serve(ctx, r, w)
}
