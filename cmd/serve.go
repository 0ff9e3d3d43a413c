package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rubiojr/reposearch/pkg/api"
	"github.com/rubiojr/reposearch/pkg/core"
	"github.com/rubiojr/reposearch/pkg/log"
	"github.com/urfave/cli/v3"
)

// Previous engines stay open this long after a reload so in-flight requests
// can finish with them.
const drainDelay = 30 * time.Second

// ServeCommand creates the serve command
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP search API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "Address to listen on (overrides server.listen)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, c.String("config"), c.String("listen"))
		},
	}
}

func serve(ctx context.Context, configPath, listen string) error {
	l := log.ForService("serve")

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if listen == "" {
		listen = cfg.Server.Listen
	}

	current, err := newEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := current.Close(); err != nil {
			l.Warnf("closing search engine: %v", err)
		}
	}()

	apiServer := api.NewServer(current.resolver, current.store)
	mux := http.NewServeMux()
	apiServer.RegisterRoutes(mux)

	server := &http.Server{
		Addr:         listen,
		Handler:      api.CorsMiddleware(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: (core.MaxUpstreamFetches + 1) * cfg.Catalog.Timeout.Duration,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		l.Infof("listening on http://%s (cache driver %s)", listen, cfg.Cache.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	var events <-chan fsnotify.Event
	var watchErrors <-chan error
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		l.Warnf("failed to create config file watcher: %v", err)
	} else {
		defer func() {
			if err := watcher.Close(); err != nil {
				l.Warnf("failed to close config file watcher: %v", err)
			}
		}()
		if err := watcher.Add(configPath); err != nil {
			l.Warnf("failed to watch config file %s: %v", configPath, err)
		} else {
			l.Infof("watching config file for changes: %s", configPath)
		}
		events = watcher.Events
		watchErrors = watcher.Errors
	}

	reload := func(reason string) {
		next, err := reloadEngine(ctx, configPath)
		if err != nil {
			l.Errorf("failed to reload configuration (%s): %v", reason, err)
			return
		}
		previous := current
		current = next
		apiServer.Swap(next.resolver, next.store)
		time.AfterFunc(drainDelay, func() {
			if err := previous.Close(); err != nil {
				l.Warnf("closing previous search engine: %v", err)
			}
		})
		l.Infof("configuration reloaded (%s)", reason)
	}

	for {
		select {
		case err, ok := <-serverErr:
			if ok {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		case <-ctx.Done():
			return shutdown(server)
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGHUP:
				l.Infof("received SIGHUP, reloading configuration")
				reload("SIGHUP")
			case syscall.SIGINT, syscall.SIGTERM:
				l.Infof("shutting down")
				return shutdown(server)
			}
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			// Editors often replace the file instead of writing it in place.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				time.Sleep(200 * time.Millisecond)
				if _, err := os.Stat(configPath); os.IsNotExist(err) {
					l.Warnf("config file was removed and not replaced, skipping reload")
					continue
				}
				if err := watcher.Add(configPath); err != nil {
					l.Warnf("failed to re-add config file to watcher: %v", err)
				}
			} else {
				time.Sleep(100 * time.Millisecond)
			}
			reload("config file " + event.Op.String())
		case err, ok := <-watchErrors:
			if !ok {
				watchErrors = nil
				continue
			}
			l.Warnf("config file watcher error: %v", err)
		}
	}
}

// reloadEngine builds a new engine from the file at configPath. The running
// engine is left untouched when the new configuration is invalid.
func reloadEngine(ctx context.Context, configPath string) (*engine, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return newEngine(ctx, cfg)
}

func shutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
