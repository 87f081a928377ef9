package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/eringen/spacetraveling"
)

var prebuild bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the blog server",
	Long: `serve starts the HTTP server. Pages stored by an earlier run or by the
build command are served right away. With --prebuild the listing and the
newest posts are rendered in the background once the server is up.

Changes to the config file are applied without a restart; every cached page
is then rebuilt on its next request.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		loader, cfg, err := loadConfig()
		if err != nil {
			return err
		}
		repo, err := newRepository(cfg)
		if err != nil {
			return err
		}

		app := spacetraveling.New(cfg, repo)
		if err := app.Setup(); err != nil {
			return err
		}
		defer app.Close()
		logger := app.Echo.Logger

		if f := loader.File(); f != "" {
			logger.Infof("using config file %s", f)
		}
		loader.Watch(func(cfg spacetraveling.SiteConfig, e fsnotify.Event) {
			logger.Infof("config file changed: %s", e.Name)
			if err := app.Reload(cfg); err != nil {
				logger.Errorf("reload config: %v", err)
			}
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if prebuild {
			go func() {
				if err := app.Prebuild(ctx); err != nil {
					logger.Errorf("prebuild failed, pages will be built on demand: %v", err)
				}
			}()
		}

		errc := make(chan error, 1)
		go func() {
			errc <- app.Echo.Start(app.Config.Addr)
		}()

		select {
		case err := <-errc:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&prebuild, "prebuild", false, "render the listing and newest posts at startup")
}
