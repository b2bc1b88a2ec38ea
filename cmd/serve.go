// Luminary: A streamlined CLI tool for searching and downloading manga.
// Copyright (C) 2025 Luca M. Schmidt (LuMiSxh)
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"tanoshi/internal/config"
	"tanoshi/pkg/applog"
	"tanoshi/pkg/cache"
	"tanoshi/pkg/core"
	"tanoshi/pkg/downloadworker"
	"tanoshi/pkg/imageproxy"
	"tanoshi/pkg/imagesvc"
	"tanoshi/pkg/notifier"
	"tanoshi/pkg/repo/memrepo"
	"tanoshi/pkg/source/local"
	"tanoshi/pkg/sourcehost"
	"tanoshi/pkg/updateworker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tanoshi daemon: extension host, update/download workers, and the image proxy.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// runServe wires every long-lived component and blocks until a signal or a
// component failure brings the whole group down, handling signals the same
// way luminary/main.go does but via errgroup instead of a bare goroutine
// and os.Exit.
func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := applog.New("")
	log.Info("starting tanoshi: %s", cfg.String())

	store := memrepo.New()

	host := sourcehost.New(sourcehost.Options{
		Logger:    log.With("component", "sourcehost"),
		PluginDir: cfg.PluginPath,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error { return host.Run(gctx) })

	if err := loadSources(gctx, host, cfg); err != nil {
		return err
	}

	dlWorker := downloadworker.New(downloadworker.Options{
		DownloadRoot: cfg.DownloadPath,
		Mangas:       store.Mangas(),
		Chapters:     store.Chapters(),
		Downloads:    store.Downloads(),
		Library:      store.Library(),
		Host:         host,
		Notifier:     notifier.Noop(),
		Logger:       log.With("component", "downloadworker"),
	})
	group.Go(func() error { return dlWorker.Run(gctx) })

	var enqueuer updateworker.DownloadEnqueuer
	if cfg.AutoDownloadChapters {
		enqueuer = dlWorker
	}
	upWorker := updateworker.New(updateworker.Options{
		Interval:             cfg.UpdateInterval,
		Mangas:               store.Mangas(),
		Chapters:             store.Chapters(),
		Library:              store.Library(),
		Host:                 host,
		Notifier:             notifier.Noop(),
		Downloads:            enqueuer,
		AutoDownloadChapters: cfg.AutoDownloadChapters,
		Logger:               log.With("component", "updateworker"),
	})
	group.Go(func() error { return upWorker.Run(gctx) })

	imageCache, err := cache.NewFileStore(afero.NewOsFs(), cfg.CachePath)
	if err != nil {
		return fmt.Errorf("open image cache at %s: %w", cfg.CachePath, err)
	}

	imgSvc := imagesvc.New(imagesvc.Options{
		Secret:  []byte(cfg.Secret),
		Cache:   imageCache,
		FS:      afero.NewOsFs(),
		Sources: host,
		Logger:  log.With("component", "imagesvc"),
	})

	mux := http.NewServeMux()
	mux.Handle("/image/", http.StripPrefix("/image", imageproxy.NewHandler(imgSvc, log.With("component", "imageproxy")).Routes()))

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: mux}
	group.Go(func() error {
		log.Info("image proxy listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && err != context.Canceled {
		return err
	}
	log.Info("tanoshi shut down cleanly")
	return nil
}

// loadSources registers every configured Local source and loads every
// previously installed extension from disk before the workers start.
func loadSources(ctx context.Context, host *sourcehost.Host, cfg *config.Config) error {
	fs := afero.NewOsFs()
	for i, src := range cfg.LocalPath {
		id := core.LocalSourceIDFloor + int64(i)
		adapter, err := local.New(id, src.Name, src.Path, fs)
		if err != nil {
			return fmt.Errorf("local source %q: %w", src.Name, err)
		}
		if _, err := host.Insert(ctx, adapter, ""); err != nil {
			return fmt.Errorf("register local source %q: %w", src.Name, err)
		}
	}
	return host.LoadAll(ctx, cfg.PluginPath)
}
