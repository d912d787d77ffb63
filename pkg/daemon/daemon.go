/*
 * Copyright 2024 The Previewd Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package daemon runs the previewd process: it loads and validates the
// configuration, wires the cache tiers, sweeper, admission controller and
// renderer together, and serves the frontend and metrics listeners until
// signaled to stop.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	goruntime "runtime"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/previewcache/previewd/pkg/admission"
	"github.com/previewcache/previewd/pkg/appinfo"
	"github.com/previewcache/previewd/pkg/cache/capacity"
	"github.com/previewcache/previewd/pkg/cache/memory"
	"github.com/previewcache/previewd/pkg/cache/registration"
	"github.com/previewcache/previewd/pkg/cache/sweeper"
	"github.com/previewcache/previewd/pkg/cache/tiered"
	"github.com/previewcache/previewd/pkg/config"
	"github.com/previewcache/previewd/pkg/engine"
	"github.com/previewcache/previewd/pkg/handlers"
	"github.com/previewcache/previewd/pkg/observability/logging"
	"github.com/previewcache/previewd/pkg/observability/logging/logger"
	"github.com/previewcache/previewd/pkg/observability/metrics"
	"github.com/previewcache/previewd/pkg/observability/pprof"
	"github.com/previewcache/previewd/pkg/policy"
	"github.com/previewcache/previewd/pkg/render/chrome"
)

const cacheName = "default"

// Start runs previewd until the process receives SIGINT or SIGTERM
func Start() error {
	conf, err := config.Load(appinfo.Name, os.Args[1:])
	if err != nil {
		fmt.Println("\nERROR: Could not load configuration:", err.Error())
		return err
	}
	if conf.Flags.PrintVersion {
		appinfo.PrintVersion()
		return nil
	}
	if err := conf.Validate(); err != nil {
		fmt.Println("\nERROR: Invalid configuration:", err.Error())
		return err
	}
	if conf.Flags.ValidateConfig {
		fmt.Println("previewd configuration validation succeeded.")
		return nil
	}

	logger.SetLogger(logging.New(conf.Logging))
	defer logger.Logger().Close()
	appinfo.SetServer(conf.Main.ServerName)
	metrics.BuildInfo.WithLabelValues(goruntime.Version(),
		appinfo.GitCommitID, appinfo.Version).Set(1)

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, conf)
}

func run(ctx context.Context, conf *config.Config) error {
	conf.Cache.Name = cacheName
	store, err := registration.NewStore(conf.Cache)
	if err != nil {
		return err
	}
	if err := store.Connect(); err != nil {
		return err
	}
	defer store.Close()

	mem := memory.New(conf.Cache.MemoryMaxEntries, conf.Cache.MemoryTTL)
	governor := capacity.New(cacheName, conf.Cache.Provider, store,
		conf.Cache.MaxSizeBytes())
	sw := sweeper.New(cacheName, conf.Cache.Provider, store,
		conf.Cache.Retention, conf.Cache.SweepInterval)
	sw.Start(ctx)

	tc := tiered.New(cacheName, conf.Cache.Provider, mem, store, governor, sw)
	eng := engine.New(tc,
		admission.New(conf.Admission.MaxConcurrentRenders),
		chrome.New(conf.Renderer))
	chk := policy.NewChecker(conf.Policy)

	mux := http.NewServeMux()
	mux.HandleFunc(conf.Main.PingHandlerPath, handlers.PingHandleFunc())
	mux.HandleFunc(conf.Main.CardHandlerPath,
		handlers.CardHandleFunc(conf, eng, chk))

	frontend := &http.Server{
		Addr: net.JoinHostPort(conf.Frontend.ListenAddress,
			strconv.Itoa(conf.Frontend.ListenPort)),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("frontend listener starting",
			logging.Pairs{"address": frontend.Addr})
		if err := frontend.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	var metricsServer *http.Server
	if conf.Metrics.ListenPort > 0 {
		mmux := http.NewServeMux()
		mmux.Handle("/metrics", metrics.Handler())
		if conf.Metrics.PprofEnabled {
			pprof.RegisterRoutes("metrics", mmux)
		}
		metricsServer = &http.Server{
			Addr: net.JoinHostPort(conf.Metrics.ListenAddress,
				strconv.Itoa(conf.Metrics.ListenPort)),
			Handler:           mmux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			logger.Info("metrics listener starting",
				logging.Pairs{"address": metricsServer.Addr})
			if err := metricsServer.ListenAndServe(); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", nil)
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		frontend.Shutdown(sctx)
		if metricsServer != nil {
			metricsServer.Shutdown(sctx)
		}
		return nil
	})

	return g.Wait()
}
