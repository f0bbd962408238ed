package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/DevvyDoo/Leveling-Overhaul/internal/config"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/logging"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/metrics"
	persistlog "github.com/DevvyDoo/Leveling-Overhaul/internal/persistence/log"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/catalogs"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/mobs/dice"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/tuning"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/sim/world"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/transport/observer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	log := logging.Component(logger, "server")

	tune, err := tuning.Load(cfg.TuningPath())
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Fatalf("load tuning: %v", err)
		}
		log.WithField("path", cfg.TuningPath()).Warn("tuning not found; using defaults")
		tune = tuning.Defaults()
	}
	cats, err := catalogs.Load(cfg.ConfigDir)
	if err != nil {
		log.Fatalf("load catalogs: %v", err)
	}

	worldsPath := cfg.WorldsPath()
	if _, err := os.Stat(worldsPath); err != nil {
		worldsPath = ""
	}
	wcfg, err := world.Load(worldsPath)
	if err != nil {
		log.Fatalf("load worlds: %v", err)
	}
	srv, err := world.NewServer(wcfg, tune.TickRateHz, uint64(cfg.Seed), logger)
	if err != nil {
		log.Fatalf("world: %v", err)
	}

	ledger := persistlog.NewMobLedger(cfg.DataDir)
	defer func() {
		if err := ledger.Close(); err != nil {
			log.WithError(err).Warn("ledger close")
		}
		if st := ledger.Stats(); st.DropTotal > 0 || st.WriteErrors > 0 {
			log.WithFields(logrus.Fields{
				"dropped":      st.DropTotal,
				"write_errors": st.WriteErrors,
			}).Warn("ledger lost entries")
		}
	}()

	idx, err := openIndex(cfg, logging.Component(logger, "indexdb"))
	if err != nil {
		log.Fatalf("open index: %v", err)
	}
	sinks := mobs.MultiLedger{ledger}
	opts := mobs.Options{Logger: logger, Rand: dice.New(uint64(cfg.Seed))}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertCatalogs(cats, tune); err != nil {
			log.WithError(err).Warn("index: upsert catalogs")
		}
		sinks = append(sinks, idx)
		opts.Reports = idx
	}
	opts.Ledger = sinks

	hub := observer.NewHub(logging.Component(logger, "observer"), observer.Options{
		Worlds:      func() []string { return worldNames(srv) },
		AllowRemote: cfg.ObserverAllowRemote,
	})
	opts.Tags = hub

	engine := mobs.New(srv, tune, cats, opts)
	srv.SetListener(engine)

	ctx, cancel := signalContext()
	defer cancel()

	// Boot recovery is the first command the game thread runs.
	bootDone := make(chan struct{})
	go func() {
		defer close(bootDone)
		if err := srv.Do(ctx, func(*world.Server) { engine.Init() }); err != nil {
			log.WithError(err).Error("boot recovery")
		}
	}()

	go func() {
		if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("world stopped")
		}
	}()
	go func() {
		<-bootDone
		if err := engine.RunSweeper(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("sweeper stopped")
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.Handle("/metrics", worldMetricsHandler(srv, promhttp.Handler()))
	mux.HandleFunc("/v1/nametags/ws", hub.Handler())

	if cfg.EnableAdminHTTP {
		newAdminAPI(srv, engine, idx, logging.Component(logger, "admin")).register(mux)
	} else {
		log.Info("admin endpoints disabled (VC_ENABLE_ADMIN_HTTP=false)")
	}
	if cfg.EnablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = httpSrv.Shutdown(ctx2)
		srv.Stop()
	}()

	log.WithFields(logrus.Fields{
		"addr":   cfg.Addr,
		"worlds": len(wcfg.Worlds),
		"tick":   tune.TickRateHz,
	}).Info("listening")
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func worldNames(srv *world.Server) []string {
	ws := srv.Worlds()
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Name())
	}
	return out
}

// worldMetricsHandler copies the reference host's metrics view into the
// Prometheus gauges before each scrape.
func worldMetricsHandler(srv *world.Server, next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		syncWorldMetrics(srv.Metrics())
		next.ServeHTTP(rw, r)
	})
}

func syncWorldMetrics(m world.Metrics) {
	metrics.WorldTick.Set(float64(m.Tick))
	metrics.WorldStepSeconds.Set(m.StepMS / 1000)
	metrics.WorldCreatures.Reset()
	for sp, n := range m.BySpecies {
		metrics.WorldCreatures.WithLabelValues(sp).Set(float64(n))
	}
}
