// Command server is the always-on recognition service (C5-C7's host
// process): it accepts client WebSocket connections, segments their audio,
// farms segments out to the cmd/asrworker subprocess, merges the results,
// and streams Result frames back. An admin mux exposes health and
// Prometheus metrics alongside the main listener.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/asr"
	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/config"
	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/merger"
	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/merger/deadletter"
	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/segment"
	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/textnorm"
	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/wsserver"
)

func main() {
	logHandler := slog.NewJSONHandler(os.Stderr, nil)
	log := slog.New(logHandler)
	slog.SetDefault(log)

	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.LoadServer("server.yaml")
	if err != nil {
		return err
	}
	log = log.With("model_type", cfg.ModelType)

	norm, err := textnorm.NewNormaliser("")
	if err != nil {
		return err
	}

	deadLetters, err := deadletter.Open(cfg.DeadLetterDB)
	if err != nil {
		return err
	}
	defer deadLetters.Close()

	merge := merger.New(norm, nil, textnorm.Options{FormatNum: cfg.FormatNum, FormatSpell: cfg.FormatSpell})
	segments := segment.NewManager()

	asrMgr := asr.NewManager(cfg.AsrWorkerBin, nil, log).WithFailureRecorder(deadLetters)
	server := wsserver.New(segments, asrMgr, merge, log)
	asrMgr.WithSockets(server.Sockets())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := asrMgr.Start(ctx); err != nil {
		return err
	}
	defer asrMgr.Stop()

	mux := http.NewServeMux()
	mux.Handle("/", server)

	startedAt := time.Now()

	admin := chi.NewRouter()
	admin.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	admin.Handle("/metrics", promhttp.Handler())
	admin.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"model_type":     cfg.ModelType,
			"uptime_secs":    time.Since(startedAt).Seconds(),
			"tasks_inflight": merge.InFlight(),
		})
	})

	mainSrv := &http.Server{Addr: cfg.Addr + ":" + strconv.Itoa(cfg.Port), Handler: mux}
	adminSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: admin}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		server.Run(gctx)
		return nil
	})

	g.Go(func() error {
		log.Info("listening", "addr", mainSrv.Addr)
		if err := mainSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		log.Info("admin listening", "addr", adminSrv.Addr)
		if err := adminSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		mainSrv.Shutdown(shutdownCtx)
		adminSrv.Shutdown(shutdownCtx)
		return nil
	})

	return g.Wait()
}
