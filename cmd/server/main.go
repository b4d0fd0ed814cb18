// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"tillbook/internal/audit"
	auditkafka "tillbook/internal/audit/kafka"
	"tillbook/internal/cash/ledger"
	cashmetrics "tillbook/internal/cash/metrics"
	cashservice "tillbook/internal/cash/service"
	cashmemory "tillbook/internal/cash/store/memory"
	cashpostgres "tillbook/internal/cash/store/postgres"
	paymetrics "tillbook/internal/payable/metrics"
	payservice "tillbook/internal/payable/service"
	paymemory "tillbook/internal/payable/store/memory"
	paypostgres "tillbook/internal/payable/store/postgres"
	"tillbook/internal/platform/config"
	"tillbook/internal/platform/httpserver"
	"tillbook/internal/platform/logger"
	"tillbook/internal/platform/postgres"
	httptransport "tillbook/internal/transport/http"
	"tillbook/internal/user"
	userstore "tillbook/internal/user/store"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	var (
		sessions     cashservice.SessionStore
		ledgerStore  ledger.Store
		installments payservice.InstallmentStore
		users        user.Store
	)
	if db != nil {
		cashStore := cashpostgres.New(db)
		sessions, ledgerStore = cashStore, cashStore
		installments = paypostgres.New(db)
		users = userstore.NewPostgres(db)
		log.Info("using postgres stores")
	} else {
		cashStore := cashmemory.New()
		sessions, ledgerStore = cashStore, cashStore
		installments = paymemory.New()
		users = userstore.NewInMemory()
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	var emitter audit.Emitter
	if len(cfg.KafkaBrokers) > 0 {
		kafkaEmitter, err := auditkafka.New(cfg.KafkaBrokers, cfg.EventTopic)
		if err != nil {
			return err
		}
		defer kafkaEmitter.Close()
		emitter = kafkaEmitter
		log.Info("audit events enabled", "topic", cfg.EventTopic)
	}

	directory := user.NewDirectory(users)
	cashMetrics := cashmetrics.New()
	recorder := ledger.NewRecorder(ledgerStore, ledger.WithMetrics(cashMetrics))

	cashOpts := []cashservice.Option{
		cashservice.WithLogger(log),
		cashservice.WithMetrics(cashMetrics),
	}
	payOpts := []payservice.Option{
		payservice.WithLogger(log),
		payservice.WithMetrics(paymetrics.New()),
	}
	if emitter != nil {
		cashOpts = append(cashOpts, cashservice.WithAuditEmitter(emitter))
		payOpts = append(payOpts, payservice.WithAuditEmitter(emitter))
	}

	cash := cashservice.New(sessions, recorder, directory, cashOpts...)
	settlements := payservice.New(installments, cash, recorder, directory, payOpts...)

	router := httptransport.NewRouter(
		httptransport.NewCashHandler(cash, log),
		httptransport.NewSettlementHandler(settlements, log),
		log,
	)

	srv := httpserver.New(cfg.Addr, router)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := httpserver.New(cfg.MetricsAddr, metricsMux)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting tillbook", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("serving metrics", "addr", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		return errors.Join(err, metricsSrv.Shutdown(shutdownCtx))
	})

	return g.Wait()
}
