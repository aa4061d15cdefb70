// README: Entry point; loads config, wires services, starts HTTP server and background sweeper.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"laborhub/internal/ai"
	"laborhub/internal/config"
	httptransport "laborhub/internal/http"
	"laborhub/internal/infra"
	"laborhub/internal/logging"
	"laborhub/internal/maps"
	"laborhub/internal/modules/aiquota"
	"laborhub/internal/modules/dispatch"
	"laborhub/internal/modules/location"
	"laborhub/internal/modules/matching"
	"laborhub/internal/modules/order"
	"laborhub/internal/modules/payquote"
	"laborhub/internal/modules/worker"
	"laborhub/internal/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logging.New(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer func() { _ = redisClient.Close() }()

	// RabbitMQ is optional; without it dispatch events are only logged.
	var notifier dispatch.Notifier
	if cfg.MQ.URL != "" {
		conn, err := infra.NewMQ(cfg.MQ.URL)
		if err != nil {
			log.Fatal("mq init", zap.Error(err))
		}
		defer func() { _ = conn.Close() }()
		publisher, err := notify.NewPublisher(conn)
		if err != nil {
			log.Fatal("mq publisher", zap.Error(err))
		}
		defer func() { _ = publisher.Close() }()
		notifier = publisher
	}

	// Address lookup is optional; orders just keep an empty address without it.
	var geocoder order.Geocoder
	if cfg.Maps.APIKey != "" {
		g, err := maps.NewGeocodeService(cfg.Maps.APIKey)
		if err != nil {
			log.Fatal("maps init", zap.Error(err))
		}
		geocoder = g
	}

	var explainer ai.Explainer = ai.RuleExplainer{}
	if cfg.AI.GeminiKey != "" {
		g, err := ai.NewGeminiExplainer(ctx, cfg.AI.GeminiKey)
		if err != nil {
			log.Fatal("gemini init", zap.Error(err))
		}
		defer g.Close()
		explainer = g
	}

	workerStore := worker.NewStore(dbPool)
	workerSvc := worker.NewService(workerStore)

	locationStore := location.NewStore(redisClient)
	locationSvc := location.NewService(locationStore, workerStore)

	matchCfg := matching.DefaultConfig()
	matchCfg.MaxDistance = cfg.Matching.MaxDistanceMeters
	matchCfg.MinRating = cfg.Matching.MinRating
	matchCfg.Limit = cfg.Matching.Limit
	matchingSvc := matching.NewService(workerStore, matchCfg)

	orderStore := order.NewStore(dbPool)
	orderSvc := order.NewService(orderStore, geocoder)

	dispatchStore := dispatch.NewPGStore(dbPool)
	dispatchSvc := dispatch.NewService(orderStore, dispatchStore, matchingSvc, workerStore, notifier, log, dispatch.Config{
		AcceptWindow:   cfg.Dispatch.AcceptWindow,
		AutoLimit:      cfg.Dispatch.AutoLimit,
		CandidateLimit: cfg.Dispatch.CandidateLimit,
	})
	orderSvc.SetDispatchCanceler(dispatchSvc)

	quotaSvc := aiquota.NewService(aiquota.NewStore(dbPool))
	quoteSvc := payquote.NewService(payquote.NewStore(dbPool))

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Order:     orderSvc,
		Dispatch:  dispatchSvc,
		Worker:    workerSvc,
		Location:  locationSvc,
		Quotes:    quoteSvc,
		Explainer: explainer,
		Quota:     quotaSvc,
		Log:       log,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: router}

	go dispatchSvc.RunExpirySweeper(ctx, cfg.Dispatch.SweepInterval)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info("listening", zap.String("addr", cfg.HTTP.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server", zap.Error(err))
	}
}
