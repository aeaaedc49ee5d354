package main

import (
	"context"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"copybot-go/internal/config"
	"copybot-go/internal/confirm"
	"copybot-go/internal/executor"
	"copybot-go/internal/metrics"
	"copybot-go/internal/queue"
	"copybot-go/internal/risk"
	sig "copybot-go/internal/signal"
	"copybot-go/internal/util"
)

const defaultConfigPath = "internal/config/config.yaml"

func main() {
	_ = godotenv.Load()

	path := os.Getenv("COPYBOT_CONFIG")
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := config.Load(path)
	if err != nil {
		bootstrap := util.NewLogger("copybot", "info")
		bootstrap.Fatal().Err(err).Msg("load config")
	}
	log := util.NewLogger(cfg.App.Name, cfg.App.LogLevel)

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	confirmations := make(chan queue.FillConfirmation, 64)
	simOpts := []executor.Option{
		executor.WithLatency(time.Duration(cfg.Executor.LatencyMs) * time.Millisecond),
		executor.WithSlippageBps(cfg.Executor.SlippageBps),
		executor.WithFailRate(cfg.Executor.FailRate),
		executor.WithPartialFills(cfg.Executor.PartialFillProb),
		executor.WithConfirmations(confirmations),
	}
	if !cfg.Queue.SkipSlippageCheck {
		simOpts = append(simOpts, executor.WithGuard(executor.SlippageLimits{
			DefaultMaxBps: cfg.Executor.MaxSlippageBps,
		}))
	}
	venueExec := executor.NewSim(log, simOpts...)

	q := queue.New(venueExec, cfg.Queue.Runtime(), log)
	go func() {
		if err := q.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("queue stopped")
			cancel()
		}
	}()

	// Fill confirmations come either from the venue websocket stream or, in
	// sim mode, straight from the simulated executor.
	if cfg.Confirmations.WsURL != "" {
		listener := confirm.NewListener(cfg.Confirmations.WsURL, q, log)
		go func() {
			if err := listener.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("fill listener stopped")
			}
		}()
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case c := <-confirmations:
				q.ConfirmFill(c)
			}
		}
	}()

	go logEvents(ctx, q, log)

	feed := sig.NewStubFeed(
		cfg.Signals.Venue,
		cfg.Signals.Markets,
		time.Duration(cfg.Signals.IntervalMs)*time.Millisecond,
		time.Now().UnixNano(),
	)
	intents := make(chan sig.TradeIntent, 256)
	go func() {
		if err := feed.Run(ctx, intents); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("signal feed stopped")
			cancel()
		}
	}()

	limits := risk.Limits{
		MaxNotionalPerTrade: cfg.Risk.MaxNotionalPerTrade,
		MaxPendingPerUser:   cfg.Risk.MaxPendingPerUser,
	}

	log.Info().Msg("copy-trading engine started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutting down")
			return
		case intent := <-intents:
			pending := len(q.GetOrdersForUser("local"))
			if !limits.Allow(intent.Notional(), pending) {
				log.Debug().Str("market", intent.Market).Float64("notional", intent.Notional()).Msg("intent rejected by risk limits")
				continue
			}
			id := q.Enqueue(intent.Order("local", "whale-copy"))
			log.Debug().Str("id", id).Str("market", intent.Market).Msg("intent enqueued")
		}
	}
}

func logEvents(ctx context.Context, q *queue.Queue, log zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-q.Events():
			switch event.Type {
			case queue.EventFailed, queue.EventDropped:
				log.Warn().Str("type", string(event.Type)).Str("id", event.Order.ID).Str("reason", event.Reason).Msg("queue event")
			default:
			}
		}
	}
}
