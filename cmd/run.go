package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"lfg-queue-sim/config"
	"lfg-queue-sim/events"
	qpubsub "lfg-queue-sim/events/pubsub"
	"lfg-queue-sim/health"
	"lfg-queue-sim/matchmaker"
	"lfg-queue-sim/metrics"
	"lfg-queue-sim/report"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the queue simulation",
	Run: func(cmd *cobra.Command, args []string) {
		runSimulation(cmd)
	},
}

func init() {
	f := runCmd.Flags()
	f.Int(config.KeyMaxInstances, 0, "maximum number of concurrent instances")
	f.Int(config.KeyTanks, 0, "number of tank players in the queue")
	f.Int(config.KeyHealers, 0, "number of healer players in the queue")
	f.Int(config.KeyDPS, 0, "number of DPS players in the queue")
	f.Int(config.KeyMinTime, 0, "minimum clear time in simulated seconds")
	f.Int(config.KeyMaxTime, 0, "maximum clear time in simulated seconds (capped at 15)")
	f.Int64(config.KeySeed, 0, "seed for clear times (0 picks one from the clock)")
	f.Duration(config.KeyTimeUnit, time.Second, "wall-clock length of one simulated second")
	f.Int(config.KeyMetricsPort, 0, "serve /metrics, /healthz and /readyz on this port (0 disables)")
	f.String(config.KeyPubsubTopic, "", "publish party events to this Pub/Sub topic")
	f.String(config.KeyPubsubProjectID, "", "Google project for Pub/Sub")
	f.String(config.KeyCredentialsFile, "", "Google credentials file")
}

func runSimulation(cmd *cobra.Command) {
	log.Info().Msgf("Starting lfgsim version: %s", version)
	cfg := config.Load(configPath, cmd.Flags())
	setLogger(cfg.LogLevel)

	if err := config.Resolve(cfg, config.NewPrompter(os.Stdin, os.Stdout)); err != nil {
		log.Fatal().Err(err).Msg("configuration incomplete")
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	log.Info().Interface("config", cfg.Redacted()).Msg("config loaded")

	settings := matchmaker.Settings{
		Capacity:        cfg.MaxInstances,
		Tanks:           cfg.Tanks,
		Healers:         cfg.Healers,
		DPS:             cfg.DPS,
		MinClearSeconds: cfg.MinTime,
		MaxClearSeconds: cfg.MaxTime,
	}
	opts := []matchmaker.Option{
		matchmaker.WithSeed(cfg.Seed),
		matchmaker.WithTimeUnit(cfg.TimeUnit),
	}

	ctx := context.Background()
	if cfg.PubsubTopic != "" {
		if cfg.GoogleProjectID == "" {
			log.Fatal().Msg("missing Google project id for Pub/Sub; set --pubsub-project or GOOGLE_PROJECT_ID")
		}
		runID := uuid.NewString()
		publisher := qpubsub.NewPublisher(cfg.GoogleProjectID, cfg.PubsubTopic, cfg.CredentialsFile)
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Error().Err(err).Msg("pubsub publisher close failed")
			}
		}()
		opts = append(opts, matchmaker.WithObserver(events.NewForwarder(publisher, runID)))
		log.Info().Str("topic", cfg.PubsubTopic).Str("runId", runID).Msg("exporting party events")
	}

	qm, err := matchmaker.NewQueueManager(settings, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid simulation settings")
	}
	rep := report.New(os.Stdout, qm)
	qm.Observe(rep)

	var srv *http.Server
	if cfg.MetricsPort > 0 {
		mux := http.NewServeMux()
		metrics.Register(mux)
		health.Register(mux, func() string { return qm.State().String() })
		srv = &http.Server{
			Addr:              cfg.HTTPAddr(),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info().Str("addr", cfg.HTTPAddr()).Msg("starting metrics/health server")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("http server error")
			}
		}()
	}

	rep.Inputs(settings)
	rep.Status()

	sum, err := qm.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("simulation failed")
	}
	rep.Summary(sum)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http server graceful shutdown failed")
		}
	}
}
