package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"lfg-queue-sim/events"
	qpubsub "lfg-queue-sim/events/pubsub"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	watchSubscription string
	watchProject      string
	watchCredentials  string
)

// watchCmd tails the party events another run exports.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Log party events from a Pub/Sub subscription",
	Run: func(cmd *cobra.Command, args []string) {
		project := strings.TrimSpace(firstSet(watchProject, os.Getenv("GOOGLE_PROJECT_ID"), os.Getenv("GOOGLE_CLOUD_PROJECT")))
		if project == "" {
			log.Fatal().Msg("missing Google project id; set --pubsub-project or GOOGLE_PROJECT_ID")
		}
		if watchSubscription == "" {
			log.Fatal().Msg("missing --subscription")
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		subscriber := qpubsub.NewSubscriber(project, watchSubscription, watchCredentials)
		log.Info().Str("subscription", watchSubscription).Msg("starting subscriber loop")
		if err := subscriber.Start(ctx, func(ctx context.Context, msg *events.PartyMessage) error {
			log.Info().
				Str("runId", msg.RunID).
				Str("type", msg.Type).
				Str("party", msg.PartyID).
				Int("instance", msg.InstanceID).
				Int("clearSeconds", msg.ClearSeconds).
				Time("at", msg.At).
				Msg("party event")
			return nil
		}); err != nil {
			log.Fatal().Err(err).Msg("subscriber exited with fatal error")
		}
		log.Info().Msg("watch stopped")
	},
}

func init() {
	f := watchCmd.Flags()
	f.StringVar(&watchSubscription, "subscription", "", "Pub/Sub subscription to read party events from")
	f.StringVar(&watchProject, "pubsub-project", "", "Google project for Pub/Sub")
	f.StringVar(&watchCredentials, "credentials-file", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"), "Google credentials file")
}

func firstSet(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
