package events

import (
	"context"

	"github.com/rs/zerolog/log"

	"lfg-queue-sim/matchmaker"
)

// Forwarder is a matchmaker.Observer that publishes every party event.
// Publish failures are logged and never reach the run.
type Forwarder struct {
	publisher Publisher
	runID     string
}

func NewForwarder(p Publisher, runID string) *Forwarder {
	return &Forwarder{publisher: p, runID: runID}
}

func (f *Forwarder) PartyEntered(ctx context.Context, ev matchmaker.PartyEvent) {
	f.forward(ctx, ev)
}

func (f *Forwarder) PartyCompleted(ctx context.Context, ev matchmaker.PartyEvent) {
	f.forward(ctx, ev)
}

func (f *Forwarder) forward(ctx context.Context, ev matchmaker.PartyEvent) {
	msg := NewPartyMessage(f.runID, ev)
	if err := f.publisher.PublishEvent(ctx, msg); err != nil {
		log.Error().Err(err).Str("runId", f.runID).Str("party", ev.PartyID).Str("type", msg.Type).Msg("forwarder: failed to publish party event")
	}
}
