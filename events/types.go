package events

import (
	"context"
	"time"

	"lfg-queue-sim/matchmaker"
)

const EnvelopeVersion = "1.0"

// PartyMessage is the wire form of a matchmaker.PartyEvent.
type PartyMessage struct {
	EnvelopeVersion string    `json:"envelopeVersion"`
	Type            string    `json:"type"`
	RunID           string    `json:"runId"`
	PartyID         string    `json:"partyId"`
	Seq             int       `json:"seq"`
	InstanceID      int       `json:"instanceId"`
	ClearSeconds    int       `json:"clearSeconds"`
	At              time.Time `json:"at"`
}

// NewPartyMessage wraps ev for run runID.
func NewPartyMessage(runID string, ev matchmaker.PartyEvent) *PartyMessage {
	return &PartyMessage{
		EnvelopeVersion: EnvelopeVersion,
		Type:            string(ev.Kind),
		RunID:           runID,
		PartyID:         ev.PartyID,
		Seq:             ev.Seq,
		InstanceID:      ev.InstanceID,
		ClearSeconds:    ev.ClearSeconds,
		At:              ev.At.UTC(),
	}
}

type Subscriber interface {
	Start(ctx context.Context, handler func(context.Context, *PartyMessage) error) error
}

type Publisher interface {
	PublishEvent(ctx context.Context, msg *PartyMessage) error
}
