package pubsub

import (
	"context"
	"encoding/json"
	"sync"

	"lfg-queue-sim/events"

	gpubsub "cloud.google.com/go/pubsub"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

type Publisher struct {
	projectID string
	topicName string
	credsFile string

	mu     sync.Mutex
	client *gpubsub.Client
	topic  *gpubsub.Topic
}

func NewPublisher(projectID, topicName, credsFile string) *Publisher {
	return &Publisher{projectID: projectID, topicName: topicName, credsFile: credsFile}
}

// init lazily creates the client; party goroutines publish concurrently.
func (p *Publisher) init(ctx context.Context) (*gpubsub.Topic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.topic != nil {
		return p.topic, nil
	}
	var (
		client *gpubsub.Client
		err    error
	)
	if p.credsFile != "" {
		log.Debug().Str("projectID", p.projectID).Str("topic", p.topicName).Str("credsFile", p.credsFile).Msg("initializing pubsub publisher with explicit credentials")
		client, err = gpubsub.NewClient(ctx, p.projectID, option.WithCredentialsFile(p.credsFile))
	} else {
		log.Debug().Str("projectID", p.projectID).Str("topic", p.topicName).Msg("initializing pubsub publisher with default credentials")
		client, err = gpubsub.NewClient(ctx, p.projectID)
	}
	if err != nil {
		log.Error().Err(err).Str("projectID", p.projectID).Str("topic", p.topicName).Msg("failed to create pubsub client for publisher")
		return nil, err
	}
	p.client = client
	p.topic = client.Topic(p.topicName)
	log.Info().Str("topic", p.topicName).Msg("pubsub publisher initialized")
	return p.topic, nil
}

func (p *Publisher) PublishEvent(ctx context.Context, msg *events.PartyMessage) error {
	topic, err := p.init(ctx)
	if err != nil {
		return err
	}
	b, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Interface("event", msg).Msg("failed to marshal party event")
		return err
	}
	// Publish and wait for server ack
	r := topic.Publish(ctx, &gpubsub.Message{
		Data:       b,
		Attributes: map[string]string{"type": msg.Type, "runId": msg.RunID},
	})
	id, err := r.Get(ctx)
	if err != nil {
		log.Error().Err(err).Str("party", msg.PartyID).Str("type", msg.Type).Msg("failed to publish party event")
		return err
	}
	log.Debug().Str("messageID", id).Str("party", msg.PartyID).Str("type", msg.Type).Msg("published party event")
	return nil
}

// Close flushes pending messages and releases the client.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client == nil {
		return nil
	}
	p.topic.Stop()
	err := p.client.Close()
	p.client, p.topic = nil, nil
	return err
}
