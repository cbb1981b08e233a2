package matchmaker

import (
	"context"
	"hash/fnv"
	"math/rand"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"lfg-queue-sim/metrics"
)

// Party is one formed group bound to a claimed instance.
type Party struct {
	Seq        int
	ID         string
	InstanceID int
}

// partyRNG derives an isolated random source for party seq from the run
// seed, so a fixed seed replays the same clear times.
func partyRNG(seed int64, seq int) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte("party_" + strconv.Itoa(seq)))
	return rand.New(rand.NewSource(seed ^ int64(h.Sum64())))
}

// PartyRunner simulates parties clearing their dungeon.
type PartyRunner struct {
	pool      *InstancePool
	minClear  int
	maxClear  int
	seed      int64
	timeUnit  time.Duration
	observers []Observer
	sleep     func(time.Duration)
}

// ClearTime draws the clear time for party seq, uniform over
// [minClear, maxClear].
func (r *PartyRunner) ClearTime(seq int) int {
	span := r.maxClear - r.minClear + 1
	return r.minClear + partyRNG(r.seed, seq).Intn(span)
}

// Run holds p's instance for its clear time and then releases it. It
// releases exactly once and returns the simulated seconds spent.
func (r *PartyRunner) Run(ctx context.Context, p Party) int {
	secs := r.ClearTime(p.Seq)
	metrics.PartyClearSeconds.Observe(float64(secs))

	log.Debug().Str("party", p.ID).Int("seq", p.Seq).Int("instance", p.InstanceID).Int("clearSeconds", secs).Msg("party entering instance")
	r.notify(ctx, PartyEvent{Kind: EventPartyEntered, PartyID: p.ID, Seq: p.Seq, InstanceID: p.InstanceID, ClearSeconds: secs, At: time.Now()})

	r.sleep(time.Duration(secs) * r.timeUnit)

	r.pool.Release(p.InstanceID, secs)
	log.Debug().Str("party", p.ID).Int("instance", p.InstanceID).Int("clearSeconds", secs).Msg("party completed instance")
	r.notify(ctx, PartyEvent{Kind: EventPartyCompleted, PartyID: p.ID, Seq: p.Seq, InstanceID: p.InstanceID, ClearSeconds: secs, At: time.Now()})
	return secs
}

func (r *PartyRunner) notify(ctx context.Context, ev PartyEvent) {
	for _, o := range r.observers {
		switch ev.Kind {
		case EventPartyEntered:
			o.PartyEntered(ctx, ev)
		case EventPartyCompleted:
			o.PartyCompleted(ctx, ev)
		}
	}
}
