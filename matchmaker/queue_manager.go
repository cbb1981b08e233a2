package matchmaker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"

	"lfg-queue-sim/metrics"
)

var (
	ErrInvalidSettings = errors.New("invalid matchmaker settings")
	ErrAlreadyRunning  = errors.New("queue manager already ran")
)

// DefaultPollInterval is how long the manager waits before re-checking a
// queue that cannot form a party.
const DefaultPollInterval = 100 * time.Millisecond

// Settings are the run parameters the manager is built from.
// Mirrors config.Config but kept decoupled to avoid import loops.
type Settings struct {
	Capacity        int
	Tanks           int
	Healers         int
	DPS             int
	MinClearSeconds int
	MaxClearSeconds int
}

func (s Settings) validate() error {
	if s.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be > 0, got %d", ErrInvalidSettings, s.Capacity)
	}
	if s.Tanks < 0 || s.Healers < 0 || s.DPS < 0 {
		return fmt.Errorf("%w: role counts must not be negative", ErrInvalidSettings)
	}
	if s.MinClearSeconds <= 0 || s.MaxClearSeconds < s.MinClearSeconds {
		return fmt.Errorf("%w: clear time bounds [%d, %d]", ErrInvalidSettings, s.MinClearSeconds, s.MaxClearSeconds)
	}
	return nil
}

type Option func(*QueueManager)

// WithPollInterval sets the pause between checks when no party can form.
func WithPollInterval(d time.Duration) Option {
	return func(qm *QueueManager) {
		if d > 0 {
			qm.pollInterval = d
		}
	}
}

// WithTimeUnit sets the wall-clock length of one simulated second.
func WithTimeUnit(d time.Duration) Option {
	return func(qm *QueueManager) {
		if d > 0 {
			qm.timeUnit = d
		}
	}
}

// WithSeed fixes the seed party clear times are derived from.
func WithSeed(seed int64) Option {
	return func(qm *QueueManager) { qm.seed = seed }
}

// WithObserver adds an observer for party events.
func WithObserver(o Observer) Option {
	return func(qm *QueueManager) {
		if o != nil {
			qm.observers = append(qm.observers, o)
		}
	}
}

// WithRecipe overrides the party composition.
func WithRecipe(r Recipe) Option {
	return func(qm *QueueManager) { qm.recipe = r }
}

// QueueManager forms parties from a RoleQueue and runs each one on a free
// instance until no party can form and no instance is busy.
// A QueueManager runs once.
type QueueManager struct {
	queue  *RoleQueue
	pool   *InstancePool
	runner *PartyRunner

	recipe       Recipe
	pollInterval time.Duration
	timeUnit     time.Duration
	seed         int64
	observers    []Observer

	state   atomic.Int32
	started atomic.Bool
}

// NewQueueManager validates s and builds the queue, pool and runner.
func NewQueueManager(s Settings, opts ...Option) (*QueueManager, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	qm := &QueueManager{
		recipe:       DefaultRecipe,
		pollInterval: DefaultPollInterval,
		timeUnit:     time.Second,
		seed:         time.Now().UnixNano(),
	}
	for _, opt := range opts {
		opt(qm)
	}
	if !qm.recipe.valid() {
		return nil, fmt.Errorf("%w: recipe %+v", ErrInvalidSettings, qm.recipe)
	}

	qm.queue = NewRoleQueue(Roles{Tanks: s.Tanks, Healers: s.Healers, DPS: s.DPS}, qm.recipe)
	qm.pool = NewInstancePool(s.Capacity)
	qm.runner = &PartyRunner{
		pool:      qm.pool,
		minClear:  s.MinClearSeconds,
		maxClear:  s.MaxClearSeconds,
		seed:      qm.seed,
		timeUnit:  qm.timeUnit,
		observers: qm.observers,
		sleep:     time.Sleep,
	}
	qm.state.Store(int32(StateRunning))
	return qm, nil
}

func (qm *QueueManager) setState(s State) {
	if prev := State(qm.state.Swap(int32(s))); prev != s {
		log.Debug().Str("from", prev.String()).Str("to", s.String()).Msg("queue manager state change")
	}
}

// Observe adds o to the party event observers. It must be called before Run.
func (qm *QueueManager) Observe(o Observer) {
	if o == nil || qm.started.Load() {
		return
	}
	qm.observers = append(qm.observers, o)
	qm.runner.observers = qm.observers
}

// State returns the manager's current state.
func (qm *QueueManager) State() State { return State(qm.state.Load()) }

// Seed returns the seed clear times are derived from.
func (qm *QueueManager) Seed() int64 { return qm.seed }

// Roles returns the queued players.
func (qm *QueueManager) Roles() Roles { return qm.queue.Snapshot() }

// Instances returns the state of every instance.
func (qm *QueueManager) Instances() []InstanceStats { return qm.pool.Snapshot() }

// MaxFormableParties returns how many parties the queued players could
// still form.
func (qm *QueueManager) MaxFormableParties() int { return qm.queue.MaxFormableParties() }

// Run drives the matchmaking loop to completion and waits for every party
// it started. ctx is handed to observers; the run is not cancellable.
func (qm *QueueManager) Run(ctx context.Context) (Summary, error) {
	if !qm.started.CompareAndSwap(false, true) {
		return Summary{}, ErrAlreadyRunning
	}
	start := time.Now()
	log.Info().Int("instances", qm.pool.Capacity()).Interface("queue", qm.queue.Snapshot()).Int64("seed", qm.seed).Msg("queue manager started")

	var wg conc.WaitGroup
	seq := 0
	for {
		if qm.queue.TryFormParty() {
			qm.setState(StateRunning)
			seq++
			metrics.PartiesFormedTotal.Inc()

			// The players are committed; keep trying until an instance frees up.
			p := Party{Seq: seq, ID: uuid.NewString(), InstanceID: qm.claim()}
			wg.Go(func() { qm.runner.Run(ctx, p) })
			continue
		}

		time.Sleep(qm.pollInterval)
		if qm.queue.CanForm() {
			continue
		}
		if qm.pool.AnyActive() {
			qm.setState(StateDraining)
			continue
		}
		// A party may have finished between the two checks above.
		if qm.queue.CanForm() {
			continue
		}
		qm.setState(StateTerminated)
		break
	}
	wg.Wait()

	sum := qm.summary(start)
	log.Info().Int("parties", sum.PartiesFormed).Int("timeServed", sum.TotalTimeServed()).Interface("leftover", sum.Leftover).Dur("elapsed", sum.Elapsed).Msg("queue manager finished")
	return sum, nil
}

// claim returns an instance id, blocking until one is idle.
func (qm *QueueManager) claim() int {
	waitStart := time.Now()
	defer func() { metrics.SlotWaitDuration.Observe(time.Since(waitStart).Seconds()) }()
	for {
		if id, ok := qm.pool.TryClaimIdleSlot(); ok {
			return id
		}
		log.Debug().Int("active", qm.pool.ActiveCount()).Msg("all instances busy; waiting for a free slot")
		qm.pool.AwaitIdleSlot()
	}
}

func (qm *QueueManager) summary(start time.Time) Summary {
	return Summary{
		Instances:     qm.pool.Snapshot(),
		PartiesFormed: qm.queue.Formed(),
		PlayersUsed:   qm.queue.Consumed(),
		Leftover:      qm.queue.Snapshot(),
		MaxFormable:   qm.queue.MaxFormableParties(),
		Elapsed:       time.Since(start),
	}
}
