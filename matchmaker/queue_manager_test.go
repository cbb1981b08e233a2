package matchmaker

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastOptions(extra ...Option) []Option {
	return append([]Option{
		WithTimeUnit(2 * time.Millisecond),
		WithPollInterval(time.Millisecond),
		WithSeed(1),
	}, extra...)
}

func runToCompletion(t *testing.T, qm *QueueManager) Summary {
	t.Helper()
	done := make(chan Summary, 1)
	go func() {
		sum, err := qm.Run(context.Background())
		assert.NoError(t, err)
		done <- sum
	}()
	select {
	case sum := <-done:
		return sum
	case <-time.After(20 * time.Second):
		t.Fatal("run did not terminate")
	}
	return Summary{}
}

func TestNewQueueManager_InvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		s    Settings
	}{
		{"zero capacity", Settings{Capacity: 0, Tanks: 1, Healers: 1, DPS: 3, MinClearSeconds: 1, MaxClearSeconds: 2}},
		{"negative role", Settings{Capacity: 1, Tanks: -1, Healers: 1, DPS: 3, MinClearSeconds: 1, MaxClearSeconds: 2}},
		{"zero min", Settings{Capacity: 1, Tanks: 1, Healers: 1, DPS: 3, MinClearSeconds: 0, MaxClearSeconds: 2}},
		{"max below min", Settings{Capacity: 1, Tanks: 1, Healers: 1, DPS: 3, MinClearSeconds: 3, MaxClearSeconds: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qm, err := NewQueueManager(tt.s)
			assert.Nil(t, qm)
			assert.ErrorIs(t, err, ErrInvalidSettings)
		})
	}

	_, err := NewQueueManager(Settings{Capacity: 1, MinClearSeconds: 1, MaxClearSeconds: 2}, WithRecipe(Recipe{}))
	assert.ErrorIs(t, err, ErrInvalidSettings)
}

func TestQueueManager_SingleParty(t *testing.T) {
	qm, err := NewQueueManager(Settings{Capacity: 1, Tanks: 1, Healers: 1, DPS: 3, MinClearSeconds: 2, MaxClearSeconds: 2}, fastOptions()...)
	require.NoError(t, err)

	sum := runToCompletion(t, qm)

	assert.Equal(t, StateTerminated, qm.State())
	assert.Equal(t, 1, sum.PartiesFormed)
	require.Len(t, sum.Instances, 1)
	assert.Equal(t, InstanceStats{ID: 1, Active: false, PartiesServed: 1, TotalTimeServed: 2}, sum.Instances[0])
	assert.Equal(t, Roles{0, 0, 0}, sum.Leftover)
	assert.Equal(t, 0, sum.MaxFormable)
}

func TestQueueManager_HealerLimited(t *testing.T) {
	qm, err := NewQueueManager(Settings{Capacity: 2, Tanks: 2, Healers: 1, DPS: 3, MinClearSeconds: 1, MaxClearSeconds: 3}, fastOptions()...)
	require.NoError(t, err)

	sum := runToCompletion(t, qm)

	assert.Equal(t, 1, sum.PartiesFormed)
	assert.Equal(t, 1, sum.TotalParties())
	assert.Equal(t, Roles{Tanks: 1, Healers: 0, DPS: 0}, sum.Leftover)
	assert.Equal(t, 0, sum.MaxFormable, "leftovers are a role imbalance")
	assert.Equal(t, 1, sum.Instances[0].PartiesServed)
	assert.Equal(t, 0, sum.Instances[1].PartiesServed)
}

func TestQueueManager_SingleInstanceServesSequentially(t *testing.T) {
	obs := &recordingObserver{}
	qm, err := NewQueueManager(Settings{Capacity: 1, Tanks: 3, Healers: 3, DPS: 9, MinClearSeconds: 1, MaxClearSeconds: 1}, fastOptions(WithObserver(obs))...)
	require.NoError(t, err)
	obs.onEntered = func(ev PartyEvent) {
		assert.Equal(t, 1, qm.pool.ActiveCount(), "only one party may be inside at once")
	}

	sum := runToCompletion(t, qm)

	assert.Equal(t, 3, sum.PartiesFormed)
	assert.Equal(t, InstanceStats{ID: 1, PartiesServed: 3, TotalTimeServed: 3}, sum.Instances[0])
	entered := obs.byKind(EventPartyEntered)
	require.Len(t, entered, 3)
	for _, ev := range entered {
		assert.Equal(t, 1, ev.InstanceID)
	}
	assert.Len(t, obs.byKind(EventPartyCompleted), 3)
}

func TestQueueManager_NothingFormable(t *testing.T) {
	qm, err := NewQueueManager(Settings{Capacity: 3, Tanks: 5, Healers: 5, DPS: 2, MinClearSeconds: 1, MaxClearSeconds: 2}, fastOptions()...)
	require.NoError(t, err)

	sum := runToCompletion(t, qm)

	assert.Equal(t, 0, sum.PartiesFormed)
	assert.Equal(t, Roles{5, 5, 2}, sum.Leftover)
	for _, in := range sum.Instances {
		assert.Equal(t, 0, in.PartiesServed)
	}
}

func TestQueueManager_ActiveMatchesInFlight(t *testing.T) {
	obs := &recordingObserver{}
	qm, err := NewQueueManager(Settings{Capacity: 3, Tanks: 10, Healers: 10, DPS: 30, MinClearSeconds: 1, MaxClearSeconds: 3}, fastOptions(WithObserver(obs))...)
	require.NoError(t, err)
	obs.onEntered = func(ev PartyEvent) {
		active := qm.pool.ActiveCount()
		assert.True(t, qm.Instances()[ev.InstanceID-1].Active, "entered party's instance must be active")
		assert.LessOrEqual(t, active, 3)
	}

	sum := runToCompletion(t, qm)
	assert.Equal(t, 10, sum.TotalParties())
	assert.Len(t, obs.byKind(EventPartyEntered), 10)
}

// Conservation and termination over random inputs.
func TestQueueManager_RandomRuns(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 8; i++ {
		s := Settings{
			Capacity:        1 + rng.Intn(4),
			Tanks:           1 + rng.Intn(8),
			Healers:         1 + rng.Intn(8),
			DPS:             1 + rng.Intn(24),
			MinClearSeconds: 1,
			MaxClearSeconds: 1 + rng.Intn(3),
		}
		qm, err := NewQueueManager(s, WithTimeUnit(time.Millisecond), WithPollInterval(time.Millisecond), WithSeed(int64(i)))
		require.NoError(t, err)
		want := qm.MaxFormableParties()

		sum := runToCompletion(t, qm)

		assert.Equal(t, want, sum.PartiesFormed, "settings %+v", s)
		assert.Equal(t, sum.PartiesFormed, sum.TotalParties(), "settings %+v", s)
		assert.Equal(t, 5*sum.PartiesFormed, sum.PlayersUsed, "settings %+v", s)
		assert.Equal(t, Roles{s.Tanks, s.Healers, s.DPS}.Total()-sum.PlayersUsed, sum.Leftover.Total())
		assert.Equal(t, 0, sum.MaxFormable)
		assert.GreaterOrEqual(t, sum.TotalTimeServed(), sum.PartiesFormed*s.MinClearSeconds)
		assert.LessOrEqual(t, sum.TotalTimeServed(), sum.PartiesFormed*s.MaxClearSeconds)
		for _, in := range sum.Instances {
			assert.False(t, in.Active)
		}
	}
}

func TestQueueManager_SeedReplaysClearTimes(t *testing.T) {
	run := func() []InstanceStats {
		qm, err := NewQueueManager(Settings{Capacity: 1, Tanks: 4, Healers: 4, DPS: 12, MinClearSeconds: 1, MaxClearSeconds: 5}, WithTimeUnit(time.Millisecond), WithPollInterval(time.Millisecond), WithSeed(1234))
		require.NoError(t, err)
		assert.Equal(t, int64(1234), qm.Seed())
		return runToCompletion(t, qm).Instances
	}
	assert.Equal(t, run(), run())
}

func TestQueueManager_Observe(t *testing.T) {
	first, second := &recordingObserver{}, &recordingObserver{}
	qm, err := NewQueueManager(Settings{Capacity: 2, Tanks: 2, Healers: 2, DPS: 6, MinClearSeconds: 1, MaxClearSeconds: 1}, fastOptions(WithObserver(first))...)
	require.NoError(t, err)
	qm.Observe(second)
	qm.Observe(nil)

	runToCompletion(t, qm)

	assert.Len(t, first.byKind(EventPartyCompleted), 2)
	assert.Len(t, second.byKind(EventPartyCompleted), 2)

	late := &recordingObserver{}
	qm.Observe(late)
	assert.Len(t, qm.observers, 2, "observers cannot be added after Run")
}

func TestQueueManager_RunTwice(t *testing.T) {
	qm, err := NewQueueManager(Settings{Capacity: 1, Tanks: 1, Healers: 1, DPS: 3, MinClearSeconds: 1, MaxClearSeconds: 1}, fastOptions()...)
	require.NoError(t, err)
	runToCompletion(t, qm)

	_, err = qm.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestState_String(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{StateRunning, "running"},
		{StateDraining, "draining"},
		{StateTerminated, "terminated"},
		{State(9), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.s.String())
	}
}
