package matchmaker

import (
	"context"
	"time"
)

// Recipe is the role composition of one party.
type Recipe struct {
	Tanks   int
	Healers int
	DPS     int
}

// DefaultRecipe is the standard dungeon party: one tank, one healer and
// three damage dealers.
var DefaultRecipe = Recipe{Tanks: 1, Healers: 1, DPS: 3}

// Size is the number of players a party of this recipe consumes.
func (r Recipe) Size() int { return r.Tanks + r.Healers + r.DPS }

func (r Recipe) valid() bool { return r.Tanks > 0 && r.Healers > 0 && r.DPS > 0 }

// Roles is a point-in-time count of queued players per role.
type Roles struct {
	Tanks   int
	Healers int
	DPS     int
}

// Total returns the number of players across all roles.
func (r Roles) Total() int { return r.Tanks + r.Healers + r.DPS }

// InstanceStats is a read-only view of one instance slot.
type InstanceStats struct {
	ID              int
	Active          bool
	PartiesServed   int
	TotalTimeServed int // simulated seconds
}

type State int32

const (
	StateRunning State = iota
	StateDraining
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateTerminated:
		return "terminated"
	}
	return "unknown"
}

type EventKind string

const (
	EventPartyEntered   EventKind = "party-entered"
	EventPartyCompleted EventKind = "party-completed"
)

// PartyEvent describes a party entering or leaving an instance.
type PartyEvent struct {
	Kind         EventKind
	PartyID      string
	Seq          int
	InstanceID   int
	ClearSeconds int
	At           time.Time
}

// Observer is notified from party goroutines; implementations must be safe
// for concurrent use.
type Observer interface {
	PartyEntered(ctx context.Context, ev PartyEvent)
	PartyCompleted(ctx context.Context, ev PartyEvent)
}

// Summary is the final state of a finished run.
type Summary struct {
	Instances     []InstanceStats
	PartiesFormed int
	PlayersUsed   int
	Leftover      Roles
	// MaxFormable is how many more parties the leftover players could form.
	MaxFormable int
	Elapsed     time.Duration
}

// TotalParties sums parties served across instances.
func (s Summary) TotalParties() int {
	n := 0
	for _, in := range s.Instances {
		n += in.PartiesServed
	}
	return n
}

// TotalTimeServed sums simulated seconds across instances.
func (s Summary) TotalTimeServed() int {
	n := 0
	for _, in := range s.Instances {
		n += in.TotalTimeServed
	}
	return n
}
