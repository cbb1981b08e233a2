package matchmaker

import (
	"sync"

	"lfg-queue-sim/metrics"
)

// RoleQueue holds the players still waiting, counted per role.
// Forming a party checks and consumes players in one critical section.
type RoleQueue struct {
	mu       sync.Mutex
	recipe   Recipe
	roles    Roles
	formed   int
	consumed int
}

// NewRoleQueue creates a queue seeded with the initial role counts.
// Negative counts are treated as zero.
func NewRoleQueue(initial Roles, recipe Recipe) *RoleQueue {
	if !recipe.valid() {
		recipe = DefaultRecipe
	}
	q := &RoleQueue{
		recipe: recipe,
		roles: Roles{
			Tanks:   max(initial.Tanks, 0),
			Healers: max(initial.Healers, 0),
			DPS:     max(initial.DPS, 0),
		},
	}
	metrics.SetQueued(q.roles.Tanks, q.roles.Healers, q.roles.DPS)
	return q
}

func (q *RoleQueue) canFormLocked() bool {
	return q.roles.Tanks >= q.recipe.Tanks &&
		q.roles.Healers >= q.recipe.Healers &&
		q.roles.DPS >= q.recipe.DPS
}

// TryFormParty removes one party's worth of players and reports true, or
// leaves the counters untouched and reports false.
func (q *RoleQueue) TryFormParty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.canFormLocked() {
		return false
	}
	q.roles.Tanks -= q.recipe.Tanks
	q.roles.Healers -= q.recipe.Healers
	q.roles.DPS -= q.recipe.DPS
	q.formed++
	q.consumed += q.recipe.Size()

	metrics.SetQueued(q.roles.Tanks, q.roles.Healers, q.roles.DPS)
	return true
}

// CanForm reports whether a party could be formed right now without
// consuming anyone.
func (q *RoleQueue) CanForm() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.canFormLocked()
}

// Snapshot returns the current role counts
func (q *RoleQueue) Snapshot() Roles {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.roles
}

// MaxFormableParties returns how many whole parties the remaining players
// could form. Reporting only.
func (q *RoleQueue) MaxFormableParties() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return min(q.roles.Tanks/q.recipe.Tanks, q.roles.Healers/q.recipe.Healers, q.roles.DPS/q.recipe.DPS)
}

// Formed returns the number of successful TryFormParty calls.
func (q *RoleQueue) Formed() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.formed
}

// Consumed returns the number of players taken out of the queue.
func (q *RoleQueue) Consumed() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.consumed
}
