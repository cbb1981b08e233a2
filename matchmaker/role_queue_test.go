package matchmaker

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleQueue_TryFormParty(t *testing.T) {
	tests := []struct {
		name    string
		initial Roles
		want    bool
		after   Roles
	}{
		{name: "exact party", initial: Roles{1, 1, 3}, want: true, after: Roles{0, 0, 0}},
		{name: "surplus", initial: Roles{4, 2, 10}, want: true, after: Roles{3, 1, 7}},
		{name: "no tank", initial: Roles{0, 2, 6}, want: false, after: Roles{0, 2, 6}},
		{name: "no healer", initial: Roles{2, 0, 6}, want: false, after: Roles{2, 0, 6}},
		{name: "two dps", initial: Roles{2, 2, 2}, want: false, after: Roles{2, 2, 2}},
		{name: "negative clamps to zero", initial: Roles{-1, 1, 3}, want: false, after: Roles{0, 1, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewRoleQueue(tt.initial, DefaultRecipe)
			got := q.TryFormParty()
			if got != tt.want {
				t.Errorf("TryFormParty() = %v, want %v", got, tt.want)
			}
			if snap := q.Snapshot(); snap != tt.after {
				t.Errorf("Snapshot() = %+v, want %+v", snap, tt.after)
			}
		})
	}
}

func TestRoleQueue_MaxFormableAfterFormations(t *testing.T) {
	tests := []struct {
		name    string
		initial Roles
	}{
		{"balanced", Roles{5, 5, 15}},
		{"tank limited", Roles{2, 6, 20}},
		{"healer limited", Roles{7, 3, 30}},
		{"dps limited", Roles{9, 9, 13}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewRoleQueue(tt.initial, DefaultRecipe)
			T, H, D := tt.initial.Tanks, tt.initial.Healers, tt.initial.DPS
			for k := 0; ; k++ {
				want := min(T-k, H-k, (D-3*k)/3)
				assert.Equal(t, want, q.MaxFormableParties(), "after %d formations", k)
				if !q.TryFormParty() {
					assert.Equal(t, 0, want)
					break
				}
			}
		})
	}
}

func TestRoleQueue_CanFormDoesNotConsume(t *testing.T) {
	q := NewRoleQueue(Roles{1, 1, 3}, DefaultRecipe)
	for i := 0; i < 3; i++ {
		assert.True(t, q.CanForm())
	}
	assert.Equal(t, Roles{1, 1, 3}, q.Snapshot())
	assert.True(t, q.TryFormParty())
	assert.False(t, q.CanForm())
}

func TestRoleQueue_CustomRecipe(t *testing.T) {
	q := NewRoleQueue(Roles{4, 4, 8}, Recipe{Tanks: 2, Healers: 1, DPS: 4})
	assert.Equal(t, 2, q.MaxFormableParties())
	assert.True(t, q.TryFormParty())
	assert.Equal(t, Roles{2, 3, 4}, q.Snapshot())
	assert.Equal(t, 7, q.Consumed())
}

func TestRoleQueue_Concurrent(t *testing.T) {
	initial := Roles{Tanks: 40, Healers: 35, DPS: 100}
	q := NewRoleQueue(initial, DefaultRecipe)
	expected := q.MaxFormableParties()

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if q.TryFormParty() {
					mu.Lock()
					won++
					mu.Unlock()
				}
				snap := q.Snapshot()
				if snap.Tanks < 0 || snap.Healers < 0 || snap.DPS < 0 {
					t.Errorf("negative counter observed: %+v", snap)
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, expected, won)
	assert.Equal(t, won, q.Formed())
	assert.Equal(t, 5*won, q.Consumed())
	assert.Equal(t, initial.Total()-5*won, q.Snapshot().Total())
	assert.Equal(t, 0, q.MaxFormableParties())
}
