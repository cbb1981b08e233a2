package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"lfg-queue-sim/matchmaker"
)

const rule = "==============================="

// Source is the read-only view of a run the reporter renders.
type Source interface {
	Roles() matchmaker.Roles
	Instances() []matchmaker.InstanceStats
}

// Reporter prints run progress as plain text. It implements
// matchmaker.Observer and serializes its writes.
type Reporter struct {
	mu     sync.Mutex
	w      io.Writer
	src    Source
	header lipgloss.Style
	active lipgloss.Style
	note   lipgloss.Style
}

func New(w io.Writer, src Source) *Reporter {
	r := lipgloss.NewRenderer(w)
	return &Reporter{
		w:      w,
		src:    src,
		header: r.NewStyle().Bold(true),
		active: r.NewStyle().Foreground(lipgloss.Color("10")),
		note:   r.NewStyle().Foreground(lipgloss.Color("11")),
	}
}

// Inputs echoes the run parameters.
func (r *Reporter) Inputs(s matchmaker.Settings) {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", r.header.Render("Input Values:"))
	fmt.Fprintf(&b, "Maximum number of concurrent instances (n): %d\n", s.Capacity)
	fmt.Fprintf(&b, "Number of tank players in the queue (t): %d\n", s.Tanks)
	fmt.Fprintf(&b, "Number of healer players in the queue (h): %d\n", s.Healers)
	fmt.Fprintf(&b, "Number of DPS players in the queue (d): %d\n", s.DPS)
	fmt.Fprintf(&b, "Minimum time before an instance is finished (t1): %d\n", s.MinClearSeconds)
	fmt.Fprintf(&b, "Maximum time before an instance is finished (t2): %d\n", s.MaxClearSeconds)
	r.write(b.String())
}

// Status prints every instance and the queue counters.
func (r *Reporter) Status() {
	r.write(r.status())
}

func (r *Reporter) status() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", r.header.Render("===== Current Instance Status ====="))
	for _, in := range r.src.Instances() {
		state := "empty"
		if in.Active {
			state = r.active.Render("active")
		}
		fmt.Fprintf(&b, "Instance %d: %s\n", in.ID, state)
	}
	roles := r.src.Roles()
	fmt.Fprintf(&b, "\n%s\n", r.header.Render("Queue Status:"))
	fmt.Fprintf(&b, "Tanks: %d\nHealers: %d\nDPS: %d\n", roles.Tanks, roles.Healers, roles.DPS)
	b.WriteString(rule + "\n")
	return b.String()
}

func (r *Reporter) PartyEntered(_ context.Context, ev matchmaker.PartyEvent) {
	r.write(fmt.Sprintf("\n> Party entering Instance %d\n", ev.InstanceID) + r.status())
}

func (r *Reporter) PartyCompleted(_ context.Context, ev matchmaker.PartyEvent) {
	r.write(fmt.Sprintf("\n> Party completed Instance %d in %d seconds\n", ev.InstanceID, ev.ClearSeconds) + r.status())
}

// Summary prints per-instance totals and explains any leftover players.
func (r *Reporter) Summary(sum matchmaker.Summary) {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", r.header.Render("===== Instance Summary ====="))
	for _, in := range sum.Instances {
		fmt.Fprintf(&b, "Instance %d:\n", in.ID)
		fmt.Fprintf(&b, "  Parties served: %d\n", in.PartiesServed)
		fmt.Fprintf(&b, "  Total time served: %d seconds\n", in.TotalTimeServed)
	}

	fmt.Fprintf(&b, "\n%s\n", r.header.Render("Overall Summary:"))
	fmt.Fprintf(&b, "  Total parties served: %d\n", sum.TotalParties())
	fmt.Fprintf(&b, "  Total time served across all instances: %d seconds\n", sum.TotalTimeServed())

	left := sum.Leftover
	fmt.Fprintf(&b, "\n%s\n", r.header.Render("Leftover Players:"))
	fmt.Fprintf(&b, "  Tanks: %d\n  Healers: %d\n  DPS: %d\n", left.Tanks, left.Healers, left.DPS)
	switch {
	case sum.MaxFormable > 0:
		b.WriteString(r.note.Render(fmt.Sprintf("  Note: %d more parties could have been formed,", sum.MaxFormable)) + "\n")
		b.WriteString(r.note.Render("        but there weren't enough instances available.") + "\n")
	case left.Total() > 0:
		b.WriteString(r.note.Render("  These players couldn't form complete parties due to role imbalance.") + "\n")
	default:
		b.WriteString("  No leftover players - all players were assigned to parties.\n")
	}
	b.WriteString(rule + "\n")
	r.write(b.String())
}

func (r *Reporter) write(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = io.WriteString(r.w, s)
}
