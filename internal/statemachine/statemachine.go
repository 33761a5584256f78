// Package statemachine holds the four per-type ticket transition graphs.
// It is pure and holds no mutable state after construction, so a single
// registry is safely shared across every request.
package statemachine

import "github.com/ticketcore/ticketcore/internal/errs"

// TicketType selects one of the four graphs. Immutable once a ticket is
// created.
type TicketType string

const (
	Task     TicketType = "task"
	Bug      TicketType = "bug"
	Feature  TicketType = "feature"
	Decision TicketType = "decision"
)

func (t TicketType) Valid() bool {
	switch t {
	case Task, Bug, Feature, Decision:
		return true
	}
	return false
}

type graph struct {
	initial string
	// terminalOrder lists terminal statuses in close's preference order.
	terminalOrder []string
	edges         map[string][]string
}

func (g graph) isTerminal(status string) bool {
	for _, s := range g.terminalOrder {
		if s == status {
			return true
		}
	}
	return false
}

func (g graph) statuses() []string {
	// Walk breadth-first from the initial status following each edge list
	// in order, so the result is stable (ranging over the edges map is not).
	seen := map[string]bool{g.initial: true}
	order := []string{g.initial}
	for i := 0; i < len(order); i++ {
		for _, to := range g.edges[order[i]] {
			if !seen[to] {
				seen[to] = true
				order = append(order, to)
			}
		}
	}
	return order
}

var graphs = map[TicketType]graph{
	Task: {
		initial:       "backlog",
		terminalOrder: []string{"done", "cancelled"},
		edges: map[string][]string{
			"backlog":     {"in_progress", "cancelled"},
			"in_progress": {"done", "cancelled"},
		},
	},
	Bug: {
		initial:       "triage",
		terminalOrder: []string{"resolved", "wont_fix"},
		edges: map[string][]string{
			"triage":      {"confirmed", "wont_fix"},
			"confirmed":   {"in_progress", "wont_fix"},
			"in_progress": {"resolved", "wont_fix"},
		},
	},
	Feature: {
		initial:       "proposed",
		terminalOrder: []string{"shipped", "rejected"},
		edges: map[string][]string{
			"proposed":    {"approved", "rejected"},
			"approved":    {"in_progress", "rejected"},
			"in_progress": {"shipped", "rejected"},
		},
	},
	Decision: {
		initial:       "open",
		terminalOrder: []string{"decided", "deferred"},
		edges: map[string][]string{
			"open":     {"decided", "deferred"},
			"deferred": {"open"},
		},
	},
}

// Initial returns the status a new ticket of the given type starts in.
func Initial(t TicketType) (string, *errs.AppError) {
	g, ok := graphs[t]
	if !ok {
		return "", errs.NewValidation("unknown ticket type %q", t)
	}
	return g.initial, nil
}

// IsTerminal reports whether status is one of t's declared terminal
// statuses (decision.deferred is terminal even though it has a single
// reopen edge — terminal here means "a close() target", not
// "absorbing").
func IsTerminal(t TicketType, status string) (bool, *errs.AppError) {
	g, ok := graphs[t]
	if !ok {
		return false, errs.NewValidation("unknown ticket type %q", t)
	}
	return g.isTerminal(status), nil
}

// Statuses returns every status declared for t, in declaration order.
func Statuses(t TicketType) ([]string, *errs.AppError) {
	g, ok := graphs[t]
	if !ok {
		return nil, errs.NewValidation("unknown ticket type %q", t)
	}
	return g.statuses(), nil
}

// AllStatuses returns the union of statuses across every type, used when
// board() is called without a type filter. Order is deterministic:
// task, bug, feature, decision, duplicates dropped.
func AllStatuses() []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range []TicketType{Task, Bug, Feature, Decision} {
		for _, s := range graphs[t].statuses() {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// ValidateTransition checks that (from, to) is a declared edge for t.
func ValidateTransition(t TicketType, from, to string) *errs.AppError {
	g, ok := graphs[t]
	if !ok {
		return errs.NewValidation("unknown ticket type %q", t)
	}
	for _, candidate := range g.edges[from] {
		if candidate == to {
			return nil
		}
	}
	return errs.NewInvalidTransition("no edge %s -> %s for type %s", from, to, t)
}

// CloseTarget returns the single-edge terminal status close() should
// move to from the current status, per the type's preference order. It
// fails if current is already terminal or if no single-edge terminal is
// reachable.
func CloseTarget(t TicketType, from string) (string, *errs.AppError) {
	g, ok := graphs[t]
	if !ok {
		return "", errs.NewValidation("unknown ticket type %q", t)
	}
	if g.isTerminal(from) {
		return "", errs.NewInvalidTransition("ticket is already in terminal status %q", from)
	}
	reachable := g.edges[from]
	for _, preferred := range g.terminalOrder {
		for _, candidate := range reachable {
			if candidate == preferred {
				return preferred, nil
			}
		}
	}
	return "", errs.NewInvalidTransition("no single-edge terminal reachable from %q", from)
}
