package statemachine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ticketcore/ticketcore/internal/errs"
)

func TestInitialStatuses(t *testing.T) {
	cases := map[TicketType]string{
		Task:     "backlog",
		Bug:      "triage",
		Feature:  "proposed",
		Decision: "open",
	}
	for typ, want := range cases {
		got, verr := Initial(typ)
		assert.Nil(t, verr)
		assert.Equal(t, want, got)
	}
}

func TestInitialUnknownType(t *testing.T) {
	_, verr := Initial(TicketType("widget"))
	assert.NotNil(t, verr)
	assert.Equal(t, errs.KindValidation, verr.Kind)
}

func TestValidateTransitionTaskHappyPath(t *testing.T) {
	assert.Nil(t, ValidateTransition(Task, "backlog", "in_progress"))
	assert.Nil(t, ValidateTransition(Task, "in_progress", "done"))
}

func TestValidateTransitionRejectsSkipAhead(t *testing.T) {
	verr := ValidateTransition(Task, "backlog", "done")
	assert.NotNil(t, verr)
	assert.Equal(t, errs.KindInvalidTransition, verr.Kind)
}

func TestValidateTransitionRejectsSelfEdge(t *testing.T) {
	verr := ValidateTransition(Task, "backlog", "backlog")
	assert.NotNil(t, verr)
}

func TestBugSkipConfirmedRejected(t *testing.T) {
	verr := ValidateTransition(Bug, "triage", "in_progress")
	assert.NotNil(t, verr)
	assert.Equal(t, errs.KindInvalidTransition, verr.Kind)
}

func TestDecisionReopenEdge(t *testing.T) {
	assert.Nil(t, ValidateTransition(Decision, "open", "deferred"))
	assert.Nil(t, ValidateTransition(Decision, "deferred", "open"))
}

func TestIsTerminal(t *testing.T) {
	terminal, verr := IsTerminal(Task, "done")
	assert.Nil(t, verr)
	assert.True(t, terminal)

	terminal, verr = IsTerminal(Task, "backlog")
	assert.Nil(t, verr)
	assert.False(t, terminal)

	// deferred is terminal by CloseTarget's definition (a close() target)
	// even though it has a single reopen edge.
	terminal, verr = IsTerminal(Decision, "deferred")
	assert.Nil(t, verr)
	assert.True(t, terminal)
}

func TestCloseTargetPreferenceOrder(t *testing.T) {
	cases := []struct {
		typ  TicketType
		from string
		want string
	}{
		{Task, "in_progress", "done"},
		{Bug, "in_progress", "resolved"},
		{Feature, "in_progress", "shipped"},
		{Decision, "open", "decided"},
	}
	for _, tc := range cases {
		got, verr := CloseTarget(tc.typ, tc.from)
		assert.Nil(t, verr)
		assert.Equal(t, tc.want, got)
	}
}

func TestCloseTargetFallsBackToSecondTerminal(t *testing.T) {
	// bug's confirmed reaches only in_progress or wont_fix: the preferred
	// terminal (resolved) is not a single edge away, so close picks
	// wont_fix.
	got, verr := CloseTarget(Bug, "confirmed")
	assert.Nil(t, verr)
	assert.Equal(t, "wont_fix", got)
}

func TestCloseTargetAlreadyTerminal(t *testing.T) {
	_, verr := CloseTarget(Task, "done")
	assert.NotNil(t, verr)
	assert.Equal(t, errs.KindInvalidTransition, verr.Kind)
}

func TestAllStatusesUnionDeduplicates(t *testing.T) {
	all := AllStatuses()
	seen := map[string]bool{}
	for _, s := range all {
		assert.False(t, seen[s], "duplicate status %q", s)
		seen[s] = true
	}
	assert.True(t, seen["backlog"])
	assert.True(t, seen["triage"])
	assert.True(t, seen["proposed"])
	assert.True(t, seen["open"])
}

func TestStatusesUnknownType(t *testing.T) {
	_, verr := Statuses(TicketType("nope"))
	assert.NotNil(t, verr)
}
