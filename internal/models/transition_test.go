package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestCanTransition_FullTable прогоняет все пары статусов через таблицу переходов
func TestCanTransition_FullTable(t *testing.T) {
	all := []Status{StatusReported, StatusDispatched, StatusInProgress, StatusResolved, StatusCancelled}

	allowed := map[Status]map[Status]bool{
		StatusReported:   {StatusDispatched: true, StatusCancelled: true},
		StatusDispatched: {StatusInProgress: true, StatusCancelled: true},
		StatusInProgress: {StatusResolved: true, StatusCancelled: true},
		StatusResolved:   {},
		StatusCancelled:  {},
	}

	for _, from := range all {
		for _, to := range all {
			got := CanTransition(from, to)
			want := allowed[from][to]
			assert.Equalf(t, want, got, "transition %s -> %s", from, to)
		}
	}
}

func TestCanTransition_NoSkippingForward(t *testing.T) {
	// Нельзя перепрыгивать промежуточные статусы прямой цепочки
	assert.False(t, CanTransition(StatusReported, StatusInProgress))
	assert.False(t, CanTransition(StatusReported, StatusResolved))
	assert.False(t, CanTransition(StatusDispatched, StatusResolved))
}

func TestCanTransition_TerminalStatesHaveNoExits(t *testing.T) {
	for _, from := range []Status{StatusResolved, StatusCancelled} {
		for _, to := range []Status{StatusReported, StatusDispatched, StatusInProgress, StatusResolved, StatusCancelled} {
			assert.Falsef(t, CanTransition(from, to), "terminal %s must not allow %s", from, to)
		}
	}
}

func TestCanTransition_SelfTransitionIllegal(t *testing.T) {
	for _, s := range []Status{StatusReported, StatusDispatched, StatusInProgress, StatusResolved, StatusCancelled} {
		assert.Falsef(t, CanTransition(s, s), "self transition %s", s)
	}
}

func TestCanTransition_UnknownStatus(t *testing.T) {
	assert.False(t, CanTransition(Status("unknown"), StatusDispatched))
	assert.False(t, CanTransition(StatusReported, Status("unknown")))
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.True(t, StatusResolved.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusReported.IsTerminal())
	assert.False(t, StatusDispatched.IsTerminal())
	assert.False(t, StatusInProgress.IsTerminal())
}
