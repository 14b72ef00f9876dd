package domain

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusAssigned, StatusInProgress, true},
		{StatusAssigned, StatusWon, true},
		{StatusAssigned, StatusLost, true},
		{StatusAssigned, StatusCompleted, false},
		{StatusInProgress, StatusWon, true},
		{StatusInProgress, StatusLost, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusAssigned, false},
		{StatusWon, StatusInProgress, false},
		{StatusLost, StatusWon, false},
		{StatusCompleted, StatusWon, false},
		{StatusNew, StatusAssigned, false},
		{StatusNew, StatusInProgress, false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTerminalStatusesHaveNoSuccessors(t *testing.T) {
	for _, s := range AllStatuses {
		if IsTerminalStatus(s) && len(NextStatuses(s)) != 0 {
			t.Errorf("terminal status %s has successors", s)
		}
	}
	if !CanDistribute(StatusNew) || CanDistribute(StatusAssigned) {
		t.Fatal("only new leads may be distributed")
	}
}
