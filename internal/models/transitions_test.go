package models

import "testing"

func TestCanTransitionDriver(t *testing.T) {
	if !CanTransitionDriver(DriverStatusInactive, DriverStatusWaiting) {
		t.Fatal("expected inactive -> waiting to be allowed")
	}
	if !CanTransitionDriver(DriverStatusWaiting, DriverStatusDispatched) {
		t.Fatal("expected waiting -> dispatched to be allowed")
	}
	if !CanTransitionDriver(DriverStatusWaiting, DriverStatusInactive) {
		t.Fatal("expected waiting -> inactive (cancel) to be allowed")
	}
	if !CanTransitionDriver(DriverStatusDispatched, DriverStatusInactive) {
		t.Fatal("expected dispatched -> inactive to be allowed")
	}
	if CanTransitionDriver(DriverStatusInactive, DriverStatusDispatched) {
		t.Fatal("unexpected inactive -> dispatched allowed")
	}
	if CanTransitionDriver(DriverStatusDispatched, DriverStatusWaiting) {
		t.Fatal("unexpected dispatched -> waiting allowed")
	}
}

func TestCanTransitionDispatch(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{DispatchStatusPending, DispatchStatusQueued, true},
		{DispatchStatusPending, DispatchStatusCancelled, true},
		{DispatchStatusQueued, DispatchStatusDispatched, true},
		{DispatchStatusQueued, DispatchStatusCancelled, true},
		{DispatchStatusDispatched, DispatchStatusCompleted, true},
		{DispatchStatusPending, DispatchStatusDispatched, false},
		{DispatchStatusDispatched, DispatchStatusCancelled, false},
		{DispatchStatusCompleted, DispatchStatusQueued, false},
		{DispatchStatusCancelled, DispatchStatusQueued, false},
	}
	for _, tt := range tests {
		if got := CanTransitionDispatch(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransitionDispatch(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTerminalDispatchStatuses(t *testing.T) {
	if !IsTerminalDispatchStatus(DispatchStatusCompleted) || !IsTerminalDispatchStatus(DispatchStatusCancelled) {
		t.Fatal("completed and cancelled must be terminal")
	}
	if IsTerminalDispatchStatus(DispatchStatusQueued) {
		t.Fatal("queued must not be terminal")
	}
}

func TestValidDriverStatus(t *testing.T) {
	for _, s := range []string{DriverStatusInactive, DriverStatusWaiting, DriverStatusDispatched} {
		if !ValidDriverStatus(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	if ValidDriverStatus("en_reparto") {
		t.Error("unexpected status accepted")
	}
}
