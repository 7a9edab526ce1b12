package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHealthGate_DataErrorsDoNotDegrade(t *testing.T) {
	gate := NewHealthGate(time.Second, time.Second, time.Minute)

	err := gate.Do(context.Background(), func(context.Context) error {
		return errors.New("UNIQUE constraint failed: sessions.id")
	})
	if err == nil {
		t.Fatal("expected error to propagate")
	}
	if !gate.Healthy() {
		t.Error("data error must not open the gate")
	}
	if gate.Failures() != 0 {
		t.Errorf("failures = %d, want 0", gate.Failures())
	}
}

func TestHealthGate_ConnectivityErrorOpensGate(t *testing.T) {
	gate := NewHealthGate(time.Second, time.Minute, time.Hour)

	_ = gate.Do(context.Background(), func(context.Context) error {
		return errors.New("dial tcp: connection refused")
	})
	if gate.Healthy() {
		t.Error("connectivity error must open the gate")
	}
	if gate.Failures() != 1 {
		t.Errorf("failures = %d, want 1", gate.Failures())
	}
}

func TestHealthGate_TimeoutOpensGate(t *testing.T) {
	gate := NewHealthGate(10*time.Millisecond, time.Minute, time.Hour)

	_ = gate.Do(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if gate.Healthy() {
		t.Error("timeout must open the gate")
	}
}

func TestHealthGate_BackoffDoublesAndCaps(t *testing.T) {
	gate := NewHealthGate(time.Second, time.Second, 8*time.Second)

	now := time.Unix(1000, 0)
	gate.now = func() time.Time { return now }

	fail := func() {
		_ = gate.Do(context.Background(), func(context.Context) error {
			return errors.New("network is unreachable")
		})
	}

	fail()
	if gate.Healthy() {
		t.Fatal("gate should be closed right after a failure")
	}
	now = now.Add(time.Second)
	if !gate.Healthy() {
		t.Error("1s backoff elapsed, gate should admit again")
	}

	fail()
	now = now.Add(time.Second)
	if gate.Healthy() {
		t.Error("second failure doubles the window to 2s")
	}
	now = now.Add(time.Second)
	if !gate.Healthy() {
		t.Error("2s elapsed, gate should admit again")
	}

	// pile on failures, window caps at the max
	for i := 0; i < 10; i++ {
		fail()
	}
	now = now.Add(8 * time.Second)
	if !gate.Healthy() {
		t.Error("window must cap at backoffMax")
	}
}

func TestHealthGate_SuccessResets(t *testing.T) {
	gate := NewHealthGate(time.Second, time.Minute, time.Hour)

	now := time.Unix(1000, 0)
	gate.now = func() time.Time { return now }

	_ = gate.Do(context.Background(), func(context.Context) error {
		return errors.New("connection reset by peer")
	})
	now = now.Add(time.Minute)

	if err := gate.Do(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if gate.Failures() != 0 {
		t.Errorf("failures = %d, want 0 after success", gate.Failures())
	}
	if !gate.Healthy() {
		t.Error("gate should be healthy after a success")
	}
}

func TestIsConnectivityError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{context.DeadlineExceeded, true},
		{errors.New("i/o timeout"), true},
		{errors.New("database is locked"), true},
		{errors.New("no such host"), true},
		{errors.New("UNIQUE constraint failed"), false},
		{errors.New("NOT NULL constraint failed: messages.id"), false},
	}
	for _, tt := range tests {
		if got := isConnectivityError(tt.err); got != tt.want {
			t.Errorf("isConnectivityError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
