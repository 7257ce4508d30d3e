package query

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestMutationLifecycle(t *testing.T) {
	c := NewCache()
	m := NewMutation(c, "create-lead", "leads")

	if m.Status() != StatusIdle {
		t.Fatal("fresh mutation should be idle")
	}

	err := m.Run(context.Background(), func(ctx context.Context) error { return nil })
	if err != nil {
		t.Fatal(err)
	}
	if m.Status() != StatusSuccess {
		t.Fatalf("expected success, got %v", m.Status())
	}

	boom := errors.New("duplicate phone")
	err = m.Run(context.Background(), func(ctx context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected error returned, got %v", err)
	}
	if m.Status() != StatusError || !errors.Is(m.Err(), boom) {
		t.Fatalf("error not recorded: %v %v", m.Status(), m.Err())
	}
}

func TestMutationSuccessInvalidates(t *testing.T) {
	c := NewCache()
	var fetches int32
	fetch := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&fetches, 1)
		return "x", nil
	}

	c.Subscribe("leads/page=1")
	defer c.Unsubscribe("leads/page=1")
	c.Fetch(context.Background(), "leads/page=1", 0, fetch)

	m := NewMutation(c, "create-lead", "leads")
	m.Run(context.Background(), func(ctx context.Context) error { return nil })

	c.Fetch(context.Background(), "leads/page=1", 0, fetch)
	if fetches != 2 {
		t.Fatalf("successful mutation should invalidate leads, got %d fetches", fetches)
	}
}

func TestMutationFailureInvalidatesNothing(t *testing.T) {
	c := NewCache()
	var fetches int32
	fetch := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&fetches, 1)
		return "x", nil
	}

	c.Fetch(context.Background(), "leads/page=1", 0, fetch)

	m := NewMutation(c, "create-lead", "leads")
	m.Run(context.Background(), func(ctx context.Context) error { return errors.New("400") })

	c.Fetch(context.Background(), "leads/page=1", 0, fetch)
	if fetches != 1 {
		t.Fatalf("failed mutation must not invalidate, got %d fetches", fetches)
	}
}

func TestMutationMultiKeyInvalidation(t *testing.T) {
	c := NewCache()
	var fetches int32
	fetch := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&fetches, 1)
		return "x", nil
	}

	c.Fetch(context.Background(), "leads/page=1", 0, fetch)
	c.Fetch(context.Background(), "analytics/campaigns", 0, fetch)
	c.Fetch(context.Background(), "settings/system_prompt", 0, fetch)

	m := NewMutation(c, "start-campaign", "leads", "analytics/campaigns", "campaigns")
	m.Run(context.Background(), func(ctx context.Context) error { return nil })

	c.Fetch(context.Background(), "leads/page=1", 0, fetch)
	c.Fetch(context.Background(), "analytics/campaigns", 0, fetch)
	c.Fetch(context.Background(), "settings/system_prompt", 0, fetch)

	// leads and campaigns refetched, settings untouched: 3 + 2.
	if fetches != 5 {
		t.Fatalf("expected 5 fetches, got %d", fetches)
	}
}

func TestMutationAtMostOnePending(t *testing.T) {
	c := NewCache()
	m := NewMutation(c, "upload", "leads")

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- m.Run(context.Background(), func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	if !m.Pending() {
		t.Fatal("mutation should report pending")
	}
	err := m.Run(context.Background(), func(ctx context.Context) error { return nil })
	if !errors.Is(err, ErrPending) {
		t.Fatalf("expected ErrPending, got %v", err)
	}

	close(release)
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(time.Second):
		t.Fatal("first run never resolved")
	}

	// Resolved mutation can run again.
	if err := m.Run(context.Background(), func(ctx context.Context) error { return nil }); err != nil {
		t.Fatal(err)
	}
}
