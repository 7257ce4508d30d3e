package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// countingFetch returns a FetchFunc that counts executions and blocks
// until release is closed (when release is non-nil).
func countingFetch(calls *int32, release chan struct{}, val any, err error) FetchFunc {
	return func(ctx context.Context) (any, error) {
		atomic.AddInt32(calls, 1)
		if release != nil {
			<-release
		}
		return val, err
	}
}

// ============================================================
// Keys
// ============================================================

func TestKeyOf(t *testing.T) {
	k := KeyOf("leads", "page=1", "size=50")
	if k != "leads/page=1/size=50" {
		t.Fatalf("unexpected key %q", k)
	}
}

func TestKeyPrefix(t *testing.T) {
	k := KeyOf("leads", "page=1")
	if !k.HasPrefix("leads") {
		t.Fatal("prefix should match resource")
	}
	if !k.HasPrefix(k) {
		t.Fatal("key should match itself")
	}
	if Key("leadscores/x").HasPrefix("leads") {
		t.Fatal("prefix must respect segment boundaries")
	}
}

// ============================================================
// Fetch and caching
// ============================================================

func TestFetchCachesValue(t *testing.T) {
	c := NewCache()
	var calls int32

	for i := 0; i < 3; i++ {
		v, err := c.Fetch(context.Background(), "k", 0, countingFetch(&calls, nil, 42, nil))
		if err != nil {
			t.Fatal(err)
		}
		if v != 42 {
			t.Fatalf("unexpected value %v", v)
		}
	}
	if calls != 1 {
		t.Fatalf("expected 1 fetch, got %d", calls)
	}
}

func TestConcurrentFetchesCoalesce(t *testing.T) {
	c := NewCache()
	var calls int32
	release := make(chan struct{})

	const n = 8
	results := make([]any, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _ := c.Fetch(context.Background(), "leads/page=1", 0, countingFetch(&calls, release, "page1", nil))
			results[i] = v
		}(i)
	}

	// Give every goroutine a chance to enter Fetch before releasing.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls != 1 {
		t.Fatalf("expected exactly 1 network call, got %d", calls)
	}
	for i, v := range results {
		if v != "page1" {
			t.Fatalf("caller %d got %v", i, v)
		}
	}
}

func TestMaxAgeTriggersRefetch(t *testing.T) {
	c := NewCache()
	var calls int32

	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	c.Fetch(context.Background(), "activity", 30*time.Second, countingFetch(&calls, nil, 1, nil))
	c.Fetch(context.Background(), "activity", 30*time.Second, countingFetch(&calls, nil, 2, nil))
	if calls != 1 {
		t.Fatalf("fresh entry should not refetch, got %d calls", calls)
	}

	now = now.Add(31 * time.Second)
	v, _ := c.Fetch(context.Background(), "activity", 30*time.Second, countingFetch(&calls, nil, 2, nil))
	if calls != 2 {
		t.Fatalf("aged entry should refetch, got %d calls", calls)
	}
	if v != 2 {
		t.Fatalf("unexpected value %v", v)
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	c := NewCache()
	var calls int32

	c.Subscribe("leads/page=1")
	defer c.Unsubscribe("leads/page=1")

	c.Fetch(context.Background(), "leads/page=1", 0, countingFetch(&calls, nil, "a", nil))
	if n := c.Invalidate("leads"); n != 1 {
		t.Fatalf("expected 1 invalidated entry, got %d", n)
	}
	v, _ := c.Fetch(context.Background(), "leads/page=1", 0, countingFetch(&calls, nil, "b", nil))
	if calls != 2 {
		t.Fatalf("expected refetch after invalidation, got %d calls", calls)
	}
	if v != "b" {
		t.Fatalf("unexpected value %v", v)
	}
}

func TestInvalidateEvictsUnreferenced(t *testing.T) {
	c := NewCache()
	var calls int32

	c.Fetch(context.Background(), "calls/detail/3", 0, countingFetch(&calls, nil, "x", nil))
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", c.Len())
	}
	c.Invalidate("calls")
	if c.Len() != 0 {
		t.Fatalf("unreferenced entry should be evicted, got %d entries", c.Len())
	}
}

func TestUnsubscribeEvictsStaleEntry(t *testing.T) {
	c := NewCache()
	var calls int32

	c.Subscribe("meetings/page=1")
	c.Fetch(context.Background(), "meetings/page=1", 0, countingFetch(&calls, nil, "m", nil))
	c.Invalidate("meetings")
	if c.Len() != 1 {
		t.Fatal("subscribed entry should survive invalidation")
	}
	c.Unsubscribe("meetings/page=1")
	if c.Len() != 0 {
		t.Fatal("last unsubscribe should evict the stale entry")
	}
}

func TestStaleWhileError(t *testing.T) {
	c := NewCache()
	var calls int32

	c.Fetch(context.Background(), "overview", 0, countingFetch(&calls, nil, "good", nil))
	c.Invalidate("overview")
	c.Subscribe("overview")
	defer c.Unsubscribe("overview")

	// Entry was evicted (no refs at invalidation time), refetch fails.
	boom := errors.New("backend down")
	_, err := c.Fetch(context.Background(), "overview", 0, countingFetch(&calls, nil, nil, boom))
	if !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}

	r, ok := c.Peek("overview")
	if !ok {
		t.Fatal("error entry should be peekable")
	}
	if r.Err == nil {
		t.Fatal("snapshot should carry the error")
	}
}

func TestErrorKeepsLastGoodValue(t *testing.T) {
	c := NewCache()
	c.Subscribe("campaigns")
	defer c.Unsubscribe("campaigns")

	c.Fetch(context.Background(), "campaigns", 0, func(ctx context.Context) (any, error) {
		return "good", nil
	})
	c.Invalidate("campaigns")

	boom := errors.New("503")
	c.Fetch(context.Background(), "campaigns", 0, func(ctx context.Context) (any, error) {
		return nil, boom
	})

	r, ok := c.Peek("campaigns")
	if !ok {
		t.Fatal("entry missing")
	}
	if r.Value != "good" {
		t.Fatalf("last good value lost, got %v", r.Value)
	}
	if !errors.Is(r.Err, boom) {
		t.Fatalf("expected error recorded, got %v", r.Err)
	}
}

func TestFetchAfterErrorRetries(t *testing.T) {
	c := NewCache()
	var calls int32

	c.Fetch(context.Background(), "k", 0, countingFetch(&calls, nil, nil, errors.New("x")))
	v, err := c.Fetch(context.Background(), "k", 0, countingFetch(&calls, nil, "ok", nil))
	if err != nil || v != "ok" {
		t.Fatalf("retry failed: %v %v", v, err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestFetchContextCancelledWhileWaiting(t *testing.T) {
	c := NewCache()
	var calls int32
	release := make(chan struct{})

	go c.Fetch(context.Background(), "slow", 0, countingFetch(&calls, release, 1, nil))
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Fetch(ctx, "slow", 0, countingFetch(&calls, nil, 2, nil))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	close(release)
}

func TestFetchAs(t *testing.T) {
	c := NewCache()

	v, err := FetchAs(context.Background(), c, "typed", 0, func(ctx context.Context) (string, error) {
		return "hello", nil
	})
	if err != nil || v != "hello" {
		t.Fatalf("unexpected result %q %v", v, err)
	}
}

func TestFetchAsFallsBackToCachedValue(t *testing.T) {
	c := NewCache()
	c.Subscribe("typed")
	defer c.Unsubscribe("typed")

	FetchAs(context.Background(), c, "typed", 0, func(ctx context.Context) (string, error) {
		return "cached", nil
	})
	c.Invalidate("typed")

	v, err := FetchAs(context.Background(), c, "typed", 0, func(ctx context.Context) (string, error) {
		return "", errors.New("down")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if v != "cached" {
		t.Fatalf("expected stale value alongside error, got %q", v)
	}
}
