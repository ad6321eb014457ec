package broadcast

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tg-content-bot/internal/domain"
)

type fakeSender struct {
	mu        sync.Mutex
	fail      map[int64]error
	delivered []int64
	delay     time.Duration
	active    atomic.Int32
	peak      atomic.Int32
	panicOn   int64
}

func (f *fakeSender) Deliver(ctx context.Context, chatID int64, _ domain.Payload) error {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	if f.panicOn != 0 && chatID == f.panicOn {
		panic("transport exploded")
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := f.fail[chatID]; err != nil {
		return err
	}
	f.mu.Lock()
	f.delivered = append(f.delivered, chatID)
	f.mu.Unlock()
	return nil
}

func TestDispatchIsolatesFailures(t *testing.T) {
	sender := &fakeSender{fail: map[int64]error{2: errors.New("Forbidden: bot was blocked by the user")}}
	d := NewDispatcher(sender, 2, time.Second, zerolog.Nop())

	res := d.Dispatch(context.Background(), domain.Payload{Kind: domain.PayloadText, Text: "salom"}, []int64{1, 2, 3})
	if res.Delivered != 2 {
		t.Fatalf("Delivered = %d, want 2", res.Delivered)
	}
	if len(res.Failed) != 1 || res.Failed[0] != 2 {
		t.Fatalf("Failed = %v, want [2]", res.Failed)
	}
	if len(res.Outcomes) != 3 {
		t.Fatalf("every target must have an outcome, got %d", len(res.Outcomes))
	}
	for i, want := range []int64{1, 2, 3} {
		if res.Outcomes[i].UserID != want {
			t.Fatalf("outcome %d is for %d, want %d", i, res.Outcomes[i].UserID, want)
		}
	}
	if res.JobID == "" {
		t.Fatal("expected job id")
	}
}

func TestDispatchEmptyTargets(t *testing.T) {
	d := NewDispatcher(&fakeSender{}, 4, time.Second, zerolog.Nop())
	res := d.Dispatch(context.Background(), domain.Payload{Kind: domain.PayloadText, Text: "x"}, nil)
	if res.Delivered != 0 || len(res.Failed) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestDispatchRespectsWorkerLimit(t *testing.T) {
	sender := &fakeSender{delay: 20 * time.Millisecond}
	d := NewDispatcher(sender, 3, time.Second, zerolog.Nop())
	targets := make([]int64, 30)
	for i := range targets {
		targets[i] = int64(i + 1)
	}
	res := d.Dispatch(context.Background(), domain.Payload{Kind: domain.PayloadText, Text: "x"}, targets)
	if res.Delivered != len(targets) {
		t.Fatalf("Delivered = %d, want %d", res.Delivered, len(targets))
	}
	if peak := sender.peak.Load(); peak > 3 {
		t.Fatalf("concurrency peak %d exceeds limit 3", peak)
	}
}

func TestDispatchSendTimeoutIsPerTarget(t *testing.T) {
	sender := &fakeSender{delay: time.Second}
	d := NewDispatcher(sender, 2, 20*time.Millisecond, zerolog.Nop())
	res := d.Dispatch(context.Background(), domain.Payload{Kind: domain.PayloadText, Text: "x"}, []int64{10, 11})
	if res.Delivered != 0 || len(res.Failed) != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	for _, o := range res.Outcomes {
		if !errors.Is(o.Err, context.DeadlineExceeded) {
			t.Fatalf("expected deadline error, got %v", o.Err)
		}
	}
}

func TestDispatchRecoversFromPanics(t *testing.T) {
	sender := &fakeSender{panicOn: 5}
	d := NewDispatcher(sender, 1, time.Second, zerolog.Nop())
	res := d.Dispatch(context.Background(), domain.Payload{Kind: domain.PayloadText, Text: "x"}, []int64{4, 5, 6})
	if res.Delivered != 2 || len(res.Failed) != 1 || res.Failed[0] != 5 {
		t.Fatalf("unexpected result: %+v", res)
	}
}
