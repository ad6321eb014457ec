package membership

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tg-content-bot/internal/domain"
)

type answer struct {
	status domain.MemberStatus
	err    error
}

type fakeOracle struct {
	mu      sync.Mutex
	answers map[string]answer
	queried []string
	delay   time.Duration
}

func (f *fakeOracle) MemberStatus(ctx context.Context, ch domain.Channel, _ int64) (domain.MemberStatus, error) {
	f.mu.Lock()
	f.queried = append(f.queried, ch.Username)
	a, ok := f.answers[ch.Username]
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if !ok {
		return domain.MemberLeft, nil
	}
	return a.status, a.err
}

func channels(names ...string) []domain.Channel {
	list := make([]domain.Channel, 0, len(names))
	for _, n := range names {
		list = append(list, domain.Channel{Username: n})
	}
	return list
}

func TestIsSubscribedEmptySet(t *testing.T) {
	oracle := &fakeOracle{}
	gate := NewGate(oracle, time.Second, zerolog.Nop())
	if !gate.IsSubscribed(context.Background(), 1, nil) {
		t.Fatal("empty channel set must be vacuously true")
	}
	if len(oracle.queried) != 0 {
		t.Fatalf("oracle must not be queried, got %v", oracle.queried)
	}
}

func TestIsSubscribedFailClosed(t *testing.T) {
	oracle := &fakeOracle{answers: map[string]answer{
		"chan_a": {status: domain.MemberMember},
		"chan_b": {err: errors.New("bad request: chat not found")},
		"chan_c": {status: domain.MemberMember},
	}}
	gate := NewGate(oracle, time.Second, zerolog.Nop())
	if gate.IsSubscribed(context.Background(), 7, channels("chan_a", "chan_b", "chan_c")) {
		t.Fatal("oracle error must be treated as not subscribed")
	}
	if len(oracle.queried) != 2 || oracle.queried[0] != "chan_a" || oracle.queried[1] != "chan_b" {
		t.Fatalf("unexpected query order: %v", oracle.queried)
	}
}

func TestIsSubscribedStatuses(t *testing.T) {
	tests := []struct {
		name   string
		status domain.MemberStatus
		want   bool
	}{
		{name: "member", status: domain.MemberMember, want: true},
		{name: "admin", status: domain.MemberAdministrator, want: true},
		{name: "owner", status: domain.MemberCreator, want: true},
		{name: "left", status: domain.MemberLeft, want: false},
		{name: "kicked", status: domain.MemberKicked, want: false},
		{name: "restricted", status: domain.MemberRestricted, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oracle := &fakeOracle{answers: map[string]answer{
				"chan_a": {status: domain.MemberMember},
				"chan_b": {status: tt.status},
			}}
			gate := NewGate(oracle, time.Second, zerolog.Nop())
			if got := gate.IsSubscribed(context.Background(), 1, channels("chan_a", "chan_b")); got != tt.want {
				t.Fatalf("IsSubscribed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckTimeoutIsLocalFailure(t *testing.T) {
	oracle := &fakeOracle{delay: time.Second, answers: map[string]answer{"slow_chan": {status: domain.MemberMember}}}
	gate := NewGate(oracle, 20*time.Millisecond, zerolog.Nop())
	checks := gate.Check(context.Background(), 1, channels("slow_chan"))
	if len(checks) != 1 || !errors.Is(checks[0].Err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %+v", checks)
	}
	if Reduce(checks) {
		t.Fatal("timeout must fail closed")
	}
}

func TestReduce(t *testing.T) {
	ok := ChannelCheck{Status: domain.MemberMember}
	denied := ChannelCheck{Status: domain.MemberLeft}
	failed := ChannelCheck{Status: domain.MemberMember, Err: errors.New("timeout")}
	cases := []struct {
		name   string
		checks []ChannelCheck
		want   bool
	}{
		{name: "empty", checks: nil, want: true},
		{name: "all members", checks: []ChannelCheck{ok, ok}, want: true},
		{name: "one denied", checks: []ChannelCheck{ok, denied}, want: false},
		{name: "error masks status", checks: []ChannelCheck{failed, ok}, want: false},
	}
	for _, tc := range cases {
		if got := Reduce(tc.checks); got != tc.want {
			t.Fatalf("%s: Reduce = %v, want %v", tc.name, got, tc.want)
		}
	}
}

type countingOracle struct {
	calls  int
	status domain.MemberStatus
	err    error
}

func (c *countingOracle) MemberStatus(context.Context, domain.Channel, int64) (domain.MemberStatus, error) {
	c.calls++
	return c.status, c.err
}

func TestCachedOracleCachesOnlyMembers(t *testing.T) {
	ctx := context.Background()
	ch := domain.Channel{Username: "chan_a"}

	member := &countingOracle{status: domain.MemberMember}
	cached := NewCachedOracle(member, 16, time.Minute)
	for i := 0; i < 3; i++ {
		if status, err := cached.MemberStatus(ctx, ch, 1); err != nil || status != domain.MemberMember {
			t.Fatalf("MemberStatus = %v, %v", status, err)
		}
	}
	if member.calls != 1 {
		t.Fatalf("member answer must be cached, calls = %d", member.calls)
	}

	left := &countingOracle{status: domain.MemberLeft}
	cached = NewCachedOracle(left, 16, time.Minute)
	_, _ = cached.MemberStatus(ctx, ch, 1)
	_, _ = cached.MemberStatus(ctx, ch, 1)
	if left.calls != 2 {
		t.Fatalf("non-member answer must not be cached, calls = %d", left.calls)
	}

	failing := &countingOracle{status: domain.MemberMember, err: errors.New("network")}
	cached = NewCachedOracle(failing, 16, time.Minute)
	_, _ = cached.MemberStatus(ctx, ch, 1)
	if _, err := cached.MemberStatus(ctx, ch, 1); err == nil || failing.calls != 2 {
		t.Fatalf("errors must not be cached, calls = %d err = %v", failing.calls, err)
	}
}
