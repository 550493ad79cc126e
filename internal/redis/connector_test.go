package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
)

type flakyPinger struct {
	failures int
	calls    int
}

func (p *flakyPinger) Ping(ctx context.Context) *redis.StatusCmd {
	p.calls++
	cmd := redis.NewStatusCmd(ctx, "ping")
	if p.calls <= p.failures {
		cmd.SetErr(errors.New("connection refused"))
		return cmd
	}
	cmd.SetVal("PONG")
	return cmd
}

func testOptions() ConnectOptions {
	return ConnectOptions{
		Addr:           "127.0.0.1:6379",
		ConnectTimeout: time.Second,
		RetryInterval:  time.Millisecond,
		MaxWait:        4 * time.Millisecond,
		PingTimeout:    50 * time.Millisecond,
		WarnThreshold:  1,
	}
}

func TestWaitReadyRetriesUntilPong(t *testing.T) {
	p := &flakyPinger{failures: 3}
	if err := waitReady(context.Background(), p, testOptions(), logger.NewNop()); err != nil {
		t.Fatalf("waitReady() error = %v", err)
	}
	if p.calls != 4 {
		t.Errorf("ping calls = %d, want 4", p.calls)
	}
}

func TestWaitReadyGivesUp(t *testing.T) {
	opts := testOptions()
	opts.ConnectTimeout = 20 * time.Millisecond

	p := &flakyPinger{failures: 1 << 30}
	err := waitReady(context.Background(), p, opts, logger.NewNop())
	if err == nil {
		t.Fatal("waitReady() should fail when redis never answers")
	}
	if p.calls < 2 {
		t.Errorf("ping calls = %d, want several attempts", p.calls)
	}
}

func TestNextWait(t *testing.T) {
	tests := []struct {
		cur, max, want time.Duration
	}{
		{time.Second, 10 * time.Second, 2 * time.Second},
		{4 * time.Second, 5 * time.Second, 5 * time.Second},
		{5 * time.Second, 5 * time.Second, 5 * time.Second},
	}
	for _, tt := range tests {
		if got := nextWait(tt.cur, tt.max); got != tt.want {
			t.Errorf("nextWait(%v, %v) = %v, want %v", tt.cur, tt.max, got, tt.want)
		}
	}
}

func TestConnectRejectsInvalidOptions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ConnectOptions)
	}{
		{"empty addr", func(o *ConnectOptions) { o.Addr = "" }},
		{"zero connect timeout", func(o *ConnectOptions) { o.ConnectTimeout = 0 }},
		{"zero retry interval", func(o *ConnectOptions) { o.RetryInterval = 0 }},
		{"zero max wait", func(o *ConnectOptions) { o.MaxWait = 0 }},
		{"zero ping timeout", func(o *ConnectOptions) { o.PingTimeout = 0 }},
		{"negative warn threshold", func(o *ConnectOptions) { o.WarnThreshold = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			tt.mutate(&opts)
			if _, err := Connect(context.Background(), opts, logger.NewNop()); err == nil {
				t.Error("Connect() should reject invalid options")
			}
		})
	}
}
