package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/logger"
)

func testOptions(addr string) ConnectOptions {
	return ConnectOptions{
		Addr:           addr,
		DialTimeout:    100 * time.Millisecond,
		ReadTimeout:    100 * time.Millisecond,
		WriteTimeout:   100 * time.Millisecond,
		PoolSize:       2,
		ConnectTimeout: 300 * time.Millisecond,
		RetryInterval:  20 * time.Millisecond,
		MaxWait:        50 * time.Millisecond,
		PingTimeout:    50 * time.Millisecond,
		WarnThreshold:  1,
	}
}

func TestNewConnects(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := New(context.Background(), testOptions(mr.Addr()), logger.New("error", false))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer client.Close()

	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Errorf("ping after connect: %v", err)
	}
}

func TestNewGivesUpAfterTimeout(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	start := time.Now()
	_, err := New(context.Background(), testOptions(addr), logger.New("error", false))
	if err == nil {
		t.Fatal("expected error for unreachable redis")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("gave up after %v, want about the connect timeout", elapsed)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ConnectOptions)
	}{
		{"missing addr", func(o *ConnectOptions) { o.Addr = "" }},
		{"connect timeout", func(o *ConnectOptions) { o.ConnectTimeout = 0 }},
		{"retry interval", func(o *ConnectOptions) { o.RetryInterval = 0 }},
		{"max wait", func(o *ConnectOptions) { o.MaxWait = -1 }},
		{"ping timeout", func(o *ConnectOptions) { o.PingTimeout = 0 }},
		{"warn threshold", func(o *ConnectOptions) { o.WarnThreshold = -1 }},
	}

	if err := testOptions("localhost:6379").Validate(); err != nil {
		t.Fatalf("valid options rejected: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions("localhost:6379")
			tt.mutate(&opts)
			if err := opts.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestNextWait(t *testing.T) {
	tests := []struct {
		wait, max, want time.Duration
	}{
		{time.Second, 10 * time.Second, 2 * time.Second},
		{4 * time.Second, 10 * time.Second, 8 * time.Second},
		{8 * time.Second, 10 * time.Second, 10 * time.Second},
		{10 * time.Second, 10 * time.Second, 10 * time.Second},
	}

	for _, tt := range tests {
		if got := nextWait(tt.wait, tt.max); got != tt.want {
			t.Errorf("nextWait(%v, %v) = %v, want %v", tt.wait, tt.max, got, tt.want)
		}
	}
}
