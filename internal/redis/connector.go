// Package redis opens the connection to the Redis registry backend.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/logger"
)

// ConnectOptions configures the client and the start-up retry policy.
type ConnectOptions struct {
	Addr           string        // ex: "localhost:6379"
	User           string        // optional
	Password       string        // optional
	RedisDB        int           // Redis DB number
	DialTimeout    time.Duration // Redis dial timeout
	ReadTimeout    time.Duration // Redis read timeout
	WriteTimeout   time.Duration // Redis write timeout
	PoolSize       int           // Redis connection pool size
	ConnectTimeout time.Duration // total time allowed for connection attempts (ex: 30s)
	RetryInterval  time.Duration // first wait between attempts, doubled each time (ex: 2s)
	MaxWait        time.Duration // cap of the wait between attempts (ex: 10s)
	PingTimeout    time.Duration // timeout of each ping (ex: 2s)
	WarnThreshold  int           // attempts logged at warn level before switching to error
}

// Validate checks the retry policy.
func (o ConnectOptions) Validate() error {
	switch {
	case o.Addr == "":
		return fmt.Errorf("redis address is required")
	case o.ConnectTimeout <= 0:
		return fmt.Errorf("ConnectTimeout must be > 0, got %v", o.ConnectTimeout)
	case o.RetryInterval <= 0:
		return fmt.Errorf("RetryInterval must be > 0, got %v", o.RetryInterval)
	case o.MaxWait <= 0:
		return fmt.Errorf("MaxWait must be > 0, got %v", o.MaxWait)
	case o.PingTimeout <= 0:
		return fmt.Errorf("PingTimeout must be > 0, got %v", o.PingTimeout)
	case o.WarnThreshold < 0:
		return fmt.Errorf("WarnThreshold must be >= 0, got %d", o.WarnThreshold)
	}
	return nil
}

// New creates a client and pings it until it answers or ConnectTimeout
// elapses. The wait between pings doubles up to MaxWait.
func New(ctx context.Context, opts ConnectOptions, log logger.Logger) (*redis.Client, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid redis options: %w", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Username:     opts.User,
		Password:     opts.Password,
		DB:           opts.RedisDB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolSize:     opts.PoolSize,
	})

	log = log.With(logger.String("addr", opts.Addr))
	if err := waitReady(ctx, client, opts, log); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func waitReady(ctx context.Context, client *redis.Client, opts ConnectOptions, log logger.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	log.Info("connecting to redis registry",
		logger.Duration("timeout", opts.ConnectTimeout))

	started := time.Now()
	wait := opts.RetryInterval
	for attempt := 1; ; attempt++ {
		pingCtx, pingCancel := context.WithTimeout(ctx, opts.PingTimeout)
		err := client.Ping(pingCtx).Err()
		pingCancel()

		if err == nil {
			if attempt > 1 {
				log.Warn("connected to redis registry after retry",
					logger.Int("attempts", attempt),
					logger.Duration("elapsed", time.Since(started)))
			} else {
				log.Info("connected to redis registry")
			}
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Error("redis registry unavailable, giving up",
				logger.Int("attempts", attempt),
				logger.Duration("timeout", opts.ConnectTimeout),
				logger.Error(err))
			return fmt.Errorf("redis unavailable at %s after %d attempts: %w", opts.Addr, attempt, err)
		case <-timer.C:
		}

		fields := []logger.Field{
			logger.Int("attempt", attempt),
			logger.Duration("next_retry_in", wait),
			logger.Error(err),
		}
		if attempt <= opts.WarnThreshold {
			log.Warn("redis connection failed, retrying", fields...)
		} else {
			log.Error("redis still unavailable, retrying", fields...)
		}

		wait = nextWait(wait, opts.MaxWait)
	}
}

// nextWait doubles wait, capped at maxWait.
func nextWait(wait, maxWait time.Duration) time.Duration {
	wait *= 2
	if wait > maxWait {
		return maxWait
	}
	return wait
}
