// Package retry runs operations against datastores and the engine database
// with exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// Config defines retry behavior with exponential backoff.
type Config struct {
	MaxRetries       int
	InitialDelay     time.Duration
	MaxDelay         time.Duration
	Multiplier       float64
	JitterFactor     float64 // 0.0-1.0, +/- share of each delay
	MaxSameErrorType int     // consecutive same-type errors before DoIfRetryable gives up

	// OnRetry, when set, is called before each wait.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultConfig returns the defaults for import-log writes and store connects:
// 3 retries from 100ms, doubling, capped at 5s, with 10% jitter.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:       3,
		InitialDelay:     100 * time.Millisecond,
		MaxDelay:         5 * time.Second,
		Multiplier:       2.0,
		JitterFactor:     0.1,
		MaxSameErrorType: 5,
	}
}

func applyJitter(delay time.Duration, jitterFactor float64) time.Duration {
	if jitterFactor <= 0 {
		return delay
	}
	jitter := float64(delay) * jitterFactor * (rand.Float64()*2 - 1)
	return time.Duration(float64(delay) + jitter)
}

// errStop ends the loop early with the wrapped error.
type errStop struct{ err error }

func (e errStop) Error() string { return e.err.Error() }

// run calls fn until it succeeds, returns errStop, the retries run out or
// ctx is done.
func run(ctx context.Context, cfg *Config, fn func() error) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var lastErr error
	delay := cfg.InitialDelay
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		var stop errStop
		if errors.As(err, &stop) {
			return stop.err
		}
		lastErr = err

		if attempt == cfg.MaxRetries {
			break
		}
		wait := applyJitter(delay, cfg.JitterFactor)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err, wait)
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay = min(time.Duration(float64(delay)*cfg.Multiplier), cfg.MaxDelay)
	}
	return lastErr
}

// Do executes fn with exponential backoff and returns the last error once
// the retries are exhausted.
func Do(ctx context.Context, cfg *Config, fn func() error) error {
	return run(ctx, cfg, fn)
}

// DoWithResult is Do for functions that return a value, such as a
// connection open. The last result is returned even on error.
func DoWithResult[T any](ctx context.Context, cfg *Config, fn func() (T, error)) (T, error) {
	var result T
	err := run(ctx, cfg, func() error {
		r, err := fn()
		result = r
		return err
	})
	return result, err
}

// DoIfRetryable retries only transient errors. Permanent errors return
// immediately, and MaxSameErrorType consecutive errors of one type are
// escalated to permanent.
func DoIfRetryable(ctx context.Context, cfg *Config, fn func() error) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	sameErrorCount := 0
	lastErrorType := ""
	return run(ctx, cfg, func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return errStop{err}
		}

		errType := classifyErrorType(err)
		if errType == lastErrorType {
			sameErrorCount++
		} else {
			sameErrorCount, lastErrorType = 1, errType
		}
		if cfg.MaxSameErrorType > 0 && sameErrorCount >= cfg.MaxSameErrorType {
			return errStop{fmt.Errorf("repeated error (%d times, type=%s): %w", sameErrorCount, errType, err)}
		}
		return err
	})
}

// RetryableError is implemented by errors that declare their own retryability.
type RetryableError interface {
	error
	IsRetryable() bool
}

var retryablePatterns = []string{
	// network
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"timeout",
	"timed out",
	"temporary failure",
	"network is unreachable",
	"eof",
	// database servers
	"too many connections",
	"too many clients",
	"the database system is starting up",
	"server closed the connection",
	"bad connection",
	"deadlock",
	// http
	"429",
	"500",
	"502",
	"503",
	"504",
	"rate limit",
	"service unavailable",
	"too many requests",
}

// IsRetryable reports whether err looks transient. Errors implementing
// RetryableError decide for themselves; others are matched by message.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var r RetryableError
	if errors.As(err, &r) {
		return r.IsRetryable()
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range retryablePatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// classifyErrorType buckets an error for the repeated-error check.
func classifyErrorType(err error) string {
	msg := strings.ToLower(err.Error())

	for _, code := range []string{"503", "502", "504", "500", "429"} {
		if strings.Contains(msg, code) {
			return code
		}
	}
	switch {
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "server closed the connection"), strings.Contains(msg, "bad connection"):
		return "connection"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"):
		return "timeout"
	case strings.Contains(msg, "too many connections"), strings.Contains(msg, "too many clients"):
		return "capacity"
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "too many requests"):
		return "rate_limit"
	default:
		return "unknown"
	}
}
