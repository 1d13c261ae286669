// Package storage provides the key-value blob stores the progress engine
// persists its profile through. Values are opaque strings (JSON in practice);
// the stores carry no knowledge of what they hold.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	// LegacyProfileKey holds the simple profile written by older app builds.
	// The engine never writes it.
	LegacyProfileKey = "userProgress"

	// ProfileKey holds the enhanced profile owned by the progress engine.
	ProfileKey = "enhancedUserProgress"
)

// ErrClosed is returned by stores that have been closed.
var ErrClosed = errors.New("storage closed")

// KV is a get/set blob store addressed by string keys. A missing key is
// reported as found == false, never as an error.
type KV interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// timeoutKV bounds every call to the wrapped store. Calls run one at a
// time: a call that timed out still holds the store until the wrapped call
// returns, so a later write can never be overtaken by an abandoned one.
type timeoutKV struct {
	next    KV
	timeout time.Duration
	sem     chan struct{}
}

// WithTimeout wraps kv so that each call runs under a deadline of d.
// A non-positive d returns kv unchanged.
func WithTimeout(kv KV, d time.Duration) KV {
	if d <= 0 {
		return kv
	}
	return &timeoutKV{next: kv, timeout: d, sem: make(chan struct{}, 1)}
}

// acquire waits for the previous call to finish or for ctx to expire.
func (t *timeoutKV) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case t.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *timeoutKV) release() { <-t.sem }

func (t *timeoutKV) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	if err := t.acquire(ctx); err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}

	type result struct {
		value string
		found bool
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		defer t.release()
		v, ok, err := t.next.Get(ctx, key)
		ch <- result{v, ok, err}
	}()

	select {
	case r := <-ch:
		return r.value, r.found, r.err
	case <-ctx.Done():
		return "", false, fmt.Errorf("get %q: %w", key, ctx.Err())
	}
}

func (t *timeoutKV) Set(ctx context.Context, key, value string) error {
	return t.run(ctx, "set", key, func(ctx context.Context) error {
		return t.next.Set(ctx, key, value)
	})
}

func (t *timeoutKV) Delete(ctx context.Context, key string) error {
	return t.run(ctx, "delete", key, func(ctx context.Context) error {
		return t.next.Delete(ctx, key)
	})
}

func (t *timeoutKV) run(ctx context.Context, op, key string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	if err := t.acquire(ctx); err != nil {
		return fmt.Errorf("%s %q: %w", op, key, err)
	}

	ch := make(chan error, 1)
	go func() {
		defer t.release()
		ch <- fn(ctx)
	}()

	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return fmt.Errorf("%s %q: %w", op, key, ctx.Err())
	}
}
