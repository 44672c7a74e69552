package middleware

// inflight.go bounds how many registrations are processed at once.
//
// Each request takes a semaphore slot for the whole handler call. When all
// slots are busy a request waits up to maxWait, then fails with
// ErrTooManyRegistrations (503). Close stops new requests from taking a
// slot and WaitForDrain lets shutdown wait for the writes already in
// progress.

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// ErrTooManyRegistrations is returned when no slot frees up within maxWait.
var ErrTooManyRegistrations = errors.New("too many registrations in progress, please try again later")

// ErrShuttingDown is returned by Acquire after Close.
var ErrShuttingDown = errors.New("server is shutting down")

// Defaults used when NewInFlight gets non-positive values.
const (
	DefaultMaxInFlight = 32
	DefaultMaxWait     = 2 * time.Second
)

// InFlight limits concurrent registrations with a semaphore.
type InFlight struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
	closed bool
}

// NewInFlight allows at most max concurrent requests, each waiting up to
// maxWait for a slot.
func NewInFlight(max int, maxWait time.Duration) *InFlight {
	if max <= 0 {
		max = DefaultMaxInFlight
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return &InFlight{
		semaphore: make(chan struct{}, max),
		maxWait:   maxWait,
	}
}

// Acquire takes a slot, waiting up to maxWait. It returns ctx.Err() if ctx
// ends first. The caller must Release a slot it acquired.
func (l *InFlight) Acquire(ctx context.Context) error {
	if l.isClosed() {
		return ErrShuttingDown
	}

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		if l.closed {
			l.mu.Unlock()
			<-l.semaphore
			return ErrShuttingDown
		}
		l.active++
		l.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyRegistrations
	}
}

// Release returns a slot taken by Acquire.
func (l *InFlight) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()
	<-l.semaphore
}

// Close makes every later Acquire fail with ErrShuttingDown. Slots
// already held are unaffected.
func (l *InFlight) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
}

func (l *InFlight) isClosed() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.closed
}

// ActiveCount returns the number of requests holding a slot.
func (l *InFlight) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// WaitForDrain blocks until no request holds a slot or ctx ends.
func (l *InFlight) WaitForDrain(ctx context.Context) error {
	if l.ActiveCount() == 0 {
		return nil
	}

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if l.ActiveCount() == 0 {
				return nil
			}
		}
	}
}

// InFlightStatus is a snapshot of the limiter for /readyz.
type InFlightStatus struct {
	Active      int `json:"active"`
	Available   int `json:"available"`
	MaxInFlight int `json:"max_in_flight"`
}

// Status returns the current limiter state.
func (l *InFlight) Status() InFlightStatus {
	l.mu.RLock()
	active := l.active
	l.mu.RUnlock()

	return InFlightStatus{
		Active:      active,
		Available:   cap(l.semaphore) - len(l.semaphore),
		MaxInFlight: cap(l.semaphore),
	}
}

// Middleware holds a slot for the duration of next. Requests that cannot
// get one receive 503 with Retry-After.
func (l *InFlight) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := l.Acquire(r.Context()); err != nil {
			if errors.Is(err, ErrTooManyRegistrations) {
				w.Header().Set("Retry-After", strconv.Itoa(retrySeconds(l.maxWait)))
			}
			writeError(w, r, http.StatusServiceUnavailable, err)
			return
		}
		defer l.Release()

		next.ServeHTTP(w, r)
	})
}
