package ratelimit

import (
	"sync"
	"time"
)

// Limiter caps query submissions per client in fixed windows.
// A rate of zero or less refuses every submission.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	rate    int
	length  time.Duration
	onDrop  func(key string)
	done    chan struct{}
	once    sync.Once
}

type window struct {
	remaining int
	start     time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithDropObserver registers fn to be called for every refused submission.
func WithDropObserver(fn func(key string)) Option {
	return func(l *Limiter) { l.onDrop = fn }
}

// New creates a Limiter allowing rate submissions per window length.
func New(rate int, length time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		windows: make(map[string]*window),
		rate:    rate,
		length:  length,
		onDrop:  func(string) {},
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}

	go l.cleanup()

	return l
}

// Close stops the background cleanup goroutine.
func (l *Limiter) Close() {
	l.once.Do(func() { close(l.done) })
}

// Allow consumes one submission for key. When it returns false the second
// value is how long until the window for key resets.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()

	now := time.Now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.length {
		w = &window{remaining: l.rate, start: now}
		l.windows[key] = w
	}

	if w.remaining > 0 {
		w.remaining--
		l.mu.Unlock()
		return true, 0
	}
	wait := l.length - now.Sub(w.start)
	l.mu.Unlock()

	l.onDrop(key)
	return false, wait
}

// cleanup periodically removes windows no client has touched recently.
func (l *Limiter) cleanup() {
	interval := 5 * time.Minute
	if l.length > 0 && l.length < interval {
		interval = l.length
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.mu.Lock()
			now := time.Now()
			for key, w := range l.windows {
				if now.Sub(w.start) > 2*l.length {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		case <-l.done:
			return
		}
	}
}
