package middleware

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type keyLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalLimiter keeps one token bucket per key in process memory. A bucket
// holds max tokens and refills max per window. Buckets idle for longer than
// two windows are dropped on the next Take.
type LocalLimiter struct {
	max     int
	window  time.Duration
	mu      sync.Mutex
	buckets map[string]*keyLimiter
	swept   time.Time
	now     func() time.Time
}

func NewLocalLimiter(max int, window time.Duration) *LocalLimiter {
	return &LocalLimiter{
		max:     max,
		window:  window,
		buckets: make(map[string]*keyLimiter),
		now:     time.Now,
	}
}

func (l *LocalLimiter) Take(_ context.Context, key string) (Decision, error) {
	now := l.now()

	l.mu.Lock()
	l.sweep(now)
	b, ok := l.buckets[key]
	if !ok {
		every := rate.Every(l.window / time.Duration(l.max))
		b = &keyLimiter{limiter: rate.NewLimiter(every, l.max)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	allowed := b.limiter.AllowN(now, 1)
	tokens := b.limiter.TokensAt(now)
	d := Decision{Allowed: allowed, Limit: l.max, Remaining: max(int(tokens), 0)}
	if tokens < 1 {
		// time until the next whole token
		d.Reset = time.Duration((1 - tokens) / float64(b.limiter.Limit()) * float64(time.Second))
	}
	return d, nil
}

// sweep drops idle buckets at most once per window. Callers hold l.mu.
func (l *LocalLimiter) sweep(now time.Time) {
	if now.Sub(l.swept) < l.window {
		return
	}
	l.swept = now
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) > 2*l.window {
			delete(l.buckets, k)
		}
	}
}
