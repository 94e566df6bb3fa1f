package server

import (
	"container/list"
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/livetemplate/lessonview/internal/config"
)

// Learner traffic is throttled in two places with the same rate and burst:
// HTTP requests per client address, and table actions per websocket
// connection.

const (
	// idleAddressTTL is how long an address keeps its bucket without requests.
	idleAddressTTL = 10 * time.Minute
	// sweepInterval is how often idle addresses are dropped.
	sweepInterval = 5 * time.Minute
	// forgetLogInterval is the minimum time between "addresses forgotten" logs.
	forgetLogInterval = 30 * time.Second
)

// limitPolicy is the token bucket shape shared by both throttles.
type limitPolicy struct {
	limit rate.Limit
	burst int
}

func newLimitPolicy(cfg config.RateLimitConfig) limitPolicy {
	return limitPolicy{
		limit: rate.Limit(cfg.GetRequestsPerSecond()),
		burst: cfg.GetBurst(),
	}
}

func (p limitPolicy) newLimiter() *rate.Limiter {
	return rate.NewLimiter(p.limit, p.burst)
}

type addressBucket struct {
	addr   string
	bucket *rate.Limiter
	seen   time.Time
}

// addressLimiters holds one bucket per client address. Once capacity is
// reached the least recently seen address is forgotten, so a returning
// address starts with a full bucket.
type addressLimiters struct {
	policy   limitPolicy
	capacity int
	log      *zap.Logger

	mu       sync.Mutex
	entries  map[string]*list.Element
	recency  *list.List // front is most recent
	forgot   int
	reported time.Time
}

func newAddressLimiters(policy limitPolicy, capacity int, logger *zap.Logger) *addressLimiters {
	if capacity <= 0 {
		capacity = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &addressLimiters{
		policy:   policy,
		capacity: capacity,
		log:      logger,
		entries:  make(map[string]*list.Element),
		recency:  list.New(),
	}
}

// allow takes a token from addr's bucket at time now.
func (a *addressLimiters) allow(addr string, now time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	elem, ok := a.entries[addr]
	if ok {
		a.recency.MoveToFront(elem)
	} else {
		if a.recency.Len() >= a.capacity {
			a.forgetOldest(now)
		}
		elem = a.recency.PushFront(&addressBucket{addr: addr, bucket: a.policy.newLimiter()})
		a.entries[addr] = elem
	}
	entry := elem.Value.(*addressBucket)
	entry.seen = now
	return entry.bucket.AllowN(now, 1)
}

// forgetOldest must be called with mu held.
func (a *addressLimiters) forgetOldest(now time.Time) {
	back := a.recency.Back()
	if back == nil {
		return
	}
	a.recency.Remove(back)
	delete(a.entries, back.Value.(*addressBucket).addr)

	a.forgot++
	if now.Sub(a.reported) >= forgetLogInterval {
		a.log.Info("forgot least recent addresses",
			zap.Int("forgotten", a.forgot),
			zap.Int("capacity", a.capacity))
		a.reported = now
		a.forgot = 0
	}
}

// sweep drops addresses idle for longer than idleAddressTTL and reports how
// many it dropped. Recency order is by last request, which matches seen, so
// the walk stops at the first fresh entry.
func (a *addressLimiters) sweep(now time.Time) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	dropped := 0
	for e := a.recency.Back(); e != nil; {
		entry := e.Value.(*addressBucket)
		if now.Sub(entry.seen) <= idleAddressTTL {
			break
		}
		prev := e.Prev()
		a.recency.Remove(e)
		delete(a.entries, entry.addr)
		dropped++
		e = prev
	}
	return dropped
}

func (a *addressLimiters) tracked() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recency.Len()
}

// sweepEvery sweeps until ctx is cancelled. The returned channel closes once
// the sweeping goroutine has exited.
func (a *addressLimiters) sweepEvery(ctx context.Context, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				if n := a.sweep(now); n > 0 {
					a.log.Debug("dropped idle addresses", zap.Int("dropped", n))
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return done
}

// middleware answers 429 once an address has used up its bucket. The
// websocket upgrade counts as one request.
func (a *addressLimiters) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr := clientAddress(r)
		if !a.allow(addr, time.Now()) {
			a.log.Debug("request throttled", zap.String("addr", addr), zap.String("path", r.URL.Path))
			w.Header().Set("Retry-After", "1")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
