package ratelimiter

import (
	"net"
	"net/http"
	"sync"
	"time"
)

const (
	tokensKeyPrefix = "rl:tokens:"
	fillKeyPrefix   = "rl:fill:"
)

type Limiter interface {
	Allow(sourceKey string) bool
	Remaining(sourceKey string) int
	SourceKey(r *http.Request) string
	Burst() int
}

// tokenBucket is a classic refilling bucket per source key. Bucket
// state lives behind the Store interface so a shared backend can be
// dropped in without touching the algorithm.
type tokenBucket struct {
	ratePerMs float64
	burst     int
	store     Store
	ttl       time.Duration

	// Per-key locks so refill-and-take is atomic for each source.
	locks sync.Map // map[string]*sync.Mutex
}

type Options struct {
	PerSecond int
	Burst     int
	Store     Store
	TTL       time.Duration
}

func New(options Options) Limiter {
	if options.Store == nil {
		options.Store = NewMemoryStore()
	}
	if options.TTL == 0 {
		options.TTL = 10 * time.Second
	}
	if options.Burst <= 0 {
		options.Burst = options.PerSecond
	}

	return &tokenBucket{
		ratePerMs: float64(options.PerSecond) / 1000.0,
		burst:     options.Burst,
		store:     options.Store,
		ttl:       options.TTL,
	}
}

type bucketState struct {
	tokens   int64
	lastFill int64 // Unix milliseconds
}

func (tb *tokenBucket) lockFor(sourceKey string) *sync.Mutex {
	lock, _ := tb.locks.LoadOrStore(sourceKey, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func (tb *tokenBucket) state(sourceKey string) bucketState {
	tokens, tokensErr := tb.store.Get(tokensKeyPrefix + sourceKey)
	lastFill, fillErr := tb.store.Get(fillKeyPrefix + sourceKey)

	// Miss or backend trouble both fail open with a full bucket.
	if tokensErr != nil || fillErr != nil {
		return bucketState{
			tokens:   int64(tb.burst),
			lastFill: time.Now().UnixMilli(),
		}
	}

	return bucketState{tokens: tokens, lastFill: lastFill}
}

func (tb *tokenBucket) saveState(sourceKey string, state bucketState) {
	_ = tb.store.Set(tokensKeyPrefix+sourceKey, state.tokens, tb.ttl)
	_ = tb.store.Set(fillKeyPrefix+sourceKey, state.lastFill, tb.ttl)
}

func (tb *tokenBucket) refill(state bucketState, now int64) bucketState {
	elapsed := now - state.lastFill
	if elapsed <= 0 {
		return state
	}

	tokens := float64(state.tokens) + float64(elapsed)*tb.ratePerMs
	if tokens >= float64(tb.burst) {
		return bucketState{tokens: int64(tb.burst), lastFill: now}
	}

	return bucketState{tokens: int64(tokens), lastFill: now}
}

func (tb *tokenBucket) Allow(sourceKey string) bool {
	lock := tb.lockFor(sourceKey)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now().UnixMilli()
	state := tb.refill(tb.state(sourceKey), now)

	if state.tokens > 0 {
		state.tokens--
		tb.saveState(sourceKey, state)
		return true
	}

	tb.saveState(sourceKey, state)
	return false
}

func (tb *tokenBucket) Remaining(sourceKey string) int {
	lock := tb.lockFor(sourceKey)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now().UnixMilli()
	state := tb.refill(tb.state(sourceKey), now)
	tb.saveState(sourceKey, state)

	return int(state.tokens)
}

func (tb *tokenBucket) Burst() int {
	return tb.burst
}

// SourceKey buckets by client IP, ignoring the ephemeral port so a
// reconnecting client keeps a single bucket.
func (tb *tokenBucket) SourceKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
