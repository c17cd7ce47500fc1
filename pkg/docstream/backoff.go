package docstream

import "time"

// Backoff defaults, tuned for a struggling generation backend: quick first
// retry, slow ceiling, no retry limit.
const (
	DefaultBackoffBase   = 300 * time.Millisecond
	DefaultBackoffCap    = 5 * time.Second
	DefaultBackoffFactor = 1.5
)

// Backoff computes exponential reconnect delays. The zero value uses the
// defaults above. The current delay grows by Factor after each Next call and
// never exceeds Cap; it goes back to Base only on Reset. Receiving a message
// does not reset it — that is the caller's call, to avoid connection storms
// against a backend that accepts connections and immediately drops them.
type Backoff struct {
	Base   time.Duration
	Cap    time.Duration
	Factor float64

	cur time.Duration
}

// Next returns the delay to wait before the next attempt and advances the
// internal state.
func (b *Backoff) Next() time.Duration {
	base, cap_, factor := b.params()
	if b.cur == 0 {
		b.cur = base
	}
	d := b.cur
	b.cur = time.Duration(float64(b.cur) * factor)
	if b.cur > cap_ {
		b.cur = cap_
	}
	return d
}

// Reset returns the delay to its base value.
func (b *Backoff) Reset() {
	b.cur = 0
}

func (b *Backoff) params() (base, cap_ time.Duration, factor float64) {
	base, cap_, factor = b.Base, b.Cap, b.Factor
	if base <= 0 {
		base = DefaultBackoffBase
	}
	if cap_ <= 0 {
		cap_ = DefaultBackoffCap
	}
	if factor <= 1 {
		factor = DefaultBackoffFactor
	}
	return
}
