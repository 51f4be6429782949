package summarizer

import (
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	jitterMinUnits = 1
	jitterMaxUnits = 5
)

// jitterBackOff yields base*2^r + U[1,5)*base for the r-th retry (1-indexed).
type jitterBackOff struct {
	base    time.Duration
	retries int
	rand    func() float64
}

var _ backoff.BackOff = (*jitterBackOff)(nil)

func newJitterBackOff(base time.Duration, rnd func() float64) *jitterBackOff {
	if rnd == nil {
		rnd = rand.Float64
	}
	return &jitterBackOff{base: base, rand: rnd}
}

func (b *jitterBackOff) NextBackOff() time.Duration {
	b.retries++
	return b.delay(b.retries)
}

func (b *jitterBackOff) Reset() {
	b.retries = 0
}

func (b *jitterBackOff) delay(retry int) time.Duration {
	exp := b.base * time.Duration(1<<uint(retry))
	units := jitterMinUnits + b.rand()*(jitterMaxUnits-jitterMinUnits)
	return exp + time.Duration(units*float64(b.base))
}
