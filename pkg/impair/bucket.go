package impair

import "time"

// tokenBucket gates emission to a byte rate. Refill runs lazily at every
// wait call based on elapsed wall time rather than a background ticker,
// since the impairment pipeline already has a natural call cadence from
// the profile worker.
type tokenBucket struct {
	capacity     float64
	refillPerSec float64
	balance      float64
	last         time.Time
}

func newTokenBucket(capBps uint64, bucketBytes uint64) *tokenBucket {
	return &tokenBucket{
		capacity:     float64(bucketBytes),
		refillPerSec: float64(capBps) / 8,
		balance:      float64(bucketBytes),
		last:         time.Now(),
	}
}

// wait returns the duration the caller must wait before cost bytes may
// be sent, refilling the bucket for elapsed time first. A zero result
// means the cost was already affordable and has been deducted.
func (b *tokenBucket) wait(cost int) time.Duration {
	now := time.Now()
	elapsed := now.Sub(b.last).Seconds()
	b.last = now

	b.balance += elapsed * b.refillPerSec
	if b.balance > b.capacity {
		b.balance = b.capacity
	}

	if b.balance >= float64(cost) {
		b.balance -= float64(cost)
		return 0
	}

	deficit := float64(cost) - b.balance
	b.balance = 0
	return time.Duration(deficit / b.refillPerSec * float64(time.Second))
}
