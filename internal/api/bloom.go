package api

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/redis/go-redis/v9"
)

// bloomPositions derives k bit positions from FNV64a with an index
// perturbation, for redis GetBit/SetBit. m should be a power of two for an
// even spread; m and k trade false-positive rate against write cost.
func bloomPositions(data []byte, m uint32, k int) []int64 {
	pos := make([]int64, k)
	for i := 0; i < k; i++ {
		h := fnv.New64a()
		h.Write([]byte{byte(i)})
		h.Write(data)
		v := h.Sum64()
		pos[i] = int64(uint32(v % uint64(m)))
	}
	return pos
}

// bloomCheckAndSet marks a visitor in the short-window dedup bitmap.
// Returns true on first sight (bits written, count the visitor) and false
// when already present. A nil client or redis error counts as first sight so
// the lookup path is never blocked on dedup.
func bloomCheckAndSet(ctx context.Context, rc *redis.Client, key string, positions []int64, ttl time.Duration) (bool, error) {
	if rc == nil {
		return true, nil
	}
	seen := true
	for _, p := range positions {
		b, err := rc.GetBit(ctx, key, p).Result()
		if err != nil {
			return true, err
		}
		if b == 0 {
			seen = false
		}
	}
	if !seen {
		for _, p := range positions {
			_, _ = rc.SetBit(ctx, key, p, 1).Result()
		}
		_ = rc.Expire(ctx, key, ttl).Err()
		return true, nil
	}
	return false, nil
}
