package usage

import (
	"context"
	"hash/fnv"
	"sync"
)

// shardCount spreads counters over independent locks so unrelated
// (key, day) pairs rarely contend.
const shardCount = 32

type counterID struct {
	key string
	day Day
}

type shard struct {
	mu       sync.Mutex
	counters map[counterID]int64
}

// MemoryLedger is an in-process Ledger.
type MemoryLedger struct {
	shards [shardCount]*shard
}

// NewMemoryLedger returns an empty MemoryLedger.
func NewMemoryLedger() *MemoryLedger {
	l := &MemoryLedger{}
	for i := range l.shards {
		l.shards[i] = &shard{counters: make(map[counterID]int64)}
	}
	return l
}

func (l *MemoryLedger) IncrementAndGet(ctx context.Context, key string, day Day) (int64, error) {
	if key == "" {
		return 0, ErrBlankKey
	}
	if day == "" {
		return 0, ErrInvalidDay
	}

	id := counterID{key: key, day: day}
	s := l.shardFor(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters[id]++
	return s.counters[id], nil
}

func (l *MemoryLedger) Count(ctx context.Context, key string, day Day) (int64, error) {
	id := counterID{key: key, day: day}
	s := l.shardFor(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.counters[id], nil
}

func (l *MemoryLedger) shardFor(id counterID) *shard {
	h := fnv.New32a()
	h.Write([]byte(id.key))
	h.Write([]byte{0})
	h.Write([]byte(id.day))
	return l.shards[h.Sum32()%shardCount]
}
