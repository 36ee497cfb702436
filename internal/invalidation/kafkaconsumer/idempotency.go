package kafkaconsumer

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// seqDedupe drops replayed or reordered events: per source, only a
// sequence number greater than the last seen one is applied.
type seqDedupe struct {
	mu  sync.Mutex
	lru *lru.Cache[string, uint64]
}

func newSeqDedupe(size int) *seqDedupe {
	if size <= 0 {
		size = 4096
	}
	c, _ := lru.New[string, uint64](size)
	return &seqDedupe{lru: c}
}

func (d *seqDedupe) shouldApply(source string, seq uint64) bool {
	if source == "" || seq == 0 {
		// unsequenced events are always applied
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if last, ok := d.lru.Get(source); ok && seq <= last {
		return false
	}
	d.lru.Add(source, seq)
	return true
}
