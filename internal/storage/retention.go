package storage

import (
	"sync"
	"time"
)

// retentionCleaner sweeps every registered partition on an interval,
// deleting segments that violate their partition's age or byte bounds and
// evicting them from the shared segment cache.
type retentionCleaner struct {
	mu         sync.Mutex
	partitions []*partition
	cache      *segmentCache
	interval   time.Duration
	stopCh     chan struct{}
	wg         sync.WaitGroup
}

func newRetentionCleaner(intervalMs int64, cache *segmentCache) *retentionCleaner {
	return &retentionCleaner{
		cache:    cache,
		interval: time.Duration(intervalMs) * time.Millisecond,
		stopCh:   make(chan struct{}),
	}
}

func (rc *retentionCleaner) Register(p *partition) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.partitions = append(rc.partitions, p)
}

func (rc *retentionCleaner) Start() {
	rc.wg.Add(1)
	go rc.run()
}

func (rc *retentionCleaner) run() {
	defer rc.wg.Done()

	ticker := time.NewTicker(rc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rc.sweep()
		case <-rc.stopCh:
			return
		}
	}
}

func (rc *retentionCleaner) sweep() {
	rc.mu.Lock()
	partitions := make([]*partition, len(rc.partitions))
	copy(partitions, rc.partitions)
	rc.mu.Unlock()

	now := time.Now()
	for _, p := range partitions {
		removed, err := p.DeleteOldSegments(now)
		if err != nil {
			continue
		}
		for _, base := range removed {
			rc.cache.Evict(p.cacheKey(base))
		}
	}
}

func (rc *retentionCleaner) Stop() {
	close(rc.stopCh)
	rc.wg.Wait()
}
