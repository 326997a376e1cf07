// Package storage is a single-node, file-backed implementation of the
// broker's Storage interface (spec.md §6): topic/partition management,
// record-batch persistence on an mmap'd append-only log with a sparse
// offset index, retention, and the minimal producer-id/transaction state
// a single-node broker needs to answer the transactional APIs.
package storage

import (
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shake-karrot/kafkabroker/internal/domain"
	"github.com/shake-karrot/kafkabroker/internal/kerr"
)

// domainError pairs a Kafka error code with a Go error so it satisfies
// both the `error` interface and kerr.FromDomainError's KafkaCode hook.
type domainError struct {
	code kerr.Code
}

func (e domainError) Error() string         { return e.code.Name }
func (e domainError) KafkaCode() kerr.Code  { return e.code }

func errFromCode(c kerr.Code) error { return domainError{code: c} }

// topic is one topic's partition set and config.
type topic struct {
	name       string
	partitions []*partition
	configs    map[string]string
}

// txnState is the minimal bookkeeping InitProducerId/AddPartitionsToTxn/
// AddOffsetsToTxn/TxnOffsetCommit/EndTxn need on a single node: which
// topic-partitions and consumer group are part of the in-flight
// transaction, and the pending offset commits it will make visible (or
// discard) on EndTxn.
type txnState struct {
	producerID    int64
	producerEpoch int16
	partitions    map[domain.Topition]bool
	group         string
	pendingOffsets map[domain.Topition]domain.OffsetAndMetadata
}

// Store is the broker's in-process Storage implementation. A *Store is a
// cheap handle: all mutable state lives behind its own mutexes, so it is
// safe to share across every connection task.
type Store struct {
	mu sync.RWMutex

	cfg   Config
	cache *segmentCache
	rc    *retentionCleaner

	topics map[string]*topic
	groupOffsets map[string]map[domain.Topition]domain.OffsetAndMetadata

	brokers map[int32]domain.BrokerInfo

	nextProducerID atomic.Int64
	txns           map[string]*txnState // keyed by transactional_id
	txnMu          sync.Mutex
}

// NewStore builds a Store rooted at cfg.DataDir and starts its retention
// cleaner.
func NewStore(cfg Config) *Store {
	cache := newSegmentCache(cfg.SegmentCacheSize)
	rc := newRetentionCleaner(cfg.Partition.RetentionCheckIntervalMs, cache)
	rc.Start()

	s := &Store{
		cfg:          cfg,
		cache:        cache,
		rc:           rc,
		topics:       make(map[string]*topic),
		groupOffsets: make(map[string]map[domain.Topition]domain.OffsetAndMetadata),
		brokers:      make(map[int32]domain.BrokerInfo),
		txns:         make(map[string]*txnState),
	}
	s.nextProducerID.Store(1000)
	return s
}

// Close stops the retention cleaner and closes every open segment.
func (s *Store) Close() error {
	s.rc.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.topics {
		for _, p := range t.partitions {
			_ = p.Close()
		}
	}
	return s.cache.Close()
}

// RegisterBroker records one cluster member for Metadata/DescribeCluster
// responses.
func (s *Store) RegisterBroker(info domain.BrokerInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.brokers[info.NodeID] = info
}

// Brokers returns every registered cluster member, in no particular
// order.
func (s *Store) Brokers() []domain.BrokerInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.BrokerInfo, 0, len(s.brokers))
	for _, b := range s.brokers {
		out = append(out, b)
	}
	return out
}

// CreateTopic provisions a new topic with the given partition count,
// returning TopicAlreadyExists if the name is taken.
func (s *Store) CreateTopic(spec domain.NewTopicSpec) domain.TopicMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.topics[spec.Name]; ok {
		return domain.TopicMetadata{Name: spec.Name, Err: kerr.TopicAlreadyExists}
	}

	n := spec.NumPartitions
	if n <= 0 {
		n = s.cfg.DefaultPartitions
	}

	if spec.ValidateOnly {
		parts := make([]domain.PartitionMetadata, n)
		for i := int32(0); i < n; i++ {
			parts[i] = domain.PartitionMetadata{Partition: i, Leader: 0, Replicas: []int32{0}, ISR: []int32{0}}
		}
		return domain.TopicMetadata{Name: spec.Name, Partitions: parts}
	}

	t := &topic{name: spec.Name, configs: spec.Configs}
	for i := int32(0); i < n; i++ {
		p, err := newPartition(s.cfg.DataDir, spec.Name, i, s.cfg.Partition, s.cache)
		if err != nil {
			return domain.TopicMetadata{Name: spec.Name, Err: kerr.UnknownServerError}
		}
		s.rc.Register(p)
		t.partitions = append(t.partitions, p)
	}
	s.topics[spec.Name] = t

	return domain.TopicMetadata{Name: spec.Name, Partitions: metadataForPartitions(t.partitions)}
}

func metadataForPartitions(partitions []*partition) []domain.PartitionMetadata {
	out := make([]domain.PartitionMetadata, len(partitions))
	for i, p := range partitions {
		out[i] = domain.PartitionMetadata{Partition: p.id, Leader: 0, Replicas: []int32{0}, ISR: []int32{0}}
	}
	return out
}

// DeleteTopics removes topics by name, closing and deleting every
// partition's on-disk files.
func (s *Store) DeleteTopics(names []string) []domain.TopicMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.TopicMetadata, 0, len(names))
	for _, name := range names {
		t, ok := s.topics[name]
		if !ok {
			out = append(out, domain.TopicMetadata{Name: name, Err: kerr.UnknownTopicOrPartition})
			continue
		}
		for _, p := range t.partitions {
			_ = p.Close()
			_ = os.RemoveAll(p.dir)
		}
		delete(s.topics, name)
		out = append(out, domain.TopicMetadata{Name: name})
	}
	return out
}

// Topics returns metadata for the named topics, or every topic when names
// is nil.
func (s *Store) Topics(names []string) []domain.TopicMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if names == nil {
		out := make([]domain.TopicMetadata, 0, len(s.topics))
		for name, t := range s.topics {
			out = append(out, domain.TopicMetadata{Name: name, Partitions: metadataForPartitions(t.partitions)})
		}
		return out
	}

	out := make([]domain.TopicMetadata, 0, len(names))
	for _, name := range names {
		t, ok := s.topics[name]
		if !ok {
			out = append(out, domain.TopicMetadata{Name: name, Err: kerr.UnknownTopicOrPartition})
			continue
		}
		out = append(out, domain.TopicMetadata{Name: name, Partitions: metadataForPartitions(t.partitions)})
	}
	return out
}

func (s *Store) lookupPartition(top domain.Topition) (*partition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.topics[top.Topic]
	if !ok {
		return nil, errFromCode(kerr.UnknownTopicOrPartition)
	}
	if top.Partition < 0 || int(top.Partition) >= len(t.partitions) {
		return nil, errFromCode(kerr.UnknownTopicOrPartition)
	}
	return t.partitions[top.Partition], nil
}

// Produce appends one encoded RecordBatch to the named topic-partition,
// returning the base offset it was assigned.
func (s *Store) Produce(top domain.Topition, batch []byte) domain.ProduceResult {
	p, err := s.lookupPartition(top)
	if err != nil {
		return domain.ProduceResult{Partition: top.Partition, Err: kerr.FromDomainError(err)}
	}
	offset, appendErr := p.Append(batch)
	if appendErr != nil {
		return domain.ProduceResult{Partition: top.Partition, Err: kerr.UnknownServerError}
	}
	return domain.ProduceResult{Partition: top.Partition, BaseOffset: offset, LogAppendTime: time.Now().UnixMilli()}
}

// Fetch reads up to maxBytes of whole RecordBatches starting at offset
// from the named topic-partition.
func (s *Store) Fetch(top domain.Topition, offset int64, maxBytes int32) domain.FetchResult {
	p, err := s.lookupPartition(top)
	if err != nil {
		return domain.FetchResult{Partition: top.Partition, Err: kerr.FromDomainError(err)}
	}

	batches, readErr := p.Read(offset, maxBytes)
	if readErr == ErrOffsetOutOfRange {
		return domain.FetchResult{Partition: top.Partition, HighWatermark: p.HighWatermark(), Err: kerr.OffsetOutOfRange}
	}
	if readErr != nil {
		return domain.FetchResult{Partition: top.Partition, Err: kerr.UnknownServerError}
	}
	return domain.FetchResult{Partition: top.Partition, HighWatermark: p.HighWatermark(), Batches: batches}
}

// ListOffsets resolves the special earliest/latest timestamps (and, in a
// single-node store with no time index, any other timestamp falls back to
// the latest offset) for one topic-partition.
func (s *Store) ListOffsets(top domain.Topition, timestamp int64) domain.ListOffsetsResult {
	p, err := s.lookupPartition(top)
	if err != nil {
		return domain.ListOffsetsResult{Partition: top.Partition, Err: kerr.FromDomainError(err)}
	}
	switch timestamp {
	case domain.TimestampEarliest:
		return domain.ListOffsetsResult{Partition: top.Partition, Offset: p.LogStartOffset()}
	default:
		return domain.ListOffsetsResult{Partition: top.Partition, Offset: p.HighWatermark()}
	}
}

// DeleteRecords advances a topic-partition's low watermark by deleting
// every segment strictly below offset; a single-node store with
// segment-granularity retention cannot truncate mid-segment, so the
// reported low watermark is the start of the first retained segment.
func (s *Store) DeleteRecords(top domain.Topition, offset int64) (int64, error) {
	p, err := s.lookupPartition(top)
	if err != nil {
		return 0, err
	}
	var removed []int64
	p.mu.Lock()
	for len(p.segments) > 1 && p.segments[1] <= offset {
		if err := p.removeSegmentFiles(p.segments[0]); err != nil {
			p.mu.Unlock()
			return p.LogStartOffset(), err
		}
		removed = append(removed, p.segments[0])
		p.segments = p.segments[1:]
	}
	p.mu.Unlock()
	for _, base := range removed {
		s.cache.Evict(p.cacheKey(base))
	}
	return p.LogStartOffset(), nil
}

// InitProducerId allocates a fresh producer id/epoch, or hands back the
// stable id already bound to a transactional id on a retry.
func (s *Store) InitProducerId(transactionalID *string, timeoutMs int32) domain.ProducerIDAndEpoch {
	if transactionalID == nil || *transactionalID == "" {
		return domain.ProducerIDAndEpoch{ProducerID: s.nextProducerID.Add(1), ProducerEpoch: 0}
	}

	s.txnMu.Lock()
	defer s.txnMu.Unlock()
	if t, ok := s.txns[*transactionalID]; ok {
		t.producerEpoch++
		t.partitions = make(map[domain.Topition]bool)
		t.pendingOffsets = make(map[domain.Topition]domain.OffsetAndMetadata)
		return domain.ProducerIDAndEpoch{ProducerID: t.producerID, ProducerEpoch: t.producerEpoch}
	}

	id := s.nextProducerID.Add(1)
	s.txns[*transactionalID] = &txnState{
		producerID:     id,
		partitions:     make(map[domain.Topition]bool),
		pendingOffsets: make(map[domain.Topition]domain.OffsetAndMetadata),
	}
	return domain.ProducerIDAndEpoch{ProducerID: id, ProducerEpoch: 0}
}

func (s *Store) txnByProducer(transactionalID string, producerID int64, producerEpoch int16) (*txnState, error) {
	t, ok := s.txns[transactionalID]
	if !ok {
		return nil, errFromCode(kerr.InvalidTxnState)
	}
	if t.producerID != producerID || t.producerEpoch != producerEpoch {
		return nil, errFromCode(kerr.InvalidProducerEpoch)
	}
	return t, nil
}

// TxnAddPartitions marks topic-partitions as participating in a
// transaction.
func (s *Store) TxnAddPartitions(transactionalID string, producerID int64, producerEpoch int16, partitions []domain.Topition) error {
	s.txnMu.Lock()
	defer s.txnMu.Unlock()
	t, err := s.txnByProducer(transactionalID, producerID, producerEpoch)
	if err != nil {
		return err
	}
	for _, top := range partitions {
		t.partitions[top] = true
	}
	return nil
}

// TxnAddOffsets binds a consumer group to a transaction so its later
// TxnOffsetCommit calls are staged for atomic visibility at EndTxn.
func (s *Store) TxnAddOffsets(transactionalID string, producerID int64, producerEpoch int16, groupID string) error {
	s.txnMu.Lock()
	defer s.txnMu.Unlock()
	t, err := s.txnByProducer(transactionalID, producerID, producerEpoch)
	if err != nil {
		return err
	}
	t.group = groupID
	return nil
}

// TxnOffsetCommit stages offset commits for a transaction's bound group;
// they only become visible to OffsetFetch on a committed EndTxn.
func (s *Store) TxnOffsetCommit(transactionalID string, producerID int64, producerEpoch int16, groupID string, offsets map[domain.Topition]domain.OffsetAndMetadata) error {
	s.txnMu.Lock()
	defer s.txnMu.Unlock()
	t, err := s.txnByProducer(transactionalID, producerID, producerEpoch)
	if err != nil {
		return err
	}
	for top, oam := range offsets {
		t.pendingOffsets[top] = oam
	}
	_ = groupID
	return nil
}

// TxnEnd commits or aborts a transaction: on commit, every pending
// offset is published to the bound group's committed-offset table.
func (s *Store) TxnEnd(transactionalID string, producerID int64, producerEpoch int16, committed bool) kerr.Code {
	s.txnMu.Lock()
	t, err := s.txnByProducer(transactionalID, producerID, producerEpoch)
	if err != nil {
		s.txnMu.Unlock()
		return kerr.FromDomainError(err)
	}
	pending := t.pendingOffsets
	group := t.group
	t.partitions = make(map[domain.Topition]bool)
	t.pendingOffsets = make(map[domain.Topition]domain.OffsetAndMetadata)
	s.txnMu.Unlock()

	if !committed || group == "" || len(pending) == 0 {
		return kerr.None
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	offsets, ok := s.groupOffsets[group]
	if !ok {
		offsets = make(map[domain.Topition]domain.OffsetAndMetadata)
		s.groupOffsets[group] = offsets
	}
	for top, oam := range pending {
		offsets[top] = oam
	}
	return kerr.None
}

// CommitOffsets records committed offsets for a consumer group outside
// of a transaction (the plain OffsetCommit API).
func (s *Store) CommitOffsets(groupID string, offsets map[domain.Topition]domain.OffsetAndMetadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dst, ok := s.groupOffsets[groupID]
	if !ok {
		dst = make(map[domain.Topition]domain.OffsetAndMetadata)
		s.groupOffsets[groupID] = dst
	}
	for top, oam := range offsets {
		dst[top] = oam
	}
}

// FetchOffsets returns a group's committed offsets for the named
// topic-partitions, or every committed offset when tops is nil.
func (s *Store) FetchOffsets(groupID string, tops []domain.Topition) map[domain.Topition]domain.OffsetAndMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src, ok := s.groupOffsets[groupID]
	if !ok && tops == nil {
		return nil
	}
	if tops == nil {
		out := make(map[domain.Topition]domain.OffsetAndMetadata, len(src))
		for k, v := range src {
			out[k] = v
		}
		return out
	}
	out := make(map[domain.Topition]domain.OffsetAndMetadata, len(tops))
	for _, top := range tops {
		if oam, ok := src[top]; ok {
			out[top] = oam
		} else {
			out[top] = domain.OffsetAndMetadata{Partition: top.Partition, Offset: -1}
		}
	}
	return out
}

// Configs answers DescribeConfigs for a topic resource; the broker
// resource type returns an empty set since this implementation has no
// broker-level dynamic config store.
func (s *Store) Configs(resourceType domain.ConfigResourceType, name string) ([]domain.ConfigEntry, error) {
	if resourceType == domain.ConfigResourceBroker {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.topics[name]
	if !ok {
		return nil, errFromCode(kerr.UnknownTopicOrPartition)
	}
	out := make([]domain.ConfigEntry, 0, len(t.configs))
	for k, v := range t.configs {
		out = append(out, domain.ConfigEntry{Name: k, Value: v})
	}
	return out, nil
}
