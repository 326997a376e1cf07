package storage

import (
	"os"
	"testing"

	"github.com/shake-karrot/kafkabroker/internal/domain"
	"github.com/shake-karrot/kafkabroker/internal/recordbatch"
)

func testBatch(t *testing.T, baseTimestamp int64, n int) []byte {
	t.Helper()
	b := recordbatch.Batch{BaseTimestamp: baseTimestamp}
	for i := 0; i < n; i++ {
		b.Records = append(b.Records, recordbatch.Record{
			OffsetDelta: int32(i),
			Value:       []byte{byte(i)},
		})
	}
	b.Finalize()
	encoded, err := b.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return encoded
}

func testConfig(tmpDir string) Config {
	cfg := DefaultConfig()
	cfg.DataDir = tmpDir
	cfg.Partition.Segment.SegmentMaxBytes = 4096
	cfg.Partition.Segment.IndexMaxBytes = 512
	return cfg
}

func TestStoreCreateProduceFetch(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewStore(testConfig(tmpDir))
	defer store.Close()

	md := store.CreateTopic(domain.NewTopicSpec{Name: "orders", NumPartitions: 1})
	if md.Err.Value != 0 {
		t.Fatalf("create topic: %+v", md.Err)
	}

	top := domain.Topition{Topic: "orders", Partition: 0}
	batch := testBatch(t, 1000, 3)
	result := store.Produce(top, batch)
	if result.Err.Value != 0 {
		t.Fatalf("produce: %+v", result.Err)
	}
	if result.BaseOffset != 0 {
		t.Fatalf("expected base offset 0, got %d", result.BaseOffset)
	}

	fetched := store.Fetch(top, 0, 1<<20)
	if fetched.Err.Value != 0 {
		t.Fatalf("fetch: %+v", fetched.Err)
	}
	if len(fetched.Batches) == 0 {
		t.Fatal("expected non-empty fetch result")
	}
	if fetched.HighWatermark != 3 {
		t.Fatalf("expected high watermark 3, got %d", fetched.HighWatermark)
	}
}

func TestStoreCreateTopicValidateOnlyDoesNotPersist(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewStore(testConfig(tmpDir))
	defer store.Close()

	md := store.CreateTopic(domain.NewTopicSpec{Name: "orders", NumPartitions: 2, ValidateOnly: true})
	if md.Err.Value != 0 {
		t.Fatalf("validate-only create: %+v", md.Err)
	}
	if len(md.Partitions) != 2 {
		t.Fatalf("expected 2 partitions reported, got %d", len(md.Partitions))
	}

	if got := store.Topics(nil); len(got) != 0 {
		t.Fatalf("expected no topics persisted after validate-only create, got %+v", got)
	}

	// A real create afterwards must still succeed: validate-only must not
	// have left behind any partially-registered state.
	md = store.CreateTopic(domain.NewTopicSpec{Name: "orders", NumPartitions: 2})
	if md.Err.Value != 0 {
		t.Fatalf("create after validate-only: %+v", md.Err)
	}
}

func TestStoreProduceUnknownTopic(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewStore(testConfig(tmpDir))
	defer store.Close()

	result := store.Produce(domain.Topition{Topic: "missing", Partition: 0}, testBatch(t, 0, 1))
	if result.Err.Value == 0 {
		t.Fatal("expected an error for an unknown topic")
	}
}

func TestStoreDeleteTopics(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewStore(testConfig(tmpDir))
	defer store.Close()

	store.CreateTopic(domain.NewTopicSpec{Name: "orders", NumPartitions: 1})
	results := store.DeleteTopics([]string{"orders", "missing"})
	if results[0].Err.Value != 0 {
		t.Fatalf("expected orders deletion to succeed, got %+v", results[0].Err)
	}
	if results[1].Err.Value == 0 {
		t.Fatal("expected deleting a missing topic to report an error")
	}

	if _, err := os.Stat(tmpDir); err != nil {
		t.Fatalf("data dir should still exist: %v", err)
	}
}

func TestStoreTransactionalOffsetCommitVisibility(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewStore(testConfig(tmpDir))
	defer store.Close()

	txnID := "txn-1"
	alloc := store.InitProducerId(&txnID, 60000)

	top := domain.Topition{Topic: "orders", Partition: 0}
	if err := store.TxnAddPartitions(txnID, alloc.ProducerID, alloc.ProducerEpoch, []domain.Topition{top}); err != nil {
		t.Fatalf("add partitions: %v", err)
	}
	if err := store.TxnAddOffsets(txnID, alloc.ProducerID, alloc.ProducerEpoch, "g1"); err != nil {
		t.Fatalf("add offsets: %v", err)
	}
	offsets := map[domain.Topition]domain.OffsetAndMetadata{top: {Partition: 0, Offset: 5}}
	if err := store.TxnOffsetCommit(txnID, alloc.ProducerID, alloc.ProducerEpoch, "g1", offsets); err != nil {
		t.Fatalf("offset commit: %v", err)
	}

	// Not yet visible before EndTxn.
	if got := store.FetchOffsets("g1", []domain.Topition{top}); got[top].Offset != -1 {
		t.Fatalf("expected uncommitted offset to be invisible, got %+v", got[top])
	}

	if code := store.TxnEnd(txnID, alloc.ProducerID, alloc.ProducerEpoch, true); code.Value != 0 {
		t.Fatalf("end txn: %+v", code)
	}

	got := store.FetchOffsets("g1", []domain.Topition{top})
	if got[top].Offset != 5 {
		t.Fatalf("expected committed offset 5, got %+v", got[top])
	}
}

func TestStoreTransactionAbortDiscardsOffsets(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewStore(testConfig(tmpDir))
	defer store.Close()

	txnID := "txn-2"
	alloc := store.InitProducerId(&txnID, 60000)
	top := domain.Topition{Topic: "orders", Partition: 0}
	_ = store.TxnAddOffsets(txnID, alloc.ProducerID, alloc.ProducerEpoch, "g2")
	_ = store.TxnOffsetCommit(txnID, alloc.ProducerID, alloc.ProducerEpoch, "g2",
		map[domain.Topition]domain.OffsetAndMetadata{top: {Offset: 9}})

	store.TxnEnd(txnID, alloc.ProducerID, alloc.ProducerEpoch, false)

	got := store.FetchOffsets("g2", []domain.Topition{top})
	if got != nil && got[top].Offset == 9 {
		t.Fatal("aborted transaction's offsets must not become visible")
	}
}
