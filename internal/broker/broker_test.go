package broker

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/shake-karrot/kafkabroker/internal/blog"
	"github.com/shake-karrot/kafkabroker/internal/domain"
	"github.com/shake-karrot/kafkabroker/internal/frame"
	"github.com/shake-karrot/kafkabroker/internal/kbin"
	"github.com/shake-karrot/kafkabroker/internal/kerr"
	"github.com/shake-karrot/kafkabroker/internal/telemetry"
)

// fakeStorage/fakeCoordinator satisfy the Storage/Coordinator interfaces
// with the minimum this test exercises: ApiVersions touches neither, so
// every method just needs to exist, not do anything useful.
type fakeStorage struct{}

func (fakeStorage) RegisterBroker(domain.BrokerInfo)                          {}
func (fakeStorage) Brokers() []domain.BrokerInfo                              { return nil }
func (fakeStorage) CreateTopic(domain.NewTopicSpec) domain.TopicMetadata       { return domain.TopicMetadata{} }
func (fakeStorage) DeleteTopics([]string) []domain.TopicMetadata              { return nil }
func (fakeStorage) Topics([]string) []domain.TopicMetadata                    { return nil }
func (fakeStorage) Produce(domain.Topition, []byte) domain.ProduceResult      { return domain.ProduceResult{} }
func (fakeStorage) Fetch(domain.Topition, int64, int32) domain.FetchResult    { return domain.FetchResult{} }
func (fakeStorage) ListOffsets(domain.Topition, int64) domain.ListOffsetsResult {
	return domain.ListOffsetsResult{}
}
func (fakeStorage) DeleteRecords(domain.Topition, int64) (int64, error) { return 0, nil }
func (fakeStorage) InitProducerId(*string, int32) domain.ProducerIDAndEpoch {
	return domain.ProducerIDAndEpoch{}
}
func (fakeStorage) TxnAddPartitions(string, int64, int16, []domain.Topition) error { return nil }
func (fakeStorage) TxnAddOffsets(string, int64, int16, string) error               { return nil }
func (fakeStorage) TxnOffsetCommit(string, int64, int16, string, map[domain.Topition]domain.OffsetAndMetadata) error {
	return nil
}
func (fakeStorage) TxnEnd(string, int64, int16, bool) kerr.Code { return kerr.None }
func (fakeStorage) CommitOffsets(string, map[domain.Topition]domain.OffsetAndMetadata) {}
func (fakeStorage) FetchOffsets(string, []domain.Topition) map[domain.Topition]domain.OffsetAndMetadata {
	return nil
}
func (fakeStorage) Configs(domain.ConfigResourceType, string) ([]domain.ConfigEntry, error) {
	return nil, nil
}
func (fakeStorage) Close() error { return nil }

type fakeCoordinator struct{}

func (fakeCoordinator) Join(domain.JoinGroupInput) domain.JoinGroupOutput { return domain.JoinGroupOutput{} }
func (fakeCoordinator) Sync(domain.SyncGroupInput) domain.SyncGroupOutput { return domain.SyncGroupOutput{} }
func (fakeCoordinator) Heartbeat(string, string, int32) kerr.Code         { return kerr.None }
func (fakeCoordinator) Leave(string, []domain.LeaveMember) []kerr.Code    { return nil }
func (fakeCoordinator) OffsetCommit(string, map[domain.Topition]domain.OffsetAndMetadata) {}
func (fakeCoordinator) OffsetFetch(string, []domain.Topition) map[domain.Topition]domain.OffsetAndMetadata {
	return nil
}
func (fakeCoordinator) List([]string) []domain.GroupListing      { return nil }
func (fakeCoordinator) Describe([]string) []domain.GroupDescription { return nil }
func (fakeCoordinator) Delete([]string) map[string]kerr.Code     { return nil }

func newTestBroker(t *testing.T) (*Broker, net.Listener) {
	t.Helper()

	mp := sdkmetric.NewMeterProvider()
	tp := sdktrace.NewTracerProvider()
	tel, err := telemetry.New(mp, tp)
	if err != nil {
		t.Fatalf("telemetry.New: %v", err)
	}
	log := blog.New(io.Discard, zerolog.Disabled)

	cfg := DefaultConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	b := NewBroker(cfg, fakeStorage{}, fakeCoordinator{}, tel, log)

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			b.wg.Add(1)
			go b.handleConnection(conn)
		}
	}()

	return b, ln
}

// apiVersionsFrame builds a raw ApiVersions v3 request frame body with the
// given correlation ID, the same shape cmd/client's roundTrip builds.
func apiVersionsFrame(correlationID int32) []byte {
	name := "broker-test"
	w := kbin.NewWriter(nil)
	w.Int16(int16(frame.ApiVersions))
	w.Int16(3)
	w.Int32(correlationID)
	w.NullableLegacyString(&name)
	w.EmptyTagSection()
	frame.ApiVersionsRequest{Version: 3, ClientSoftwareName: name, ClientSoftwareVersion: "0.1"}.Encode(w)
	return w.Bytes()
}

func TestDispatchEchoesCorrelationID(t *testing.T) {
	_, ln := newTestBroker(t)
	defer ln.Close()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := frame.WriteFrame(conn, apiVersionsFrame(42)); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	body, pool, err := frame.ReadFrame(conn)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	defer frame.PutBuffer(pool)

	r := kbin.NewReader(body)
	hdr := frame.DecodeResponseHeader(r, false)
	if hdr.CorrelationID != 42 {
		t.Errorf("got correlation id %d, want 42", hdr.CorrelationID)
	}
}

func TestDispatchPreservesFIFOOrderPerConnection(t *testing.T) {
	_, ln := newTestBroker(t)
	defer ln.Close()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	const n = 20
	for i := int32(0); i < n; i++ {
		if err := frame.WriteFrame(conn, apiVersionsFrame(i)); err != nil {
			t.Fatalf("WriteFrame(%d): %v", i, err)
		}
	}

	for i := int32(0); i < n; i++ {
		body, pool, err := frame.ReadFrame(conn)
		if err != nil {
			t.Fatalf("ReadFrame(%d): %v", i, err)
		}
		r := kbin.NewReader(body)
		hdr := frame.DecodeResponseHeader(r, false)
		frame.PutBuffer(pool)
		if hdr.CorrelationID != i {
			t.Fatalf("response %d: got correlation id %d, want %d (out of order)", i, hdr.CorrelationID, i)
		}
	}
}

func TestIsTransientDisconnectClassifiesPeerClose(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{io.EOF, true},
		{io.ErrUnexpectedEOF, true},
		{net.ErrClosed, true},
		{context.DeadlineExceeded, false},
	}
	for _, c := range cases {
		if got := isTransientDisconnect(c.err); got != c.want {
			t.Errorf("isTransientDisconnect(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}

func TestHandleConnectionReturnsOnPeerClose(t *testing.T) {
	b, ln := newTestBroker(t)
	defer ln.Close()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	conn.Close()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("handleConnection did not return after peer close")
	}
}
