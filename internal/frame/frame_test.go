package frame

import (
	"bytes"
	"testing"

	"github.com/shake-karrot/kafkabroker/internal/kbin"
)

func TestReadFrameZeroSizeTolerated(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0, 0, 0, 0})
	body, pool, err := ReadFrame(buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if body != nil || pool != nil {
		t.Errorf("expected nil body/pool for a zero-size frame, got %v %v", body, pool)
	}
}

func TestReadFrameNegativeSizeRejected(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	if _, _, err := ReadFrame(buf); err != ErrNegativeFrameSize {
		t.Errorf("expected ErrNegativeFrameSize, got %v", err)
	}
}

func TestWriteReadFrameRoundTrip(t *testing.T) {
	var out bytes.Buffer
	want := []byte("hello kafka")
	if err := WriteFrame(&out, want); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	got, pool, err := ReadFrame(&out)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
	PutBuffer(pool)
}

func TestRequestHeaderRoundTripLegacy(t *testing.T) {
	clientID := "my-client"
	h := RequestHeader{ApiKey: int16(Metadata), ApiVersion: 0, CorrelationID: 42, ClientID: &clientID}
	w := kbin.NewWriter(nil)
	h.Encode(w, false)
	r := kbin.NewReader(w.Bytes())
	got := DecodeRequestHeader(r, false)
	if got.ApiKey != h.ApiKey || got.ApiVersion != h.ApiVersion || got.CorrelationID != h.CorrelationID {
		t.Fatalf("header mismatch: got %+v, want %+v", got, h)
	}
	if got.ClientID == nil || *got.ClientID != clientID {
		t.Fatalf("client id mismatch: got %v", got.ClientID)
	}
}

func TestRequestHeaderRoundTripFlexible(t *testing.T) {
	h := RequestHeader{ApiKey: int16(ApiVersions), ApiVersion: 3, CorrelationID: 7}
	w := kbin.NewWriter(nil)
	h.Encode(w, true)
	r := kbin.NewReader(w.Bytes())
	got := DecodeRequestHeader(r, true)
	if got.CorrelationID != 7 {
		t.Fatalf("correlation id mismatch: got %d", got.CorrelationID)
	}
	if r.Err() != nil {
		t.Fatalf("unexpected decode error: %v", r.Err())
	}
}

func TestApiVersionsFlexibleBoundary(t *testing.T) {
	if ApiVersions.IsFlexible(2) {
		t.Error("v2 should not be flexible")
	}
	if !ApiVersions.IsFlexible(3) {
		t.Error("v3 should be flexible")
	}
}

func TestMetadataFlexibleBoundary(t *testing.T) {
	if Metadata.IsFlexible(8) {
		t.Error("v8 should not be flexible")
	}
	if !Metadata.IsFlexible(9) {
		t.Error("v9 should be flexible")
	}
}

func TestMetadataRequestRoundTripLegacyAllTopics(t *testing.T) {
	req := MetadataRequest{Version: 0, Topics: nil}
	w := kbin.NewWriter(nil)
	req.Encode(w)
	r := kbin.NewReader(w.Bytes())
	got := DecodeMetadataRequest(r, 0)
	if got.Topics != nil {
		t.Errorf("expected nil Topics (all-topics sentinel), got %v", got.Topics)
	}
}

func TestMetadataRequestRoundTripFlexible(t *testing.T) {
	req := MetadataRequest{Version: 9, Topics: []MetadataRequestTopic{{Name: "orders"}, {Name: "payments"}}, AllowAutoTopicCreation: true}
	w := kbin.NewWriter(nil)
	req.Encode(w)
	r := kbin.NewReader(w.Bytes())
	got := DecodeMetadataRequest(r, 9)
	if len(got.Topics) != 2 || got.Topics[0].Name != "orders" || got.Topics[1].Name != "payments" {
		t.Fatalf("topics mismatch: %+v", got.Topics)
	}
	if !got.AllowAutoTopicCreation {
		t.Error("expected AllowAutoTopicCreation true")
	}
	if r.Err() != nil {
		t.Fatalf("unexpected decode error: %v", r.Err())
	}
}

func TestApiVersionsResponseRoundTrip(t *testing.T) {
	resp := ApiVersionsResponse{
		Version: 3,
		ApiKeys: []ApiVersionsResponseKey{
			{ApiKey: int16(Produce), MinVersion: 0, MaxVersion: 9},
			{ApiKey: int16(Fetch), MinVersion: 0, MaxVersion: 16},
		},
		ThrottleTimeMs: 0,
	}
	w := kbin.NewWriter(nil)
	resp.Encode(w)
	r := kbin.NewReader(w.Bytes())
	got := DecodeApiVersionsResponse(r, 3)
	if len(got.ApiKeys) != 2 || got.ApiKeys[1].MaxVersion != 16 {
		t.Fatalf("api keys mismatch: %+v", got.ApiKeys)
	}
}

func TestProduceRequestResponseRoundTrip(t *testing.T) {
	req := ProduceRequest{
		Acks:      -1,
		TimeoutMs: 1000,
		TopicData: []ProduceTopicData{{
			Name: "orders",
			PartitionData: []ProducePartitionData{{
				Index:   0,
				Records: []byte{1, 2, 3},
			}},
		}},
	}
	w := kbin.NewWriter(nil)
	req.Encode(w)
	r := kbin.NewReader(w.Bytes())
	got := DecodeProduceRequest(r)
	if len(got.TopicData) != 1 || got.TopicData[0].Name != "orders" {
		t.Fatalf("produce request mismatch: %+v", got)
	}
	if !bytes.Equal(got.TopicData[0].PartitionData[0].Records, []byte{1, 2, 3}) {
		t.Fatalf("records mismatch: %v", got.TopicData[0].PartitionData[0].Records)
	}

	resp := ProduceResponse{TopicResponses: []ProduceTopicResponse{{
		Name:               "orders",
		PartitionResponses: []ProducePartitionResponse{{Index: 0, ErrorCode: 0, BaseOffset: 5}},
	}}}
	w2 := kbin.NewWriter(nil)
	resp.Encode(w2)
	r2 := kbin.NewReader(w2.Bytes())
	gotResp := DecodeProduceResponse(r2)
	if gotResp.TopicResponses[0].PartitionResponses[0].BaseOffset != 5 {
		t.Fatalf("produce response mismatch: %+v", gotResp)
	}
}

func TestJoinGroupRoundTrip(t *testing.T) {
	req := JoinGroupRequest{
		GroupID:          "g1",
		SessionTimeoutMs: 10000,
		MemberID:         "",
		ProtocolType:     "consumer",
		Protocols:        []JoinGroupProtocol{{Name: "range", Metadata: []byte{9}}},
	}
	w := kbin.NewWriter(nil)
	req.Encode(w)
	r := kbin.NewReader(w.Bytes())
	got := DecodeJoinGroupRequest(r)
	if got.GroupID != "g1" || len(got.Protocols) != 1 || got.Protocols[0].Name != "range" {
		t.Fatalf("join group request mismatch: %+v", got)
	}
}
