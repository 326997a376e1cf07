// Command client is a minimal smoke-test client: it dials a running
// broker, negotiates ApiVersions, creates a topic, produces one batch,
// fetches it back, and reports whether the round trip matched.
package main

import (
	"fmt"
	"log"
	"net"
	"time"

	"github.com/shake-karrot/kafkabroker/internal/frame"
	"github.com/shake-karrot/kafkabroker/internal/kbin"
	"github.com/shake-karrot/kafkabroker/internal/recordbatch"
)

const clientID = "kafkabroker-smoke-client"

var correlationID int32

func main() {
	conn, err := net.Dial("tcp", "localhost:9092")
	if err != nil {
		log.Fatalf("dial broker: %v", err)
	}
	defer conn.Close()

	fmt.Println("connected to broker")

	versions := roundTrip(conn, frame.ApiVersions, 3, frame.ApiVersionsRequest{Version: 3, ClientSoftwareName: clientID, ClientSoftwareVersion: "0.1"}.Encode)
	apiVersionsResp := frame.DecodeApiVersionsResponse(kbin.NewReader(versions), 3)
	fmt.Printf("broker advertises %d APIs\n", len(apiVersionsResp.ApiKeys))

	topic := fmt.Sprintf("smoke-%d", time.Now().UnixNano())
	createResp := roundTrip(conn, frame.CreateTopics, 5, frame.CreateTopicsRequest{
		Topics: []frame.CreatableTopic{
			{Name: topic, NumPartitions: 1, ReplicationFactor: 1},
		},
		TimeoutMs: 5000,
	}.Encode)
	created := frame.DecodeCreateTopicsResponse(kbin.NewReader(createResp))
	if len(created.Topics) != 1 || created.Topics[0].ErrorCode != 0 {
		log.Fatalf("create topic failed: %+v", created.Topics)
	}
	fmt.Printf("created topic %q\n", topic)

	batch := recordbatch.Batch{
		Records: []recordbatch.Record{
			{OffsetDelta: 0, Key: []byte("k1"), Value: []byte("hello kafkabroker")},
			{OffsetDelta: 1, Key: []byte("k2"), Value: []byte("second record")},
		},
	}
	batch.Finalize()
	encoded, err := batch.Encode()
	if err != nil {
		log.Fatalf("encode batch: %v", err)
	}

	produceResp := roundTrip(conn, frame.Produce, 9, frame.ProduceRequest{
		Acks:      1,
		TimeoutMs: 5000,
		TopicData: []frame.ProduceTopicData{
			{Name: topic, PartitionData: []frame.ProducePartitionData{{Index: 0, Records: encoded}}},
		},
	}.Encode)
	produced := frame.DecodeProduceResponse(kbin.NewReader(produceResp))
	if len(produced.TopicResponses) != 1 || len(produced.TopicResponses[0].PartitionResponses) != 1 {
		log.Fatalf("unexpected produce response: %+v", produced)
	}
	part := produced.TopicResponses[0].PartitionResponses[0]
	if part.ErrorCode != 0 {
		log.Fatalf("produce failed: error_code=%d", part.ErrorCode)
	}
	fmt.Printf("produced batch at base offset %d\n", part.BaseOffset)

	fetchResp := roundTrip(conn, frame.Fetch, 12, frame.FetchRequest{
		MaxWaitMs: 100,
		MinBytes:  1,
		MaxBytes:  1 << 20,
		Topics: []frame.FetchRequestTopic{
			{Topic: topic, Partitions: []frame.FetchRequestPartition{{Partition: 0, FetchOffset: part.BaseOffset, PartitionMaxBytes: 1 << 20}}},
		},
	}.Encode)
	fetched := frame.DecodeFetchResponse(kbin.NewReader(fetchResp))
	if len(fetched.Responses) != 1 || len(fetched.Responses[0].Partitions) != 1 {
		log.Fatalf("unexpected fetch response: %+v", fetched)
	}
	fetchedPart := fetched.Responses[0].Partitions[0]
	if fetchedPart.ErrorCode != 0 {
		log.Fatalf("fetch failed: error_code=%d", fetchedPart.ErrorCode)
	}

	batches, err := recordbatch.DecodeAll(fetchedPart.Records)
	if err != nil {
		log.Fatalf("decode fetched records: %v", err)
	}
	var count int
	for _, b := range batches {
		count += len(b.Records)
	}
	fmt.Printf("fetched %d batch(es), %d record(s), high watermark %d\n", len(batches), count, fetchedPart.HighWatermark)

	if count == len(batch.Records) {
		fmt.Println("round trip OK")
	} else {
		log.Fatalf("round trip mismatch: sent %d records, read back %d", len(batch.Records), count)
	}
}

// roundTrip writes one flexible request frame and reads its response body.
func roundTrip(conn net.Conn, key frame.ApiKey, version int16, encodeBody func(*kbin.Writer)) []byte {
	correlationID++
	name := clientID

	w := kbin.NewWriter(nil)
	w.Int16(int16(key))
	w.Int16(version)
	w.Int32(correlationID)
	w.NullableLegacyString(&name)
	if key.IsFlexible(version) {
		w.EmptyTagSection()
	}
	encodeBody(w)

	if err := frame.WriteFrame(conn, w.Bytes()); err != nil {
		log.Fatalf("write %v request: %v", key, err)
	}

	body, pool, err := frame.ReadFrame(conn)
	if err != nil {
		log.Fatalf("read %v response: %v", key, err)
	}
	defer frame.PutBuffer(pool)

	respFlexible := key.IsFlexible(version) && key != frame.ApiVersions
	r := kbin.NewReader(body)
	frame.DecodeResponseHeader(r, respFlexible)
	return r.Remaining()
}
