package frame

import "github.com/shake-karrot/kafkabroker/internal/kbin"

// FetchRequestPartition is one partition a FetchRequest asks to read from.
type FetchRequestPartition struct {
	Partition          int32
	CurrentLeaderEpoch int32
	FetchOffset        int64
	LastFetchedEpoch    int32
	LogStartOffset     int64
	PartitionMaxBytes  int32
}

// FetchRequestTopic is one topic's partitions in a FetchRequest.
type FetchRequestTopic struct {
	Topic      string
	Partitions []FetchRequestPartition
}

// FetchRequest is modeled at its current flexible version only (v12). No
// partition-level fetch session tracking is implemented: the dispatch
// engine always does a full fetch per request, so SessionID/SessionEpoch
// round-trip but never change partition-pruning behavior.
type FetchRequest struct {
	ReplicaID      int32
	MaxWaitMs      int32
	MinBytes       int32
	MaxBytes       int32
	IsolationLevel int8
	SessionID      int32
	SessionEpoch   int32
	Topics         []FetchRequestTopic
}

func DecodeFetchRequest(r *kbin.Reader) FetchRequest {
	var req FetchRequest
	req.ReplicaID = r.Int32()
	req.MaxWaitMs = r.Int32()
	req.MinBytes = r.Int32()
	req.MaxBytes = r.Int32()
	req.IsolationLevel = r.Int8()
	req.SessionID = r.Int32()
	req.SessionEpoch = r.Int32()
	n := r.CompactArrayLen()
	req.Topics = make([]FetchRequestTopic, 0, max0(n))
	for i := 0; i < n; i++ {
		var t FetchRequestTopic
		t.Topic = r.CompactString()
		pn := r.CompactArrayLen()
		t.Partitions = make([]FetchRequestPartition, 0, max0(pn))
		for j := 0; j < pn; j++ {
			var p FetchRequestPartition
			p.Partition = r.Int32()
			p.CurrentLeaderEpoch = r.Int32()
			p.FetchOffset = r.Int64()
			p.LastFetchedEpoch = r.Int32()
			p.LogStartOffset = r.Int64()
			p.PartitionMaxBytes = r.Int32()
			r.TagSection()
			t.Partitions = append(t.Partitions, p)
		}
		r.TagSection()
		req.Topics = append(req.Topics, t)
	}
	r.TagSection()
	return req
}

func (req FetchRequest) Encode(w *kbin.Writer) {
	w.Int32(req.ReplicaID)
	w.Int32(req.MaxWaitMs)
	w.Int32(req.MinBytes)
	w.Int32(req.MaxBytes)
	w.Int8(req.IsolationLevel)
	w.Int32(req.SessionID)
	w.Int32(req.SessionEpoch)
	w.CompactArrayLen(len(req.Topics))
	for _, t := range req.Topics {
		w.CompactString(t.Topic)
		w.CompactArrayLen(len(t.Partitions))
		for _, p := range t.Partitions {
			w.Int32(p.Partition)
			w.Int32(p.CurrentLeaderEpoch)
			w.Int64(p.FetchOffset)
			w.Int32(p.LastFetchedEpoch)
			w.Int64(p.LogStartOffset)
			w.Int32(p.PartitionMaxBytes)
			w.EmptyTagSection()
		}
		w.EmptyTagSection()
	}
	w.EmptyTagSection()
}

// FetchResponsePartition is one partition's fetched data.
type FetchResponsePartition struct {
	PartitionIndex   int32
	ErrorCode        int16
	HighWatermark    int64
	LastStableOffset int64
	LogStartOffset   int64
	Records          []byte
}

// FetchResponseTopic is one topic's fetched partitions.
type FetchResponseTopic struct {
	Topic      string
	Partitions []FetchResponsePartition
}

// FetchResponse answers a FetchRequest.
type FetchResponse struct {
	ThrottleTimeMs int32
	ErrorCode      int16
	SessionID      int32
	Responses      []FetchResponseTopic
}

func (resp FetchResponse) Encode(w *kbin.Writer) {
	w.Int32(resp.ThrottleTimeMs)
	w.Int16(resp.ErrorCode)
	w.Int32(resp.SessionID)
	w.CompactArrayLen(len(resp.Responses))
	for _, t := range resp.Responses {
		w.CompactString(t.Topic)
		w.CompactArrayLen(len(t.Partitions))
		for _, p := range t.Partitions {
			w.Int32(p.PartitionIndex)
			w.Int16(p.ErrorCode)
			w.Int64(p.HighWatermark)
			w.Int64(p.LastStableOffset)
			w.Int64(p.LogStartOffset)
			w.CompactArrayLen(0) // aborted_transactions, never populated
			w.CompactBytes(p.Records)
			w.EmptyTagSection()
		}
		w.EmptyTagSection()
	}
	w.EmptyTagSection()
}

func DecodeFetchResponse(r *kbin.Reader) FetchResponse {
	var resp FetchResponse
	resp.ThrottleTimeMs = r.Int32()
	resp.ErrorCode = r.Int16()
	resp.SessionID = r.Int32()
	n := r.CompactArrayLen()
	resp.Responses = make([]FetchResponseTopic, 0, max0(n))
	for i := 0; i < n; i++ {
		var t FetchResponseTopic
		t.Topic = r.CompactString()
		pn := r.CompactArrayLen()
		t.Partitions = make([]FetchResponsePartition, 0, max0(pn))
		for j := 0; j < pn; j++ {
			var p FetchResponsePartition
			p.PartitionIndex = r.Int32()
			p.ErrorCode = r.Int16()
			p.HighWatermark = r.Int64()
			p.LastStableOffset = r.Int64()
			p.LogStartOffset = r.Int64()
			r.CompactArrayLen() // aborted_transactions, discarded
			p.Records = r.CompactBytes()
			r.TagSection()
			t.Partitions = append(t.Partitions, p)
		}
		r.TagSection()
		resp.Responses = append(resp.Responses, t)
	}
	r.TagSection()
	return resp
}
