package frame

import "github.com/shake-karrot/kafkabroker/internal/kbin"

// ProducePartitionData is one partition's record batch in a ProduceRequest.
type ProducePartitionData struct {
	Index   int32
	Records []byte // an encoded recordbatch.Batch
}

// ProduceTopicData is one topic's partitions in a ProduceRequest.
type ProduceTopicData struct {
	Name          string
	PartitionData []ProducePartitionData
}

// ProduceRequest is modeled at its current flexible version only (v9).
type ProduceRequest struct {
	TransactionalID *string
	Acks            int16
	TimeoutMs       int32
	TopicData       []ProduceTopicData
}

func DecodeProduceRequest(r *kbin.Reader) ProduceRequest {
	var req ProduceRequest
	req.TransactionalID = r.NullableCompactString()
	req.Acks = r.Int16()
	req.TimeoutMs = r.Int32()
	n := r.CompactArrayLen()
	req.TopicData = make([]ProduceTopicData, 0, max0(n))
	for i := 0; i < n; i++ {
		var t ProduceTopicData
		t.Name = r.CompactString()
		pn := r.CompactArrayLen()
		t.PartitionData = make([]ProducePartitionData, 0, max0(pn))
		for j := 0; j < pn; j++ {
			var p ProducePartitionData
			p.Index = r.Int32()
			p.Records = r.CompactBytes()
			r.TagSection()
			t.PartitionData = append(t.PartitionData, p)
		}
		r.TagSection()
		req.TopicData = append(req.TopicData, t)
	}
	r.TagSection()
	return req
}

func (req ProduceRequest) Encode(w *kbin.Writer) {
	w.NullableCompactString(req.TransactionalID)
	w.Int16(req.Acks)
	w.Int32(req.TimeoutMs)
	w.CompactArrayLen(len(req.TopicData))
	for _, t := range req.TopicData {
		w.CompactString(t.Name)
		w.CompactArrayLen(len(t.PartitionData))
		for _, p := range t.PartitionData {
			w.Int32(p.Index)
			w.CompactBytes(p.Records)
			w.EmptyTagSection()
		}
		w.EmptyTagSection()
	}
	w.EmptyTagSection()
}

// ProducePartitionResponse is one partition's result in a ProduceResponse.
type ProducePartitionResponse struct {
	Index           int32
	ErrorCode       int16
	BaseOffset      int64
	LogAppendTimeMs int64
	LogStartOffset  int64
}

// ProduceTopicResponse is one topic's results in a ProduceResponse.
type ProduceTopicResponse struct {
	Name               string
	PartitionResponses []ProducePartitionResponse
}

// ProduceResponse answers a ProduceRequest. Per the documented decision,
// this broker returns a response even when Acks==0, matching the teacher's
// unconditional-reply dispatch loop rather than Kafka's usual acks=0
// fire-and-forget convention.
type ProduceResponse struct {
	TopicResponses []ProduceTopicResponse
	ThrottleTimeMs int32
}

func (resp ProduceResponse) Encode(w *kbin.Writer) {
	w.CompactArrayLen(len(resp.TopicResponses))
	for _, t := range resp.TopicResponses {
		w.CompactString(t.Name)
		w.CompactArrayLen(len(t.PartitionResponses))
		for _, p := range t.PartitionResponses {
			w.Int32(p.Index)
			w.Int16(p.ErrorCode)
			w.Int64(p.BaseOffset)
			w.Int64(p.LogAppendTimeMs)
			w.Int64(p.LogStartOffset)
			w.EmptyTagSection()
		}
		w.EmptyTagSection()
	}
	w.Int32(resp.ThrottleTimeMs)
	w.EmptyTagSection()
}

func DecodeProduceResponse(r *kbin.Reader) ProduceResponse {
	var resp ProduceResponse
	n := r.CompactArrayLen()
	resp.TopicResponses = make([]ProduceTopicResponse, 0, max0(n))
	for i := 0; i < n; i++ {
		var t ProduceTopicResponse
		t.Name = r.CompactString()
		pn := r.CompactArrayLen()
		t.PartitionResponses = make([]ProducePartitionResponse, 0, max0(pn))
		for j := 0; j < pn; j++ {
			var p ProducePartitionResponse
			p.Index = r.Int32()
			p.ErrorCode = r.Int16()
			p.BaseOffset = r.Int64()
			p.LogAppendTimeMs = r.Int64()
			p.LogStartOffset = r.Int64()
			r.TagSection()
			t.PartitionResponses = append(t.PartitionResponses, p)
		}
		r.TagSection()
		resp.TopicResponses = append(resp.TopicResponses, t)
	}
	resp.ThrottleTimeMs = r.Int32()
	r.TagSection()
	return resp
}
