package frame

import "github.com/shake-karrot/kafkabroker/internal/kbin"

// ListOffsetsRequestPartition asks for the offset nearest Timestamp
// (or the earliest/latest sentinel, domain.TimestampEarliest/Latest).
type ListOffsetsRequestPartition struct {
	PartitionIndex     int32
	CurrentLeaderEpoch int32
	Timestamp          int64
}

// ListOffsetsRequestTopic is one topic's partitions in a ListOffsetsRequest.
type ListOffsetsRequestTopic struct {
	Name       string
	Partitions []ListOffsetsRequestPartition
}

// ListOffsetsRequest is modeled at its current flexible version only (v6).
type ListOffsetsRequest struct {
	ReplicaID      int32
	IsolationLevel int8
	Topics         []ListOffsetsRequestTopic
}

func DecodeListOffsetsRequest(r *kbin.Reader) ListOffsetsRequest {
	var req ListOffsetsRequest
	req.ReplicaID = r.Int32()
	req.IsolationLevel = r.Int8()
	n := r.CompactArrayLen()
	req.Topics = make([]ListOffsetsRequestTopic, 0, max0(n))
	for i := 0; i < n; i++ {
		var t ListOffsetsRequestTopic
		t.Name = r.CompactString()
		pn := r.CompactArrayLen()
		t.Partitions = make([]ListOffsetsRequestPartition, 0, max0(pn))
		for j := 0; j < pn; j++ {
			var p ListOffsetsRequestPartition
			p.PartitionIndex = r.Int32()
			p.CurrentLeaderEpoch = r.Int32()
			p.Timestamp = r.Int64()
			r.TagSection()
			t.Partitions = append(t.Partitions, p)
		}
		r.TagSection()
		req.Topics = append(req.Topics, t)
	}
	r.TagSection()
	return req
}

func (req ListOffsetsRequest) Encode(w *kbin.Writer) {
	w.Int32(req.ReplicaID)
	w.Int8(req.IsolationLevel)
	w.CompactArrayLen(len(req.Topics))
	for _, t := range req.Topics {
		w.CompactString(t.Name)
		w.CompactArrayLen(len(t.Partitions))
		for _, p := range t.Partitions {
			w.Int32(p.PartitionIndex)
			w.Int32(p.CurrentLeaderEpoch)
			w.Int64(p.Timestamp)
			w.EmptyTagSection()
		}
		w.EmptyTagSection()
	}
	w.EmptyTagSection()
}

// ListOffsetsResponsePartition answers one partition.
type ListOffsetsResponsePartition struct {
	PartitionIndex int32
	ErrorCode      int16
	Timestamp      int64
	Offset         int64
}

// ListOffsetsResponseTopic is one topic's partitions in a ListOffsetsResponse.
type ListOffsetsResponseTopic struct {
	Name       string
	Partitions []ListOffsetsResponsePartition
}

// ListOffsetsResponse answers a ListOffsetsRequest.
type ListOffsetsResponse struct {
	ThrottleTimeMs int32
	Topics         []ListOffsetsResponseTopic
}

func (resp ListOffsetsResponse) Encode(w *kbin.Writer) {
	w.Int32(resp.ThrottleTimeMs)
	w.CompactArrayLen(len(resp.Topics))
	for _, t := range resp.Topics {
		w.CompactString(t.Name)
		w.CompactArrayLen(len(t.Partitions))
		for _, p := range t.Partitions {
			w.Int32(p.PartitionIndex)
			w.Int16(p.ErrorCode)
			w.Int64(p.Timestamp)
			w.Int64(p.Offset)
			w.EmptyTagSection()
		}
		w.EmptyTagSection()
	}
	w.EmptyTagSection()
}

func DecodeListOffsetsResponse(r *kbin.Reader) ListOffsetsResponse {
	var resp ListOffsetsResponse
	resp.ThrottleTimeMs = r.Int32()
	n := r.CompactArrayLen()
	resp.Topics = make([]ListOffsetsResponseTopic, 0, max0(n))
	for i := 0; i < n; i++ {
		var t ListOffsetsResponseTopic
		t.Name = r.CompactString()
		pn := r.CompactArrayLen()
		t.Partitions = make([]ListOffsetsResponsePartition, 0, max0(pn))
		for j := 0; j < pn; j++ {
			var p ListOffsetsResponsePartition
			p.PartitionIndex = r.Int32()
			p.ErrorCode = r.Int16()
			p.Timestamp = r.Int64()
			p.Offset = r.Int64()
			r.TagSection()
			t.Partitions = append(t.Partitions, p)
		}
		r.TagSection()
		resp.Topics = append(resp.Topics, t)
	}
	r.TagSection()
	return resp
}
