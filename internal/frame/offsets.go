package frame

import "github.com/shake-karrot/kafkabroker/internal/kbin"

// OffsetCommitRequestPartition is one partition's offset to commit.
type OffsetCommitRequestPartition struct {
	PartitionIndex       int32
	CommittedOffset      int64
	CommittedLeaderEpoch int32
	CommittedMetadata    *string
}

// OffsetCommitRequestTopic is one topic's partitions in an OffsetCommitRequest.
type OffsetCommitRequestTopic struct {
	Name       string
	Partitions []OffsetCommitRequestPartition
}

// OffsetCommitRequest is modeled at its current flexible version (v8).
type OffsetCommitRequest struct {
	GroupID      string
	GenerationID int32
	MemberID     string
	Topics       []OffsetCommitRequestTopic
}

func DecodeOffsetCommitRequest(r *kbin.Reader) OffsetCommitRequest {
	var req OffsetCommitRequest
	req.GroupID = r.CompactString()
	req.GenerationID = r.Int32()
	req.MemberID = r.CompactString()
	n := r.CompactArrayLen()
	req.Topics = make([]OffsetCommitRequestTopic, 0, max0(n))
	for i := 0; i < n; i++ {
		var t OffsetCommitRequestTopic
		t.Name = r.CompactString()
		pn := r.CompactArrayLen()
		t.Partitions = make([]OffsetCommitRequestPartition, 0, max0(pn))
		for j := 0; j < pn; j++ {
			var p OffsetCommitRequestPartition
			p.PartitionIndex = r.Int32()
			p.CommittedOffset = r.Int64()
			p.CommittedLeaderEpoch = r.Int32()
			p.CommittedMetadata = r.NullableCompactString()
			r.TagSection()
			t.Partitions = append(t.Partitions, p)
		}
		r.TagSection()
		req.Topics = append(req.Topics, t)
	}
	r.TagSection()
	return req
}

func (req OffsetCommitRequest) Encode(w *kbin.Writer) {
	w.CompactString(req.GroupID)
	w.Int32(req.GenerationID)
	w.CompactString(req.MemberID)
	w.CompactArrayLen(len(req.Topics))
	for _, t := range req.Topics {
		w.CompactString(t.Name)
		w.CompactArrayLen(len(t.Partitions))
		for _, p := range t.Partitions {
			w.Int32(p.PartitionIndex)
			w.Int64(p.CommittedOffset)
			w.Int32(p.CommittedLeaderEpoch)
			w.NullableCompactString(p.CommittedMetadata)
			w.EmptyTagSection()
		}
		w.EmptyTagSection()
	}
	w.EmptyTagSection()
}

// OffsetCommitResponsePartition answers one partition.
type OffsetCommitResponsePartition struct {
	PartitionIndex int32
	ErrorCode      int16
}

// OffsetCommitResponseTopic is one topic's partitions in an OffsetCommitResponse.
type OffsetCommitResponseTopic struct {
	Name       string
	Partitions []OffsetCommitResponsePartition
}

// OffsetCommitResponse answers an OffsetCommitRequest.
type OffsetCommitResponse struct {
	ThrottleTimeMs int32
	Topics         []OffsetCommitResponseTopic
}

func (resp OffsetCommitResponse) Encode(w *kbin.Writer) {
	w.Int32(resp.ThrottleTimeMs)
	w.CompactArrayLen(len(resp.Topics))
	for _, t := range resp.Topics {
		w.CompactString(t.Name)
		w.CompactArrayLen(len(t.Partitions))
		for _, p := range t.Partitions {
			w.Int32(p.PartitionIndex)
			w.Int16(p.ErrorCode)
			w.EmptyTagSection()
		}
		w.EmptyTagSection()
	}
	w.EmptyTagSection()
}

func DecodeOffsetCommitResponse(r *kbin.Reader) OffsetCommitResponse {
	var resp OffsetCommitResponse
	resp.ThrottleTimeMs = r.Int32()
	n := r.CompactArrayLen()
	resp.Topics = make([]OffsetCommitResponseTopic, 0, max0(n))
	for i := 0; i < n; i++ {
		var t OffsetCommitResponseTopic
		t.Name = r.CompactString()
		pn := r.CompactArrayLen()
		t.Partitions = make([]OffsetCommitResponsePartition, 0, max0(pn))
		for j := 0; j < pn; j++ {
			var p OffsetCommitResponsePartition
			p.PartitionIndex = r.Int32()
			p.ErrorCode = r.Int16()
			r.TagSection()
			t.Partitions = append(t.Partitions, p)
		}
		r.TagSection()
		resp.Topics = append(resp.Topics, t)
	}
	r.TagSection()
	return resp
}

// OffsetFetchRequestTopic names a topic and (optionally) a subset of its
// partitions; a nil Partitions means "every partition the group has
// committed for this topic".
type OffsetFetchRequestTopic struct {
	Name       string
	Partitions []int32
}

// OffsetFetchRequest is modeled at its current flexible version (v6).
type OffsetFetchRequest struct {
	GroupID string
	Topics  []OffsetFetchRequestTopic
}

func DecodeOffsetFetchRequest(r *kbin.Reader) OffsetFetchRequest {
	var req OffsetFetchRequest
	req.GroupID = r.CompactString()
	n := r.CompactArrayLen()
	req.Topics = make([]OffsetFetchRequestTopic, 0, max0(n))
	for i := 0; i < n; i++ {
		var t OffsetFetchRequestTopic
		t.Name = r.CompactString()
		pn := r.CompactArrayLen()
		for j := 0; j < pn; j++ {
			t.Partitions = append(t.Partitions, r.Int32())
		}
		r.TagSection()
		req.Topics = append(req.Topics, t)
	}
	r.TagSection()
	return req
}

func (req OffsetFetchRequest) Encode(w *kbin.Writer) {
	w.CompactString(req.GroupID)
	w.CompactArrayLen(len(req.Topics))
	for _, t := range req.Topics {
		w.CompactString(t.Name)
		w.CompactArrayLen(len(t.Partitions))
		for _, p := range t.Partitions {
			w.Int32(p)
		}
		w.EmptyTagSection()
	}
	w.EmptyTagSection()
}

// OffsetFetchResponsePartition answers one partition.
type OffsetFetchResponsePartition struct {
	PartitionIndex  int32
	CommittedOffset int64
	Metadata        *string
	ErrorCode       int16
}

// OffsetFetchResponseTopic is one topic's partitions in an OffsetFetchResponse.
type OffsetFetchResponseTopic struct {
	Name       string
	Partitions []OffsetFetchResponsePartition
}

// OffsetFetchResponse answers an OffsetFetchRequest.
type OffsetFetchResponse struct {
	ThrottleTimeMs int32
	Topics         []OffsetFetchResponseTopic
	ErrorCode      int16
}

func (resp OffsetFetchResponse) Encode(w *kbin.Writer) {
	w.Int32(resp.ThrottleTimeMs)
	w.CompactArrayLen(len(resp.Topics))
	for _, t := range resp.Topics {
		w.CompactString(t.Name)
		w.CompactArrayLen(len(t.Partitions))
		for _, p := range t.Partitions {
			w.Int32(p.PartitionIndex)
			w.Int64(p.CommittedOffset)
			w.NullableCompactString(p.Metadata)
			w.Int16(p.ErrorCode)
			w.EmptyTagSection()
		}
		w.EmptyTagSection()
	}
	w.Int16(resp.ErrorCode)
	w.EmptyTagSection()
}

func DecodeOffsetFetchResponse(r *kbin.Reader) OffsetFetchResponse {
	var resp OffsetFetchResponse
	resp.ThrottleTimeMs = r.Int32()
	n := r.CompactArrayLen()
	resp.Topics = make([]OffsetFetchResponseTopic, 0, max0(n))
	for i := 0; i < n; i++ {
		var t OffsetFetchResponseTopic
		t.Name = r.CompactString()
		pn := r.CompactArrayLen()
		t.Partitions = make([]OffsetFetchResponsePartition, 0, max0(pn))
		for j := 0; j < pn; j++ {
			var p OffsetFetchResponsePartition
			p.PartitionIndex = r.Int32()
			p.CommittedOffset = r.Int64()
			p.Metadata = r.NullableCompactString()
			p.ErrorCode = r.Int16()
			r.TagSection()
			t.Partitions = append(t.Partitions, p)
		}
		r.TagSection()
		resp.Topics = append(resp.Topics, t)
	}
	resp.ErrorCode = r.Int16()
	r.TagSection()
	return resp
}
