package frame

import (
	"github.com/google/uuid"
	"github.com/shake-karrot/kafkabroker/internal/kbin"
)

// CreatableTopicConfig is one config override in a CreateTopics request.
type CreatableTopicConfig struct {
	Name  string
	Value *string
}

// CreatableTopic is one topic a CreateTopicsRequest asks to create.
type CreatableTopic struct {
	Name              string
	NumPartitions     int32
	ReplicationFactor int16
	Configs           []CreatableTopicConfig
}

// CreateTopicsRequest is modeled at its current flexible version (v5).
type CreateTopicsRequest struct {
	Topics       []CreatableTopic
	TimeoutMs    int32
	ValidateOnly bool
}

func DecodeCreateTopicsRequest(r *kbin.Reader) CreateTopicsRequest {
	var req CreateTopicsRequest
	n := r.CompactArrayLen()
	req.Topics = make([]CreatableTopic, 0, max0(n))
	for i := 0; i < n; i++ {
		var t CreatableTopic
		t.Name = r.CompactString()
		t.NumPartitions = r.Int32()
		t.ReplicationFactor = r.Int16()
		cn := r.CompactArrayLen()
		for j := 0; j < cn; j++ {
			var c CreatableTopicConfig
			c.Name = r.CompactString()
			c.Value = r.NullableCompactString()
			r.TagSection()
			t.Configs = append(t.Configs, c)
		}
		r.TagSection()
		req.Topics = append(req.Topics, t)
	}
	req.TimeoutMs = r.Int32()
	req.ValidateOnly = r.Bool()
	r.TagSection()
	return req
}

func (req CreateTopicsRequest) Encode(w *kbin.Writer) {
	w.CompactArrayLen(len(req.Topics))
	for _, t := range req.Topics {
		w.CompactString(t.Name)
		w.Int32(t.NumPartitions)
		w.Int16(t.ReplicationFactor)
		w.CompactArrayLen(len(t.Configs))
		for _, c := range t.Configs {
			w.CompactString(c.Name)
			w.NullableCompactString(c.Value)
			w.EmptyTagSection()
		}
		w.EmptyTagSection()
	}
	w.Int32(req.TimeoutMs)
	w.Bool(req.ValidateOnly)
	w.EmptyTagSection()
}

// CreatableTopicResult is one topic's creation result.
type CreatableTopicResult struct {
	Name              string
	TopicID           uuid.UUID
	ErrorCode         int16
	ErrorMessage      *string
	NumPartitions     int32
	ReplicationFactor int16
}

// CreateTopicsResponse answers a CreateTopicsRequest.
type CreateTopicsResponse struct {
	ThrottleTimeMs int32
	Topics         []CreatableTopicResult
}

func (resp CreateTopicsResponse) Encode(w *kbin.Writer) {
	w.Int32(resp.ThrottleTimeMs)
	w.CompactArrayLen(len(resp.Topics))
	for _, t := range resp.Topics {
		w.CompactString(t.Name)
		w.UUID(t.TopicID)
		w.Int16(t.ErrorCode)
		w.NullableCompactString(t.ErrorMessage)
		w.Int32(t.NumPartitions)
		w.Int16(t.ReplicationFactor)
		w.CompactArrayLen(0) // configs, never populated in responses
		w.EmptyTagSection()
	}
	w.EmptyTagSection()
}

func DecodeCreateTopicsResponse(r *kbin.Reader) CreateTopicsResponse {
	var resp CreateTopicsResponse
	resp.ThrottleTimeMs = r.Int32()
	n := r.CompactArrayLen()
	resp.Topics = make([]CreatableTopicResult, 0, max0(n))
	for i := 0; i < n; i++ {
		var t CreatableTopicResult
		t.Name = r.CompactString()
		t.TopicID = r.UUID()
		t.ErrorCode = r.Int16()
		t.ErrorMessage = r.NullableCompactString()
		t.NumPartitions = r.Int32()
		t.ReplicationFactor = r.Int16()
		r.CompactArrayLen() // configs, discarded
		r.TagSection()
		resp.Topics = append(resp.Topics, t)
	}
	r.TagSection()
	return resp
}

// DeleteTopicsRequest is modeled at its current flexible version (v6).
type DeleteTopicsRequest struct {
	TopicNames []string
	TimeoutMs  int32
}

func DecodeDeleteTopicsRequest(r *kbin.Reader) DeleteTopicsRequest {
	var req DeleteTopicsRequest
	n := r.CompactArrayLen()
	for i := 0; i < n; i++ {
		req.TopicNames = append(req.TopicNames, r.CompactString())
	}
	req.TimeoutMs = r.Int32()
	r.TagSection()
	return req
}

func (req DeleteTopicsRequest) Encode(w *kbin.Writer) {
	w.CompactArrayLen(len(req.TopicNames))
	for _, n := range req.TopicNames {
		w.CompactString(n)
	}
	w.Int32(req.TimeoutMs)
	w.EmptyTagSection()
}

// DeletableTopicResult is one topic's deletion result.
type DeletableTopicResult struct {
	Name         string
	ErrorCode    int16
	ErrorMessage *string
}

// DeleteTopicsResponse answers a DeleteTopicsRequest.
type DeleteTopicsResponse struct {
	ThrottleTimeMs int32
	Responses      []DeletableTopicResult
}

func (resp DeleteTopicsResponse) Encode(w *kbin.Writer) {
	w.Int32(resp.ThrottleTimeMs)
	w.CompactArrayLen(len(resp.Responses))
	for _, t := range resp.Responses {
		w.CompactString(t.Name)
		w.Int16(t.ErrorCode)
		w.NullableCompactString(t.ErrorMessage)
		w.EmptyTagSection()
	}
	w.EmptyTagSection()
}

func DecodeDeleteTopicsResponse(r *kbin.Reader) DeleteTopicsResponse {
	var resp DeleteTopicsResponse
	resp.ThrottleTimeMs = r.Int32()
	n := r.CompactArrayLen()
	resp.Responses = make([]DeletableTopicResult, 0, max0(n))
	for i := 0; i < n; i++ {
		var t DeletableTopicResult
		t.Name = r.CompactString()
		t.ErrorCode = r.Int16()
		t.ErrorMessage = r.NullableCompactString()
		r.TagSection()
		resp.Responses = append(resp.Responses, t)
	}
	r.TagSection()
	return resp
}

// DeleteRecordsRequestPartition names a partition and the offset before
// which its records should be deleted.
type DeleteRecordsRequestPartition struct {
	PartitionIndex int32
	Offset         int64
}

// DeleteRecordsRequestTopic is one topic's partitions in a
// DeleteRecordsRequest.
type DeleteRecordsRequestTopic struct {
	Name       string
	Partitions []DeleteRecordsRequestPartition
}

// DeleteRecordsRequest is modeled at its current flexible version (v2).
type DeleteRecordsRequest struct {
	Topics    []DeleteRecordsRequestTopic
	TimeoutMs int32
}

func DecodeDeleteRecordsRequest(r *kbin.Reader) DeleteRecordsRequest {
	var req DeleteRecordsRequest
	n := r.CompactArrayLen()
	req.Topics = make([]DeleteRecordsRequestTopic, 0, max0(n))
	for i := 0; i < n; i++ {
		var t DeleteRecordsRequestTopic
		t.Name = r.CompactString()
		pn := r.CompactArrayLen()
		for j := 0; j < pn; j++ {
			var p DeleteRecordsRequestPartition
			p.PartitionIndex = r.Int32()
			p.Offset = r.Int64()
			r.TagSection()
			t.Partitions = append(t.Partitions, p)
		}
		r.TagSection()
		req.Topics = append(req.Topics, t)
	}
	req.TimeoutMs = r.Int32()
	r.TagSection()
	return req
}

func (req DeleteRecordsRequest) Encode(w *kbin.Writer) {
	w.CompactArrayLen(len(req.Topics))
	for _, t := range req.Topics {
		w.CompactString(t.Name)
		w.CompactArrayLen(len(t.Partitions))
		for _, p := range t.Partitions {
			w.Int32(p.PartitionIndex)
			w.Int64(p.Offset)
			w.EmptyTagSection()
		}
		w.EmptyTagSection()
	}
	w.Int32(req.TimeoutMs)
	w.EmptyTagSection()
}

// DeleteRecordsResponsePartition answers one partition.
type DeleteRecordsResponsePartition struct {
	PartitionIndex int32
	LowWatermark   int64
	ErrorCode      int16
}

// DeleteRecordsResponseTopic is one topic's partitions in a
// DeleteRecordsResponse.
type DeleteRecordsResponseTopic struct {
	Name       string
	Partitions []DeleteRecordsResponsePartition
}

// DeleteRecordsResponse answers a DeleteRecordsRequest.
type DeleteRecordsResponse struct {
	ThrottleTimeMs int32
	Topics         []DeleteRecordsResponseTopic
}

func (resp DeleteRecordsResponse) Encode(w *kbin.Writer) {
	w.Int32(resp.ThrottleTimeMs)
	w.CompactArrayLen(len(resp.Topics))
	for _, t := range resp.Topics {
		w.CompactString(t.Name)
		w.CompactArrayLen(len(t.Partitions))
		for _, p := range t.Partitions {
			w.Int32(p.PartitionIndex)
			w.Int64(p.LowWatermark)
			w.Int16(p.ErrorCode)
			w.EmptyTagSection()
		}
		w.EmptyTagSection()
	}
	w.EmptyTagSection()
}

func DecodeDeleteRecordsResponse(r *kbin.Reader) DeleteRecordsResponse {
	var resp DeleteRecordsResponse
	resp.ThrottleTimeMs = r.Int32()
	n := r.CompactArrayLen()
	resp.Topics = make([]DeleteRecordsResponseTopic, 0, max0(n))
	for i := 0; i < n; i++ {
		var t DeleteRecordsResponseTopic
		t.Name = r.CompactString()
		pn := r.CompactArrayLen()
		t.Partitions = make([]DeleteRecordsResponsePartition, 0, max0(pn))
		for j := 0; j < pn; j++ {
			var p DeleteRecordsResponsePartition
			p.PartitionIndex = r.Int32()
			p.LowWatermark = r.Int64()
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
