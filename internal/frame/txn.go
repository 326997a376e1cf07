package frame

import "github.com/shake-karrot/kafkabroker/internal/kbin"

// InitProducerIdRequest is modeled at its current flexible version (v2).
type InitProducerIdRequest struct {
	TransactionalID      *string
	TransactionTimeoutMs int32
	ProducerID           int64
	ProducerEpoch        int16
}

func DecodeInitProducerIdRequest(r *kbin.Reader) InitProducerIdRequest {
	var req InitProducerIdRequest
	req.TransactionalID = r.NullableCompactString()
	req.TransactionTimeoutMs = r.Int32()
	req.ProducerID = r.Int64()
	req.ProducerEpoch = r.Int16()
	r.TagSection()
	return req
}

func (req InitProducerIdRequest) Encode(w *kbin.Writer) {
	w.NullableCompactString(req.TransactionalID)
	w.Int32(req.TransactionTimeoutMs)
	w.Int64(req.ProducerID)
	w.Int16(req.ProducerEpoch)
	w.EmptyTagSection()
}

// InitProducerIdResponse answers an InitProducerIdRequest.
type InitProducerIdResponse struct {
	ThrottleTimeMs int32
	ErrorCode      int16
	ProducerID     int64
	ProducerEpoch  int16
}

func (resp InitProducerIdResponse) Encode(w *kbin.Writer) {
	w.Int32(resp.ThrottleTimeMs)
	w.Int16(resp.ErrorCode)
	w.Int64(resp.ProducerID)
	w.Int16(resp.ProducerEpoch)
	w.EmptyTagSection()
}

func DecodeInitProducerIdResponse(r *kbin.Reader) InitProducerIdResponse {
	var resp InitProducerIdResponse
	resp.ThrottleTimeMs = r.Int32()
	resp.ErrorCode = r.Int16()
	resp.ProducerID = r.Int64()
	resp.ProducerEpoch = r.Int16()
	r.TagSection()
	return resp
}

// AddPartitionsToTxnTopic is one topic's partitions being added to a
// transaction.
type AddPartitionsToTxnTopic struct {
	Name       string
	Partitions []int32
}

// AddPartitionsToTxnRequest is modeled at its current flexible version (v3).
type AddPartitionsToTxnRequest struct {
	TransactionalID string
	ProducerID      int64
	ProducerEpoch   int16
	Topics          []AddPartitionsToTxnTopic
}

func DecodeAddPartitionsToTxnRequest(r *kbin.Reader) AddPartitionsToTxnRequest {
	var req AddPartitionsToTxnRequest
	req.TransactionalID = r.CompactString()
	req.ProducerID = r.Int64()
	req.ProducerEpoch = r.Int16()
	n := r.CompactArrayLen()
	req.Topics = make([]AddPartitionsToTxnTopic, 0, max0(n))
	for i := 0; i < n; i++ {
		var t AddPartitionsToTxnTopic
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

func (req AddPartitionsToTxnRequest) Encode(w *kbin.Writer) {
	w.CompactString(req.TransactionalID)
	w.Int64(req.ProducerID)
	w.Int16(req.ProducerEpoch)
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

// AddPartitionsToTxnResultTopic is one topic's per-partition results.
type AddPartitionsToTxnResultTopic struct {
	Name       string
	Partitions []AddPartitionsToTxnResultPartition
}

// AddPartitionsToTxnResultPartition answers one partition.
type AddPartitionsToTxnResultPartition struct {
	PartitionIndex int32
	ErrorCode      int16
}

// AddPartitionsToTxnResponse answers an AddPartitionsToTxnRequest.
type AddPartitionsToTxnResponse struct {
	ThrottleTimeMs int32
	Results        []AddPartitionsToTxnResultTopic
}

func (resp AddPartitionsToTxnResponse) Encode(w *kbin.Writer) {
	w.Int32(resp.ThrottleTimeMs)
	w.CompactArrayLen(len(resp.Results))
	for _, t := range resp.Results {
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

func DecodeAddPartitionsToTxnResponse(r *kbin.Reader) AddPartitionsToTxnResponse {
	var resp AddPartitionsToTxnResponse
	resp.ThrottleTimeMs = r.Int32()
	n := r.CompactArrayLen()
	resp.Results = make([]AddPartitionsToTxnResultTopic, 0, max0(n))
	for i := 0; i < n; i++ {
		var t AddPartitionsToTxnResultTopic
		t.Name = r.CompactString()
		pn := r.CompactArrayLen()
		t.Partitions = make([]AddPartitionsToTxnResultPartition, 0, max0(pn))
		for j := 0; j < pn; j++ {
			var p AddPartitionsToTxnResultPartition
			p.PartitionIndex = r.Int32()
			p.ErrorCode = r.Int16()
			r.TagSection()
			t.Partitions = append(t.Partitions, p)
		}
		r.TagSection()
		resp.Results = append(resp.Results, t)
	}
	r.TagSection()
	return resp
}

// AddOffsetsToTxnRequest is modeled at its current flexible version (v3).
type AddOffsetsToTxnRequest struct {
	TransactionalID string
	ProducerID      int64
	ProducerEpoch   int16
	GroupID         string
}

func DecodeAddOffsetsToTxnRequest(r *kbin.Reader) AddOffsetsToTxnRequest {
	var req AddOffsetsToTxnRequest
	req.TransactionalID = r.CompactString()
	req.ProducerID = r.Int64()
	req.ProducerEpoch = r.Int16()
	req.GroupID = r.CompactString()
	r.TagSection()
	return req
}

func (req AddOffsetsToTxnRequest) Encode(w *kbin.Writer) {
	w.CompactString(req.TransactionalID)
	w.Int64(req.ProducerID)
	w.Int16(req.ProducerEpoch)
	w.CompactString(req.GroupID)
	w.EmptyTagSection()
}

// AddOffsetsToTxnResponse answers an AddOffsetsToTxnRequest.
type AddOffsetsToTxnResponse struct {
	ThrottleTimeMs int32
	ErrorCode      int16
}

func (resp AddOffsetsToTxnResponse) Encode(w *kbin.Writer) {
	w.Int32(resp.ThrottleTimeMs)
	w.Int16(resp.ErrorCode)
	w.EmptyTagSection()
}

func DecodeAddOffsetsToTxnResponse(r *kbin.Reader) AddOffsetsToTxnResponse {
	var resp AddOffsetsToTxnResponse
	resp.ThrottleTimeMs = r.Int32()
	resp.ErrorCode = r.Int16()
	r.TagSection()
	return resp
}

// EndTxnRequest is modeled at its current flexible version (v3).
type EndTxnRequest struct {
	TransactionalID string
	ProducerID      int64
	ProducerEpoch   int16
	Committed       bool
}

func DecodeEndTxnRequest(r *kbin.Reader) EndTxnRequest {
	var req EndTxnRequest
	req.TransactionalID = r.CompactString()
	req.ProducerID = r.Int64()
	req.ProducerEpoch = r.Int16()
	req.Committed = r.Bool()
	r.TagSection()
	return req
}

func (req EndTxnRequest) Encode(w *kbin.Writer) {
	w.CompactString(req.TransactionalID)
	w.Int64(req.ProducerID)
	w.Int16(req.ProducerEpoch)
	w.Bool(req.Committed)
	w.EmptyTagSection()
}

// EndTxnResponse answers an EndTxnRequest. Per the documented decision, the
// offset returned to a subsequent Fetch reflects the commit immediately:
// this broker's in-memory single-node log has no asynchronous
// index-rebuild lag for a client to wait out.
type EndTxnResponse struct {
	ThrottleTimeMs int32
	ErrorCode      int16
}

func (resp EndTxnResponse) Encode(w *kbin.Writer) {
	w.Int32(resp.ThrottleTimeMs)
	w.Int16(resp.ErrorCode)
	w.EmptyTagSection()
}

func DecodeEndTxnResponse(r *kbin.Reader) EndTxnResponse {
	var resp EndTxnResponse
	resp.ThrottleTimeMs = r.Int32()
	resp.ErrorCode = r.Int16()
	r.TagSection()
	return resp
}

// TxnOffsetCommitRequestPartition is one partition's offset within a
// transactional commit.
type TxnOffsetCommitRequestPartition struct {
	PartitionIndex int32
	CommittedOffset int64
	CommittedLeaderEpoch int32
	CommittedMetadata *string
}

// TxnOffsetCommitRequestTopic is one topic's partitions.
type TxnOffsetCommitRequestTopic struct {
	Name       string
	Partitions []TxnOffsetCommitRequestPartition
}

// TxnOffsetCommitRequest is modeled at its current flexible version (v3).
type TxnOffsetCommitRequest struct {
	TransactionalID string
	GroupID         string
	ProducerID      int64
	ProducerEpoch   int16
	Topics          []TxnOffsetCommitRequestTopic
}

func DecodeTxnOffsetCommitRequest(r *kbin.Reader) TxnOffsetCommitRequest {
	var req TxnOffsetCommitRequest
	req.TransactionalID = r.CompactString()
	req.GroupID = r.CompactString()
	req.ProducerID = r.Int64()
	req.ProducerEpoch = r.Int16()
	n := r.CompactArrayLen()
	req.Topics = make([]TxnOffsetCommitRequestTopic, 0, max0(n))
	for i := 0; i < n; i++ {
		var t TxnOffsetCommitRequestTopic
		t.Name = r.CompactString()
		pn := r.CompactArrayLen()
		t.Partitions = make([]TxnOffsetCommitRequestPartition, 0, max0(pn))
		for j := 0; j < pn; j++ {
			var p TxnOffsetCommitRequestPartition
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

func (req TxnOffsetCommitRequest) Encode(w *kbin.Writer) {
	w.CompactString(req.TransactionalID)
	w.CompactString(req.GroupID)
	w.Int64(req.ProducerID)
	w.Int16(req.ProducerEpoch)
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

// TxnOffsetCommitResponseTopic is one topic's per-partition results.
type TxnOffsetCommitResponseTopic struct {
	Name       string
	Partitions []TxnOffsetCommitResponsePartition
}

// TxnOffsetCommitResponsePartition answers one partition.
type TxnOffsetCommitResponsePartition struct {
	PartitionIndex int32
	ErrorCode      int16
}

// TxnOffsetCommitResponse answers a TxnOffsetCommitRequest.
type TxnOffsetCommitResponse struct {
	ThrottleTimeMs int32
	Topics         []TxnOffsetCommitResponseTopic
}

func (resp TxnOffsetCommitResponse) Encode(w *kbin.Writer) {
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

func DecodeTxnOffsetCommitResponse(r *kbin.Reader) TxnOffsetCommitResponse {
	var resp TxnOffsetCommitResponse
	resp.ThrottleTimeMs = r.Int32()
	n := r.CompactArrayLen()
	resp.Topics = make([]TxnOffsetCommitResponseTopic, 0, max0(n))
	for i := 0; i < n; i++ {
		var t TxnOffsetCommitResponseTopic
		t.Name = r.CompactString()
		pn := r.CompactArrayLen()
		t.Partitions = make([]TxnOffsetCommitResponsePartition, 0, max0(pn))
		for j := 0; j < pn; j++ {
			var p TxnOffsetCommitResponsePartition
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
