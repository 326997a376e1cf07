package frame

import (
	"github.com/google/uuid"
	"github.com/shake-karrot/kafkabroker/internal/kbin"
)

// DescribeConfigsResource names one resource (topic or broker) and,
// optionally, a subset of its config keys.
type DescribeConfigsResource struct {
	ResourceType int8
	ResourceName string
	ConfigNames  []string
}

// DescribeConfigsRequest is modeled at its current flexible version (v4).
type DescribeConfigsRequest struct {
	Resources                  []DescribeConfigsResource
	IncludeSynonyms            bool
	IncludeDocumentation       bool
}

func DecodeDescribeConfigsRequest(r *kbin.Reader) DescribeConfigsRequest {
	var req DescribeConfigsRequest
	n := r.CompactArrayLen()
	req.Resources = make([]DescribeConfigsResource, 0, max0(n))
	for i := 0; i < n; i++ {
		var res DescribeConfigsResource
		res.ResourceType = r.Int8()
		res.ResourceName = r.CompactString()
		cn := r.CompactArrayLen()
		for j := 0; j < cn; j++ {
			res.ConfigNames = append(res.ConfigNames, r.CompactString())
		}
		r.TagSection()
		req.Resources = append(req.Resources, res)
	}
	req.IncludeSynonyms = r.Bool()
	req.IncludeDocumentation = r.Bool()
	r.TagSection()
	return req
}

func (req DescribeConfigsRequest) Encode(w *kbin.Writer) {
	w.CompactArrayLen(len(req.Resources))
	for _, res := range req.Resources {
		w.Int8(res.ResourceType)
		w.CompactString(res.ResourceName)
		w.CompactArrayLen(len(res.ConfigNames))
		for _, c := range res.ConfigNames {
			w.CompactString(c)
		}
		w.EmptyTagSection()
	}
	w.Bool(req.IncludeSynonyms)
	w.Bool(req.IncludeDocumentation)
	w.EmptyTagSection()
}

// DescribeConfigsResponseSynonym is an alternate source for a config value.
type DescribeConfigsResponseSynonym struct {
	Name   string
	Value  *string
	Source int8
}

// DescribeConfigsResponseEntry is one config key/value pair.
type DescribeConfigsResponseEntry struct {
	Name         string
	Value        *string
	ReadOnly     bool
	Sensitive    bool
	Synonyms     []DescribeConfigsResponseSynonym
	Documentation *string
}

// DescribeConfigsResponseResult is one resource's full config listing.
type DescribeConfigsResponseResult struct {
	ErrorCode    int16
	ErrorMessage *string
	ResourceType int8
	ResourceName string
	Configs      []DescribeConfigsResponseEntry
}

// DescribeConfigsResponse answers a DescribeConfigsRequest.
type DescribeConfigsResponse struct {
	ThrottleTimeMs int32
	Results        []DescribeConfigsResponseResult
}

func (resp DescribeConfigsResponse) Encode(w *kbin.Writer) {
	w.Int32(resp.ThrottleTimeMs)
	w.CompactArrayLen(len(resp.Results))
	for _, res := range resp.Results {
		w.Int16(res.ErrorCode)
		w.NullableCompactString(res.ErrorMessage)
		w.Int8(res.ResourceType)
		w.CompactString(res.ResourceName)
		w.CompactArrayLen(len(res.Configs))
		for _, c := range res.Configs {
			w.CompactString(c.Name)
			w.NullableCompactString(c.Value)
			w.Bool(c.ReadOnly)
			w.Bool(c.Sensitive)
			w.CompactArrayLen(len(c.Synonyms))
			for _, s := range c.Synonyms {
				w.CompactString(s.Name)
				w.NullableCompactString(s.Value)
				w.Int8(s.Source)
				w.EmptyTagSection()
			}
			w.NullableCompactString(c.Documentation)
			w.EmptyTagSection()
		}
		w.EmptyTagSection()
	}
	w.EmptyTagSection()
}

func DecodeDescribeConfigsResponse(r *kbin.Reader) DescribeConfigsResponse {
	var resp DescribeConfigsResponse
	resp.ThrottleTimeMs = r.Int32()
	n := r.CompactArrayLen()
	resp.Results = make([]DescribeConfigsResponseResult, 0, max0(n))
	for i := 0; i < n; i++ {
		var res DescribeConfigsResponseResult
		res.ErrorCode = r.Int16()
		res.ErrorMessage = r.NullableCompactString()
		res.ResourceType = r.Int8()
		res.ResourceName = r.CompactString()
		cn := r.CompactArrayLen()
		res.Configs = make([]DescribeConfigsResponseEntry, 0, max0(cn))
		for j := 0; j < cn; j++ {
			var c DescribeConfigsResponseEntry
			c.Name = r.CompactString()
			c.Value = r.NullableCompactString()
			c.ReadOnly = r.Bool()
			c.Sensitive = r.Bool()
			sn := r.CompactArrayLen()
			for k := 0; k < sn; k++ {
				var s DescribeConfigsResponseSynonym
				s.Name = r.CompactString()
				s.Value = r.NullableCompactString()
				s.Source = r.Int8()
				r.TagSection()
				c.Synonyms = append(c.Synonyms, s)
			}
			c.Documentation = r.NullableCompactString()
			r.TagSection()
			res.Configs = append(res.Configs, c)
		}
		r.TagSection()
		resp.Results = append(resp.Results, res)
	}
	r.TagSection()
	return resp
}

// DescribeClusterRequest is modeled at its current flexible version (v1).
type DescribeClusterRequest struct {
	IncludeClusterAuthorizedOperations bool
	EndpointType                       int8
}

func DecodeDescribeClusterRequest(r *kbin.Reader) DescribeClusterRequest {
	var req DescribeClusterRequest
	req.IncludeClusterAuthorizedOperations = r.Bool()
	req.EndpointType = r.Int8()
	r.TagSection()
	return req
}

func (req DescribeClusterRequest) Encode(w *kbin.Writer) {
	w.Bool(req.IncludeClusterAuthorizedOperations)
	w.Int8(req.EndpointType)
	w.EmptyTagSection()
}

// DescribeClusterBroker is one broker in a DescribeClusterResponse.
type DescribeClusterBroker struct {
	BrokerID int32
	Host     string
	Port     int32
	Rack     *string
}

// DescribeClusterResponse answers a DescribeClusterRequest.
type DescribeClusterResponse struct {
	ThrottleTimeMs int32
	ErrorCode      int16
	ErrorMessage   *string
	ClusterID      string
	ControllerID   int32
	Brokers        []DescribeClusterBroker
}

func (resp DescribeClusterResponse) Encode(w *kbin.Writer) {
	w.Int32(resp.ThrottleTimeMs)
	w.Int16(resp.ErrorCode)
	w.NullableCompactString(resp.ErrorMessage)
	w.CompactString(resp.ClusterID)
	w.Int32(resp.ControllerID)
	w.CompactArrayLen(len(resp.Brokers))
	for _, b := range resp.Brokers {
		w.Int32(b.BrokerID)
		w.CompactString(b.Host)
		w.Int32(b.Port)
		w.NullableCompactString(b.Rack)
		w.EmptyTagSection()
	}
	w.EmptyTagSection()
}

func DecodeDescribeClusterResponse(r *kbin.Reader) DescribeClusterResponse {
	var resp DescribeClusterResponse
	resp.ThrottleTimeMs = r.Int32()
	resp.ErrorCode = r.Int16()
	resp.ErrorMessage = r.NullableCompactString()
	resp.ClusterID = r.CompactString()
	resp.ControllerID = r.Int32()
	n := r.CompactArrayLen()
	resp.Brokers = make([]DescribeClusterBroker, 0, max0(n))
	for i := 0; i < n; i++ {
		var b DescribeClusterBroker
		b.BrokerID = r.Int32()
		b.Host = r.CompactString()
		b.Port = r.Int32()
		b.Rack = r.NullableCompactString()
		r.TagSection()
		resp.Brokers = append(resp.Brokers, b)
	}
	r.TagSection()
	return resp
}

// ListPartitionReassignmentsRequestTopic names a topic and (optionally) a
// subset of its partitions to report reassignment progress for.
type ListPartitionReassignmentsRequestTopic struct {
	Name             string
	PartitionIndexes []int32
}

// ListPartitionReassignmentsRequest is modeled at its current flexible
// version (v0). This broker never reassigns partitions across brokers, so
// it always answers with an empty reassignment list.
type ListPartitionReassignmentsRequest struct {
	TimeoutMs int32
	Topics    []ListPartitionReassignmentsRequestTopic
}

func DecodeListPartitionReassignmentsRequest(r *kbin.Reader) ListPartitionReassignmentsRequest {
	var req ListPartitionReassignmentsRequest
	req.TimeoutMs = r.Int32()
	n := r.CompactArrayLen()
	for i := 0; i < n; i++ {
		var t ListPartitionReassignmentsRequestTopic
		t.Name = r.CompactString()
		pn := r.CompactArrayLen()
		for j := 0; j < pn; j++ {
			t.PartitionIndexes = append(t.PartitionIndexes, r.Int32())
		}
		r.TagSection()
		req.Topics = append(req.Topics, t)
	}
	r.TagSection()
	return req
}

func (req ListPartitionReassignmentsRequest) Encode(w *kbin.Writer) {
	w.Int32(req.TimeoutMs)
	w.CompactArrayLen(len(req.Topics))
	for _, t := range req.Topics {
		w.CompactString(t.Name)
		w.CompactArrayLen(len(t.PartitionIndexes))
		for _, p := range t.PartitionIndexes {
			w.Int32(p)
		}
		w.EmptyTagSection()
	}
	w.EmptyTagSection()
}

// ListPartitionReassignmentsResponse answers a
// ListPartitionReassignmentsRequest; TopicStatuses is always empty.
type ListPartitionReassignmentsResponse struct {
	ThrottleTimeMs int32
	ErrorCode      int16
	ErrorMessage   *string
}

func (resp ListPartitionReassignmentsResponse) Encode(w *kbin.Writer) {
	w.Int32(resp.ThrottleTimeMs)
	w.Int16(resp.ErrorCode)
	w.NullableCompactString(resp.ErrorMessage)
	w.CompactArrayLen(0) // topics, always empty: no cross-broker reassignment
	w.EmptyTagSection()
}

func DecodeListPartitionReassignmentsResponse(r *kbin.Reader) ListPartitionReassignmentsResponse {
	var resp ListPartitionReassignmentsResponse
	resp.ThrottleTimeMs = r.Int32()
	resp.ErrorCode = r.Int16()
	resp.ErrorMessage = r.NullableCompactString()
	r.CompactArrayLen()
	r.TagSection()
	return resp
}

// ConsumerGroupDescribeRequest is modeled at its current flexible version
// (v0); it answers with the same shape as DescribeGroups over a
// differently-keyed request used by newer consumer clients.
type ConsumerGroupDescribeRequest struct {
	GroupIDs                   []string
	IncludeAuthorizedOperations bool
}

func DecodeConsumerGroupDescribeRequest(r *kbin.Reader) ConsumerGroupDescribeRequest {
	var req ConsumerGroupDescribeRequest
	n := r.CompactArrayLen()
	for i := 0; i < n; i++ {
		req.GroupIDs = append(req.GroupIDs, r.CompactString())
	}
	req.IncludeAuthorizedOperations = r.Bool()
	r.TagSection()
	return req
}

func (req ConsumerGroupDescribeRequest) Encode(w *kbin.Writer) {
	w.CompactArrayLen(len(req.GroupIDs))
	for _, g := range req.GroupIDs {
		w.CompactString(g)
	}
	w.Bool(req.IncludeAuthorizedOperations)
	w.EmptyTagSection()
}

// ConsumerGroupDescribeMember is one member of a described group.
type ConsumerGroupDescribeMember struct {
	MemberID        string
	MemberEpoch     int32
	ClientID        string
	ClientHost      string
	SubscribedTopicNames []string
	Assignment      []int32
}

// ConsumerGroupDescribeGroup is one group's full description.
type ConsumerGroupDescribeGroup struct {
	ErrorCode    int16
	ErrorMessage *string
	GroupID      string
	GroupState   string
	GroupEpoch   int32
	Members      []ConsumerGroupDescribeMember
}

// ConsumerGroupDescribeResponse answers a ConsumerGroupDescribeRequest.
type ConsumerGroupDescribeResponse struct {
	ThrottleTimeMs int32
	Groups         []ConsumerGroupDescribeGroup
}

func (resp ConsumerGroupDescribeResponse) Encode(w *kbin.Writer) {
	w.Int32(resp.ThrottleTimeMs)
	w.CompactArrayLen(len(resp.Groups))
	for _, g := range resp.Groups {
		w.Int16(g.ErrorCode)
		w.NullableCompactString(g.ErrorMessage)
		w.CompactString(g.GroupID)
		w.CompactString(g.GroupState)
		w.Int32(g.GroupEpoch)
		w.CompactArrayLen(len(g.Members))
		for _, m := range g.Members {
			w.CompactString(m.MemberID)
			w.Int32(m.MemberEpoch)
			w.CompactString(m.ClientID)
			w.CompactString(m.ClientHost)
			w.CompactArrayLen(len(m.SubscribedTopicNames))
			for _, t := range m.SubscribedTopicNames {
				w.CompactString(t)
			}
			w.CompactArrayLen(len(m.Assignment))
			for _, p := range m.Assignment {
				w.Int32(p)
			}
			w.EmptyTagSection()
		}
		w.EmptyTagSection()
	}
	w.EmptyTagSection()
}

func DecodeConsumerGroupDescribeResponse(r *kbin.Reader) ConsumerGroupDescribeResponse {
	var resp ConsumerGroupDescribeResponse
	resp.ThrottleTimeMs = r.Int32()
	n := r.CompactArrayLen()
	resp.Groups = make([]ConsumerGroupDescribeGroup, 0, max0(n))
	for i := 0; i < n; i++ {
		var g ConsumerGroupDescribeGroup
		g.ErrorCode = r.Int16()
		g.ErrorMessage = r.NullableCompactString()
		g.GroupID = r.CompactString()
		g.GroupState = r.CompactString()
		g.GroupEpoch = r.Int32()
		mn := r.CompactArrayLen()
		for j := 0; j < mn; j++ {
			var m ConsumerGroupDescribeMember
			m.MemberID = r.CompactString()
			m.MemberEpoch = r.Int32()
			m.ClientID = r.CompactString()
			m.ClientHost = r.CompactString()
			tn := r.CompactArrayLen()
			for k := 0; k < tn; k++ {
				m.SubscribedTopicNames = append(m.SubscribedTopicNames, r.CompactString())
			}
			an := r.CompactArrayLen()
			for k := 0; k < an; k++ {
				m.Assignment = append(m.Assignment, r.Int32())
			}
			r.TagSection()
			g.Members = append(g.Members, m)
		}
		r.TagSection()
		resp.Groups = append(resp.Groups, g)
	}
	r.TagSection()
	return resp
}

// GetTelemetrySubscriptionsRequest is modeled at its current flexible
// version (v0).
type GetTelemetrySubscriptionsRequest struct {
	ClientInstanceID uuid.UUID
}

func DecodeGetTelemetrySubscriptionsRequest(r *kbin.Reader) GetTelemetrySubscriptionsRequest {
	var req GetTelemetrySubscriptionsRequest
	req.ClientInstanceID = r.UUID()
	r.TagSection()
	return req
}

func (req GetTelemetrySubscriptionsRequest) Encode(w *kbin.Writer) {
	w.UUID(req.ClientInstanceID)
	w.EmptyTagSection()
}

// GetTelemetrySubscriptionsResponse answers a
// GetTelemetrySubscriptionsRequest. This broker does not take part in the
// client metrics push protocol, so it always reports an empty
// requested-metrics set — a client seeing this should not push.
type GetTelemetrySubscriptionsResponse struct {
	ThrottleTimeMs               int32
	ErrorCode                    int16
	ClientInstanceID             uuid.UUID
	SubscriptionID               int32
	AcceptedCompressionTypes     []int8
	PushIntervalMs               int32
	TelemetryMaxBytes            int32
	DeltaTemporality             bool
	RequestedMetrics             []string
}

func (resp GetTelemetrySubscriptionsResponse) Encode(w *kbin.Writer) {
	w.Int32(resp.ThrottleTimeMs)
	w.Int16(resp.ErrorCode)
	w.UUID(resp.ClientInstanceID)
	w.Int32(resp.SubscriptionID)
	w.CompactArrayLen(len(resp.AcceptedCompressionTypes))
	for _, c := range resp.AcceptedCompressionTypes {
		w.Int8(c)
	}
	w.Int32(resp.PushIntervalMs)
	w.Int32(resp.TelemetryMaxBytes)
	w.Bool(resp.DeltaTemporality)
	w.CompactArrayLen(len(resp.RequestedMetrics))
	for _, m := range resp.RequestedMetrics {
		w.CompactString(m)
	}
	w.EmptyTagSection()
}

func DecodeGetTelemetrySubscriptionsResponse(r *kbin.Reader) GetTelemetrySubscriptionsResponse {
	var resp GetTelemetrySubscriptionsResponse
	resp.ThrottleTimeMs = r.Int32()
	resp.ErrorCode = r.Int16()
	resp.ClientInstanceID = r.UUID()
	resp.SubscriptionID = r.Int32()
	n := r.CompactArrayLen()
	for i := 0; i < n; i++ {
		resp.AcceptedCompressionTypes = append(resp.AcceptedCompressionTypes, r.Int8())
	}
	resp.PushIntervalMs = r.Int32()
	resp.TelemetryMaxBytes = r.Int32()
	resp.DeltaTemporality = r.Bool()
	mn := r.CompactArrayLen()
	for i := 0; i < mn; i++ {
		resp.RequestedMetrics = append(resp.RequestedMetrics, r.CompactString())
	}
	r.TagSection()
	return resp
}
