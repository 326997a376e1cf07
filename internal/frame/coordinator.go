package frame

import "github.com/shake-karrot/kafkabroker/internal/kbin"

// CoordinatorKey identifies what kind of coordinator a client is locating.
const (
	CoordinatorKeyGroup int8 = 0
	CoordinatorKeyTxn   int8 = 1
)

// FindCoordinatorRequest is modeled at its current flexible version (v3).
type FindCoordinatorRequest struct {
	Key     string
	KeyType int8
}

func DecodeFindCoordinatorRequest(r *kbin.Reader) FindCoordinatorRequest {
	var req FindCoordinatorRequest
	req.Key = r.CompactString()
	req.KeyType = r.Int8()
	r.TagSection()
	return req
}

func (req FindCoordinatorRequest) Encode(w *kbin.Writer) {
	w.CompactString(req.Key)
	w.Int8(req.KeyType)
	w.EmptyTagSection()
}

// FindCoordinatorResponse answers a FindCoordinatorRequest. This broker is
// always its own coordinator, so NodeID/Host/Port always name the local
// listener.
type FindCoordinatorResponse struct {
	ThrottleTimeMs int32
	ErrorCode      int16
	ErrorMessage   *string
	NodeID         int32
	Host           string
	Port           int32
}

func (resp FindCoordinatorResponse) Encode(w *kbin.Writer) {
	w.Int32(resp.ThrottleTimeMs)
	w.Int16(resp.ErrorCode)
	w.NullableCompactString(resp.ErrorMessage)
	w.Int32(resp.NodeID)
	w.CompactString(resp.Host)
	w.Int32(resp.Port)
	w.EmptyTagSection()
}

func DecodeFindCoordinatorResponse(r *kbin.Reader) FindCoordinatorResponse {
	var resp FindCoordinatorResponse
	resp.ThrottleTimeMs = r.Int32()
	resp.ErrorCode = r.Int16()
	resp.ErrorMessage = r.NullableCompactString()
	resp.NodeID = r.Int32()
	resp.Host = r.CompactString()
	resp.Port = r.Int32()
	r.TagSection()
	return resp
}

// JoinGroupProtocol is one candidate protocol a member offers.
type JoinGroupProtocol struct {
	Name     string
	Metadata []byte
}

// JoinGroupRequest is modeled at its current flexible version (v6).
type JoinGroupRequest struct {
	GroupID            string
	SessionTimeoutMs   int32
	RebalanceTimeoutMs int32
	MemberID           string
	GroupInstanceID    *string
	ProtocolType       string
	Protocols          []JoinGroupProtocol
}

func DecodeJoinGroupRequest(r *kbin.Reader) JoinGroupRequest {
	var req JoinGroupRequest
	req.GroupID = r.CompactString()
	req.SessionTimeoutMs = r.Int32()
	req.RebalanceTimeoutMs = r.Int32()
	req.MemberID = r.CompactString()
	req.GroupInstanceID = r.NullableCompactString()
	req.ProtocolType = r.CompactString()
	n := r.CompactArrayLen()
	req.Protocols = make([]JoinGroupProtocol, 0, max0(n))
	for i := 0; i < n; i++ {
		var p JoinGroupProtocol
		p.Name = r.CompactString()
		p.Metadata = r.CompactBytes()
		r.TagSection()
		req.Protocols = append(req.Protocols, p)
	}
	r.TagSection()
	return req
}

func (req JoinGroupRequest) Encode(w *kbin.Writer) {
	w.CompactString(req.GroupID)
	w.Int32(req.SessionTimeoutMs)
	w.Int32(req.RebalanceTimeoutMs)
	w.CompactString(req.MemberID)
	w.NullableCompactString(req.GroupInstanceID)
	w.CompactString(req.ProtocolType)
	w.CompactArrayLen(len(req.Protocols))
	for _, p := range req.Protocols {
		w.CompactString(p.Name)
		w.CompactBytes(p.Metadata)
		w.EmptyTagSection()
	}
	w.EmptyTagSection()
}

// JoinGroupResponseMember is one member as the leader sees it.
type JoinGroupResponseMember struct {
	MemberID        string
	GroupInstanceID *string
	Metadata        []byte
}

// JoinGroupResponse answers a JoinGroupRequest.
type JoinGroupResponse struct {
	ThrottleTimeMs int32
	ErrorCode      int16
	GenerationID   int32
	ProtocolType   string
	ProtocolName   string
	LeaderID       string
	MemberID       string
	Members        []JoinGroupResponseMember
}

func (resp JoinGroupResponse) Encode(w *kbin.Writer) {
	w.Int32(resp.ThrottleTimeMs)
	w.Int16(resp.ErrorCode)
	w.Int32(resp.GenerationID)
	w.CompactString(resp.ProtocolType)
	w.CompactString(resp.ProtocolName)
	w.CompactString(resp.LeaderID)
	w.CompactString(resp.MemberID)
	w.CompactArrayLen(len(resp.Members))
	for _, m := range resp.Members {
		w.CompactString(m.MemberID)
		w.NullableCompactString(m.GroupInstanceID)
		w.CompactBytes(m.Metadata)
		w.EmptyTagSection()
	}
	w.EmptyTagSection()
}

func DecodeJoinGroupResponse(r *kbin.Reader) JoinGroupResponse {
	var resp JoinGroupResponse
	resp.ThrottleTimeMs = r.Int32()
	resp.ErrorCode = r.Int16()
	resp.GenerationID = r.Int32()
	resp.ProtocolType = r.CompactString()
	resp.ProtocolName = r.CompactString()
	resp.LeaderID = r.CompactString()
	resp.MemberID = r.CompactString()
	n := r.CompactArrayLen()
	resp.Members = make([]JoinGroupResponseMember, 0, max0(n))
	for i := 0; i < n; i++ {
		var m JoinGroupResponseMember
		m.MemberID = r.CompactString()
		m.GroupInstanceID = r.NullableCompactString()
		m.Metadata = r.CompactBytes()
		r.TagSection()
		resp.Members = append(resp.Members, m)
	}
	r.TagSection()
	return resp
}

// SyncGroupAssignment is the leader's assignment for one member.
type SyncGroupAssignment struct {
	MemberID   string
	Assignment []byte
}

// SyncGroupRequest is modeled at its current flexible version (v5).
type SyncGroupRequest struct {
	GroupID         string
	GenerationID    int32
	MemberID        string
	GroupInstanceID *string
	ProtocolType    string
	ProtocolName    string
	Assignments     []SyncGroupAssignment
}

func DecodeSyncGroupRequest(r *kbin.Reader) SyncGroupRequest {
	var req SyncGroupRequest
	req.GroupID = r.CompactString()
	req.GenerationID = r.Int32()
	req.MemberID = r.CompactString()
	req.GroupInstanceID = r.NullableCompactString()
	req.ProtocolType = r.CompactString()
	req.ProtocolName = r.CompactString()
	n := r.CompactArrayLen()
	req.Assignments = make([]SyncGroupAssignment, 0, max0(n))
	for i := 0; i < n; i++ {
		var a SyncGroupAssignment
		a.MemberID = r.CompactString()
		a.Assignment = r.CompactBytes()
		r.TagSection()
		req.Assignments = append(req.Assignments, a)
	}
	r.TagSection()
	return req
}

func (req SyncGroupRequest) Encode(w *kbin.Writer) {
	w.CompactString(req.GroupID)
	w.Int32(req.GenerationID)
	w.CompactString(req.MemberID)
	w.NullableCompactString(req.GroupInstanceID)
	w.CompactString(req.ProtocolType)
	w.CompactString(req.ProtocolName)
	w.CompactArrayLen(len(req.Assignments))
	for _, a := range req.Assignments {
		w.CompactString(a.MemberID)
		w.CompactBytes(a.Assignment)
		w.EmptyTagSection()
	}
	w.EmptyTagSection()
}

// SyncGroupResponse answers a SyncGroupRequest.
type SyncGroupResponse struct {
	ThrottleTimeMs int32
	ErrorCode      int16
	ProtocolType   string
	ProtocolName   string
	Assignment     []byte
}

func (resp SyncGroupResponse) Encode(w *kbin.Writer) {
	w.Int32(resp.ThrottleTimeMs)
	w.Int16(resp.ErrorCode)
	w.CompactString(resp.ProtocolType)
	w.CompactString(resp.ProtocolName)
	w.CompactBytes(resp.Assignment)
	w.EmptyTagSection()
}

func DecodeSyncGroupResponse(r *kbin.Reader) SyncGroupResponse {
	var resp SyncGroupResponse
	resp.ThrottleTimeMs = r.Int32()
	resp.ErrorCode = r.Int16()
	resp.ProtocolType = r.CompactString()
	resp.ProtocolName = r.CompactString()
	resp.Assignment = r.CompactBytes()
	r.TagSection()
	return resp
}

// HeartbeatRequest is modeled at its current flexible version (v4).
type HeartbeatRequest struct {
	GroupID         string
	GenerationID    int32
	MemberID        string
	GroupInstanceID *string
}

func DecodeHeartbeatRequest(r *kbin.Reader) HeartbeatRequest {
	var req HeartbeatRequest
	req.GroupID = r.CompactString()
	req.GenerationID = r.Int32()
	req.MemberID = r.CompactString()
	req.GroupInstanceID = r.NullableCompactString()
	r.TagSection()
	return req
}

func (req HeartbeatRequest) Encode(w *kbin.Writer) {
	w.CompactString(req.GroupID)
	w.Int32(req.GenerationID)
	w.CompactString(req.MemberID)
	w.NullableCompactString(req.GroupInstanceID)
	w.EmptyTagSection()
}

// HeartbeatResponse answers a HeartbeatRequest.
type HeartbeatResponse struct {
	ThrottleTimeMs int32
	ErrorCode      int16
}

func (resp HeartbeatResponse) Encode(w *kbin.Writer) {
	w.Int32(resp.ThrottleTimeMs)
	w.Int16(resp.ErrorCode)
	w.EmptyTagSection()
}

func DecodeHeartbeatResponse(r *kbin.Reader) HeartbeatResponse {
	var resp HeartbeatResponse
	resp.ThrottleTimeMs = r.Int32()
	resp.ErrorCode = r.Int16()
	r.TagSection()
	return resp
}

// LeaveGroupMember is one member a LeaveGroupRequest removes.
type LeaveGroupMember struct {
	MemberID        string
	GroupInstanceID *string
}

// LeaveGroupRequest is modeled at its current flexible version (v4).
type LeaveGroupRequest struct {
	GroupID string
	Members []LeaveGroupMember
}

func DecodeLeaveGroupRequest(r *kbin.Reader) LeaveGroupRequest {
	var req LeaveGroupRequest
	req.GroupID = r.CompactString()
	n := r.CompactArrayLen()
	req.Members = make([]LeaveGroupMember, 0, max0(n))
	for i := 0; i < n; i++ {
		var m LeaveGroupMember
		m.MemberID = r.CompactString()
		m.GroupInstanceID = r.NullableCompactString()
		r.TagSection()
		req.Members = append(req.Members, m)
	}
	r.TagSection()
	return req
}

func (req LeaveGroupRequest) Encode(w *kbin.Writer) {
	w.CompactString(req.GroupID)
	w.CompactArrayLen(len(req.Members))
	for _, m := range req.Members {
		w.CompactString(m.MemberID)
		w.NullableCompactString(m.GroupInstanceID)
		w.EmptyTagSection()
	}
	w.EmptyTagSection()
}

// LeaveGroupResponseMember is one member's per-member leave result.
type LeaveGroupResponseMember struct {
	MemberID        string
	GroupInstanceID *string
	ErrorCode       int16
}

// LeaveGroupResponse answers a LeaveGroupRequest.
type LeaveGroupResponse struct {
	ThrottleTimeMs int32
	ErrorCode      int16
	Members        []LeaveGroupResponseMember
}

func (resp LeaveGroupResponse) Encode(w *kbin.Writer) {
	w.Int32(resp.ThrottleTimeMs)
	w.Int16(resp.ErrorCode)
	w.CompactArrayLen(len(resp.Members))
	for _, m := range resp.Members {
		w.CompactString(m.MemberID)
		w.NullableCompactString(m.GroupInstanceID)
		w.Int16(m.ErrorCode)
		w.EmptyTagSection()
	}
	w.EmptyTagSection()
}

func DecodeLeaveGroupResponse(r *kbin.Reader) LeaveGroupResponse {
	var resp LeaveGroupResponse
	resp.ThrottleTimeMs = r.Int32()
	resp.ErrorCode = r.Int16()
	n := r.CompactArrayLen()
	resp.Members = make([]LeaveGroupResponseMember, 0, max0(n))
	for i := 0; i < n; i++ {
		var m LeaveGroupResponseMember
		m.MemberID = r.CompactString()
		m.GroupInstanceID = r.NullableCompactString()
		m.ErrorCode = r.Int16()
		r.TagSection()
		resp.Members = append(resp.Members, m)
	}
	r.TagSection()
	return resp
}

// ListGroupsRequest is modeled at its current flexible version (v3).
type ListGroupsRequest struct {
	StatesFilter []string
}

func DecodeListGroupsRequest(r *kbin.Reader) ListGroupsRequest {
	var req ListGroupsRequest
	n := r.CompactArrayLen()
	for i := 0; i < n; i++ {
		req.StatesFilter = append(req.StatesFilter, r.CompactString())
	}
	r.TagSection()
	return req
}

func (req ListGroupsRequest) Encode(w *kbin.Writer) {
	w.CompactArrayLen(len(req.StatesFilter))
	for _, s := range req.StatesFilter {
		w.CompactString(s)
	}
	w.EmptyTagSection()
}

// ListGroupsResponseGroup is one group's summary.
type ListGroupsResponseGroup struct {
	GroupID      string
	ProtocolType string
	GroupState   string
}

// ListGroupsResponse answers a ListGroupsRequest.
type ListGroupsResponse struct {
	ThrottleTimeMs int32
	ErrorCode      int16
	Groups         []ListGroupsResponseGroup
}

func (resp ListGroupsResponse) Encode(w *kbin.Writer) {
	w.Int32(resp.ThrottleTimeMs)
	w.Int16(resp.ErrorCode)
	w.CompactArrayLen(len(resp.Groups))
	for _, g := range resp.Groups {
		w.CompactString(g.GroupID)
		w.CompactString(g.ProtocolType)
		w.CompactString(g.GroupState)
		w.EmptyTagSection()
	}
	w.EmptyTagSection()
}

func DecodeListGroupsResponse(r *kbin.Reader) ListGroupsResponse {
	var resp ListGroupsResponse
	resp.ThrottleTimeMs = r.Int32()
	resp.ErrorCode = r.Int16()
	n := r.CompactArrayLen()
	resp.Groups = make([]ListGroupsResponseGroup, 0, max0(n))
	for i := 0; i < n; i++ {
		var g ListGroupsResponseGroup
		g.GroupID = r.CompactString()
		g.ProtocolType = r.CompactString()
		g.GroupState = r.CompactString()
		r.TagSection()
		resp.Groups = append(resp.Groups, g)
	}
	r.TagSection()
	return resp
}

// DescribeGroupsRequest is modeled at its current flexible version (v5).
type DescribeGroupsRequest struct {
	Groups []string
}

func DecodeDescribeGroupsRequest(r *kbin.Reader) DescribeGroupsRequest {
	var req DescribeGroupsRequest
	n := r.CompactArrayLen()
	for i := 0; i < n; i++ {
		req.Groups = append(req.Groups, r.CompactString())
	}
	r.TagSection()
	return req
}

func (req DescribeGroupsRequest) Encode(w *kbin.Writer) {
	w.CompactArrayLen(len(req.Groups))
	for _, g := range req.Groups {
		w.CompactString(g)
	}
	w.EmptyTagSection()
}

// DescribeGroupsResponseMember is one member within a described group.
type DescribeGroupsResponseMember struct {
	MemberID        string
	GroupInstanceID *string
	ClientID        string
	ClientHost      string
	MemberMetadata  []byte
	MemberAssignment []byte
}

// DescribeGroupsResponseGroup is one group's full description.
type DescribeGroupsResponseGroup struct {
	ErrorCode    int16
	GroupID      string
	GroupState   string
	ProtocolType string
	ProtocolData string
	Members      []DescribeGroupsResponseMember
}

// DescribeGroupsResponse answers a DescribeGroupsRequest.
type DescribeGroupsResponse struct {
	ThrottleTimeMs int32
	Groups         []DescribeGroupsResponseGroup
}

func (resp DescribeGroupsResponse) Encode(w *kbin.Writer) {
	w.Int32(resp.ThrottleTimeMs)
	w.CompactArrayLen(len(resp.Groups))
	for _, g := range resp.Groups {
		w.Int16(g.ErrorCode)
		w.CompactString(g.GroupID)
		w.CompactString(g.GroupState)
		w.CompactString(g.ProtocolType)
		w.CompactString(g.ProtocolData)
		w.CompactArrayLen(len(g.Members))
		for _, m := range g.Members {
			w.CompactString(m.MemberID)
			w.NullableCompactString(m.GroupInstanceID)
			w.CompactString(m.ClientID)
			w.CompactString(m.ClientHost)
			w.CompactBytes(m.MemberMetadata)
			w.CompactBytes(m.MemberAssignment)
			w.EmptyTagSection()
		}
		w.EmptyTagSection()
	}
	w.EmptyTagSection()
}

func DecodeDescribeGroupsResponse(r *kbin.Reader) DescribeGroupsResponse {
	var resp DescribeGroupsResponse
	resp.ThrottleTimeMs = r.Int32()
	n := r.CompactArrayLen()
	resp.Groups = make([]DescribeGroupsResponseGroup, 0, max0(n))
	for i := 0; i < n; i++ {
		var g DescribeGroupsResponseGroup
		g.ErrorCode = r.Int16()
		g.GroupID = r.CompactString()
		g.GroupState = r.CompactString()
		g.ProtocolType = r.CompactString()
		g.ProtocolData = r.CompactString()
		mn := r.CompactArrayLen()
		g.Members = make([]DescribeGroupsResponseMember, 0, max0(mn))
		for j := 0; j < mn; j++ {
			var m DescribeGroupsResponseMember
			m.MemberID = r.CompactString()
			m.GroupInstanceID = r.NullableCompactString()
			m.ClientID = r.CompactString()
			m.ClientHost = r.CompactString()
			m.MemberMetadata = r.CompactBytes()
			m.MemberAssignment = r.CompactBytes()
			r.TagSection()
			g.Members = append(g.Members, m)
		}
		r.TagSection()
		resp.Groups = append(resp.Groups, g)
	}
	r.TagSection()
	return resp
}

// DeleteGroupsRequest is modeled at its current flexible version (v2).
type DeleteGroupsRequest struct {
	GroupsNames []string
}

func DecodeDeleteGroupsRequest(r *kbin.Reader) DeleteGroupsRequest {
	var req DeleteGroupsRequest
	n := r.CompactArrayLen()
	for i := 0; i < n; i++ {
		req.GroupsNames = append(req.GroupsNames, r.CompactString())
	}
	r.TagSection()
	return req
}

func (req DeleteGroupsRequest) Encode(w *kbin.Writer) {
	w.CompactArrayLen(len(req.GroupsNames))
	for _, g := range req.GroupsNames {
		w.CompactString(g)
	}
	w.EmptyTagSection()
}

// DeleteGroupsResponseGroup is one group's deletion result.
type DeleteGroupsResponseGroup struct {
	GroupID   string
	ErrorCode int16
}

// DeleteGroupsResponse answers a DeleteGroupsRequest.
type DeleteGroupsResponse struct {
	ThrottleTimeMs int32
	Results        []DeleteGroupsResponseGroup
}

func (resp DeleteGroupsResponse) Encode(w *kbin.Writer) {
	w.Int32(resp.ThrottleTimeMs)
	w.CompactArrayLen(len(resp.Results))
	for _, g := range resp.Results {
		w.CompactString(g.GroupID)
		w.Int16(g.ErrorCode)
		w.EmptyTagSection()
	}
	w.EmptyTagSection()
}

func DecodeDeleteGroupsResponse(r *kbin.Reader) DeleteGroupsResponse {
	var resp DeleteGroupsResponse
	resp.ThrottleTimeMs = r.Int32()
	n := r.CompactArrayLen()
	resp.Results = make([]DeleteGroupsResponseGroup, 0, max0(n))
	for i := 0; i < n; i++ {
		var g DeleteGroupsResponseGroup
		g.GroupID = r.CompactString()
		g.ErrorCode = r.Int16()
		r.TagSection()
		resp.Results = append(resp.Results, g)
	}
	r.TagSection()
	return resp
}
