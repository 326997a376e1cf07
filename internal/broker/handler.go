package broker

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/shake-karrot/kafkabroker/internal/domain"
	"github.com/shake-karrot/kafkabroker/internal/frame"
	"github.com/shake-karrot/kafkabroker/internal/kbin"
	"github.com/shake-karrot/kafkabroker/internal/kerr"
)

// handleRequest routes a decoded request to its per-API handler. Every
// handler takes the still-undecoded body reader and returns only the
// encoded response body: the header/correlation-id framing lives in
// dispatch, not here.
func (b *Broker) handleRequest(ctx context.Context, peer string, hdr frame.RequestHeader, key frame.ApiKey, version int16, r *kbin.Reader) ([]byte, error) {
	switch key {
	case frame.ApiVersions:
		return b.handleApiVersions(r, version)
	case frame.Metadata:
		return b.handleMetadata(r, version)
	case frame.Produce:
		return b.handleProduce(r)
	case frame.Fetch:
		return b.handleFetch(r)
	case frame.ListOffsets:
		return b.handleListOffsets(r)
	case frame.CreateTopics:
		return b.handleCreateTopics(r)
	case frame.DeleteTopics:
		return b.handleDeleteTopics(r)
	case frame.DeleteRecords:
		return b.handleDeleteRecords(r)
	case frame.FindCoordinator:
		return b.handleFindCoordinator(r)
	case frame.JoinGroup:
		return b.handleJoinGroup(r, hdr, peer)
	case frame.SyncGroup:
		return b.handleSyncGroup(r)
	case frame.Heartbeat:
		return b.handleHeartbeat(r)
	case frame.LeaveGroup:
		return b.handleLeaveGroup(r)
	case frame.ListGroups:
		return b.handleListGroups(r)
	case frame.DescribeGroups:
		return b.handleDescribeGroups(r)
	case frame.DeleteGroups:
		return b.handleDeleteGroups(r)
	case frame.OffsetCommit:
		return b.handleOffsetCommit(r)
	case frame.OffsetFetch:
		return b.handleOffsetFetch(r)
	case frame.InitProducerId:
		return b.handleInitProducerId(r)
	case frame.AddPartitionsToTxn:
		return b.handleAddPartitionsToTxn(r)
	case frame.AddOffsetsToTxn:
		return b.handleAddOffsetsToTxn(r)
	case frame.EndTxn:
		return b.handleEndTxn(r)
	case frame.TxnOffsetCommit:
		return b.handleTxnOffsetCommit(r)
	case frame.DescribeConfigs:
		return b.handleDescribeConfigs(r)
	case frame.DescribeCluster:
		return b.handleDescribeCluster(r)
	case frame.ListPartitionReassignments:
		return b.handleListPartitionReassignments(r)
	case frame.ConsumerGroupDescribe:
		return b.handleConsumerGroupDescribe(r)
	case frame.GetTelemetrySubscriptions:
		return b.handleGetTelemetrySubscriptions(r)
	default:
		return nil, fmt.Errorf("broker: unsupported api key %d", key)
	}
}

func ptrOr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (b *Broker) handleApiVersions(r *kbin.Reader, version int16) ([]byte, error) {
	_ = frame.DecodeApiVersionsRequest(r, version)

	keys := make([]frame.ApiVersionsResponseKey, 0, len(frame.Registry))
	for k, spec := range frame.Registry {
		keys = append(keys, frame.ApiVersionsResponseKey{ApiKey: int16(k), MinVersion: spec.MinVersion, MaxVersion: spec.MaxVersion})
	}
	resp := frame.ApiVersionsResponse{Version: version, ApiKeys: keys}
	w := kbin.NewWriter(nil)
	resp.Encode(w)
	return w.Bytes(), nil
}

func (b *Broker) handleMetadata(r *kbin.Reader, version int16) ([]byte, error) {
	req := frame.DecodeMetadataRequest(r, version)

	var names []string
	if req.Topics != nil {
		names = make([]string, len(req.Topics))
		for i, t := range req.Topics {
			names[i] = t.Name
		}
	}
	topics := b.store.Topics(names)

	brokers := b.store.Brokers()
	respBrokers := make([]frame.MetadataResponseBroker, 0, len(brokers)+1)
	respBrokers = append(respBrokers, frame.MetadataResponseBroker{NodeID: b.cfg.NodeID, Host: b.cfg.AdvertisedHost, Port: b.cfg.AdvertisedPort})
	for _, br := range brokers {
		if br.NodeID == b.cfg.NodeID {
			continue
		}
		respBrokers = append(respBrokers, frame.MetadataResponseBroker{NodeID: br.NodeID, Host: br.Host, Port: br.Port, Rack: br.Rack})
	}

	respTopics := make([]frame.MetadataResponseTopic, len(topics))
	for i, t := range topics {
		parts := make([]frame.MetadataResponsePartition, len(t.Partitions))
		for j, p := range t.Partitions {
			parts[j] = frame.MetadataResponsePartition{
				ErrorCode:      p.Err.Value,
				PartitionIndex: p.Partition,
				LeaderID:       p.Leader,
				ReplicaNodes:   p.Replicas,
				IsrNodes:       p.ISR,
			}
		}
		respTopics[i] = frame.MetadataResponseTopic{ErrorCode: t.Err.Value, Name: t.Name, Partitions: parts}
	}

	clusterID := b.cfg.ClusterID
	resp := frame.MetadataResponse{
		Version:      version,
		Brokers:      respBrokers,
		ClusterID:    &clusterID,
		ControllerID: b.cfg.NodeID,
		Topics:       respTopics,
	}
	w := kbin.NewWriter(nil)
	resp.Encode(w)
	return w.Bytes(), nil
}

func (b *Broker) handleProduce(r *kbin.Reader) ([]byte, error) {
	req := frame.DecodeProduceRequest(r)

	if req.Acks != -1 && req.Acks != 0 && req.Acks != 1 {
		topicResponses := make([]frame.ProduceTopicResponse, len(req.TopicData))
		for i, t := range req.TopicData {
			partResps := make([]frame.ProducePartitionResponse, len(t.PartitionData))
			for j, p := range t.PartitionData {
				partResps[j] = frame.ProducePartitionResponse{Index: p.Index, ErrorCode: kerr.InvalidRequiredAcks.Value}
			}
			topicResponses[i] = frame.ProduceTopicResponse{Name: t.Name, PartitionResponses: partResps}
		}
		resp := frame.ProduceResponse{TopicResponses: topicResponses}
		w := kbin.NewWriter(nil)
		resp.Encode(w)
		return w.Bytes(), nil
	}

	topicResponses := make([]frame.ProduceTopicResponse, len(req.TopicData))
	for i, t := range req.TopicData {
		partResps := make([]frame.ProducePartitionResponse, len(t.PartitionData))
		for j, p := range t.PartitionData {
			result := b.store.Produce(domain.Topition{Topic: t.Name, Partition: p.Index}, p.Records)
			partResps[j] = frame.ProducePartitionResponse{
				Index:           p.Index,
				ErrorCode:       result.Err.Value,
				BaseOffset:      result.BaseOffset,
				LogAppendTimeMs: result.LogAppendTime,
				LogStartOffset:  0,
			}
		}
		topicResponses[i] = frame.ProduceTopicResponse{Name: t.Name, PartitionResponses: partResps}
	}

	resp := frame.ProduceResponse{TopicResponses: topicResponses}
	w := kbin.NewWriter(nil)
	resp.Encode(w)
	return w.Bytes(), nil
}

func (b *Broker) handleFetch(r *kbin.Reader) ([]byte, error) {
	req := frame.DecodeFetchRequest(r)

	responses := make([]frame.FetchResponseTopic, len(req.Topics))
	for i, t := range req.Topics {
		parts := make([]frame.FetchResponsePartition, len(t.Partitions))
		for j, p := range t.Partitions {
			result := b.store.Fetch(domain.Topition{Topic: t.Topic, Partition: p.Partition}, p.FetchOffset, p.PartitionMaxBytes)
			parts[j] = frame.FetchResponsePartition{
				PartitionIndex:   p.Partition,
				ErrorCode:        result.Err.Value,
				HighWatermark:    result.HighWatermark,
				LastStableOffset: result.HighWatermark,
				LogStartOffset:   0,
				Records:          result.Batches,
			}
		}
		responses[i] = frame.FetchResponseTopic{Topic: t.Topic, Partitions: parts}
	}

	resp := frame.FetchResponse{SessionID: req.SessionID, Responses: responses}
	w := kbin.NewWriter(nil)
	resp.Encode(w)
	return w.Bytes(), nil
}

func (b *Broker) handleListOffsets(r *kbin.Reader) ([]byte, error) {
	req := frame.DecodeListOffsetsRequest(r)

	topics := make([]frame.ListOffsetsResponseTopic, len(req.Topics))
	for i, t := range req.Topics {
		parts := make([]frame.ListOffsetsResponsePartition, len(t.Partitions))
		for j, p := range t.Partitions {
			result := b.store.ListOffsets(domain.Topition{Topic: t.Name, Partition: p.PartitionIndex}, p.Timestamp)
			parts[j] = frame.ListOffsetsResponsePartition{
				PartitionIndex: p.PartitionIndex,
				ErrorCode:      result.Err.Value,
				Timestamp:      p.Timestamp,
				Offset:         result.Offset,
			}
		}
		topics[i] = frame.ListOffsetsResponseTopic{Name: t.Name, Partitions: parts}
	}

	resp := frame.ListOffsetsResponse{Topics: topics}
	w := kbin.NewWriter(nil)
	resp.Encode(w)
	return w.Bytes(), nil
}

func (b *Broker) handleCreateTopics(r *kbin.Reader) ([]byte, error) {
	req := frame.DecodeCreateTopicsRequest(r)

	results := make([]frame.CreatableTopicResult, len(req.Topics))
	for i, t := range req.Topics {
		configs := make(map[string]string, len(t.Configs))
		for _, c := range t.Configs {
			configs[c.Name] = ptrOr(c.Value)
		}
		md := b.store.CreateTopic(domain.NewTopicSpec{
			Name:              t.Name,
			NumPartitions:     t.NumPartitions,
			ReplicationFactor: t.ReplicationFactor,
			Configs:           configs,
			ValidateOnly:      req.ValidateOnly,
		})
		result := frame.CreatableTopicResult{
			Name:              t.Name,
			TopicID:           uuid.UUID(md.ID),
			ErrorCode:         md.Err.Value,
			NumPartitions:     int32(len(md.Partitions)),
			ReplicationFactor: t.ReplicationFactor,
		}
		if md.Err.Value != 0 {
			msg := md.Err.Name
			result.ErrorMessage = &msg
		}
		results[i] = result
	}

	resp := frame.CreateTopicsResponse{Topics: results}
	w := kbin.NewWriter(nil)
	resp.Encode(w)
	return w.Bytes(), nil
}

func (b *Broker) handleDeleteTopics(r *kbin.Reader) ([]byte, error) {
	req := frame.DecodeDeleteTopicsRequest(r)

	results := b.store.DeleteTopics(req.TopicNames)
	responses := make([]frame.DeletableTopicResult, len(results))
	for i, md := range results {
		result := frame.DeletableTopicResult{Name: md.Name, ErrorCode: md.Err.Value}
		if md.Err.Value != 0 {
			msg := md.Err.Name
			result.ErrorMessage = &msg
		}
		responses[i] = result
	}

	resp := frame.DeleteTopicsResponse{Responses: responses}
	w := kbin.NewWriter(nil)
	resp.Encode(w)
	return w.Bytes(), nil
}

func (b *Broker) handleDeleteRecords(r *kbin.Reader) ([]byte, error) {
	req := frame.DecodeDeleteRecordsRequest(r)

	topics := make([]frame.DeleteRecordsResponseTopic, len(req.Topics))
	for i, t := range req.Topics {
		parts := make([]frame.DeleteRecordsResponsePartition, len(t.Partitions))
		for j, p := range t.Partitions {
			low, err := b.store.DeleteRecords(domain.Topition{Topic: t.Name, Partition: p.PartitionIndex}, p.Offset)
			parts[j] = frame.DeleteRecordsResponsePartition{
				PartitionIndex: p.PartitionIndex,
				LowWatermark:   low,
				ErrorCode:      kerr.FromDomainError(err).Value,
			}
		}
		topics[i] = frame.DeleteRecordsResponseTopic{Name: t.Name, Partitions: parts}
	}

	resp := frame.DeleteRecordsResponse{Topics: topics}
	w := kbin.NewWriter(nil)
	resp.Encode(w)
	return w.Bytes(), nil
}

// handleFindCoordinator answers with this broker's own address: a
// single-node broker is always its own group and transaction coordinator.
func (b *Broker) handleFindCoordinator(r *kbin.Reader) ([]byte, error) {
	_ = frame.DecodeFindCoordinatorRequest(r)

	resp := frame.FindCoordinatorResponse{
		NodeID: b.cfg.NodeID,
		Host:   b.cfg.AdvertisedHost,
		Port:   b.cfg.AdvertisedPort,
	}
	w := kbin.NewWriter(nil)
	resp.Encode(w)
	return w.Bytes(), nil
}

func (b *Broker) handleJoinGroup(r *kbin.Reader, hdr frame.RequestHeader, peer string) ([]byte, error) {
	req := frame.DecodeJoinGroupRequest(r)

	protocols := make([]domain.GroupProtocol, len(req.Protocols))
	for i, p := range req.Protocols {
		protocols[i] = domain.GroupProtocol{Name: p.Name, Metadata: p.Metadata}
	}

	out := b.coord.Join(domain.JoinGroupInput{
		GroupID:            req.GroupID,
		MemberID:           req.MemberID,
		GroupInstanceID:    req.GroupInstanceID,
		ClientID:           ptrOr(hdr.ClientID),
		ClientHost:         peer,
		ProtocolType:       req.ProtocolType,
		Protocols:          protocols,
		SessionTimeoutMs:   req.SessionTimeoutMs,
		RebalanceTimeoutMs: req.RebalanceTimeoutMs,
	})

	members := make([]frame.JoinGroupResponseMember, len(out.Members))
	for i, m := range out.Members {
		members[i] = frame.JoinGroupResponseMember{MemberID: m.MemberID, GroupInstanceID: m.GroupInstanceID, Metadata: m.Metadata}
	}

	resp := frame.JoinGroupResponse{
		ErrorCode:    out.Err.Value,
		GenerationID: out.GenerationID,
		ProtocolType: out.ProtocolType,
		ProtocolName: out.ProtocolName,
		LeaderID:     out.LeaderID,
		MemberID:     out.MemberID,
		Members:      members,
	}
	w := kbin.NewWriter(nil)
	resp.Encode(w)
	return w.Bytes(), nil
}

func (b *Broker) handleSyncGroup(r *kbin.Reader) ([]byte, error) {
	req := frame.DecodeSyncGroupRequest(r)

	assignments := make([]domain.GroupAssignment, len(req.Assignments))
	for i, a := range req.Assignments {
		assignments[i] = domain.GroupAssignment{MemberID: a.MemberID, Assignment: a.Assignment}
	}

	out := b.coord.Sync(domain.SyncGroupInput{
		GroupID:      req.GroupID,
		MemberID:     req.MemberID,
		GenerationID: req.GenerationID,
		Assignments:  assignments,
	})

	resp := frame.SyncGroupResponse{
		ErrorCode:    out.Err.Value,
		ProtocolType: out.ProtocolType,
		ProtocolName: out.ProtocolName,
		Assignment:   out.Assignment,
	}
	w := kbin.NewWriter(nil)
	resp.Encode(w)
	return w.Bytes(), nil
}

func (b *Broker) handleHeartbeat(r *kbin.Reader) ([]byte, error) {
	req := frame.DecodeHeartbeatRequest(r)
	code := b.coord.Heartbeat(req.GroupID, req.MemberID, req.GenerationID)
	resp := frame.HeartbeatResponse{ErrorCode: code.Value}
	w := kbin.NewWriter(nil)
	resp.Encode(w)
	return w.Bytes(), nil
}

func (b *Broker) handleLeaveGroup(r *kbin.Reader) ([]byte, error) {
	req := frame.DecodeLeaveGroupRequest(r)

	members := make([]domain.LeaveMember, len(req.Members))
	for i, m := range req.Members {
		members[i] = domain.LeaveMember{MemberID: m.MemberID, GroupInstanceID: m.GroupInstanceID}
	}
	codes := b.coord.Leave(req.GroupID, members)

	respMembers := make([]frame.LeaveGroupResponseMember, len(req.Members))
	for i, m := range req.Members {
		code := kerr.None
		if i < len(codes) {
			code = codes[i]
		}
		respMembers[i] = frame.LeaveGroupResponseMember{MemberID: m.MemberID, GroupInstanceID: m.GroupInstanceID, ErrorCode: code.Value}
	}

	resp := frame.LeaveGroupResponse{Members: respMembers}
	w := kbin.NewWriter(nil)
	resp.Encode(w)
	return w.Bytes(), nil
}

func (b *Broker) handleListGroups(r *kbin.Reader) ([]byte, error) {
	req := frame.DecodeListGroupsRequest(r)
	listings := b.coord.List(req.StatesFilter)

	groups := make([]frame.ListGroupsResponseGroup, len(listings))
	for i, l := range listings {
		groups[i] = frame.ListGroupsResponseGroup{GroupID: l.GroupID, ProtocolType: l.ProtocolType, GroupState: l.State}
	}

	resp := frame.ListGroupsResponse{Groups: groups}
	w := kbin.NewWriter(nil)
	resp.Encode(w)
	return w.Bytes(), nil
}

func (b *Broker) handleDescribeGroups(r *kbin.Reader) ([]byte, error) {
	req := frame.DecodeDescribeGroupsRequest(r)
	descs := b.coord.Describe(req.Groups)

	groups := make([]frame.DescribeGroupsResponseGroup, len(descs))
	for i, d := range descs {
		members := make([]frame.DescribeGroupsResponseMember, len(d.Members))
		for j, m := range d.Members {
			members[j] = frame.DescribeGroupsResponseMember{
				MemberID:         m.MemberID,
				GroupInstanceID:  m.GroupInstanceID,
				ClientID:         m.ClientID,
				ClientHost:       m.ClientHost,
				MemberMetadata:   m.Metadata,
				MemberAssignment: m.Assignment,
			}
		}
		groups[i] = frame.DescribeGroupsResponseGroup{
			ErrorCode:    d.Err.Value,
			GroupID:      d.GroupID,
			GroupState:   d.State,
			ProtocolType: d.ProtocolType,
			ProtocolData: d.Protocol,
			Members:      members,
		}
	}

	resp := frame.DescribeGroupsResponse{Groups: groups}
	w := kbin.NewWriter(nil)
	resp.Encode(w)
	return w.Bytes(), nil
}

func (b *Broker) handleDeleteGroups(r *kbin.Reader) ([]byte, error) {
	req := frame.DecodeDeleteGroupsRequest(r)
	codes := b.coord.Delete(req.GroupsNames)

	results := make([]frame.DeleteGroupsResponseGroup, len(req.GroupsNames))
	for i, name := range req.GroupsNames {
		results[i] = frame.DeleteGroupsResponseGroup{GroupID: name, ErrorCode: codes[name].Value}
	}

	resp := frame.DeleteGroupsResponse{Results: results}
	w := kbin.NewWriter(nil)
	resp.Encode(w)
	return w.Bytes(), nil
}

func (b *Broker) handleOffsetCommit(r *kbin.Reader) ([]byte, error) {
	req := frame.DecodeOffsetCommitRequest(r)

	offsets := make(map[domain.Topition]domain.OffsetAndMetadata)
	for _, t := range req.Topics {
		for _, p := range t.Partitions {
			offsets[domain.Topition{Topic: t.Name, Partition: p.PartitionIndex}] = domain.OffsetAndMetadata{
				Partition: p.PartitionIndex,
				Offset:    p.CommittedOffset,
				Metadata:  ptrOr(p.CommittedMetadata),
			}
		}
	}
	b.store.CommitOffsets(req.GroupID, offsets)

	topics := make([]frame.OffsetCommitResponseTopic, len(req.Topics))
	for i, t := range req.Topics {
		parts := make([]frame.OffsetCommitResponsePartition, len(t.Partitions))
		for j, p := range t.Partitions {
			parts[j] = frame.OffsetCommitResponsePartition{PartitionIndex: p.PartitionIndex}
		}
		topics[i] = frame.OffsetCommitResponseTopic{Name: t.Name, Partitions: parts}
	}

	resp := frame.OffsetCommitResponse{Topics: topics}
	w := kbin.NewWriter(nil)
	resp.Encode(w)
	return w.Bytes(), nil
}

func (b *Broker) handleOffsetFetch(r *kbin.Reader) ([]byte, error) {
	req := frame.DecodeOffsetFetchRequest(r)

	var tops []domain.Topition
	if req.Topics != nil {
		for _, t := range req.Topics {
			if t.Partitions == nil {
				tops = nil
				break
			}
			for _, p := range t.Partitions {
				tops = append(tops, domain.Topition{Topic: t.Name, Partition: p})
			}
		}
	}
	committed := b.store.FetchOffsets(req.GroupID, tops)

	byTopic := make(map[string][]frame.OffsetFetchResponsePartition)
	var order []string
	for top, oam := range committed {
		if _, ok := byTopic[top.Topic]; !ok {
			order = append(order, top.Topic)
		}
		meta := oam.Metadata
		byTopic[top.Topic] = append(byTopic[top.Topic], frame.OffsetFetchResponsePartition{
			PartitionIndex:  top.Partition,
			CommittedOffset: oam.Offset,
			Metadata:        &meta,
			ErrorCode:       oam.Err.Value,
		})
	}

	topics := make([]frame.OffsetFetchResponseTopic, 0, len(order))
	for _, name := range order {
		topics = append(topics, frame.OffsetFetchResponseTopic{Name: name, Partitions: byTopic[name]})
	}

	resp := frame.OffsetFetchResponse{Topics: topics}
	w := kbin.NewWriter(nil)
	resp.Encode(w)
	return w.Bytes(), nil
}

func (b *Broker) handleInitProducerId(r *kbin.Reader) ([]byte, error) {
	req := frame.DecodeInitProducerIdRequest(r)
	out := b.store.InitProducerId(req.TransactionalID, req.TransactionTimeoutMs)

	resp := frame.InitProducerIdResponse{ProducerID: out.ProducerID, ProducerEpoch: out.ProducerEpoch}
	w := kbin.NewWriter(nil)
	resp.Encode(w)
	return w.Bytes(), nil
}

// handleAddPartitionsToTxn reports the same result code for every
// partition in the request: the underlying transaction is all-or-nothing
// on a single node, so there is no per-partition failure mode to surface.
func (b *Broker) handleAddPartitionsToTxn(r *kbin.Reader) ([]byte, error) {
	req := frame.DecodeAddPartitionsToTxnRequest(r)

	var partitions []domain.Topition
	for _, t := range req.Topics {
		for _, idx := range t.Partitions {
			partitions = append(partitions, domain.Topition{Topic: t.Name, Partition: idx})
		}
	}
	err := b.store.TxnAddPartitions(req.TransactionalID, req.ProducerID, req.ProducerEpoch, partitions)
	code := kerr.FromDomainError(err).Value

	results := make([]frame.AddPartitionsToTxnResultTopic, len(req.Topics))
	for i, t := range req.Topics {
		parts := make([]frame.AddPartitionsToTxnResultPartition, len(t.Partitions))
		for j, idx := range t.Partitions {
			parts[j] = frame.AddPartitionsToTxnResultPartition{PartitionIndex: idx, ErrorCode: code}
		}
		results[i] = frame.AddPartitionsToTxnResultTopic{Name: t.Name, Partitions: parts}
	}

	resp := frame.AddPartitionsToTxnResponse{Results: results}
	w := kbin.NewWriter(nil)
	resp.Encode(w)
	return w.Bytes(), nil
}

func (b *Broker) handleAddOffsetsToTxn(r *kbin.Reader) ([]byte, error) {
	req := frame.DecodeAddOffsetsToTxnRequest(r)
	err := b.store.TxnAddOffsets(req.TransactionalID, req.ProducerID, req.ProducerEpoch, req.GroupID)

	resp := frame.AddOffsetsToTxnResponse{ErrorCode: kerr.FromDomainError(err).Value}
	w := kbin.NewWriter(nil)
	resp.Encode(w)
	return w.Bytes(), nil
}

func (b *Broker) handleEndTxn(r *kbin.Reader) ([]byte, error) {
	req := frame.DecodeEndTxnRequest(r)
	code := b.store.TxnEnd(req.TransactionalID, req.ProducerID, req.ProducerEpoch, req.Committed)

	resp := frame.EndTxnResponse{ErrorCode: code.Value}
	w := kbin.NewWriter(nil)
	resp.Encode(w)
	return w.Bytes(), nil
}

func (b *Broker) handleTxnOffsetCommit(r *kbin.Reader) ([]byte, error) {
	req := frame.DecodeTxnOffsetCommitRequest(r)

	offsets := make(map[domain.Topition]domain.OffsetAndMetadata)
	for _, t := range req.Topics {
		for _, p := range t.Partitions {
			offsets[domain.Topition{Topic: t.Name, Partition: p.PartitionIndex}] = domain.OffsetAndMetadata{
				Partition: p.PartitionIndex,
				Offset:    p.CommittedOffset,
				Metadata:  ptrOr(p.CommittedMetadata),
			}
		}
	}
	err := b.store.TxnOffsetCommit(req.TransactionalID, req.ProducerID, req.ProducerEpoch, req.GroupID, offsets)
	code := kerr.FromDomainError(err).Value

	topics := make([]frame.TxnOffsetCommitResponseTopic, len(req.Topics))
	for i, t := range req.Topics {
		parts := make([]frame.TxnOffsetCommitResponsePartition, len(t.Partitions))
		for j, p := range t.Partitions {
			parts[j] = frame.TxnOffsetCommitResponsePartition{PartitionIndex: p.PartitionIndex, ErrorCode: code}
		}
		topics[i] = frame.TxnOffsetCommitResponseTopic{Name: t.Name, Partitions: parts}
	}

	resp := frame.TxnOffsetCommitResponse{Topics: topics}
	w := kbin.NewWriter(nil)
	resp.Encode(w)
	return w.Bytes(), nil
}

func (b *Broker) handleDescribeConfigs(r *kbin.Reader) ([]byte, error) {
	req := frame.DecodeDescribeConfigsRequest(r)

	results := make([]frame.DescribeConfigsResponseResult, len(req.Resources))
	for i, res := range req.Resources {
		entries, err := b.store.Configs(domain.ConfigResourceType(res.ResourceType), res.ResourceName)
		result := frame.DescribeConfigsResponseResult{
			ResourceType: res.ResourceType,
			ResourceName: res.ResourceName,
			ErrorCode:    kerr.FromDomainError(err).Value,
		}
		for _, e := range entries {
			value := e.Value
			result.Configs = append(result.Configs, frame.DescribeConfigsResponseEntry{
				Name:      e.Name,
				Value:     &value,
				ReadOnly:  e.ReadOnly,
				Sensitive: e.Sensitive,
			})
		}
		results[i] = result
	}

	resp := frame.DescribeConfigsResponse{Results: results}
	w := kbin.NewWriter(nil)
	resp.Encode(w)
	return w.Bytes(), nil
}

func (b *Broker) handleDescribeCluster(r *kbin.Reader) ([]byte, error) {
	_ = frame.DecodeDescribeClusterRequest(r)

	brokers := b.store.Brokers()
	respBrokers := make([]frame.DescribeClusterBroker, 0, len(brokers)+1)
	respBrokers = append(respBrokers, frame.DescribeClusterBroker{BrokerID: b.cfg.NodeID, Host: b.cfg.AdvertisedHost, Port: b.cfg.AdvertisedPort})
	for _, br := range brokers {
		if br.NodeID == b.cfg.NodeID {
			continue
		}
		respBrokers = append(respBrokers, frame.DescribeClusterBroker{BrokerID: br.NodeID, Host: br.Host, Port: br.Port, Rack: br.Rack})
	}

	resp := frame.DescribeClusterResponse{
		ClusterID:    b.cfg.ClusterID,
		ControllerID: b.cfg.NodeID,
		Brokers:      respBrokers,
	}
	w := kbin.NewWriter(nil)
	resp.Encode(w)
	return w.Bytes(), nil
}

// handleListPartitionReassignments always answers with an empty
// reassignment list: this broker never moves a partition across brokers.
func (b *Broker) handleListPartitionReassignments(r *kbin.Reader) ([]byte, error) {
	_ = frame.DecodeListPartitionReassignmentsRequest(r)
	resp := frame.ListPartitionReassignmentsResponse{}
	w := kbin.NewWriter(nil)
	resp.Encode(w)
	return w.Bytes(), nil
}

// handleConsumerGroupDescribe answers the newer consumer protocol's group
// description API by reusing the coordinator's Describe, at the cost of
// leaving per-member epoch/assignment/subscription fields at their zero
// value: this broker's coordinator tracks group generation, not the
// per-member epoch this API was designed for.
func (b *Broker) handleConsumerGroupDescribe(r *kbin.Reader) ([]byte, error) {
	req := frame.DecodeConsumerGroupDescribeRequest(r)
	descs := b.coord.Describe(req.GroupIDs)

	groups := make([]frame.ConsumerGroupDescribeGroup, len(descs))
	for i, d := range descs {
		members := make([]frame.ConsumerGroupDescribeMember, len(d.Members))
		for j, m := range d.Members {
			members[j] = frame.ConsumerGroupDescribeMember{
				MemberID:   m.MemberID,
				ClientID:   m.ClientID,
				ClientHost: m.ClientHost,
			}
		}
		group := frame.ConsumerGroupDescribeGroup{
			ErrorCode:  d.Err.Value,
			GroupID:    d.GroupID,
			GroupState: d.State,
			Members:    members,
		}
		if d.Err.Value != 0 {
			msg := d.Err.Name
			group.ErrorMessage = &msg
		}
		groups[i] = group
	}

	resp := frame.ConsumerGroupDescribeResponse{Groups: groups}
	w := kbin.NewWriter(nil)
	resp.Encode(w)
	return w.Bytes(), nil
}

// handleGetTelemetrySubscriptions always reports an empty subscription:
// this broker does not take part in the client metrics push protocol, so
// a client seeing this should not push.
func (b *Broker) handleGetTelemetrySubscriptions(r *kbin.Reader) ([]byte, error) {
	req := frame.DecodeGetTelemetrySubscriptionsRequest(r)

	resp := frame.GetTelemetrySubscriptionsResponse{
		ClientInstanceID: req.ClientInstanceID,
		PushIntervalMs:   -1,
	}
	w := kbin.NewWriter(nil)
	resp.Encode(w)
	return w.Bytes(), nil
}
