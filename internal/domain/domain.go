// Package domain holds the value types shared across the frame codec, the
// handler façade, and the Storage/Coordinator collaborators (spec.md §6):
// plain data, no behavior, so that storage and coordinator implementations
// never need to import the broker package that declares their interfaces.
package domain

import "github.com/shake-karrot/kafkabroker/internal/kerr"

// Topition addresses one log: a topic name and a partition index.
type Topition struct {
	Topic     string
	Partition int32
}

// BrokerInfo describes one node in the cluster, as returned by Metadata and
// DescribeCluster.
type BrokerInfo struct {
	NodeID int32
	Host   string
	Port   int32
	Rack   *string
}

// PartitionMetadata is one partition's leader/replica assignment.
type PartitionMetadata struct {
	Partition int32
	Leader    int32
	Replicas  []int32
	ISR       []int32
	Err       kerr.Code
}

// TopicMetadata is one topic's partition layout, as returned by Metadata.
type TopicMetadata struct {
	Name       string
	ID         [16]byte // topic UUID, zero for pre-KIP-516 clients
	Partitions []PartitionMetadata
	Err        kerr.Code
}

// NewTopicSpec is a CreateTopics request entry.
type NewTopicSpec struct {
	Name              string
	NumPartitions     int32
	ReplicationFactor int16
	Configs           map[string]string

	// ValidateOnly asks CreateTopic to run its existence/partition-count
	// checks and report what the topic would look like without actually
	// persisting anything.
	ValidateOnly bool
}

// ConfigEntry is one key/value pair returned by DescribeConfigs, optionally
// carrying synonyms and documentation when the request asked for them.
type ConfigEntry struct {
	Name      string
	Value     string
	ReadOnly  bool
	Sensitive bool
	Synonyms  []ConfigSynonym
	Doc       string
}

// ConfigSynonym is an alternate source for a config value (e.g. a
// broker-level default shadowed by a topic-level override).
type ConfigSynonym struct {
	Name   string
	Value  string
	Source string
}

// ConfigResource identifies what DescribeConfigs/AlterConfigs names: a
// topic or the broker itself.
type ConfigResourceType int8

const (
	ConfigResourceTopic  ConfigResourceType = 2
	ConfigResourceBroker ConfigResourceType = 4
)

// ProducerIDAndEpoch is the allocation InitProducerId returns.
type ProducerIDAndEpoch struct {
	ProducerID    int64
	ProducerEpoch int16
}

// ListOffsetsResult answers one partition of a ListOffsets request.
type ListOffsetsResult struct {
	Partition int32
	Offset    int64
	Timestamp int64
	Err       kerr.Code
}

// FetchResult answers one partition of a Fetch request.
type FetchResult struct {
	Partition     int32
	HighWatermark int64
	Batches       []byte // already-encoded RecordBatch bytes, concatenated
	Err           kerr.Code
}

// ProduceResult answers one partition of a Produce request.
type ProduceResult struct {
	Partition  int32
	BaseOffset int64
	LogAppendTime int64
	Err        kerr.Code
}

// Timestamp sentinels for ListOffsets (spec.md §4.E).
const (
	TimestampEarliest = -2
	TimestampLatest   = -1
)

// GroupMember is one member of a consumer group, as returned by
// DescribeGroups/ConsumerGroupDescribe.
type GroupMember struct {
	MemberID        string
	GroupInstanceID *string
	ClientID        string
	ClientHost      string
	Metadata        []byte
	Assignment      []byte
}

// GroupDescription is the full state of one consumer group.
type GroupDescription struct {
	GroupID      string
	State        string
	ProtocolType string
	Protocol     string
	Members      []GroupMember
	Err          kerr.Code
}

// OffsetAndMetadata is one partition's committed offset.
type OffsetAndMetadata struct {
	Partition int32
	Offset    int64
	Metadata  string
	Err       kerr.Code
}

// GroupProtocol is one (name, metadata) candidate a JoinGroup member offers.
type GroupProtocol struct {
	Name     string
	Metadata []byte
}

// JoinGroupInput is the coordinator-facing view of a JoinGroup request.
type JoinGroupInput struct {
	GroupID            string
	MemberID           string
	GroupInstanceID    *string
	ClientID           string
	ClientHost         string
	ProtocolType       string
	Protocols          []GroupProtocol
	SessionTimeoutMs   int32
	RebalanceTimeoutMs int32
}

// JoinGroupMember is one member as seen by the group leader in a
// JoinGroupOutput.
type JoinGroupMember struct {
	MemberID        string
	GroupInstanceID *string
	Metadata        []byte
}

// JoinGroupOutput is what the coordinator hands back to the handler façade.
type JoinGroupOutput struct {
	GenerationID int32
	ProtocolType string
	ProtocolName string
	LeaderID     string
	MemberID     string
	Members      []JoinGroupMember // populated only for the leader
	Err          kerr.Code
}

// GroupAssignment is the leader's partition assignment for one member.
type GroupAssignment struct {
	MemberID   string
	Assignment []byte
}

// SyncGroupInput is the coordinator-facing view of a SyncGroup request.
type SyncGroupInput struct {
	GroupID      string
	MemberID     string
	GenerationID int32
	Assignments  []GroupAssignment // populated only by the leader's call
}

// SyncGroupOutput carries the member's resolved assignment back.
type SyncGroupOutput struct {
	ProtocolType string
	ProtocolName string
	Assignment   []byte
	Err          kerr.Code
}

// LeaveMember is one member named in a LeaveGroup request.
type LeaveMember struct {
	MemberID        string
	GroupInstanceID *string
}

// GroupListing is a summary row for ListGroups.
type GroupListing struct {
	GroupID      string
	ProtocolType string
	State        string
}
