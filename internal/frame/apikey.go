// Package frame implements the Kafka request/response framing layer: the
// size-prefixed byte frame, the request/response header variants (legacy
// and flexible, KIP-482), and the api_key registry the dispatch engine
// consults to decide which header/body shape a connection is speaking.
package frame

// ApiKey identifies a Kafka API.
type ApiKey int16

const (
	Produce                    ApiKey = 0
	Fetch                      ApiKey = 1
	ListOffsets                ApiKey = 2
	Metadata                   ApiKey = 3
	OffsetCommit               ApiKey = 8
	OffsetFetch                ApiKey = 9
	FindCoordinator            ApiKey = 10
	JoinGroup                  ApiKey = 11
	Heartbeat                  ApiKey = 12
	LeaveGroup                 ApiKey = 13
	SyncGroup                  ApiKey = 14
	DescribeGroups             ApiKey = 15
	ListGroups                 ApiKey = 16
	ApiVersions                ApiKey = 18
	CreateTopics               ApiKey = 19
	DeleteTopics               ApiKey = 20
	DeleteRecords              ApiKey = 21
	InitProducerId             ApiKey = 22
	AddPartitionsToTxn         ApiKey = 24
	AddOffsetsToTxn            ApiKey = 25
	EndTxn                     ApiKey = 26
	TxnOffsetCommit            ApiKey = 28
	DescribeConfigs            ApiKey = 32
	DeleteGroups               ApiKey = 42
	ListPartitionReassignments ApiKey = 46
	DescribeCluster            ApiKey = 60
	ConsumerGroupDescribe      ApiKey = 69
	GetTelemetrySubscriptions  ApiKey = 71
)

// Spec describes one API's supported version range and the version from
// which it switches to the flexible (compact + tagged-fields) wire shape.
// A FlexibleFrom of -1 means the API has no legacy form modeled here: it is
// always encoded/decoded as flexible, per the documented scope decision to
// demonstrate the legacy/flexible boundary fully only on ApiVersions and
// Metadata and model the rest at their current flexible version.
type Spec struct {
	Name         string
	MinVersion   int16
	MaxVersion   int16
	FlexibleFrom int16
}

// Registry maps every API this broker answers to its version spec.
var Registry = map[ApiKey]Spec{
	Produce:                    {"Produce", 0, 9, 9},
	Fetch:                      {"Fetch", 0, 16, 12},
	ListOffsets:                {"ListOffsets", 0, 9, 6},
	Metadata:                   {"Metadata", 0, 12, 9},
	OffsetCommit:               {"OffsetCommit", 0, 9, 8},
	OffsetFetch:                {"OffsetFetch", 0, 9, 6},
	FindCoordinator:            {"FindCoordinator", 0, 6, 3},
	JoinGroup:                  {"JoinGroup", 0, 9, 6},
	Heartbeat:                  {"Heartbeat", 0, 4, 4},
	LeaveGroup:                 {"LeaveGroup", 0, 5, 4},
	SyncGroup:                  {"SyncGroup", 0, 5, 4},
	DescribeGroups:             {"DescribeGroups", 0, 5, 5},
	ListGroups:                 {"ListGroups", 0, 5, 3},
	ApiVersions:                {"ApiVersions", 0, 3, 3},
	CreateTopics:               {"CreateTopics", 0, 7, 5},
	DeleteTopics:               {"DeleteTopics", 0, 6, 4},
	DeleteRecords:              {"DeleteRecords", 0, 2, 2},
	InitProducerId:             {"InitProducerId", 0, 5, 2},
	AddPartitionsToTxn:         {"AddPartitionsToTxn", 0, 4, 3},
	AddOffsetsToTxn:            {"AddOffsetsToTxn", 0, 3, 3},
	EndTxn:                     {"EndTxn", 0, 4, 3},
	TxnOffsetCommit:            {"TxnOffsetCommit", 0, 4, 3},
	DescribeConfigs:            {"DescribeConfigs", 0, 4, 4},
	DeleteGroups:               {"DeleteGroups", 0, 2, 2},
	ListPartitionReassignments: {"ListPartitionReassignments", 0, 0, 0},
	DescribeCluster:            {"DescribeCluster", 0, 1, 0},
	ConsumerGroupDescribe:      {"ConsumerGroupDescribe", 0, 0, 0},
	GetTelemetrySubscriptions:  {"GetTelemetrySubscriptions", 0, 0, 0},
}

// IsFlexible reports whether the given version of api uses the compact +
// tagged-fields wire shape.
func (k ApiKey) IsFlexible(version int16) bool {
	spec, ok := Registry[k]
	if !ok {
		return false
	}
	return spec.FlexibleFrom < 0 || version >= spec.FlexibleFrom
}

// Supports reports whether api/version is one this broker knows how to
// decode, independent of whether a handler is wired up for it.
func (k ApiKey) Supports(version int16) bool {
	spec, ok := Registry[k]
	if !ok {
		return false
	}
	return version >= spec.MinVersion && version <= spec.MaxVersion
}
