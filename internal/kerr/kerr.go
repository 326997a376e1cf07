// Package kerr contains the Kafka protocol error codes this broker's
// handlers translate DomainErrors into. Names are the wire
// protocol's own wording; see http://kafka.apache.org/protocol.html
// #protocolErrorCodes for the full table this is trimmed from.
package kerr

// Code is a Kafka protocol error code.
type Code struct {
	Name      string
	Value     int16
	Retriable bool
}

func (c Code) Error() string { return c.Name }

var (
	None                       = Code{"NONE", 0, false}
	UnknownServerError         = Code{"UNKNOWN_SERVER_ERROR", -1, false}
	OffsetOutOfRange           = Code{"OFFSET_OUT_OF_RANGE", 1, false}
	CorruptMessage             = Code{"CORRUPT_MESSAGE", 2, true}
	UnknownTopicOrPartition    = Code{"UNKNOWN_TOPIC_OR_PARTITION", 3, true}
	InvalidFetchSize           = Code{"INVALID_FETCH_SIZE", 4, false}
	NotLeaderOrFollower        = Code{"NOT_LEADER_OR_FOLLOWER", 6, true}
	RequestTimedOut            = Code{"REQUEST_TIMED_OUT", 7, true}
	CoordinatorLoadInProgress  = Code{"COORDINATOR_LOAD_IN_PROGRESS", 14, true}
	CoordinatorNotAvailable    = Code{"COORDINATOR_NOT_AVAILABLE", 15, true}
	NotCoordinator             = Code{"NOT_COORDINATOR", 16, true}
	InvalidTopicException      = Code{"INVALID_TOPIC_EXCEPTION", 17, false}
	RecordListTooLarge         = Code{"RECORD_LIST_TOO_LARGE", 18, false}
	InvalidRequiredAcks        = Code{"INVALID_REQUIRED_ACKS", 21, false}
	IllegalGeneration          = Code{"ILLEGAL_GENERATION", 22, false}
	InconsistentGroupProtocol  = Code{"INCONSISTENT_GROUP_PROTOCOL", 23, false}
	InvalidGroupID             = Code{"INVALID_GROUP_ID", 24, false}
	UnknownMemberID            = Code{"UNKNOWN_MEMBER_ID", 25, false}
	InvalidSessionTimeout      = Code{"INVALID_SESSION_TIMEOUT", 26, false}
	RebalanceInProgress        = Code{"REBALANCE_IN_PROGRESS", 27, false}
	InvalidTimestamp           = Code{"INVALID_TIMESTAMP", 32, false}
	UnsupportedVersion         = Code{"UNSUPPORTED_VERSION", 35, false}
	TopicAlreadyExists         = Code{"TOPIC_ALREADY_EXISTS", 36, false}
	InvalidPartitions          = Code{"INVALID_PARTITIONS", 37, false}
	InvalidReplicationFactor   = Code{"INVALID_REPLICATION_FACTOR", 38, false}
	InvalidConfig              = Code{"INVALID_CONFIG", 40, false}
	InvalidRequest             = Code{"INVALID_REQUEST", 42, false}
	OutOfOrderSequenceNumber   = Code{"OUT_OF_ORDER_SEQUENCE_NUMBER", 45, false}
	InvalidProducerEpoch       = Code{"INVALID_PRODUCER_EPOCH", 47, false}
	InvalidTxnState            = Code{"INVALID_TXN_STATE", 48, false}
	InvalidProducerIDMapping   = Code{"INVALID_PRODUCER_ID_MAPPING", 49, false}
	ConcurrentTransactions     = Code{"CONCURRENT_TRANSACTIONS", 51, false}
	GroupIDNotFound            = Code{"GROUP_ID_NOT_FOUND", 69, false}
	UnsupportedCompressionType = Code{"UNSUPPORTED_COMPRESSION_TYPE", 76, false}
	MemberIDRequired           = Code{"MEMBER_ID_REQUIRED", 79, false}
)

// FromDomainError maps a storage/coordinator domain error to a wire error
// code, defaulting to UnknownServerError for anything this broker does not
// special-case — the handler façade never lets a raw Go error escape to the
// frame layer (spec.md §7).
func FromDomainError(err error) Code {
	if err == nil {
		return None
	}
	if d, ok := err.(interface{ KafkaCode() Code }); ok {
		return d.KafkaCode()
	}
	return UnknownServerError
}
