package broker

import (
	"github.com/shake-karrot/kafkabroker/internal/domain"
	"github.com/shake-karrot/kafkabroker/internal/kerr"
)

// Storage is everything the handler façade needs from the log layer: topic
// and partition management, record-batch persistence, and the minimal
// producer-id/transaction bookkeeping the transactional APIs require. The
// broker package declares this interface; internal/storage.Store is its
// production implementation.
type Storage interface {
	RegisterBroker(info domain.BrokerInfo)
	Brokers() []domain.BrokerInfo

	CreateTopic(spec domain.NewTopicSpec) domain.TopicMetadata
	DeleteTopics(names []string) []domain.TopicMetadata
	Topics(names []string) []domain.TopicMetadata

	Produce(top domain.Topition, batch []byte) domain.ProduceResult
	Fetch(top domain.Topition, offset int64, maxBytes int32) domain.FetchResult
	ListOffsets(top domain.Topition, timestamp int64) domain.ListOffsetsResult
	DeleteRecords(top domain.Topition, offset int64) (int64, error)

	InitProducerId(transactionalID *string, timeoutMs int32) domain.ProducerIDAndEpoch
	TxnAddPartitions(transactionalID string, producerID int64, producerEpoch int16, partitions []domain.Topition) error
	TxnAddOffsets(transactionalID string, producerID int64, producerEpoch int16, groupID string) error
	TxnOffsetCommit(transactionalID string, producerID int64, producerEpoch int16, groupID string, offsets map[domain.Topition]domain.OffsetAndMetadata) error
	TxnEnd(transactionalID string, producerID int64, producerEpoch int16, committed bool) kerr.Code

	CommitOffsets(groupID string, offsets map[domain.Topition]domain.OffsetAndMetadata)
	FetchOffsets(groupID string, tops []domain.Topition) map[domain.Topition]domain.OffsetAndMetadata

	Configs(resourceType domain.ConfigResourceType, name string) ([]domain.ConfigEntry, error)

	Close() error
}

// Coordinator is everything the handler façade needs from the consumer
// group layer. internal/coordinator.Coordinator is its production
// implementation.
type Coordinator interface {
	Join(in domain.JoinGroupInput) domain.JoinGroupOutput
	Sync(in domain.SyncGroupInput) domain.SyncGroupOutput
	Heartbeat(groupID, memberID string, generationID int32) kerr.Code
	Leave(groupID string, members []domain.LeaveMember) []kerr.Code

	OffsetCommit(groupID string, offsets map[domain.Topition]domain.OffsetAndMetadata)
	OffsetFetch(groupID string, tops []domain.Topition) map[domain.Topition]domain.OffsetAndMetadata

	List(statesFilter []string) []domain.GroupListing
	Describe(groupIDs []string) []domain.GroupDescription
	Delete(groupIDs []string) map[string]kerr.Code
}
