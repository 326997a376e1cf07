package storage

// SegmentConfig bounds the size of one on-disk segment's log and index
// files.
type SegmentConfig struct {
	SegmentMaxBytes int64
	IndexMaxBytes   int64
}

// DefaultSegmentConfig mirrors the teacher's defaults: a 1GB log with a
// 10MB sparse index.
func DefaultSegmentConfig() SegmentConfig {
	return SegmentConfig{
		SegmentMaxBytes: 1 << 30,
		IndexMaxBytes:   10 << 20,
	}
}

// PartitionConfig bounds one partition's segment rolling and retention.
type PartitionConfig struct {
	Segment SegmentConfig

	// RetentionMs is the maximum age, in milliseconds, a closed segment's
	// newest record may reach before it is eligible for deletion. A
	// negative value disables age-based retention.
	RetentionMs int64
	// RetentionBytes caps the total on-disk size of a partition's closed
	// segments; the oldest are deleted first once the cap is exceeded. A
	// negative value disables size-based retention.
	RetentionBytes int64
	// RetentionCheckIntervalMs is how often the retention cleaner sweeps
	// registered partitions.
	RetentionCheckIntervalMs int64
}

// DefaultPartitionConfig is a reasonable single-node default: 7 days of
// retention, checked every minute, no byte cap.
func DefaultPartitionConfig() PartitionConfig {
	return PartitionConfig{
		Segment:                  DefaultSegmentConfig(),
		RetentionMs:              7 * 24 * 60 * 60 * 1000,
		RetentionBytes:           -1,
		RetentionCheckIntervalMs: 60_000,
	}
}

// Config is the top-level storage configuration: where log directories
// live, how many partitions a newly auto-created topic gets, and the
// per-partition defaults new topics inherit.
type Config struct {
	DataDir           string
	DefaultPartitions int32
	SegmentCacheSize  int
	Partition         PartitionConfig
}

// DefaultConfig returns sane defaults for a single-node development broker.
func DefaultConfig() Config {
	return Config{
		DataDir:           "data",
		DefaultPartitions: 1,
		SegmentCacheSize:  500,
		Partition:         DefaultPartitionConfig(),
	}
}
