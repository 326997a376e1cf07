package storage

import "errors"

var (
	ErrSegmentFull      = errors.New("storage: segment is full")
	ErrIndexFull        = errors.New("storage: index is full")
	ErrOffsetOutOfRange = errors.New("storage: offset out of range")
	ErrUnknownTopic     = errors.New("storage: unknown topic")
	ErrUnknownPartition = errors.New("storage: unknown partition")
	ErrTopicExists      = errors.New("storage: topic already exists")
)
