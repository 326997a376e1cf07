package frame

import "github.com/shake-karrot/kafkabroker/internal/kbin"

// MetadataRequestTopic names one topic a MetadataRequest asks about.
type MetadataRequestTopic struct {
	Name string
}

// MetadataRequest is modeled across the legacy/flexible boundary in full
// (v0 legacy, v9 flexible) as the second representative API for the
// version-aware mechanism, alongside ApiVersions.
type MetadataRequest struct {
	Version                 int16
	Topics                  []MetadataRequestTopic // nil means "all topics"
	AllowAutoTopicCreation  bool
}

func flex(version int16) bool { return version >= 9 }

func DecodeMetadataRequest(r *kbin.Reader, version int16) MetadataRequest {
	req := MetadataRequest{Version: version}
	flexible := flex(version)

	var n int
	if flexible {
		n = r.CompactArrayLen()
	} else {
		n = r.ArrayLen()
	}
	if n >= 0 {
		req.Topics = make([]MetadataRequestTopic, 0, n)
		for i := 0; i < n; i++ {
			var t MetadataRequestTopic
			if flexible {
				t.Name = r.CompactString()
				r.TagSection()
			} else {
				t.Name = r.LegacyString()
			}
			req.Topics = append(req.Topics, t)
		}
	}
	if version >= 4 {
		req.AllowAutoTopicCreation = r.Bool()
	}
	if flexible {
		r.TagSection()
	}
	return req
}

func (req MetadataRequest) Encode(w *kbin.Writer) {
	flexible := flex(req.Version)
	if req.Topics == nil {
		if flexible {
			w.CompactArrayLen(-1)
		} else {
			w.ArrayLen(-1)
		}
	} else {
		if flexible {
			w.CompactArrayLen(len(req.Topics))
		} else {
			w.ArrayLen(len(req.Topics))
		}
		for _, t := range req.Topics {
			if flexible {
				w.CompactString(t.Name)
				w.EmptyTagSection()
			} else {
				w.LegacyString(t.Name)
			}
		}
	}
	if req.Version >= 4 {
		w.Bool(req.AllowAutoTopicCreation)
	}
	if flexible {
		w.EmptyTagSection()
	}
}

// MetadataResponseBroker is one broker in a MetadataResponse.
type MetadataResponseBroker struct {
	NodeID int32
	Host   string
	Port   int32
	Rack   *string
}

// MetadataResponsePartition is one partition's metadata within a topic.
type MetadataResponsePartition struct {
	ErrorCode      int16
	PartitionIndex int32
	LeaderID       int32
	LeaderEpoch    int32
	ReplicaNodes   []int32
	IsrNodes       []int32
	OfflineReplicas []int32
}

// MetadataResponseTopic is one topic's metadata.
type MetadataResponseTopic struct {
	ErrorCode  int16
	Name       string
	IsInternal bool
	Partitions []MetadataResponsePartition
}

// MetadataResponse answers a MetadataRequest.
type MetadataResponse struct {
	Version        int16
	ThrottleTimeMs int32
	Brokers        []MetadataResponseBroker
	ClusterID      *string
	ControllerID   int32
	Topics         []MetadataResponseTopic
}

func (resp MetadataResponse) Encode(w *kbin.Writer) {
	flexible := flex(resp.Version)
	if resp.Version >= 3 {
		w.Int32(resp.ThrottleTimeMs)
	}

	if flexible {
		w.CompactArrayLen(len(resp.Brokers))
	} else {
		w.ArrayLen(len(resp.Brokers))
	}
	for _, b := range resp.Brokers {
		w.Int32(b.NodeID)
		if flexible {
			w.CompactString(b.Host)
		} else {
			w.LegacyString(b.Host)
		}
		w.Int32(b.Port)
		if resp.Version >= 1 {
			if flexible {
				w.NullableCompactString(b.Rack)
			} else {
				w.NullableLegacyString(b.Rack)
			}
		}
		if flexible {
			w.EmptyTagSection()
		}
	}

	if resp.Version >= 2 {
		if flexible {
			w.NullableCompactString(resp.ClusterID)
		} else {
			w.NullableLegacyString(resp.ClusterID)
		}
	}
	if resp.Version >= 1 {
		w.Int32(resp.ControllerID)
	}

	if flexible {
		w.CompactArrayLen(len(resp.Topics))
	} else {
		w.ArrayLen(len(resp.Topics))
	}
	for _, t := range resp.Topics {
		w.Int16(t.ErrorCode)
		if flexible {
			w.CompactString(t.Name)
		} else {
			w.LegacyString(t.Name)
		}
		if resp.Version >= 1 {
			w.Bool(t.IsInternal)
		}
		if flexible {
			w.CompactArrayLen(len(t.Partitions))
		} else {
			w.ArrayLen(len(t.Partitions))
		}
		for _, p := range t.Partitions {
			w.Int16(p.ErrorCode)
			w.Int32(p.PartitionIndex)
			w.Int32(p.LeaderID)
			if resp.Version >= 7 {
				w.Int32(p.LeaderEpoch)
			}
			if flexible {
				w.CompactArrayLen(len(p.ReplicaNodes))
			} else {
				w.ArrayLen(len(p.ReplicaNodes))
			}
			for _, n := range p.ReplicaNodes {
				w.Int32(n)
			}
			if flexible {
				w.CompactArrayLen(len(p.IsrNodes))
			} else {
				w.ArrayLen(len(p.IsrNodes))
			}
			for _, n := range p.IsrNodes {
				w.Int32(n)
			}
			if resp.Version >= 5 {
				if flexible {
					w.CompactArrayLen(len(p.OfflineReplicas))
				} else {
					w.ArrayLen(len(p.OfflineReplicas))
				}
				for _, n := range p.OfflineReplicas {
					w.Int32(n)
				}
			}
			if flexible {
				w.EmptyTagSection()
			}
		}
		if flexible {
			w.EmptyTagSection()
		}
	}
	if flexible {
		w.EmptyTagSection()
	}
}

func DecodeMetadataResponse(r *kbin.Reader, version int16) MetadataResponse {
	resp := MetadataResponse{Version: version}
	flexible := flex(version)
	if version >= 3 {
		resp.ThrottleTimeMs = r.Int32()
	}

	var brokerCount int
	if flexible {
		brokerCount = r.CompactArrayLen()
	} else {
		brokerCount = r.ArrayLen()
	}
	resp.Brokers = make([]MetadataResponseBroker, 0, max0(brokerCount))
	for i := 0; i < brokerCount; i++ {
		var b MetadataResponseBroker
		b.NodeID = r.Int32()
		if flexible {
			b.Host = r.CompactString()
		} else {
			b.Host = r.LegacyString()
		}
		b.Port = r.Int32()
		if version >= 1 {
			if flexible {
				b.Rack = r.NullableCompactString()
			} else {
				b.Rack = r.NullableLegacyString()
			}
		}
		if flexible {
			r.TagSection()
		}
		resp.Brokers = append(resp.Brokers, b)
	}

	if version >= 2 {
		if flexible {
			resp.ClusterID = r.NullableCompactString()
		} else {
			resp.ClusterID = r.NullableLegacyString()
		}
	}
	if version >= 1 {
		resp.ControllerID = r.Int32()
	}

	var topicCount int
	if flexible {
		topicCount = r.CompactArrayLen()
	} else {
		topicCount = r.ArrayLen()
	}
	resp.Topics = make([]MetadataResponseTopic, 0, max0(topicCount))
	for i := 0; i < topicCount; i++ {
		var t MetadataResponseTopic
		t.ErrorCode = r.Int16()
		if flexible {
			t.Name = r.CompactString()
		} else {
			t.Name = r.LegacyString()
		}
		if version >= 1 {
			t.IsInternal = r.Bool()
		}
		var partCount int
		if flexible {
			partCount = r.CompactArrayLen()
		} else {
			partCount = r.ArrayLen()
		}
		t.Partitions = make([]MetadataResponsePartition, 0, max0(partCount))
		for j := 0; j < partCount; j++ {
			var p MetadataResponsePartition
			p.ErrorCode = r.Int16()
			p.PartitionIndex = r.Int32()
			p.LeaderID = r.Int32()
			if version >= 7 {
				p.LeaderEpoch = r.Int32()
			}
			var replicaCount int
			if flexible {
				replicaCount = r.CompactArrayLen()
			} else {
				replicaCount = r.ArrayLen()
			}
			for k := 0; k < replicaCount; k++ {
				p.ReplicaNodes = append(p.ReplicaNodes, r.Int32())
			}
			var isrCount int
			if flexible {
				isrCount = r.CompactArrayLen()
			} else {
				isrCount = r.ArrayLen()
			}
			for k := 0; k < isrCount; k++ {
				p.IsrNodes = append(p.IsrNodes, r.Int32())
			}
			if version >= 5 {
				var offlineCount int
				if flexible {
					offlineCount = r.CompactArrayLen()
				} else {
					offlineCount = r.ArrayLen()
				}
				for k := 0; k < offlineCount; k++ {
					p.OfflineReplicas = append(p.OfflineReplicas, r.Int32())
				}
			}
			if flexible {
				r.TagSection()
			}
			t.Partitions = append(t.Partitions, p)
		}
		if flexible {
			r.TagSection()
		}
		resp.Topics = append(resp.Topics, t)
	}
	if flexible {
		r.TagSection()
	}
	return resp
}
