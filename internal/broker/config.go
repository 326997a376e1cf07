package broker

// Config is the listener-facing configuration for one broker node: where
// it binds, what it advertises to clients in Metadata/FindCoordinator/
// DescribeCluster responses, and the identity fields that scope its
// telemetry resource.
type Config struct {
	// ListenAddr is the local bind address, e.g. "0.0.0.0:9092".
	ListenAddr string

	// AdvertisedHost/AdvertisedPort are what this broker reports as its
	// own address in Metadata, FindCoordinator, and DescribeCluster
	// responses — distinct from ListenAddr so a broker behind NAT or a
	// container port mapping still advertises a reachable address.
	AdvertisedHost string
	AdvertisedPort int32

	// NodeID identifies this broker in the (single-node) cluster. It is
	// always its own controller and its own group/txn coordinator.
	NodeID int32

	// ClusterID is reported in Metadata and DescribeCluster, and scopes
	// the telemetry resource's service.namespace attribute.
	ClusterID string

	// IncarnationID is a fresh identifier generated once per process
	// start, scoping the telemetry resource's service.instance.id
	// attribute so restarts don't appear as a single long-lived instance.
	IncarnationID string
}

// DefaultConfig is a reasonable single-node development default.
func DefaultConfig() Config {
	return Config{
		ListenAddr:     "0.0.0.0:9092",
		AdvertisedHost: "127.0.0.1",
		AdvertisedPort: 9092,
		NodeID:         0,
		ClusterID:      "kafkabroker-dev-cluster",
	}
}
