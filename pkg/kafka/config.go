package kafka

import (
	"time"
)

// Config holds Kafka configuration
type Config struct {
	Brokers       []string
	ConsumerGroup string
	ClientID      string

	// Producer settings
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int // 0: no ack, 1: leader ack, -1: all replicas ack

	// TLS settings
	TLSEnabled bool
	TLSCert    string
	TLSKey     string
	TLSCA      string

	// SASL settings
	SASLEnabled   bool
	SASLMechanism string
	SASLUsername  string
	SASLPassword  string
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Brokers:  []string{"localhost:9092"},
		ClientID: "outbound-service",

		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: -1, // All replicas

		TLSEnabled:  false,
		SASLEnabled: false,
	}
}

// Topics contains the outbound fulfillment Kafka topic names
var Topics = struct {
	InventoryEvents  string
	AllocationEvents string
	DockEvents       string
	LoadEvents       string
	PackingEvents    string
	QualityEvents    string
	ShippingEvents   string
}{
	InventoryEvents:  "wms.inventory.events",
	AllocationEvents: "wms.allocation.events",
	DockEvents:       "wms.dock.events",
	LoadEvents:       "wms.load.events",
	PackingEvents:    "wms.packing.events",
	QualityEvents:    "wms.quality.events",
	ShippingEvents:   "wms.shipping.events",
}

// TopicConfig holds configuration for a Kafka topic
type TopicConfig struct {
	Name              string
	Partitions        int
	ReplicationFactor int
	RetentionMs       int64
}

// DefaultTopicConfigs returns default configurations for the outbound topics
func DefaultTopicConfigs() []TopicConfig {
	const week = 7 * 24 * 60 * 60 * 1000
	return []TopicConfig{
		{Name: Topics.InventoryEvents, Partitions: 12, ReplicationFactor: 3, RetentionMs: week},
		{Name: Topics.AllocationEvents, Partitions: 12, ReplicationFactor: 3, RetentionMs: week},
		{Name: Topics.DockEvents, Partitions: 6, ReplicationFactor: 3, RetentionMs: week},
		{Name: Topics.LoadEvents, Partitions: 6, ReplicationFactor: 3, RetentionMs: week},
		{Name: Topics.PackingEvents, Partitions: 6, ReplicationFactor: 3, RetentionMs: week},
		{Name: Topics.QualityEvents, Partitions: 6, ReplicationFactor: 3, RetentionMs: 30 * 24 * 60 * 60 * 1000}, // 30 days for audit
		{Name: Topics.ShippingEvents, Partitions: 6, ReplicationFactor: 3, RetentionMs: 30 * 24 * 60 * 60 * 1000},
	}
}
