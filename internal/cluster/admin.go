// Package cluster talks to a Kafka-compatible cluster through franz-go's
// admin client and converts its responses into the console's models.
package cluster

import (
	"context"
	"errors"

	"github.com/Vashnak/Franz-manager-sub000/internal/models"
)

// ErrTopicNotFound is returned when a topic-scoped call names a topic the
// cluster does not know.
var ErrTopicNotFound = errors.New("topic not found")

var (
	ErrTopicExists = errors.New("topic already exists")
	// ErrInvalidRequest wraps broker-side rejections of the request itself,
	// such as an invalid config value or replication factor.
	ErrInvalidRequest = errors.New("invalid request")
)

// Admin is the set of cluster operations the console needs.
type Admin interface {
	ListTopics(ctx context.Context) ([]models.Topic, error)
	TopicPartitions(ctx context.Context, topic string) ([]models.Partition, error)
	DescribeTopicConfigs(ctx context.Context, topic string) ([]models.ConfigEntry, error)
	// AlterTopicConfigs sets every key of configs; a nil value resets the
	// key to the cluster default.
	AlterTopicConfigs(ctx context.Context, topic string, configs map[string]*string) error
	CreateTopic(ctx context.Context, req CreateTopicRequest) error
	DeleteTopic(ctx context.Context, topic string) error
	ListBrokers(ctx context.Context) ([]models.Broker, error)
	ListGroups(ctx context.Context) ([]models.ConsumerGroup, error)
	Close()
}

type CreateTopicRequest struct {
	Name              string             `json:"name"`
	Partitions        int32              `json:"partitions"`
	ReplicationFactor int16              `json:"replicationFactor"`
	Configs           map[string]*string `json:"configs"`
}

func (r CreateTopicRequest) Validate() error {
	switch {
	case r.Name == "":
		return errors.New("topic name is required")
	case r.Partitions < 1:
		return errors.New("partitions must be at least 1")
	case r.ReplicationFactor < 1:
		return errors.New("replication factor must be at least 1")
	}
	return nil
}
