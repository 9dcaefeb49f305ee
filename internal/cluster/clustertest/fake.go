// Package clustertest provides an in-memory cluster.Admin for tests.
package clustertest

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/Vashnak/Franz-manager-sub000/internal/cluster"
	"github.com/Vashnak/Franz-manager-sub000/internal/models"
)

// Admin is a cluster.Admin backed by maps. Setting Err makes every call fail.
type Admin struct {
	mu         sync.Mutex
	topics     map[string]models.Topic
	partitions map[string][]models.Partition
	configs    map[string]map[string]*string
	Brokers    []models.Broker
	Groups     []models.ConsumerGroup
	Err        error
	Calls      map[string]int
	Closed     bool
}

var _ cluster.Admin = (*Admin)(nil)

func New(topics ...models.Topic) *Admin {
	a := &Admin{
		topics:     make(map[string]models.Topic),
		partitions: make(map[string][]models.Partition),
		configs:    make(map[string]map[string]*string),
		Calls:      make(map[string]int),
	}
	for _, t := range topics {
		a.AddTopic(t, nil)
	}
	return a
}

// AddTopic registers t with one in-sync partition per t.Partitions and the
// given configuration.
func (a *Admin) AddTopic(t models.Topic, configs map[string]*string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.topics[t.ID] = t
	parts := make([]models.Partition, t.Partitions)
	for i := range parts {
		parts[i] = models.Partition{ID: int32(i), Leader: 1, Replicas: []int32{1}, ISR: []int32{1}}
	}
	a.partitions[t.ID] = parts
	if configs == nil {
		configs = map[string]*string{}
	}
	a.configs[t.ID] = configs
}

// SetPartitions replaces the partitions reported for topic.
func (a *Admin) SetPartitions(topic string, parts []models.Partition) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.partitions[topic] = parts
}

// SetErr makes every following call fail with err, or succeed again when err
// is nil.
func (a *Admin) SetErr(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Err = err
}

func (a *Admin) call(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Calls[name]++
	return a.Err
}

func (a *Admin) CallCount(name string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Calls[name]
}

func (a *Admin) ListTopics(ctx context.Context) ([]models.Topic, error) {
	if err := a.call("ListTopics"); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.Topic, 0, len(a.topics))
	for _, t := range a.topics {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (a *Admin) TopicPartitions(ctx context.Context, topic string) ([]models.Partition, error) {
	if err := a.call("TopicPartitions"); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	parts, ok := a.partitions[topic]
	if !ok {
		return nil, fmt.Errorf("%w: %s", cluster.ErrTopicNotFound, topic)
	}
	return slices.Clone(parts), nil
}

func (a *Admin) DescribeTopicConfigs(ctx context.Context, topic string) ([]models.ConfigEntry, error) {
	if err := a.call("DescribeTopicConfigs"); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	configs, ok := a.configs[topic]
	if !ok {
		return nil, fmt.Errorf("%w: %s", cluster.ErrTopicNotFound, topic)
	}
	out := make([]models.ConfigEntry, 0, len(configs))
	for k, v := range configs {
		out = append(out, models.ConfigEntry{Key: k, Value: v, Source: "DYNAMIC_TOPIC_CONFIG"})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (a *Admin) AlterTopicConfigs(ctx context.Context, topic string, configs map[string]*string) error {
	if err := a.call("AlterTopicConfigs"); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	current, ok := a.configs[topic]
	if !ok {
		return fmt.Errorf("%w: %s", cluster.ErrTopicNotFound, topic)
	}
	for k, v := range configs {
		if v == nil {
			delete(current, k)
			continue
		}
		current[k] = v
	}
	return nil
}

func (a *Admin) CreateTopic(ctx context.Context, req cluster.CreateTopicRequest) error {
	if err := a.call("CreateTopic"); err != nil {
		return err
	}
	a.mu.Lock()
	_, exists := a.topics[req.Name]
	a.mu.Unlock()
	if exists {
		return fmt.Errorf("%w: %s", cluster.ErrTopicExists, req.Name)
	}
	a.AddTopic(models.Topic{
		ID:           req.Name,
		Partitions:   int(req.Partitions),
		Replications: int(req.ReplicationFactor),
	}, req.Configs)
	return nil
}

func (a *Admin) DeleteTopic(ctx context.Context, topic string) error {
	if err := a.call("DeleteTopic"); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.topics[topic]; !ok {
		return fmt.Errorf("%w: %s", cluster.ErrTopicNotFound, topic)
	}
	delete(a.topics, topic)
	delete(a.partitions, topic)
	delete(a.configs, topic)
	return nil
}

func (a *Admin) ListBrokers(ctx context.Context) ([]models.Broker, error) {
	if err := a.call("ListBrokers"); err != nil {
		return nil, err
	}
	return slices.Clone(a.Brokers), nil
}

func (a *Admin) ListGroups(ctx context.Context) ([]models.ConsumerGroup, error) {
	if err := a.call("ListGroups"); err != nil {
		return nil, err
	}
	return slices.Clone(a.Groups), nil
}

func (a *Admin) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Closed = true
}
