package cluster

import (
	"slices"
	"sort"

	"github.com/twmb/franz-go/pkg/kadm"

	"github.com/Vashnak/Franz-manager-sub000/internal/models"
)

func topicsFromDetails(details kadm.TopicDetails) []models.Topic {
	topics := make([]models.Topic, 0, len(details))
	for _, d := range details.Sorted() {
		if d.Err != nil && len(d.Partitions) == 0 {
			continue
		}
		topics = append(topics, models.Topic{
			ID:           d.Topic,
			Partitions:   len(d.Partitions),
			Replications: d.Partitions.NumReplicas(),
			Internal:     d.IsInternal,
		})
	}
	return topics
}

func offsetLookup(offsets kadm.ListedOffsets) func(topic string, partition int32) int64 {
	return func(topic string, partition int32) int64 {
		if offsets == nil {
			return 0
		}
		o, ok := offsets.Lookup(topic, partition)
		if !ok || o.Err != nil {
			return 0
		}
		return o.Offset
	}
}

func partitionsFromDetail(d kadm.TopicDetail, start, end func(string, int32) int64) []models.Partition {
	out := make([]models.Partition, 0, len(d.Partitions))
	for _, p := range d.Partitions.Sorted() {
		out = append(out, models.Partition{
			ID:          p.Partition,
			Leader:      p.Leader,
			Replicas:    slices.Clone(p.Replicas),
			ISR:         slices.Clone(p.ISR),
			StartOffset: start(d.Topic, p.Partition),
			EndOffset:   end(d.Topic, p.Partition),
		})
	}
	return out
}

func configEntries(configs []kadm.Config) []models.ConfigEntry {
	out := make([]models.ConfigEntry, 0, len(configs))
	for _, c := range configs {
		out = append(out, models.ConfigEntry{
			Key:       c.Key,
			Value:     c.Value,
			Source:    c.Source.String(),
			Sensitive: c.Sensitive,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// alterations turns a key/value map into incremental alter operations, nil
// values deleting the key. Keys are sorted so requests are deterministic.
func alterations(configs map[string]*string) []kadm.AlterConfig {
	keys := make([]string, 0, len(configs))
	for k := range configs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]kadm.AlterConfig, 0, len(keys))
	for _, k := range keys {
		v := configs[k]
		if v == nil {
			out = append(out, kadm.AlterConfig{Op: kadm.DeleteConfig, Name: k})
			continue
		}
		out = append(out, kadm.AlterConfig{Op: kadm.SetConfig, Name: k, Value: v})
	}
	return out
}

func brokersFromMetadata(brokers kadm.BrokerDetails, controller int32) []models.Broker {
	out := make([]models.Broker, 0, len(brokers))
	for _, b := range brokers {
		rack := ""
		if b.Rack != nil {
			rack = *b.Rack
		}
		out = append(out, models.Broker{
			NodeID:     b.NodeID,
			Host:       b.Host,
			Port:       b.Port,
			Rack:       rack,
			Controller: b.NodeID == controller,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NodeID < out[j].NodeID })
	return out
}

func groupsFromLags(lags kadm.DescribedGroupLags) []models.ConsumerGroup {
	out := make([]models.ConsumerGroup, 0, len(lags))
	for _, l := range lags.Sorted() {
		g := models.ConsumerGroup{
			ID:           l.Group,
			State:        l.State,
			ProtocolType: l.ProtocolType,
			Protocol:     l.Protocol,
			Coordinator:  l.Coordinator.NodeID,
			Members:      make([]models.GroupMember, 0, len(l.Members)),
			Topics:       []string{},
			TopicLags:    make(map[string]int64),
		}

		assigned := make(map[string]map[string][]int32)
		for topic, partitions := range l.Lag {
			var topicLag int64
			for p, ml := range partitions {
				if ml.Err == nil && ml.Lag > 0 {
					topicLag += ml.Lag
				}
				if ml.Member != nil {
					if assigned[ml.Member.MemberID] == nil {
						assigned[ml.Member.MemberID] = make(map[string][]int32)
					}
					assigned[ml.Member.MemberID][topic] = append(assigned[ml.Member.MemberID][topic], p)
				}
			}
			g.Topics = append(g.Topics, topic)
			g.TopicLags[topic] = topicLag
			g.Lag += topicLag
		}
		sort.Strings(g.Topics)

		for _, m := range l.Members {
			a := assigned[m.MemberID]
			for _, ps := range a {
				slices.Sort(ps)
			}
			g.Members = append(g.Members, models.GroupMember{
				MemberID:   m.MemberID,
				ClientID:   m.ClientID,
				ClientHost: m.ClientHost,
				Assigned:   a,
			})
		}
		out = append(out, g)
	}
	return out
}
