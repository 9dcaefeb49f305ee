// Package listing composes the filter and classify steps into the listings
// served by the API. Every function here is pure.
package listing

import (
	"errors"
	"slices"
	"strings"

	"github.com/Vashnak/Franz-manager-sub000/internal/classify"
	"github.com/Vashnak/Franz-manager-sub000/internal/filter"
	"github.com/Vashnak/Franz-manager-sub000/internal/models"
)

type TopicListing struct {
	Folder         string          `json:"folder"`
	Folders        []models.Folder `json:"folders"`
	Topics         []models.Topic  `json:"topics"`
	Total          int             `json:"total"`
	Matched        int             `json:"matched"`
	InvalidPattern bool            `json:"invalidPattern"`
}

// Topics filters topics by state and, when tree is set, groups them into the
// folders under state.Folder. A flat listing ignores the folder.
func Topics(topics []models.Topic, state models.FilterState, tree bool) TopicListing {
	state = state.Normalize()
	res := TopicListing{
		Folder:  state.Folder,
		Folders: []models.Folder{},
		Total:   len(topics),
	}

	candidates := topics
	if tree {
		candidates = filter.WithinFolder(topics, state.Folder, classify.DefaultDelimiter)
	}

	matched, invalid := byName(candidates, state)
	res.InvalidPattern = invalid
	res.Matched = len(matched)

	if !tree {
		res.Topics = filter.SortWithPolicy(matched, state.SortBy, state.Reverse)
		return res
	}

	level := classify.IntoFolders(matched, state.Folder, classify.DefaultDelimiter, state.SortBy, state.Reverse)
	res.Folders = level.Folders
	res.Topics = level.Leaves
	return res
}

type GroupListing struct {
	Groups         []models.ConsumerGroup `json:"groups"`
	Total          int                    `json:"total"`
	InvalidPattern bool                   `json:"invalidPattern"`
}

func Groups(groups []models.ConsumerGroup, state models.FilterState) GroupListing {
	matched, invalid := byName(groups, state)
	return GroupListing{
		Groups:         filter.SortWithPolicy(matched, state.SortBy, state.Reverse),
		Total:          len(groups),
		InvalidPattern: invalid,
	}
}

// GroupsOfTopic keeps the groups consuming topic.
func GroupsOfTopic(groups []models.ConsumerGroup, topic string) []models.ConsumerGroup {
	out := make([]models.ConsumerGroup, 0)
	for _, g := range groups {
		if slices.Contains(g.Topics, topic) {
			out = append(out, g)
		}
	}
	return out
}

type BrokerListing struct {
	Brokers        []models.Broker `json:"brokers"`
	InvalidPattern bool            `json:"invalidPattern"`
}

// Brokers filters on the broker host rather than the node id.
func Brokers(brokers []models.Broker, state models.FilterState) BrokerListing {
	hosts := make([]brokerByHost, len(brokers))
	for i, b := range brokers {
		hosts[i] = brokerByHost{b}
	}
	matched, invalid := byName(hosts, state)
	out := make([]models.Broker, len(matched))
	for i, m := range matched {
		out[i] = m.Broker
	}
	return BrokerListing{
		Brokers:        filter.SortWithPolicy(out, state.SortBy, state.Reverse),
		InvalidPattern: invalid,
	}
}

type brokerByHost struct{ models.Broker }

func (b brokerByHost) RecordID() string { return b.Address() }

// ConfigListing is the settings panel of a topic: keys matching the query,
// split into buckets, each bucket ordered by key.
type ConfigListing struct {
	Topic          string                                 `json:"topic"`
	Buckets        map[models.Bucket][]models.ConfigEntry `json:"buckets"`
	Total          int                                    `json:"total"`
	InvalidPattern bool                                   `json:"invalidPattern"`
}

func Configuration(topic string, entries []models.ConfigEntry, state models.FilterState) ConfigListing {
	matched, invalid := byName(entries, state)
	buckets := classify.ConfigurationEntries(matched)
	for b, es := range buckets {
		buckets[b] = filter.SortRecords(es, "key", false)
	}
	return ConfigListing{
		Topic:          topic,
		Buckets:        buckets,
		Total:          len(entries),
		InvalidPattern: invalid,
	}
}

// Partitions orders the partitions of a single topic.
func Partitions(partitions []models.Partition, sortBy string, reverse bool) []models.Partition {
	return filter.SortWithPolicy(partitions, sortBy, reverse)
}

// FolderPath splits a folder into its breadcrumb ancestors, "a.b.c" giving
// ["a", "a.b", "a.b.c"].
func FolderPath(folder string) []string {
	if folder == "" {
		return []string{}
	}
	parts := strings.Split(folder, classify.DefaultDelimiter)
	out := make([]string, len(parts))
	for i := range parts {
		out[i] = strings.Join(parts[:i+1], classify.DefaultDelimiter)
	}
	return out
}

// byName applies the name filter and the suffix exclusion. An invalid regular
// expression is reported through the boolean, never as an error.
func byName[T filter.Record](records []T, state models.FilterState) ([]T, bool) {
	matched, err := filter.FilterByName(records, state.NameQuery, state.ByRegexp, state.CaseSensitive)
	if err != nil {
		if errors.Is(err, filter.ErrInvalidPattern) {
			return matched, true
		}
		return []T{}, false
	}
	suffix, enabled := state.Excluding()
	return filter.ExcludeBySuffix(matched, suffix, enabled), false
}
