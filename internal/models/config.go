package models

import "github.com/Vashnak/Franz-manager-sub000/internal/filter"

// ConfigEntry is one key of a topic configuration. Value is nil when the
// cluster reports no value (sensitive or unset).
type ConfigEntry struct {
	Key       string  `json:"key"`
	Value     *string `json:"value"`
	Source    string  `json:"source,omitempty"`
	Sensitive bool    `json:"sensitive,omitempty"`
}

func (c ConfigEntry) RecordID() string { return c.Key }

func (c ConfigEntry) SortValue(field string) filter.Value {
	switch field {
	case filter.FieldID, filter.FieldName, "key":
		return filter.String(c.Key)
	case "value":
		if c.Value == nil {
			return filter.Value{}
		}
		return filter.String(*c.Value)
	case "source":
		return filter.String(c.Source)
	}
	return filter.Value{}
}

// Bucket names a semantic group of configuration keys.
type Bucket string

const (
	BucketMessages    Bucket = "messages"
	BucketRetention   Bucket = "retention"
	BucketReplication Bucket = "replication"
	BucketSegment     Bucket = "segment"
	BucketOthers      Bucket = "others"
)

// Buckets lists every bucket in display order.
var Buckets = []Bucket{BucketMessages, BucketRetention, BucketReplication, BucketSegment, BucketOthers}

// ConfigBuckets is a flat configuration split into its five buckets.
type ConfigBuckets struct {
	Messages    map[string]*string `json:"messages"`
	Retention   map[string]*string `json:"retention"`
	Replication map[string]*string `json:"replication"`
	Segment     map[string]*string `json:"segment"`
	Others      map[string]*string `json:"others"`
}

func NewConfigBuckets() ConfigBuckets {
	return ConfigBuckets{
		Messages:    map[string]*string{},
		Retention:   map[string]*string{},
		Replication: map[string]*string{},
		Segment:     map[string]*string{},
		Others:      map[string]*string{},
	}
}

// Bucket returns the map backing b. Unknown names map to Others.
func (c ConfigBuckets) Bucket(b Bucket) map[string]*string {
	switch b {
	case BucketMessages:
		return c.Messages
	case BucketRetention:
		return c.Retention
	case BucketReplication:
		return c.Replication
	case BucketSegment:
		return c.Segment
	default:
		return c.Others
	}
}

// Len is the number of keys across all buckets.
func (c ConfigBuckets) Len() int {
	return len(c.Messages) + len(c.Retention) + len(c.Replication) + len(c.Segment) + len(c.Others)
}
