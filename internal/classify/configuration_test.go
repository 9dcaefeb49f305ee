package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Vashnak/Franz-manager-sub000/internal/models"
)

func ptr(s string) *string { return &s }

func TestConfigurationExample(t *testing.T) {
	got := Configuration(map[string]*string{
		"retention.ms":  ptr("1000"),
		"segment.bytes": ptr("512"),
		"custom.flag":   ptr("true"),
	})

	assert.Equal(t, map[string]*string{"retention.ms": ptr("1000")}, got.Retention)
	assert.Equal(t, map[string]*string{"segment.bytes": ptr("512")}, got.Segment)
	assert.Equal(t, map[string]*string{"custom.flag": ptr("true")}, got.Others)
	assert.Empty(t, got.Messages)
	assert.Empty(t, got.Replication)
	assert.NotNil(t, got.Messages)
	assert.NotNil(t, got.Replication)
}

func TestBucketOf(t *testing.T) {
	tests := map[string]models.Bucket{
		"max.message.bytes":                       models.BucketMessages,
		"message.timestamp.type":                  models.BucketMessages,
		"retention.bytes":                         models.BucketRetention,
		"delete.retention.ms":                     models.BucketRetention,
		"min.insync.replicas":                     models.BucketReplication,
		"leader.replication.throttled.replicas":   models.BucketReplication,
		"segment.ms":                              models.BucketSegment,
		"segment.index.bytes":                     models.BucketSegment,
		"cleanup.policy":                          models.BucketOthers,
		"compression.type":                        models.BucketOthers,
		"message.retention.replica.segment":       models.BucketMessages,
		"retention.of.replica.segment":            models.BucketRetention,
		"follower.replication.throttled.replicas": models.BucketReplication,
		"Retention.ms":                            models.BucketOthers,
	}
	for key, want := range tests {
		assert.Equal(t, want, BucketOf(key), "key %q", key)
	}
	assert.Equal(t, models.BucketOthers, BucketOf(""))
}

func TestConfigurationPartitionsKeys(t *testing.T) {
	flat := map[string]*string{
		"cleanup.policy":      ptr("compact"),
		"max.message.bytes":   ptr("1048588"),
		"retention.ms":        ptr("604800000"),
		"min.insync.replicas": ptr("2"),
		"segment.bytes":       ptr("1073741824"),
		"unset.key":           nil,
	}

	got := Configuration(flat)
	assert.Equal(t, len(flat), got.Len())

	for key, value := range flat {
		found := 0
		for _, b := range models.Buckets {
			if v, ok := got.Bucket(b)[key]; ok {
				found++
				assert.Equal(t, value, v)
			}
		}
		assert.Equal(t, 1, found, "key %q", key)
	}

	assert.Equal(t, got, Configuration(flat))
}

func TestConfigurationEmpty(t *testing.T) {
	got := Configuration(nil)
	assert.Equal(t, 0, got.Len())
	for _, b := range models.Buckets {
		assert.NotNil(t, got.Bucket(b))
	}
}

func TestConfigurationEntries(t *testing.T) {
	entries := []models.ConfigEntry{
		{Key: "segment.ms", Value: ptr("1"), Source: "DEFAULT_CONFIG"},
		{Key: "retention.ms", Value: ptr("2"), Source: "DYNAMIC_TOPIC_CONFIG"},
		{Key: "segment.bytes", Value: ptr("3")},
		{Key: "sasl.password", Sensitive: true},
	}

	got := ConfigurationEntries(entries)
	assert.Len(t, got, len(models.Buckets))
	assert.Equal(t, []models.ConfigEntry{entries[0], entries[2]}, got[models.BucketSegment])
	assert.Equal(t, []models.ConfigEntry{entries[1]}, got[models.BucketRetention])
	assert.Equal(t, []models.ConfigEntry{entries[3]}, got[models.BucketOthers])
	assert.Empty(t, got[models.BucketMessages])
	assert.NotNil(t, got[models.BucketMessages])
}
