package classify

import (
	"strings"

	"github.com/Vashnak/Franz-manager-sub000/internal/models"
)

type bucketRule struct {
	match  func(key string) bool
	bucket models.Bucket
}

func containing(sub string) func(string) bool {
	return func(key string) bool { return strings.Contains(key, sub) }
}

// bucketRules are evaluated in order, first match wins.
var bucketRules = []bucketRule{
	{containing("message"), models.BucketMessages},
	{containing("retention"), models.BucketRetention},
	{containing("replica"), models.BucketReplication},
	{containing("segment"), models.BucketSegment},
}

// BucketOf returns the bucket a configuration key belongs to.
func BucketOf(key string) models.Bucket {
	for _, r := range bucketRules {
		if r.match(key) {
			return r.bucket
		}
	}
	return models.BucketOthers
}

// Configuration splits a flat configuration map into its buckets. Every key
// ends up in exactly one bucket.
func Configuration(flat map[string]*string) models.ConfigBuckets {
	out := models.NewConfigBuckets()
	for k, v := range flat {
		out.Bucket(BucketOf(k))[k] = v
	}
	return out
}

// ConfigurationEntries is Configuration over described entries, keeping the
// entries themselves so callers retain source and sensitivity.
func ConfigurationEntries(entries []models.ConfigEntry) map[models.Bucket][]models.ConfigEntry {
	out := make(map[models.Bucket][]models.ConfigEntry, len(models.Buckets))
	for _, b := range models.Buckets {
		out[b] = []models.ConfigEntry{}
	}
	for _, e := range entries {
		b := BucketOf(e.Key)
		out[b] = append(out[b], e)
	}
	return out
}
