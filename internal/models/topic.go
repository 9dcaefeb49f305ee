package models

import (
	"strconv"

	"github.com/Vashnak/Franz-manager-sub000/internal/filter"
)

// Topic is one entry of the topic list fetched from the cluster.
type Topic struct {
	ID           string `json:"id"`
	Partitions   int    `json:"partitions"`
	Replications int    `json:"replications"`
	Internal     bool   `json:"internal,omitempty"`
}

func (t Topic) RecordID() string { return t.ID }

func (t Topic) SortValue(field string) filter.Value {
	switch field {
	case filter.FieldID, filter.FieldName:
		return filter.String(t.ID)
	case "partitions":
		return filter.Number(t.Partitions)
	case "replications":
		return filter.Number(t.Replications)
	}
	return filter.Value{}
}

// Folder groups the topics sharing a dot-delimited prefix. It only exists for
// the tree view and is rebuilt on every request.
type Folder struct {
	ID           string  `json:"id"`
	Topics       []Topic `json:"topics"`
	Partitions   int     `json:"partitions"`
	Replications int     `json:"replications"`
}

func (f Folder) RecordID() string { return f.ID }

func (f Folder) SortValue(field string) filter.Value {
	switch field {
	case filter.FieldID, filter.FieldName:
		return filter.String(f.ID)
	case "partitions":
		return filter.Number(f.Partitions)
	case "replications":
		return filter.Number(f.Replications)
	case "topics":
		return filter.Number(len(f.Topics))
	}
	return filter.Value{}
}

// Partition describes a single partition of a topic.
type Partition struct {
	ID          int32   `json:"id"`
	Leader      int32   `json:"leader"`
	Replicas    []int32 `json:"replicas"`
	ISR         []int32 `json:"isr"`
	StartOffset int64   `json:"startOffset"`
	EndOffset   int64   `json:"endOffset"`
}

func (p Partition) RecordID() string { return strconv.Itoa(int(p.ID)) }

// UnderReplicated reports whether some replicas are out of the ISR.
func (p Partition) UnderReplicated() bool {
	return len(p.ISR) < len(p.Replicas)
}

func (p Partition) SortValue(field string) filter.Value {
	switch field {
	case filter.FieldID, filter.FieldName:
		return filter.Number(p.ID)
	case "leader":
		return filter.Number(p.Leader)
	case "replicas":
		return filter.Number(len(p.Replicas))
	case "isr":
		return filter.Number(len(p.ISR))
	case "messages":
		return filter.Number(p.EndOffset - p.StartOffset)
	case "endOffset":
		return filter.Number(p.EndOffset)
	}
	return filter.Value{}
}
