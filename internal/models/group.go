package models

import "github.com/Vashnak/Franz-manager-sub000/internal/filter"

type ConsumerGroup struct {
	ID           string           `json:"id"`
	State        string           `json:"state"`
	ProtocolType string           `json:"protocolType"`
	Protocol     string           `json:"protocol"`
	Coordinator  int32            `json:"coordinator"`
	Members      []GroupMember    `json:"members"`
	Topics       []string         `json:"topics"`
	Lag          int64            `json:"lag"`
	TopicLags    map[string]int64 `json:"topicLags,omitempty"`
}

type GroupMember struct {
	MemberID   string             `json:"memberId"`
	ClientID   string             `json:"clientId"`
	ClientHost string             `json:"clientHost"`
	Assigned   map[string][]int32 `json:"assigned,omitempty"`
}

func (g ConsumerGroup) RecordID() string { return g.ID }

func (g ConsumerGroup) SortValue(field string) filter.Value {
	switch field {
	case filter.FieldID, filter.FieldName:
		return filter.String(g.ID)
	case "state":
		return filter.String(g.State)
	case "members":
		return filter.Number(len(g.Members))
	case "topics":
		return filter.Number(len(g.Topics))
	case "lag":
		return filter.Number(g.Lag)
	}
	return filter.Value{}
}
