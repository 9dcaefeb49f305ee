package models

import (
	"strconv"

	"github.com/Vashnak/Franz-manager-sub000/internal/filter"
)

type Broker struct {
	NodeID     int32  `json:"nodeId"`
	Host       string `json:"host"`
	Port       int32  `json:"port"`
	Rack       string `json:"rack,omitempty"`
	Controller bool   `json:"controller"`
}

func (b Broker) RecordID() string { return strconv.Itoa(int(b.NodeID)) }

func (b Broker) Address() string {
	return b.Host + ":" + strconv.Itoa(int(b.Port))
}

func (b Broker) SortValue(field string) filter.Value {
	switch field {
	case filter.FieldID, filter.FieldName, "nodeId":
		return filter.Number(b.NodeID)
	case "host":
		return filter.String(b.Host)
	case "rack":
		return filter.String(b.Rack)
	}
	return filter.Value{}
}
