package model

import "time"

// Snapshot is the compact, persisted projection of an Aggregate used for change
// detection between scheduled runs.
type Snapshot struct {
	Timestamp int64          `json:"timestamp"` // unix milliseconds
	Nodes     []SnapshotNode `json:"nodes"`
}

type SnapshotNode struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Server string `json:"server,omitempty"`
	Port   int    `json:"port,omitempty"`
	Note   string `json:"note"`
}

func NewSnapshot(agg Aggregate, now time.Time) Snapshot {
	nodes := make([]SnapshotNode, 0, len(agg.Nodes))
	for _, n := range agg.Nodes {
		nodes = append(nodes, SnapshotNode{
			Key:    Key(n),
			Name:   n.Name,
			Type:   string(n.Type),
			Server: n.Server,
			Port:   n.Port,
			Note:   n.Note,
		})
	}
	return Snapshot{Timestamp: now.UnixMilli(), Nodes: nodes}
}

// Time returns the snapshot timestamp in UTC.
func (s Snapshot) Time() time.Time {
	return time.UnixMilli(s.Timestamp).UTC()
}
