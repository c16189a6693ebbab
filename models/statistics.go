package models

import "encoding/json"

// StatsSnapshot is the aggregate persisted under the statistics key. It is
// derived state: Articles is reconciled against the real collection
// lengths on every recompute and never trusted as a cache.
type StatsSnapshot struct {
	Articles        int    `json:"articles"`
	Visitors        int    `json:"visitors"`
	LastVisit       string `json:"lastVisit,omitempty"`
	UniqueVisitorID string `json:"uniqueVisitorId,omitempty"`
}

// DecodeStats parses a stored snapshot.
func DecodeStats(raw string) (StatsSnapshot, error) {
	var s StatsSnapshot
	err := json.Unmarshal([]byte(raw), &s)
	return s, err
}

// Encode serializes the snapshot for a whole-value store write.
func (s StatsSnapshot) Encode() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
