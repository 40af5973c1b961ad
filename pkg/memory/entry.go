package memory

import "time"

// MemoryEntry is the record a tier keeps for an admitted key.
type MemoryEntry[P any] struct {
	Key       string    `json:"key"`
	Payload   P         `json:"payload"`
	Surprise  float64   `json:"surprise"`
	Step      uint64    `json:"step"`
	Timestamp time.Time `json:"timestamp"`
}

// RetrievalResult pairs a retrieved payload with its similarity to the query.
type RetrievalResult[P any] struct {
	Key        string  `json:"key"`
	Similarity float32 `json:"similarity"`
	Payload    P       `json:"payload"`
}

// TierStats is a point-in-time snapshot of one tier's counters.
type TierStats struct {
	Size            int     `json:"size"`
	Capacity        int     `json:"capacity"`
	Frozen          bool    `json:"frozen"`
	TotalEncodes    uint64  `json:"total_encodes"`
	TotalUpdates    uint64  `json:"total_updates"`
	TotalRetrievals uint64  `json:"total_retrievals"`
	TotalEvictions  uint64  `json:"total_evictions"`
	AvgSurprise     float64 `json:"avg_surprise"`
	LastUpdateStep  uint64  `json:"last_update_step"`
	LocalStep       uint64  `json:"local_step"`
}

// SystemStats aggregates per-tier stats with system-wide counters.
type SystemStats struct {
	GlobalStep uint64               `json:"global_step"`
	IndexSize  int                  `json:"index_size"`
	Tiers      map[string]TierStats `json:"tiers"`
}
