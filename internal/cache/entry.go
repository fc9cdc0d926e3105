package cache

import "time"

// Entry is the durable cache record. Uniqueness is by Key alone; Category
// only scopes bulk operations and statistics.
type Entry struct {
	Key       string         `bson:"key" json:"key"`
	Category  Category       `bson:"category" json:"category"`
	Payload   any            `bson:"payload" json:"payload"`
	CreatedAt time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time      `bson:"updatedAt" json:"updatedAt"`
	ExpiresAt time.Time      `bson:"expiresAt" json:"expiresAt"`
	Metadata  map[string]any `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

// Live reports whether the entry is still logically valid at now. Rows may
// physically outlive their expiry until a sweep runs; reads must not trust
// presence alone.
func (e *Entry) Live(now time.Time) bool {
	return e.ExpiresAt.After(now)
}
