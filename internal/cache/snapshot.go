package cache

import (
	"time"

	"github.com/example/storefront/internal/catalog"
)

// SnapshotVersion gates stored snapshots: a snapshot written under a
// different version is discarded in full, never migrated.
const SnapshotVersion = "2.1"

// SnapshotKey is the single slot the snapshot occupies in the KV store.
const SnapshotKey = "app_cache"

// Snapshot is the versioned, timestamped local copy of catalog data.
type Snapshot struct {
	Products    []catalog.Product  `json:"products"`
	Categories  []catalog.Category `json:"categories"`
	LastUpdated time.Time          `json:"lastUpdated"`
	Version     string             `json:"version"`
}
