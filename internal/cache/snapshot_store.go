package cache

import (
	"encoding/json"
	"log"
)

// SnapshotStore persists the catalog snapshot through a KV. Corrupt or
// version-mismatched entries behave exactly as if no entry existed.
type SnapshotStore struct {
	kv KV
}

func NewSnapshotStore(kv KV) *SnapshotStore {
	return &SnapshotStore{kv: kv}
}

// Get returns the stored snapshot, or nil when there is none, it fails to
// parse, or its version tag does not match SnapshotVersion.
func (s *SnapshotStore) Get() *Snapshot {
	data, ok, err := s.kv.Get(SnapshotKey)
	if err != nil {
		log.Printf("[Cache] Failed to read snapshot: %v", err)
		return nil
	}
	if !ok {
		return nil
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Printf("[Cache] Discarding unparsable snapshot: %v", err)
		return nil
	}
	if snap.Version != SnapshotVersion {
		log.Printf("[Cache] Discarding snapshot with version %q (want %q)", snap.Version, SnapshotVersion)
		return nil
	}
	return &snap
}

// Set writes the snapshot best-effort. Failures are logged and swallowed so a
// full store never breaks the read path.
func (s *SnapshotStore) Set(snap *Snapshot) {
	snap.Version = SnapshotVersion
	data, err := json.Marshal(snap)
	if err != nil {
		log.Printf("[Cache] Failed to marshal snapshot: %v", err)
		return
	}
	if err := s.kv.Set(SnapshotKey, data); err != nil {
		log.Printf("[Cache] Failed to persist snapshot: %v", err)
	}
}

// Clear removes the stored snapshot unconditionally.
func (s *SnapshotStore) Clear() {
	if err := s.kv.Delete(SnapshotKey); err != nil {
		log.Printf("[Cache] Failed to clear snapshot: %v", err)
	}
}
