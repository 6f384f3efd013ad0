// Package cache is a flat JSON file cache with per-read TTL checks.
//
// The on-disk layout is a stable contract shared with other
// implementations: a single JSON document mapping cache keys to
// {"ts": <seconds since epoch>, "value": <json>} entries. Entries are
// never eagerly evicted; staleness is decided at read time from the
// caller-supplied max age.
//
// The cache assumes a single writer per file. Concurrent runs sharing a
// path race on Save (last writer wins); callers needing more must add
// locking or move to an embedded store.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// NoExpiry disables the age check in Load.
const NoExpiry time.Duration = -1

type entry struct {
	TS    float64         `json:"ts"`
	Value json.RawMessage `json:"value"`
}

// Load reads the value stored under key into out. It returns false on a
// missing or unreadable file, corrupt JSON, a missing key or timestamp,
// or an entry older than maxAge. All failures are a miss; Load never
// returns an error. An entry exactly maxAge old is still fresh.
func Load(path, key string, maxAge time.Duration, out any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}

	var store map[string]entry
	if err := json.Unmarshal(data, &store); err != nil {
		return false
	}

	ent, ok := store[key]
	if !ok || ent.TS == 0 {
		return false
	}

	if maxAge >= 0 {
		age := time.Since(time.Unix(0, int64(ent.TS*float64(time.Second))))
		if age > maxAge {
			return false
		}
	}

	if out == nil {
		return true
	}
	return json.Unmarshal(ent.Value, out) == nil
}

// Save stores value under key, merging over any existing entries in the
// file. A corrupt existing file is replaced rather than failing the
// write. Errors are returned for logging; writes are best-effort and
// never fatal to the caller.
func Save(path, key string, value any) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	store := map[string]json.RawMessage{}
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &store); err != nil {
			store = map[string]json.RawMessage{}
		}
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	ent, err := json.Marshal(entry{
		TS:    float64(time.Now().UnixNano()) / float64(time.Second),
		Value: raw,
	})
	if err != nil {
		return err
	}
	store[key] = ent

	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
