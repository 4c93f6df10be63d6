// Package cookies holds per-application key/value state for watch apps.
package cookies

import (
	"sort"
	"sync"

	"github.com/danmuck/httpebble/internal/appmessage"
)

// Store is an in-memory cookie table keyed by (app id, key).
// Entries live for the process lifetime; nothing is written to disk.
type Store struct {
	mu   sync.RWMutex
	apps map[uint32]map[appmessage.Key]appmessage.Tuple
}

// NewStore constructs an empty cookie store.
func NewStore() *Store {
	return &Store{
		apps: make(map[uint32]map[appmessage.Key]appmessage.Tuple),
	}
}

// Put overwrites the entry for (appID, t.Key).
func (s *Store) Put(appID uint32, t appmessage.Tuple) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, ok := s.apps[appID]
	if !ok {
		entries = make(map[appmessage.Key]appmessage.Tuple)
		s.apps[appID] = entries
	}
	entries[t.Key] = t.Clone()
}

// Get returns a copy of the stored tuple.
func (s *Store) Get(appID uint32, key appmessage.Key) (appmessage.Tuple, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.apps[appID][key]
	if !ok {
		return appmessage.Tuple{}, false
	}
	return t.Clone(), true
}

// Delete removes the entry and reports whether it existed.
func (s *Store) Delete(appID uint32, key appmessage.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, ok := s.apps[appID]
	if !ok {
		return false
	}
	if _, ok := entries[key]; !ok {
		return false
	}
	delete(entries, key)
	if len(entries) == 0 {
		delete(s.apps, appID)
	}
	return true
}

// Keys lists stored keys for appID in ascending order.
func (s *Store) Keys(appID uint32) []appmessage.Key {
	s.mu.RLock()
	keys := make([]appmessage.Key, 0, len(s.apps[appID]))
	for k := range s.apps[appID] {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Apps lists app ids holding at least one cookie.
func (s *Store) Apps() []uint32 {
	s.mu.RLock()
	ids := make([]uint32, 0, len(s.apps))
	for id := range s.apps {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of cookies held for appID.
func (s *Store) Len(appID uint32) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.apps[appID])
}

// Sync is the fsync hook. Cookies are not persisted, so it only acknowledges.
// TODO: write the app table through to disk once a durable backend is chosen.
func (s *Store) Sync(appID uint32) error {
	return nil
}
