package registry

import "sync"

// ReferenceMap records, per public key, the optional registry reference
// string an actor was started from. Lifecycle start writes an entry only
// for non-empty image_ref per spec.md §4.2; empty image_ref instances
// are simply absent from the map.
type ReferenceMap struct {
	mu   sync.RWMutex
	refs map[string]string
}

// NewReferenceMap creates an empty reference map.
func NewReferenceMap() *ReferenceMap {
	return &ReferenceMap{refs: make(map[string]string)}
}

// Put records imageRef for publicKey. A no-op if imageRef is empty.
func (m *ReferenceMap) Put(publicKey, imageRef string) {
	if imageRef == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refs[publicKey] = imageRef
}

// Get returns the registered image reference for publicKey, if any.
func (m *ReferenceMap) Get(publicKey string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ref, ok := m.refs[publicKey]
	return ref, ok
}

// Delete removes any reference recorded for publicKey.
func (m *ReferenceMap) Delete(publicKey string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.refs, publicKey)
}
