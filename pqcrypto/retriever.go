package pqcrypto

import "fmt"

// MapKeyRetriever is a KeyRetriever backed by an in-memory map from the
// UTF-8 string form of key metadata to raw key bytes. It is the retriever
// used by the interop test driver, where key metadata is always a short
// textual identifier such as "kf" or "kc1".
type MapKeyRetriever struct {
	keys map[string][]byte
}

// NewMapKeyRetriever builds a MapKeyRetriever from an identifier-to-key map.
func NewMapKeyRetriever(keys map[string][]byte) *MapKeyRetriever {
	m := &MapKeyRetriever{keys: make(map[string][]byte, len(keys))}
	for k, v := range keys {
		m.keys[k] = v
	}
	return m
}

// Put registers or replaces the key for identifier id.
func (m *MapKeyRetriever) Put(id string, key []byte) {
	m.keys[id] = key
}

// Retrieve implements KeyRetriever by treating keyMetadata as a UTF-8
// identifier into the map.
func (m *MapKeyRetriever) Retrieve(keyMetadata []byte) ([]byte, error) {
	key, ok := m.keys[string(keyMetadata)]
	if !ok {
		return nil, fmt.Errorf("pqcrypto: no key registered for identifier %q: %w", keyMetadata, ErrKeyUnavailable)
	}
	return key, nil
}
