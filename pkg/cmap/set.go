package cmap

// Set is a Map with its values discarded (original_source's set_* family,
// which wraps map_t and stores a sentinel value at every key).
type Set[K any] struct {
	m *Map[K, struct{}]
}

// NewSet builds an empty set over K, hashed and compared the same way a Map
// would be.
func NewSet[K any](hash func(K) uint64, eq func(a, b K) bool) *Set[K] {
	return &Set[K]{m: New[K, struct{}](hash, eq)}
}

// Len returns the number of members.
func (s *Set[K]) Len() int { return s.m.Len() }

// Add inserts key, reporting whether it was newly added (false if already a
// member).
func (s *Set[K]) Add(key K) bool {
	_, existed := s.m.Set(key, struct{}{})
	return !existed
}

// Remove deletes key, reporting whether it was a member.
func (s *Set[K]) Remove(key K) bool {
	_, existed := s.m.Delete(key)
	return existed
}

// Contains reports whether key is a member.
func (s *Set[K]) Contains(key K) bool {
	return s.m.Contains(key)
}

// Each visits every member in unspecified order.
func (s *Set[K]) Each(fn func(key K)) {
	s.m.Each(func(key K, _ struct{}) { fn(key) })
}
