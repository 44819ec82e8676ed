package cache

// Stats holds store counters
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	// Size is the number of entries held, expired or not
	Size int
}

// HitRate returns hits / (hits + misses), or 0 when nothing was looked up.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Stats returns a snapshot of the store counters
func (s *Store[T]) Stats() Stats {
	s.lock.Lock()
	defer s.lock.Unlock()
	return Stats{
		Hits:      s.hits,
		Misses:    s.misses,
		Evictions: s.evictions,
		Size:      s.order.Len(),
	}
}

// ResetStats zeroes the hit, miss and eviction counters.
func (s *Store[T]) ResetStats() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.hits, s.misses, s.evictions = 0, 0, 0
}
