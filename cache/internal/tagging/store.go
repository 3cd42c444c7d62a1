package tagging

// A Store is the tag array of a whole cache: one LineSet per set, all of the
// same capacity.
type Store struct {
	numWays int
	sets    []LineSet
}

// NewStore creates a store with numSets empty sets of numWays lines each.
// Every set is allocated up front.
func NewStore(numSets, numWays int) *Store {
	s := &Store{
		numWays: numWays,
		sets:    make([]LineSet, numSets),
	}

	s.Reset()

	return s
}

// NumSets returns the number of sets.
func (s *Store) NumSets() int {
	return len(s.sets)
}

// Associativity returns the number of lines each set can hold.
func (s *Store) Associativity() int {
	return s.numWays
}

// SetAt returns the set with the given index.
func (s *Store) SetAt(setIndex int) *LineSet {
	return &s.sets[setIndex]
}

// Occupancy returns the number of valid lines across all sets.
func (s *Store) Occupancy() int {
	n := 0
	for i := range s.sets {
		n += s.sets[i].Len()
	}

	return n
}

// Reset empties every set.
func (s *Store) Reset() {
	for i := range s.sets {
		s.sets[i].init(s.numWays)
	}
}
