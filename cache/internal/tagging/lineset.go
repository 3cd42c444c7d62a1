package tagging

// A line is a slot in the arena of a LineSet. Slot 0 is the sentinel that
// links the most-recently-used line (next) and the least-recently-used line
// (prev).
type line struct {
	tag  uint64
	prev int32
	next int32
}

// A LineSet holds the valid lines of one cache set, ordered from most to
// least recently used. A line is present only while it is valid.
//
// Lines live in a fixed arena of capacity+1 slots linked by index. Slots
// 1..Len() are in use; an eviction hands the victim's slot to the new tag, so
// slots are never released.
type LineSet struct {
	lines []line
	size  int
}

// NewLineSet creates an empty set that can hold up to capacity lines.
func NewLineSet(capacity int) *LineSet {
	s := &LineSet{}
	s.init(capacity)

	return s
}

func (s *LineSet) init(capacity int) {
	s.lines = make([]line, capacity+1)
	s.size = 0
	s.lines[0].prev = 0
	s.lines[0].next = 0
}

// Capacity returns the maximum number of lines the set can hold.
func (s *LineSet) Capacity() int {
	return len(s.lines) - 1
}

// Len returns the number of resident lines.
func (s *LineSet) Len() int {
	return s.size
}

// Lookup reports whether tag is resident. On a hit the line becomes the most
// recently used one. A miss leaves the set untouched.
func (s *LineSet) Lookup(tag uint64) bool {
	i := s.find(tag)
	if i == 0 {
		return false
	}

	s.moveToFront(i)

	return true
}

// Contains reports whether tag is resident without touching the recency
// order.
func (s *LineSet) Contains(tag uint64) bool {
	return s.find(tag) != 0
}

// Insert places tag at the most-recently-used position. It must only be
// called after Lookup missed on tag. If the set was full, the least recently
// used line is dropped and its tag is returned with evicted set to true.
func (s *LineSet) Insert(tag uint64) (evictedTag uint64, evicted bool) {
	var i int32

	if s.size < s.Capacity() {
		s.size++
		i = int32(s.size)
		s.linkFront(i)
	} else {
		i = s.lines[0].prev
		evictedTag = s.lines[i].tag
		evicted = true
		s.moveToFront(i)
	}

	s.lines[i].tag = tag

	return evictedTag, evicted
}

// Tags returns the resident tags from most to least recently used.
func (s *LineSet) Tags() []uint64 {
	tags := make([]uint64, 0, s.size)
	for i := s.lines[0].next; i != 0; i = s.lines[i].next {
		tags = append(tags, s.lines[i].tag)
	}

	return tags
}

// Reset drops every line.
func (s *LineSet) Reset() {
	s.init(s.Capacity())
}

func (s *LineSet) find(tag uint64) int32 {
	for i := s.lines[0].next; i != 0; i = s.lines[i].next {
		if s.lines[i].tag == tag {
			return i
		}
	}

	return 0
}

func (s *LineSet) unlink(i int32) {
	n := &s.lines[i]
	s.lines[n.prev].next = n.next
	s.lines[n.next].prev = n.prev
}

func (s *LineSet) linkFront(i int32) {
	head := s.lines[0].next

	s.lines[i].prev = 0
	s.lines[i].next = head
	s.lines[head].prev = i
	s.lines[0].next = i
}

func (s *LineSet) moveToFront(i int32) {
	if s.lines[0].next == i {
		return
	}

	s.unlink(i)
	s.linkFront(i)
}
