// Package tagging keeps track of which blocks are resident in each set of a
// cache and in what recency order.
package tagging

// A Decoder splits an address into the tag and the set index of the block it
// belongs to. The block offset bits are dropped.
type Decoder struct {
	setBits   uint
	blockBits uint
	setMask   uint64
}

// NewDecoder creates a decoder for a cache with 2^setBits sets and blocks of
// 2^blockBits bytes.
func NewDecoder(setBits, blockBits int) Decoder {
	return Decoder{
		setBits:   uint(setBits),
		blockBits: uint(blockBits),
		setMask:   (uint64(1) << uint(setBits)) - 1,
	}
}

// Decode returns the tag and set index of addr.
func (d Decoder) Decode(addr uint64) (tag uint64, setIndex int) {
	blockAddr := addr >> d.blockBits
	setIndex = int(blockAddr & d.setMask)
	tag = blockAddr >> d.setBits

	return tag, setIndex
}

// NumSets returns the number of sets the decoder can produce indices for.
func (d Decoder) NumSets() int {
	return 1 << d.setBits
}
