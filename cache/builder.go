package cache

import (
	"github.com/sarchlab/cachesim/cache/internal/tagging"
)

// Builder can build cache engines.
type Builder struct {
	config Config
}

// MakeBuilder creates a new builder. The default geometry is 16 sets of 4
// lines with 64-byte blocks.
func MakeBuilder() Builder {
	return Builder{
		config: Config{
			SetBits:       4,
			Associativity: 4,
			BlockBits:     6,
		},
	}
}

// WithConfig replaces the whole geometry.
func (b Builder) WithConfig(config Config) Builder {
	b.config = config
	return b
}

// WithSetBits sets the number of set-index bits.
func (b Builder) WithSetBits(setBits int) Builder {
	b.config.SetBits = setBits
	return b
}

// WithWayAssociativity sets the number of lines per set.
func (b Builder) WithWayAssociativity(ways int) Builder {
	b.config.Associativity = ways
	return b
}

// WithBlockBits sets the number of block-offset bits.
func (b Builder) WithBlockBits(blockBits int) Builder {
	b.config.BlockBits = blockBits
	return b
}

// Build builds an engine with an empty cache. It panics if the geometry
// cannot be represented; user input should go through Config.Validate first.
func (b Builder) Build(name string) *Engine {
	b.mustHaveValidGeometry()

	return &Engine{
		name:    name,
		config:  b.config,
		decoder: tagging.NewDecoder(b.config.SetBits, b.config.BlockBits),
		store:   tagging.NewStore(b.config.NumSets(), b.config.Associativity),
	}
}

func (b Builder) mustHaveValidGeometry() {
	if err := b.config.checkGeometry(); err != nil {
		panic(err)
	}
}
