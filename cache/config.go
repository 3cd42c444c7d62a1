package cache

import "fmt"

// MaxSetBits bounds the number of set-index bits so that the tag array fits
// in memory.
const MaxSetBits = 30

// Config describes the geometry of a cache.
type Config struct {
	// SetBits is s; the cache has 2^s sets.
	SetBits int
	// Associativity is E, the number of lines per set.
	Associativity int
	// BlockBits is b; blocks are 2^b bytes.
	BlockBits int
}

// NumSets returns S = 2^s.
func (c Config) NumSets() int {
	return 1 << c.SetBits
}

// BlockSize returns B = 2^b in bytes.
func (c Config) BlockSize() uint64 {
	return uint64(1) << c.BlockBits
}

// TotalSize returns the number of bytes the cache can hold.
func (c Config) TotalSize() uint64 {
	return uint64(c.NumSets()) * uint64(c.Associativity) * c.BlockSize()
}

func (c Config) String() string {
	return fmt.Sprintf("s=%d E=%d b=%d", c.SetBits, c.Associativity, c.BlockBits)
}

// A ConfigurationError reports a cache parameter that cannot be simulated.
type ConfigurationError struct {
	Field  string
	Value  int
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %d: %s", e.Field, e.Value, e.Reason)
}

// Validate checks the parameters a user may hand to the simulator: all three
// must be positive and the geometry must be representable.
func (c Config) Validate() error {
	if c.SetBits <= 0 {
		return &ConfigurationError{"set index bits", c.SetBits, "must be positive"}
	}

	if c.Associativity <= 0 {
		return &ConfigurationError{"associativity", c.Associativity, "must be positive"}
	}

	if c.BlockBits <= 0 {
		return &ConfigurationError{"block offset bits", c.BlockBits, "must be positive"}
	}

	return c.checkGeometry()
}

// checkGeometry checks only what the tag array itself needs. A cache with a
// single set or single-byte blocks is a valid model even though the command
// line does not accept one.
func (c Config) checkGeometry() error {
	switch {
	case c.SetBits < 0:
		return &ConfigurationError{"set index bits", c.SetBits, "must not be negative"}
	case c.SetBits > MaxSetBits:
		return &ConfigurationError{"set index bits", c.SetBits,
			fmt.Sprintf("must not exceed %d", MaxSetBits)}
	case c.Associativity < 1:
		return &ConfigurationError{"associativity", c.Associativity, "must be at least 1"}
	case c.BlockBits < 0:
		return &ConfigurationError{"block offset bits", c.BlockBits, "must not be negative"}
	case c.SetBits+c.BlockBits > 64:
		return &ConfigurationError{"block offset bits", c.BlockBits,
			"set and block bits exceed a 64-bit address"}
	}

	return nil
}
