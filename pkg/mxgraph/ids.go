package mxgraph

import (
	"strconv"

	"github.com/google/uuid"
)

// IDGenerator hands out cell ids. Every call returns a fresh id; ids are
// never reused within a document.
type IDGenerator interface {
	NewID() string
}

// RandomIDs generates random version 4 UUIDs. The zero value is ready to use
// and safe for concurrent use.
type RandomIDs struct{}

// NewID returns a random UUID.
func (RandomIDs) NewID() string { return uuid.NewString() }

// SeededIDs generates a reproducible sequence of version 5 UUIDs derived
// from a seed and a counter. Two generators with the same seed produce the
// same sequence. A SeededIDs is not safe for concurrent use.
type SeededIDs struct {
	seed  string
	space uuid.UUID
	next  uint64
}

// NewSeededIDs returns a generator for the given seed.
func NewSeededIDs(seed string) *SeededIDs {
	return &SeededIDs{
		seed:  seed,
		space: uuid.NewSHA1(uuid.NameSpaceOID, []byte("tabledraw:"+seed)),
	}
}

// NewID returns the next id in the sequence.
func (s *SeededIDs) NewID() string {
	id := uuid.NewSHA1(s.space, []byte(strconv.FormatUint(s.next, 10)))
	s.next++
	return id.String()
}

// Seed returns the seed the generator was created with.
func (s *SeededIDs) Seed() string { return s.seed }
