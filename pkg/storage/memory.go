package storage

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/matzehuels/tabledraw/pkg/errors"
)

// DefaultMaxDocuments caps a [MemoryStore] created without [WithMaxDocuments].
const DefaultMaxDocuments = 1000

// MemoryOption configures a [MemoryStore].
type MemoryOption func(*MemoryStore)

// WithMaxDocuments caps the number of retained documents. Saving beyond
// the cap evicts the oldest documents first. n <= 0 removes the cap.
func WithMaxDocuments(n int) MemoryOption {
	return func(s *MemoryStore) { s.maxDocs = n }
}

// WithTTL expires documents ttl after their CreatedAt. Zero keeps them
// until evicted by the cap.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(s *MemoryStore) { s.ttl = ttl }
}

// MemoryStore keeps documents in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	docs    map[string]Document
	order   []string // ids in save order, oldest first
	maxDocs int
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an empty store holding at most
// [DefaultMaxDocuments] documents unless opts say otherwise.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		docs:    make(map[string]Document),
		maxDocs: DefaultMaxDocuments,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save implements Store. It drops expired documents and, past the cap,
// the oldest ones.
func (s *MemoryStore) Save(_ context.Context, doc *Document) error {
	prepare(doc)
	cp := *doc
	cp.Content = append([]byte(nil), doc.Content...)
	cp.Headers = append([]string(nil), doc.Headers...)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[doc.ID]; ok {
		s.order = slices.DeleteFunc(s.order, func(id string) bool { return id == doc.ID })
	}
	s.docs[doc.ID] = cp
	s.order = append(s.order, doc.ID)
	s.sweep()
	return nil
}

// sweep removes expired documents and enforces the cap. Callers hold mu.
func (s *MemoryStore) sweep() {
	if s.ttl > 0 {
		now := s.now()
		s.order = slices.DeleteFunc(s.order, func(id string) bool {
			if s.expired(s.docs[id], now) {
				delete(s.docs, id)
				return true
			}
			return false
		})
	}
	if s.maxDocs > 0 && len(s.order) > s.maxDocs {
		drop := len(s.order) - s.maxDocs
		for _, id := range s.order[:drop] {
			delete(s.docs, id)
		}
		s.order = slices.Delete(s.order, 0, drop)
	}
}

func (s *MemoryStore) expired(doc Document, now time.Time) bool {
	return s.ttl > 0 && !doc.CreatedAt.Add(s.ttl).After(now)
}

// Get implements Store. Expired documents are reported as not found.
func (s *MemoryStore) Get(_ context.Context, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok || s.expired(doc, s.now()) {
		return nil, errors.New(errors.ErrCodeNotFound, "document %q not found", id)
	}
	return &doc, nil
}

// Len reports the number of documents currently held, expired ones
// included until the next Save.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Close implements Store.
func (s *MemoryStore) Close(context.Context) error { return nil }

var _ Store = (*MemoryStore)(nil)
