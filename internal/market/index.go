package market

import (
	"sync"

	"itemmarket-rest-api/internal/model"
)

// indexShards is the number of lock shards. Claims on different listings
// land on different shards and never contend on one lock.
const indexShards = 32

type indexShard struct {
	mu       sync.RWMutex
	listings map[int64]*model.Listing
}

// Index holds the active listings in memory, keyed by listing id. It mirrors
// the store's active subset: entries are added on create (and at startup)
// and removed exactly once, by whichever purchase, cancel or expiry claim
// wins. TakeIf is the only way an entry leaves the index during normal
// operation, which makes it the serialization point for terminal
// transitions.
type Index struct {
	shards [indexShards]indexShard
}

// NewIndex creates an empty listing index.
func NewIndex() *Index {
	ix := &Index{}
	for i := range ix.shards {
		ix.shards[i].listings = make(map[int64]*model.Listing)
	}
	return ix
}

func (ix *Index) shardFor(listingID int64) *indexShard {
	return &ix.shards[uint64(listingID)%indexShards]
}

// Put inserts or restores a listing.
func (ix *Index) Put(listing *model.Listing) {
	s := ix.shardFor(listing.ListingID)
	s.mu.Lock()
	s.listings[listing.ListingID] = listing
	s.mu.Unlock()
}

// Get returns the listing or nil when it is not in the index.
func (ix *Index) Get(listingID int64) *model.Listing {
	s := ix.shardFor(listingID)
	s.mu.RLock()
	listing := s.listings[listingID]
	s.mu.RUnlock()
	return listing
}

// TakeIf atomically removes and returns the listing when it is present and
// keep reports true for it; otherwise it returns nil and leaves the index
// untouched. For a given id, concurrent callers see exactly one non-nil
// result per resident entry: the check and the removal happen under one
// shard lock.
func (ix *Index) TakeIf(listingID int64, keep func(*model.Listing) bool) *model.Listing {
	s := ix.shardFor(listingID)
	s.mu.Lock()
	defer s.mu.Unlock()

	listing, ok := s.listings[listingID]
	if !ok || !keep(listing) {
		return nil
	}
	delete(s.listings, listingID)
	return listing
}

// Len returns the number of listings currently indexed.
func (ix *Index) Len() int {
	n := 0
	for i := range ix.shards {
		s := &ix.shards[i]
		s.mu.RLock()
		n += len(s.listings)
		s.mu.RUnlock()
	}
	return n
}

// Snapshot returns the current listings. The slice is a point-in-time copy;
// entries may be claimed while the caller iterates it.
func (ix *Index) Snapshot() []*model.Listing {
	listings := make([]*model.Listing, 0, 64)
	for i := range ix.shards {
		s := &ix.shards[i]
		s.mu.RLock()
		for _, listing := range s.listings {
			listings = append(listings, listing)
		}
		s.mu.RUnlock()
	}
	return listings
}
