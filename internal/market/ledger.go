package market

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"itemmarket-rest-api/internal/item"
	"itemmarket-rest-api/internal/model"
	"itemmarket-rest-api/internal/repository"
)

// Ledger is the marketplace facade: it composes the in-memory index with
// the durable store. The store owns identity and durability; the index owns
// the race. Every terminal transition (purchase, cancel, expire) claims the
// listing out of the index first, then applies the store-side effects, so
// at most one such transition ever succeeds per listing.
type Ledger struct {
	index    *Index
	listings repository.ListingRepository
	txns     repository.TransactionRepository
}

// NewLedger creates a ledger over the given repositories. Initialize must
// be called before any other method.
func NewLedger(listings repository.ListingRepository, txns repository.TransactionRepository) *Ledger {
	return &Ledger{
		index:    NewIndex(),
		listings: listings,
		txns:     txns,
	}
}

// Initialize loads all active listings from the store into the index. On
// error the index must be considered unusable; the owning process should
// refuse to start rather than serve from a partial index.
func (m *Ledger) Initialize(ctx context.Context) error {
	active, err := m.listings.GetAllActiveListings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load active listings: %w", err)
	}
	for _, listing := range active {
		m.index.Put(listing)
	}
	log.Printf("[Ledger] Loaded %d active listings", len(active))
	return nil
}

// CreateListing persists a new listing and inserts it into the index. The
// store assigns the id, so it is written first; the index is never touched
// when persistence fails. expiryHours of nil means the listing never
// expires.
func (m *Ledger) CreateListing(ctx context.Context, sellerUUID uuid.UUID, it *item.Item, price decimal.Decimal, expiryHours *int) (*model.Listing, error) {
	if price.IsNegative() {
		return nil, fmt.Errorf("price must not be negative")
	}

	var expiryDate *time.Time
	if expiryHours != nil {
		expiry := time.Now().UTC().Add(time.Duration(*expiryHours) * time.Hour)
		expiryDate = &expiry
	}

	listing, err := m.listings.CreateListing(ctx, sellerUUID, it, price, expiryDate)
	if err != nil {
		return nil, err
	}
	m.index.Put(listing)
	return listing, nil
}

// PurchaseItem attempts to buy a listing for buyerUUID. A nil, nil return
// means the listing was not available: it never existed, or another buyer,
// a cancel or an expiry sweep claimed it first. That is expected control
// flow, not an error.
//
// The index claim decides the winner. Only after winning does the buyer's
// transaction get recorded and the store row deactivated. When recording
// fails the claim is undone (the listing goes back into the index) so the
// still-active store row stays purchasable. When only the deactivation
// fails the sale stands: the transaction is durable and the listing can no
// longer be claimed, so the stale active flag is logged for an operator
// instead of failing the purchase.
func (m *Ledger) PurchaseItem(ctx context.Context, buyerUUID uuid.UUID, listingID int64) (*model.Transaction, error) {
	listing := m.index.TakeIf(listingID, func(l *model.Listing) bool {
		return l.IsActive
	})
	if listing == nil {
		return nil, nil
	}

	txn, err := m.txns.RecordTransaction(ctx, listing.ListingID, listing.SellerUUID, buyerUUID, listing.Item, listing.Price)
	if err != nil {
		m.index.Put(listing)
		return nil, fmt.Errorf("failed to record transaction for listing %d: %w", listingID, err)
	}

	if err := m.listings.DeactivateListing(ctx, listing.ListingID); err != nil {
		log.Printf("[Ledger] Listing %d sold (transaction %d) but still active in store: %v",
			listing.ListingID, txn.TransactionID, err)
	}
	return txn, nil
}

// CancelListing removes a listing at its seller's request. It returns false
// without mutating anything when the listing is not active or requesterUUID
// is not the seller. The seller check runs inside the claim, so a cancel
// attempt by anyone else can never race a concurrent purchase into losing
// the listing.
func (m *Ledger) CancelListing(ctx context.Context, listingID int64, requesterUUID uuid.UUID) (bool, error) {
	listing := m.index.TakeIf(listingID, func(l *model.Listing) bool {
		return l.IsActive && l.SellerUUID == requesterUUID
	})
	if listing == nil {
		return false, nil
	}

	if err := m.listings.DeactivateListing(ctx, listingID); err != nil {
		m.index.Put(listing)
		return false, fmt.Errorf("failed to cancel listing %d: %w", listingID, err)
	}
	return true, nil
}

// CleanExpiredListings retires every indexed listing whose expiry is at or
// before now and returns how many were retired. Listings without an expiry
// are never collected. Each id is claimed with the same discipline as a
// purchase, so a listing cannot be both sold and expired; a store failure
// on one id restores it for the next sweep and does not stop the rest.
func (m *Ledger) CleanExpiredListings(ctx context.Context) int {
	now := time.Now().UTC()

	var expiredIDs []int64
	for _, listing := range m.index.Snapshot() {
		if listing.Expired(now) {
			expiredIDs = append(expiredIDs, listing.ListingID)
		}
	}

	retired := 0
	for _, id := range expiredIDs {
		listing := m.index.TakeIf(id, func(l *model.Listing) bool {
			return l.Expired(now)
		})
		if listing == nil {
			// Purchased or cancelled since the snapshot.
			continue
		}
		if err := m.listings.DeactivateListing(ctx, id); err != nil {
			m.index.Put(listing)
			log.Printf("[Ledger] Failed to deactivate expired listing %d: %v", id, err)
			continue
		}
		retired++
	}
	return retired
}

// AllListings returns a snapshot of the active listings.
func (m *Ledger) AllListings() []*model.Listing {
	return m.index.Snapshot()
}

// ActiveListing returns the indexed listing or nil. Read-only; the listing
// stays claimable by others.
func (m *Ledger) ActiveListing(listingID int64) *model.Listing {
	return m.index.Get(listingID)
}

// ActiveCount returns the number of active listings in the index.
func (m *Ledger) ActiveCount() int {
	return m.index.Len()
}

// ListingsBySeller returns the seller's active listings from the index.
func (m *Ledger) ListingsBySeller(sellerUUID uuid.UUID) []*model.Listing {
	var listings []*model.Listing
	for _, listing := range m.index.Snapshot() {
		if listing.SellerUUID == sellerUUID {
			listings = append(listings, listing)
		}
	}
	return listings
}

// SearchListings returns active listings whose item name contains term,
// case-insensitively. Items without a display name match on their type.
func (m *Ledger) SearchListings(term string) []*model.Listing {
	needle := strings.ToLower(term)

	var listings []*model.Listing
	for _, listing := range m.index.Snapshot() {
		if strings.Contains(strings.ToLower(listing.Item.Name()), needle) {
			listings = append(listings, listing)
		}
	}
	return listings
}
