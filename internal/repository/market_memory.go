package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"itemmarket-rest-api/internal/item"
	"itemmarket-rest-api/internal/model"
)

// MemoryMarketRepository is an in-memory implementation of MarketRepository.
// Use this for development/testing; nothing survives a restart.
type MemoryMarketRepository struct {
	mu     sync.RWMutex
	codec  item.Codec
	nextID int64
	nextTx int64

	listings     map[int64]*model.Listing
	transactions map[int64]*model.Transaction

	// FailNextWrite makes the next mutating call return an error. Lets
	// callers exercise their storage-failure paths.
	FailNextWrite bool
}

// NewMemoryMarketRepository creates an empty in-memory market repository.
func NewMemoryMarketRepository(codec item.Codec) *MemoryMarketRepository {
	return &MemoryMarketRepository{
		codec:        codec,
		listings:     make(map[int64]*model.Listing),
		transactions: make(map[int64]*model.Transaction),
	}
}

func (r *MemoryMarketRepository) failWriteLocked() bool {
	if r.FailNextWrite {
		r.FailNextWrite = false
		return true
	}
	return false
}

// CreateListing inserts a new active listing.
func (r *MemoryMarketRepository) CreateListing(ctx context.Context, sellerUUID uuid.UUID, it *item.Item, price decimal.Decimal, expiryDate *time.Time) (*model.Listing, error) {
	itemData, err := r.codec.Serialize(it)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize item: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failWriteLocked() {
		return nil, fmt.Errorf("failed to create listing: injected failure")
	}

	r.nextID++
	now := time.Now().UTC()
	listing := &model.Listing{
		ListingID:         r.nextID,
		SellerUUID:        sellerUUID,
		Item:              it,
		ItemData:          itemData,
		Price:             price,
		IsActive:          true,
		CreateDateUTC:     now,
		LastUpdateDateUTC: now,
	}
	if expiryDate != nil {
		expiry := expiryDate.UTC()
		listing.ExpiryDateUTC = &expiry
	}
	r.listings[listing.ListingID] = listing

	copied := *listing
	return &copied, nil
}

// DeactivateListing marks a listing inactive; absent rows are a no-op.
func (r *MemoryMarketRepository) DeactivateListing(ctx context.Context, listingID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failWriteLocked() {
		return fmt.Errorf("failed to deactivate listing %d: injected failure", listingID)
	}

	if listing, ok := r.listings[listingID]; ok && listing.IsActive {
		listing.IsActive = false
		listing.LastUpdateDateUTC = time.Now().UTC()
	}
	return nil
}

// GetListing returns the listing or nil when it does not exist.
func (r *MemoryMarketRepository) GetListing(ctx context.Context, listingID int64) (*model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listing, ok := r.listings[listingID]
	if !ok {
		return nil, nil
	}
	copied := *listing
	return &copied, nil
}

// GetAllActiveListings returns every active listing.
func (r *MemoryMarketRepository) GetAllActiveListings(ctx context.Context) ([]*model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var listings []*model.Listing
	for _, listing := range r.listings {
		if listing.IsActive {
			copied := *listing
			listings = append(listings, &copied)
		}
	}
	return listings, nil
}

// GetListingsBySeller returns all of a seller's listings, active or not.
func (r *MemoryMarketRepository) GetListingsBySeller(ctx context.Context, sellerUUID uuid.UUID) ([]*model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var listings []*model.Listing
	for _, listing := range r.listings {
		if listing.SellerUUID == sellerUUID {
			copied := *listing
			listings = append(listings, &copied)
		}
	}
	return listings, nil
}

// RecordTransaction inserts one transaction row.
func (r *MemoryMarketRepository) RecordTransaction(ctx context.Context, listingID int64, sellerUUID, buyerUUID uuid.UUID, it *item.Item, price decimal.Decimal) (*model.Transaction, error) {
	itemData, err := r.codec.Serialize(it)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize item: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failWriteLocked() {
		return nil, fmt.Errorf("failed to record transaction: injected failure")
	}

	r.nextTx++
	txn := &model.Transaction{
		TransactionID:      r.nextTx,
		ListingID:          listingID,
		SellerUUID:         sellerUUID,
		BuyerUUID:          buyerUUID,
		Item:               it,
		ItemData:           itemData,
		Price:              price,
		TransactionDateUTC: time.Now().UTC(),
	}
	r.transactions[txn.TransactionID] = txn

	copied := *txn
	return &copied, nil
}

// GetTransaction returns the transaction or nil when it does not exist.
func (r *MemoryMarketRepository) GetTransaction(ctx context.Context, transactionID int64) (*model.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	txn, ok := r.transactions[transactionID]
	if !ok {
		return nil, nil
	}
	copied := *txn
	return &copied, nil
}

// GetTransactionsBySeller returns a seller's sales, most recent first.
func (r *MemoryMarketRepository) GetTransactionsBySeller(ctx context.Context, sellerUUID uuid.UUID) ([]*model.Transaction, error) {
	return r.filterTransactions(func(t *model.Transaction) bool { return t.SellerUUID == sellerUUID }, 0)
}

// GetTransactionsByBuyer returns a buyer's purchases, most recent first.
func (r *MemoryMarketRepository) GetTransactionsByBuyer(ctx context.Context, buyerUUID uuid.UUID) ([]*model.Transaction, error) {
	return r.filterTransactions(func(t *model.Transaction) bool { return t.BuyerUUID == buyerUUID }, 0)
}

// GetRecentTransactions returns the newest transactions, up to limit.
// A limit of zero or less returns every row.
func (r *MemoryMarketRepository) GetRecentTransactions(ctx context.Context, limit int) ([]*model.Transaction, error) {
	return r.filterTransactions(func(*model.Transaction) bool { return true }, limit)
}

func (r *MemoryMarketRepository) filterTransactions(keep func(*model.Transaction) bool, limit int) ([]*model.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var transactions []*model.Transaction
	for _, txn := range r.transactions {
		if keep(txn) {
			copied := *txn
			transactions = append(transactions, &copied)
		}
	}
	sort.Slice(transactions, func(i, j int) bool {
		if transactions[i].TransactionDateUTC.Equal(transactions[j].TransactionDateUTC) {
			return transactions[i].TransactionID > transactions[j].TransactionID
		}
		return transactions[i].TransactionDateUTC.After(transactions[j].TransactionDateUTC)
	})
	if limit > 0 && len(transactions) > limit {
		transactions = transactions[:limit]
	}
	return transactions, nil
}

// GetStats returns statistics about the in-memory store.
func (r *MemoryMarketRepository) GetStats(ctx context.Context) (map[string]interface{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var active int64
	for _, listing := range r.listings {
		if listing.IsActive {
			active++
		}
	}
	return map[string]interface{}{
		"active_listings":    active,
		"total_listings":     int64(len(r.listings)),
		"total_transactions": int64(len(r.transactions)),
	}, nil
}

// Close is a no-op for the in-memory repository.
func (r *MemoryMarketRepository) Close() error {
	return nil
}

// Ensure MemoryMarketRepository implements MarketRepository
var _ MarketRepository = (*MemoryMarketRepository)(nil)
