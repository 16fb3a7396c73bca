package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"itemmarket-rest-api/internal/item"
	"itemmarket-rest-api/internal/model"
)

// ListingRepository defines durable storage for marketplace listings.
// The store is the identity authority: listing ids exist only once the
// store has assigned them.
type ListingRepository interface {
	// CreateListing inserts a new active listing with server-set UTC
	// timestamps and returns the fully populated record, including the
	// assigned id. Insert and read-back are one logical unit; a read-back
	// failure after a successful insert is still an error, and callers must
	// treat the listing as possibly persisted.
	CreateListing(ctx context.Context, sellerUUID uuid.UUID, it *item.Item, price decimal.Decimal, expiryDate *time.Time) (*model.Listing, error)

	// DeactivateListing sets is_active to false and refreshes the update
	// timestamp. Already-inactive or absent listings are a no-op, not an
	// error.
	DeactivateListing(ctx context.Context, listingID int64) error

	// GetListing returns the listing or nil when it does not exist.
	GetListing(ctx context.Context, listingID int64) (*model.Listing, error)

	// GetAllActiveListings returns every active listing. Used only to
	// rebuild the in-memory index at startup.
	GetAllActiveListings(ctx context.Context) ([]*model.Listing, error)

	// GetListingsBySeller returns all of a seller's listings, active or not.
	GetListingsBySeller(ctx context.Context, sellerUUID uuid.UUID) ([]*model.Listing, error)
}

// TransactionRepository defines durable storage for the trade history.
// Transactions are written exactly once and never mutated.
type TransactionRepository interface {
	// RecordTransaction inserts one transaction row and returns the full
	// record, including the assigned id and timestamp.
	RecordTransaction(ctx context.Context, listingID int64, sellerUUID, buyerUUID uuid.UUID, it *item.Item, price decimal.Decimal) (*model.Transaction, error)

	// GetTransaction returns the transaction or nil when it does not exist.
	GetTransaction(ctx context.Context, transactionID int64) (*model.Transaction, error)

	// GetTransactionsBySeller returns a seller's sales, most recent first.
	GetTransactionsBySeller(ctx context.Context, sellerUUID uuid.UUID) ([]*model.Transaction, error)

	// GetTransactionsByBuyer returns a buyer's purchases, most recent first.
	GetTransactionsByBuyer(ctx context.Context, buyerUUID uuid.UUID) ([]*model.Transaction, error)

	// GetRecentTransactions returns the newest transactions, up to limit.
	// A limit of zero or less returns every row.
	GetRecentTransactions(ctx context.Context, limit int) ([]*model.Transaction, error)
}

// MarketRepository is the full persistence surface: both tables plus
// lifecycle and stats for the admin endpoints.
type MarketRepository interface {
	ListingRepository
	TransactionRepository

	// GetStats returns statistics about the market database.
	GetStats(ctx context.Context) (map[string]interface{}, error)

	// Close closes the repository connection.
	Close() error
}
