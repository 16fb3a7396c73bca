package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"itemmarket-rest-api/internal/item"
	"itemmarket-rest-api/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteMarketRepository implements MarketRepository using SQLite.
// Thread-safe with WAL mode for high-concurrency reads. Suited for
// single-host deployments where running a database server is overkill.
type SQLiteMarketRepository struct {
	db    *sql.DB
	codec item.Codec
	mu    sync.RWMutex
}

// NewSQLiteMarketRepository creates a new SQLite market repository.
// dbPath is the path to the SQLite database file (e.g., "./data/market.db")
func NewSQLiteMarketRepository(dbPath string, codec item.Codec) (*SQLiteMarketRepository, error) {
	// Open with WAL mode and other optimizations
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite connection pool settings
	db.SetMaxOpenConns(1) // SQLite only supports 1 writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0) // Keep connection alive

	if err := createSQLiteTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteMarketRepository] Initialized with database: %s", dbPath)
	return &SQLiteMarketRepository{db: db, codec: codec}, nil
}

// createSQLiteTables creates the listings and transactions tables.
func createSQLiteTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS marketplace_listings (
		listing_id INTEGER PRIMARY KEY AUTOINCREMENT,
		seller_uuid TEXT NOT NULL,
		item_data BLOB NOT NULL,
		price TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		create_date_utc DATETIME NOT NULL,
		last_update_date_utc DATETIME NOT NULL,
		expiry_date_utc DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_listings_active ON marketplace_listings(is_active);
	CREATE INDEX IF NOT EXISTS idx_listings_seller ON marketplace_listings(seller_uuid);

	CREATE TABLE IF NOT EXISTS marketplace_transactions (
		transaction_id INTEGER PRIMARY KEY AUTOINCREMENT,
		listing_id INTEGER NOT NULL,
		seller_uuid TEXT NOT NULL,
		buyer_uuid TEXT NOT NULL,
		item_data BLOB NOT NULL,
		price TEXT NOT NULL,
		transaction_date_utc DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_seller ON marketplace_transactions(seller_uuid);
	CREATE INDEX IF NOT EXISTS idx_transactions_buyer ON marketplace_transactions(buyer_uuid);
	CREATE INDEX IF NOT EXISTS idx_transactions_date ON marketplace_transactions(transaction_date_utc);
	`
	_, err := db.Exec(query)
	return err
}

// CreateListing inserts a new active listing and reads it back by its
// generated id.
func (r *SQLiteMarketRepository) CreateListing(ctx context.Context, sellerUUID uuid.UUID, it *item.Item, price decimal.Decimal, expiryDate *time.Time) (*model.Listing, error) {
	itemData, err := r.codec.Serialize(it)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize item: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO marketplace_listings (seller_uuid, item_data, price, is_active, create_date_utc, last_update_date_utc, expiry_date_utc)
		VALUES (?, ?, ?, 1, ?, ?, ?)`,
		sellerUUID.String(), itemData, price.String(), now, now, nullableTime(expiryDate))
	if err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	listingID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to create listing, no id obtained: %w", err)
	}

	listing, err := r.getListingLocked(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to read back listing %d: %w", listingID, err)
	}
	if listing == nil {
		return nil, fmt.Errorf("failed to read back listing %d: row not found", listingID)
	}
	return listing, nil
}

// DeactivateListing marks a listing inactive. Missing or already-inactive
// rows are not an error.
func (r *SQLiteMarketRepository) DeactivateListing(ctx context.Context, listingID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `
		UPDATE marketplace_listings SET is_active = 0, last_update_date_utc = ?
		WHERE listing_id = ?`,
		time.Now().UTC(), listingID)
	if err != nil {
		return fmt.Errorf("failed to deactivate listing %d: %w", listingID, err)
	}
	return nil
}

// GetListing returns the listing or nil when it does not exist.
func (r *SQLiteMarketRepository) GetListing(ctx context.Context, listingID int64) (*model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.getListingLocked(ctx, listingID)
}

func (r *SQLiteMarketRepository) getListingLocked(ctx context.Context, listingID int64) (*model.Listing, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+listingColumns+" FROM marketplace_listings WHERE listing_id = ?", listingID)

	listing, err := scanListing(row, r.codec)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get listing %d: %w", listingID, err)
	}
	return listing, nil
}

// GetAllActiveListings returns every active listing.
func (r *SQLiteMarketRepository) GetAllActiveListings(ctx context.Context) ([]*model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+listingColumns+" FROM marketplace_listings WHERE is_active = 1")
	if err != nil {
		return nil, fmt.Errorf("failed to get active listings: %w", err)
	}
	return scanListings(rows, r.codec)
}

// GetListingsBySeller returns all of a seller's listings, active or not.
func (r *SQLiteMarketRepository) GetListingsBySeller(ctx context.Context, sellerUUID uuid.UUID) ([]*model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+listingColumns+" FROM marketplace_listings WHERE seller_uuid = ?", sellerUUID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get listings for seller %s: %w", sellerUUID, err)
	}
	return scanListings(rows, r.codec)
}

// RecordTransaction inserts one transaction row and reads it back by its
// generated id.
func (r *SQLiteMarketRepository) RecordTransaction(ctx context.Context, listingID int64, sellerUUID, buyerUUID uuid.UUID, it *item.Item, price decimal.Decimal) (*model.Transaction, error) {
	itemData, err := r.codec.Serialize(it)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize item: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO marketplace_transactions (listing_id, seller_uuid, buyer_uuid, item_data, price, transaction_date_utc)
		VALUES (?, ?, ?, ?, ?, ?)`,
		listingID, sellerUUID.String(), buyerUUID.String(), itemData, price.String(), time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	transactionID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to record transaction, no id obtained: %w", err)
	}

	txn, err := r.getTransactionLocked(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read back transaction %d: %w", transactionID, err)
	}
	if txn == nil {
		return nil, fmt.Errorf("failed to read back transaction %d: row not found", transactionID)
	}
	return txn, nil
}

// GetTransaction returns the transaction or nil when it does not exist.
func (r *SQLiteMarketRepository) GetTransaction(ctx context.Context, transactionID int64) (*model.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.getTransactionLocked(ctx, transactionID)
}

func (r *SQLiteMarketRepository) getTransactionLocked(ctx context.Context, transactionID int64) (*model.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM marketplace_transactions WHERE transaction_id = ?", transactionID)

	txn, err := scanTransaction(row, r.codec)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transaction %d: %w", transactionID, err)
	}
	return txn, nil
}

// GetTransactionsBySeller returns a seller's sales, most recent first.
func (r *SQLiteMarketRepository) GetTransactionsBySeller(ctx context.Context, sellerUUID uuid.UUID) ([]*model.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+transactionColumns+" FROM marketplace_transactions WHERE seller_uuid = ? ORDER BY transaction_date_utc DESC",
		sellerUUID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for seller %s: %w", sellerUUID, err)
	}
	return scanTransactions(rows, r.codec)
}

// GetTransactionsByBuyer returns a buyer's purchases, most recent first.
func (r *SQLiteMarketRepository) GetTransactionsByBuyer(ctx context.Context, buyerUUID uuid.UUID) ([]*model.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+transactionColumns+" FROM marketplace_transactions WHERE buyer_uuid = ? ORDER BY transaction_date_utc DESC",
		buyerUUID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for buyer %s: %w", buyerUUID, err)
	}
	return scanTransactions(rows, r.codec)
}

// GetRecentTransactions returns the newest transactions, up to limit.
// A limit of zero or less returns every row.
func (r *SQLiteMarketRepository) GetRecentTransactions(ctx context.Context, limit int) ([]*model.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := "SELECT " + transactionColumns + " FROM marketplace_transactions ORDER BY transaction_date_utc DESC"
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = r.db.QueryContext(ctx, query+" LIMIT ?", limit)
	} else {
		rows, err = r.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recent transactions: %w", err)
	}
	return scanTransactions(rows, r.codec)
}

// GetStats returns statistics about the market database.
func (r *SQLiteMarketRepository) GetStats(ctx context.Context) (map[string]interface{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make(map[string]interface{})

	var activeListings int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM marketplace_listings WHERE is_active = 1").Scan(&activeListings); err != nil {
		return nil, err
	}
	stats["active_listings"] = activeListings

	var totalListings int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM marketplace_listings").Scan(&totalListings); err != nil {
		return nil, err
	}
	stats["total_listings"] = totalListings

	var totalTransactions int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM marketplace_transactions").Scan(&totalTransactions); err != nil {
		return nil, err
	}
	stats["total_transactions"] = totalTransactions

	// Database file size (approximate from page count)
	var pageCount, pageSize int64
	r.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	r.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
	stats["db_size_bytes"] = pageCount * pageSize

	return stats, nil
}

// Close closes the database connection.
func (r *SQLiteMarketRepository) Close() error {
	return r.db.Close()
}

// Ensure SQLiteMarketRepository implements MarketRepository
var _ MarketRepository = (*SQLiteMarketRepository)(nil)
