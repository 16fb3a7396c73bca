package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"itemmarket-rest-api/internal/item"
	"itemmarket-rest-api/internal/model"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// MySQLMarketRepository implements MarketRepository using MySQL. The dsn
// must include parseTime=true so DATETIME columns scan into time.Time.
type MySQLMarketRepository struct {
	db    *sql.DB
	codec item.Codec
}

// NewMySQLMarketRepository creates a new MySQL market repository.
func NewMySQLMarketRepository(dsn string, codec item.Codec) (*MySQLMarketRepository, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	if err := createMySQLTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[MySQLMarketRepository] Initialized")
	return &MySQLMarketRepository{db: db, codec: codec}, nil
}

// createMySQLTables creates the listings and transactions tables.
func createMySQLTables(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS marketplace_listings (
			listing_id BIGINT AUTO_INCREMENT PRIMARY KEY,
			seller_uuid VARCHAR(36) NOT NULL,
			item_data BLOB NOT NULL,
			price DECIMAL(18,2) NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			create_date_utc DATETIME NOT NULL,
			last_update_date_utc DATETIME NOT NULL,
			expiry_date_utc DATETIME NULL,
			INDEX idx_listings_active (is_active),
			INDEX idx_listings_seller (seller_uuid)
		)`,
		`CREATE TABLE IF NOT EXISTS marketplace_transactions (
			transaction_id BIGINT AUTO_INCREMENT PRIMARY KEY,
			listing_id BIGINT NOT NULL,
			seller_uuid VARCHAR(36) NOT NULL,
			buyer_uuid VARCHAR(36) NOT NULL,
			item_data BLOB NOT NULL,
			price DECIMAL(18,2) NOT NULL,
			transaction_date_utc DATETIME NOT NULL,
			INDEX idx_transactions_seller (seller_uuid),
			INDEX idx_transactions_buyer (buyer_uuid),
			INDEX idx_transactions_date (transaction_date_utc)
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// CreateListing inserts a new active listing and reads it back by its
// generated id.
func (r *MySQLMarketRepository) CreateListing(ctx context.Context, sellerUUID uuid.UUID, it *item.Item, price decimal.Decimal, expiryDate *time.Time) (*model.Listing, error) {
	itemData, err := r.codec.Serialize(it)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize item: %w", err)
	}

	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO marketplace_listings (seller_uuid, item_data, price, is_active, create_date_utc, last_update_date_utc, expiry_date_utc)
		VALUES (?, ?, ?, TRUE, ?, ?, ?)`,
		sellerUUID.String(), itemData, price.String(), now, now, nullableTime(expiryDate))
	if err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	listingID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to create listing, no id obtained: %w", err)
	}

	listing, err := r.GetListing(ctx, listingID)
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
func (r *MySQLMarketRepository) DeactivateListing(ctx context.Context, listingID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE marketplace_listings SET is_active = FALSE, last_update_date_utc = ?
		WHERE listing_id = ?`,
		time.Now().UTC(), listingID)
	if err != nil {
		return fmt.Errorf("failed to deactivate listing %d: %w", listingID, err)
	}
	return nil
}

// GetListing returns the listing or nil when it does not exist.
func (r *MySQLMarketRepository) GetListing(ctx context.Context, listingID int64) (*model.Listing, error) {
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
func (r *MySQLMarketRepository) GetAllActiveListings(ctx context.Context) ([]*model.Listing, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+listingColumns+" FROM marketplace_listings WHERE is_active = TRUE")
	if err != nil {
		return nil, fmt.Errorf("failed to get active listings: %w", err)
	}
	return scanListings(rows, r.codec)
}

// GetListingsBySeller returns all of a seller's listings, active or not.
func (r *MySQLMarketRepository) GetListingsBySeller(ctx context.Context, sellerUUID uuid.UUID) ([]*model.Listing, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+listingColumns+" FROM marketplace_listings WHERE seller_uuid = ?", sellerUUID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get listings for seller %s: %w", sellerUUID, err)
	}
	return scanListings(rows, r.codec)
}

// RecordTransaction inserts one transaction row and reads it back by its
// generated id.
func (r *MySQLMarketRepository) RecordTransaction(ctx context.Context, listingID int64, sellerUUID, buyerUUID uuid.UUID, it *item.Item, price decimal.Decimal) (*model.Transaction, error) {
	itemData, err := r.codec.Serialize(it)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize item: %w", err)
	}

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

	txn, err := r.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read back transaction %d: %w", transactionID, err)
	}
	if txn == nil {
		return nil, fmt.Errorf("failed to read back transaction %d: row not found", transactionID)
	}
	return txn, nil
}

// GetTransaction returns the transaction or nil when it does not exist.
func (r *MySQLMarketRepository) GetTransaction(ctx context.Context, transactionID int64) (*model.Transaction, error) {
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
func (r *MySQLMarketRepository) GetTransactionsBySeller(ctx context.Context, sellerUUID uuid.UUID) ([]*model.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+transactionColumns+" FROM marketplace_transactions WHERE seller_uuid = ? ORDER BY transaction_date_utc DESC",
		sellerUUID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for seller %s: %w", sellerUUID, err)
	}
	return scanTransactions(rows, r.codec)
}

// GetTransactionsByBuyer returns a buyer's purchases, most recent first.
func (r *MySQLMarketRepository) GetTransactionsByBuyer(ctx context.Context, buyerUUID uuid.UUID) ([]*model.Transaction, error) {
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
func (r *MySQLMarketRepository) GetRecentTransactions(ctx context.Context, limit int) ([]*model.Transaction, error) {
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
func (r *MySQLMarketRepository) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var activeListings int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM marketplace_listings WHERE is_active = TRUE").Scan(&activeListings); err != nil {
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

	dbStats := r.db.Stats()
	stats["connections"] = map[string]interface{}{
		"open":     dbStats.OpenConnections,
		"in_use":   dbStats.InUse,
		"idle":     dbStats.Idle,
		"max_open": dbStats.MaxOpenConnections,
	}

	return stats, nil
}

// Close closes the database connection pool.
func (r *MySQLMarketRepository) Close() error {
	return r.db.Close()
}

// Ensure MySQLMarketRepository implements MarketRepository
var _ MarketRepository = (*MySQLMarketRepository)(nil)
