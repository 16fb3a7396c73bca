package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itemmarket-rest-api/internal/item"
)

func listingRowColumns() []string {
	return []string{"listing_id", "seller_uuid", "item_data", "price", "is_active", "create_date_utc", "last_update_date_utc", "expiry_date_utc"}
}

func transactionRowColumns() []string {
	return []string{"transaction_id", "listing_id", "seller_uuid", "buyer_uuid", "item_data", "price", "transaction_date_utc"}
}

func mustSerialize(t *testing.T, it *item.Item) []byte {
	t.Helper()
	data, err := item.JSONCodec{}.Serialize(it)
	assert.NoError(t, err)
	return data
}

func TestPostgresMarketRepository_CreateListing(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := &PostgresMarketRepository{db: db, codec: item.JSONCodec{}}

	seller := uuid.New()
	it := &item.Item{Type: "DIAMOND_SWORD", DisplayName: "Dragon Slayer", Amount: 1}
	itemData := mustSerialize(t, it)
	now := time.Now().UTC()

	mock.ExpectQuery("INSERT INTO marketplace_listings").
		WithArgs(seller.String(), itemData, "100", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"listing_id"}).AddRow(7))

	mock.ExpectQuery("SELECT (.+) FROM marketplace_listings WHERE listing_id").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(listingRowColumns()).
			AddRow(7, seller.String(), itemData, "100", true, now, now, nil))

	listing, err := repo.CreateListing(context.Background(), seller, it, decimal.NewFromInt(100), nil)
	require.NoError(t, err)
	require.NotNil(t, listing)
	assert.Equal(t, int64(7), listing.ListingID)
	assert.Equal(t, seller, listing.SellerUUID)
	assert.Equal(t, "Dragon Slayer", listing.Item.DisplayName)
	assert.True(t, listing.Price.Equal(decimal.NewFromInt(100)))
	assert.True(t, listing.IsActive)
	assert.Nil(t, listing.ExpiryDateUTC)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMarketRepository_CreateListing_ReadBackMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := &PostgresMarketRepository{db: db, codec: item.JSONCodec{}}
	seller := uuid.New()
	it := &item.Item{Type: "DIAMOND_SWORD", Amount: 1}

	mock.ExpectQuery("INSERT INTO marketplace_listings").
		WillReturnRows(sqlmock.NewRows([]string{"listing_id"}).AddRow(7))
	mock.ExpectQuery("SELECT (.+) FROM marketplace_listings WHERE listing_id").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(listingRowColumns()))

	listing, err := repo.CreateListing(context.Background(), seller, it, decimal.NewFromInt(100), nil)
	assert.Error(t, err)
	assert.Nil(t, listing)
	assert.Contains(t, err.Error(), "read back")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMarketRepository_GetListing_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := &PostgresMarketRepository{db: db, codec: item.JSONCodec{}}

	mock.ExpectQuery("SELECT (.+) FROM marketplace_listings WHERE listing_id").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(listingRowColumns()))

	listing, err := repo.GetListing(context.Background(), 99)
	assert.NoError(t, err)
	assert.Nil(t, listing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMarketRepository_GetListing_WithExpiry(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := &PostgresMarketRepository{db: db, codec: item.JSONCodec{}}

	seller := uuid.New()
	itemData := mustSerialize(t, &item.Item{Type: "IRON_PICKAXE", Amount: 1})
	now := time.Now().UTC()
	expiry := now.Add(24 * time.Hour)

	mock.ExpectQuery("SELECT (.+) FROM marketplace_listings WHERE listing_id").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(listingRowColumns()).
			AddRow(3, seller.String(), itemData, "49.99", true, now, now, expiry))

	listing, err := repo.GetListing(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, listing)
	require.NotNil(t, listing.ExpiryDateUTC)
	assert.True(t, listing.ExpiryDateUTC.Equal(expiry))
	assert.Equal(t, "49.99", listing.Price.StringFixed(2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMarketRepository_DeactivateListing(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := &PostgresMarketRepository{db: db, codec: item.JSONCodec{}}

	mock.ExpectExec("UPDATE marketplace_listings SET is_active = FALSE").
		WithArgs(sqlmock.AnyArg(), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.DeactivateListing(context.Background(), 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMarketRepository_GetAllActiveListings(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := &PostgresMarketRepository{db: db, codec: item.JSONCodec{}}

	seller := uuid.New()
	itemData := mustSerialize(t, &item.Item{Type: "DIAMOND_SWORD", Amount: 1})
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM marketplace_listings WHERE is_active = TRUE").
		WillReturnRows(sqlmock.NewRows(listingRowColumns()).
			AddRow(1, seller.String(), itemData, "10", true, now, now, nil).
			AddRow(2, seller.String(), itemData, "20", true, now, now, nil))

	listings, err := repo.GetAllActiveListings(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, int64(1), listings[0].ListingID)
	assert.Equal(t, int64(2), listings[1].ListingID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMarketRepository_RecordTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := &PostgresMarketRepository{db: db, codec: item.JSONCodec{}}

	seller := uuid.New()
	buyer := uuid.New()
	it := &item.Item{Type: "DIAMOND_SWORD", Amount: 1}
	itemData := mustSerialize(t, it)
	now := time.Now().UTC()

	mock.ExpectQuery("INSERT INTO marketplace_transactions").
		WithArgs(int64(7), seller.String(), buyer.String(), itemData, "250", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"transaction_id"}).AddRow(42))

	mock.ExpectQuery("SELECT (.+) FROM marketplace_transactions WHERE transaction_id").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(transactionRowColumns()).
			AddRow(42, 7, seller.String(), buyer.String(), itemData, "250", now))

	txn, err := repo.RecordTransaction(context.Background(), 7, seller, buyer, it, decimal.NewFromInt(250))
	require.NoError(t, err)
	require.NotNil(t, txn)
	assert.Equal(t, int64(42), txn.TransactionID)
	assert.Equal(t, int64(7), txn.ListingID)
	assert.Equal(t, buyer, txn.BuyerUUID)
	assert.True(t, txn.Price.Equal(decimal.NewFromInt(250)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMarketRepository_GetRecentTransactions(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := &PostgresMarketRepository{db: db, codec: item.JSONCodec{}}

	seller := uuid.New()
	buyer := uuid.New()
	itemData := mustSerialize(t, &item.Item{Type: "DIAMOND_SWORD", Amount: 1})
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM marketplace_transactions ORDER BY transaction_date_utc DESC LIMIT").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(transactionRowColumns()).
			AddRow(2, 9, seller.String(), buyer.String(), itemData, "20", now).
			AddRow(1, 8, seller.String(), buyer.String(), itemData, "10", now.Add(-time.Minute)))

	txns, err := repo.GetRecentTransactions(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, int64(2), txns[0].TransactionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMarketRepository_GetRecentTransactions_NoLimitReturnsAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := &PostgresMarketRepository{db: db, codec: item.JSONCodec{}}

	seller := uuid.New()
	buyer := uuid.New()
	itemData := mustSerialize(t, &item.Item{Type: "DIAMOND_SWORD", Amount: 1})
	now := time.Now().UTC()

	// limit <= 0 means every row, so the query carries no LIMIT clause.
	mock.ExpectQuery(`SELECT (.+) FROM marketplace_transactions ORDER BY transaction_date_utc DESC$`).
		WillReturnRows(sqlmock.NewRows(transactionRowColumns()).
			AddRow(3, 9, seller.String(), buyer.String(), itemData, "30", now).
			AddRow(2, 8, seller.String(), buyer.String(), itemData, "20", now.Add(-time.Minute)).
			AddRow(1, 7, seller.String(), buyer.String(), itemData, "10", now.Add(-2*time.Minute)))

	txns, err := repo.GetRecentTransactions(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, txns, 3)
	assert.Equal(t, int64(3), txns[0].TransactionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMarketRepository_GetTransaction_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := &PostgresMarketRepository{db: db, codec: item.JSONCodec{}}

	mock.ExpectQuery("SELECT (.+) FROM marketplace_transactions WHERE transaction_id").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(transactionRowColumns()))

	txn, err := repo.GetTransaction(context.Background(), 99)
	assert.NoError(t, err)
	assert.Nil(t, txn)
	assert.NoError(t, mock.ExpectationsWereMet())
}
