package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"itemmarket-rest-api/internal/item"
	"itemmarket-rest-api/internal/model"
)

// listingColumns and transactionColumns fix the select order that the scan
// helpers below depend on.
const (
	listingColumns     = "listing_id, seller_uuid, item_data, price, is_active, create_date_utc, last_update_date_utc, expiry_date_utc"
	transactionColumns = "transaction_id, listing_id, seller_uuid, buyer_uuid, item_data, price, transaction_date_utc"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanListing(s rowScanner, codec item.Codec) (*model.Listing, error) {
	var (
		listingID  int64
		sellerStr  string
		itemData   []byte
		priceStr   string
		isActive   bool
		createDate time.Time
		updateDate time.Time
		expiryDate sql.NullTime
	)

	if err := s.Scan(&listingID, &sellerStr, &itemData, &priceStr, &isActive, &createDate, &updateDate, &expiryDate); err != nil {
		return nil, err
	}

	sellerUUID, err := uuid.Parse(sellerStr)
	if err != nil {
		return nil, fmt.Errorf("listing %d has invalid seller uuid: %w", listingID, err)
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("listing %d has invalid price: %w", listingID, err)
	}

	it, err := codec.Deserialize(itemData)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize item for listing %d: %w", listingID, err)
	}

	listing := &model.Listing{
		ListingID:         listingID,
		SellerUUID:        sellerUUID,
		Item:              it,
		ItemData:          itemData,
		Price:             price,
		IsActive:          isActive,
		CreateDateUTC:     createDate.UTC(),
		LastUpdateDateUTC: updateDate.UTC(),
	}
	if expiryDate.Valid {
		expiry := expiryDate.Time.UTC()
		listing.ExpiryDateUTC = &expiry
	}
	return listing, nil
}

func scanListings(rows *sql.Rows, codec item.Codec) ([]*model.Listing, error) {
	defer rows.Close()

	var listings []*model.Listing
	for rows.Next() {
		listing, err := scanListing(rows, codec)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}
	return listings, rows.Err()
}

func scanTransaction(s rowScanner, codec item.Codec) (*model.Transaction, error) {
	var (
		transactionID int64
		listingID     int64
		sellerStr     string
		buyerStr      string
		itemData      []byte
		priceStr      string
		txnDate       time.Time
	)

	if err := s.Scan(&transactionID, &listingID, &sellerStr, &buyerStr, &itemData, &priceStr, &txnDate); err != nil {
		return nil, err
	}

	sellerUUID, err := uuid.Parse(sellerStr)
	if err != nil {
		return nil, fmt.Errorf("transaction %d has invalid seller uuid: %w", transactionID, err)
	}

	buyerUUID, err := uuid.Parse(buyerStr)
	if err != nil {
		return nil, fmt.Errorf("transaction %d has invalid buyer uuid: %w", transactionID, err)
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("transaction %d has invalid price: %w", transactionID, err)
	}

	it, err := codec.Deserialize(itemData)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize item for transaction %d: %w", transactionID, err)
	}

	return &model.Transaction{
		TransactionID:      transactionID,
		ListingID:          listingID,
		SellerUUID:         sellerUUID,
		BuyerUUID:          buyerUUID,
		Item:               it,
		ItemData:           itemData,
		Price:              price,
		TransactionDateUTC: txnDate.UTC(),
	}, nil
}

func scanTransactions(rows *sql.Rows, codec item.Codec) ([]*model.Transaction, error) {
	defer rows.Close()

	var transactions []*model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows, codec)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, txn)
	}
	return transactions, rows.Err()
}

// nullableTime converts an optional timestamp for insertion.
func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
