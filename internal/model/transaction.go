package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"itemmarket-rest-api/internal/item"
)

// Transaction is an immutable record of a completed sale. The listing_id is
// a plain identifier, not a live reference; the originating listing is
// normally inactive by the time the transaction is read.
type Transaction struct {
	TransactionID      int64           `json:"transaction_id"`
	ListingID          int64           `json:"listing_id"`
	SellerUUID         uuid.UUID       `json:"seller_uuid"`
	BuyerUUID          uuid.UUID       `json:"buyer_uuid"`
	Item               *item.Item      `json:"item"`
	ItemData           []byte          `json:"-"`
	Price              decimal.Decimal `json:"price"`
	TransactionDateUTC time.Time       `json:"transaction_date_utc"`
}
