package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"itemmarket-rest-api/internal/item"
)

// Listing is a seller's fixed-price offer of one item stack.
// A listing is active from creation until it is purchased, cancelled or
// expired; once inactive it never becomes active again.
type Listing struct {
	ListingID         int64           `json:"listing_id"`
	SellerUUID        uuid.UUID       `json:"seller_uuid"`
	Item              *item.Item      `json:"item"`
	ItemData          []byte          `json:"-"`
	Price             decimal.Decimal `json:"price"`
	IsActive          bool            `json:"is_active"`
	CreateDateUTC     time.Time       `json:"create_date_utc"`
	LastUpdateDateUTC time.Time       `json:"last_update_date_utc"`
	ExpiryDateUTC     *time.Time      `json:"expiry_date_utc,omitempty"`
}

// Expired reports whether the listing's expiry has passed. Listings without
// an expiry date never expire.
func (l *Listing) Expired(now time.Time) bool {
	return l.ExpiryDateUTC != nil && !l.ExpiryDateUTC.After(now)
}
