package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"itemmarket-rest-api/internal/item"
	"itemmarket-rest-api/internal/market"
	"itemmarket-rest-api/internal/model"
	"itemmarket-rest-api/internal/repository"
	"itemmarket-rest-api/pkg/apierror"
	"itemmarket-rest-api/pkg/response"
)

// ListingHandler handles listing-related HTTP requests.
type ListingHandler struct {
	ledger   *market.Ledger
	listings repository.ListingRepository
	pageSize int
}

// NewListingHandler creates a new listing handler. pageSize bounds the
// listings page returned by List.
func NewListingHandler(ledger *market.Ledger, listings repository.ListingRepository, pageSize int) *ListingHandler {
	if pageSize <= 0 {
		pageSize = 45
	}
	return &ListingHandler{
		ledger:   ledger,
		listings: listings,
		pageSize: pageSize,
	}
}

// CreateListingRequest represents the request body for listing creation.
// Price travels as a string so no precision is lost in transit.
type CreateListingRequest struct {
	SellerUUID  string     `json:"seller_uuid"`
	Item        *item.Item `json:"item"`
	Price       string     `json:"price"`
	ExpiryHours *int       `json:"expiry_hours,omitempty"`
}

// CreateListing handles POST /api/v1/listings
func (h *ListingHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	var req CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	sellerUUID, err := uuid.Parse(req.SellerUUID)
	if err != nil {
		response.Error(w, apierror.ValidationError("invalid request",
			apierror.FieldError{Field: "seller_uuid", Message: "must be a valid UUID"}))
		return
	}
	if req.Item == nil || req.Item.Type == "" {
		response.Error(w, apierror.ValidationError("invalid request",
			apierror.FieldError{Field: "item", Message: "item with a type is required"}))
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		response.Error(w, apierror.ValidationError("invalid request",
			apierror.FieldError{Field: "price", Message: "must be a non-negative decimal"}))
		return
	}
	if req.ExpiryHours != nil && *req.ExpiryHours <= 0 {
		response.Error(w, apierror.ValidationError("invalid request",
			apierror.FieldError{Field: "expiry_hours", Message: "must be positive when set"}))
		return
	}

	listing, err := h.ledger.CreateListing(r.Context(), sellerUUID, req.Item, price, req.ExpiryHours)
	if err != nil {
		response.Error(w, apierror.InternalError("failed to create listing"))
		return
	}

	response.Created(w, listing)
}

// List handles GET /api/v1/listings
//
// Query parameters: q (search term), seller (UUID), sort
// (newest|oldest|price_low|price_high) and page (1-based).
func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	var listings []*model.Listing

	switch {
	case r.URL.Query().Get("q") != "":
		listings = h.ledger.SearchListings(r.URL.Query().Get("q"))
	case r.URL.Query().Get("seller") != "":
		sellerUUID, err := uuid.Parse(r.URL.Query().Get("seller"))
		if err != nil {
			response.Error(w, apierror.BadRequest("seller must be a valid UUID"))
			return
		}
		listings = h.ledger.ListingsBySeller(sellerUUID)
	default:
		listings = h.ledger.AllListings()
	}

	market.SortListings(listings, market.ParseSortType(r.URL.Query().Get("sort")))

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		parsed, err := strconv.Atoi(p)
		if err != nil || parsed < 1 {
			response.Error(w, apierror.BadRequest("page must be a positive integer"))
			return
		}
		page = parsed
	}

	total := int64(len(listings))
	pageListings := market.Paginate(listings, page, h.pageSize)
	if pageListings == nil {
		pageListings = []*model.Listing{}
	}

	response.JSONWithMeta(w, http.StatusOK, pageListings, page, h.pageSize, total)
}

// Get handles GET /api/v1/listings/{listing_id}
//
// Reads the store, not the index, so sold and cancelled listings stay
// visible to their owners.
func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	listingID, ok := parseListingID(w, r)
	if !ok {
		return
	}

	listing, err := h.listings.GetListing(r.Context(), listingID)
	if err != nil {
		response.Error(w, apierror.InternalError("failed to get listing"))
		return
	}
	if listing == nil {
		response.Error(w, apierror.NotFound("listing not found"))
		return
	}

	response.OK(w, listing)
}

// PurchaseRequest represents the request body for a purchase.
type PurchaseRequest struct {
	BuyerUUID string `json:"buyer_uuid"`
}

// Purchase handles POST /api/v1/listings/{listing_id}/purchase
func (h *ListingHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	listingID, ok := parseListingID(w, r)
	if !ok {
		return
	}

	var req PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	buyerUUID, err := uuid.Parse(req.BuyerUUID)
	if err != nil {
		response.Error(w, apierror.ValidationError("invalid request",
			apierror.FieldError{Field: "buyer_uuid", Message: "must be a valid UUID"}))
		return
	}

	txn, err := h.ledger.PurchaseItem(r.Context(), buyerUUID, listingID)
	if err != nil {
		response.Error(w, apierror.InternalError("failed to complete purchase"))
		return
	}
	if txn == nil {
		// Someone else got there first, or the listing never existed.
		response.Error(w, apierror.NotFound("listing no longer available"))
		return
	}

	response.OK(w, txn)
}

// Cancel handles DELETE /api/v1/listings/{listing_id}?requester=<uuid>
func (h *ListingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	listingID, ok := parseListingID(w, r)
	if !ok {
		return
	}

	requesterUUID, err := uuid.Parse(r.URL.Query().Get("requester"))
	if err != nil {
		response.Error(w, apierror.BadRequest("requester must be a valid UUID"))
		return
	}

	cancelled, err := h.ledger.CancelListing(r.Context(), listingID, requesterUUID)
	if err != nil {
		response.Error(w, apierror.InternalError("failed to cancel listing"))
		return
	}
	if !cancelled {
		if h.ledger.ActiveListing(listingID) != nil {
			response.Error(w, apierror.Forbidden("not your listing"))
			return
		}
		response.Error(w, apierror.NotFound("listing not found"))
		return
	}

	response.OK(w, map[string]interface{}{
		"status":     "cancelled",
		"listing_id": listingID,
	})
}

func parseListingID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	listingID, err := strconv.ParseInt(chi.URLParam(r, "listing_id"), 10, 64)
	if err != nil || listingID < 1 {
		response.Error(w, apierror.BadRequest("listing_id must be a positive integer"))
		return 0, false
	}
	return listingID, true
}
