package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"itemmarket-rest-api/internal/cache"
	"itemmarket-rest-api/internal/model"
	"itemmarket-rest-api/internal/repository"
	"itemmarket-rest-api/pkg/apierror"
	"itemmarket-rest-api/pkg/response"
)

// TransactionHandler handles trade-history HTTP requests. The recent list
// is the hot query (every player opening the history menu), so it is served
// through the cache with a short TTL; the store stays authoritative.
type TransactionHandler struct {
	txns     repository.TransactionRepository
	cache    cache.Cache
	cacheTTL time.Duration
	maxLimit int
}

// NewTransactionHandler creates a new transaction handler.
func NewTransactionHandler(txns repository.TransactionRepository, c cache.Cache, cacheTTL time.Duration, maxLimit int) *TransactionHandler {
	if maxLimit <= 0 {
		maxLimit = 100
	}
	return &TransactionHandler{
		txns:     txns,
		cache:    c,
		cacheTTL: cacheTTL,
		maxLimit: maxLimit,
	}
}

// Recent handles GET /api/v1/transactions/recent?limit=
func (h *TransactionHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			response.Error(w, apierror.BadRequest("limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}

	fetch := func() ([]byte, error) {
		txns, err := h.txns.GetRecentTransactions(r.Context(), limit)
		if err != nil {
			return nil, err
		}
		return json.Marshal(txns)
	}

	var data []byte
	var err error
	if h.cache != nil {
		key := fmt.Sprintf("txns:recent:%d", limit)
		data, err = h.cache.GetOrSet(r.Context(), key, h.cacheTTL, fetch)
	} else {
		data, err = fetch()
	}
	if err != nil {
		response.Error(w, apierror.InternalError("failed to get recent transactions"))
		return
	}

	var txns []*model.Transaction
	if err := json.Unmarshal(data, &txns); err != nil {
		response.Error(w, apierror.InternalError("failed to get recent transactions"))
		return
	}
	if txns == nil {
		txns = []*model.Transaction{}
	}
	response.OK(w, txns)
}

// Get handles GET /api/v1/transactions/{transaction_id}
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	transactionID, err := strconv.ParseInt(chi.URLParam(r, "transaction_id"), 10, 64)
	if err != nil || transactionID < 1 {
		response.Error(w, apierror.BadRequest("transaction_id must be a positive integer"))
		return
	}

	txn, err := h.txns.GetTransaction(r.Context(), transactionID)
	if err != nil {
		response.Error(w, apierror.InternalError("failed to get transaction"))
		return
	}
	if txn == nil {
		response.Error(w, apierror.NotFound("transaction not found"))
		return
	}

	response.OK(w, txn)
}

// BySeller handles GET /api/v1/transactions/seller/{player_uuid}
func (h *TransactionHandler) BySeller(w http.ResponseWriter, r *http.Request) {
	h.byPlayer(w, r, h.txns.GetTransactionsBySeller)
}

// ByBuyer handles GET /api/v1/transactions/buyer/{player_uuid}
func (h *TransactionHandler) ByBuyer(w http.ResponseWriter, r *http.Request) {
	h.byPlayer(w, r, h.txns.GetTransactionsByBuyer)
}

func (h *TransactionHandler) byPlayer(w http.ResponseWriter, r *http.Request, fetch func(ctx context.Context, playerUUID uuid.UUID) ([]*model.Transaction, error)) {
	playerUUID, err := uuid.Parse(chi.URLParam(r, "player_uuid"))
	if err != nil {
		response.Error(w, apierror.BadRequest("player_uuid must be a valid UUID"))
		return
	}

	txns, err := fetch(r.Context(), playerUUID)
	if err != nil {
		response.Error(w, apierror.InternalError("failed to get transactions"))
		return
	}
	if txns == nil {
		txns = []*model.Transaction{}
	}
	response.OK(w, txns)
}
