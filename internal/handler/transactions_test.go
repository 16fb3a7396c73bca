package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"itemmarket-rest-api/internal/cache"
	"itemmarket-rest-api/internal/item"
	"itemmarket-rest-api/internal/model"
	"itemmarket-rest-api/internal/repository"
)

func newTransactionTestServer(t *testing.T) (*chi.Mux, *repository.MemoryMarketRepository) {
	t.Helper()

	repo := repository.NewMemoryMarketRepository(item.JSONCodec{})
	h := NewTransactionHandler(repo, cache.NewMemoryCache(), 50*time.Millisecond, 100)

	r := chi.NewRouter()
	r.Route("/api/v1/transactions", func(r chi.Router) {
		r.Get("/recent", h.Recent)
		r.Get("/{transaction_id}", h.Get)
		r.Get("/seller/{player_uuid}", h.BySeller)
		r.Get("/buyer/{player_uuid}", h.ByBuyer)
	})
	return r, repo
}

func recordTestTransaction(t *testing.T, repo *repository.MemoryMarketRepository, seller, buyer uuid.UUID, price int64) *model.Transaction {
	t.Helper()
	txn, err := repo.RecordTransaction(context.Background(), 1, seller, buyer,
		&item.Item{Type: "DIAMOND_SWORD", Amount: 1}, decimal.NewFromInt(price))
	assert.NoError(t, err)
	return txn
}

func TestTransactionHandler_Recent(t *testing.T) {
	r, repo := newTransactionTestServer(t)
	seller := uuid.New()
	buyer := uuid.New()

	for i := int64(1); i <= 5; i++ {
		recordTestTransaction(t, repo, seller, buyer, i*10)
	}

	t.Run("default limit", func(t *testing.T) {
		rec, env := doJSON(t, r, http.MethodGet, "/api/v1/transactions/recent", nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		var txns []*model.Transaction
		assert.NoError(t, json.Unmarshal(env.Data, &txns))
		assert.Len(t, txns, 5)
	})

	t.Run("limit applies", func(t *testing.T) {
		rec, env := doJSON(t, r, http.MethodGet, "/api/v1/transactions/recent?limit=2", nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		var txns []*model.Transaction
		assert.NoError(t, json.Unmarshal(env.Data, &txns))
		assert.Len(t, txns, 2)
	})

	t.Run("bad limit", func(t *testing.T) {
		rec, _ := doJSON(t, r, http.MethodGet, "/api/v1/transactions/recent?limit=-1", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("served from cache until ttl", func(t *testing.T) {
		rec, env := doJSON(t, r, http.MethodGet, "/api/v1/transactions/recent?limit=10", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		var before []*model.Transaction
		assert.NoError(t, json.Unmarshal(env.Data, &before))

		recordTestTransaction(t, repo, seller, buyer, 999)

		// The cached page does not see the new transaction yet.
		_, env = doJSON(t, r, http.MethodGet, "/api/v1/transactions/recent?limit=10", nil)
		var cached []*model.Transaction
		assert.NoError(t, json.Unmarshal(env.Data, &cached))
		assert.Len(t, cached, len(before))

		time.Sleep(80 * time.Millisecond)

		_, env = doJSON(t, r, http.MethodGet, "/api/v1/transactions/recent?limit=10", nil)
		var fresh []*model.Transaction
		assert.NoError(t, json.Unmarshal(env.Data, &fresh))
		assert.Len(t, fresh, len(before)+1)
	})
}

func TestTransactionHandler_Get(t *testing.T) {
	r, repo := newTransactionTestServer(t)
	seller := uuid.New()
	buyer := uuid.New()

	txn := recordTestTransaction(t, repo, seller, buyer, 100)

	t.Run("found", func(t *testing.T) {
		rec, env := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/transactions/%d", txn.TransactionID), nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		var got model.Transaction
		assert.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, txn.TransactionID, got.TransactionID)
		assert.Equal(t, buyer, got.BuyerUUID)
	})

	t.Run("not found", func(t *testing.T) {
		rec, _ := doJSON(t, r, http.MethodGet, "/api/v1/transactions/999", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		rec, _ := doJSON(t, r, http.MethodGet, "/api/v1/transactions/abc", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTransactionHandler_ByPlayer(t *testing.T) {
	r, repo := newTransactionTestServer(t)
	seller := uuid.New()
	buyer := uuid.New()

	recordTestTransaction(t, repo, seller, buyer, 100)
	recordTestTransaction(t, repo, seller, uuid.New(), 200)
	recordTestTransaction(t, repo, uuid.New(), buyer, 300)

	t.Run("by seller", func(t *testing.T) {
		rec, env := doJSON(t, r, http.MethodGet, "/api/v1/transactions/seller/"+seller.String(), nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		var txns []*model.Transaction
		assert.NoError(t, json.Unmarshal(env.Data, &txns))
		assert.Len(t, txns, 2)
		for _, txn := range txns {
			assert.Equal(t, seller, txn.SellerUUID)
		}
	})

	t.Run("by buyer", func(t *testing.T) {
		rec, env := doJSON(t, r, http.MethodGet, "/api/v1/transactions/buyer/"+buyer.String(), nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		var txns []*model.Transaction
		assert.NoError(t, json.Unmarshal(env.Data, &txns))
		assert.Len(t, txns, 2)
		for _, txn := range txns {
			assert.Equal(t, buyer, txn.BuyerUUID)
		}
	})

	t.Run("no transactions", func(t *testing.T) {
		rec, env := doJSON(t, r, http.MethodGet, "/api/v1/transactions/seller/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		var txns []*model.Transaction
		assert.NoError(t, json.Unmarshal(env.Data, &txns))
		assert.Empty(t, txns)
	})

	t.Run("bad uuid", func(t *testing.T) {
		rec, _ := doJSON(t, r, http.MethodGet, "/api/v1/transactions/seller/nope", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
