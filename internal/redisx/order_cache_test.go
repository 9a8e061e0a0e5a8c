package redisx

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ariefcatur/shopapp/internal/shop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderKey(t *testing.T) {
	assert.Equal(t, "shop:order:17", OrderKey(17))
}

func TestNewOrderCache_DefaultTTL(t *testing.T) {
	assert.Equal(t, TTLOrder, NewOrderCache(nil, 0).TTL)
	assert.Equal(t, time.Second, NewOrderCache(nil, time.Second).TTL)
}

func TestDecodeOrder(t *testing.T) {
	want := shop.Order{
		ID:        5,
		OrderTime: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		BuyerID:   1,
		SellerID:  2,
		Products: []shop.Product{
			{ID: 9, Name: "Ürün 9", Price: decimal.RequireFromString("12.50"), SellerID: 2},
		},
	}
	b, err := json.Marshal(want)
	require.NoError(t, err)

	got, err := DecodeOrder(b)
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.True(t, want.OrderTime.Equal(got.OrderTime))
	require.Len(t, got.Products, 1)
	assert.True(t, want.Products[0].Price.Equal(got.Products[0].Price))

	_, err = DecodeOrder([]byte("not json"))
	assert.ErrorContains(t, err, "decode cached order")
}
