package shop

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A Repo without a pool: every case below must fail before touching storage.
func TestRepo_RejectsInvalidInputWithoutStorage(t *testing.T) {
	r := &Repo{}
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{"empty company name", func() error { _, err := r.CreateSeller(ctx, "  "); return err }},
		{"company name too long", func() error { _, err := r.CreateSeller(ctx, strings.Repeat("x", 201)); return err }},
		{"empty buyer name", func() error { _, err := r.CreateBuyer(ctx, ""); return err }},
		{"empty product name", func() error {
			_, err := r.CreateProduct(ctx, ProductInput{Name: "", Price: decimal.NewFromInt(1), SellerID: 1})
			return err
		}},
		{"negative price", func() error {
			_, err := r.CreateProduct(ctx, ProductInput{Name: "Widget", Price: decimal.RequireFromString("-0.01"), SellerID: 1})
			return err
		}},
		{"zero seller id on product", func() error {
			_, err := r.CreateProduct(ctx, ProductInput{Name: "Widget", Price: decimal.NewFromInt(1)})
			return err
		}},
		{"nil product list", func() error {
			_, err := r.CreateOrder(ctx, OrderInput{BuyerID: 1, SellerID: 1})
			return err
		}},
		{"empty product list", func() error {
			_, err := r.CreateOrder(ctx, OrderInput{BuyerID: 1, SellerID: 1, ProductIDs: []int64{}})
			return err
		}},
		{"duplicate product", func() error {
			_, err := r.CreateOrder(ctx, OrderInput{BuyerID: 1, SellerID: 1, ProductIDs: []int64{1, 2, 1}})
			return err
		}},
		{"non-positive product id", func() error {
			_, err := r.CreateOrder(ctx, OrderInput{BuyerID: 1, SellerID: 1, ProductIDs: []int64{1, 0}})
			return err
		}},
		{"missing buyer id", func() error {
			_, err := r.CreateOrder(ctx, OrderInput{SellerID: 1, ProductIDs: []int64{1}})
			return err
		}},
		{"bad order id", func() error { _, err := r.GetOrder(ctx, 0); return err }},
		{"bad seller id on list", func() error { _, err := r.ListProductsBySeller(ctx, -1); return err }},
		{"bad buyer id on list", func() error { _, err := r.ListOrdersByBuyer(ctx, 0); return err }},
		{"bad seller id on delete", func() error { return r.DeleteSeller(ctx, 0) }},
		{"invalid utf8 company name", func() error { _, err := r.CreateSeller(ctx, "\xff\xfe"); return err }},
		{"nul in buyer name", func() error { _, err := r.CreateBuyer(ctx, "Ada\x00Lovelace"); return err }},
		{"invalid utf8 product name", func() error {
			_, err := r.CreateProduct(ctx, ProductInput{Name: "W\xc3", Price: decimal.NewFromInt(1), SellerID: 1})
			return err
		}},
		{"price with three decimals", func() error {
			_, err := r.CreateProduct(ctx, ProductInput{Name: "Widget", Price: decimal.RequireFromString("9.999"), SellerID: 1})
			return err
		}},
		{"price above column range", func() error {
			_, err := r.CreateProduct(ctx, ProductInput{Name: "Widget", Price: decimal.RequireFromString("10000000000"), SellerID: 1})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestRepo_BatchValidationIsAllOrNothing(t *testing.T) {
	r := &Repo{}
	_, err := r.CreateSellers(context.Background(), []string{"Acme", ""})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = r.CreateOrders(context.Background(), []OrderInput{
		{BuyerID: 1, SellerID: 1, ProductIDs: []int64{1}},
		{BuyerID: 1, SellerID: 1, ProductIDs: []int64{2, 2}},
	})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "product 2 listed more than once")
}

func TestRepo_EmptyBatchIsNoop(t *testing.T) {
	out, err := (&Repo{}).CreateProducts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestNormalizeProduct(t *testing.T) {
	tests := []struct {
		name      string
		in        ProductInput
		wantName  string
		wantPrice string
	}{
		{"zero price", ProductInput{Name: "Free sample", Price: decimal.Zero, SellerID: 3}, "Free sample", "0"},
		{"trailing zero is not extra scale", ProductInput{Name: "W", Price: decimal.RequireFromString("9.990"), SellerID: 1}, "W", "9.99"},
		{"largest price", ProductInput{Name: "W", Price: decimal.RequireFromString("9999999999.99"), SellerID: 1}, "W", "9999999999.99"},
		{"name trimmed", ProductInput{Name: "  Ürün 1 \t", Price: decimal.NewFromInt(10), SellerID: 1}, "Ürün 1", "10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeProduct(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, got.Name)
			assert.True(t, decimal.RequireFromString(tt.wantPrice).Equal(got.Price), got.Price.String())
		})
	}
}

func TestNormalizeName(t *testing.T) {
	got, err := normalizeName("company_name", "  Acme ")
	require.NoError(t, err)
	assert.Equal(t, "Acme", got)

	// 200 runes, more than 200 bytes
	got, err = normalizeName("full_name", strings.Repeat("ı", maxNameLen))
	require.NoError(t, err)
	assert.Equal(t, maxNameLen, len([]rune(got)))

	_, err = normalizeName("full_name", "\xff\xfe")
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorContains(t, err, "UTF-8")
}

func TestOrder_ProductIDs(t *testing.T) {
	o := Order{Products: []Product{{ID: 4}, {ID: 2}, {ID: 9}}}
	assert.Equal(t, []int64{4, 2, 9}, o.ProductIDs())
	assert.Empty(t, Order{}.ProductIDs())
}
