// Package seed loads the demo shop data: five sellers, five buyers, fifteen
// products and three orders of five products each.
package seed

import (
	"context"
	"fmt"
	"github.com/ariefcatur/shopapp/internal/shop"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"time"
)

// Store is what the seeder needs from *shop.Repo.
type Store interface {
	CreateSellers(ctx context.Context, companyNames []string) ([]shop.Seller, error)
	CreateBuyers(ctx context.Context, fullNames []string) ([]shop.Buyer, error)
	CreateProducts(ctx context.Context, in []shop.ProductInput) ([]shop.Product, error)
	CreateOrders(ctx context.Context, in []shop.OrderInput) ([]shop.Order, error)
	ListSellers(ctx context.Context) ([]shop.Seller, error)
	ListBuyers(ctx context.Context) ([]shop.Buyer, error)
	ListProducts(ctx context.Context) ([]shop.Product, error)
}

const (
	productsPerOrder = 5
	orderCount       = 3
)

func SellerNames() []string {
	return numbered("Satıcı", 5)
}

func BuyerNames() []string {
	return numbered("Alıcı", 5)
}

type plannedProduct struct {
	price  int64
	seller int // 1-based position in the seller list
}

var productPlan = []plannedProduct{
	{10, 1}, {11, 1}, {12, 1}, {13, 1}, {14, 1},
	{20, 2}, {21, 2}, {22, 2}, {23, 2},
	{30, 3}, {35, 3}, {39, 3},
	{40, 4}, {45, 4},
	{50, 5},
}

// Products builds the product rows for the given sellers, which must be in
// creation order.
func Products(sellers []shop.Seller) ([]shop.ProductInput, error) {
	out := make([]shop.ProductInput, 0, len(productPlan))
	for i, ps := range productPlan {
		if ps.seller > len(sellers) {
			return nil, fmt.Errorf("product %d needs seller #%d, only %d sellers", i+1, ps.seller, len(sellers))
		}
		out = append(out, shop.ProductInput{
			Name:     fmt.Sprintf("Ürün %d", i+1),
			Price:    decimal.NewFromInt(ps.price),
			SellerID: sellers[ps.seller-1].ID,
		})
	}
	return out, nil
}

// Orders pairs buyer i with seller i and products [5i, 5i+5).
func Orders(buyers []shop.Buyer, sellers []shop.Seller, products []shop.Product, at time.Time) ([]shop.OrderInput, error) {
	if len(buyers) < orderCount || len(sellers) < orderCount || len(products) < orderCount*productsPerOrder {
		return nil, fmt.Errorf("need %d buyers, %d sellers and %d products, have %d/%d/%d",
			orderCount, orderCount, orderCount*productsPerOrder, len(buyers), len(sellers), len(products))
	}
	out := make([]shop.OrderInput, 0, orderCount)
	for i := 0; i < orderCount; i++ {
		ids := make([]int64, 0, productsPerOrder)
		for _, p := range products[i*productsPerOrder : (i+1)*productsPerOrder] {
			ids = append(ids, p.ID)
		}
		out = append(out, shop.OrderInput{
			BuyerID:    buyers[i].ID,
			SellerID:   sellers[i].ID,
			ProductIDs: ids,
			OrderTime:  at,
		})
	}
	return out, nil
}

type Seeder struct {
	Store Store
	Log   *zap.Logger
}

func (s *Seeder) AddSellers(ctx context.Context) ([]shop.Seller, error) {
	out, err := s.Store.CreateSellers(ctx, SellerNames())
	if err != nil {
		return nil, fmt.Errorf("add sellers: %w", err)
	}
	s.Log.Info("sellers added", zap.Int("count", len(out)))
	return out, nil
}

func (s *Seeder) AddBuyers(ctx context.Context) ([]shop.Buyer, error) {
	out, err := s.Store.CreateBuyers(ctx, BuyerNames())
	if err != nil {
		return nil, fmt.Errorf("add buyers: %w", err)
	}
	s.Log.Info("buyers added", zap.Int("count", len(out)))
	return out, nil
}

func (s *Seeder) AddProducts(ctx context.Context, sellers []shop.Seller) ([]shop.Product, error) {
	in, err := Products(sellers)
	if err != nil {
		return nil, fmt.Errorf("add products: %w", err)
	}
	out, err := s.Store.CreateProducts(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("add products: %w", err)
	}
	s.Log.Info("products added", zap.Int("count", len(out)))
	return out, nil
}

// AddOrders reads back the stored buyers, sellers and products, as the
// orders may be seeded in a later run than the rest.
func (s *Seeder) AddOrders(ctx context.Context) ([]shop.Order, error) {
	buyers, err := s.Store.ListBuyers(ctx)
	if err != nil {
		return nil, fmt.Errorf("add orders: %w", err)
	}
	sellers, err := s.Store.ListSellers(ctx)
	if err != nil {
		return nil, fmt.Errorf("add orders: %w", err)
	}
	products, err := s.Store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("add orders: %w", err)
	}

	in, err := Orders(buyers, sellers, products, time.Now())
	if err != nil {
		return nil, fmt.Errorf("add orders: %w", err)
	}
	out, err := s.Store.CreateOrders(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("add orders: %w", err)
	}
	s.Log.Info("orders added", zap.Int("count", len(out)))
	return out, nil
}

// Run seeds everything in dependency order. Each step is its own transaction.
func (s *Seeder) Run(ctx context.Context) error {
	sellers, err := s.AddSellers(ctx)
	if err != nil {
		return err
	}
	if _, err := s.AddBuyers(ctx); err != nil {
		return err
	}
	if _, err := s.AddProducts(ctx, sellers); err != nil {
		return err
	}
	_, err = s.AddOrders(ctx)
	return err
}

func numbered(prefix string, n int) []string {
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, fmt.Sprintf("%s %d", prefix, i))
	}
	return out
}
