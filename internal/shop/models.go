package shop

import (
	"github.com/shopspring/decimal"
	"time"
)

type Seller struct {
	ID          int64  `json:"id"`
	CompanyName string `json:"company_name"`
}

type Buyer struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
}

type Product struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	SellerID int64           `json:"seller_id"`
}

// Order is always returned with its products resolved through order_products.
type Order struct {
	ID        int64     `json:"id"`
	OrderTime time.Time `json:"order_time"`
	BuyerID   int64     `json:"buyer_id"`
	SellerID  int64     `json:"seller_id"`
	Products  []Product `json:"products"`
}

// ProductIDs returns the ids of the order's products in stored order.
func (o Order) ProductIDs() []int64 {
	out := make([]int64, 0, len(o.Products))
	for _, p := range o.Products {
		out = append(out, p.ID)
	}
	return out
}

// OrderProduct is one row of the order/product join table, keyed by the pair.
type OrderProduct struct {
	OrderID   int64 `json:"order_id"`
	ProductID int64 `json:"product_id"`
}

type ProductInput struct {
	Name     string          `json:"name" validate:"required,max=200"`
	Price    decimal.Decimal `json:"price"`
	SellerID int64           `json:"seller_id" validate:"gt=0"`
}

type OrderInput struct {
	BuyerID    int64     `json:"buyer_id" validate:"gt=0"`
	SellerID   int64     `json:"seller_id" validate:"gt=0"`
	ProductIDs []int64   `json:"product_ids" validate:"required,min=1,dive,gt=0"`
	OrderTime  time.Time `json:"order_time"`
}
