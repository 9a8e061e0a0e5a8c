package shop

import (
	"context"
	"errors"
	"fmt"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"time"
)

var tracer = otel.Tracer("github.com/ariefcatur/shopapp/internal/shop")

// querier is the subset shared by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repo struct{ DB *pgxpool.Pool }

// ---- sellers ----

func (r *Repo) CreateSeller(ctx context.Context, companyName string) (Seller, error) {
	out, err := r.CreateSellers(ctx, []string{companyName})
	if err != nil {
		return Seller{}, err
	}
	return out[0], nil
}

// CreateSellers inserts all names in one transaction; either every seller is
// stored or none is.
func (r *Repo) CreateSellers(ctx context.Context, companyNames []string) (out []Seller, err error) {
	ctx, span := tracer.Start(ctx, "shop.CreateSellers")
	defer func() { finish(span, err) }()

	names := make([]string, len(companyNames))
	for i, n := range companyNames {
		if names[i], err = normalizeName("company_name", n); err != nil {
			return nil, err
		}
	}
	return insertAll(ctx, r, names, func(ctx context.Context, tx pgx.Tx, name string) (Seller, error) {
		s := Seller{CompanyName: name}
		err := tx.QueryRow(ctx, `INSERT INTO sellers(company_name) VALUES ($1) RETURNING id`, name).Scan(&s.ID)
		return s, err
	})
}

func (r *Repo) GetSeller(ctx context.Context, id int64) (s Seller, err error) {
	ctx, span := tracer.Start(ctx, "shop.GetSeller")
	defer func() { finish(span, err) }()

	if err = validateID("seller_id", id); err != nil {
		return Seller{}, err
	}
	err = r.DB.QueryRow(ctx, `SELECT id, company_name FROM sellers WHERE id=$1`, id).Scan(&s.ID, &s.CompanyName)
	if errors.Is(err, pgx.ErrNoRows) {
		return Seller{}, fmt.Errorf("%w: seller %d", ErrNotFound, id)
	}
	if err != nil {
		return Seller{}, classify(err)
	}
	return s, nil
}

func (r *Repo) ListSellers(ctx context.Context) (out []Seller, err error) {
	ctx, span := tracer.Start(ctx, "shop.ListSellers")
	defer func() { finish(span, err) }()

	rows, err := r.DB.Query(ctx, `SELECT id, company_name FROM sellers ORDER BY id`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	out = []Seller{}
	for rows.Next() {
		var s Seller
		if err = rows.Scan(&s.ID, &s.CompanyName); err != nil {
			return nil, classify(err)
		}
		out = append(out, s)
	}
	if err = rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// DeleteSeller refuses to remove a seller that still owns products or orders.
func (r *Repo) DeleteSeller(ctx context.Context, id int64) (err error) {
	ctx, span := tracer.Start(ctx, "shop.DeleteSeller")
	defer func() { finish(span, err) }()

	if err = validateID("seller_id", id); err != nil {
		return err
	}
	return r.deleteByID(ctx, `DELETE FROM sellers WHERE id=$1`, "seller", id)
}

// ---- buyers ----

func (r *Repo) CreateBuyer(ctx context.Context, fullName string) (Buyer, error) {
	out, err := r.CreateBuyers(ctx, []string{fullName})
	if err != nil {
		return Buyer{}, err
	}
	return out[0], nil
}

func (r *Repo) CreateBuyers(ctx context.Context, fullNames []string) (out []Buyer, err error) {
	ctx, span := tracer.Start(ctx, "shop.CreateBuyers")
	defer func() { finish(span, err) }()

	names := make([]string, len(fullNames))
	for i, n := range fullNames {
		if names[i], err = normalizeName("full_name", n); err != nil {
			return nil, err
		}
	}
	return insertAll(ctx, r, names, func(ctx context.Context, tx pgx.Tx, name string) (Buyer, error) {
		b := Buyer{FullName: name}
		err := tx.QueryRow(ctx, `INSERT INTO buyers(full_name) VALUES ($1) RETURNING id`, name).Scan(&b.ID)
		return b, err
	})
}

func (r *Repo) GetBuyer(ctx context.Context, id int64) (b Buyer, err error) {
	ctx, span := tracer.Start(ctx, "shop.GetBuyer")
	defer func() { finish(span, err) }()

	if err = validateID("buyer_id", id); err != nil {
		return Buyer{}, err
	}
	err = r.DB.QueryRow(ctx, `SELECT id, full_name FROM buyers WHERE id=$1`, id).Scan(&b.ID, &b.FullName)
	if errors.Is(err, pgx.ErrNoRows) {
		return Buyer{}, fmt.Errorf("%w: buyer %d", ErrNotFound, id)
	}
	if err != nil {
		return Buyer{}, classify(err)
	}
	return b, nil
}

func (r *Repo) ListBuyers(ctx context.Context) (out []Buyer, err error) {
	ctx, span := tracer.Start(ctx, "shop.ListBuyers")
	defer func() { finish(span, err) }()

	rows, err := r.DB.Query(ctx, `SELECT id, full_name FROM buyers ORDER BY id`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	out = []Buyer{}
	for rows.Next() {
		var b Buyer
		if err = rows.Scan(&b.ID, &b.FullName); err != nil {
			return nil, classify(err)
		}
		out = append(out, b)
	}
	if err = rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// DeleteBuyer refuses to remove a buyer that still has orders.
func (r *Repo) DeleteBuyer(ctx context.Context, id int64) (err error) {
	ctx, span := tracer.Start(ctx, "shop.DeleteBuyer")
	defer func() { finish(span, err) }()

	if err = validateID("buyer_id", id); err != nil {
		return err
	}
	return r.deleteByID(ctx, `DELETE FROM buyers WHERE id=$1`, "buyer", id)
}

// ---- products ----

const productCols = `id, name, price::text, seller_id`

func (r *Repo) CreateProduct(ctx context.Context, in ProductInput) (Product, error) {
	out, err := r.CreateProducts(ctx, []ProductInput{in})
	if err != nil {
		return Product{}, err
	}
	return out[0], nil
}

func (r *Repo) CreateProducts(ctx context.Context, in []ProductInput) (out []Product, err error) {
	ctx, span := tracer.Start(ctx, "shop.CreateProducts")
	defer func() { finish(span, err) }()

	rows := make([]ProductInput, len(in))
	for i, p := range in {
		if rows[i], err = normalizeProduct(p); err != nil {
			return nil, err
		}
	}
	return insertAll(ctx, r, rows, insertProduct)
}

func insertProduct(ctx context.Context, tx pgx.Tx, in ProductInput) (Product, error) {
	if err := lockRow(ctx, tx, `SELECT 1 FROM sellers WHERE id=$1 FOR KEY SHARE`, "seller", in.SellerID); err != nil {
		return Product{}, err
	}
	row := tx.QueryRow(ctx, `
		INSERT INTO products(name, price, seller_id)
		VALUES ($1, $2::numeric, $3)
		RETURNING `+productCols,
		in.Name, in.Price.String(), in.SellerID,
	)
	return scanProduct(row)
}

func (r *Repo) GetProduct(ctx context.Context, id int64) (p Product, err error) {
	ctx, span := tracer.Start(ctx, "shop.GetProduct")
	defer func() { finish(span, err) }()

	if err = validateID("product_id", id); err != nil {
		return Product{}, err
	}
	p, err = scanProduct(r.DB.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("%w: product %d", ErrNotFound, id)
	}
	if err != nil {
		return Product{}, classify(err)
	}
	return p, nil
}

func (r *Repo) ListProducts(ctx context.Context) (out []Product, err error) {
	ctx, span := tracer.Start(ctx, "shop.ListProducts")
	defer func() { finish(span, err) }()

	return queryProducts(ctx, r.DB, `SELECT `+productCols+` FROM products ORDER BY id`)
}

// ListProductsBySeller returns the seller's products in insertion order. An
// unknown seller simply has no products.
func (r *Repo) ListProductsBySeller(ctx context.Context, sellerID int64) (out []Product, err error) {
	ctx, span := tracer.Start(ctx, "shop.ListProductsBySeller")
	defer func() { finish(span, err) }()

	if err = validateID("seller_id", sellerID); err != nil {
		return nil, err
	}
	return queryProducts(ctx, r.DB, `SELECT `+productCols+` FROM products WHERE seller_id=$1 ORDER BY id`, sellerID)
}

// ---- orders ----

const orderCols = `id, order_time, buyer_id, seller_id`

func (r *Repo) CreateOrder(ctx context.Context, in OrderInput) (Order, error) {
	out, err := r.CreateOrders(ctx, []OrderInput{in})
	if err != nil {
		return Order{}, err
	}
	return out[0], nil
}

// CreateOrders stores every order together with its order_products rows in a
// single transaction. One bad reference anywhere leaves nothing behind.
func (r *Repo) CreateOrders(ctx context.Context, in []OrderInput) (out []Order, err error) {
	ctx, span := tracer.Start(ctx, "shop.CreateOrders")
	defer func() { finish(span, err) }()

	for _, o := range in {
		if err = validateOrder(o); err != nil {
			return nil, err
		}
	}
	return insertAll(ctx, r, in, insertOrder)
}

func insertOrder(ctx context.Context, tx pgx.Tx, in OrderInput) (Order, error) {
	if err := lockRow(ctx, tx, `SELECT 1 FROM buyers WHERE id=$1 FOR KEY SHARE`, "buyer", in.BuyerID); err != nil {
		return Order{}, err
	}
	if err := lockRow(ctx, tx, `SELECT 1 FROM sellers WHERE id=$1 FOR KEY SHARE`, "seller", in.SellerID); err != nil {
		return Order{}, err
	}

	found, err := queryProducts(ctx, tx, `SELECT `+productCols+` FROM products WHERE id = ANY($1) FOR KEY SHARE`, in.ProductIDs)
	if err != nil {
		return Order{}, err
	}
	byID := make(map[int64]Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	var missing []int64
	for _, id := range in.ProductIDs {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return Order{}, fmt.Errorf("%w: products not found: %v", ErrReferential, missing)
	}

	orderTime := in.OrderTime
	if orderTime.IsZero() {
		orderTime = time.Now()
	}

	var o Order
	err = tx.QueryRow(ctx, `
		INSERT INTO orders(order_time, buyer_id, seller_id)
		VALUES ($1, $2, $3)
		RETURNING `+orderCols,
		orderTime, in.BuyerID, in.SellerID,
	).Scan(&o.ID, &o.OrderTime, &o.BuyerID, &o.SellerID)
	if err != nil {
		return Order{}, err
	}

	o.Products = make([]Product, 0, len(in.ProductIDs))
	for _, pid := range in.ProductIDs {
		if _, err := tx.Exec(ctx, `INSERT INTO order_products(order_id, product_id) VALUES ($1, $2)`, o.ID, pid); err != nil {
			return Order{}, err
		}
		o.Products = append(o.Products, byID[pid])
	}
	return o, nil
}

func (r *Repo) GetOrder(ctx context.Context, id int64) (o Order, err error) {
	ctx, span := tracer.Start(ctx, "shop.GetOrder")
	defer func() { finish(span, err) }()

	if err = validateID("order_id", id); err != nil {
		return Order{}, err
	}
	orders, err := queryOrders(ctx, r.DB, `SELECT `+orderCols+` FROM orders WHERE id=$1`, id)
	if err != nil {
		return Order{}, err
	}
	if len(orders) == 0 {
		return Order{}, fmt.Errorf("%w: order %d", ErrNotFound, id)
	}
	return orders[0], nil
}

// ListOrdersByBuyer returns the buyer's orders oldest first, each with its
// products resolved.
func (r *Repo) ListOrdersByBuyer(ctx context.Context, buyerID int64) (out []Order, err error) {
	ctx, span := tracer.Start(ctx, "shop.ListOrdersByBuyer")
	defer func() { finish(span, err) }()

	if err = validateID("buyer_id", buyerID); err != nil {
		return nil, err
	}
	return queryOrders(ctx, r.DB, `SELECT `+orderCols+` FROM orders WHERE buyer_id=$1 ORDER BY id`, buyerID)
}

// ListOrderProducts returns the raw join rows of one order.
func (r *Repo) ListOrderProducts(ctx context.Context, orderID int64) (out []OrderProduct, err error) {
	ctx, span := tracer.Start(ctx, "shop.ListOrderProducts")
	defer func() { finish(span, err) }()

	if err = validateID("order_id", orderID); err != nil {
		return nil, err
	}
	rows, err := r.DB.Query(ctx, `SELECT order_id, product_id FROM order_products WHERE order_id=$1 ORDER BY product_id`, orderID)
	if err != nil {
		return nil, classify(err)
	}
	out, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (OrderProduct, error) {
		var op OrderProduct
		err := row.Scan(&op.OrderID, &op.ProductID)
		return op, err
	})
	return out, classify(err)
}

// ---- helpers ----

func insertAll[In, Out any](ctx context.Context, r *Repo, in []In, insert func(context.Context, pgx.Tx, In) (Out, error)) ([]Out, error) {
	if len(in) == 0 {
		return []Out{}, nil
	}
	out := make([]Out, 0, len(in))

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, classify(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, item := range in {
		v, err := insert(ctx, tx, item)
		if err != nil {
			return nil, classify(err)
		}
		out = append(out, v)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// lockRow checks that the referenced row exists and holds a key-share lock on
// it until the transaction ends, so it cannot be deleted underneath us.
func lockRow(ctx context.Context, tx pgx.Tx, query, entity string, id int64) error {
	var one int
	err := tx.QueryRow(ctx, query, id).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s %d does not exist", ErrReferential, entity, id)
	}
	return err
}

func (r *Repo) deleteByID(ctx context.Context, query, entity string, id int64) error {
	ct, err := r.DB.Exec(ctx, query, id)
	if err != nil {
		err = classify(err)
		if errors.Is(err, ErrReferential) {
			return fmt.Errorf("%s %d is still referenced: %w", entity, id, err)
		}
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s %d", ErrNotFound, entity, id)
	}
	return nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p     Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Name, &price, &p.SellerID); err != nil {
		return Product{}, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return Product{}, fmt.Errorf("decode price %q: %w", price, err)
	}
	p.Price = d
	return p, nil
}

func queryProducts(ctx context.Context, q querier, sql string, args ...any) ([]Product, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, classify(err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// queryOrders runs an order query and resolves all products of the result in
// one extra round trip.
func queryOrders(ctx context.Context, q querier, sql string, args ...any) ([]Order, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, classify(err)
	}
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Order, error) {
		var o Order
		err := row.Scan(&o.ID, &o.OrderTime, &o.BuyerID, &o.SellerID)
		o.Products = []Product{}
		return o, err
	})
	if err != nil {
		return nil, classify(err)
	}
	if len(orders) == 0 {
		return []Order{}, nil
	}

	ids := make([]int64, 0, len(orders))
	index := make(map[int64]int, len(orders))
	for i, o := range orders {
		ids = append(ids, o.ID)
		index[o.ID] = i
	}

	prow, err := q.Query(ctx, `
		SELECT op.order_id, p.id, p.name, p.price::text, p.seller_id
		FROM order_products op
		JOIN products p ON p.id = op.product_id
		WHERE op.order_id = ANY($1)
		ORDER BY op.order_id, p.id`, ids)
	if err != nil {
		return nil, classify(err)
	}
	defer prow.Close()

	for prow.Next() {
		var (
			orderID int64
			p       Product
			price   string
		)
		if err := prow.Scan(&orderID, &p.ID, &p.Name, &price, &p.SellerID); err != nil {
			return nil, classify(err)
		}
		if p.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("decode price %q: %w", price, err)
		}
		i := index[orderID]
		orders[i].Products = append(orders[i].Products, p)
	}
	if err := prow.Err(); err != nil {
		return nil, classify(err)
	}
	return orders, nil
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
