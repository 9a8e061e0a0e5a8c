package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/ariefcatur/shopapp/internal/shop"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"net/http"
	"strconv"
	"time"
)

// Store is the part of *shop.Repo the handlers use.
type Store interface {
	CreateSeller(ctx context.Context, companyName string) (shop.Seller, error)
	ListSellers(ctx context.Context) ([]shop.Seller, error)
	DeleteSeller(ctx context.Context, id int64) error
	ListProductsBySeller(ctx context.Context, sellerID int64) ([]shop.Product, error)

	CreateBuyer(ctx context.Context, fullName string) (shop.Buyer, error)
	ListBuyers(ctx context.Context) ([]shop.Buyer, error)
	DeleteBuyer(ctx context.Context, id int64) error
	ListOrdersByBuyer(ctx context.Context, buyerID int64) ([]shop.Order, error)

	CreateProduct(ctx context.Context, in shop.ProductInput) (shop.Product, error)
	GetProduct(ctx context.Context, id int64) (shop.Product, error)
	ListProducts(ctx context.Context) ([]shop.Product, error)

	CreateOrder(ctx context.Context, in shop.OrderInput) (shop.Order, error)
	GetOrder(ctx context.Context, id int64) (shop.Order, error)
}

type OrderCache interface {
	Get(ctx context.Context, id int64) (shop.Order, bool, error)
	Set(ctx context.Context, o shop.Order) error
}

type OrderEvents interface {
	OrderCreated(o shop.Order, traceID string)
}

// ShopHandler serves the shop API. Cache and Events are optional.
type ShopHandler struct {
	Store  Store
	Cache  OrderCache
	Events OrderEvents
	Log    *zap.Logger
}

type CreateSellerReq struct {
	CompanyName string `json:"company_name"`
}

type CreateBuyerReq struct {
	FullName string `json:"full_name"`
}

func (h *ShopHandler) Register(r chi.Router) {
	r.Post("/sellers", h.createSeller)
	r.Get("/sellers", h.listSellers)
	r.Delete("/sellers/{id}", h.deleteSeller)
	r.Get("/sellers/{id}/products", h.listSellerProducts)

	r.Post("/buyers", h.createBuyer)
	r.Get("/buyers", h.listBuyers)
	r.Delete("/buyers/{id}", h.deleteBuyer)
	r.Get("/buyers/{id}/orders", h.listBuyerOrders)

	r.Post("/products", h.createProduct)
	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)

	r.Post("/orders", h.createOrder)
	r.Get("/orders/{id}", h.getOrder)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// statusFor maps store error kinds onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, shop.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, shop.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shop.ErrReferential):
		return http.StatusUnprocessableEntity
	case errors.Is(err, shop.ErrConstraint):
		return http.StatusConflict
	case errors.Is(err, shop.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, shop.ErrConnection):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (h *ShopHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.failWith(w, r, statusFor(err), err)
}

// failWith answers 5xx with the status text only; the cause goes to the log.
func (h *ShopHandler) failWith(w http.ResponseWriter, r *http.Request, code int, err error) {
	if code >= http.StatusInternalServerError {
		h.Log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeError(w, code, http.StatusText(code))
		return
	}
	writeError(w, code, err.Error())
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

// ---- sellers ----

func (h *ShopHandler) createSeller(w http.ResponseWriter, r *http.Request) {
	var req CreateSellerReq
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	s, err := h.Store.CreateSeller(ctx, req.CompanyName)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (h *ShopHandler) listSellers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ss, err := h.Store.ListSellers(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ss)
}

func (h *ShopHandler) deleteSeller(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, h.Store.DeleteSeller)
}

func (h *ShopHandler) listSellerProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Store.ListProductsBySeller(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

// ---- buyers ----

func (h *ShopHandler) createBuyer(w http.ResponseWriter, r *http.Request) {
	var req CreateBuyerReq
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	b, err := h.Store.CreateBuyer(ctx, req.FullName)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *ShopHandler) listBuyers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	bs, err := h.Store.ListBuyers(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bs)
}

func (h *ShopHandler) deleteBuyer(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, h.Store.DeleteBuyer)
}

func (h *ShopHandler) listBuyerOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	orders, err := h.Store.ListOrdersByBuyer(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// deleteByID answers 409 when the row is still referenced (restrict policy).
func (h *ShopHandler) deleteByID(w http.ResponseWriter, r *http.Request, del func(context.Context, int64) error) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := del(ctx, id); err != nil {
		if errors.Is(err, shop.ErrReferential) {
			h.failWith(w, r, http.StatusConflict, err)
			return
		}
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- products ----

func (h *ShopHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req shop.ProductInput
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Store.CreateProduct(ctx, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *ShopHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Store.ListProducts(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *ShopHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Store.GetProduct(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ---- orders ----

func (h *ShopHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req shop.OrderInput
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Store.CreateOrder(ctx, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	// The order is committed; cache and event are best effort from here on.
	if h.Cache != nil {
		if err := h.Cache.Set(ctx, o); err != nil {
			h.Log.Warn("order cache set failed", zap.Int64("order_id", o.ID), zap.Error(err))
		}
	}
	if h.Events != nil {
		h.Events.OrderCreated(o, middleware.GetReqID(r.Context()))
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *ShopHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// 1) cache
	if h.Cache != nil {
		o, hit, err := h.Cache.Get(ctx, id)
		switch {
		case err != nil:
			h.Log.Warn("order cache get failed", zap.Int64("order_id", id), zap.Error(err))
		case hit:
			writeJSON(w, http.StatusOK, o)
			return
		}
	}

	// 2) store
	o, err := h.Store.GetOrder(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if h.Cache != nil {
		if err := h.Cache.Set(ctx, o); err != nil {
			h.Log.Warn("order cache set failed", zap.Int64("order_id", id), zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, o)
}
