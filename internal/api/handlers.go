package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/storefront/internal/cache"
	"github.com/example/storefront/internal/cart"
	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/changefeed"
	"github.com/example/storefront/internal/discount"
	"github.com/example/storefront/internal/orders"
	"github.com/example/storefront/internal/search"
)

// Publisher is the write-path side of the change feed.
type Publisher interface {
	Publish(ctx context.Context, ev changefeed.Event) error
}

// sessionHeader identifies the caller's cart.
const sessionHeader = "X-Session-ID"

// Handlers serves the customer-facing storefront endpoints.
type Handlers struct {
	searcher *search.Service
	coord    *cache.Coordinator
	carts    *cart.Service
	orders   orders.Repository
	feed     Publisher
}

func NewHandlers(searcher *search.Service, coord *cache.Coordinator, carts *cart.Service, orderRepo orders.Repository, feed Publisher) *Handlers {
	return &Handlers{
		searcher: searcher,
		coord:    coord,
		carts:    carts,
		orders:   orderRepo,
		feed:     feed,
	}
}

// productView is a product with its resolved discount attached.
type productView struct {
	catalog.Product
	EffectivePrice    int `json:"effective_price"`
	EffectiveDiscount int `json:"effective_discount"`
}

// Product Handlers

func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	q := search.Query{
		Text:        r.URL.Query().Get("q"),
		Category:    r.URL.Query().Get("category"),
		Subcategory: r.URL.Query().Get("subcategory"),
	}
	products := h.searcher.Search(q)
	rules := h.searcher.Rules(r.Context())

	views := make([]productView, 0, len(products))
	for _, p := range products {
		res := discount.ResolveProduct(&p, rules)
		views = append(views, productView{
			Product:           p,
			EffectivePrice:    res.UnitPrice,
			EffectiveDiscount: res.Percentage,
		})
	}
	respondJSON(w, http.StatusOK, views)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/products/")
	p, ok := h.productByID(id)
	if !ok {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}
	res := discount.ResolveProduct(p, h.searcher.Rules(r.Context()))
	respondJSON(w, http.StatusOK, productView{
		Product:           *p,
		EffectivePrice:    res.UnitPrice,
		EffectiveDiscount: res.Percentage,
	})
}

func (h *Handlers) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories := h.coord.Categories()
	if categories == nil {
		categories = []catalog.Category{}
	}
	respondJSON(w, http.StatusOK, categories)
}

func (h *Handlers) GetDiscounts(w http.ResponseWriter, r *http.Request) {
	rules := h.searcher.Rules(r.Context())
	if rules == nil {
		rules = []catalog.DiscountRule{}
	}
	respondJSON(w, http.StatusOK, rules)
}

func (h *Handlers) GetCacheStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":      h.coord.Status(),
		"lastUpdated": h.coord.LastUpdated(),
	})
}

// Cart Handlers

type cartItemRequest struct {
	ProductID string `json:"product_id"`
	Variant   string `json:"variant"`
	Quantity  int    `json:"quantity"`
}

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	session := sessionID(r)
	priced, total := h.pricedCart(r.Context(), session)
	respondJSON(w, http.StatusOK, map[string]any{
		"items": priced,
		"total": total,
	})
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, ok := h.productByID(req.ProductID)
	if !ok {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}
	if err := h.carts.Add(sessionID(r), p, req.Variant, req.Quantity); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.GetCart(w, r)
}

func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.carts.SetQuantity(sessionID(r), req.ProductID, req.Variant, req.Quantity)
	h.GetCart(w, r)
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	productID := extractPathParam(r.URL.Path, "/cart/items/")
	variant := r.URL.Query().Get("variant")
	h.carts.Remove(sessionID(r), productID, variant)
	h.GetCart(w, r)
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.carts.Clear(sessionID(r))
	respondJSON(w, http.StatusOK, map[string]any{"items": []cart.PricedItem{}, "total": 0})
}

// Checkout

type checkoutRequest struct {
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	Address       string `json:"address"`
	PaymentMethod string `json:"payment_method"`
}

func (h *Handlers) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	session := sessionID(r)
	priced, total := h.pricedCart(r.Context(), session)
	if len(priced) == 0 {
		http.Error(w, "Cart is empty", http.StatusBadRequest)
		return
	}

	order := &orders.Order{
		ID:            uuid.New().String(),
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Address:       req.Address,
		Items:         priced,
		Total:         total,
		Status:        orders.StatusPending,
		PaymentMethod: req.PaymentMethod,
		CreatedAt:     time.Now().UTC(),
	}
	if err := h.orders.Insert(r.Context(), order); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.publish(r.Context(), changefeed.Event{
		Table: "orders", Op: changefeed.OpInsert, RecordID: order.ID,
	})
	h.carts.Clear(session)

	respondJSON(w, http.StatusCreated, order)
}

// Helpers

func (h *Handlers) pricedCart(ctx context.Context, session string) ([]cart.PricedItem, int) {
	rules := h.searcher.Rules(ctx)
	return h.carts.Priced(session, func(id string) (*catalog.Product, bool) {
		return h.productByID(id)
	}, rules)
}

func (h *Handlers) productByID(id string) (*catalog.Product, bool) {
	for _, p := range h.coord.Products() {
		if p.ID == id {
			return &p, true
		}
	}
	return nil, false
}

func (h *Handlers) publish(ctx context.Context, ev changefeed.Event) {
	if h.feed == nil {
		return
	}
	if err := h.feed.Publish(ctx, ev); err != nil {
		log.Printf("[API] Failed to publish change event for %s: %v", ev.Table, err)
	}
}

func sessionID(r *http.Request) string {
	if session := r.Header.Get(sessionHeader); session != "" {
		return session
	}
	return "anonymous"
}

func extractPathParam(path, prefix string) string {
	raw := strings.TrimPrefix(path, prefix)
	raw = strings.TrimSuffix(raw, "/")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
