package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/example/storefront/internal/cache"
	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/catalog/source"
	"github.com/example/storefront/internal/changefeed"
	"github.com/example/storefront/internal/settings"
)

// AdminHandlers serves the back-office write paths. Every successful write
// publishes a change event so storefront instances invalidate their caches.
type AdminHandlers struct {
	store    *source.AdminStore
	settings *settings.Service
	coord    *cache.Coordinator
	feed     Publisher
}

func NewAdminHandlers(store *source.AdminStore, settingsSvc *settings.Service, coord *cache.Coordinator, feed Publisher) *AdminHandlers {
	return &AdminHandlers{store: store, settings: settingsSvc, coord: coord, feed: feed}
}

func (h *AdminHandlers) publish(r *http.Request, ev changefeed.Event) {
	if h.feed == nil {
		return
	}
	if err := h.feed.Publish(r.Context(), ev); err != nil {
		// Lost events are covered by the staleness check on next startup.
		log.Printf("[API] Failed to publish change event for %s: %v", ev.Table, err)
	}
}

func (h *AdminHandlers) RefreshCache(w http.ResponseWriter, r *http.Request) {
	h.coord.Refresh(r.Context())
	respondJSON(w, http.StatusOK, map[string]any{
		"status":      h.coord.Status(),
		"lastUpdated": h.coord.LastUpdated(),
	})
}

func (h *AdminHandlers) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.coord.Clear()
	respondJSON(w, http.StatusOK, map[string]string{"message": "Cache cleared"})
}

func (h *AdminHandlers) UpsertProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/admin/products/")

	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p.ID = id

	if err := h.store.UpsertProduct(r.Context(), &p); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.publish(r, changefeed.Event{Table: "products", Op: changefeed.OpUpdate, RecordID: p.ID})
	respondJSON(w, http.StatusOK, map[string]string{"message": "Product saved"})
}

func (h *AdminHandlers) UpsertDiscount(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/admin/discounts/")

	var rule catalog.DiscountRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rule.ID = id

	if err := h.store.UpsertDiscount(r.Context(), &rule); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.publish(r, changefeed.Event{Table: "active_discounts", Op: changefeed.OpUpdate, RecordID: rule.ID})
	respondJSON(w, http.StatusOK, map[string]string{"message": "Discount saved"})
}

type settingRequest struct {
	Value string `json:"value"`
}

func (h *AdminHandlers) UpsertSetting(w http.ResponseWriter, r *http.Request) {
	key := extractPathParam(r.URL.Path, "/admin/settings/")

	var req settingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.settings.Set(r.Context(), key, req.Value); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.publish(r, changefeed.Event{Table: "admin_settings", Op: changefeed.OpUpdate, RecordID: key})
	respondJSON(w, http.StatusOK, map[string]string{"message": "Setting saved"})
}
