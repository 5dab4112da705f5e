package edge

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Handlers bundles the edge functions behind one router.
type Handlers struct {
	payments *PaymentService
	notify   *NotifyService
	describe *Describer
}

func NewHandlers(payments *PaymentService, notify *NotifyService, describe *Describer) *Handlers {
	return &Handlers{payments: payments, notify: notify, describe: describe}
}

// NewRouter builds the HTTP router for the edge service.
func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger)

	r.Post("/process-payment", h.ProcessPayment)
	r.Post("/send-order-notification", h.SendOrderNotification)
	r.Post("/send-enhanced-order-notification", h.SendEnhancedOrderNotification)
	r.Post("/generate-product-description", h.GenerateProductDescription)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[Edge] %s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}

func (h *Handlers) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	respondJSON(w, http.StatusOK, h.payments.Process(r.Context(), req))
}

type notifyRequest struct {
	OrderID string `json:"orderId"`
}

func (h *Handlers) SendOrderNotification(w http.ResponseWriter, r *http.Request) {
	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.notify.Notify(r.Context(), req.OrderID); err != nil {
		respondJSON(w, http.StatusOK, map[string]any{"success": false, "message": err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handlers) SendEnhancedOrderNotification(w http.ResponseWriter, r *http.Request) {
	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.notify.NotifyEnhanced(r.Context(), req.OrderID); err != nil {
		respondJSON(w, http.StatusOK, map[string]any{"success": false, "message": err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handlers) GenerateProductDescription(w http.ResponseWriter, r *http.Request) {
	var req DescribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	respondJSON(w, http.StatusOK, h.describe.Describe(r.Context(), req))
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
