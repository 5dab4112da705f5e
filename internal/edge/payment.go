// Package edge implements the serverless-style HTTP functions that sit next
// to the storefront: payment validation, order notification fan-out, and
// AI-assisted product descriptions.
//
// Business rejections are returned as structured {success:false, message}
// bodies with HTTP 200, never as error statuses; callers branch on the
// message.
package edge

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/example/storefront/internal/orders"
)

// Rejection messages returned to the storefront.
const (
	MsgMethodDisabled   = "طريقة الدفع غير مفعلة"
	MsgRequestExpired   = "انتهت صلاحية طلب الدفع"
	MsgOrderNotFound    = "الطلب غير موجود"
	MsgAlreadyProcessed = "تمت معالجة الطلب مسبقاً"
	MsgAmountMismatch   = "المبلغ المرسل لا يطابق قيمة الطلب"
	MsgPaymentAccepted  = "تم قبول الدفع"
	MsgInternalError    = "حدث خطأ داخلي"
)

const (
	// replayWindow bounds how old a payment request's embedded timestamp
	// may be.
	replayWindow = 5 * time.Minute

	// amountTolerance absorbs float formatting noise between the client
	// and the stored integer total.
	amountTolerance = 0.01
)

// PaymentRequest is the /process-payment body.
type PaymentRequest struct {
	PaymentMethod string      `json:"paymentMethod"`
	PaymentData   PaymentData `json:"paymentData"`
	OrderData     OrderData   `json:"orderData"`
}

type PaymentData struct {
	Timestamp time.Time `json:"timestamp"`
}

type OrderData struct {
	OrderID string  `json:"orderId"`
	Total   float64 `json:"total"`
}

// PaymentResult is always returned with HTTP 200.
type PaymentResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	TransactionID string `json:"transactionId,omitempty"`
}

// MethodChecker reports whether a payment method is enabled in the admin
// settings.
type MethodChecker interface {
	PaymentMethodEnabled(ctx context.Context, method string) bool
}

// PaymentService validates and settles payment requests.
type PaymentService struct {
	orders  orders.Repository
	methods MethodChecker
	now     func() time.Time
}

func NewPaymentService(repo orders.Repository, methods MethodChecker) *PaymentService {
	return &PaymentService{orders: repo, methods: methods, now: time.Now}
}

// Process runs the full validation chain. The real gateway call is a stub:
// once validation passes, the order is marked processed and a transaction ID
// is minted.
func (s *PaymentService) Process(ctx context.Context, req PaymentRequest) PaymentResult {
	if !s.methods.PaymentMethodEnabled(ctx, req.PaymentMethod) {
		return PaymentResult{Success: false, Message: MsgMethodDisabled}
	}

	// Replay protection: a request older than the window is dropped even
	// if everything else checks out.
	age := s.now().Sub(req.PaymentData.Timestamp)
	if req.PaymentData.Timestamp.IsZero() || age > replayWindow || age < -replayWindow {
		return PaymentResult{Success: false, Message: MsgRequestExpired}
	}

	order, err := s.orders.Get(ctx, req.OrderData.OrderID)
	if err == orders.ErrNotFound {
		return PaymentResult{Success: false, Message: MsgOrderNotFound}
	}
	if err != nil {
		log.Printf("[Edge] Failed to load order %s: %v", req.OrderData.OrderID, err)
		return PaymentResult{Success: false, Message: MsgInternalError}
	}

	if order.Processed {
		return PaymentResult{Success: false, Message: MsgAlreadyProcessed}
	}

	if math.Abs(float64(order.Total)-req.OrderData.Total) > amountTolerance {
		return PaymentResult{Success: false, Message: MsgAmountMismatch}
	}

	transactionID := uuid.New().String()
	ok, err := s.orders.MarkProcessed(ctx, order.ID, transactionID)
	if err != nil {
		log.Printf("[Edge] Failed to mark order %s processed: %v", order.ID, err)
		return PaymentResult{Success: false, Message: MsgInternalError}
	}
	if !ok {
		// Lost the race to a concurrent confirmation.
		return PaymentResult{Success: false, Message: MsgAlreadyProcessed}
	}

	return PaymentResult{Success: true, Message: MsgPaymentAccepted, TransactionID: transactionID}
}
