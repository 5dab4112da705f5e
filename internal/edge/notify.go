package edge

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/example/storefront/internal/email"
	"github.com/example/storefront/internal/orders"
)

// Mailer is what NotifyService needs from the email layer.
type Mailer interface {
	SendOrderNotification(to, orderID string, total int) error
	SendEnhancedOrderNotification(to, orderID string, total int, items []email.OrderItem, customer string) error
}

// Messenger is the chat side of the fan-out.
type Messenger interface {
	SendMessage(ctx context.Context, text string) error
}

// NotifyService fans a new order out to the owner over email and Telegram.
// Each channel fails independently; one dead channel never blocks the other.
type NotifyService struct {
	orders    orders.Repository
	mailer    Mailer
	messenger Messenger
	ownerMail string
}

func NewNotifyService(repo orders.Repository, mailer Mailer, messenger Messenger, ownerMail string) *NotifyService {
	return &NotifyService{orders: repo, mailer: mailer, messenger: messenger, ownerMail: ownerMail}
}

// Notify sends the basic notification for an order.
func (s *NotifyService) Notify(ctx context.Context, orderID string) error {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}

	if s.mailer != nil {
		if err := s.mailer.SendOrderNotification(s.ownerMail, order.ID, order.Total); err != nil {
			log.Printf("[Edge] Email notification for order %s failed: %v", order.ID, err)
		}
	}
	if s.messenger != nil {
		text := fmt.Sprintf("طلب جديد رقم %s\nالمجموع: %d د.ع", order.ID, order.Total)
		if err := s.messenger.SendMessage(ctx, text); err != nil {
			log.Printf("[Edge] Telegram notification for order %s failed: %v", order.ID, err)
		}
	}
	return nil
}

// NotifyEnhanced sends the detailed notification with line items and
// customer information.
func (s *NotifyService) NotifyEnhanced(ctx context.Context, orderID string) error {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}

	items := make([]email.OrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, email.OrderItem{
			Name:     item.Name,
			Variant:  item.Variant,
			Quantity: item.Quantity,
			Price:    item.DiscountedPrice,
		})
	}
	customer := strings.TrimSpace(fmt.Sprintf("%s %s %s", order.CustomerName, order.CustomerPhone, order.Address))

	if s.mailer != nil {
		if err := s.mailer.SendEnhancedOrderNotification(s.ownerMail, order.ID, order.Total, items, customer); err != nil {
			log.Printf("[Edge] Enhanced email for order %s failed: %v", order.ID, err)
		}
	}
	if s.messenger != nil {
		var b strings.Builder
		fmt.Fprintf(&b, "طلب جديد رقم %s\n", order.ID)
		fmt.Fprintf(&b, "العميل: %s\n", customer)
		for _, item := range items {
			name := item.Name
			if item.Variant != "" {
				name = fmt.Sprintf("%s (%s)", name, item.Variant)
			}
			fmt.Fprintf(&b, "- %s × %d\n", name, item.Quantity)
		}
		fmt.Fprintf(&b, "المجموع: %d د.ع", order.Total)
		if err := s.messenger.SendMessage(ctx, b.String()); err != nil {
			log.Printf("[Edge] Enhanced Telegram for order %s failed: %v", order.ID, err)
		}
	}
	return nil
}
