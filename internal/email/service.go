package email

import (
	"fmt"
	"net/smtp"
)

// Service sends owner-facing order mails via SMTP.
type Service struct {
	host string
	port string
	from string
}

func NewService(host, port, from string) *Service {
	return &Service{host: host, port: port, from: from}
}

// SendOrderNotification sends the basic new-order mail.
func (s *Service) SendOrderNotification(to, orderID string, total int) error {
	subject := fmt.Sprintf("طلب جديد رقم %s", shortID(orderID))
	body := BuildOrderBody(orderID, total, nil, "")
	return s.send(to, subject, body)
}

// SendEnhancedOrderNotification includes line items and customer details.
func (s *Service) SendEnhancedOrderNotification(to, orderID string, total int, items []OrderItem, customer string) error {
	subject := fmt.Sprintf("طلب جديد رقم %s - تفاصيل كاملة", shortID(orderID))
	body := BuildOrderBody(orderID, total, items, customer)
	return s.send(to, subject, body)
}

func shortID(orderID string) string {
	if len(orderID) > 8 {
		return orderID[:8]
	}
	return orderID
}

func (s *Service) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, nil, s.from, []string{to}, []byte(msg))
}
