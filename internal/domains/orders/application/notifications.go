package application

import (
	"fmt"

	"github.com/samber/lo"

	notificationdomain "github.com/Apurer/go-order-fulfillment/internal/domains/notifications/domain"
	"github.com/Apurer/go-order-fulfillment/internal/domains/orders/domain"
)

var statusMessages = map[domain.Status]string{
	domain.StatusPaid:          "Order #%d has been paid.",
	domain.StatusConfirmed:     "Order #%d has been confirmed.",
	domain.StatusShipped:       "Order #%d has been shipped.",
	domain.StatusDelivered:     "Order #%d has been delivered.",
	domain.StatusCanceled:      "Order #%d has been canceled.",
	domain.StatusPaymentFailed: "Payment for order #%d failed.",
	domain.StatusFailed:        "Order #%d could not be processed.",
}

// StatusMessage is the notification body sent when an order moves to status.
func StatusMessage(id int64, status domain.Status) string {
	if tmpl, ok := statusMessages[status]; ok {
		return fmt.Sprintf(tmpl, id)
	}
	return fmt.Sprintf("Order #%d is now %s.", id, status)
}

func (s *Service) recipients(customer domain.Customer) []string {
	return lo.Uniq(lo.Compact(append([]string{customer.Email}, s.opsRecipients...)))
}

func (s *Service) creationMessage(order *domain.Order, customer domain.Customer, cause error) notificationdomain.Message {
	msg := notificationdomain.Message{
		To:      s.recipients(customer),
		Phone:   customer.Phone,
		Subject: fmt.Sprintf("Order #%d %s", order.ID, order.Status),
	}
	switch order.Status {
	case domain.StatusPaid:
		msg.Body = fmt.Sprintf("Order #%d paid: %d x product #%d, total %s.",
			order.ID, order.Quantity, order.ProductID, order.TotalPrice.StringFixed(2))
	case domain.StatusPaymentFailed:
		reason := "payment declined"
		if cause != nil {
			reason = cause.Error()
		}
		msg.Body = fmt.Sprintf("Payment for order #%d (total %s) failed: %s.",
			order.ID, order.TotalPrice.StringFixed(2), reason)
	default:
		msg.Body = fmt.Sprintf("Your order #%d has been created successfully! Total %s.",
			order.ID, order.TotalPrice.StringFixed(2))
	}
	return msg
}

func (s *Service) statusMessage(order *domain.Order, customer domain.Customer) notificationdomain.Message {
	return notificationdomain.Message{
		To:      s.recipients(customer),
		Phone:   customer.Phone,
		Subject: fmt.Sprintf("Order #%d %s", order.ID, order.Status),
		Body:    StatusMessage(order.ID, order.Status),
	}
}
