package fulfillmentserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	notificationapp "github.com/Apurer/go-order-fulfillment/internal/domains/notifications/application"
	notificationdomain "github.com/Apurer/go-order-fulfillment/internal/domains/notifications/domain"
)

// NotificationAPI exposes the notifier history and ad-hoc sends.
type NotificationAPI struct {
	service *notificationapp.Service
}

func NewNotificationAPI(service *notificationapp.Service) *NotificationAPI {
	return &NotificationAPI{service: service}
}

// NotificationItem is one history entry on the wire.
type NotificationItem struct {
	ID         string    `json:"id"`
	To         []string  `json:"to"`
	Phone      string    `json:"phone,omitempty"`
	Subject    string    `json:"subject"`
	Body       string    `json:"message"`
	Delivery   string    `json:"delivery"`
	Error      string    `json:"error,omitempty"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// Get /api/notifications
func (api *NotificationAPI) ListNotifications(c *gin.Context) {
	items, err := api.service.History(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(items, func(item notificationdomain.Item, _ int) NotificationItem {
		return NotificationItem{
			ID:         item.ID,
			To:         item.To,
			Phone:      item.Phone,
			Subject:    item.Subject,
			Body:       item.Body,
			Delivery:   string(item.Delivery),
			Error:      item.Error,
			ReceivedAt: item.ReceivedAt,
		}
	}))
}

// Post /api/notifications/send
func (api *NotificationAPI) SendNotification(c *gin.Context) {
	var msg notificationdomain.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := api.service.Send(c.Request.Context(), msg); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}
