package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/Apurer/go-order-fulfillment/internal/domains/notifications/domain"
	"github.com/Apurer/go-order-fulfillment/internal/domains/notifications/ports"
)

var _ ports.History = (*History)(nil)

// History persists the notification history in PostgreSQL and trims it to a fixed size.
type History struct {
	db    *gorm.DB
	limit int
}

func NewHistory(db *gorm.DB, limit int) *History {
	if limit <= 0 {
		limit = domain.HistoryLimit
	}
	return &History{db: db, limit: limit}
}

type historyRecord struct {
	Seq        int64          `gorm:"primaryKey;autoIncrement;column:seq"`
	ID         string         `gorm:"column:id;type:uuid;uniqueIndex"`
	Recipients pq.StringArray `gorm:"column:recipients;type:text[]"`
	Phone      string         `gorm:"column:phone"`
	Subject    string         `gorm:"column:subject"`
	Body       string         `gorm:"column:body"`
	Delivery   string         `gorm:"column:delivery;type:varchar(16)"`
	Error      string         `gorm:"column:error"`
	ReceivedAt time.Time      `gorm:"column:received_at;index"`
}

func (historyRecord) TableName() string { return "notification_history" }

// Models lists the notification tables for schema migration.
func Models() []any {
	return []any{&historyRecord{}}
}

func (h *History) Add(ctx context.Context, item domain.Item) error {
	if h == nil || h.db == nil {
		return errors.New("postgres notification history not configured")
	}
	record := historyRecord{
		ID:         item.ID,
		Recipients: pq.StringArray(item.To),
		Phone:      item.Phone,
		Subject:    item.Subject,
		Body:       item.Body,
		Delivery:   string(item.Delivery),
		Error:      item.Error,
		ReceivedAt: item.ReceivedAt,
	}
	return h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		return tx.Exec(
			`DELETE FROM notification_history WHERE seq NOT IN (SELECT seq FROM notification_history ORDER BY seq DESC LIMIT ?)`,
			h.limit,
		).Error
	})
}

func (h *History) List(ctx context.Context) ([]domain.Item, error) {
	if h == nil || h.db == nil {
		return nil, errors.New("postgres notification history not configured")
	}
	var records []historyRecord
	if err := h.db.WithContext(ctx).Order("seq DESC").Limit(h.limit).Find(&records).Error; err != nil {
		return nil, err
	}
	items := make([]domain.Item, 0, len(records))
	for _, r := range records {
		items = append(items, domain.Item{
			ID:         r.ID,
			To:         []string(r.Recipients),
			Phone:      r.Phone,
			Subject:    r.Subject,
			Body:       r.Body,
			Delivery:   domain.DeliveryStatus(r.Delivery),
			Error:      r.Error,
			ReceivedAt: r.ReceivedAt,
		})
	}
	return items, nil
}
