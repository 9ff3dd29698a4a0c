package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-order-fulfillment/internal/domains/payments/domain"
	"github.com/Apurer/go-order-fulfillment/internal/domains/payments/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists payments in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Models lists the payment tables for schema migration.
func Models() []any {
	return []any{&paymentRecord{}}
}

type paymentRecord struct {
	ID         int64           `gorm:"primaryKey;column:id"`
	OrderID    int64           `gorm:"column:order_id;index"`
	Amount     decimal.Decimal `gorm:"column:amount;type:numeric(14,2)"`
	Method     string          `gorm:"column:method;type:varchar(16)"`
	CardLast4  string          `gorm:"column:card_last4;type:varchar(4)"`
	CardExpiry string          `gorm:"column:card_expiry;type:varchar(8)"`
	OwnerName  string          `gorm:"column:owner_name"`
	Status     string          `gorm:"column:status;type:varchar(16);index"`
	Corrected  bool            `gorm:"column:corrected"`
	CreatedAt  time.Time       `gorm:"column:created_at"`
	UpdatedAt  time.Time       `gorm:"column:updated_at"`
}

func (paymentRecord) TableName() string { return "payments" }

// Save inserts a payment; on an existing id only the status changes. Corrections go through Correct.
func (r *Repository) Save(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, errors.New("payment is nil")
	}
	record := toRecord(payment)
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"status":     record.Status,
				"updated_at": gorm.Expr("NOW()"),
			}),
		}).Create(&record).Error; err != nil {
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record paymentRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// Correct flips the corrected flag with a guarded UPDATE so only one correction lands.
func (r *Repository) Correct(ctx context.Context, id int64, status domain.Status) (*domain.Payment, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	result := r.db.WithContext(ctx).Model(&paymentRecord{}).
		Where("id = ? AND corrected = ?", id, false).
		Updates(map[string]any{
			"status":     string(status),
			"corrected":  true,
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, domain.ErrAlreadyCorrected
	}
	return r.GetByID(ctx, id)
}

func (r *Repository) List(ctx context.Context) ([]*domain.Payment, error) {
	return r.find(ctx, r.db)
}

func (r *Repository) ListByOrder(ctx context.Context, orderID int64) ([]*domain.Payment, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	return r.find(ctx, r.db.Where("order_id = ?", orderID))
}

func (r *Repository) find(ctx context.Context, query *gorm.DB) ([]*domain.Payment, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []paymentRecord
	if err := query.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	payments := make([]*domain.Payment, 0, len(records))
	for i := range records {
		payments = append(payments, records[i].toDomain())
	}
	return payments, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres payment repository not configured")
	}
	return nil
}

func toRecord(p *domain.Payment) paymentRecord {
	return paymentRecord{
		ID:         p.ID,
		OrderID:    p.OrderID,
		Amount:     p.Amount,
		Method:     string(p.Method),
		CardLast4:  p.CardLast4,
		CardExpiry: p.CardExpiry,
		OwnerName:  p.OwnerName,
		Status:     string(p.Status),
		Corrected:  p.Corrected,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func (r paymentRecord) toDomain() *domain.Payment {
	return &domain.Payment{
		ID:         r.ID,
		OrderID:    r.OrderID,
		Amount:     r.Amount,
		Method:     domain.Method(r.Method),
		CardLast4:  r.CardLast4,
		CardExpiry: r.CardExpiry,
		OwnerName:  r.OwnerName,
		Status:     domain.Status(r.Status),
		Corrected:  r.Corrected,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}
