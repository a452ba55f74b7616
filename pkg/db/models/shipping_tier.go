package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ShippingTier maps order sizes up to MaxQuantity onto a shipping cost. A nil
// MaxQuantity marks the open-ended tier.
type ShippingTier struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	FormID      uuid.UUID       `gorm:"column:form_id;type:uuid;not null;index"`
	MaxQuantity *int            `gorm:"column:max_quantity"`
	Cost        decimal.Decimal `gorm:"column:cost;type:numeric(10,2);not null"`
	Position    int             `gorm:"column:position;not null;default:0"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (ShippingTier) TableName() string { return "shipping_tiers" }

func (t *ShippingTier) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
