package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Voucher is a discount code scoped to one order form.
type Voucher struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	FormID     uuid.UUID       `gorm:"column:form_id;type:uuid;not null;uniqueIndex:idx_vouchers_form_code,priority:1"`
	Code       string          `gorm:"column:code;not null;uniqueIndex:idx_vouchers_form_code,priority:2"`
	Discount   decimal.Decimal `gorm:"column:discount;type:numeric(10,2);not null"`
	Active     bool            `gorm:"column:active;not null"`
	OneTimeUse bool            `gorm:"column:one_time_use;not null;default:false"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Voucher) TableName() string { return "vouchers" }

func (v *Voucher) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
