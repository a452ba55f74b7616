package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pins-charity/orderforms-backend/pkg/enums"
)

// OrderForm is a staff-configured multi-product order form. It owns its
// variants, shipping tiers, vouchers and submissions.
type OrderForm struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Slug            string                `gorm:"column:slug;not null;uniqueIndex:idx_order_forms_slug"`
	Title           string                `gorm:"column:title;not null"`
	Subject         string                `gorm:"column:subject;not null;default:''"`
	ToAddress       string                `gorm:"column:to_address;not null;default:''"`
	TotalAvailable  *int                  `gorm:"column:total_available"`
	StockAccounting enums.StockAccounting `gorm:"column:stock_accounting;type:text;not null;default:'live'"`
	Variants        []ProductVariant      `gorm:"foreignKey:FormID;constraint:OnDelete:CASCADE"`
	ShippingTiers   []ShippingTier        `gorm:"foreignKey:FormID;constraint:OnDelete:CASCADE"`
	Vouchers        []Voucher             `gorm:"foreignKey:FormID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (OrderForm) TableName() string { return "order_forms" }

func (f *OrderForm) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// Recipients splits the comma separated seller address list.
func (f OrderForm) Recipients() []string {
	var out []string
	for _, addr := range strings.Split(f.ToAddress, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// EmailSubject falls back to the title when no subject was configured.
func (f OrderForm) EmailSubject() string {
	if s := strings.TrimSpace(f.Subject); s != "" {
		return s
	}
	return f.Title
}
