package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pins-charity/orderforms-backend/pkg/enums"
)

// OrderSubmission is one buyer's order against a form. It keeps its own copy
// of the selection and the price computed when it was placed.
type OrderSubmission struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	FormID       uuid.UUID       `gorm:"column:form_id;type:uuid;not null;index"`
	Reference    string          `gorm:"column:reference;not null;uniqueIndex:idx_order_submissions_reference"`
	Selection    map[string]any  `gorm:"column:selection;type:jsonb;serializer:json"`
	UnitWeights  map[string]int  `gorm:"column:unit_weights;type:jsonb;serializer:json"`
	VoucherCode  string          `gorm:"column:voucher_code;not null;default:''"`
	Name         string          `gorm:"column:name;not null"`
	Email        string          `gorm:"column:email;not null"`
	Phone        string          `gorm:"column:phone;not null;default:''"`
	AddressLine1 string          `gorm:"column:address_line_1;not null;default:''"`
	AddressLine2 string          `gorm:"column:address_line_2;not null;default:''"`
	AddressLine3 string          `gorm:"column:address_line_3;not null;default:''"`
	City         string          `gorm:"column:city;not null;default:''"`
	County       string          `gorm:"column:county;not null;default:''"`
	Postcode     string          `gorm:"column:postcode;not null;default:''"`
	TotalItems   int             `gorm:"column:total_items;not null;default:0"`
	Subtotal     decimal.Decimal `gorm:"column:subtotal;type:numeric(10,2);not null"`
	ShippingCost decimal.Decimal `gorm:"column:shipping_cost;type:numeric(10,2);not null"`
	Discount     decimal.Decimal `gorm:"column:discount;type:numeric(10,2);not null"`
	Cost         decimal.Decimal `gorm:"column:cost;type:numeric(10,2);not null"`
	Paid         bool            `gorm:"column:paid;not null;default:false"`
	Shipped      bool            `gorm:"column:shipped;not null;default:false"`
	DatePaid     *time.Time      `gorm:"column:date_paid"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (OrderSubmission) TableName() string { return "order_submissions" }

func (s *OrderSubmission) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Status derives the display status from the paid and shipped flags.
func (s OrderSubmission) Status() enums.SubmissionStatus {
	return enums.SubmissionStatusFor(s.Paid, s.Shipped)
}
