package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultQuantityChoices mirrors the drop-down offered when staff leave the
// choices blank.
const DefaultQuantityChoices = "0,1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16,17,18,19,20"

// ProductVariant is one purchasable configuration on an order form.
type ProductVariant struct {
	ID                    uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	FormID                uuid.UUID       `gorm:"column:form_id;type:uuid;not null;index;uniqueIndex:idx_product_variants_form_slug,priority:1"`
	GroupName             string          `gorm:"column:group_name;not null;default:''"`
	Name                  string          `gorm:"column:name;not null"`
	Description           string          `gorm:"column:description;not null;default:''"`
	UnitCost              decimal.Decimal `gorm:"column:unit_cost;type:numeric(10,2);not null"`
	ItemCount             int             `gorm:"column:item_count;not null;default:1"`
	QuantityChoices       string          `gorm:"column:quantity_choices;not null"`
	DefaultQuantity       int             `gorm:"column:default_quantity;not null;default:0"`
	Slug                  string          `gorm:"column:slug;not null;uniqueIndex:idx_product_variants_form_slug,priority:2"`
	GroupTotalAvailable   *int            `gorm:"column:group_total_available"`
	VariantTotalAvailable *int            `gorm:"column:variant_total_available"`
	Position              int             `gorm:"column:position;not null;default:0"`
	CreatedAt             time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (ProductVariant) TableName() string { return "product_variants" }

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// DisplayName is the group-qualified name used in summaries and messages.
func (v ProductVariant) DisplayName() string {
	if v.GroupName == "" {
		return v.Name
	}
	return v.GroupName + " - " + v.Name
}
