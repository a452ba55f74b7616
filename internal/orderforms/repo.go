package orderforms

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pins-charity/orderforms-backend/pkg/db/models"
)

// Repository persists order forms together with their variants, tiers and
// vouchers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, form *models.OrderForm) error
	Update(ctx context.Context, form *models.OrderForm) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.OrderForm, error)
	FindBySlug(ctx context.Context, slug string) (*models.OrderForm, error)
	List(ctx context.Context) ([]models.OrderForm, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a form repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, form *models.OrderForm) error {
	return r.db.WithContext(ctx).Create(form).Error
}

// Update rewrites the form row and reconciles its children. Variants and
// vouchers keep their ids; tiers are replaced wholesale. Variant slugs are
// never rewritten.
func (r *repository) Update(ctx context.Context, form *models.OrderForm) error {
	db := r.db.WithContext(ctx)

	err := db.Model(&models.OrderForm{}).
		Where("id = ?", form.ID).
		Updates(map[string]any{
			"slug":             form.Slug,
			"title":            form.Title,
			"subject":          form.Subject,
			"to_address":       form.ToAddress,
			"total_available":  form.TotalAvailable,
			"stock_accounting": form.StockAccounting,
		}).Error
	if err != nil {
		return err
	}

	if err := r.syncVariants(db, form); err != nil {
		return err
	}
	if err := r.syncTiers(db, form); err != nil {
		return err
	}
	return r.syncVouchers(db, form)
}

func (r *repository) syncVariants(db *gorm.DB, form *models.OrderForm) error {
	keep := make([]uuid.UUID, 0, len(form.Variants))
	for _, v := range form.Variants {
		if v.ID != uuid.Nil {
			keep = append(keep, v.ID)
		}
	}
	if err := deleteMissing(db, &models.ProductVariant{}, form.ID, keep); err != nil {
		return err
	}

	for i := range form.Variants {
		v := &form.Variants[i]
		v.FormID = form.ID
		if v.ID == uuid.Nil {
			if err := db.Create(v).Error; err != nil {
				return err
			}
			continue
		}
		err := db.Model(&models.ProductVariant{}).
			Where("id = ? AND form_id = ?", v.ID, form.ID).
			Updates(map[string]any{
				"group_name":              v.GroupName,
				"name":                    v.Name,
				"description":             v.Description,
				"unit_cost":               v.UnitCost,
				"item_count":              v.ItemCount,
				"quantity_choices":        v.QuantityChoices,
				"default_quantity":        v.DefaultQuantity,
				"group_total_available":   v.GroupTotalAvailable,
				"variant_total_available": v.VariantTotalAvailable,
				"position":                v.Position,
			}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) syncTiers(db *gorm.DB, form *models.OrderForm) error {
	if err := db.Where("form_id = ?", form.ID).Delete(&models.ShippingTier{}).Error; err != nil {
		return err
	}
	for i := range form.ShippingTiers {
		t := &form.ShippingTiers[i]
		t.ID = uuid.Nil
		t.FormID = form.ID
		if err := db.Create(t).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) syncVouchers(db *gorm.DB, form *models.OrderForm) error {
	keep := make([]uuid.UUID, 0, len(form.Vouchers))
	for _, v := range form.Vouchers {
		if v.ID != uuid.Nil {
			keep = append(keep, v.ID)
		}
	}
	if err := deleteMissing(db, &models.Voucher{}, form.ID, keep); err != nil {
		return err
	}
	for i := range form.Vouchers {
		v := &form.Vouchers[i]
		v.FormID = form.ID
		if v.ID == uuid.Nil {
			if err := db.Create(v).Error; err != nil {
				return err
			}
			continue
		}
		err := db.Model(&models.Voucher{}).
			Where("id = ? AND form_id = ?", v.ID, form.ID).
			Updates(map[string]any{
				"code":         v.Code,
				"discount":     v.Discount,
				"active":       v.Active,
				"one_time_use": v.OneTimeUse,
			}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func deleteMissing(db *gorm.DB, model any, formID uuid.UUID, keep []uuid.UUID) error {
	q := db.Where("form_id = ?", formID)
	if len(keep) > 0 {
		q = q.Where("id NOT IN ?", keep)
	}
	return q.Delete(model).Error
}

func (r *repository) preloaded() *gorm.DB {
	return r.db.
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("ShippingTiers", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Vouchers", func(db *gorm.DB) *gorm.DB { return db.Order("code ASC") })
}

// FindByID returns nil without error when the form does not exist.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.OrderForm, error) {
	var form models.OrderForm
	err := r.preloaded().WithContext(ctx).Where("id = ?", id).First(&form).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &form, nil
}

// FindBySlug returns nil without error when the form does not exist.
func (r *repository) FindBySlug(ctx context.Context, slug string) (*models.OrderForm, error) {
	var form models.OrderForm
	err := r.preloaded().WithContext(ctx).Where("slug = ?", slug).First(&form).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &form, nil
}

func (r *repository) List(ctx context.Context) ([]models.OrderForm, error) {
	var forms []models.OrderForm
	err := r.db.WithContext(ctx).Order("title ASC").Find(&forms).Error
	return forms, err
}
