package vouchers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pins-charity/orderforms-backend/pkg/db/models"
)

// Repository persists vouchers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListActive(ctx context.Context, formID uuid.UUID) ([]models.Voucher, error)
	FindByCode(ctx context.Context, formID uuid.UUID, code string) (*models.Voucher, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a voucher repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListActive(ctx context.Context, formID uuid.UUID) ([]models.Voucher, error) {
	var rows []models.Voucher
	err := r.db.WithContext(ctx).
		Where("form_id = ? AND active = ?", formID, true).
		Order("code ASC").
		Find(&rows).Error
	return rows, err
}

// FindByCode returns nil without error when no voucher matches.
func (r *repository) FindByCode(ctx context.Context, formID uuid.UUID, code string) (*models.Voucher, error) {
	var v models.Voucher
	err := r.db.WithContext(ctx).
		Where("form_id = ? AND code = ?", formID, code).
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Voucher{}).
		Where("id = ? AND active = ?", id, true).
		Update("active", false).Error
}
