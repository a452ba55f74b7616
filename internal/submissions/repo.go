package submissions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pins-charity/orderforms-backend/pkg/db/models"
)

// Repository persists order submissions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, sub *models.OrderSubmission) error
	UpdateOrder(ctx context.Context, sub *models.OrderSubmission) error
	UpdateState(ctx context.Context, sub *models.OrderSubmission) error
	FindByReference(ctx context.Context, reference string) (*models.OrderSubmission, error)
	ListByForm(ctx context.Context, formID uuid.UUID) ([]models.OrderSubmission, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a submission repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, sub *models.OrderSubmission) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

var (
	orderColumns = []string{
		"selection", "unit_weights", "voucher_code",
		"name", "email", "phone",
		"address_line_1", "address_line_2", "address_line_3", "city", "county", "postcode",
		"total_items", "subtotal", "shipping_cost", "discount", "cost", "updated_at",
	}
	stateColumns = []string{"paid", "shipped", "date_paid", "updated_at"}
)

// UpdateOrder rewrites the buyer's selection, contact details and price.
func (r *repository) UpdateOrder(ctx context.Context, sub *models.OrderSubmission) error {
	return r.db.WithContext(ctx).Model(sub).Select(orderColumns).Updates(sub).Error
}

// UpdateState writes the paid and shipped flags.
func (r *repository) UpdateState(ctx context.Context, sub *models.OrderSubmission) error {
	return r.db.WithContext(ctx).Model(sub).Select(stateColumns).Updates(sub).Error
}

// FindByReference returns nil without error when nothing matches.
func (r *repository) FindByReference(ctx context.Context, reference string) (*models.OrderSubmission, error) {
	var sub models.OrderSubmission
	err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *repository) ListByForm(ctx context.Context, formID uuid.UUID) ([]models.OrderSubmission, error) {
	var rows []models.OrderSubmission
	err := r.db.WithContext(ctx).
		Where("form_id = ?", formID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}
