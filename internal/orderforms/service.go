package orderforms

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pins-charity/orderforms-backend/internal/catalog"
	"github.com/pins-charity/orderforms-backend/internal/shipping"
	"github.com/pins-charity/orderforms-backend/internal/vouchers"
	"github.com/pins-charity/orderforms-backend/pkg/db"
	"github.com/pins-charity/orderforms-backend/pkg/db/models"
	"github.com/pins-charity/orderforms-backend/pkg/enums"
	pkgerrors "github.com/pins-charity/orderforms-backend/pkg/errors"
	"github.com/pins-charity/orderforms-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages staff-side form configuration.
type Service interface {
	Create(ctx context.Context, form *models.OrderForm) (*models.OrderForm, error)
	Update(ctx context.Context, id uuid.UUID, form *models.OrderForm) (*models.OrderForm, error)
	Get(ctx context.Context, id uuid.UUID) (*models.OrderForm, error)
	GetBySlug(ctx context.Context, slug string) (*models.OrderForm, error)
	List(ctx context.Context) ([]models.OrderForm, error)
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

// NewService builds the form configuration service.
func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "form repository is required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, form *models.OrderForm) (*models.OrderForm, error) {
	if form == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "form is required")
	}
	form.ID = uuid.Nil
	for i := range form.Variants {
		form.Variants[i].ID = uuid.Nil
		form.Variants[i].Slug = ""
	}
	for i := range form.Vouchers {
		form.Vouchers[i].ID = uuid.Nil
	}
	if err := prepare(form); err != nil {
		return nil, err
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, form)
	})
	if err != nil {
		return nil, saveError(err)
	}
	s.logg.Info(s.logg.WithFormID(ctx, form.ID.String()), "order_form.created")
	return s.Get(ctx, form.ID)
}

// Update replaces a form's configuration. Variant slugs already assigned are
// carried over from the stored variants and cannot be changed by the caller.
func (s *service) Update(ctx context.Context, id uuid.UUID, form *models.OrderForm) (*models.OrderForm, error) {
	if form == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "form is required")
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	form.ID = existing.ID

	storedVariants := make(map[uuid.UUID]models.ProductVariant, len(existing.Variants))
	for _, v := range existing.Variants {
		storedVariants[v.ID] = v
	}
	for i := range form.Variants {
		v := &form.Variants[i]
		if v.ID == uuid.Nil {
			v.Slug = ""
			continue
		}
		stored, ok := storedVariants[v.ID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant does not belong to this form").
				WithDetails(map[string]any{"variant_id": v.ID.String()})
		}
		v.Slug = stored.Slug
	}
	storedVouchers := make(map[uuid.UUID]bool, len(existing.Vouchers))
	for _, v := range existing.Vouchers {
		storedVouchers[v.ID] = true
	}
	for _, v := range form.Vouchers {
		if v.ID != uuid.Nil && !storedVouchers[v.ID] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "voucher does not belong to this form").
				WithDetails(map[string]any{"voucher_id": v.ID.String()})
		}
	}

	if err := prepare(form); err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Update(ctx, form)
	})
	if err != nil {
		return nil, saveError(err)
	}
	s.logg.Info(s.logg.WithFormID(ctx, form.ID.String()), "order_form.updated")
	return s.Get(ctx, form.ID)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.OrderForm, error) {
	form, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order form")
	}
	if form == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order form not found")
	}
	return form, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*models.OrderForm, error) {
	form, err := s.repo.FindBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order form")
	}
	if form == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order form not found")
	}
	return form, nil
}

func (s *service) List(ctx context.Context) ([]models.OrderForm, error) {
	forms, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order forms")
	}
	return forms, nil
}

// prepare normalises a form, assigns missing slugs and rejects inconsistent
// configuration.
func prepare(form *models.OrderForm) error {
	form.Title = strings.TrimSpace(form.Title)
	form.Slug = strings.TrimSpace(form.Slug)
	if form.Title == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if form.Slug == "" {
		form.Slug = strings.ReplaceAll(catalog.CleanName(form.Title), "_", "-")
	}
	if form.StockAccounting == "" {
		form.StockAccounting = enums.StockAccountingLive
	}
	if !form.StockAccounting.IsValid() {
		return pkgerrors.New(pkgerrors.CodeConfiguration, "unknown stock accounting mode").
			WithDetails(map[string]any{"stock_accounting": form.StockAccounting})
	}

	for i := range form.Variants {
		v := &form.Variants[i]
		v.Position = i
		v.GroupName = strings.TrimSpace(v.GroupName)
		v.Name = strings.TrimSpace(v.Name)
		if strings.TrimSpace(v.QuantityChoices) == "" {
			v.QuantityChoices = models.DefaultQuantityChoices
		}
		if v.ItemCount == 0 {
			v.ItemCount = 1
		}
	}
	catalog.AssignSlugs(form.Variants)
	if err := catalog.ValidateConfiguration(*form); err != nil {
		return err
	}

	for i := range form.ShippingTiers {
		form.ShippingTiers[i].Position = i
	}
	if _, err := shipping.FromModels(form.ShippingTiers); err != nil {
		return err
	}
	return vouchers.ValidateConfiguration(form.Vouchers)
}

func saveError(err error) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "an order form with this slug already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order form")
}
