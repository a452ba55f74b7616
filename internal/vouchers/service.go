package vouchers

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pins-charity/orderforms-backend/pkg/db/models"
	pkgerrors "github.com/pins-charity/orderforms-backend/pkg/errors"
	"github.com/pins-charity/orderforms-backend/pkg/logger"
)

// Service resolves codes and retires one-time vouchers once an order is paid.
type Service interface {
	Resolve(ctx context.Context, formID uuid.UUID, code string) (Resolution, error)
	OnPaid(ctx context.Context, tx *gorm.DB, submission *models.OrderSubmission) error
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds the voucher service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "voucher repository is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Resolve(ctx context.Context, formID uuid.UUID, code string) (Resolution, error) {
	if strings.TrimSpace(code) == "" {
		return Resolve("", nil), nil
	}
	active, err := s.repo.ListActive(ctx, formID)
	if err != nil {
		return Resolution{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vouchers")
	}
	return Resolve(code, active), nil
}

// OnPaid deactivates the submission's voucher if it is one-time and still
// active. It does nothing once the submission already has a paid date.
func (s *service) OnPaid(ctx context.Context, tx *gorm.DB, submission *models.OrderSubmission) error {
	if submission == nil || submission.DatePaid != nil {
		return nil
	}
	code := strings.TrimSpace(submission.VoucherCode)
	if code == "" {
		return nil
	}
	repo := s.repo.WithTx(tx)
	voucher, err := repo.FindByCode(ctx, submission.FormID, code)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load voucher")
	}
	if voucher == nil || !voucher.OneTimeUse || !voucher.Active {
		return nil
	}
	if err := repo.Deactivate(ctx, voucher.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate voucher")
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"voucher_code": code, "reference": submission.Reference})
	s.logg.Info(ctx, "voucher.deactivated")
	return nil
}
