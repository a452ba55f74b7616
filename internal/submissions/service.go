package submissions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/pins-charity/orderforms-backend/internal/catalog"
	"github.com/pins-charity/orderforms-backend/internal/pricing"
	"github.com/pins-charity/orderforms-backend/internal/shipping"
	"github.com/pins-charity/orderforms-backend/internal/stock"
	"github.com/pins-charity/orderforms-backend/pkg/db/models"
	"github.com/pins-charity/orderforms-backend/pkg/enums"
	pkgerrors "github.com/pins-charity/orderforms-backend/pkg/errors"
	"github.com/pins-charity/orderforms-backend/pkg/logger"
	"github.com/pins-charity/orderforms-backend/pkg/metrics"
)

// Service validates, prices, stores and transitions order submissions.
type Service interface {
	ComputeTotal(ctx context.Context, formID uuid.UUID, sel catalog.Selection, voucherCode string) (pricing.Quote, error)
	Validate(ctx context.Context, formID uuid.UUID, sel catalog.Selection, excludeReference string) (stock.Result, error)
	Availability(ctx context.Context, formID uuid.UUID) (Availability, error)
	Submit(ctx context.Context, formID uuid.UUID, input SubmitInput) (*SubmitResult, error)
	Get(ctx context.Context, reference string) (*models.OrderSubmission, error)
	MarkPaid(ctx context.Context, reference, source string) (*models.OrderSubmission, error)
	MarkShipped(ctx context.Context, reference string) (*models.OrderSubmission, error)
	Reset(ctx context.Context, reference string) (*models.OrderSubmission, error)
	Apply(ctx context.Context, action enums.BulkAction, references []string) error
	ExportRows(ctx context.Context, formID uuid.UUID, paidOnly bool) (*Export, error)
}

// ServiceParams groups dependencies for the submission service.
type ServiceParams struct {
	Repo     Repository
	Forms    FormLoader
	Vouchers VoucherLedger
	Notifier Notifier
	Tx       txRunner
	Locker   FormLocker
	Metrics  *metrics.OrderMetrics
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	repo     Repository
	forms    FormLoader
	vouchers VoucherLedger
	notifier Notifier
	tx       txRunner
	locker   FormLocker
	metrics  *metrics.OrderMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds a submission service with the required dependencies.
// Locker is optional; without it concurrent submissions are not serialised.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "submission repository is required")
	}
	if params.Forms == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "form loader is required")
	}
	if params.Vouchers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "voucher ledger is required")
	}
	if params.Notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notifier is required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:     params.Repo,
		forms:    params.Forms,
		vouchers: params.Vouchers,
		notifier: params.Notifier,
		tx:       params.Tx,
		locker:   params.Locker,
		metrics:  params.Metrics,
		logg:     logg,
		now:      now,
	}, nil
}

// ComputeTotal prices a selection without validating or storing it.
func (s *service) ComputeTotal(ctx context.Context, formID uuid.UUID, sel catalog.Selection, voucherCode string) (pricing.Quote, error) {
	form, tariff, err := s.loadForm(ctx, formID)
	if err != nil {
		return pricing.Quote{}, err
	}
	resolution, err := s.vouchers.Resolve(ctx, form.ID, voucherCode)
	if err != nil {
		return pricing.Quote{}, err
	}
	return pricing.Compute(catalog.New(*form), tariff, resolution, sel), nil
}

func (s *service) Validate(ctx context.Context, formID uuid.UUID, sel catalog.Selection, excludeReference string) (stock.Result, error) {
	form, _, err := s.loadForm(ctx, formID)
	if err != nil {
		return stock.Result{}, err
	}
	cat := catalog.New(*form)
	if err := cat.CheckChoices(sel); err != nil {
		typed := pkgerrors.As(err)
		if typed != nil && typed.Code() == pkgerrors.CodeValidation {
			return stock.Result{Message: typed.Message()}, nil
		}
		return stock.Result{}, err
	}
	history, err := s.repo.ListByForm(ctx, form.ID)
	if err != nil {
		return stock.Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list submissions")
	}
	exclude := ""
	if editing := editableSubmission(history, excludeReference); editing != nil {
		exclude = editing.Reference
	}
	return stock.NewLedger(cat, form.StockAccounting, history).Validate(sel, exclude), nil
}

// editableSubmission finds reference among a form's submissions as long as it
// is still unpaid. Paid orders keep counting against stock.
func editableSubmission(history []models.OrderSubmission, reference string) *models.OrderSubmission {
	if reference == "" {
		return nil
	}
	for i := range history {
		if history[i].Reference == reference && !history[i].Paid {
			return &history[i]
		}
	}
	return nil
}

func (s *service) Availability(ctx context.Context, formID uuid.UUID) (Availability, error) {
	form, tariff, err := s.loadForm(ctx, formID)
	if err != nil {
		return Availability{}, err
	}
	history, err := s.repo.ListByForm(ctx, form.ID)
	if err != nil {
		return Availability{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list submissions")
	}
	ledger := stock.NewLedger(catalog.New(*form), form.StockAccounting, history)
	return Availability{
		SoldOut:            ledger.IsSoldOut(),
		DisallowedVariants: ledger.DisallowedVariants(),
		Usage:              ledger.QuantityOrdered(""),
		ShippingLabels:     tariff.Labels(),
	}, nil
}

// Submit validates and prices a selection, then stores it. When the editing
// reference names an unpaid submission of the same form that submission is
// updated in place. Notification failures are returned together with the
// stored result.
func (s *service) Submit(ctx context.Context, formID uuid.UUID, input SubmitInput) (*SubmitResult, error) {
	started := s.now()
	defer func() { s.metrics.ObserveSubmit(s.now().Sub(started)) }()

	ctx = s.logg.WithFormID(ctx, formID.String())
	form, tariff, err := s.loadForm(ctx, formID)
	if err != nil {
		s.metrics.IncSubmission(metrics.OutcomeFailed)
		return nil, err
	}
	buyer := input.Buyer.normalized()
	if buyer.Name == "" || buyer.Email == "" {
		s.metrics.IncSubmission(metrics.OutcomeRejected)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and email are required")
	}
	cat := catalog.New(*form)
	if err := cat.CheckChoices(input.Selection); err != nil {
		s.metrics.IncSubmission(metrics.OutcomeRejected)
		return nil, err
	}
	resolution, err := s.vouchers.Resolve(ctx, form.ID, input.VoucherCode)
	if err != nil {
		s.metrics.IncSubmission(metrics.OutcomeFailed)
		return nil, err
	}

	if s.locker != nil {
		release, err := s.locker.Lock(ctx, form.ID)
		if err != nil {
			s.metrics.IncSubmission(metrics.OutcomeFailed)
			return nil, err
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.logg.Error(ctx, "submission.lock_release_failed", err)
			}
		}()
	}

	var result *SubmitResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		history, err := repo.ListByForm(ctx, form.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list submissions")
		}

		editing := editableSubmission(history, input.EditingReference)
		exclude := ""
		if editing != nil {
			exclude = editing.Reference
		}

		check := stock.NewLedger(cat, form.StockAccounting, history).Validate(input.Selection, exclude)
		if !check.OK {
			return pkgerrors.New(pkgerrors.CodeValidation, check.Message).
				WithDetails(map[string]any{"scope": check.Scope, "name": check.Name})
		}

		quote := pricing.Compute(cat, tariff, resolution, input.Selection)
		sub := editing
		if sub == nil {
			sub = &models.OrderSubmission{FormID: form.ID, Reference: NewReference()}
		}
		applyOrder(sub, cat, input, buyer, quote)

		if editing != nil {
			err = repo.UpdateOrder(ctx, sub)
		} else {
			err = repo.Create(ctx, sub)
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save submission")
		}
		result = &SubmitResult{Submission: sub, Quote: quote, Updated: editing != nil}
		return nil
	})
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			s.metrics.IncSubmission(metrics.OutcomeRejected)
		} else {
			s.metrics.IncSubmission(metrics.OutcomeFailed)
		}
		return nil, err
	}

	if result.Updated {
		s.metrics.IncSubmission(metrics.OutcomeUpdated)
	} else {
		s.metrics.IncSubmission(metrics.OutcomeCreated)
	}
	ctx = s.logg.WithReference(ctx, result.Submission.Reference)
	s.logg.Info(s.logg.WithField(ctx, "updated", result.Updated), "submission.saved")

	if err := s.notifier.OrderPlaced(ctx, form, result.Submission, result.Quote, result.Updated); err != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order saved but the confirmation email could not be sent").
			WithDetails(map[string]any{"reference": result.Submission.Reference})
	}
	return result, nil
}

func applyOrder(sub *models.OrderSubmission, cat *catalog.Catalog, input SubmitInput, buyer Buyer, quote pricing.Quote) {
	selection := make(map[string]any, len(cat.Variants()))
	weights := make(map[string]int, len(cat.Variants()))
	for _, v := range cat.Variants() {
		selection[v.Slug] = input.Selection.Quantity(v.Slug)
		weights[v.Slug] = v.ItemCount
	}
	sub.Selection = selection
	sub.UnitWeights = weights
	sub.VoucherCode = quote.Voucher.Code
	sub.Name = buyer.Name
	sub.Email = buyer.Email
	sub.Phone = buyer.Phone
	sub.AddressLine1 = buyer.AddressLine1
	sub.AddressLine2 = buyer.AddressLine2
	sub.AddressLine3 = buyer.AddressLine3
	sub.City = buyer.City
	sub.County = buyer.County
	sub.Postcode = buyer.Postcode
	sub.TotalItems = quote.TotalUnits
	sub.Subtotal = quote.Subtotal
	sub.ShippingCost = quote.Shipping
	sub.Discount = quote.Discount
	sub.Cost = quote.Total
}

func (s *service) Get(ctx context.Context, reference string) (*models.OrderSubmission, error) {
	sub, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load submission")
	}
	if sub == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "submission not found")
	}
	return sub, nil
}

// MarkPaid flags a submission as paid. The first time, the paid date is set
// and a one-time voucher on the order is retired; later calls change nothing.
func (s *service) MarkPaid(ctx context.Context, reference, source string) (*models.OrderSubmission, error) {
	var out *models.OrderSubmission
	first := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		sub, err := s.findForUpdate(ctx, repo, reference)
		if err != nil {
			return err
		}
		out = sub
		if sub.Paid && sub.DatePaid != nil {
			return nil
		}
		if sub.DatePaid == nil {
			first = true
			if err := s.vouchers.OnPaid(ctx, tx, sub); err != nil {
				return err
			}
			paidAt := s.now().UTC()
			sub.DatePaid = &paidAt
		}
		sub.Paid = true
		if err := repo.UpdateState(ctx, sub); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark submission paid")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if first {
		s.metrics.IncPayment(source)
		s.logg.Info(s.logg.WithField(s.logg.WithReference(ctx, reference), "source", source), "submission.paid")
	}
	return out, nil
}

func (s *service) MarkShipped(ctx context.Context, reference string) (*models.OrderSubmission, error) {
	return s.transition(ctx, reference, func(sub *models.OrderSubmission) bool {
		if sub.Shipped {
			return false
		}
		sub.Shipped = true
		return true
	})
}

// Reset returns a submission to unpaid and unshipped. The paid date is kept
// so vouchers are never retired twice.
func (s *service) Reset(ctx context.Context, reference string) (*models.OrderSubmission, error) {
	return s.transition(ctx, reference, func(sub *models.OrderSubmission) bool {
		if !sub.Paid && !sub.Shipped {
			return false
		}
		sub.Paid = false
		sub.Shipped = false
		return true
	})
}

func (s *service) transition(ctx context.Context, reference string, mutate func(*models.OrderSubmission) bool) (*models.OrderSubmission, error) {
	var out *models.OrderSubmission
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		sub, err := s.findForUpdate(ctx, repo, reference)
		if err != nil {
			return err
		}
		out = sub
		if !mutate(sub) {
			return nil
		}
		if err := repo.UpdateState(ctx, sub); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update submission")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) findForUpdate(ctx context.Context, repo Repository, reference string) (*models.OrderSubmission, error) {
	sub, err := repo.FindByReference(ctx, reference)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load submission")
	}
	if sub == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "submission not found").
			WithDetails(map[string]any{"reference": reference})
	}
	return sub, nil
}

// Apply runs a bulk admin action, continuing past failures and returning
// them combined.
func (s *service) Apply(ctx context.Context, action enums.BulkAction, references []string) error {
	if !action.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown action").WithDetails(map[string]any{"action": action})
	}
	var errs error
	for _, ref := range references {
		var err error
		switch action {
		case enums.BulkActionMarkPaid:
			_, err = s.MarkPaid(ctx, ref, SourceAdmin)
		case enums.BulkActionMarkShipped:
			_, err = s.MarkShipped(ctx, ref)
		case enums.BulkActionMarkPaidAndShipped:
			if _, err = s.MarkPaid(ctx, ref, SourceAdmin); err == nil {
				_, err = s.MarkShipped(ctx, ref)
			}
		case enums.BulkActionReset:
			_, err = s.Reset(ctx, ref)
		}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", ref, err))
		}
	}
	return errs
}

func (s *service) loadForm(ctx context.Context, formID uuid.UUID) (*models.OrderForm, shipping.Tariff, error) {
	form, err := s.forms.Get(ctx, formID)
	if err != nil {
		return nil, shipping.Tariff{}, err
	}
	tariff, err := shipping.FromModels(form.ShippingTiers)
	if err != nil {
		return nil, shipping.Tariff{}, err
	}
	return form, tariff, nil
}
