package orderforms

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pins-charity/orderforms-backend/pkg/db"
	"github.com/pins-charity/orderforms-backend/pkg/db/models"
	"github.com/pins-charity/orderforms-backend/pkg/enums"
	pkgerrors "github.com/pins-charity/orderforms-backend/pkg/errors"
	"github.com/pins-charity/orderforms-backend/pkg/migrate"
)

func intPtr(v int) *int { return &v }

func newTestService(t *testing.T) Service {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:orderforms_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, migrate.AutoMigrate(conn))
	svc, err := NewService(NewRepository(conn), db.NewFromGorm(conn), nil)
	require.NoError(t, err)
	return svc
}

func calendarForm() *models.OrderForm {
	return &models.OrderForm{
		Title:     "Charity Calendar 2027",
		ToAddress: "shop@example.org",
		Variants: []models.ProductVariant{
			{GroupName: "Calendar", Name: "A4", UnitCost: decimal.RequireFromString("8.50"), ItemCount: 1},
			{GroupName: "Calendar", Name: "A3", UnitCost: decimal.RequireFromString("12"), ItemCount: 2},
		},
		ShippingTiers: []models.ShippingTier{
			{MaxQuantity: intPtr(1), Cost: decimal.RequireFromString("1.50")},
			{Cost: decimal.RequireFromString("3")},
		},
		Vouchers: []models.Voucher{
			{Code: " FRIENDS ", Discount: decimal.NewFromInt(2), Active: true, OneTimeUse: true},
			{Code: "RETIRED", Discount: decimal.NewFromInt(5), Active: false},
		},
	}
}

func TestCreateAssignsSlugsAndDefaults(t *testing.T) {
	svc := newTestService(t)
	form, err := svc.Create(context.Background(), calendarForm())
	require.NoError(t, err)

	assert.Equal(t, "charity-calendar-2027", form.Slug)
	assert.Equal(t, enums.StockAccountingLive, form.StockAccounting)
	require.Len(t, form.Variants, 2)
	assert.Equal(t, "pv__calendar_a4", form.Variants[0].Slug)
	assert.Equal(t, "pv__calendar_a3", form.Variants[1].Slug)
	assert.Equal(t, models.DefaultQuantityChoices, form.Variants[0].QuantityChoices)
	require.Len(t, form.ShippingTiers, 2)
	assert.Nil(t, form.ShippingTiers[1].MaxQuantity)
	require.Len(t, form.Vouchers, 2)
	assert.Equal(t, "FRIENDS", form.Vouchers[0].Code)
	assert.False(t, form.Vouchers[1].Active)
}

func TestUpdateKeepsExistingSlugs(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, calendarForm())
	require.NoError(t, err)

	edit := *created
	edit.Variants = []models.ProductVariant{
		created.Variants[0],
		{GroupName: "Calendar", Name: "A4", UnitCost: decimal.NewFromInt(9), ItemCount: 1},
	}
	edit.Variants[0].Name = "A4 Portrait"
	edit.Variants[0].Slug = "pv__hijacked"
	edit.ShippingTiers = []models.ShippingTier{{Cost: decimal.NewFromInt(4)}}
	edit.Vouchers = created.Vouchers[:1]

	updated, err := svc.Update(ctx, created.ID, &edit)
	require.NoError(t, err)

	require.Len(t, updated.Variants, 2)
	assert.Equal(t, "A4 Portrait", updated.Variants[0].Name)
	assert.Equal(t, "pv__calendar_a4", updated.Variants[0].Slug)
	assert.Equal(t, "pv__calendar_a4_1", updated.Variants[1].Slug)
	require.Len(t, updated.ShippingTiers, 1)
	assert.True(t, updated.ShippingTiers[0].Cost.Equal(decimal.NewFromInt(4)))
	require.Len(t, updated.Vouchers, 1)
}

func TestSaveRejectsMixedScopes(t *testing.T) {
	svc := newTestService(t)
	form := calendarForm()
	form.TotalAvailable = intPtr(100)
	form.Variants[0].VariantTotalAvailable = intPtr(10)

	_, err := svc.Create(context.Background(), form)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConfiguration), "got %v", err)
}

func TestSaveRejectsBadTariff(t *testing.T) {
	svc := newTestService(t)
	form := calendarForm()
	form.ShippingTiers = []models.ShippingTier{
		{MaxQuantity: intPtr(5), Cost: decimal.NewFromInt(1)},
		{MaxQuantity: intPtr(2), Cost: decimal.NewFromInt(2)},
	}

	_, err := svc.Create(context.Background(), form)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConfiguration), "got %v", err)
}

func TestDuplicateSlugIsConflict(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, calendarForm())
	require.NoError(t, err)

	_, err = svc.Create(ctx, calendarForm())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)
}

func TestUpdateRejectsForeignVariant(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, calendarForm())
	require.NoError(t, err)

	edit := *created
	edit.Variants = []models.ProductVariant{{ID: uuid.New(), Name: "Ghost", UnitCost: decimal.NewFromInt(1)}}
	_, err = svc.Update(ctx, created.ID, &edit)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
}

func TestGetMissingFormIsNotFound(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Get(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestGetBySlug(t *testing.T) {
	svc := newTestService(t)
	created, err := svc.Create(context.Background(), calendarForm())
	require.NoError(t, err)

	found, err := svc.GetBySlug(context.Background(), " charity-calendar-2027 ")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Len(t, found.Variants, 2)

	_, err = svc.GetBySlug(context.Background(), "nope")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
