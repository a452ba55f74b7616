package vouchers

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pins-charity/orderforms-backend/pkg/db/models"
	pkgerrors "github.com/pins-charity/orderforms-backend/pkg/errors"
)

// Resolution is the outcome of looking up a voucher code. An unknown or
// inactive code resolves to a zero discount with Invalid set.
type Resolution struct {
	Code     string          `json:"code,omitempty"`
	Discount decimal.Decimal `json:"discount"`
	Invalid  bool            `json:"invalid"`
}

// Message is the informational text shown next to an invalid code.
func (r Resolution) Message() string {
	if !r.Invalid {
		return ""
	}
	return "Voucher code " + r.Code + " is not valid; no discount has been applied."
}

// Resolve matches code exactly against the active vouchers of a form.
func Resolve(code string, available []models.Voucher) Resolution {
	code = strings.TrimSpace(code)
	if code == "" {
		return Resolution{Discount: decimal.Zero}
	}
	for _, v := range available {
		if v.Active && v.Code == code {
			return Resolution{Code: code, Discount: v.Discount}
		}
	}
	return Resolution{Code: code, Discount: decimal.Zero, Invalid: true}
}

// ValidateConfiguration checks a form's vouchers before they are saved.
// Codes are trimmed in place.
func ValidateConfiguration(vouchers []models.Voucher) error {
	seen := make(map[string]bool, len(vouchers))
	for i := range vouchers {
		vouchers[i].Code = strings.TrimSpace(vouchers[i].Code)
		code := vouchers[i].Code
		if code == "" {
			return pkgerrors.New(pkgerrors.CodeConfiguration, "voucher code is required")
		}
		if seen[code] {
			return pkgerrors.New(pkgerrors.CodeConfiguration, "voucher codes must be unique").
				WithDetails(map[string]any{"code": code})
		}
		seen[code] = true
		if vouchers[i].Discount.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeConfiguration, "voucher discount cannot be negative").
				WithDetails(map[string]any{"code": code})
		}
	}
	return nil
}
