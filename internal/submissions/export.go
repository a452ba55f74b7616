package submissions

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pins-charity/orderforms-backend/internal/catalog"
	"github.com/pins-charity/orderforms-backend/pkg/db/models"
	pkgerrors "github.com/pins-charity/orderforms-backend/pkg/errors"
)

// postageWeightPerItem is the packed weight in kilograms of one item.
var postageWeightPerItem = decimal.RequireFromString("0.7")

// ExportColumn is one variant column of an export.
type ExportColumn struct {
	Slug  string `json:"slug"`
	Label string `json:"label"`
}

// ExportRow is one submission flattened for reporting.
type ExportRow struct {
	Reference    string          `json:"reference"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone"`
	AddressLine1 string          `json:"address_line_1"`
	AddressLine2 string          `json:"address_line_2"`
	AddressLine3 string          `json:"address_line_3"`
	City         string          `json:"city"`
	County       string          `json:"county"`
	Postcode     string          `json:"postcode"`
	Quantities   []int           `json:"quantities"`
	TotalItems   int             `json:"total_items"`
	Total        decimal.Decimal `json:"total"`
	Paid         bool            `json:"paid"`
	Shipped      bool            `json:"shipped"`
	Status       string          `json:"status"`
	SubmittedAt  time.Time       `json:"submitted_at"`
}

// Export is a form's submissions with one quantity column per variant.
type Export struct {
	Form    string         `json:"form"`
	Columns []ExportColumn `json:"columns"`
	Rows    []ExportRow    `json:"rows"`
}

// ExportRows flattens every submission of a form. Quantities follow the
// current variant order; slugs of deleted variants are not exported.
func (s *service) ExportRows(ctx context.Context, formID uuid.UUID, paidOnly bool) (*Export, error) {
	form, err := s.forms.Get(ctx, formID)
	if err != nil {
		return nil, err
	}
	history, err := s.repo.ListByForm(ctx, form.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list submissions")
	}
	return BuildExport(form, history, paidOnly), nil
}

// BuildExport turns stored submissions into export rows.
func BuildExport(form *models.OrderForm, history []models.OrderSubmission, paidOnly bool) *Export {
	cat := catalog.New(*form)
	out := &Export{Form: form.Title}
	for _, v := range cat.Variants() {
		out.Columns = append(out.Columns, ExportColumn{Slug: v.Slug, Label: v.DisplayName()})
	}
	for _, sub := range history {
		if paidOnly && !sub.Paid {
			continue
		}
		sel := catalog.DecodeStoredSelection(sub.Selection)
		quantities := make([]int, 0, len(out.Columns))
		for _, col := range out.Columns {
			quantities = append(quantities, sel.Quantity(col.Slug))
		}
		out.Rows = append(out.Rows, ExportRow{
			Reference:    sub.Reference,
			Name:         sub.Name,
			Email:        sub.Email,
			Phone:        sub.Phone,
			AddressLine1: sub.AddressLine1,
			AddressLine2: sub.AddressLine2,
			AddressLine3: sub.AddressLine3,
			City:         sub.City,
			County:       sub.County,
			Postcode:     sub.Postcode,
			Quantities:   quantities,
			TotalItems:   sub.TotalItems,
			Total:        sub.Cost,
			Paid:         sub.Paid,
			Shipped:      sub.Shipped,
			Status:       sub.Status().Label(),
			SubmittedAt:  sub.CreatedAt,
		})
	}
	return out
}

// WriteCSV writes the full export with a header row.
func (e *Export) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := []string{"Reference", "Name", "Email", "Phone", "Address line 1", "Address line 2", "Address line 3", "City", "County", "Postcode"}
	for _, col := range e.Columns {
		header = append(header, col.Label)
	}
	header = append(header, "Total items", "Total (£)", "Status", "Submission date")
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range e.Rows {
		record := []string{row.Reference, row.Name, row.Email, row.Phone, row.AddressLine1, row.AddressLine2, row.AddressLine3, row.City, row.County, row.Postcode}
		for _, qty := range row.Quantities {
			record = append(record, strconv.Itoa(qty))
		}
		record = append(record,
			strconv.Itoa(row.TotalItems),
			row.Total.StringFixed(2),
			row.Status,
			row.SubmittedAt.Format(time.DateOnly),
		)
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePostageCSV writes the shipping label import for rows with items.
func (e *Export) WritePostageCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := []string{"Name", "Email", "Address line 1", "Address line 2", "Address line 3", "City", "County", "Postcode", "Submission date", "Reference", "Total items", "Weight"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range e.Rows {
		if row.TotalItems == 0 {
			continue
		}
		weight := postageWeightPerItem.Mul(decimal.NewFromInt(int64(row.TotalItems)))
		record := []string{
			row.Name, row.Email,
			row.AddressLine1, row.AddressLine2, row.AddressLine3,
			row.City, row.County, row.Postcode,
			row.SubmittedAt.Format("20060102"),
			row.Reference,
			strconv.Itoa(row.TotalItems),
			weight.StringFixed(1),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
