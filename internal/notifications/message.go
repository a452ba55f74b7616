package notifications

import (
	"fmt"
	"strings"

	"github.com/pins-charity/orderforms-backend/internal/pricing"
	"github.com/pins-charity/orderforms-backend/pkg/db/models"
)

const updatedSuffix = " (UPDATED)"

// Message is a plain text email.
type Message struct {
	To      []string
	ReplyTo []string
	Subject string
	Body    string
}

// Composer renders the order emails.
type Composer struct {
	baseURL        string
	defaultReplyTo string
}

// NewComposer builds a composer. baseURL is the public origin used for order
// links; defaultReplyTo is the reply address on buyer emails.
func NewComposer(baseURL, defaultReplyTo string) Composer {
	return Composer{
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		defaultReplyTo: strings.TrimSpace(defaultReplyTo),
	}
}

// OrderURL is the buyer-facing page for a submission.
func (c Composer) OrderURL(reference string) string {
	return c.baseURL + "/orders/" + reference
}

func subject(form *models.OrderForm, updated bool) string {
	s := form.EmailSubject()
	if updated {
		s += updatedSuffix
	}
	return s
}

// SellerOrder is sent to the form's recipients. It carries no Reply-To; the
// buyer's address is in the body.
func (c Composer) SellerOrder(form *models.OrderForm, sub *models.OrderSubmission, quote pricing.Quote, updated bool) Message {
	var b strings.Builder
	for _, field := range buyerFields(sub) {
		if field.value == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", field.key, field.value)
	}
	if quote.Voucher.Code != "" {
		fmt.Fprintf(&b, "Voucher code: %s\n", quote.Voucher.Code)
	}
	b.WriteString("\n")
	writeSummary(&b, quote)

	return Message{
		To:      form.Recipients(),
		Subject: subject(form, updated),
		Body:    b.String(),
	}
}

// BuyerOrder confirms the order to the buyer with a link back to it.
func (c Composer) BuyerOrder(form *models.OrderForm, sub *models.OrderSubmission, quote pricing.Quote, updated bool) Message {
	var b strings.Builder
	b.WriteString("Thank you for your order!\n\n")
	writeSummary(&b, quote)
	fmt.Fprintf(&b, "\n\nView your order at %s.\n", c.OrderURL(sub.Reference))
	b.WriteString("If you haven't made your payment yet, you'll also find a link there.")

	return Message{
		To:      []string{sub.Email},
		ReplyTo: c.replyTo(),
		Subject: subject(form, updated),
		Body:    b.String(),
	}
}

// PaymentReceived tells the buyer their payment went through.
func (c Composer) PaymentReceived(form *models.OrderForm, sub *models.OrderSubmission) Message {
	body := fmt.Sprintf(
		"Thank you for your payment!\nYou can view your order at %s.\nThank you for supporting us <3.",
		c.OrderURL(sub.Reference),
	)
	return Message{
		To:      []string{sub.Email},
		ReplyTo: c.replyTo(),
		Subject: form.EmailSubject() + ": payment processed",
		Body:    body,
	}
}

func (c Composer) replyTo() []string {
	if c.defaultReplyTo == "" {
		return nil
	}
	return []string{c.defaultReplyTo}
}

type field struct {
	key   string
	value string
}

func buyerFields(sub *models.OrderSubmission) []field {
	return []field{
		{"name", sub.Name},
		{"email_address", sub.Email},
		{"phone", sub.Phone},
		{"address_line_1", sub.AddressLine1},
		{"address_line_2", sub.AddressLine2},
		{"address_line_3", sub.AddressLine3},
		{"city", sub.City},
		{"county", sub.County},
		{"postcode", sub.Postcode},
	}
}

// writeSummary writes the order lines and totals without a trailing newline.
func writeSummary(b *strings.Builder, quote pricing.Quote) {
	b.WriteString("Order summary:\n")
	for _, line := range quote.Items {
		fmt.Fprintf(b, "  - %s (%d)\n", line.Variant.DisplayName(), line.Quantity)
	}
	fmt.Fprintf(b, "\nTotal items ordered: %d\n", quote.TotalUnits)
	if quote.Discount.IsPositive() {
		fmt.Fprintf(b, "Discount: %s\n", pricing.FormatGBP(quote.Discount))
	}
	fmt.Fprintf(b, "Total amount due: %s", pricing.FormatGBP(quote.Total))
}
