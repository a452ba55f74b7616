package enums

// SubmissionStatus is the display status derived from paid/shipped flags.
type SubmissionStatus string

const (
	SubmissionStatusPending        SubmissionStatus = "pending"
	SubmissionStatusPaid           SubmissionStatus = "paid"
	SubmissionStatusPaidAndShipped SubmissionStatus = "paid_and_shipped"
)

// SubmissionStatusFor derives the status from the two independent flags. An
// unpaid order reads as pending even if it was shipped first.
func SubmissionStatusFor(paid, shipped bool) SubmissionStatus {
	switch {
	case paid && shipped:
		return SubmissionStatusPaidAndShipped
	case paid:
		return SubmissionStatusPaid
	default:
		return SubmissionStatusPending
	}
}

// String implements fmt.Stringer.
func (s SubmissionStatus) String() string {
	return string(s)
}

// Label is the human-readable status shown to staff and buyers.
func (s SubmissionStatus) Label() string {
	switch s {
	case SubmissionStatusPaid:
		return "Paid"
	case SubmissionStatusPaidAndShipped:
		return "Paid and shipped"
	default:
		return "Payment pending"
	}
}

// Tone is the badge colour used alongside the label.
func (s SubmissionStatus) Tone() string {
	switch s {
	case SubmissionStatusPaid:
		return "primary"
	case SubmissionStatusPaidAndShipped:
		return "success"
	default:
		return "danger"
	}
}
