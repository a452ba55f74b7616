package validators

import (
	"strings"

	pkgerrors "github.com/pins-charity/orderforms-backend/pkg/errors"
)

const maxReferenceLen = 64

// SanitizeReference trims a submission reference and rejects anything that
// could not have been issued, so junk never reaches the database.
func SanitizeReference(input string) (string, error) {
	ref := strings.TrimSpace(input)
	if ref == "" || len(ref) > maxReferenceLen {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid order reference")
	}
	for _, c := range ref {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '-' || c == '_') {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid order reference")
		}
	}
	return ref, nil
}
