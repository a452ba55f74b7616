package submissions

import (
	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
)

// referenceLength is the size of a base57 encoded uuid.
const referenceLength = 22

// NewReference returns a short, unambiguous public order reference derived
// from a random v4 uuid.
func NewReference() string {
	return shortuuid.DefaultEncoder.Encode(uuid.New())
}
