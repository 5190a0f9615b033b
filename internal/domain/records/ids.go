package records

import "github.com/google/uuid"

// IDGenerator produces identifiers for documents and guardians.
type IDGenerator func(prefix string) string

// NewID returns prefix_<random uuid>.
func NewID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}
