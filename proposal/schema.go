package proposal

import (
	"reflect"

	"github.com/gaborage/go-proposals/validation"
)

// FieldSpec describes one field of the request schema.
type FieldSpec = validation.FieldSpec

// Describe returns the machine-readable schema of ProposalRequest in
// declaration order.
func Describe() []FieldSpec {
	return validation.Describe(reflect.TypeOf(ProposalRequest{}))
}
