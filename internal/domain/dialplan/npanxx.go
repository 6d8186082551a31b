package dialplan

import (
	"fmt"
	"regexp"

	"github.com/jeokrohn/wxc-nanp/internal/domain/errors"
)

// NpaNxx represents a validated NANP area code / exchange pair
type NpaNxx struct {
	npa string
	nxx string
}

// NANP codes are three digits, first digit 2-9
var codeRegex = regexp.MustCompile(`^[2-9]\d{2}$`)

// NewNpaNxx creates a new NpaNxx value object with validation
func NewNpaNxx(npa, nxx string) (NpaNxx, error) {
	if !codeRegex.MatchString(npa) {
		return NpaNxx{}, errors.NewValidationError(errors.CodeInvalidInput,
			fmt.Sprintf("invalid NPA '%s': must be three digits, first digit 2-9", npa))
	}
	if !codeRegex.MatchString(nxx) {
		return NpaNxx{}, errors.NewValidationError(errors.CodeInvalidInput,
			fmt.Sprintf("invalid NXX '%s': must be three digits, first digit 2-9", nxx))
	}
	return NpaNxx{npa: npa, nxx: nxx}, nil
}

// MustNewNpaNxx creates an NpaNxx and panics on error (for constants/tests)
func MustNewNpaNxx(npa, nxx string) NpaNxx {
	n, err := NewNpaNxx(npa, nxx)
	if err != nil {
		panic(err)
	}
	return n
}

// Npa returns the three digit area code
func (n NpaNxx) Npa() string {
	return n.npa
}

// Nxx returns the three digit exchange code
func (n NpaNxx) Nxx() string {
	return n.nxx
}

// Prefix5D returns the NPA plus the first two NXX digits. Patterns that
// share a 5D prefix differ only in the trailing NXX digit and can be
// collapsed into a single dial-plan digit class.
func (n NpaNxx) Prefix5D() string {
	return n.npa + n.nxx[:2]
}

// TrailingDigit returns the last digit of the NXX
func (n NpaNxx) TrailingDigit() byte {
	return n.nxx[2]
}

// IsEmpty checks if the value is the zero NpaNxx
func (n NpaNxx) IsEmpty() bool {
	return n.npa == ""
}

// Equal checks if two NpaNxx values are equal
func (n NpaNxx) Equal(other NpaNxx) bool {
	return n.npa == other.npa && n.nxx == other.nxx
}

// String returns the six digit NPA-NXX form
func (n NpaNxx) String() string {
	return n.npa + "-" + n.nxx
}
