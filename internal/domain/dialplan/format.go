package dialplan

import (
	"fmt"

	"github.com/jeokrohn/wxc-nanp/internal/domain/errors"
)

// DialFormat describes the digit format a carrier requires on egress for
// one call type: how many trailing digits of the dialed number are sent
// and whether a "1" prefix is prepended.
type DialFormat struct {
	DigitCount int
	Prefix     string
}

func (f DialFormat) String() string {
	if f.Prefix != "" {
		return fmt.Sprintf("%s+%dD", f.Prefix, f.DigitCount)
	}
	return fmt.Sprintf("%dD", f.DigitCount)
}

// CarrierFormatTable is the carrier's published four row table mapping
// each call type to its required egress format. It is configuration, not
// code: carriers in different NPAs publish different tables.
type CarrierFormatTable map[CallType]DialFormat

// DefaultCarrierFormatTable returns the format table published for NPA
// 816: HNPA local 7D, FNPA local 10D, both toll classes 1+10D.
func DefaultCarrierFormatTable() CarrierFormatTable {
	return CarrierFormatTable{
		CallTypeHomeLocal:    {DigitCount: 7},
		CallTypeForeignLocal: {DigitCount: 10},
		CallTypeHomeToll:     {DigitCount: 10, Prefix: "1"},
		CallTypeForeignToll:  {DigitCount: 10, Prefix: "1"},
	}
}

// Validate checks that the table covers all four call types with formats
// the pattern generator can express.
func (t CarrierFormatTable) Validate() error {
	for _, ct := range AllCallTypes {
		f, ok := t[ct]
		if !ok {
			return errors.NewValidationError(errors.CodeInvalidInput,
				fmt.Sprintf("carrier format table is missing call type %s", ct))
		}
		if f.DigitCount != 7 && f.DigitCount != 10 {
			return errors.NewValidationError(errors.CodeInvalidInput,
				fmt.Sprintf("carrier format for %s: digit count must be 7 or 10, got %d", ct, f.DigitCount))
		}
		if f.Prefix != "" && f.Prefix != "1" {
			return errors.NewValidationError(errors.CodeInvalidInput,
				fmt.Sprintf("carrier format for %s: prefix must be empty or \"1\", got %q", ct, f.Prefix))
		}
		if f.DigitCount == 7 && f.Prefix != "" {
			return errors.NewValidationError(errors.CodeInvalidInput,
				fmt.Sprintf("carrier format for %s: 7D format cannot carry a prefix", ct))
		}
	}
	return nil
}
