package dialplan

import (
	"github.com/jeokrohn/wxc-nanp/internal/domain/errors"
)

// LocalityRecord is one destination exchange in the local calling area of
// the home NPA/NXX, as reported by the locality data source.
type LocalityRecord struct {
	NpaNxx NpaNxx
	IsToll bool
}

// Buckets holds the locality records partitioned by call type. All four
// keys are always present; a call type with no destinations maps to an
// empty slice.
type Buckets map[CallType][]LocalityRecord

// Records returns the bucket for a call type
func (b Buckets) Records(ct CallType) []LocalityRecord {
	return b[ct]
}

// Total returns the number of records across all buckets
func (b Buckets) Total() int {
	n := 0
	for _, recs := range b {
		n += len(recs)
	}
	return n
}

// Classify partitions locality records into the four call type buckets.
// Pure function: no record is dropped and every record lands in exactly
// one bucket. An empty record set indicates the data source returned
// nothing usable and is rejected before any remote work happens.
func Classify(home NpaNxx, records []LocalityRecord) (Buckets, error) {
	if home.IsEmpty() {
		return nil, errors.NewValidationError(errors.CodeInvalidInput,
			"home NPA/NXX is required for classification")
	}
	if len(records) == 0 {
		return nil, errors.NewValidationError(errors.CodeEmptyLocalityData,
			"locality data source returned no exchanges for "+home.String())
	}

	buckets := Buckets{}
	for _, ct := range AllCallTypes {
		buckets[ct] = []LocalityRecord{}
	}
	for _, rec := range records {
		ct := CallTypeFor(home.Npa(), rec)
		buckets[ct] = append(buckets[ct], rec)
	}
	return buckets, nil
}
