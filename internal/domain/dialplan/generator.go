package dialplan

import (
	"sort"
	"strings"
)

// DefaultSteeringPrefix routes rewritten calls to the premises gateway
// over the enterprise dial plan.
const DefaultSteeringPrefix = "90"

// Generate produces the desired translation pattern set for the home
// NPA/NXX. Each non-empty bucket yields one numbered pattern family, one
// member per 5D prefix group in sorted prefix order. Output is a pure
// function of its inputs: repeated runs over unchanged buckets produce
// byte-identical patterns, which is what makes the reconciler's diff
// idempotent.
func Generate(home NpaNxx, buckets Buckets, table CarrierFormatTable, steeringPrefix string, scope Scope) ([]TranslationPattern, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	if steeringPrefix == "" {
		steeringPrefix = DefaultSteeringPrefix
	}

	var patterns []TranslationPattern
	for _, ct := range AllCallTypes {
		recs := buckets[ct]
		if len(recs) == 0 {
			continue
		}
		format := table[ct]

		groups := make(map[string][]byte)
		for _, rec := range recs {
			p5 := rec.NpaNxx.Prefix5D()
			groups[p5] = append(groups[p5], rec.NpaNxx.TrailingDigit())
		}
		prefixes := make([]string, 0, len(groups))
		for p5 := range groups {
			prefixes = append(prefixes, p5)
		}
		sort.Strings(prefixes)

		for i, p5 := range prefixes {
			class := compressTrailingDigits(groups[p5])
			match, replacement := buildExpressions(p5, class, format, steeringPrefix)
			patterns = append(patterns, TranslationPattern{
				Name:               PatternName(home.Npa(), ct, i+1),
				MatchPattern:       match,
				ReplacementPattern: replacement,
				Scope:              scope,
			})
		}
	}
	return patterns, nil
}

// compressTrailingDigits collapses a set of trailing NXX digits into the
// shortest dial-plan digit class: runs of three or more become "a-b",
// adjacent pairs stay literal, and the full 0-9 set becomes "X".
func compressTrailingDigits(digits []byte) string {
	sorted := append([]byte(nil), digits...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	unique := sorted[:0]
	for i, d := range sorted {
		if i == 0 || d != unique[len(unique)-1] {
			unique = append(unique, d)
		}
	}

	var b strings.Builder
	for i := 0; i < len(unique); {
		j := i
		for j+1 < len(unique) && unique[j+1] == unique[j]+1 {
			j++
		}
		switch j - i {
		case 0:
			b.WriteByte(unique[i])
		case 1:
			b.WriteByte(unique[i])
			b.WriteByte(unique[j])
		default:
			b.WriteByte(unique[i])
			b.WriteByte('-')
			b.WriteByte(unique[j])
		}
		i = j + 1
	}

	class := b.String()
	if class == "0-9" {
		return "X"
	}
	return class
}

// buildExpressions assembles the match and replacement expressions for
// one 5D prefix group. Webex presents dialed digits in E.164, so every
// match intercepts +1 plus the group's prefix; the replacement rebuilds
// the carrier egress digits behind the steering prefix.
func buildExpressions(prefix5d, class string, format DialFormat, steeringPrefix string) (match, replacement string) {
	nxx2 := prefix5d[3:]

	var egress string
	switch {
	case len(class) == 1 && class != "X":
		// Single trailing digit: fold it into the literal match so the
		// capture group stays a plain XXXX.
		match = "+1" + prefix5d + class + "(XXXX)"
		if format.DigitCount == 7 {
			egress = nxx2 + class + "$1"
		} else {
			egress = prefix5d + class + "$1"
		}
	case class == "X":
		match = "+1" + prefix5d + "(XXXXX)"
		if format.DigitCount == 7 {
			egress = nxx2 + "$1"
		} else {
			egress = prefix5d + "$1"
		}
	default:
		match = "+1" + prefix5d + "([" + class + "]XXXX)"
		if format.DigitCount == 7 {
			egress = nxx2 + "$1"
		} else {
			egress = prefix5d + "$1"
		}
	}

	return match, steeringPrefix + format.Prefix + egress
}
