package snapshot

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

type RateKind uint8

const (
	RateUnknown RateKind = iota
	RateNumeric
	RateSoldOut
)

func (k RateKind) String() string {
	switch k {
	case RateNumeric:
		return "numeric"
	case RateSoldOut:
		return "sold_out"
	default:
		return "unknown"
	}
}

// Rate is a quoted room rate. A quote is either a number, the sold-out
// sentinel, or something unparseable; only numeric rates take part in
// averages.
type Rate struct {
	Kind  RateKind
	Value float64
}

var (
	SoldOut     = Rate{Kind: RateSoldOut}
	UnknownRate = Rate{Kind: RateUnknown}
)

func NumericRate(v float64) Rate {
	return Rate{Kind: RateNumeric, Value: v}
}

// ParseRate classifies raw spreadsheet text. "Sold Out" matches
// case-insensitively anywhere in the cell; currency symbols and thousands
// separators are ignored for numbers.
func ParseRate(s string) Rate {
	s = strings.TrimSpace(s)
	if s == "" {
		return UnknownRate
	}
	if strings.Contains(strings.ToLower(s), "sold out") {
		return SoldOut
	}
	cleaned := strings.NewReplacer("$", "", ",", "").Replace(s)
	v, err := strconv.ParseFloat(strings.TrimSpace(cleaned), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return UnknownRate
	}
	return NumericRate(v)
}

func (r Rate) IsSoldOut() bool {
	return r.Kind == RateSoldOut
}

// Float returns the numeric value and whether the rate is numeric.
func (r Rate) Float() (float64, bool) {
	if r.Kind != RateNumeric {
		return 0, false
	}
	return r.Value, true
}

func (r Rate) String() string {
	switch r.Kind {
	case RateNumeric:
		return strconv.FormatFloat(r.Value, 'f', -1, 64)
	case RateSoldOut:
		return "Sold Out"
	default:
		return ""
	}
}

// MarshalJSON encodes numeric rates as numbers, sold out as "sold_out" and
// unknown as null.
func (r Rate) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case RateNumeric:
		return json.Marshal(r.Value)
	case RateSoldOut:
		return json.Marshal(RateSoldOut.String())
	default:
		return []byte("null"), nil
	}
}
