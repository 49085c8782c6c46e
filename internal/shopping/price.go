package shopping

import (
	"encoding/json"
	"strconv"
	"unicode"

	"github.com/tidwall/gjson"
)

// NotAvailable is the placeholder used when a hit carries no price.
const NotAvailable = "N/A"

type priceKind int

const (
	priceNull priceKind = iota
	priceNumber
	priceText
)

// Price is either a numeric amount or the provider's unparsed price text.
type Price struct {
	kind   priceKind
	number float64
	text   string
}

func NumberPrice(v float64) Price { return Price{kind: priceNumber, number: v} }

func TextPrice(s string) Price { return Price{kind: priceText, text: s} }

func priceFromResult(r gjson.Result) Price {
	switch r.Type {
	case gjson.Null:
		return Price{}
	case gjson.Number:
		return NumberPrice(r.Float())
	case gjson.True:
		return NumberPrice(1)
	case gjson.False:
		return NumberPrice(0)
	default:
		return TextPrice(r.String())
	}
}

// Number returns the numeric amount when the price is numeric.
func (p Price) Number() (float64, bool) {
	return p.number, p.kind == priceNumber
}

func (p Price) String() string {
	switch p.kind {
	case priceNumber:
		return strconv.FormatFloat(p.number, 'f', -1, 64)
	case priceText:
		return p.text
	default:
		return ""
	}
}

// Valid reports whether the price is a positive number or text containing
// at least one digit.
func (p Price) Valid() bool {
	switch p.kind {
	case priceNumber:
		return p.number > 0
	case priceText:
		if p.text == "" || p.text == NotAvailable {
			return false
		}
		for _, r := range p.text {
			if unicode.IsDigit(r) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func (p Price) MarshalJSON() ([]byte, error) {
	switch p.kind {
	case priceNumber:
		return json.Marshal(p.number)
	case priceText:
		return json.Marshal(p.text)
	default:
		return []byte("null"), nil
	}
}

// HasValidPrice is the price predicate applied to raw price values.
func HasValidPrice(r gjson.Result) bool {
	if !r.Exists() {
		return false
	}
	return priceFromResult(r).Valid()
}

func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.Number:
		return r.Float() != 0
	case gjson.String:
		return r.Str != ""
	case gjson.JSON:
		return r.Raw != "{}" && r.Raw != "[]"
	default:
		return r.Exists()
	}
}
