package shopping

import (
	"strings"

	"github.com/tidwall/gjson"
)

const defaultTitle = "Unknown Product"

// Product is one listing returned to clients.
type Product struct {
	Title     string `json:"title"`
	Price     Price  `json:"price"`
	Currency  string `json:"currency,omitempty"`
	Thumbnail string `json:"thumbnail"`
	Link      string `json:"link"`
	Source    string `json:"source"`
}

// Candidate is a product still carrying its ranking flag.
type Candidate struct {
	Product
	HasValidPrice bool
}

// ParseCandidate normalizes one raw search hit. Price may be an object
// ({extracted_value, value, currency}) or a bare scalar.
func ParseCandidate(hit gjson.Result) Candidate {
	title := defaultTitle
	if t := hit.Get("title"); t.Exists() {
		title = t.String()
	}

	thumbnail := hit.Get("thumbnail").String()
	if thumbnail == "" {
		thumbnail = hit.Get("image").String()
	}

	price, currency := parsePrice(hit.Get("price"))

	return Candidate{
		Product: Product{
			Title:     title,
			Price:     price,
			Currency:  currency,
			Thumbnail: thumbnail,
			Link:      hit.Get("link").String(),
			Source:    hit.Get("source").String(),
		},
		HasValidPrice: price.Valid(),
	}
}

func parsePrice(raw gjson.Result) (Price, string) {
	if !raw.Exists() {
		return TextPrice(NotAvailable), ""
	}
	if !raw.IsObject() {
		if !truthy(raw) {
			return TextPrice(NotAvailable), ""
		}
		return priceFromResult(raw), ""
	}

	currency := strings.TrimSpace(raw.Get("currency").String())
	if extracted := raw.Get("extracted_value"); truthy(extracted) {
		return priceFromResult(extracted), currency
	}
	if value := raw.Get("value"); value.Exists() {
		return priceFromResult(value), currency
	}
	return TextPrice(NotAvailable), currency
}
