package shopping

import (
	"strings"

	"github.com/tidwall/gjson"
)

const (
	DefaultShoppingLimit = 8
	DefaultCollectLimit  = 12
	DefaultResultLimit   = 5
)

// DefaultDenylist lists social, blog, stock photo and encyclopedia domains
// that never sell the product they show.
var DefaultDenylist = []string{
	"instagram.com", "pinterest.com", "facebook.com", "twitter.com", "x.com",
	"tiktok.com", "youtube.com", "reddit.com", "tumblr.com", "flickr.com",
	"behance.net", "dribbble.com", "deviantart.com", "500px.com",
	"unsplash.com", "pexels.com", "pixabay.com",
	"wikipedia.org", "wikimedia.org",
	"medium.com", "blogger.com", "wordpress.com",
}

type Options struct {
	// ShoppingLimit caps candidates taken from shopping results.
	ShoppingLimit int
	// CollectLimit caps the cumulative candidate count after visual matches.
	CollectLimit int
	// ResultLimit caps the returned list.
	ResultLimit int
	Denylist    []string
}

func DefaultOptions() Options {
	return Options{
		ShoppingLimit: DefaultShoppingLimit,
		CollectLimit:  DefaultCollectLimit,
		ResultLimit:   DefaultResultLimit,
		Denylist:      DefaultDenylist,
	}
}

// IsShoppingSite reports whether a hit may be a store listing. Matching is a
// case-insensitive substring test on both link and source.
func IsShoppingSite(link, source string, denylist []string) bool {
	if link == "" {
		return false
	}
	link = strings.ToLower(link)
	source = strings.ToLower(source)
	for _, domain := range denylist {
		if strings.Contains(link, domain) || strings.Contains(source, domain) {
			return false
		}
	}
	return true
}

// Rank turns raw hits into the final product list. Shopping results are
// taken unfiltered, visual matches must pass the denylist, links are
// unique, and priced products come first in collection order.
func Rank(shoppingResults, visualMatches []gjson.Result, opts Options) []Product {
	seen := make(map[string]struct{})
	candidates := make([]Candidate, 0, opts.CollectLimit)

	for _, hit := range shoppingResults {
		if len(candidates) >= opts.ShoppingLimit {
			break
		}
		c := ParseCandidate(hit)
		if !claim(seen, c.Link) {
			continue
		}
		candidates = append(candidates, c)
	}

	for _, hit := range visualMatches {
		if len(candidates) >= opts.CollectLimit {
			break
		}
		c := ParseCandidate(hit)
		if c.Link == "" {
			continue
		}
		if _, dup := seen[c.Link]; dup {
			continue
		}
		if !IsShoppingSite(c.Link, c.Source, opts.Denylist) {
			continue
		}
		seen[c.Link] = struct{}{}
		candidates = append(candidates, c)
	}

	products := make([]Product, 0, opts.ResultLimit)
	for _, priced := range []bool{true, false} {
		for _, c := range candidates {
			if len(products) == opts.ResultLimit {
				return products
			}
			if c.HasValidPrice == priced {
				products = append(products, c.Product)
			}
		}
	}
	return products
}

func claim(seen map[string]struct{}, link string) bool {
	if link == "" {
		return false
	}
	if _, ok := seen[link]; ok {
		return false
	}
	seen[link] = struct{}{}
	return true
}
