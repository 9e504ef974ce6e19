package catalog

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

type Variation struct {
	Name     string `json:"name"`
	Color    string `json:"color,omitempty"`
	Size     string `json:"size,omitempty"`
	Quantity int    `json:"quantity"`
}

type FeaturedImage struct {
	Thumbnail string `json:"thumbnail,omitempty"`
	Medium    string `json:"medium,omitempty"`
	Large     string `json:"large,omitempty"`
}

type Product struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Price       decimal.NullDecimal `json:"price"`
	Categories  []string            `json:"categories"`
	Variations  []Variation         `json:"variations"`
	Image       *FeaturedImage      `json:"featured_image,omitempty"`
}

// Stock is the sum of variation quantities. Negative quantities count as zero.
func (p Product) Stock() int {
	total := 0
	for _, v := range p.Variations {
		if v.Quantity > 0 {
			total += v.Quantity
		}
	}
	return total
}

// ParsePrice reads a price leniently: blank or non-numeric input is an absent price.
func ParsePrice(s string) decimal.NullDecimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

type CategoryKey string

// KeyOf turns a free-form category tag into its key form.
func KeyOf(tag string) CategoryKey {
	return CategoryKey(strings.Join(strings.Fields(strings.ToLower(tag)), "-"))
}

type CategorizedProducts map[CategoryKey][]Product

// Count is the number of entries across every category.
func (cp CategorizedProducts) Count() int {
	n := 0
	for _, ps := range cp {
		n += len(ps)
	}
	return n
}

// Clone copies the map and every sequence; products themselves are shared values.
func (cp CategorizedProducts) Clone() CategorizedProducts {
	out := make(CategorizedProducts, len(cp))
	for k, ps := range cp {
		out[k] = slices.Clone(ps)
		if out[k] == nil {
			out[k] = []Product{}
		}
	}
	return out
}
