package catalog

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

type SortValue string

const (
	SortRelevance SortValue = "relevance"
	SortCodeAsc   SortValue = "code-asc"
	SortCodeDesc  SortValue = "code-desc"
	SortNameAsc   SortValue = "name-asc"
	SortNameDesc  SortValue = "name-desc"
	SortStockAsc  SortValue = "stock-asc"
	SortStockDesc SortValue = "stock-desc"
	SortPriceAsc  SortValue = "price-asc"
	SortPriceDesc SortValue = "price-desc"
)

var sortValues = []SortValue{
	SortRelevance,
	SortCodeAsc, SortCodeDesc,
	SortNameAsc, SortNameDesc,
	SortStockAsc, SortStockDesc,
	SortPriceAsc, SortPriceDesc,
}

func SortValues() []SortValue { return slices.Clone(sortValues) }

// ParseSort maps s to a known sort value. Unknown input yields relevance and false.
func ParseSort(s string) (SortValue, bool) {
	v := SortValue(strings.TrimSpace(s))
	if slices.Contains(sortValues, v) {
		return v, true
	}
	return SortRelevance, false
}

// MissingPrice decides where products without a usable price sort.
type MissingPrice int

const (
	// MissingPriceZero compares an absent price as 0.
	MissingPriceZero MissingPrice = iota
	// MissingPriceLast puts products without a price after priced ones in
	// both directions.
	MissingPriceLast
)

type ViewOptions struct {
	Search       string
	Sort         SortValue
	MissingPrice MissingPrice
}

// Derive rebuilds a view from raw: search filter first, then sort. raw is
// never modified.
func Derive(c Collection, raw CategorizedProducts, opts ViewOptions) CategorizedProducts {
	filtered := Filter(raw, opts.Search)
	return Sort(c, filtered, opts.Sort, opts.MissingPrice)
}

// matcher is not safe for concurrent use; cases.Caser keeps state.
type matcher struct {
	folder cases.Caser
	needle string
}

func newMatcher(term string) *matcher {
	m := &matcher{folder: cases.Fold()}
	m.needle = m.folder.String(strings.TrimSpace(term))
	return m
}

func (m *matcher) contains(s string) bool {
	return s != "" && strings.Contains(m.folder.String(s), m.needle)
}

// Filter keeps products whose name, description or any variation name
// contains term, case-insensitively. A blank term keeps everything.
func Filter(raw CategorizedProducts, term string) CategorizedProducts {
	m := newMatcher(term)
	if m.needle == "" {
		return raw.Clone()
	}

	out := make(CategorizedProducts, len(raw))
	for k, ps := range raw {
		kept := make([]Product, 0, len(ps))
		for _, p := range ps {
			if m.matches(p) {
				kept = append(kept, p)
			}
		}
		out[k] = kept
	}
	return out
}

func (m *matcher) matches(p Product) bool {
	if m.contains(p.Name) || m.contains(p.Description) {
		return true
	}
	for _, v := range p.Variations {
		if m.contains(v.Name) {
			return true
		}
	}
	return false
}

// Sort orders cp by key. Relevance keeps cp's partitioning and order; any
// other key flattens, sorts stably and re-partitions through Classify, so
// each flattened entry lands in exactly one category.
func Sort(c Collection, cp CategorizedProducts, key SortValue, missing MissingPrice) CategorizedProducts {
	cmp := comparator(key, missing)
	if cmp == nil {
		return cp.Clone()
	}

	flat := c.Flatten(cp)
	slices.SortStableFunc(flat, cmp)
	return c.Partition(flat)
}

func comparator(key SortValue, missing MissingPrice) func(a, b Product) int {
	switch key {
	case SortCodeAsc:
		return byCode
	case SortCodeDesc:
		return reverse(byCode)
	case SortNameAsc:
		return byName
	case SortNameDesc:
		return reverse(byName)
	case SortStockAsc:
		return byStock
	case SortStockDesc:
		return reverse(byStock)
	case SortPriceAsc:
		return byPrice(missing, false)
	case SortPriceDesc:
		return byPrice(missing, true)
	default:
		return nil
	}
}

func reverse(f func(a, b Product) int) func(a, b Product) int {
	return func(a, b Product) int { return f(b, a) }
}

func byCode(a, b Product) int { return strings.Compare(a.ID, b.ID) }

func byName(a, b Product) int { return strings.Compare(a.Name, b.Name) }

func byStock(a, b Product) int {
	sa, sb := a.Stock(), b.Stock()
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	}
	return 0
}

func byPrice(missing MissingPrice, desc bool) func(a, b Product) int {
	return func(a, b Product) int {
		if missing == MissingPriceLast {
			switch {
			case !a.Price.Valid && !b.Price.Valid:
				return 0
			case !a.Price.Valid:
				return 1
			case !b.Price.Valid:
				return -1
			}
		}
		// Invalid NullDecimal carries a zero Decimal.
		r := a.Price.Decimal.Cmp(b.Price.Decimal)
		if desc {
			return -r
		}
		return r
	}
}
