package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSort_AlphaBeta(t *testing.T) {
	raw := alphaBeta()

	tests := []struct {
		sort SortValue
		want []string
	}{
		{SortRelevance, []string{"b", "a"}},
		{SortPriceAsc, []string{"a", "b"}},
		{SortPriceDesc, []string{"b", "a"}},
		{SortNameAsc, []string{"a", "b"}},
		{SortNameDesc, []string{"b", "a"}},
		{SortStockAsc, []string{"b", "a"}},
		{SortStockDesc, []string{"a", "b"}},
		{SortCodeAsc, []string{"a", "b"}},
		{SortCodeDesc, []string{"b", "a"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			view := Sort(camo, raw, tt.sort, MissingPriceZero)
			assert.Equal(t, tt.want, ids(view["uncategorised"]))
			assert.Empty(t, view["camo-collection"])
		})
	}
}

func TestSort_CodeIsLexicographic(t *testing.T) {
	raw := camo.Partition([]Product{{ID: "10"}, {ID: "9"}, {ID: "100"}})

	view := Sort(camo, raw, SortCodeAsc, MissingPriceZero)

	assert.Equal(t, []string{"10", "100", "9"}, ids(view["uncategorised"]))
}

func TestSort_RepartitionsWithoutDuplicates(t *testing.T) {
	raw := CategorizedProducts{
		"camo-collection": {},
		"uncategorised": {
			{ID: "dual", Name: "Dual", Categories: []string{"camo-collection", "kids-collection"}},
		},
	}

	for _, key := range SortValues() {
		if key == SortRelevance {
			continue
		}
		view := Sort(camo, raw, key, MissingPriceZero)
		assert.Equal(t, []string{"dual"}, ids(view["camo-collection"]), key)
		assert.Empty(t, view["uncategorised"], key)
	}
}

func TestSort_KeepsTotalCount(t *testing.T) {
	raw := camoRange()

	for _, key := range SortValues() {
		view := Sort(camo, raw, key, MissingPriceZero)
		assert.Equal(t, raw.Count(), view.Count(), key)
		for _, k := range camo.Categories {
			_, ok := view[k]
			assert.True(t, ok, "%s missing %s", key, k)
		}
	}
}

func TestSort_Idempotent(t *testing.T) {
	raw := camoRange()

	once := Sort(camo, raw, SortPriceDesc, MissingPriceZero)
	twice := Sort(camo, once, SortPriceDesc, MissingPriceZero)

	for _, k := range camo.Categories {
		assert.Equal(t, ids(once[k]), ids(twice[k]))
	}
}

func TestSort_UnknownKeyIsRelevance(t *testing.T) {
	raw := alphaBeta()

	view := Sort(camo, raw, SortValue("cheapest-first"), MissingPriceZero)

	assert.Equal(t, []string{"b", "a"}, ids(view["uncategorised"]))
}

func TestSort_MissingPricePolicy(t *testing.T) {
	raw := camo.Partition([]Product{
		{ID: "free", Price: ParsePrice("")},
		{ID: "cheap", Price: price(5)},
		{ID: "junk", Price: ParsePrice("n/a")},
	})

	asc := Sort(camo, raw, SortPriceAsc, MissingPriceZero)
	assert.Equal(t, []string{"free", "junk", "cheap"}, ids(asc["uncategorised"]))

	desc := Sort(camo, raw, SortPriceDesc, MissingPriceZero)
	assert.Equal(t, []string{"cheap", "free", "junk"}, ids(desc["uncategorised"]))

	lastAsc := Sort(camo, raw, SortPriceAsc, MissingPriceLast)
	assert.Equal(t, []string{"cheap", "free", "junk"}, ids(lastAsc["uncategorised"]))

	lastDesc := Sort(camo, raw, SortPriceDesc, MissingPriceLast)
	assert.Equal(t, []string{"cheap", "free", "junk"}, ids(lastDesc["uncategorised"]))
}

func TestSort_StockIgnoresNegativeQuantities(t *testing.T) {
	raw := camo.Partition([]Product{
		{ID: "none"},
		{ID: "oversold", Variations: []Variation{{Quantity: -4}, {Quantity: 1}}},
		{ID: "plenty", Variations: []Variation{{Quantity: 2}, {Quantity: 2}}},
	})

	view := Sort(camo, raw, SortStockDesc, MissingPriceZero)

	assert.Equal(t, []string{"plenty", "oversold", "none"}, ids(view["uncategorised"]))
}

func TestFilter_MatchesVariationName(t *testing.T) {
	raw := camoRange()

	view := Filter(raw, "red")

	assert.Equal(t, []string{"u1"}, ids(view["uncategorised"]))
	assert.Empty(t, view["camo-collection"])
}

func TestFilter_CaseInsensitiveAndTrimmed(t *testing.T) {
	raw := camoRange()

	view := Filter(raw, "  MERINO ")

	assert.Equal(t, []string{"u2"}, ids(view["uncategorised"]))
}

func TestFilter_NonDestructive(t *testing.T) {
	raw := camoRange()
	before := raw.Clone()

	_ = Filter(raw, "snapback")
	restored := Filter(raw, "")

	assert.Equal(t, before, raw)
	for _, k := range camo.Categories {
		assert.ElementsMatch(t, ids(raw[k]), ids(restored[k]))
	}
}

func TestFilter_Idempotent(t *testing.T) {
	raw := camoRange()

	once := Filter(raw, "cap")
	again := Filter(raw, "cap")

	assert.Equal(t, once, again)
}

func TestDerive_FilterThenSort(t *testing.T) {
	raw := camoRange()

	view := Derive(camo, raw, ViewOptions{Search: "a", Sort: SortPriceAsc})

	require.Equal(t, []string{"c2", "c1"}, ids(view["camo-collection"]))
	require.Equal(t, []string{"u1", "u2"}, ids(view["uncategorised"]))
}

func TestParseSort(t *testing.T) {
	v, ok := ParseSort(" stock-desc ")
	assert.True(t, ok)
	assert.Equal(t, SortStockDesc, v)

	v, ok = ParseSort("bogus")
	assert.False(t, ok)
	assert.Equal(t, SortRelevance, v)
}
