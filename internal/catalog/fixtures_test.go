package catalog

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"
)

var (
	camo = MustCollection("camo", DefaultCatchAll, "camo-collection")
	kids = MustCollection("kids", DefaultCatchAll, "kids-collection")
)

func price(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func ids(ps []Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func alphaBeta() CategorizedProducts {
	return CategorizedProducts{
		"camo-collection": {},
		"uncategorised": {
			{ID: "b", Name: "Beta", Price: price(30), Categories: []string{"uncategorised"}, Variations: []Variation{{Quantity: 2}}},
			{ID: "a", Name: "Alpha", Price: price(10), Categories: []string{"uncategorised"}, Variations: []Variation{{Quantity: 5}}},
		},
	}
}

func camoRange() CategorizedProducts {
	return camo.Partition([]Product{
		{ID: "c1", Name: "Woodland Snapback", Description: "camo twill", Price: price(30), Categories: []string{"camo-collection"},
			Variations: []Variation{{Name: "Olive", Quantity: 3}}},
		{ID: "c2", Name: "Desert Trucker", Price: price(25), Categories: []string{"camo-collection", "kids-collection"},
			Variations: []Variation{{Name: "Sand", Quantity: 8}}},
		{ID: "u1", Name: "Bucket Hat", Categories: []string{"kids-collection"},
			Variations: []Variation{{Name: "Red Cap", Quantity: 1}, {Name: "Navy Cap", Quantity: 4}}},
		{ID: "u2", Name: "Wool Beanie", Description: "Ribbed merino", Price: price(15)},
	})
}

// fakeRepo counts calls and can hold them until release is closed.
type fakeRepo struct {
	calls atomic.Int32

	started     chan struct{}
	startedOnce sync.Once
	release     chan struct{}

	result    CategorizedProducts
	err       error
	panicWith any
}

func (r *fakeRepo) FetchCollection(ctx context.Context, c Collection) (CategorizedProducts, error) {
	r.calls.Add(1)
	if r.started != nil {
		r.startedOnce.Do(func() { close(r.started) })
	}
	if r.release != nil {
		<-r.release
	}
	if r.panicWith != nil {
		panic(r.panicWith)
	}
	if r.err != nil {
		return nil, r.err
	}
	return r.result.Clone(), nil
}
