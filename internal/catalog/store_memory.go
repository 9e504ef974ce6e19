package catalog

import (
	"context"
	"sort"
	"sync"
)

type MemRepository struct {
	mu sync.RWMutex
	m  map[string]Product
}

func NewMemRepository(products ...Product) *MemRepository {
	r := &MemRepository{m: make(map[string]Product, len(products))}
	for _, p := range products {
		r.m[p.ID] = p
	}
	return r
}

// NewSeededMemRepository carries a small headwear range for local runs.
func NewSeededMemRepository() *MemRepository {
	return NewMemRepository(seedProducts()...)
}

func (r *MemRepository) Ping(ctx context.Context) error { return nil }

func (r *MemRepository) Put(p Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[p.ID] = p
}

// FetchCollection partitions every product by the collection's categories,
// in id order.
func (r *MemRepository) FetchCollection(ctx context.Context, c Collection) (CategorizedProducts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	out := make([]Product, 0, len(r.m))
	for _, p := range r.m {
		out = append(out, p)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return c.Partition(out), nil
}

func seedProducts() []Product {
	return []Product{
		{
			ID:          "hw-1001",
			Name:        "Woodland Camo Snapback",
			Description: "Structured six-panel snapback in woodland camo twill.",
			Price:       ParsePrice("29.99"),
			Categories:  []string{"Camo Collection"},
			Variations: []Variation{
				{Name: "Woodland Camo Snapback / Olive", Color: "olive", Size: "one-size", Quantity: 14},
				{Name: "Woodland Camo Snapback / Tan", Color: "tan", Size: "one-size", Quantity: 6},
			},
			Image: &FeaturedImage{
				Thumbnail: "/images/hw-1001-thumb.jpg",
				Medium:    "/images/hw-1001-md.jpg",
				Large:     "/images/hw-1001-lg.jpg",
			},
		},
		{
			ID:          "hw-1002",
			Name:        "Desert Camo Trucker",
			Description: "Mesh-back trucker with desert camo front.",
			Price:       ParsePrice("24.50"),
			Categories:  []string{"Camo Collection", "Kids Collection"},
			Variations: []Variation{
				{Name: "Desert Camo Trucker / Adult", Color: "sand", Size: "adult", Quantity: 9},
				{Name: "Desert Camo Trucker / Youth", Color: "sand", Size: "youth", Quantity: 3},
			},
		},
		{
			ID:          "hw-2001",
			Name:        "Little Explorer Bucket Hat",
			Description: "Soft cotton bucket hat with chin strap.",
			Price:       ParsePrice("18.00"),
			Categories:  []string{"Kids Collection"},
			Variations: []Variation{
				{Name: "Red Cap", Color: "red", Size: "youth", Quantity: 11},
				{Name: "Navy Cap", Color: "navy", Size: "youth", Quantity: 0},
			},
		},
		{
			ID:          "hw-3001",
			Name:        "Classic Wool Beanie",
			Description: "Ribbed merino beanie.",
			Categories:  []string{"Winter"},
			Variations: []Variation{
				{Name: "Charcoal Beanie", Color: "charcoal", Size: "one-size", Quantity: 25},
			},
		},
	}
}
