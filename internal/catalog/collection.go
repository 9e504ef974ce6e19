package catalog

import (
	"errors"
	"fmt"
	"sort"
)

const DefaultCatchAll CategoryKey = "uncategorised"

var (
	ErrCollectionName      = errors.New("collection name required")
	ErrNoCatchAll          = errors.New("catch-all category required")
	ErrDuplicateCategory   = errors.New("duplicate category key")
	ErrEmptyCategoryKey    = errors.New("empty category key")
	ErrUnknownCollection   = errors.New("unknown collection")
	ErrDuplicateCollection = errors.New("duplicate collection")
)

// Collection is a named catalog section with a fixed, ordered set of
// category keys. CatchAll is always one of Categories.
type Collection struct {
	Name       string
	Categories []CategoryKey
	CatchAll   CategoryKey
}

// NewCollection validates the declaration. The catch-all is appended when
// it is not listed explicitly.
func NewCollection(name string, catchAll CategoryKey, keys ...CategoryKey) (Collection, error) {
	if name == "" {
		return Collection{}, ErrCollectionName
	}
	if catchAll == "" {
		return Collection{}, ErrNoCatchAll
	}

	seen := make(map[CategoryKey]struct{}, len(keys)+1)
	cats := make([]CategoryKey, 0, len(keys)+1)
	for _, k := range keys {
		if k == "" {
			return Collection{}, fmt.Errorf("%s: %w", name, ErrEmptyCategoryKey)
		}
		if _, dup := seen[k]; dup {
			return Collection{}, fmt.Errorf("%s: %w: %s", name, ErrDuplicateCategory, k)
		}
		seen[k] = struct{}{}
		cats = append(cats, k)
	}
	if _, ok := seen[catchAll]; !ok {
		cats = append(cats, catchAll)
	}

	return Collection{Name: name, Categories: cats, CatchAll: catchAll}, nil
}

// MustCollection is NewCollection for static declarations.
func MustCollection(name string, catchAll CategoryKey, keys ...CategoryKey) Collection {
	c, err := NewCollection(name, catchAll, keys...)
	if err != nil {
		panic(err)
	}
	return c
}

// Classify returns the first declared non-catch-all key matching one of the
// product's tags, or the catch-all.
func (c Collection) Classify(p Product) CategoryKey {
	if len(p.Categories) > 0 {
		tags := make(map[CategoryKey]struct{}, len(p.Categories))
		for _, t := range p.Categories {
			tags[KeyOf(t)] = struct{}{}
		}
		for _, k := range c.Categories {
			if k == c.CatchAll {
				continue
			}
			if _, ok := tags[k]; ok {
				return k
			}
		}
	}
	return c.CatchAll
}

func (c Collection) Empty() CategorizedProducts {
	out := make(CategorizedProducts, len(c.Categories))
	for _, k := range c.Categories {
		out[k] = []Product{}
	}
	return out
}

// Partition places every product into exactly one declared category.
func (c Collection) Partition(products []Product) CategorizedProducts {
	out := c.Empty()
	for _, p := range products {
		k := c.Classify(p)
		out[k] = append(out[k], p)
	}
	return out
}

// Flatten walks declared categories in order, then any undeclared keys in
// lexical order, keeping each category's own order.
func (c Collection) Flatten(cp CategorizedProducts) []Product {
	out := make([]Product, 0, cp.Count())
	for _, k := range c.keysOf(cp) {
		out = append(out, cp[k]...)
	}
	return out
}

func (c Collection) keysOf(cp CategorizedProducts) []CategoryKey {
	keys := make([]CategoryKey, 0, len(c.Categories))
	declared := make(map[CategoryKey]struct{}, len(c.Categories))
	for _, k := range c.Categories {
		declared[k] = struct{}{}
		keys = append(keys, k)
	}

	var extra []CategoryKey
	for k := range cp {
		if _, ok := declared[k]; !ok {
			extra = append(extra, k)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(keys, extra...)
}

type Section struct {
	Category CategoryKey `json:"category"`
	Products []Product   `json:"products"`
}

// Sections renders cp in Flatten order. Every declared key is present.
func (c Collection) Sections(cp CategorizedProducts) []Section {
	keys := c.keysOf(cp)
	out := make([]Section, 0, len(keys))
	for _, k := range keys {
		ps := cp[k]
		if ps == nil {
			ps = []Product{}
		}
		out = append(out, Section{Category: k, Products: ps})
	}
	return out
}
