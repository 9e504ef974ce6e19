package catalog

import (
	"context"
	"fmt"
	"sort"
)

type cacheInvalidator interface {
	Invalidate(ctx context.Context, c Collection) error
}

// Registry owns the shared store of every configured collection.
type Registry struct {
	stores map[string]*Store
	names  []string
	repo   Repository
}

func NewRegistry(repo Repository, collections []Collection, opts StoreOptions) (*Registry, error) {
	r := &Registry{
		stores: make(map[string]*Store, len(collections)),
		repo:   repo,
	}
	for _, c := range collections {
		if _, dup := r.stores[c.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCollection, c.Name)
		}
		r.stores[c.Name] = NewStore(c, repo, opts)
		r.names = append(r.names, c.Name)
	}
	sort.Strings(r.names)
	return r, nil
}

func (r *Registry) Get(name string) (*Store, bool) {
	s, ok := r.stores[name]
	return s, ok
}

func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

func (r *Registry) Repository() Repository { return r.repo }

func (r *Registry) Reset(name string) bool {
	s, ok := r.stores[name]
	if !ok {
		return false
	}
	s.Reset()
	return true
}

// Invalidate resets the named store, or every store when name is empty, and
// drops any cached repository copy so the next fetch reads fresh data.
func (r *Registry) Invalidate(ctx context.Context, name string) error {
	if name == "" {
		for _, n := range r.names {
			if err := r.Invalidate(ctx, n); err != nil {
				return err
			}
		}
		return nil
	}

	s, ok := r.stores[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCollection, name)
	}
	if ci, ok := r.repo.(cacheInvalidator); ok {
		if err := ci.Invalidate(ctx, s.Collection()); err != nil {
			return err
		}
	}
	s.Reset()
	return nil
}
