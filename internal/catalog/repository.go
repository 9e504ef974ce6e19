package catalog

import (
	"context"
	"errors"
	"fmt"
)

// Repository loads the category-partitioned products of one collection.
type Repository interface {
	FetchCollection(ctx context.Context, c Collection) (CategorizedProducts, error)
}

// Pinger is implemented by repositories with a backing service to probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

var ErrStoreReset = errors.New("store reset while fetching")

// FetchError is the latched outcome of a failed collection fetch.
type FetchError struct {
	Collection string
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Collection, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Message is the text shown to shoppers in place of the product grid.
func (e *FetchError) Message() string {
	if e.Err == nil {
		return "failed to load products"
	}
	var re *RejectedError
	if errors.As(e.Err, &re) {
		return re.Reason
	}
	return e.Err.Error()
}

func ping(ctx context.Context, r Repository) error {
	if p, ok := r.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
