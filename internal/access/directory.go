package access

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const lookupTimeout = 2 * time.Second

type MemVendorDirectory struct {
	mu    sync.RWMutex
	slugs map[string]string
}

func NewMemVendorDirectory() *MemVendorDirectory {
	return &MemVendorDirectory{slugs: make(map[string]string)}
}

func (d *MemVendorDirectory) Put(userID, slug string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.slugs[userID] = slug
}

func (d *MemVendorDirectory) StoreSlug(ctx context.Context, userID string) (string, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	slug, ok := d.slugs[userID]
	return slug, ok, nil
}

type PostgresVendorDirectory struct {
	db *pgxpool.Pool
}

func NewPostgresVendorDirectory(db *pgxpool.Pool) *PostgresVendorDirectory {
	return &PostgresVendorDirectory{db: db}
}

func (d *PostgresVendorDirectory) StoreSlug(ctx context.Context, userID string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	var slug string
	err := d.db.QueryRow(ctx, `
		SELECT store_slug
		FROM vendors
		WHERE user_id = $1
	`, userID).Scan(&slug)

	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return slug, true, nil
}
