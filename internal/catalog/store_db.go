package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return r.db.Ping(ctx)
	})
}

const collectionQuery = `
	SELECT
		p.id,
		p.name,
		COALESCE(p.description, ''),
		p.price::text,
		p.image_thumbnail,
		p.image_medium,
		p.image_large,
		COALESCE(
			(SELECT array_agg(pc.category ORDER BY pc.category)
			 FROM product_categories pc
			 WHERE pc.product_id = p.id),
			'{}'
		),
		COALESCE(
			(SELECT json_agg(json_build_object(
				'name', v.name, 'color', v.color, 'size', v.size, 'quantity', v.quantity
			) ORDER BY v.position)
			 FROM product_variations v
			 WHERE v.product_id = p.id),
			'[]'
		)
	FROM products p
	WHERE p.published
	ORDER BY p.id ASC
`

type productRow struct {
	id          string
	name        string
	description string
	price       *string
	thumb       *string
	medium      *string
	large       *string
	categories  []string
	variations  []byte
}

func (r *PostgresRepository) FetchCollection(ctx context.Context, c Collection) (CategorizedProducts, error) {
	var products []Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := r.db.Query(ctx, collectionQuery)
		if err != nil {
			return err
		}
		defer rows.Close()

		products = make([]Product, 0, 64)
		for rows.Next() {
			var row productRow
			if err := rows.Scan(
				&row.id, &row.name, &row.description, &row.price,
				&row.thumb, &row.medium, &row.large,
				&row.categories, &row.variations,
			); err != nil {
				return err
			}
			p, err := row.product()
			if err != nil {
				return err
			}
			products = append(products, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return c.Partition(products), nil
}

func (row productRow) product() (Product, error) {
	p := Product{
		ID:          row.id,
		Name:        row.name,
		Description: row.description,
		Categories:  row.categories,
		Image:       featuredImage(row.thumb, row.medium, row.large),
	}
	if row.price != nil {
		p.Price = ParsePrice(*row.price)
	}

	if len(row.variations) > 0 {
		if err := json.Unmarshal(row.variations, &p.Variations); err != nil {
			return Product{}, fmt.Errorf("product %s variations: %w", row.id, err)
		}
	}
	if p.Categories == nil {
		p.Categories = []string{}
	}
	if p.Variations == nil {
		p.Variations = []Variation{}
	}
	return p, nil
}

func featuredImage(thumb, medium, large *string) *FeaturedImage {
	if thumb == nil && medium == nil && large == nil {
		return nil
	}
	return &FeaturedImage{
		Thumbnail: deref(thumb),
		Medium:    deref(medium),
		Large:     deref(large),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
