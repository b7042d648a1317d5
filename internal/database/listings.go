package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type Listing struct {
	ID          pgtype.UUID
	Title       string
	Description string
	Price       float64
	Category    string
	Image       string
	CreatedAt   pgtype.Timestamptz
}

type CreateListingParams struct {
	ID          pgtype.UUID
	Title       string
	Description string
	Price       float64
	Category    string
	Image       string
}

const createListing = `
INSERT INTO listings (id, title, description, price, category, image)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, title, description, price, category, image, created_at
`

func (q *Queries) CreateListing(ctx context.Context, arg CreateListingParams) (Listing, error) {
	row := q.db.QueryRow(ctx, createListing,
		arg.ID, arg.Title, arg.Description, arg.Price, arg.Category, arg.Image)
	var l Listing
	err := row.Scan(&l.ID, &l.Title, &l.Description, &l.Price, &l.Category, &l.Image, &l.CreatedAt)
	return l, err
}

const listListings = `
SELECT id, title, description, price, category, image, created_at
FROM listings
ORDER BY created_at DESC
`

func (q *Queries) ListListings(ctx context.Context) ([]Listing, error) {
	rows, err := q.db.Query(ctx, listListings)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []Listing
	for rows.Next() {
		var l Listing
		if err := rows.Scan(&l.ID, &l.Title, &l.Description, &l.Price,
			&l.Category, &l.Image, &l.CreatedAt); err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}
