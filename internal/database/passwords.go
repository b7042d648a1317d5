package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type Password struct {
	UserID         pgtype.UUID
	HashedPassword string
	CreatedAt      pgtype.Timestamptz
}

type CreatePasswordParams struct {
	UserID         pgtype.UUID
	HashedPassword string
	CreatedAt      pgtype.Timestamptz
}

const createPassword = `
INSERT INTO passwords (user_id, hashed_password, created_at)
VALUES ($1, $2, $3)
RETURNING user_id, hashed_password, created_at
`

func (q *Queries) CreatePassword(ctx context.Context, arg CreatePasswordParams) (Password, error) {
	row := q.db.QueryRow(ctx, createPassword, arg.UserID, arg.HashedPassword, arg.CreatedAt)
	var p Password
	err := row.Scan(&p.UserID, &p.HashedPassword, &p.CreatedAt)
	return p, err
}

const getPasswordByUserID = `
SELECT user_id, hashed_password, created_at
FROM passwords
WHERE user_id = $1
`

func (q *Queries) GetPasswordByUserID(ctx context.Context, userID pgtype.UUID) (Password, error) {
	row := q.db.QueryRow(ctx, getPasswordByUserID, userID)
	var p Password
	err := row.Scan(&p.UserID, &p.HashedPassword, &p.CreatedAt)
	return p, err
}
