package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type RefreshToken struct {
	Token     string
	UserID    pgtype.UUID
	CreatedAt pgtype.Timestamptz
	ExpiresAt pgtype.Timestamptz
	RevokedAt pgtype.Timestamptz
}

type CreateRefreshTokenParams struct {
	Token     string
	UserID    pgtype.UUID
	CreatedAt pgtype.Timestamptz
	ExpiresAt pgtype.Timestamptz
}

const createRefreshToken = `
INSERT INTO refresh_tokens (token, user_id, created_at, expires_at)
VALUES ($1, $2, $3, $4)
RETURNING token, user_id, created_at, expires_at, revoked_at
`

func (q *Queries) CreateRefreshToken(ctx context.Context, arg CreateRefreshTokenParams) (RefreshToken, error) {
	row := q.db.QueryRow(ctx, createRefreshToken, arg.Token, arg.UserID, arg.CreatedAt, arg.ExpiresAt)
	var rt RefreshToken
	err := row.Scan(&rt.Token, &rt.UserID, &rt.CreatedAt, &rt.ExpiresAt, &rt.RevokedAt)
	return rt, err
}

const getUserFromRefreshTok = `
SELECT user_id
FROM refresh_tokens
WHERE token = $1
  AND revoked_at IS NULL
  AND expires_at > now()
`

func (q *Queries) GetUserFromRefreshTok(ctx context.Context, token string) (pgtype.UUID, error) {
	row := q.db.QueryRow(ctx, getUserFromRefreshTok, token)
	var userID pgtype.UUID
	err := row.Scan(&userID)
	return userID, err
}

const revokeRefreshToken = `
UPDATE refresh_tokens
SET revoked_at = now()
WHERE token = $1
`

func (q *Queries) RevokeRefreshToken(ctx context.Context, token string) error {
	_, err := q.db.Exec(ctx, revokeRefreshToken, token)
	return err
}
