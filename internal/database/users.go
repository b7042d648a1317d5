package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	UserID    pgtype.UUID
	Name      string
	StudentID string
	Email     string
	CreatedAt pgtype.Timestamptz
}

type CreateUserParams struct {
	UserID    pgtype.UUID
	Name      string
	StudentID string
	Email     string
}

const createUser = `
INSERT INTO users (user_id, name, student_id, email)
VALUES ($1, $2, $3, $4)
RETURNING user_id, name, student_id, email, created_at
`

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser, arg.UserID, arg.Name, arg.StudentID, arg.Email)
	var u User
	err := row.Scan(&u.UserID, &u.Name, &u.StudentID, &u.Email, &u.CreatedAt)
	return u, err
}

const getUserByStudentID = `
SELECT user_id, name, student_id, email, created_at
FROM users
WHERE student_id = $1
`

func (q *Queries) GetUserByStudentID(ctx context.Context, studentID string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByStudentID, studentID)
	var u User
	err := row.Scan(&u.UserID, &u.Name, &u.StudentID, &u.Email, &u.CreatedAt)
	return u, err
}

const getUserByID = `
SELECT user_id, name, student_id, email, created_at
FROM users
WHERE user_id = $1
`

func (q *Queries) GetUserByID(ctx context.Context, userID pgtype.UUID) (User, error) {
	row := q.db.QueryRow(ctx, getUserByID, userID)
	var u User
	err := row.Scan(&u.UserID, &u.Name, &u.StudentID, &u.Email, &u.CreatedAt)
	return u, err
}
