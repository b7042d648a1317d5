// Package auth handles password hashing, JWT issuance and verification,
// and refresh token lifecycle.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/mlbautista/campusmart/internal/database"
)

type ContextKey string

const PrincipalKey ContextKey = "principal"

// Principal identifies an authenticated requester.
type Principal struct {
	UID   uuid.UUID
	Email string
}

// Claims extends the registered JWT claims with the account email so a
// verified token alone yields the full principal.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func GetPrincipalFromContext(ctx context.Context) (Principal, error) {
	p, ok := ctx.Value(PrincipalKey).(Principal)
	if !ok {
		return Principal{}, errors.New("internal/auth: no principal in context")
	}
	return p, nil
}

func HashPassword(password string) (string, error) {
	hashedPw, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return "", fmt.Errorf("internal/auth: pw hash failed: %w", err)
	}

	return hashedPw, nil
}

func CheckPasswordHash(password, hash string) (bool, error) {
	isMatch, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil {
		return false, fmt.Errorf("internal/auth: pw and hash comparison failed: %w", err)
	}

	return isMatch, nil
}

func MakeJWT(p Principal, issuer, tokenSecret string, expiresIn time.Duration) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: p.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   p.UID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	})

	return token.SignedString([]byte(tokenSecret))
}

func ValidateJWT(tokenString, tokenSecret string) (Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (any, error) { return []byte(tokenSecret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Principal{}, fmt.Errorf("internal/auth: failed to parse token: %w", err)
	}

	if !token.Valid {
		return Principal{}, errors.New("internal/auth: token is invalid")
	}

	if claims.Subject == "" {
		return Principal{}, errors.New("internal/auth: subject claim is missing")
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Principal{}, fmt.Errorf("internal/auth: bad subject claim: %w", err)
	}

	return Principal{UID: uid, Email: claims.Email}, nil
}

func MakeRefreshToken(ctx context.Context, db *database.Queries, userID uuid.UUID, expiresIn time.Duration) (string, error) {
	rnd := make([]byte, 32)

	// rand.Read() never returns an error.
	_, _ = rand.Read(rnd)
	rndStr := hex.EncodeToString(rnd)

	now := time.Now().UTC()
	refreshToken, err := db.CreateRefreshToken(ctx, database.CreateRefreshTokenParams{
		Token:     rndStr,
		UserID:    pgtype.UUID{Bytes: userID, Valid: true},
		CreatedAt: pgtype.Timestamptz{Time: now, Valid: true},
		ExpiresAt: pgtype.Timestamptz{Time: now.Add(expiresIn), Valid: true},
	})
	if err != nil {
		return "", fmt.Errorf("internal/auth: database error: %w", err)
	}

	return refreshToken.Token, nil
}
