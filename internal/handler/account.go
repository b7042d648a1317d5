package handler

import (
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/mlbautista/campusmart/internal/auth"
	"github.com/mlbautista/campusmart/internal/config"
	"github.com/mlbautista/campusmart/internal/database"
	"github.com/mlbautista/campusmart/internal/model"
)

type signupRequest struct {
	Name      string `json:"name" validate:"required"`
	StudentID string `json:"studentId" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	Password  string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	Password  string `json:"password" validate:"required"`
}

type tokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// SubmitSignup handles user account creation.
func SubmitSignup(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req signupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body.")
			return
		}
		if err := validate.Struct(req); err != nil {
			respondError(w, http.StatusBadRequest, "Please fill all fields")
			return
		}

		// Reject reused student IDs before creating the account.
		if _, err := db.GetUserByStudentID(ctx, req.StudentID); err == nil {
			respondError(w, http.StatusBadRequest, "Student ID already used")
			return
		}

		// Hash first so a hashing failure cannot leave behind an
		// account with no password blocking its student ID.
		hashedPw, err := auth.HashPassword(req.Password)
		if err != nil {
			log.Printf("argon2id hash creation failed: %v", err)
			respondError(w, http.StatusInternalServerError, "Server error.")
			return
		}

		user, err := db.CreateUser(ctx, database.CreateUserParams{
			UserID:    pgtype.UUID{Bytes: uuid.New(), Valid: true},
			Name:      req.Name,
			StudentID: req.StudentID,
			Email:     req.Email,
		})
		if err != nil {
			log.Printf("failed to create user entry in database: %v", err)
			respondError(w, http.StatusInternalServerError, "Database error.")
			return
		}

		if _, err := db.CreatePassword(ctx, database.CreatePasswordParams{
			UserID:         user.UserID,
			HashedPassword: hashedPw,
			CreatedAt:      pgtype.Timestamptz{Time: time.Now().UTC(), Valid: true},
		}); err != nil {
			log.Printf("failed to create password entry in database: %v", err)
			respondError(w, http.StatusInternalServerError, "Database error.")
			return
		}

		slog.InfoContext(ctx, "user signed up",
			slog.String("student_id", user.StudentID))
		respondJSON(w, http.StatusCreated, map[string]string{
			"message": "Account created.",
			"uid":     uuid.UUID(user.UserID.Bytes).String(),
		})
	}
}

// SubmitLogin verifies credentials and issues a JWT plus refresh token.
func SubmitLogin(cfg config.Config, db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body.")
			return
		}
		if err := validate.Struct(req); err != nil {
			respondError(w, http.StatusBadRequest, "Please fill all fields")
			return
		}

		user, err := db.GetUserByStudentID(ctx, req.StudentID)
		if err != nil {
			log.Printf("failed to retrieve user from db: %v", err)
			respondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		pw, err := db.GetPasswordByUserID(ctx, user.UserID)
		if err != nil {
			log.Printf("failed to retrieve password from db: %v", err)
			respondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		ok, err := auth.CheckPasswordHash(req.Password, pw.HashedPassword)
		if err != nil {
			log.Printf("cannot verify password - hash may be corrupted: %v", err)
			respondError(w, http.StatusInternalServerError, "Server error.")
			return
		}
		if !ok {
			respondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		principal := auth.Principal{UID: user.UserID.Bytes, Email: user.Email}
		jwtString, err := auth.MakeJWT(principal, cfg.JWTIssuer, cfg.JWTSecret, cfg.JWTTTL)
		if err != nil {
			log.Printf("failed to create JWT: %v", err)
			respondError(w, http.StatusInternalServerError, "Server error.")
			return
		}

		refreshToken, err := auth.MakeRefreshToken(ctx, db, user.UserID.Bytes, cfg.RefreshTTL)
		if err != nil {
			log.Printf("%v", err)
			respondError(w, http.StatusInternalServerError, "Server error.")
			return
		}

		slog.InfoContext(ctx, "user logged in",
			slog.String("student_id", user.StudentID))
		respondJSON(w, http.StatusOK, map[string]any{
			"token":        jwtString,
			"refreshToken": refreshToken,
			"user": model.User{
				UID:       user.UserID.Bytes,
				Name:      user.Name,
				StudentID: user.StudentID,
				Email:     user.Email,
			},
		})
	}
}

// RefreshToken exchanges a live refresh token for a fresh JWT.
func RefreshToken(cfg config.Config, db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req tokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body.")
			return
		}

		userID, err := db.GetUserFromRefreshTok(ctx, req.RefreshToken)
		if err != nil {
			log.Printf("handler/refresh token: failed to retrieve user: %v", err)
			respondError(w, http.StatusUnauthorized, "Invalid refresh token.")
			return
		}

		user, err := db.GetUserByID(ctx, userID)
		if err != nil {
			log.Printf("handler/refresh token: failed to retrieve user: %v", err)
			respondError(w, http.StatusUnauthorized, "Invalid refresh token.")
			return
		}

		jwtString, err := auth.MakeJWT(
			auth.Principal{UID: user.UserID.Bytes, Email: user.Email},
			cfg.JWTIssuer, cfg.JWTSecret, cfg.JWTTTL)
		if err != nil {
			log.Printf("handler/refresh token: failed to create JWT: %v", err)
			respondError(w, http.StatusInternalServerError, "Server error.")
			return
		}

		respondJSON(w, http.StatusOK, map[string]string{"token": jwtString})
	}
}

// SubmitLogout revokes the presented refresh token.
func SubmitLogout(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req tokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body.")
			return
		}

		if err := db.RevokeRefreshToken(ctx, req.RefreshToken); err != nil {
			log.Printf("failed to process token revocation: %v", err)
		}

		respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out."})
	}
}
