package handler

import (
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/microcosm-cc/bluemonday"

	"github.com/mlbautista/campusmart/internal/auth"
	"github.com/mlbautista/campusmart/internal/database"
	"github.com/mlbautista/campusmart/internal/model"
)

var (
	validate  = validator.New()
	sanitizer = bluemonday.StrictPolicy()
)

type listingRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gte=0"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
}

// ServeListings returns the catalog, newest first. The cat, q, and price
// query parameters mirror the filters of the browse page.
func ServeListings(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		dbListings, err := db.ListListings(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[error] failed to load listings from database: %v", err)
			respondError(w, http.StatusInternalServerError, "Failed to load listings.")
			return
		}

		listings := make([]model.Listing, 0, len(dbListings))
		for _, l := range dbListings {
			listings = append(listings, model.Listing{
				ID:          l.ID.Bytes,
				Title:       l.Title,
				Description: l.Description,
				Price:       l.Price,
				Category:    l.Category,
				Image:       l.Image,
				CreatedAt:   l.CreatedAt.Time,
			})
		}

		listings = FilterListings(listings,
			r.URL.Query().Get("cat"),
			r.URL.Query().Get("q"),
			r.URL.Query().Get("price"))

		respondJSON(w, http.StatusOK, map[string]any{"listings": listings})
	}
}

// FilterListings applies the browse filters: exact category, substring
// search over title and description, and the price bands offered by the
// listings page.
func FilterListings(listings []model.Listing, category, search, priceBand string) []model.Listing {
	out := make([]model.Listing, 0, len(listings))
	search = strings.ToLower(search)

	for _, l := range listings {
		if category != "" && l.Category != category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(l.Title), search) &&
			!strings.Contains(strings.ToLower(l.Description), search) {
			continue
		}
		switch priceBand {
		case "0-50":
			if l.Price > 50 {
				continue
			}
		case "50-200":
			if l.Price <= 50 || l.Price > 200 {
				continue
			}
		case "200+":
			if l.Price <= 200 {
				continue
			}
		}
		out = append(out, l)
	}

	return out
}

// CreateListing handles the authenticated publish endpoint. BearerAuth
// has already placed the principal on the context.
func CreateListing(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal, err := auth.GetPrincipalFromContext(ctx)
		if err != nil {
			log.Printf("%v", err)
			respondError(w, http.StatusForbidden, "Forbidden: Invalid token.")
			return
		}

		id, ok := insertListing(w, r, db)
		if !ok {
			return
		}

		slog.InfoContext(ctx, "listing published",
			slog.String("listing_id", id.String()),
			slog.String("uid", principal.UID.String()),
			slog.String("email", principal.Email))
		respondJSON(w, http.StatusCreated, map[string]string{
			"message": "Listing published.",
			"id":      id.String(),
		})
	}
}

// CreatePublicListing handles the unauthenticated demo publish endpoint.
func CreatePublicListing(db *database.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := insertListing(w, r, db)
		if !ok {
			return
		}

		respondJSON(w, http.StatusCreated, map[string]string{
			"message": "Listing published.",
			"id":      id.String(),
		})
	}
}

func insertListing(w http.ResponseWriter, r *http.Request, db *database.Queries) (uuid.UUID, bool) {
	var req listingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return uuid.UUID{}, false
	}

	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid listing: "+err.Error())
		return uuid.UUID{}, false
	}

	id := uuid.New()
	_, err := db.CreateListing(r.Context(), database.CreateListingParams{
		ID:          pgtype.UUID{Bytes: id, Valid: true},
		Title:       sanitizer.Sanitize(req.Title),
		Description: sanitizer.Sanitize(req.Description),
		Price:       req.Price,
		Category:    req.Category,
		Image:       req.Image,
	})
	if err != nil {
		log.Printf("failed to create listing entry in database: %v", err)
		respondError(w, http.StatusInternalServerError, "Database error.")
		return uuid.UUID{}, false
	}

	return id, true
}
