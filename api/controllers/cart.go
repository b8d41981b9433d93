package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/perfumichi/storefront/api/middleware"
	"github.com/perfumichi/storefront/api/responses"
	"github.com/perfumichi/storefront/api/validators"
	"github.com/perfumichi/storefront/internal/cart"
	pkgerrors "github.com/perfumichi/storefront/pkg/errors"
	"github.com/perfumichi/storefront/pkg/logger"
)

// AddCartItemRequest is the payload for adding one entry to the cart.
type AddCartItemRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Size        string `json:"size" validate:"required,max=50"`
	Price       string `json:"price" validate:"required"`
	Image       string `json:"image,omitempty" validate:"max=2000"`
	Quantity    int    `json:"quantity,omitempty" validate:"min=0,max=99"`
	Description string `json:"description,omitempty" validate:"max=500"`
	ImageURL    string `json:"imageUrl,omitempty" validate:"max=2000"`
}

// UpdateCartItemRequest sets an entry's quantity; zero removes the entry.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"min=0,max=99"`
}

// CartFetch renders the caller's cart.
func CartFetch(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := middleware.CartTokenFromContext(r.Context())
		items, err := svc.Load(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart.Render(items))
	}
}

// CartCount returns the badge count.
func CartCount(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := middleware.CartTokenFromContext(r.Context())
		count, err := svc.Count(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"count": count})
	}
}

// CartAddItem appends one entry to the cart.
func CartAddItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body AddCartItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		price, err := validators.ParsePrice(body.Price)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token := middleware.CartTokenFromContext(r.Context())
		item, err := svc.Add(r.Context(), token, cart.AddItemInput{
			Title:       validators.SanitizeString(body.Title, 200),
			Size:        validators.SanitizeString(body.Size, 50),
			Price:       price,
			Image:       body.Image,
			Quantity:    body.Quantity,
			Description: validators.SanitizeString(body.Description, 500),
			ImageURL:    body.ImageURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

// CartUpdateItem sets the entry's quantity.
func CartUpdateItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body UpdateCartItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token := middleware.CartTokenFromContext(r.Context())
		if err := svc.SetQuantity(r.Context(), token, itemID, body.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.Load(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart.Render(items))
	}
}

// CartRemoveItem deletes the entry.
func CartRemoveItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		token := middleware.CartTokenFromContext(r.Context())
		if err := svc.Remove(r.Context(), token, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.Load(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart.Render(items))
	}
}

// CartClear empties the cart.
func CartClear(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := middleware.CartTokenFromContext(r.Context())
		if err := svc.Clear(r.Context(), token); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart.Render(nil))
	}
}

func parseItemID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "itemId")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid item id")
	}
	return id, nil
}
