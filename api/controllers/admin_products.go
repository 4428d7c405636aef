package controllers

import (
	"net/http"

	"github.com/mdbytes/reads-backend/api/responses"
	"github.com/mdbytes/reads-backend/api/validators"
	"github.com/mdbytes/reads-backend/internal/products"
	"github.com/mdbytes/reads-backend/pkg/logger"
)

type createProductRequest struct {
	Title          string  `json:"title" validate:"required"`
	Author         string  `json:"author" validate:"required"`
	ISBN           string  `json:"isbn" validate:"required"`
	Description    *string `json:"description,omitempty"`
	ListPriceCents int     `json:"list_price_cents" validate:"required,min=0"`
	PriceCents     int     `json:"price_cents" validate:"required,min=1"`
	Price50Cents   int     `json:"price50_cents" validate:"required,min=1"`
	Price100Cents  int     `json:"price100_cents" validate:"required,min=1"`
	ImageURL       *string `json:"image_url,omitempty"`
	IsActive       *bool   `json:"is_active,omitempty"`
	CategoryID     *uint   `json:"category_id,omitempty" validate:"omitempty,min=1"`
	CoverTypeID    *uint   `json:"cover_type_id,omitempty" validate:"omitempty,min=1"`
}

type updateProductRequest struct {
	Title          *string `json:"title,omitempty"`
	Author         *string `json:"author,omitempty"`
	ISBN           *string `json:"isbn,omitempty"`
	Description    *string `json:"description,omitempty"`
	ListPriceCents *int    `json:"list_price_cents,omitempty"`
	PriceCents     *int    `json:"price_cents,omitempty"`
	Price50Cents   *int    `json:"price50_cents,omitempty"`
	Price100Cents  *int    `json:"price100_cents,omitempty"`
	ImageURL       *string `json:"image_url,omitempty"`
	IsActive       *bool   `json:"is_active,omitempty"`
	CategoryID     *uint   `json:"category_id,omitempty"`
	CoverTypeID    *uint   `json:"cover_type_id,omitempty"`
}

// AdminProductCreate adds a title to the catalog.
func AdminProductCreate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		active := true
		if body.IsActive != nil {
			active = *body.IsActive
		}

		product, err := svc.Create(r.Context(), products.CreateInput{
			Title:          body.Title,
			Author:         body.Author,
			ISBN:           body.ISBN,
			Description:    body.Description,
			ListPriceCents: body.ListPriceCents,
			PriceCents:     body.PriceCents,
			Price50Cents:   body.Price50Cents,
			Price100Cents:  body.Price100Cents,
			ImageURL:       body.ImageURL,
			IsActive:       active,
			CategoryID:     body.CategoryID,
			CoverTypeID:    body.CoverTypeID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newProductResponse(product))
	}
}

// AdminProductGet returns a title regardless of its active flag.
func AdminProductGet(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUintParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductResponse(product))
	}
}

// AdminProductList pages the full catalog, inactive titles included.
func AdminProductList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := parseProductListQuery(r, true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductListResponse(result))
	}
}

// AdminProductUpdate applies partial edits to a title.
func AdminProductUpdate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUintParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), id, products.UpdateInput{
			Title:          body.Title,
			Author:         body.Author,
			ISBN:           body.ISBN,
			Description:    body.Description,
			ListPriceCents: body.ListPriceCents,
			PriceCents:     body.PriceCents,
			Price50Cents:   body.Price50Cents,
			Price100Cents:  body.Price100Cents,
			ImageURL:       body.ImageURL,
			IsActive:       body.IsActive,
			CategoryID:     body.CategoryID,
			CoverTypeID:    body.CoverTypeID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductResponse(product))
	}
}

// AdminProductDelete retires a title from the catalog.
func AdminProductDelete(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUintParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
