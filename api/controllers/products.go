package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mdbytes/reads-backend/api/responses"
	"github.com/mdbytes/reads-backend/api/validators"
	"github.com/mdbytes/reads-backend/internal/products"
	"github.com/mdbytes/reads-backend/pkg/db/models"
	pkgerrors "github.com/mdbytes/reads-backend/pkg/errors"
	"github.com/mdbytes/reads-backend/pkg/logger"
	"github.com/mdbytes/reads-backend/pkg/types"
)

type productResponse struct {
	ID             uint        `json:"id"`
	Title          string      `json:"title"`
	Author         string      `json:"author"`
	ISBN           string      `json:"isbn"`
	Description    *string     `json:"description,omitempty"`
	ListPrice      types.Money `json:"list_price"`
	Price          types.Money `json:"price"`
	Price50        types.Money `json:"price50"`
	Price100       types.Money `json:"price100"`
	ImageURL       *string     `json:"image_url,omitempty"`
	IsActive       bool        `json:"is_active"`
	CategoryID     *uint       `json:"category_id,omitempty"`
	CategoryName   string      `json:"category_name,omitempty"`
	CoverTypeID    *uint       `json:"cover_type_id,omitempty"`
	CoverTypeName  string      `json:"cover_type_name,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

func newProductResponse(p *models.Product) productResponse {
	resp := productResponse{
		ID:          p.ID,
		Title:       p.Title,
		Author:      p.Author,
		ISBN:        p.ISBN,
		Description: p.Description,
		ListPrice:   types.Money(p.ListPriceCents),
		Price:       types.Money(p.PriceCents),
		Price50:     types.Money(p.Price50Cents),
		Price100:    types.Money(p.Price100Cents),
		ImageURL:    p.ImageURL,
		IsActive:    p.IsActive,
		CategoryID:  p.CategoryID,
		CoverTypeID: p.CoverTypeID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Category != nil {
		resp.CategoryName = p.Category.Name
	}
	if p.CoverType != nil {
		resp.CoverTypeName = p.CoverType.Name
	}
	return resp
}

type productListResponse struct {
	Products   []productResponse `json:"products"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalCount int64             `json:"total_count"`
}

func newProductListResponse(result *products.ListResult) productListResponse {
	out := productListResponse{
		Products:   make([]productResponse, 0, len(result.Products)),
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalCount: result.TotalCount,
	}
	for i := range result.Products {
		out.Products = append(out.Products, newProductResponse(&result.Products[i]))
	}
	return out
}

// ProductList serves the storefront browse page: active titles only,
// searchable and sortable.
func ProductList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := parseProductListQuery(r, false)
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

// ProductGet serves the storefront detail page. Inactive titles 404.
func ProductGet(svc products.Service, logg *logger.Logger) http.HandlerFunc {
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
		if !product.IsActive {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
			return
		}
		responses.WriteSuccess(w, newProductResponse(product))
	}
}

func parseProductListQuery(r *http.Request, includeInactive bool) (products.ListInput, error) {
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 10000)
	if err != nil {
		return products.ListInput{}, err
	}
	pageSize, err := validators.ParseQueryInt(r, "page_size", 20, 1, 100)
	if err != nil {
		return products.ListInput{}, err
	}

	var coverTypeID *uint
	if raw := strings.TrimSpace(r.URL.Query().Get("cover_type_id")); raw != "" {
		value, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return products.ListInput{}, pkgerrors.New(pkgerrors.CodeValidation, "cover_type_id must be numeric")
		}
		id := uint(value)
		coverTypeID = &id
	}

	return products.ListInput{
		Filters: products.ListFilters{
			Search:       strings.TrimSpace(r.URL.Query().Get("search")),
			CategoryName: strings.TrimSpace(r.URL.Query().Get("category")),
			CoverTypeID:  coverTypeID,
		},
		Sort:            r.URL.Query().Get("sort"),
		Page:            page,
		PageSize:        pageSize,
		IncludeInactive: includeInactive,
	}, nil
}

// parseUintParam reads a numeric chi URL parameter.
func parseUintParam(r *http.Request, name string) (uint, error) {
	raw := chi.URLParam(r, name)
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid "+name)
	}
	return uint(value), nil
}
