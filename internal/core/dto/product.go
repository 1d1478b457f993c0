package dto

import (
	"fmt"
	"strings"

	"github.com/mercatto/catalog/internal/core/domain"
)

const (
	DefaultPageLimit = 30
	MaxPageLimit     = 100
)

type ProductUnitInput struct {
	Unit  string `json:"unit" binding:"omitempty,oneof=kg g l"`
	Count int    `json:"count"`
}

func (u *ProductUnitInput) ToDomain() domain.ProductUnit {
	if u == nil {
		return domain.ProductUnit{}
	}
	return domain.ProductUnit{Unit: domain.UnitKind(u.Unit), Count: u.Count}
}

// CreateProductRequest doubles as the write allowlist: only the declared
// fields bind, everything else in the payload is dropped.
//
// Unit is not marked required even though the upstream schema reads as if it
// were. The source declared the flag at a nesting level where it never took
// effect, so enforcing it here would change observable behavior.
type CreateProductRequest struct {
	Name  string            `json:"name" binding:"required"`
	Price float64           `json:"price" binding:"required,gt=0"`
	Unit  *ProductUnitInput `json:"unit" binding:"omitempty"`
	// Pointer so an explicit zero still satisfies required: gin treats a
	// plain int 0 as absent.
	Count       *int   `json:"count" binding:"required,gte=0"`
	Description string `json:"description"`
}

type UpdateProductRequest struct {
	Name        string            `json:"name" binding:"required"`
	Price       float64           `json:"price" binding:"required,gt=0"`
	Unit        *ProductUnitInput `json:"unit" binding:"omitempty"`
	Count       *int              `json:"count" binding:"required,gte=0"`
	Description string            `json:"description"`
}

// ListProductsQuery carries the raw query parameters of the list endpoint.
// Pointer fields distinguish "absent" from zero so defaults can be applied.
type ListProductsQuery struct {
	Page  *int   `form:"page" binding:"omitempty,min=1"`
	Limit *int   `form:"limit" binding:"omitempty,min=1,max=100"`
	Sort  string `form:"sort"`
	Name  string `form:"name"`
	Q     string `form:"q"`
}

var sortableFields = map[string]bool{
	"name":      true,
	"price":     true,
	"count":     true,
	"createdAt": true,
	"updatedAt": true,
}

// Normalize applies defaults and turns the raw query into typed list params.
// Unknown sort keys are rejected so arbitrary fields cannot be probed.
func (q *ListProductsQuery) Normalize() (domain.ListParams, error) {
	params := domain.ListParams{
		Name:   q.Name,
		Search: q.Q,
		Page:   1,
		Limit:  DefaultPageLimit,
	}
	if q.Page != nil {
		params.Page = *q.Page
	}
	if q.Limit != nil {
		params.Limit = *q.Limit
	}

	sort := q.Sort
	if sort == "" {
		sort = "-createdAt"
	}
	for _, field := range strings.Split(sort, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		descending := strings.HasPrefix(field, "-")
		key := strings.TrimPrefix(field, "-")
		if !sortableFields[key] {
			return domain.ListParams{}, fmt.Errorf("cannot sort by %q", key)
		}
		params.Sort = append(params.Sort, domain.SortField{Key: key, Descending: descending})
	}

	return params, nil
}
