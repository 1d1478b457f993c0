package domain

import (
	"fmt"
	"time"
)

type UnitKind string

const (
	UnitKilogram UnitKind = "kg"
	UnitGram     UnitKind = "g"
	UnitLiter    UnitKind = "l"
)

func (u UnitKind) IsValid() bool {
	return u == UnitKilogram || u == UnitGram || u == UnitLiter
}

// ProductUnit is the measuring unit of a product. Its Count is the number of
// units per package and is independent of Product.Count, the overall stocked
// quantity. The two fields are kept separate on purpose.
type ProductUnit struct {
	Unit  UnitKind
	Count int
}

type Product struct {
	ID          ID
	Name        string
	Price       float64
	Unit        ProductUnit
	Count       int
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewProduct(name string, price float64, unit ProductUnit, count int, description string) *Product {
	return &Product{
		Name:        name,
		Price:       price,
		Unit:        unit,
		Count:       count,
		Description: description,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

// Validate is the write-time guard: a product with an unknown unit kind never
// reaches the collection, regardless of what the transport layer let through.
func (p *Product) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("product name is required")
	}
	if p.Price <= 0 {
		return fmt.Errorf("product price must be positive")
	}
	if p.Unit.Unit != "" && !p.Unit.Unit.IsValid() {
		return fmt.Errorf("unknown unit kind %q", p.Unit.Unit)
	}
	return nil
}

// Apply overwrites the mutable fields and refreshes UpdatedAt. CreatedAt is
// never touched after the first persistence.
func (p *Product) Apply(name string, price float64, unit ProductUnit, count int, description string) {
	p.Name = name
	p.Price = price
	p.Unit = unit
	p.Count = count
	p.Description = description
	p.UpdatedAt = time.Now()
}

// ListParams is the normalized form of the list query: a validated
// filter/sort/paging triple the repository can execute directly.
type ListParams struct {
	Name   string
	Search string
	Sort   []SortField
	Page   int
	Limit  int
}

type SortField struct {
	Key        string
	Descending bool
}

func (p ListParams) Skip() int64 {
	return int64(p.Page-1) * int64(p.Limit)
}

type ProductCreatedEvent struct {
	ProductID ID        `json:"product_id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Count     int       `json:"count"`
	CreatedAt time.Time `json:"created_at"`
}

func (e *ProductCreatedEvent) GetName() string       { return "product.created" }
func (e *ProductCreatedEvent) GetEntityName() string { return "product" }

type ProductUpdatedEvent struct {
	ProductID ID        `json:"product_id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Count     int       `json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e *ProductUpdatedEvent) GetName() string       { return "product.updated" }
func (e *ProductUpdatedEvent) GetEntityName() string { return "product" }

type ProductDeletedEvent struct {
	ProductID ID        `json:"product_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

func (e *ProductDeletedEvent) GetName() string       { return "product.deleted" }
func (e *ProductDeletedEvent) GetEntityName() string { return "product" }

func NewProductCreatedEvent(p *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Count:     p.Count,
		CreatedAt: p.CreatedAt,
	}
}

func NewProductUpdatedEvent(p *Product) *ProductUpdatedEvent {
	return &ProductUpdatedEvent{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Count:     p.Count,
		UpdatedAt: p.UpdatedAt,
	}
}

func NewProductDeletedEvent(id ID) *ProductDeletedEvent {
	return &ProductDeletedEvent{ProductID: id, DeletedAt: time.Now()}
}
