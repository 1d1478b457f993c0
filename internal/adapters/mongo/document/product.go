package document

import (
	"time"

	"github.com/mercatto/catalog/internal/core/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductUnitDocument struct {
	Unit  string `bson:"unit,omitempty"`
	Count int    `bson:"count,omitempty"`
}

// ProductDocument mirrors the body-allowlist field set plus the managed
// _id/created_at/updated_at fields, so validation and storage cannot drift.
type ProductDocument struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty"`
	Name        string              `bson:"name"`
	Price       float64             `bson:"price"`
	Unit        ProductUnitDocument `bson:"unit"`
	Count       int                 `bson:"count"`
	Description string              `bson:"description,omitempty"`
	CreatedAt   time.Time           `bson:"created_at"`
	UpdatedAt   time.Time           `bson:"updated_at"`
}

func (doc ProductDocument) GetID() primitive.ObjectID {
	return doc.ID
}

func (doc *ProductDocument) ToDomain() *domain.Product {
	return &domain.Product{
		ID:    domain.ID(doc.ID.Hex()),
		Name:  doc.Name,
		Price: doc.Price,
		Unit: domain.ProductUnit{
			Unit:  domain.UnitKind(doc.Unit.Unit),
			Count: doc.Unit.Count,
		},
		Count:       doc.Count,
		Description: doc.Description,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
}

func ToProductDocument(p *domain.Product) *ProductDocument {
	return &ProductDocument{
		Name:  p.Name,
		Price: p.Price,
		Unit: ProductUnitDocument{
			Unit:  string(p.Unit.Unit),
			Count: p.Unit.Count,
		},
		Count:       p.Count,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
