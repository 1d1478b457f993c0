package repository

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"

	"github.com/mercatto/catalog/internal/adapters/mongo/document"
	"github.com/mercatto/catalog/internal/adapters/outbox"
	"github.com/mercatto/catalog/internal/core/domain"
	"github.com/mercatto/catalog/internal/core/logger"
	"github.com/mercatto/catalog/internal/core/port"
	"github.com/mercatto/catalog/internal/core/serviceerrors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// sortKeys maps the external sort vocabulary onto document field names.
var sortKeys = map[string]string{
	"name":      "name",
	"price":     "price",
	"count":     "count",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

type ProductRepository struct {
	*BaseRepository[document.ProductDocument]
	collection *mongo.Collection
	outbox     outbox.Repository
	tx         port.TransactionManager
}

func NewProductRepository(db *mongo.Database, outbox outbox.Repository, tx port.TransactionManager) port.ProductPort {
	repo := &ProductRepository{
		BaseRepository: NewBaseRepository[document.ProductDocument](db, "products"),
		collection:     db.Collection("products"),
		outbox:         outbox,
		tx:             tx,
	}

	if err := repo.createIndexes(context.Background()); err != nil {
		logger.Error(context.Background(), "failed to create indexes", err, map[string]any{
			"collection": "products",
		})
	}

	return repo
}

func (r *ProductRepository) createIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(false),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetUnique(false),
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create inserts the product and its created event in one transaction, so a
// stored product always has a pending event and vice versa.
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if product.ID != "" {
		return errors.New("cannot create product with existing ID")
	}

	doc := document.ToProductDocument(product)
	doc.ID = primitive.NewObjectID()

	err := r.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if _, err := r.collection.InsertOne(txCtx, doc); err != nil {
			return parseError(err)
		}
		product.ID = domain.ID(doc.ID.Hex())
		return r.insertEvent(txCtx, domain.NewProductCreatedEvent(product))
	})
	if err != nil {
		product.ID = ""
		return err
	}

	return nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id domain.ID) (*domain.Product, error) {
	doc, err := r.FindByID(ctx, string(id))
	if err != nil {
		return nil, err
	}

	return doc.ToDomain(), nil
}

func (r *ProductRepository) List(ctx context.Context, params domain.ListParams) ([]*domain.Product, int64, error) {
	filter := bson.M{}
	if params.Name != "" {
		filter["name"] = params.Name
	}
	if params.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(params.Search), Options: "i"}
		filter["$or"] = []bson.M{
			{"name": pattern},
			{"description": pattern},
		}
	}

	total, err := r.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	sort := bson.D{}
	for _, field := range params.Sort {
		key, ok := sortKeys[field.Key]
		if !ok {
			return nil, 0, serviceerrors.NewInvalidRequestError("cannot sort by " + field.Key)
		}
		direction := 1
		if field.Descending {
			direction = -1
		}
		sort = append(sort, bson.E{Key: key, Value: direction})
	}
	if len(sort) == 0 {
		sort = bson.D{{Key: "created_at", Value: -1}}
	}

	opts := options.Find().
		SetSkip(params.Skip()).
		SetLimit(int64(params.Limit)).
		SetSort(sort)

	docs, err := r.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}

	products := make([]*domain.Product, len(docs))
	for i, doc := range docs {
		products[i] = doc.ToDomain()
	}

	return products, total, nil
}

func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	objectID, err := primitive.ObjectIDFromHex(string(product.ID))
	if err != nil {
		return parseError(err)
	}

	doc := document.ToProductDocument(product)
	update := bson.M{
		"name":        doc.Name,
		"price":       doc.Price,
		"unit":        doc.Unit,
		"count":       doc.Count,
		"description": doc.Description,
		"updated_at":  doc.UpdatedAt,
	}

	return r.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		result, err := r.collection.UpdateOne(txCtx, bson.M{"_id": objectID}, bson.M{"$set": update})
		if err != nil {
			return parseError(err)
		}
		if result.MatchedCount == 0 {
			return serviceerrors.NewNotFoundError("product not found")
		}
		return r.insertEvent(txCtx, domain.NewProductUpdatedEvent(product))
	})
}

func (r *ProductRepository) Delete(ctx context.Context, id domain.ID) error {
	objectID, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		return parseError(err)
	}

	return r.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		result, err := r.collection.DeleteOne(txCtx, bson.M{"_id": objectID})
		if err != nil {
			return parseError(err)
		}
		if result.DeletedCount == 0 {
			return serviceerrors.NewNotFoundError("product not found")
		}
		return r.insertEvent(txCtx, domain.NewProductDeletedEvent(id))
	})
}

func (r *ProductRepository) insertEvent(ctx context.Context, event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return r.outbox.Insert(ctx, outbox.Entry{
		EventName:  event.GetName(),
		EntityName: event.GetEntityName(),
		EventData:  data,
	})
}
