// Package mongo provides MongoDB implementation of the catalog repository.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/bissquit/bloomshop/internal/catalog"
	"github.com/bissquit/bloomshop/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "products"

type productDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	Price       float64            `bson:"price"`
	ImageURL    string             `bson:"image_url"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (d *productDocument) toDomain() domain.Product {
	return domain.Product{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		ImageURL:    d.ImageURL,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// Repository implements the catalog.Repository interface using MongoDB.
type Repository struct {
	products *mongo.Collection
	now      func() time.Time
}

// NewRepository creates a new MongoDB repository.
func NewRepository(db *mongo.Database) *Repository {
	return &Repository{
		products: db.Collection(collectionName),
		now:      time.Now,
	}
}

// ListProducts returns one page of products in insertion order (ObjectIDs are
// time ordered) and the number of products matching the filter.
func (r *Repository) ListProducts(ctx context.Context, filter catalog.ListFilter) ([]domain.Product, int, error) {
	query := bson.M{}
	if filter.Search != "" {
		query["name"] = bson.M{"$regex": regexp.QuoteMeta(filter.Search), "$options": "i"}
	}

	total, err := r.products.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64(filter.Offset)).
		SetLimit(int64(filter.Limit))

	cur, err := r.products.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer cur.Close(ctx)

	var docs []productDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode products: %w", err)
	}

	products := make([]domain.Product, 0, len(docs))
	for i := range docs {
		products = append(products, docs[i].toDomain())
	}
	return products, int(total), nil
}

// SeedIfEmpty inserts products when the collection is empty. MongoDB offers no
// lock here: two instances seeding at the same moment may both insert.
func (r *Repository) SeedIfEmpty(ctx context.Context, products []domain.Product) (bool, error) {
	count, err := r.products.CountDocuments(ctx, bson.M{}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count products: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	now := r.now()
	docs := make([]interface{}, 0, len(products))
	for _, p := range products {
		docs = append(docs, productDocument{
			ID:          primitive.NewObjectID(),
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			ImageURL:    p.ImageURL,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	if len(docs) == 0 {
		return false, nil
	}

	if _, err := r.products.InsertMany(ctx, docs); err != nil {
		return false, fmt.Errorf("insert seed products: %w", err)
	}
	return true, nil
}

// CreateProduct inserts the product and assigns its ID.
func (r *Repository) CreateProduct(ctx context.Context, product *domain.Product) error {
	doc := productDocument{
		ID:          primitive.NewObjectID(),
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		ImageURL:    product.ImageURL,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}

	if _, err := r.products.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	product.ID = doc.ID.Hex()
	return nil
}

// GetProductByID retrieves a product by ID. Malformed IDs are reported as not found.
func (r *Repository) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, catalog.ErrProductNotFound
	}

	var doc productDocument
	if err := r.products.FindOne(ctx, bson.M{"_id": objID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}

	p := doc.toDomain()
	return &p, nil
}

// UpdateProduct writes name and price, and description and image URL when set.
func (r *Repository) UpdateProduct(ctx context.Context, id string, update catalog.ProductUpdate) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return catalog.ErrProductNotFound
	}

	set := bson.M{
		"name":       update.Name,
		"price":      update.Price,
		"updated_at": update.UpdatedAt,
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.ImageURL != nil {
		set["image_url"] = *update.ImageURL
	}

	result, err := r.products.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if result.MatchedCount == 0 {
		return catalog.ErrProductNotFound
	}
	return nil
}

// DeleteProduct removes a product.
func (r *Repository) DeleteProduct(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return catalog.ErrProductNotFound
	}

	result, err := r.products.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if result.DeletedCount == 0 {
		return catalog.ErrProductNotFound
	}
	return nil
}
