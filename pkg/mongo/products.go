package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"julianmorley.ca/con-plar/storefront/pkg/gateway"
	"julianmorley.ca/con-plar/storefront/pkg/models"
)

const ProductsCollection = "products"

// ProductRepository is a CatalogGateway over the products collection. Pages
// are ordered by handle and the cursor is the last handle returned.
type ProductRepository struct {
	coll *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{coll: db.Collection(ProductsCollection)}
}

var _ gateway.CatalogGateway = (*ProductRepository)(nil)

func (r *ProductRepository) ProductByHandle(ctx context.Context, handle string) (models.RawProduct, error) {
	var product models.RawProduct
	err := r.coll.FindOne(ctx, bson.D{{Key: "handle", Value: handle}}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.RawProduct{}, gateway.ErrProductNotFound
	}
	if err != nil {
		return models.RawProduct{}, &gateway.TransportError{Op: "mongo product", Err: err}
	}
	return product, nil
}

func (r *ProductRepository) Products(ctx context.Context, page gateway.PageRequest) (gateway.ProductPage, error) {
	first := gateway.ClampPageSize(page.First)
	opts := options.Find().
		SetSort(bson.D{{Key: "handle", Value: 1}}).
		SetLimit(int64(first + 1))

	cursor, err := r.coll.Find(ctx, pageFilter(page.After), opts)
	if err != nil {
		return gateway.ProductPage{}, &gateway.TransportError{Op: "mongo products", Err: err}
	}
	defer cursor.Close(ctx)

	var products []models.RawProduct
	if err := cursor.All(ctx, &products); err != nil {
		return gateway.ProductPage{}, &gateway.TransportError{Op: "mongo products", Err: err}
	}
	return pageOf(products, first), nil
}

func (r *ProductRepository) SearchProducts(ctx context.Context, query string, first int) ([]models.RawProduct, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.RawProduct{}, nil
	}
	score := bson.D{{Key: "score", Value: bson.D{{Key: "$meta", Value: "textScore"}}}}
	opts := options.Find().
		SetProjection(score).
		SetSort(score).
		SetLimit(int64(gateway.ClampPageSize(first)))

	cursor, err := r.coll.Find(ctx, searchFilter(query), opts)
	if err != nil {
		return nil, &gateway.TransportError{Op: "mongo search", Err: err}
	}
	defer cursor.Close(ctx)

	products := []models.RawProduct{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, &gateway.TransportError{Op: "mongo search", Err: err}
	}
	return products, nil
}

// VariantByID finds the product owning a variant.
func (r *ProductRepository) VariantByID(ctx context.Context, variantID string) (models.RawProduct, models.RawVariant, error) {
	var product models.RawProduct
	err := r.coll.FindOne(ctx, bson.D{{Key: "variants.id", Value: variantID}}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.RawProduct{}, models.RawVariant{}, gateway.ErrProductNotFound
	}
	if err != nil {
		return models.RawProduct{}, models.RawVariant{}, fmt.Errorf("find variant %s: %w", variantID, err)
	}
	variant, ok := variantIn(product, variantID)
	if !ok {
		return models.RawProduct{}, models.RawVariant{}, gateway.ErrProductNotFound
	}
	return product, variant, nil
}

// UpsertProducts replaces products by id, inserting the ones that are new.
func (r *ProductRepository) UpsertProducts(ctx context.Context, products []models.RawProduct) (*mongo.BulkWriteResult, error) {
	if len(products) == 0 {
		return &mongo.BulkWriteResult{}, nil
	}
	writes := make([]mongo.WriteModel, len(products))
	for i, p := range products {
		writes[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: "_id", Value: p.ID}}).
			SetReplacement(p).
			SetUpsert(true)
	}
	result, err := r.coll.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return nil, fmt.Errorf("upsert products: %w", err)
	}
	return result, nil
}

func pageFilter(after string) bson.D {
	if after == "" {
		return bson.D{}
	}
	return bson.D{{Key: "handle", Value: bson.D{{Key: "$gt", Value: after}}}}
}

func searchFilter(query string) bson.D {
	return bson.D{{Key: "$text", Value: bson.D{{Key: "$search", Value: query}}}}
}

// pageOf trims the look-ahead document fetched to detect a next page.
func pageOf(products []models.RawProduct, first int) gateway.ProductPage {
	page := gateway.ProductPage{Products: products}
	if len(products) > first {
		page.Products = products[:first]
		page.HasNextPage = true
	}
	if page.Products == nil {
		page.Products = []models.RawProduct{}
	}
	if n := len(page.Products); n > 0 {
		page.EndCursor = page.Products[n-1].Handle
	}
	return page
}

func variantIn(product models.RawProduct, variantID string) (models.RawVariant, bool) {
	for _, v := range product.Variants {
		if v.ID == variantID {
			return v, true
		}
	}
	return models.RawVariant{}, false
}
