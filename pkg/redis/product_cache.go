package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisclient "github.com/redis/go-redis/v9"

	"julianmorley.ca/con-plar/storefront/pkg/models"
)

const (
	recentProductsKey = "products:recent"
	recentProductsMax = 100
)

// ProductCache is a cache-aside store for mapped products keyed by handle.
type ProductCache struct {
	client redisclient.UniversalClient
	ttl    time.Duration
}

func NewProductCache(client redisclient.UniversalClient, ttl time.Duration) *ProductCache {
	return &ProductCache{client: client, ttl: ttl}
}

func productKey(handle string) string {
	return fmt.Sprintf("product:%s", handle)
}

func categoryKey(category models.Category) string {
	return fmt.Sprintf("category:%s", category)
}

func (c *ProductCache) ProductByHandle(ctx context.Context, handle string) (models.Product, bool, error) {
	productJSON, err := c.client.Get(ctx, productKey(handle)).Bytes()
	if errors.Is(err, redisclient.Nil) {
		return models.Product{}, false, nil
	}
	if err != nil {
		return models.Product{}, false, err
	}

	var product models.Product
	if err := json.Unmarshal(productJSON, &product); err != nil {
		return models.Product{}, false, fmt.Errorf("failed to unmarshal product %s: %w", handle, err)
	}
	return product, true, nil
}

// StoreProduct caches the product and indexes its handle by category and in
// the recently viewed list.
func (c *ProductCache) StoreProduct(ctx context.Context, product models.Product) error {
	productJSON, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("failed to marshal product %s: %w", product.Handle, err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, productKey(product.Handle), productJSON, c.ttl)

	catKey := categoryKey(product.Category)
	pipe.LRem(ctx, catKey, 0, product.Handle)
	pipe.LPush(ctx, catKey, product.Handle)
	pipe.Expire(ctx, catKey, c.ttl)

	pipe.LRem(ctx, recentProductsKey, 0, product.Handle)
	pipe.LPush(ctx, recentProductsKey, product.Handle)
	pipe.LTrim(ctx, recentProductsKey, 0, recentProductsMax-1)
	pipe.Expire(ctx, recentProductsKey, c.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache product %s: %w", product.Handle, err)
	}
	return nil
}

// Invalidate drops a cached product and removes its handle from every
// category list, so a product that changed category leaves no stale entry.
func (c *ProductCache) Invalidate(ctx context.Context, handle string) error {
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, productKey(handle))
	for _, category := range models.Categories {
		pipe.LRem(ctx, categoryKey(category), 0, handle)
	}
	pipe.LRem(ctx, recentProductsKey, 0, handle)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to invalidate product %s: %w", handle, err)
	}
	return nil
}
