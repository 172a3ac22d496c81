package main

import (
	"context"
	"errors"
	"fmt"

	redisclient "github.com/redis/go-redis/v9"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"

	"julianmorley.ca/con-plar/storefront/pkg/cart"
	"julianmorley.ca/con-plar/storefront/pkg/gateway"
	"julianmorley.ca/con-plar/storefront/pkg/global"
	"julianmorley.ca/con-plar/storefront/pkg/mongo"
	"julianmorley.ca/con-plar/storefront/pkg/redis"
	"julianmorley.ca/con-plar/storefront/pkg/storefront"
)

// backend is everything the server needs from the outside world.
type backend struct {
	gateway  gateway.Gateway
	cache    *redis.ProductCache
	cartIDs  *redis.CartIDStore
	redis    *redisclient.Client
	mongo    *mongodriver.Client
	products *mongo.ProductRepository
}

func (b *backend) storeFor(sessionID string) cart.IDStore {
	return b.cartIDs.ForSession(sessionID)
}

func (b *backend) health(ctx context.Context) error {
	if err := redis.Ping(ctx, b.redis); err != nil {
		return err
	}
	if b.mongo != nil {
		if err := b.mongo.Ping(ctx, nil); err != nil {
			return fmt.Errorf("mongo ping: %w", err)
		}
	}
	return nil
}

func (b *backend) Close(ctx context.Context) error {
	var errs []error
	if b.redis != nil {
		errs = append(errs, b.redis.Close())
	}
	if b.mongo != nil {
		errs = append(errs, b.mongo.Disconnect(ctx))
	}
	return errors.Join(errs...)
}

// connectMongo opens the catalog database used by local mode, seeding and indexing.
func connectMongo(ctx context.Context, cfg global.Config) (*mongodriver.Client, *mongodriver.Database, error) {
	if cfg.MongoURI == "" {
		return nil, nil, errors.New("MONGODB_URI is not set")
	}
	client, err := mongo.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return client, mongo.Database(client, cfg), nil
}

// disconnectMongo closes a client opened by a one-shot command.
func disconnectMongo(ctx context.Context, client *mongodriver.Client) {
	if err := client.Disconnect(ctx); err != nil {
		logger.Warn("mongo disconnect failed", zap.Error(err))
	}
}

func buildBackend(ctx context.Context, cfg global.Config, logger *zap.Logger) (*backend, error) {
	b := &backend{redis: redis.NewClient(cfg)}
	if err := redis.Ping(ctx, b.redis); err != nil {
		_ = b.Close(ctx)
		return nil, err
	}
	b.cartIDs = redis.NewCartIDStore(b.redis, cfg.CartIDTTL)
	b.cache = redis.NewProductCache(b.redis, cfg.ProductCacheTTL)

	switch cfg.GatewayMode {
	case global.GatewayLocal:
		client, db, err := connectMongo(ctx, cfg)
		if err != nil {
			_ = b.Close(ctx)
			return nil, err
		}
		b.mongo = client
		b.products = mongo.NewProductRepository(db)
		carts := redis.NewCartRepository(b.redis, b.products, cfg.CartIDTTL, cfg.CheckoutBaseURL)
		b.gateway = gateway.Compose(b.products, carts)
		logger.Info("using local gateway", zap.String("database", cfg.MongoDatabase))
	default:
		b.gateway = storefront.NewClient(cfg.StorefrontDomain, cfg.StorefrontToken, cfg.StorefrontAPIVersion,
			storefront.WithLogger(logger.Named("storefront")))
		logger.Info("using storefront gateway", zap.String("domain", cfg.StorefrontDomain))
	}
	return b, nil
}
