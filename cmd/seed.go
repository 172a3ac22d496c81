package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"julianmorley.ca/con-plar/storefront/pkg/global"
	"julianmorley.ca/con-plar/storefront/pkg/models"
	"julianmorley.ca/con-plar/storefront/pkg/mongo"
	"julianmorley.ca/con-plar/storefront/pkg/redis"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a YAML catalog into the local product collection",
	Long: `Upserts every product in the file into MongoDB by id and drops any cached
copy from Redis so the next request sees the new data.

Example:
  storefront seed --file catalog.yaml`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "catalog.yaml", "catalog file")
}

type catalogFile struct {
	Products []models.RawProduct `yaml:"products"`
}

// loadCatalogFile reads and checks a seed file. Every product needs an id, a
// unique handle and at least one variant.
func loadCatalogFile(path string) ([]models.RawProduct, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	var problems []string
	seen := map[string]bool{}
	for i, p := range file.Products {
		switch {
		case p.ID == "":
			problems = append(problems, fmt.Sprintf("product %d: missing id", i))
		case p.Handle == "":
			problems = append(problems, fmt.Sprintf("product %s: missing handle", p.ID))
		case seen[p.Handle]:
			problems = append(problems, fmt.Sprintf("product %s: duplicate handle %q", p.ID, p.Handle))
		case len(p.Variants) == 0:
			problems = append(problems, fmt.Sprintf("product %s: no variants", p.ID))
		}
		seen[p.Handle] = true
		if p.Tags == nil {
			file.Products[i].Tags = []string{}
		}
		if p.Images == nil {
			file.Products[i].Images = []models.Image{}
		}
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("%s: %s", path, strings.Join(problems, "; "))
	}
	return file.Products, nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	products, err := loadCatalogFile(seedFile)
	if err != nil {
		return err
	}

	ctx, cancel := global.GetDefaultTimer()
	defer cancel()

	client, db, err := connectMongo(ctx, cfg)
	if err != nil {
		return err
	}
	defer disconnectMongo(ctx, client)

	result, err := mongo.NewProductRepository(db).UpsertProducts(ctx, products)
	if err != nil {
		return err
	}
	logger.Info("catalog seeded",
		zap.String("file", seedFile),
		zap.Int64("inserted", result.UpsertedCount),
		zap.Int64("updated", result.ModifiedCount))

	rc := redis.NewClient(cfg)
	defer rc.Close()
	if err := redis.Ping(ctx, rc); err != nil {
		logger.Warn("redis unavailable, cached products were not invalidated", zap.Error(err))
		return nil
	}
	cache := redis.NewProductCache(rc, cfg.ProductCacheTTL)
	for _, p := range products {
		if err := cache.Invalidate(ctx, p.Handle); err != nil {
			logger.Warn("failed to invalidate cached product", zap.String("handle", p.Handle), zap.Error(err))
		}
	}
	return nil
}
