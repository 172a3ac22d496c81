package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"julianmorley.ca/con-plar/storefront/pkg/gateway"
	"julianmorley.ca/con-plar/storefront/pkg/models"
)

const (
	defaultPageSize = 50
	defaultMaxPages = 20
)

// Cache stores mapped products by handle. Lookups report found=false on a miss.
type Cache interface {
	ProductByHandle(ctx context.Context, handle string) (product models.Product, found bool, err error)
	StoreProduct(ctx context.Context, product models.Product) error
}

// Service loads products through a gateway and maps them.
type Service struct {
	gw       gateway.CatalogGateway
	cache    Cache
	pageSize int
	maxPages int
	logger   *zap.Logger
}

type Option func(*Service)

func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithPaging sets the page size per gateway call and the number of pages
// fetched when loading the whole catalog.
func WithPaging(pageSize, maxPages int) Option {
	return func(s *Service) {
		s.pageSize = gateway.ClampPageSize(pageSize)
		if maxPages > 0 {
			s.maxPages = maxPages
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(gw gateway.CatalogGateway, opts ...Option) *Service {
	s := &Service{
		gw:       gw,
		pageSize: defaultPageSize,
		maxPages: defaultMaxPages,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProductByHandle checks the cache first, then the gateway, caching what it
// fetched. cached reports a cache hit. Cache failures are logged and ignored.
func (s *Service) ProductByHandle(ctx context.Context, handle string) (product models.Product, cached bool, err error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return models.Product{}, false, gateway.ErrProductNotFound
	}

	if s.cache != nil {
		p, found, err := s.cache.ProductByHandle(ctx, handle)
		if err != nil {
			s.logger.Warn("product cache lookup failed", zap.String("handle", handle), zap.Error(err))
		} else if found {
			return p, true, nil
		}
	}

	raw, err := s.gw.ProductByHandle(ctx, handle)
	if err != nil {
		return models.Product{}, false, fmt.Errorf("product %q: %w", handle, err)
	}
	product = MapProduct(raw)

	if s.cache != nil {
		if err := s.cache.StoreProduct(ctx, product); err != nil {
			s.logger.Warn("failed to cache product", zap.String("handle", handle), zap.Error(err))
		}
	}
	return product, false, nil
}

// AllProducts walks the paginated catalog up to the configured page limit.
func (s *Service) AllProducts(ctx context.Context) ([]models.Product, error) {
	var (
		raws  []models.RawProduct
		after string
	)
	for page := 0; page < s.maxPages; page++ {
		res, err := s.gw.Products(ctx, gateway.PageRequest{First: s.pageSize, After: after})
		if err != nil {
			return nil, fmt.Errorf("load catalog page %d: %w", page+1, err)
		}
		raws = append(raws, res.Products...)
		if !res.HasNextPage || res.EndCursor == "" {
			return MapProducts(raws), nil
		}
		after = res.EndCursor
	}
	s.logger.Warn("catalog truncated at page limit",
		zap.Int("max_pages", s.maxPages),
		zap.Int("products", len(raws)))
	return MapProducts(raws), nil
}

// Search runs a backend text search. The results are mapped but not filtered further.
func (s *Service) Search(ctx context.Context, query string) ([]models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Product{}, nil
	}
	raws, err := s.gw.SearchProducts(ctx, query, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return MapProducts(raws), nil
}

// Filter loads the catalog and applies state to it.
func (s *Service) Filter(ctx context.Context, state FilterState) ([]models.Product, error) {
	products, err := s.AllProducts(ctx)
	if err != nil {
		return nil, err
	}
	return state.Apply(products), nil
}

// Facets lists the facet values available among the miniatures in the catalog.
func (s *Service) Facets(ctx context.Context) (map[models.Facet][]string, error) {
	products, err := s.AllProducts(ctx)
	if err != nil {
		return nil, err
	}
	return FacetOptions(products), nil
}

// IsNotFound reports whether err means the product does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gateway.ErrProductNotFound)
}
