package router

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"julianmorley.ca/con-plar/storefront/pkg/cart"
	"julianmorley.ca/con-plar/storefront/pkg/catalog"
	"julianmorley.ca/con-plar/storefront/pkg/global"
	"julianmorley.ca/con-plar/storefront/pkg/models"
)

// CatalogService is the read side the handlers need. *catalog.Service implements it.
type CatalogService interface {
	ProductByHandle(ctx context.Context, handle string) (models.Product, bool, error)
	Filter(ctx context.Context, state catalog.FilterState) ([]models.Product, error)
	Search(ctx context.Context, query string) ([]models.Product, error)
	Facets(ctx context.Context) (map[models.Facet][]string, error)
}

// CartSessions hands out initialized cart machines. *session.Manager implements it.
type CartSessions interface {
	Ready(ctx context.Context, sessionID string) (*cart.Machine, error)
}

type Dependencies struct {
	Config   global.Config
	Logger   *zap.Logger
	Catalog  CatalogService
	Sessions CartSessions
	// Health is optional; it should report whether the backend is reachable.
	Health func(ctx context.Context) error
}

func New(deps Dependencies) *gin.Engine {
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	origins := deps.Config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), RequestLogger(deps.Logger))
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "X-Total-Count", "X-Cache"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if deps.Config.RequestTimeout > 0 {
		engine.Use(Timeout(deps.Config.RequestTimeout))
	}

	h := &Handler{
		catalog:  deps.Catalog,
		sessions: deps.Sessions,
		health:   deps.Health,
		logger:   deps.Logger,
	}
	InitializeRoutes(engine, h)
	return engine
}

func InitializeRoutes(engine *gin.Engine, h *Handler) {
	api := engine.Group("/api")
	{
		api.GET("/health", h.HealthCheck)
		api.GET("/categories", h.GetCategories)
		api.GET("/search", h.SearchProducts)
		api.GET("/facets", h.GetFacets)

		products := api.Group("/products")
		{
			products.GET("", h.GetProducts)
			products.GET("/:handle", h.GetProductByHandle)
		}

		carts := api.Group("/cart/:sessionId")
		carts.Use(SessionMiddleware())
		{
			carts.GET("", h.GetCart)
			carts.POST("/items", h.AddToCart)
			carts.PUT("/items/:lineId", h.UpdateCartItem)
			carts.DELETE("/items/:lineId", h.RemoveFromCart)
			carts.PUT("/panel", h.SetCartPanel)
		}
	}
}
