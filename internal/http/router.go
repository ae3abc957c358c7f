package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fjod/shopclassy/internal/hydration"
)

type RouterDeps struct {
	Catalog        CatalogService
	Cart           CartStore
	Hydration      *hydration.Service
	Logger         *zap.Logger
	RequestTimeout time.Duration
	MaxBodySize    int64

	// TracerProvider and Propagator default to the otel globals.
	TracerProvider trace.TracerProvider
	Propagator     propagation.TextMapPropagator
}

func NewRouter(d RouterDeps) http.Handler {
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 30 * time.Second
	}
	if d.MaxBodySize <= 0 {
		d.MaxBodySize = 1 << 20
	}

	products := NewProductHandler(d.Catalog)
	cartHandler := NewCartHandler(d.Cart, d.Catalog)
	hydrationHandler := NewHydrationHandler(d.Hydration, d.Catalog)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(d.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(BodyLimit(d.MaxBodySize))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", products.List)
		r.Get("/products/{id}", products.Get)
		r.Get("/categories", products.Categories)
		r.Get("/sort-options", products.SortOptions)
		r.Post("/catalog/refresh", products.Refresh)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{product_id}", cartHandler.RemoveItem)
		})

		r.Route("/hydration", func(r chi.Router) {
			r.Get("/tips", hydrationHandler.Tips)
			r.Get("/routines", hydrationHandler.Routines)
			r.Get("/routines/{id}", hydrationHandler.Routine)
			r.Get("/recommendations", hydrationHandler.Recommendations)
			r.Get("/products/{id}/tips", hydrationHandler.ProductTips)
			r.Get("/stats", hydrationHandler.Stats)
		})
	})

	opts := []otelhttp.Option{
		otelhttp.WithFilter(func(r *http.Request) bool { return r.URL.Path != "/health" }),
	}
	if d.TracerProvider != nil {
		opts = append(opts, otelhttp.WithTracerProvider(d.TracerProvider))
	}
	if d.Propagator != nil {
		opts = append(opts, otelhttp.WithPropagators(d.Propagator))
	}
	return otelhttp.NewHandler(r, "storefront", opts...)
}
