package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mercatto/catalog/internal/adapters/config"
	"github.com/mercatto/catalog/internal/adapters/http/controllers"
	"github.com/mercatto/catalog/internal/adapters/http/middleware"
	"github.com/mercatto/catalog/internal/core/domain"
	"github.com/mercatto/catalog/internal/core/port"
)

type Router struct {
	healthController  *controllers.HealthController
	productController *controllers.ProductController
	verifier          port.TokenVerifier
	rateLimiter       middleware.RateLimiter
}

func NewRouter(
	healthController *controllers.HealthController,
	productController *controllers.ProductController,
	verifier port.TokenVerifier,
	rateLimiter middleware.RateLimiter,
) *Router {
	return &Router{
		healthController:  healthController,
		productController: productController,
		verifier:          verifier,
		rateLimiter:       rateLimiter,
	}
}

// SetupRoutes wires the product route table: reads are public, writes sit
// behind the admin gate, and every stage short-circuits on failure.
func (r *Router) SetupRoutes(router *gin.Engine) {
	rl := r.rateLimiter
	admin := middleware.Authorize(r.verifier, domain.RoleAdmin)

	router.GET("/health", r.healthController.Health)

	productGroup := router.Group("/products")
	{
		productGroup.Use(middleware.LogRequest())

		productGroup.GET("", r.productController.ListProducts)
		productGroup.GET("/:id", r.productController.GetProductByID)

		productGroup.POST("", admin, middleware.RateLimit(rl, 20, 1*time.Minute), r.productController.CreateProduct)
		productGroup.PUT("/:id", admin, middleware.RateLimit(rl, 30, 1*time.Minute), r.productController.UpdateProduct)
		productGroup.DELETE("/:id", admin, middleware.RateLimit(rl, 30, 1*time.Minute), r.productController.DeleteProduct)
	}
}

func (r *Router) ListenAndServe(ctx context.Context, config config.HTTPConfig) error {
	engine := gin.Default()
	r.SetupRoutes(engine)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", config.BindInterface, config.Port),
		Handler: engine,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
