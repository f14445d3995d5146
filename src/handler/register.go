package handler

import (
	"context"

	"github.com/ascension-ai/backend/src/domain"
	"github.com/ascension-ai/backend/src/service"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Services groups everything the HTTP surface depends on.
type Services struct {
	Domains      *service.DomainService
	Verification *service.VerificationService
	Funnels      *service.FunnelService
	Resolver     *service.TenantResolver
	Classifier   *service.HostClassifier
}

func RegisterRoutes(ctx context.Context, router *gin.Engine, svc Services) {

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("domainname", func(fl validator.FieldLevel) bool {
			return domain.ValidateDomainName(fl.Field().String()) == nil
		})
	}

	SetMiddlewares(ctx, router)

	// The edge router re-dispatches tenant traffic into the same engine.
	router.Use(EdgeRouterMiddleware(svc.Classifier, router))

	router.GET("/health", handleHealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	domainHandler := NewDomainHandler(svc.Domains, svc.Verification)
	funnelHandler := NewFunnelHandler(svc.Funnels, svc.Resolver)

	v1 := router.Group("/api/v1")
	{
		// Domain management endpoints
		v1.GET("/domains", domainHandler.ListDomains)
		v1.POST("/domains", domainHandler.CreateDomain)
		v1.PUT("/domains", domainHandler.UpdateDomain)
		v1.DELETE("/domains/:id", domainHandler.DeleteDomain)
		v1.POST("/domains/verify", domainHandler.VerifyDomain)

		// Funnel endpoints
		v1.POST("/funnels", funnelHandler.CreateFunnel)
		v1.GET("/funnels/lookup", funnelHandler.LookupFunnel)
		v1.GET("/funnels/:id", funnelHandler.GetFunnel)

		// Rewrite target for tenant traffic
		v1.GET("/serve", funnelHandler.ServeFunnel)
	}
}
