package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/docquery/api/handlers"
	"github.com/meghashyamc/docquery/config"
	"github.com/meghashyamc/docquery/logger"
	"github.com/meghashyamc/docquery/metrics"
	"github.com/meghashyamc/docquery/services/index"
	"github.com/meghashyamc/docquery/validation"
)

func setupRoutes(router *gin.Engine, cfg *config.Config, logger logger.Logger, service *index.Service, validator *validation.Validator, m *metrics.Metrics) error {
	router.GET("/health", health())
	router.GET("/metrics", gin.WrapH(m.Handler()))

	handlers.SetupUpload(router, logger, service, validator, cfg.GetMaxUploadBytes())
	handlers.SetupQuery(router, logger, service, validator, m)
	handlers.SetupIndexStatus(router, service)

	if cfg.GetGraphQLEnabled() {
		if err := handlers.SetupGraphQL(router, logger, service, m); err != nil {
			return err
		}
	}

	return nil
}

func health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	}
}

func newRouter(logger logger.Logger, m *metrics.Metrics) *gin.Engine {
	router := gin.New()
	router.UseRawPath = true
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(logger))
	router.Use(metricsMiddleware(m))
	router.Use(_CORSMiddleware())
	router.Use(recoveryMiddleware(logger))

	return router
}
