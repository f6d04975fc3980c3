package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"
	"github.com/meghashyamc/docquery/graph"
	"github.com/meghashyamc/docquery/logger"
	"github.com/meghashyamc/docquery/metrics"
	"github.com/meghashyamc/docquery/services/index"
)

func SetupGraphQL(router *gin.Engine, logger logger.Logger, service *index.Service, m *metrics.Metrics) error {
	schema, err := graph.NewSchema(logger, service, m)
	if err != nil {
		logger.Error("could not build graphql schema", "err", err.Error())
		return err
	}

	router.GET("/graphql", handleGraphQLExplorer())
	router.POST("/graphql", handleGraphQL(schema, logger))
	return nil
}

func handleGraphQLExplorer() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", graph.ExplorerHTML)
	}
}

func handleGraphQL(schema graphql.Schema, baseLogger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := requestLogger(c, baseLogger)

		request := graph.Request{}
		if err := c.ShouldBindJSON(&request); err != nil {
			log.Warn("could not decode graphql request", "err", err.Error())
			writeError(c, http.StatusBadRequest, messageInvalidJSONBody)
			return
		}

		result := graph.Execute(c.Request.Context(), schema, request)
		if result.HasErrors() {
			log.Warn("graphql request finished with errors", "operation", request.Operation(), "errors", len(result.Errors))
		}
		c.JSON(http.StatusOK, result)
	}
}
