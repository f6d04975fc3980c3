package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/docquery/services/index"
)

func SetupIndexStatus(router *gin.Engine, service *index.Service) {
	router.GET("/index", handleIndexStatus(service))
}

func handleIndexStatus(service *index.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, service.Status())
	}
}
