package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/docquery/logger"
	"github.com/meghashyamc/docquery/metrics"
	"github.com/meghashyamc/docquery/services/index"
	"github.com/meghashyamc/docquery/validation"
)

type QueryRequest struct {
	Question string `json:"question" validate:"valid_question,max=4000"`
}

type QueryResponse struct {
	Response string `json:"response"`
}

func SetupQuery(router *gin.Engine, logger logger.Logger, service *index.Service, validator *validation.Validator, m *metrics.Metrics) {
	router.POST("/query", handleQuery(service, logger, validator, m))
}

func handleQuery(service *index.Service, baseLogger logger.Logger, validator *validation.Validator, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := requestLogger(c, baseLogger)

		if !service.Ready() {
			log.Warn("query received before any document was uploaded")
			m.QueriesTotal.WithLabelValues(metrics.SurfaceREST, metrics.ResultNoDocuments).Inc()
			writeError(c, http.StatusBadRequest, index.ErrNoDocuments.Error())
			return
		}

		request := QueryRequest{}
		if err := c.ShouldBindJSON(&request); err != nil {
			log.Warn("could not extract question from query request", "err", err.Error())
			writeError(c, http.StatusBadRequest, messageInvalidJSONBody)
			return
		}

		if err := validator.Validate(request); err != nil {
			log.Warn("could not validate query request", "err", err.Error())
			writeError(c, http.StatusBadRequest, err.Error())
			return
		}

		start := time.Now()
		answer, err := service.Query(c.Request.Context(), request.Question)
		if err != nil {
			result := metrics.ResultError
			if errors.Is(err, index.ErrNoDocuments) {
				result = metrics.ResultNoDocuments
			}
			m.QueriesTotal.WithLabelValues(metrics.SurfaceREST, result).Inc()
			log.Error("error processing query", "err", err.Error())
			writeError(c, statusFor(err), err.Error())
			return
		}
		m.QueriesTotal.WithLabelValues(metrics.SurfaceREST, metrics.ResultAnswered).Inc()
		m.QueryDuration.WithLabelValues(metrics.SurfaceREST).Observe(time.Since(start).Seconds())

		log.Info("answered query", "generation", answer.Generation, "passages", len(answer.Passages))
		c.JSON(http.StatusOK, QueryResponse{Response: answer.Response})
	}
}
