package graph

import (
	"context"
	"errors"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/meghashyamc/docquery/logger"
	"github.com/meghashyamc/docquery/metrics"
	"github.com/meghashyamc/docquery/services/index"
)

// Backend is what the schema resolves against; *index.Service satisfies it.
type Backend interface {
	ListDocuments(ctx context.Context) ([]index.DocumentInfo, error)
	Query(ctx context.Context, question string) (*index.Answer, error)
	Status() index.Status
}

var healthStatusType = graphql.NewObject(graphql.ObjectConfig{
	Name: "HealthStatus",
	Fields: graphql.Fields{
		"status": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
	},
})

var documentType = graphql.NewObject(graphql.ObjectConfig{
	Name:        "Document",
	Description: "A file in the storage directory.",
	Fields: graphql.Fields{
		"name":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"size":       &graphql.Field{Type: graphql.NewNonNull(graphql.Int), Description: "Size in bytes."},
		"uploadedAt": &graphql.Field{Type: graphql.DateTime, Description: "Null for files not uploaded through this service."},
	},
})

var sourceType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Source",
	Fields: graphql.Fields{
		"document": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"chunk":    &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"score":    &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		"text":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
	},
})

var queryResponseType = graphql.NewObject(graphql.ObjectConfig{
	Name: "QueryResponse",
	Fields: graphql.Fields{
		"response": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"sources":  &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(sourceType)))},
	},
})

var indexStatusType = graphql.NewObject(graphql.ObjectConfig{
	Name: "IndexStatus",
	Fields: graphql.Fields{
		"ready":         &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"generation":    &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"documentCount": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"chunkCount":    &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"builtAt":       &graphql.Field{Type: graphql.DateTime},
	},
})

type resolver struct {
	backend Backend
	logger  logger.Logger
	metrics *metrics.Metrics
}

func NewSchema(logger logger.Logger, backend Backend, m *metrics.Metrics) (graphql.Schema, error) {
	r := &resolver{backend: backend, logger: logger, metrics: m}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"health": &graphql.Field{
				Type:        graphql.NewNonNull(healthStatusType),
				Description: "Check if the service is up and running.",
				Resolve:     r.health,
			},
			"documents": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(documentType))),
				Description: "List all uploaded documents.",
				Resolve:     r.documents,
			},
			"query": &graphql.Field{
				Type:        queryResponseType,
				Description: "Ask a question about the uploaded documents. Null until a document has been uploaded.",
				Args: graphql.FieldConfigArgument{
					"question": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.query,
			},
			"indexStatus": &graphql.Field{
				Type:        graphql.NewNonNull(indexStatusType),
				Description: "State of the current document index.",
				Resolve:     r.indexStatus,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: queryType})
}

func (r *resolver) health(p graphql.ResolveParams) (any, error) {
	return map[string]any{"status": "OK"}, nil
}

func (r *resolver) documents(p graphql.ResolveParams) (any, error) {
	documents, err := r.backend.ListDocuments(p.Context)
	if err != nil {
		logger.FromContext(p.Context, r.logger).Error("could not list documents", "err", err.Error())
		return nil, err
	}

	result := make([]map[string]any, len(documents))
	for i, doc := range documents {
		result[i] = map[string]any{
			"name":       doc.Name,
			"size":       doc.Size,
			"uploadedAt": timeOrNil(doc.UploadedAt),
		}
	}
	return result, nil
}

func (r *resolver) query(p graphql.ResolveParams) (any, error) {
	question, _ := p.Args["question"].(string)
	start := time.Now()

	answer, err := r.backend.Query(p.Context, question)
	if err != nil {
		if errors.Is(err, index.ErrNoDocuments) {
			r.metrics.QueriesTotal.WithLabelValues(metrics.SurfaceGraphQL, metrics.ResultNoDocuments).Inc()
			return nil, nil
		}
		r.metrics.QueriesTotal.WithLabelValues(metrics.SurfaceGraphQL, metrics.ResultError).Inc()
		return nil, err
	}
	r.metrics.QueriesTotal.WithLabelValues(metrics.SurfaceGraphQL, metrics.ResultAnswered).Inc()
	r.metrics.QueryDuration.WithLabelValues(metrics.SurfaceGraphQL).Observe(time.Since(start).Seconds())

	sources := make([]map[string]any, len(answer.Passages))
	for i, passage := range answer.Passages {
		sources[i] = map[string]any{
			"document": passage.Document,
			"chunk":    passage.Chunk,
			"score":    passage.Score,
			"text":     passage.Text,
		}
	}
	return map[string]any{"response": answer.Response, "sources": sources}, nil
}

func (r *resolver) indexStatus(p graphql.ResolveParams) (any, error) {
	status := r.backend.Status()
	return map[string]any{
		"ready":         status.Ready,
		"generation":    status.Generation,
		"documentCount": status.DocumentCount,
		"chunkCount":    status.ChunkCount,
		"builtAt":       timeOrNil(status.BuiltAt),
	}, nil
}

func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
