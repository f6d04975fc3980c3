package graph

import (
	"context"
	"errors"
	"strings"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
)

var ErrMissingQuery = errors.New("No GraphQL query provided")

// Request is the JSON body accepted on POST /graphql. Both operation name spellings are
// accepted.
type Request struct {
	Query             string         `json:"query"`
	Variables         map[string]any `json:"variables"`
	OperationName     string         `json:"operation_name"`
	OperationNameJSON string         `json:"operationName"`
	RootValue         map[string]any `json:"root_value"`
}

// Operation returns whichever operation name spelling the client sent.
func (r Request) Operation() string {
	if r.OperationName != "" {
		return r.OperationName
	}
	return r.OperationNameJSON
}

// Execute runs the request against the schema. A request without a query yields a result
// carrying a single error instead of failing the HTTP exchange.
func Execute(ctx context.Context, schema graphql.Schema, request Request) *graphql.Result {
	if strings.TrimSpace(request.Query) == "" {
		return &graphql.Result{Errors: []gqlerrors.FormattedError{gqlerrors.FormatError(ErrMissingQuery)}}
	}

	params := graphql.Params{
		Schema:         schema,
		RequestString:  request.Query,
		VariableValues: request.Variables,
		OperationName:  request.Operation(),
		Context:        ctx,
	}
	if request.RootValue != nil {
		params.RootObject = request.RootValue
	}
	return graphql.Do(params)
}
