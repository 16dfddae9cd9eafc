package ports

import (
	"context"

	"github.com/aretw0/scout/pkg/domain"
)

// Oracle is the remote large-language-model call.
// Implementations return a typed response: when the request carries a schema,
// Kind is ResponseObject and Object holds the decoded JSON object.
type Oracle interface {
	Generate(ctx context.Context, req domain.OracleRequest) (domain.OracleResponse, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, req domain.OracleRequest) (domain.OracleResponse, error)

// Generate calls f.
func (f OracleFunc) Generate(ctx context.Context, req domain.OracleRequest) (domain.OracleResponse, error) {
	return f(ctx, req)
}
